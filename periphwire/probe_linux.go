//go:build linux

package periphwire

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/i2c"
)

// ioctl requests and constants from linux/i2c-dev.h and linux/i2c.h.
const (
	ioctlSlaveForce = 0x0706
	ioctlRdwr       = 0x0707
	ioctlSMBus      = 0x0720

	smbusWrite = 0
	smbusQuick = 0
)

type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	buf    uintptr
}

type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

type smbusData struct {
	readWrite uint8
	command   uint8
	size      uint32
	data      uintptr
}

// devProber probes addresses on a /dev/i2c-N character device.
//
// The probe is a single zero length write message. Adapters that refuse
// zero length messages get an SMBus quick write instead, the command
// i2cdetect -q issues.
type devProber struct {
	mu    sync.Mutex
	f     *os.File
	quick bool
}

// openProber opens the character device behind a sysfs bus, which
// periph names I2C<n>.
func openProber(bus i2c.Bus) (*devProber, error) {
	var n int
	if _, err := fmt.Sscanf(bus.String(), "I2C%d", &n); err != nil {
		return nil, errors.Errorf("%s is not a /dev/i2c bus", bus)
	}

	path := fmt.Sprintf("/dev/i2c-%d", n)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &devProber{f: f}, nil
}

func (p *devProber) Probe(addr uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.quick {
		err := p.zeroWrite(addr)
		if err != unix.EOPNOTSUPP {
			return errno(err)
		}
		p.quick = true
	}

	return errno(p.quickWrite(addr))
}

func (p *devProber) zeroWrite(addr uint16) unix.Errno {
	msgs := [1]i2cMsg{{addr: addr}}
	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 1}
	_, _, e := unix.Syscall(unix.SYS_IOCTL, p.f.Fd(), ioctlRdwr, uintptr(unsafe.Pointer(&data)))
	return e
}

func (p *devProber) quickWrite(addr uint16) unix.Errno {
	// A kernel driver bound to the EEPROM, at24 typically, keeps the
	// address busy for I2C_SLAVE.
	if _, _, e := unix.Syscall(unix.SYS_IOCTL, p.f.Fd(), ioctlSlaveForce, uintptr(addr)); e != 0 {
		return e
	}

	args := smbusData{readWrite: smbusWrite, size: smbusQuick}
	_, _, e := unix.Syscall(unix.SYS_IOCTL, p.f.Fd(), ioctlSMBus, uintptr(unsafe.Pointer(&args)))
	return e
}

func (p *devProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.f.Close()
}

func errno(e unix.Errno) error {
	if e == 0 {
		return nil
	}
	return errors.Wrap(e, "i2c probe")
}
