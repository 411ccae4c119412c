// Package sim simulates an M24C32 on its bus. Bus implements m24c32.Wire,
// so the driver can run against it in tests and dry runs.
package sim

import (
	"fmt"
	"time"

	m24c32 "github.com/systronix/Systronix-M24C32"
)

// BufferSize is the transmit and receive buffer capacity in bytes: the
// slave address, two memory address bytes and 256 data bytes.
const BufferSize = 259

const (
	memSize  = 4096
	pageSize = 32
)

// OpKind is the type of a logged bus operation.
type OpKind int

const (
	OpBegin OpKind = iota
	OpTransmit
	OpRequest
)

// Op is one logged bus operation.
type Op struct {
	Kind OpKind
	Addr m24c32.Addr7
	Data []byte
	N    int
	Stop bool
	St   m24c32.Status
}

func (o Op) String() string {
	switch o.Kind {
	case OpBegin:
		return "BEGIN"
	case OpTransmit:
		return fmt.Sprintf("TX %v % x stop %v > %v", o.Addr, o.Data, o.Stop, o.St)
	case OpRequest:
		return fmt.Sprintf("RX %v n %d stop %v > %v", o.Addr, o.N, o.Stop, o.St)
	}
	return "unknown op"
}

// Bus is a bus with one M24C32 on it. Memory starts erased (0xff).
type Bus struct {
	Mem [memSize]byte

	// Log records every transaction put on the bus.
	Log []Op

	base    m24c32.Addr7
	present bool
	clock   m24c32.Clock

	writeCycle time.Duration
	busyUntil  time.Time

	// device address pointer
	ptr uint16

	txAddr m24c32.Addr7
	tx     []byte
	rx     []byte
	status m24c32.Status

	fail    m24c32.Status
	failSet bool

	cfg     m24c32.BusConfig
	timeout time.Duration
	begun   bool
}

// New returns a Bus with a present device at base that needs writeCycle
// to commit each write, timed by clock.
func New(base m24c32.Addr7, writeCycle time.Duration, clock m24c32.Clock) *Bus {
	b := &Bus{
		base:       base,
		present:    true,
		clock:      clock,
		writeCycle: writeCycle,
	}
	for i := range b.Mem {
		b.Mem[i] = 0xff
	}
	return b
}

// SetPresent plugs or unplugs the device.
func (b *Bus) SetPresent(p bool) { b.present = p }

// FailNext makes the next transmission or request fail with st.
func (b *Bus) FailNext(st m24c32.Status) {
	b.fail = st
	b.failSet = true
}

// Pointer returns the device's internal address pointer.
func (b *Bus) Pointer() uint16 { return b.ptr }

// Busy reports whether the device is in its write cycle.
func (b *Bus) Busy() bool {
	return b.clock.Now().Before(b.busyUntil)
}

// Config returns what the driver passed to Begin.
func (b *Bus) Config() m24c32.BusConfig { return b.cfg }

func (b *Bus) Timeout() time.Duration { return b.timeout }

// Begun reports whether Begin was called.
func (b *Bus) Begun() bool { return b.begun }

// Probes counts address only transactions, ACKed or not.
func (b *Bus) Probes() int {
	n := 0
	for _, o := range b.Log {
		if o.Kind == OpTransmit && len(o.Data) == 0 {
			n++
		}
	}
	return n
}

func (b *Bus) Begin(cfg m24c32.BusConfig) error {
	b.cfg = cfg
	b.begun = true
	b.Log = append(b.Log, Op{Kind: OpBegin})
	return nil
}

func (b *Bus) SetDefaultTimeout(d time.Duration) { b.timeout = d }

func (b *Bus) BeginTransmission(addr m24c32.Addr7) {
	b.txAddr = addr
	b.tx = b.tx[:0]
}

func (b *Bus) WriteBytes(p []byte) int {
	room := BufferSize - 1 - len(b.tx)
	if room < 0 {
		room = 0
	}
	if len(p) > room {
		p = p[:room]
	}
	b.tx = append(b.tx, p...)
	return len(p)
}

// acks reports whether the device answers its slave address now.
func (b *Bus) acks(addr m24c32.Addr7) bool {
	return b.present && addr == b.base && !b.Busy()
}

func (b *Bus) EndTransmission(stop bool) m24c32.Status {
	st := b.transmit()
	b.status = st
	b.Log = append(b.Log, Op{
		Kind: OpTransmit,
		Addr: b.txAddr,
		Data: append([]byte(nil), b.tx...),
		Stop: stop,
		St:   st,
	})
	b.tx = b.tx[:0]
	return st
}

func (b *Bus) transmit() m24c32.Status {
	if b.failSet {
		b.failSet = false
		return b.fail
	}
	if !b.acks(b.txAddr) {
		return m24c32.StatusAddrNACK
	}
	if len(b.tx) < 2 {
		// address only, or a lone address byte the device ignores
		return m24c32.StatusOK
	}

	b.ptr = (uint16(b.tx[0])<<8 | uint16(b.tx[1])) & m24c32.AddrMax

	data := b.tx[2:]
	if len(data) == 0 {
		return m24c32.StatusOK
	}

	// the device latches data into the addressed page, rolling over
	// within it
	page := b.ptr &^ (pageSize - 1)
	for _, v := range data {
		b.Mem[page|b.ptr&(pageSize-1)] = v
		b.ptr = page | (b.ptr+1)&(pageSize-1)
	}
	b.busyUntil = b.clock.Now().Add(b.writeCycle)

	return m24c32.StatusOK
}

func (b *Bus) RequestFrom(addr m24c32.Addr7, n int, stop bool) int {
	b.rx = b.rx[:0]
	st := b.request(addr, n)
	b.status = st
	b.Log = append(b.Log, Op{Kind: OpRequest, Addr: addr, N: n, Stop: stop, St: st})
	return len(b.rx)
}

func (b *Bus) request(addr m24c32.Addr7, n int) m24c32.Status {
	if b.failSet {
		b.failSet = false
		return b.fail
	}
	if !b.acks(addr) {
		return m24c32.StatusAddrNACK
	}

	st := m24c32.StatusOK
	if n > BufferSize {
		n = BufferSize
		st = m24c32.StatusBufferOverflow
	}
	for i := 0; i < n; i++ {
		b.rx = append(b.rx, b.Mem[b.ptr])
		b.ptr = (b.ptr + 1) & m24c32.AddrMax
	}
	return st
}

// ReceiveByte returns the next received byte, or 0 when none is left.
func (b *Bus) ReceiveByte() byte {
	if len(b.rx) == 0 {
		return 0
	}
	v := b.rx[0]
	b.rx = b.rx[1:]
	return v
}

func (b *Bus) Status() m24c32.Status { return b.status }

var _ m24c32.Wire = (*Bus)(nil)
