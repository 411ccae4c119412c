//go:build linux

package periphwire

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	m24c32 "github.com/systronix/Systronix-M24C32"
)

// errno codes used by Linux I2C adapters, see
// Documentation/i2c/fault-codes.rst in the kernel tree.
var faults = []struct {
	errno unix.Errno
	st    m24c32.Status
}{
	{unix.ENXIO, m24c32.StatusAddrNACK},
	{unix.EREMOTEIO, m24c32.StatusDataNACK},
	{unix.ETIMEDOUT, m24c32.StatusTimeout},
	{unix.EAGAIN, m24c32.StatusArbLost},
	{unix.EOVERFLOW, m24c32.StatusDataTooLong},
	{unix.EMSGSIZE, m24c32.StatusDataTooLong},
}

// classify maps a Tx error to a status. Some drivers format the errno into
// their message instead of wrapping it, so the text is matched as well.
func classify(err error) m24c32.Status {
	if err == nil {
		return m24c32.StatusOK
	}

	msg := err.Error()
	for _, f := range faults {
		if errors.Is(err, f.errno) || strings.Contains(msg, f.errno.Error()) {
			return f.st
		}
	}
	return m24c32.StatusOther
}
