// Package image copies byte ranges between the host and the EEPROM,
// splitting them into transactions the device accepts.
package image

import (
	"io"

	"github.com/pkg/errors"

	m24c32 "github.com/systronix/Systronix-M24C32"
)

// ReadChunk is the largest read issued per transaction.
const ReadChunk = 256

// Dump reads n bytes starting at off.
func Dump(d *m24c32.Device, off uint16, n int) ([]byte, error) {
	size := int(d.Config().Size)
	if int(off)+n > size {
		return nil, errors.Errorf("dump %d bytes at %#04x: beyond end of %d byte array", n, off, size)
	}

	if err := d.SetAddr(off); err != nil {
		return nil, errors.Wrapf(err, "dump at %#04x", off)
	}

	buf := make([]byte, n)
	for p := buf; len(p) > 0; {
		c := len(p)
		if c > ReadChunk {
			c = ReadChunk
		}
		at := d.Addr()
		// each read advances the shadow pointer past the chunk
		if err := d.ReadPage(p[:c]); err != nil {
			return buf[:len(buf)-len(p)], errors.Wrapf(err, "read %d bytes at %#04x", c, at)
		}
		p = p[c:]
	}

	return buf, nil
}

// Load writes b starting at off. A write never crosses a page boundary,
// so b is cut into runs that end at the next boundary. It returns the
// number of bytes written; io.ErrShortWrite means b did not fit.
func Load(d *m24c32.Device, off uint16, b []byte) (int, error) {
	conf := d.Config()
	if uint(off) >= conf.Size {
		return 0, errors.Errorf("load at %#04x: beyond end of %d byte array", off, conf.Size)
	}

	if err := d.SetAddr(off); err != nil {
		return 0, errors.Wrapf(err, "load at %#04x", off)
	}

	origsize := len(b)
	p := uint(off)

	for len(b) > 0 && p < conf.Size {
		// address in page
		aip := p & (conf.PageSize - 1)
		// bytes left in this page
		nip := uint(len(b))
		if nip > conf.PageSize-aip {
			nip = conf.PageSize - aip
		}

		if err := d.WritePage(b[:nip]); err != nil {
			return origsize - len(b), errors.Wrapf(err, "write %d bytes at %#04x", nip, p)
		}

		p += nip
		b = b[nip:]
	}

	if len(b) > 0 {
		return origsize - len(b), io.ErrShortWrite
	}

	return origsize, nil
}
