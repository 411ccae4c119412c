//go:build !linux

package periphwire

import m24c32 "github.com/systronix/Systronix-M24C32"

func classify(err error) m24c32.Status {
	if err == nil {
		return m24c32.StatusOK
	}
	return m24c32.StatusOther
}
