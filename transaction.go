package m24c32

import "encoding/binary"

// WritePage writes p starting at the shadow pointer and advances the
// pointer by len(p). The device wraps writes at 32 byte page boundaries;
// splitting a write that crosses a page is up to the caller.
func (d *Device) WritePage(p []byte) error {
	if !d.stats.Exists {
		return ErrAbsent
	}
	if len(p) == 0 {
		d.tally(StatusMisuse)
		return ErrDenied
	}

	d.last = Transfer{Len: len(p)}

	if err := d.waitReady(); err != nil {
		d.tally(StatusTimeout)
		return ErrFailed
	}

	w := d.wire
	w.BeginTransmission(d.base)
	d.last.Written = w.WriteBytes(d.addr[:])
	d.last.Written += w.WriteBytes(p)
	if d.last.Written < len(d.addr)+len(p) {
		// the transmit buffer overflowed, nothing was sent
		d.tally(StatusWriteIncomplete)
		return ErrFailed
	}

	if st := w.EndTransmission(true); st != StatusOK {
		d.tally(st)
		return ErrFailed
	}

	d.advAddr(len(p))
	d.tally(StatusOK)
	return nil
}

// WriteUint8 writes one byte at the pointer.
func (d *Device) WriteUint8(v uint8) error {
	return d.WritePage([]byte{v})
}

// WriteUint16 writes v least significant byte first.
func (d *Device) WriteUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return d.WritePage(b[:])
}

// WriteUint32 writes v least significant byte first.
func (d *Device) WriteUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return d.WritePage(b[:])
}

// ReadPage fills p starting at the shadow pointer and advances the pointer
// by len(p). Reads roll over from the end of the array to address 0.
func (d *Device) ReadPage(p []byte) error {
	if !d.stats.Exists {
		return ErrAbsent
	}
	if len(p) == 0 {
		d.tally(StatusMisuse)
		return ErrDenied
	}

	d.last = Transfer{Len: len(p)}

	if err := d.waitReady(); err != nil {
		d.tally(StatusTimeout)
		return ErrFailed
	}

	w := d.wire
	w.BeginTransmission(d.base)
	d.last.Written = w.WriteBytes(d.addr[:])
	if d.last.Written != len(d.addr) {
		d.tally(StatusWriteIncomplete)
		return ErrFailed
	}

	// no stop: the read continues the transaction with a repeated start
	if st := w.EndTransmission(false); st != StatusOK {
		d.tally(st)
		return ErrFailed
	}

	d.last.Received = w.RequestFrom(d.base, len(p), true)
	if d.last.Received != len(p) {
		d.tally(readStatus(w))
		return ErrFailed
	}

	for i := range p {
		p[i] = w.ReceiveByte()
	}

	d.advAddr(len(p))
	d.tally(StatusOK)
	return nil
}

// ReadUint8 reads one byte at the pointer.
func (d *Device) ReadUint8() (uint8, error) {
	var b [1]byte
	if err := d.ReadPage(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a value stored least significant byte first.
func (d *Device) ReadUint16() (uint16, error) {
	var b [2]byte
	if err := d.ReadPage(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint32 reads a value stored least significant byte first.
func (d *Device) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := d.ReadPage(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadCurrent reads one byte at the device's own address pointer, without
// an address phase, and increments the shadow pointer. The device pointer
// must have been positioned by an earlier operation.
func (d *Device) ReadCurrent() (uint8, error) {
	if !d.stats.Exists {
		return 0, ErrAbsent
	}

	d.last = Transfer{Len: 1}

	w := d.wire
	d.last.Received = w.RequestFrom(d.base, 1, true)
	if d.last.Received != 1 {
		d.tally(readStatus(w))
		return 0, ErrFailed
	}

	b := w.ReceiveByte()
	d.incAddr()
	d.tally(StatusOK)
	return b, nil
}

// readStatus classifies a short read. A transport that reports success
// for it is booked as other error.
func readStatus(w Wire) Status {
	if st := w.Status(); st != StatusOK {
		return st
	}
	return StatusOther
}
