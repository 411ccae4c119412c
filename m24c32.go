// Package m24c32 drives an M24C32 class serial EEPROM (4 KiB, 32 byte
// pages, 16 bit memory addresses) on an I2C bus.
//
// The device keeps an internal address pointer that it increments on every
// byte it reads or writes. The bus offers no way to query that pointer, so
// the driver keeps a shadow copy derived from the operations it performed:
// SetAddr positions it, page operations advance it by their length and
// ReadCurrent increments it by one.
//
// A Device is not safe for concurrent use.
package m24c32

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Config describes an EEPROM variant.
type Config struct {
	Size       uint
	PageSize   uint
	WriteCycle time.Duration
}

var (
	ConfM24C32 = Config{Size: 4096, PageSize: 32, WriteCycle: 5 * time.Millisecond}

	// M24C32-X parts (1.6 V to 5.5 V) take up to 10 ms per write cycle.
	ConfM24C32X = Config{Size: 4096, PageSize: 32, WriteCycle: 10 * time.Millisecond}
)

// Transfer describes the byte counts of the last transaction.
type Transfer struct {
	Len      int
	Written  int
	Received int
}

// Device is one M24C32 on a Wire, with its shadow address pointer and
// transaction tally.
type Device struct {
	conf  Config
	base  Addr7
	wire  Wire
	name  string
	clock Clock
	log   log.FieldLogger

	addr  memAddr
	last  Transfer
	stats Stats
}

// New returns a Device at the lowest slave address with no Wire attached.
// Call Setup, then Init.
func New(conf Config) *Device {
	return &Device{
		conf:  conf,
		base:  BaseMin,
		name:  "empty",
		clock: sysClock{},
		log:   log.StandardLogger(),
	}
}

// Setup attaches the device at slave address base on wire. name is used
// in log output only. An invalid base or a nil wire is denied.
func (d *Device) Setup(base Addr7, wire Wire, name string) error {
	if !base.Valid() || wire == nil {
		d.tally(StatusMisuse)
		return ErrDenied
	}

	d.base = base
	d.wire = wire
	d.name = name
	return nil
}

// SetClock replaces the time source used by PingTimed.
func (d *Device) SetClock(c Clock) {
	d.clock = c
}

// SetLogger replaces the logger failures are reported to.
func (d *Device) SetLogger(l log.FieldLogger) {
	d.log = l
}

// Begin brings the bus up with cfg and sets the transport's default
// timeout, DefaultTimeout unless cfg says otherwise.
func (d *Device) Begin(cfg BusConfig) error {
	if err := d.attached(); err != nil {
		return err
	}
	if err := d.wire.Begin(cfg); err != nil {
		return err
	}
	t := cfg.Timeout
	if t == 0 {
		t = DefaultTimeout
	}
	d.wire.SetDefaultTimeout(t)
	return nil
}

// BeginDefault brings the bus up with the transport's defaults.
func (d *Device) BeginDefault() error {
	if err := d.attached(); err != nil {
		return err
	}
	return d.wire.Begin(BusConfig{})
}

// Init probes for the device. It is the only place where presence is
// cleared; afterwards every transaction fails with ErrAbsent.
func (d *Device) Init() error {
	if err := d.attached(); err != nil {
		return err
	}

	d.stats.Exists = true

	if err := d.Ping(); err != nil {
		d.stats.Exists = false
		d.logger().Warn("eeprom does not answer, marking absent")
		return ErrFailed
	}

	return nil
}

func (d *Device) Base() Addr7 { return d.base }
func (d *Device) Name() string { return d.name }
func (d *Device) Config() Config { return d.conf }
func (d *Device) Stats() Stats { return d.stats }
func (d *Device) Exists() bool { return d.stats.Exists }
func (d *Device) LastTransfer() Transfer { return d.last }

// SetAddr positions the shadow pointer. Addresses above AddrMax are
// denied and leave the pointer unchanged.
func (d *Device) SetAddr(addr uint16) error {
	if addr > AddrMax {
		d.tally(StatusMisuse)
		return ErrDenied
	}

	d.addr = encodeAddr(addr)
	return nil
}

// Addr returns the shadow pointer.
func (d *Device) Addr() uint16 {
	return d.addr.value()
}

func (d *Device) incAddr() {
	d.addr = d.addr.inc()
}

func (d *Device) advAddr(n int) {
	d.addr = d.addr.adv(n)
}

// Ping sends the slave address alone and reports whether it was ACKed.
func (d *Device) Ping() error {
	if !d.stats.Exists {
		return ErrAbsent
	}

	d.wire.BeginTransmission(d.base)
	if d.wire.EndTransmission(true) != StatusOK {
		return ErrFailed
	}

	return nil
}

// PingTimed polls the slave address until it is ACKed or timeout has
// passed. While the device commits a write it does not acknowledge
// anything, so this is the wait for the end of the write cycle.
func (d *Device) PingTimed(timeout time.Duration) error {
	if !d.stats.Exists {
		return ErrAbsent
	}

	end := d.clock.Now().Add(timeout)
	for !d.clock.Now().After(end) {
		d.wire.BeginTransmission(d.base)
		if d.wire.EndTransmission(true) == StatusOK {
			return nil
		}
	}

	return ErrFailed
}

// attached denies bus operations before Setup has attached a Wire.
func (d *Device) attached() error {
	if d.wire == nil {
		d.tally(StatusMisuse)
		return ErrDenied
	}
	return nil
}

func (d *Device) waitReady() error {
	return d.PingTimed(d.conf.WriteCycle)
}

func (d *Device) logger() log.FieldLogger {
	return d.log.WithFields(log.Fields{
		"wire": d.name,
		"base": d.base,
		"addr": d.Addr(),
	})
}

func (d *Device) tally(st Status) {
	d.stats.tally(st)
	if st != StatusOK {
		d.logger().WithField("status", st).Debug("eeprom transaction failed")
	}
}
