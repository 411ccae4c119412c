// Package periphwire runs the m24c32 driver on a periph.io I2C bus.
//
// periph buses do whole transactions: Tx(addr, w, r) writes w, issues a
// repeated start when r is not empty, reads r and stops. Wire buffers
// what the driver writes and maps its begin/end/request calls onto Tx. An
// EndTransmission without stop is held back and sent together with the
// following RequestFrom.
//
// An address-only transaction, the driver's presence and busy probe, cannot
// be expressed as a Tx: the Linux sysfs driver returns success for an
// empty Tx without touching the bus. Probes therefore go to a Prober. Open
// attaches one that works on the /dev/i2c-N device directly; on buses
// without a Prober the probe is a one byte read, which every slave
// answers and which moves the EEPROM's address counter by one.
package periphwire

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	m24c32 "github.com/systronix/Systronix-M24C32"
)

// BufferSize caps the bytes buffered per transmission, slave address
// included.
const BufferSize = 259

// Prober puts an address-only transaction on the bus. It returns nil when
// the slave acknowledged its address.
type Prober interface {
	Probe(addr uint16) error
}

// Wire adapts a periph.io bus to m24c32.Wire.
type Wire struct {
	bus    i2c.Bus
	probe  Prober
	closer func() error
	log    log.FieldLogger

	timeout time.Duration

	addr m24c32.Addr7
	tx   []byte

	// transmit waiting for a repeated start
	held    bool
	heldTo  m24c32.Addr7
	heldBuf []byte

	rx     []byte
	status m24c32.Status
}

// New wraps an already opened bus. A bus that also implements Prober
// probes addresses itself.
func New(bus i2c.Bus) *Wire {
	w := &Wire{
		bus:     bus,
		log:     log.StandardLogger(),
		timeout: m24c32.DefaultTimeout,
	}
	if p, ok := bus.(Prober); ok {
		w.probe = p
	}
	return w
}

// Open initializes the host drivers and opens the named bus. An empty
// name picks the first bus found.
func Open(name string) (*Wire, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	b, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", name)
	}

	w := New(b)
	w.closer = b.Close

	p, err := openProber(b)
	if err != nil {
		w.log.WithError(err).Warnf("%s: probing with one byte reads", b)
		return w, nil
	}
	w.probe = p
	w.closer = func() error {
		perr := p.Close()
		if err := b.Close(); err != nil {
			return err
		}
		return perr
	}
	return w, nil
}

// SetProber replaces the way address-only transactions reach the bus.
func (w *Wire) SetProber(p Prober) {
	w.probe = p
}

// SetLogger replaces the logger failed transactions are reported to.
func (w *Wire) SetLogger(l log.FieldLogger) {
	w.log = l
}

// Close releases the bus if Open acquired it.
func (w *Wire) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer()
}

func (w *Wire) String() string {
	return w.bus.String()
}

// Begin sets the bus clock. The bus itself was chosen when it was opened.
func (w *Wire) Begin(cfg m24c32.BusConfig) error {
	if cfg.Freq != 0 {
		if err := w.bus.SetSpeed(cfg.Freq); err != nil {
			return errors.Wrapf(err, "set %s speed to %s", w.bus, cfg.Freq)
		}
	}
	if cfg.Timeout != 0 {
		w.timeout = cfg.Timeout
	}
	return nil
}

// SetDefaultTimeout sets the duration after which a failed transaction is
// reported as a timeout. periph cannot abort a Tx in flight.
func (w *Wire) SetDefaultTimeout(d time.Duration) {
	w.timeout = d
}

func (w *Wire) BeginTransmission(addr m24c32.Addr7) {
	w.addr = addr
	w.tx = w.tx[:0]
	w.held = false
}

func (w *Wire) WriteBytes(p []byte) int {
	room := BufferSize - 1 - len(w.tx)
	if len(p) > room {
		p = p[:room]
	}
	w.tx = append(w.tx, p...)
	return len(p)
}

func (w *Wire) EndTransmission(stop bool) m24c32.Status {
	if !stop {
		w.held = true
		w.heldTo = w.addr
		w.heldBuf = append(w.heldBuf[:0], w.tx...)
		w.status = m24c32.StatusOK
		return w.status
	}

	if len(w.tx) == 0 {
		w.status = w.probeAddr(w.addr)
		return w.status
	}

	w.status = w.do(w.addr, w.tx, nil)
	return w.status
}

// RequestFrom reads n bytes. periph always ends a Tx with a stop, so a
// false stop is ignored.
func (w *Wire) RequestFrom(addr m24c32.Addr7, n int, stop bool) int {
	var wb []byte
	if w.held && w.heldTo == addr {
		wb = w.heldBuf
	}
	w.held = false

	r := make([]byte, n)
	w.status = w.do(addr, wb, r)
	if w.status != m24c32.StatusOK {
		w.rx = nil
		return 0
	}

	w.rx = r
	return n
}

func (w *Wire) ReceiveByte() byte {
	if len(w.rx) == 0 {
		return 0
	}
	b := w.rx[0]
	w.rx = w.rx[1:]
	return b
}

func (w *Wire) Status() m24c32.Status {
	return w.status
}

func (w *Wire) probeAddr(addr m24c32.Addr7) m24c32.Status {
	if w.probe == nil {
		var b [1]byte
		return w.do(addr, nil, b[:])
	}

	start := time.Now()
	err := w.probe.Probe(uint16(addr))
	return w.result(addr, start, err, log.Fields{"probe": true})
}

func (w *Wire) do(addr m24c32.Addr7, wb, rb []byte) m24c32.Status {
	start := time.Now()
	err := w.bus.Tx(uint16(addr), wb, rb)
	return w.result(addr, start, err, log.Fields{"w": len(wb), "r": len(rb)})
}

func (w *Wire) result(addr m24c32.Addr7, start time.Time, err error, f log.Fields) m24c32.Status {
	if err == nil {
		return m24c32.StatusOK
	}

	st := classify(err)
	if st != m24c32.StatusAddrNACK && time.Since(start) >= w.timeout {
		st = m24c32.StatusTimeout
	}

	w.log.WithFields(f).WithFields(log.Fields{
		"bus":    w.bus.String(),
		"addr":   addr,
		"status": st,
	}).WithError(err).Debug("i2c transaction failed")

	return st
}

var _ m24c32.Wire = (*Wire)(nil)
