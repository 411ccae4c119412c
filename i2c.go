package m24c32

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Wire is the I2C master transport the driver runs its transactions on.
//
// The call pattern follows a buffered master: BeginTransmission starts
// collecting bytes for a slave, WriteBytes appends to the transmit buffer
// and reports how many bytes fit, EndTransmission puts the buffered
// transaction on the bus. With stop == false the bus is held for a
// repeated start, so the following RequestFrom continues the same
// transaction. RequestFrom blocks until the bytes are received or the
// transport times out; the received bytes are then fetched one by one
// with ReceiveByte.
type Wire interface {
	Begin(cfg BusConfig) error
	SetDefaultTimeout(d time.Duration)

	BeginTransmission(addr Addr7)
	WriteBytes(p []byte) (buffered int)
	EndTransmission(stop bool) Status

	RequestFrom(addr Addr7, n int, stop bool) (received int)
	ReceiveByte() byte

	// Status reports the outcome of the last bus operation.
	Status() Status
}

// BusConfig configures the bus when the driver brings it up. The zero
// value leaves every setting at the transport's default.
type BusConfig struct {
	// Bus names the bus for transports that can open more than one.
	Bus string
	// Freq is the SCL clock rate.
	Freq physic.Frequency
	// Timeout bounds every blocking bus operation.
	Timeout time.Duration
}

// DefaultTimeout is applied by Device.Begin when BusConfig.Timeout is zero.
const DefaultTimeout = 200 * time.Millisecond

// Status is the outcome of a bus operation as reported by a Wire.
type Status uint8

const (
	StatusOK Status = iota
	StatusDataTooLong
	StatusAddrNACK
	StatusDataNACK
	StatusOther
	StatusTimeout
	StatusArbLost
	StatusBufferOverflow
	StatusSlaveTX
	StatusSlaveRX
	// StatusWriteIncomplete is raised by the driver when the transport
	// buffered fewer bytes than the transaction needs.
	StatusWriteIncomplete
	// StatusMisuse is raised by the driver for out of range arguments.
	StatusMisuse
)

var statusNames = [...]string{
	StatusOK:              "ok",
	StatusDataTooLong:     "data too long",
	StatusAddrNACK:        "address NACK",
	StatusDataNACK:        "data NACK",
	StatusOther:           "other error",
	StatusTimeout:         "timeout",
	StatusArbLost:         "arbitration lost",
	StatusBufferOverflow:  "buffer overflow",
	StatusSlaveTX:         "slave transmit",
	StatusSlaveRX:         "slave receive",
	StatusWriteIncomplete: "write incomplete",
	StatusMisuse:          "caller misuse",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown status"
}

// MarshalYAML reports the status by name.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Clock is the time source for busy polling.
type Clock interface {
	Now() time.Time
}

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }
