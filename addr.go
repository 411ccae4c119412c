package m24c32

import (
	"encoding/binary"
	"fmt"
)

// Addr7 is a 7 bit I2C slave address, without the R/W bit.
type Addr7 uint8

// Slave addresses selectable with the E0..E2 pins.
const (
	BaseMin Addr7 = 0x50
	BaseMax Addr7 = 0x57
)

// Valid reports whether a is one of the M24C32 slave addresses.
func (a Addr7) Valid() bool {
	return a >= BaseMin && a <= BaseMax
}

func (a Addr7) String() string {
	return fmt.Sprintf("%#02x", uint8(a))
}

// AddrMax is the highest memory address of the 4 KiB array.
const AddrMax = 0x0fff

// memAddr holds a memory address in wire order, most significant byte
// first, independent of host byte order.
type memAddr [2]byte

func encodeAddr(a uint16) memAddr {
	var m memAddr
	binary.BigEndian.PutUint16(m[:], a)
	return m
}

func (m memAddr) value() uint16 {
	return binary.BigEndian.Uint16(m[:])
}

// inc returns the address one past m, rolling over from AddrMax to 0.
func (m memAddr) inc() memAddr {
	return encodeAddr((m.value() + 1) & AddrMax)
}

// adv returns the address n bytes past m, modulo the array size.
func (m memAddr) adv(n int) memAddr {
	return encodeAddr(uint16((int(m.value()) + n) & AddrMax))
}
