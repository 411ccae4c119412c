package m24c32_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m24c32 "github.com/systronix/Systronix-M24C32"
	"github.com/systronix/Systronix-M24C32/sim"
)

// newDevice returns an initialized driver on a simulated bus. The fake
// clock moves 100us per reading.
func newDevice(t *testing.T) (*m24c32.Device, *sim.Bus, *sim.Clock) {
	t.Helper()

	clk := sim.NewClock(100 * time.Microsecond)
	bus := sim.New(0x50, m24c32.ConfM24C32.WriteCycle, clk)

	d := m24c32.New(m24c32.ConfM24C32)
	d.SetClock(clk)
	require.NoError(t, d.Setup(0x50, bus, "sim"))
	require.NoError(t, d.Init())
	return d, bus, clk
}

func TestSetupRejectsBase(t *testing.T) {
	d := m24c32.New(m24c32.ConfM24C32)
	bus := sim.New(0x57, time.Millisecond, sim.NewClock(time.Microsecond))

	for _, base := range []m24c32.Addr7{0x00, 0x4f, 0x58, 0x7f} {
		assert.Equal(t, m24c32.ErrDenied, d.Setup(base, bus, "bad"))
	}
	assert.Equal(t, m24c32.BaseMin, d.Base())
	assert.Equal(t, "empty", d.Name())
	assert.Equal(t, uint64(4), d.Stats().MisuseCount)

	require.NoError(t, d.Setup(0x57, bus, "Wire1"))
	assert.Equal(t, m24c32.Addr7(0x57), d.Base())
	assert.Equal(t, "Wire1", d.Name())
}

func TestNoWireDenied(t *testing.T) {
	d := m24c32.New(m24c32.ConfM24C32)

	assert.Equal(t, m24c32.ErrDenied, d.Setup(0x50, nil, "none"))
	assert.Equal(t, "empty", d.Name())

	assert.Equal(t, m24c32.ErrDenied, d.Begin(m24c32.BusConfig{}))
	assert.Equal(t, m24c32.ErrDenied, d.BeginDefault())
	assert.Equal(t, m24c32.ErrDenied, d.Init())
	assert.False(t, d.Exists())

	s := d.Stats()
	assert.Equal(t, uint64(4), s.MisuseCount)
	assert.Equal(t, uint64(4), s.TotalErrorCount)
	assert.Equal(t, m24c32.StatusMisuse, s.ErrorVal)
}

func TestBegin(t *testing.T) {
	clk := sim.NewClock(time.Microsecond)
	bus := sim.New(0x50, time.Millisecond, clk)
	d := m24c32.New(m24c32.ConfM24C32)
	require.NoError(t, d.Setup(0x50, bus, "sim"))

	require.NoError(t, d.Begin(m24c32.BusConfig{Bus: "1"}))
	assert.True(t, bus.Begun())
	assert.Equal(t, "1", bus.Config().Bus)
	assert.Equal(t, m24c32.DefaultTimeout, bus.Timeout())

	require.NoError(t, d.Begin(m24c32.BusConfig{Timeout: 50 * time.Millisecond}))
	assert.Equal(t, 50*time.Millisecond, bus.Timeout())
}

func TestInitAbsent(t *testing.T) {
	clk := sim.NewClock(100 * time.Microsecond)
	bus := sim.New(0x50, time.Millisecond, clk)
	bus.SetPresent(false)

	d := m24c32.New(m24c32.ConfM24C32)
	d.SetClock(clk)
	require.NoError(t, d.Setup(0x50, bus, "sim"))

	assert.Equal(t, m24c32.ErrFailed, d.Init())
	assert.False(t, d.Exists())

	// the device shows up later, but presence is only re-checked by Init
	bus.SetPresent(true)
	ops := len(bus.Log)

	assert.Equal(t, m24c32.ErrAbsent, d.WriteUint32(0xdeadbeef))
	assert.Equal(t, m24c32.ErrAbsent, d.Ping())
	assert.Equal(t, ops, len(bus.Log), "no bus traffic while absent")

	require.NoError(t, d.Init())
	assert.NoError(t, d.WriteUint32(0xdeadbeef))
}

func TestNotInitializedIsAbsent(t *testing.T) {
	clk := sim.NewClock(100 * time.Microsecond)
	bus := sim.New(0x50, time.Millisecond, clk)
	d := m24c32.New(m24c32.ConfM24C32)
	require.NoError(t, d.Setup(0x50, bus, "sim"))

	_, err := d.ReadUint8()
	assert.Equal(t, m24c32.ErrAbsent, err)
	assert.Empty(t, bus.Log)
}

func TestWriteUint32(t *testing.T) {
	d, bus, _ := newDevice(t)
	require.NoError(t, d.SetAddr(0x0000))

	require.NoError(t, d.WriteUint32(0x04030201))

	assert.Equal(t, uint16(0x0004), d.Addr())
	assert.Equal(t, uint64(1), d.Stats().SuccessfulCount)
	assert.Equal(t, []byte{1, 2, 3, 4}, bus.Mem[0:4])
	assert.Equal(t, m24c32.Transfer{Len: 4, Written: 6}, d.LastTransfer())
}

func TestScalarRoundTrip(t *testing.T) {
	d, _, _ := newDevice(t)

	require.NoError(t, d.SetAddr(0x0100))
	require.NoError(t, d.WriteUint8(0x5a))
	require.NoError(t, d.WriteUint16(0xbeef))
	require.NoError(t, d.WriteUint32(0xcafef00d))
	assert.Equal(t, uint16(0x0107), d.Addr())

	require.NoError(t, d.SetAddr(0x0100))
	b, err := d.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x5a), b)

	w, err := d.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), w)

	dw, err := d.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafef00d), dw)

	assert.Equal(t, uint16(0x0107), d.Addr())
	assert.Equal(t, uint64(6), d.Stats().SuccessfulCount)
	assert.Zero(t, d.Stats().TotalErrorCount)
}

func TestReadPageWraps(t *testing.T) {
	d, bus, _ := newDevice(t)
	for i := 0; i < 32; i++ {
		bus.Mem[(0x0ff0+i)&m24c32.AddrMax] = byte(i)
	}

	require.NoError(t, d.SetAddr(0x0ff0))
	p := make([]byte, 32)
	require.NoError(t, d.ReadPage(p))

	for i, v := range p {
		assert.Equal(t, byte(i), v, "byte %d", i)
	}
	assert.Equal(t, uint16(0x0010), d.Addr())
	assert.Equal(t, m24c32.Transfer{Len: 32, Written: 2, Received: 32}, d.LastTransfer())
}

func TestReadPageFraming(t *testing.T) {
	d, bus, _ := newDevice(t)
	require.NoError(t, d.SetAddr(0x0123))
	bus.Log = nil

	_, err := d.ReadUint16()
	require.NoError(t, err)

	// busy poll, address with repeated start, read with stop
	require.Len(t, bus.Log, 3)
	assert.Equal(t, sim.Op{Kind: sim.OpTransmit, Addr: 0x50, Stop: true, St: m24c32.StatusOK}, bus.Log[0])
	assert.Equal(t, sim.Op{Kind: sim.OpTransmit, Addr: 0x50, Data: []byte{0x01, 0x23}, Stop: false, St: m24c32.StatusOK}, bus.Log[1])
	assert.Equal(t, sim.Op{Kind: sim.OpRequest, Addr: 0x50, N: 2, Stop: true, St: m24c32.StatusOK}, bus.Log[2])
}

func TestReadCurrent(t *testing.T) {
	d, bus, _ := newDevice(t)
	bus.Mem[0x0fff] = 0xa5
	bus.Mem[0x0000] = 0x5a

	require.NoError(t, d.SetAddr(0x0ffe))
	_, err := d.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0fff), d.Addr())

	bus.Log = nil
	b, err := d.ReadCurrent()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xa5), b)
	assert.Equal(t, uint16(0x0000), d.Addr())

	b, err = d.ReadCurrent()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x5a), b)
	assert.Equal(t, uint16(0x0001), d.Addr())
	assert.Equal(t, bus.Pointer(), d.Addr(), "shadow pointer follows the device")

	// no busy poll and no address phase
	for _, o := range bus.Log {
		assert.Equal(t, sim.OpRequest, o.Kind)
	}
}

func TestWriteWaitsForWriteCycle(t *testing.T) {
	d, bus, _ := newDevice(t)
	require.NoError(t, d.SetAddr(0x0040))

	require.NoError(t, d.WritePage([]byte{1, 2, 3}))
	require.True(t, bus.Busy())
	probes := bus.Probes()

	require.NoError(t, d.WritePage([]byte{4, 5, 6}))
	assert.Greater(t, bus.Probes()-probes, 1, "second write polled through the write cycle")
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, bus.Mem[0x40:0x46])
	assert.Zero(t, d.Stats().TotalErrorCount)
}

func TestPingTimed(t *testing.T) {
	clk := sim.NewClock(10 * time.Microsecond)
	bus := sim.New(0x50, time.Millisecond, clk)
	d := m24c32.New(m24c32.ConfM24C32)
	d.SetClock(clk)
	require.NoError(t, d.Setup(0x50, bus, "sim"))
	require.NoError(t, d.Init())

	bus.SetPresent(false)
	start := clk.T
	assert.Equal(t, m24c32.ErrFailed, d.PingTimed(5*time.Millisecond))
	elapsed := clk.T.Sub(start)

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Less(t, elapsed, 6*time.Millisecond)
	assert.Greater(t, bus.Probes(), 100)

	bus.SetPresent(true)
	assert.NoError(t, d.PingTimed(5*time.Millisecond))
}

func TestWriteTimeout(t *testing.T) {
	d, bus, _ := newDevice(t)
	bus.SetPresent(false)
	require.NoError(t, d.SetAddr(0x0200))

	assert.Equal(t, m24c32.ErrFailed, d.WriteUint8(1))
	_, err := d.ReadUint8()
	assert.Equal(t, m24c32.ErrFailed, err)

	s := d.Stats()
	assert.Equal(t, uint64(2), s.TimeoutCount)
	assert.Equal(t, uint64(2), s.TotalErrorCount)
	assert.Equal(t, m24c32.StatusTimeout, s.ErrorVal)
	assert.True(t, s.Exists, "timeouts do not clear presence")
	assert.Equal(t, uint16(0x0200), d.Addr())
}

func TestWriteIncomplete(t *testing.T) {
	d, bus, _ := newDevice(t)
	require.NoError(t, d.SetAddr(0x0000))
	before := len(bus.Log)

	assert.Equal(t, m24c32.ErrFailed, d.WritePage(make([]byte, sim.BufferSize)))

	s := d.Stats()
	assert.Equal(t, uint64(1), s.IncompleteWriteCount)
	assert.Equal(t, uint64(1), s.TotalErrorCount)
	assert.Equal(t, uint16(0x0000), d.Addr())
	assert.Equal(t, sim.BufferSize-1, d.LastTransfer().Written)

	// only busy polling reached the bus
	for _, o := range bus.Log[before:] {
		assert.Empty(t, o.Data)
	}
}
