package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var (
	_ Display = (*LCD)(nil)
	_ Display = (*FakeDisplay)(nil)
)

func noSleep(time.Duration) {}

// initOps is the number of transactions NewLCD issues.
const initOps = 8

func newTestLCD(t *testing.T) (*LCD, *i2ctest.Record) {
	t.Helper()
	rec := &i2ctest.Record{}
	l, err := newLCD(rec, DefaultAddr, noSleep)
	require.NoError(t, err)
	require.Len(t, rec.Ops, initOps)
	rec.Ops = nil
	return l, rec
}

// decode reassembles the bytes sent by one transaction per byte.
func decode(t *testing.T, ops []i2ctest.IO) (data []byte, rs []bool) {
	t.Helper()
	for _, op := range ops {
		require.Len(t, op.W, 4)
		assert.Equal(t, uint16(DefaultAddr), op.Addr)
		assert.NotZero(t, op.W[0]&pinEnable, "strobe high")
		assert.Zero(t, op.W[1]&pinEnable, "strobe low")
		data = append(data, op.W[1]&0xF0|op.W[3]>>4)
		rs = append(rs, op.W[1]&pinRS != 0)
	}
	return data, rs
}

func TestFit(t *testing.T) {
	assert.Equal(t, "OFF             ", Fit("OFF"))
	assert.Equal(t, "0123456789ABCDEF", Fit("0123456789ABCDEFGHIJ"))
	assert.Equal(t, "caf?            ", Fit("café"))
	assert.Len(t, Fit(""), Width)
}

func TestLCDInitSequence(t *testing.T) {
	rec := &i2ctest.Record{}
	_, err := newLCD(rec, DefaultAddr, noSleep)
	require.NoError(t, err)

	// four single-nibble resets, then four commands
	for i := 0; i < 4; i++ {
		assert.Len(t, rec.Ops[i].W, 2)
	}
	data, rs := decode(t, rec.Ops[4:])
	assert.Equal(t, []byte{cmdFunctionSet, cmdDisplayOn, cmdClear, cmdEntryMode}, data)
	assert.Equal(t, []bool{false, false, false, false}, rs)
}

func TestLCDWriteLine(t *testing.T) {
	l, rec := newTestLCD(t)

	require.NoError(t, l.WriteLine(2, "ON: 3"))
	require.Len(t, rec.Ops, 1+Width)

	data, rs := decode(t, rec.Ops)
	assert.Equal(t, byte(cmdSetDDRAM|0x40), data[0])
	assert.False(t, rs[0])
	assert.Equal(t, Fit("ON: 3"), string(data[1:]))
	for _, r := range rs[1:] {
		assert.True(t, r)
	}
}

func TestLCDWriteLineRejectsBadLine(t *testing.T) {
	l, rec := newTestLCD(t)
	assert.Error(t, l.WriteLine(0, "x"))
	assert.Error(t, l.WriteLine(3, "x"))
	assert.Empty(t, rec.Ops)
}

func TestLCDBacklight(t *testing.T) {
	l, rec := newTestLCD(t)

	require.NoError(t, l.SetBacklight(false))
	require.NoError(t, l.WriteLine(1, "A"))
	for _, op := range rec.Ops {
		for _, b := range op.W {
			assert.Zero(t, b&pinBacklight)
		}
	}

	rec.Ops = nil
	require.NoError(t, l.SetBacklight(true))
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, []byte{pinBacklight}, rec.Ops[0].W)
}

func TestLCDClose(t *testing.T) {
	l, rec := newTestLCD(t)
	require.NoError(t, l.Close())

	require.Len(t, rec.Ops, 2)
	data, _ := decode(t, rec.Ops[:1])
	assert.Equal(t, []byte{cmdClear}, data)
	assert.Equal(t, []byte{0}, rec.Ops[1].W)
}

type failingBus struct{}

func (failingBus) String() string                    { return "failing" }
func (failingBus) Tx(addr uint16, w, r []byte) error { return errors.New("nack") }
func (failingBus) SetSpeed(f physic.Frequency) error { return nil }

var _ i2c.Bus = failingBus{}

func TestLCDInitError(t *testing.T) {
	_, err := newLCD(failingBus{}, DefaultAddr, noSleep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x27")
}

func TestFakeDisplay(t *testing.T) {
	f := NewFakeDisplay()
	require.NoError(t, f.WriteLine(1, "Searching GPS"))
	assert.Equal(t, Fit("Searching GPS"), f.Lines[0])
	assert.Equal(t, 1, f.Writes)
	assert.Error(t, f.WriteLine(3, ""))

	require.NoError(t, f.SetBacklight(false))
	assert.False(t, f.Backlight)

	f.WriteError = errors.New("bus fault")
	assert.Error(t, f.WriteLine(2, "x"))
	assert.Equal(t, Fit(""), f.Lines[1])
}
