package display

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddr is the usual PCF8574 backpack address.
const DefaultAddr = 0x27

// PCF8574 pin mapping of the backpack.
const (
	pinRS        = 0x01
	pinEnable    = 0x04
	pinBacklight = 0x08
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off
	cmdFunctionSet = 0x28 // 4-bit, 2 lines, 5x8
	cmdSetDDRAM    = 0x80
)

// lineAddr holds the DDRAM start of each line.
var lineAddr = [2]byte{0x00, 0x40}

// LCD is a Display on an I2C bus.
type LCD struct {
	dev       *i2c.Dev
	bus       i2c.BusCloser
	backlight byte
	sleep     func(time.Duration)
}

// OpenLCD initialises the periph host, opens the named I2C bus ("" for the
// first one) and initialises the controller at addr.
func OpenLCD(busName string, addr uint16) (*LCD, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	l, err := NewLCD(bus, addr)
	if err != nil {
		bus.Close()
		return nil, err
	}
	l.bus = bus
	return l, nil
}

// NewLCD initialises the controller at addr on an already open bus.
// The backlight starts on.
func NewLCD(bus i2c.Bus, addr uint16) (*LCD, error) {
	return newLCD(bus, addr, time.Sleep)
}

func newLCD(bus i2c.Bus, addr uint16, sleep func(time.Duration)) (*LCD, error) {
	l := &LCD{
		dev:       &i2c.Dev{Bus: bus, Addr: addr},
		backlight: pinBacklight,
		sleep:     sleep,
	}
	if err := l.init(); err != nil {
		return nil, fmt.Errorf("init lcd at 0x%02x: %w", addr, err)
	}
	return l, nil
}

func (l *LCD) init() error {
	l.sleep(50 * time.Millisecond)

	// Enter 4-bit mode from an unknown state.
	for _, n := range []byte{0x30, 0x30, 0x30, 0x20} {
		if err := l.dev.Tx([]byte{n | l.backlight | pinEnable, n | l.backlight}, nil); err != nil {
			return err
		}
		l.sleep(5 * time.Millisecond)
	}

	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return err
		}
	}
	return nil
}

// send writes one byte as two strobed nibbles in a single transaction.
func (l *LCD) send(b, mode byte) error {
	hi := b&0xF0 | mode | l.backlight
	lo := b<<4 | mode | l.backlight
	return l.dev.Tx([]byte{hi | pinEnable, hi, lo | pinEnable, lo}, nil)
}

func (l *LCD) command(c byte) error {
	if err := l.send(c, 0); err != nil {
		return fmt.Errorf("command 0x%02x: %w", c, err)
	}
	if c == cmdClear {
		l.sleep(2 * time.Millisecond)
	}
	return nil
}

// WriteLine implements Display.
func (l *LCD) WriteLine(line int, text string) error {
	if line < 1 || line > len(lineAddr) {
		return fmt.Errorf("lcd has no line %d", line)
	}
	if err := l.command(cmdSetDDRAM | lineAddr[line-1]); err != nil {
		return err
	}
	for _, c := range []byte(Fit(text)) {
		if err := l.send(c, pinRS); err != nil {
			return fmt.Errorf("write line %d: %w", line, err)
		}
	}
	return nil
}

// SetBacklight implements Display.
func (l *LCD) SetBacklight(on bool) error {
	l.backlight = 0
	if on {
		l.backlight = pinBacklight
	}
	if err := l.dev.Tx([]byte{l.backlight}, nil); err != nil {
		return fmt.Errorf("set backlight %v: %w", on, err)
	}
	return nil
}

// Close clears the screen, switches the backlight off and releases the bus
// when the LCD opened it.
func (l *LCD) Close() error {
	var errs []error
	if err := l.command(cmdClear); err != nil {
		errs = append(errs, err)
	}
	if err := l.SetBacklight(false); err != nil {
		errs = append(errs, err)
	}
	if l.bus != nil {
		if err := l.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
