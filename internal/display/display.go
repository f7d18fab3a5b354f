// Package display drives the two line character LCD.
// The real implementation talks to an HD44780 controller behind a PCF8574
// I2C backpack through periph.io. The fake implementation records writes
// for testing.
package display

import "strings"

// Width is the number of characters per line.
const Width = 16

// Display shows two lines of text with a switchable backlight.
type Display interface {
	// WriteLine replaces line 1 or 2 with text, padded or truncated to Width.
	WriteLine(line int, text string) error
	SetBacklight(on bool) error
	Close() error
}

// Fit pads or truncates text to exactly Width characters. Characters the
// controller cannot show are replaced with '?'.
func Fit(text string) string {
	var b strings.Builder
	for _, r := range text {
		if b.Len() == Width {
			break
		}
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b.WriteRune(r)
	}
	for b.Len() < Width {
		b.WriteByte(' ')
	}
	return b.String()
}
