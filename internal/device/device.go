// Package device pushes the controller's output image to the hardware.
package device

import (
	"errors"
	"fmt"

	"github.com/sweeney/gps-timer/internal/display"
	"github.com/sweeney/gps-timer/internal/gpio"
	"github.com/sweeney/gps-timer/internal/logic"
)

// Device writes a SystemOutput to the relay, LED and display. Only fields
// that differ from what was last written successfully are sent, so an
// unchanged image costs no bus traffic and a failed write is retried on the
// next Apply.
type Device struct {
	outputs gpio.Outputs
	display display.Display

	written logic.SystemOutput
	known   struct{ relay, led, line1, line2, backlight bool }
}

// New creates a Device. Nothing is written until the first Apply.
func New(outputs gpio.Outputs, disp display.Display) *Device {
	return &Device{outputs: outputs, display: disp}
}

// Apply writes the changed parts of out. Every field is attempted; the
// returned error joins all failures.
func (d *Device) Apply(out logic.SystemOutput) error {
	var errs []error

	if !d.known.relay || d.written.Relay != out.Relay {
		if err := d.outputs.SetRelay(out.Relay); err != nil {
			errs = append(errs, err)
		} else {
			d.written.Relay, d.known.relay = out.Relay, true
		}
	}
	if !d.known.led || d.written.LED != out.LED {
		if err := d.outputs.SetLED(out.LED); err != nil {
			errs = append(errs, err)
		} else {
			d.written.LED, d.known.led = out.LED, true
		}
	}
	if !d.known.backlight || d.written.Backlight != out.Backlight {
		if err := d.display.SetBacklight(out.Backlight); err != nil {
			errs = append(errs, err)
		} else {
			d.written.Backlight, d.known.backlight = out.Backlight, true
		}
	}
	if !d.known.line1 || d.written.Line1 != out.Line1 {
		if err := d.display.WriteLine(1, out.Line1); err != nil {
			errs = append(errs, fmt.Errorf("line 1: %w", err))
		} else {
			d.written.Line1, d.known.line1 = out.Line1, true
		}
	}
	if !d.known.line2 || d.written.Line2 != out.Line2 {
		if err := d.display.WriteLine(2, out.Line2); err != nil {
			errs = append(errs, fmt.Errorf("line 2: %w", err))
		} else {
			d.written.Line2, d.known.line2 = out.Line2, true
		}
	}

	return errors.Join(errs...)
}

// Close switches the outputs off and releases the display.
func (d *Device) Close() error {
	return errors.Join(d.outputs.Close(), d.display.Close())
}
