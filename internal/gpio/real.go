//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// RealInputs reads the buttons from actual hardware using Linux GPIO character device.
type RealInputs struct {
	chip      *gpiocdev.Chip
	backlight *gpiocdev.Line
	override  *gpiocdev.Line
}

// NewRealInputs creates a button reader for actual Raspberry Pi hardware.
func NewRealInputs(pinBacklight, pinOverride int) (*RealInputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons pull the line high when pressed.
	blLine, err := chip.RequestLine(pinBacklight, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request backlight pin %d: %w", pinBacklight, err)
	}

	ovLine, err := chip.RequestLine(pinOverride, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		blLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request override pin %d: %w", pinOverride, err)
	}

	return &RealInputs{
		chip:      chip,
		backlight: blLine,
		override:  ovLine,
	}, nil
}

// Read returns the button levels. A digital line reads as 0 or VRef volts.
func (r *RealInputs) Read() (float64, float64, error) {
	bl, err := r.backlight.Value()
	if err != nil {
		return 0, 0, fmt.Errorf("read backlight pin: %w", err)
	}

	ov, err := r.override.Value()
	if err != nil {
		return 0, 0, fmt.Errorf("read override pin: %w", err)
	}

	return float64(bl) * VRef, float64(ov) * VRef, nil
}

// Close releases GPIO resources.
func (r *RealInputs) Close() error {
	var errs []error

	if r.backlight != nil {
		if err := r.backlight.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close backlight pin: %w", err))
		}
	}
	if r.override != nil {
		if err := r.override.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close override pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputs drives the relay through periph.io, so the hardware PWM block
// can hold it at partial duty, and the LED through the character device.
type RealOutputs struct {
	relay gpio.PinIO
	drive Drive

	chip *gpiocdev.Chip
	led  *gpiocdev.Line
}

// NewRealOutputs claims the relay and LED pins. Both start off.
func NewRealOutputs(pinRelay, pinLED int, drive Drive) (*RealOutputs, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	relay := gpioreg.ByName(fmt.Sprintf("GPIO%d", pinRelay))
	if relay == nil {
		return nil, fmt.Errorf("relay pin %d not found", pinRelay)
	}
	if err := relay.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("init relay pin %d: %w", pinRelay, err)
	}

	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	led, err := chip.RequestLine(pinLED, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pinLED, err)
	}

	return &RealOutputs{
		relay: relay,
		drive: drive,
		chip:  chip,
		led:   led,
	}, nil
}

// SetRelay switches the relay. When on, a partial duty drive uses PWM.
func (o *RealOutputs) SetRelay(on bool) error {
	var err error
	switch {
	case !on:
		err = o.relay.Out(gpio.Low)
	case o.drive.Full():
		err = o.relay.Out(gpio.High)
	default:
		err = o.relay.PWM(o.drive.Duty(), o.drive.Frequency)
	}
	if err != nil {
		return fmt.Errorf("set relay %v: %w", on, err)
	}
	return nil
}

// SetLED switches the status LED.
func (o *RealOutputs) SetLED(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.led.SetValue(v); err != nil {
		return fmt.Errorf("set LED %v: %w", on, err)
	}
	return nil
}

// Close switches both outputs off and releases the LED line.
// Lines are returned as inputs with pull-down to match Pi boot defaults.
func (o *RealOutputs) Close() error {
	var errs []error

	if err := o.relay.Out(gpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("release relay pin: %w", err))
	}
	if o.led != nil {
		if err := o.led.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
		}
		if err := o.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
