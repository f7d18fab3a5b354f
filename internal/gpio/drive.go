package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Drive describes how the relay pin is driven while on.
type Drive struct {
	// DutyPercent is the on-time share, 1..100. 100 drives the pin high.
	DutyPercent int
	Frequency   physic.Frequency
}

// DefaultDrive matches the board's original 63/255 relay drive.
var DefaultDrive = Drive{DutyPercent: 25, Frequency: physic.KiloHertz}

// Validate checks the drive settings.
func (d Drive) Validate() error {
	if d.DutyPercent < 1 || d.DutyPercent > 100 {
		return fmt.Errorf("relay duty %d%% out of range 1..100", d.DutyPercent)
	}
	if !d.Full() && d.Frequency <= 0 {
		return fmt.Errorf("relay PWM frequency must be positive, got %s", d.Frequency)
	}
	return nil
}

// Full reports whether the relay is driven as a plain high output.
func (d Drive) Full() bool {
	return d.DutyPercent >= 100
}

// Duty converts the percentage to periph's fixed point duty.
func (d Drive) Duty() gpio.Duty {
	return gpio.Duty(int64(gpio.DutyMax) * int64(d.DutyPercent) / 100)
}
