// Package gpio provides button input reading and relay/LED output driving
// with hardware abstraction.
// The real implementation uses the Linux GPIO character device for buttons
// and the LED, and periph.io for the PWM-capable relay pin.
// The fake implementation allows testing without hardware.
package gpio

// VRef is the logic-high voltage of the board.
const VRef = 3.3

// Inputs reads the two control buttons.
type Inputs interface {
	// Read returns the button levels in volts (0..VRef).
	// Returns (backlight, override, error).
	Read() (float64, float64, error)

	// Close releases GPIO resources.
	Close() error
}

// Outputs drives the relay and the status LED.
type Outputs interface {
	SetRelay(on bool) error
	SetLED(on bool) error

	// Close switches both outputs off and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinBacklight = 5  // backlight toggle button
	DefaultPinOverride  = 6  // manual override button
	DefaultPinRelay     = 12 // PWM0
	DefaultPinLED       = 13
)
