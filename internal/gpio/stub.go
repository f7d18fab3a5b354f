//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInputs is not available on non-Linux platforms.
type RealInputs struct{}

// NewRealInputs returns an error on non-Linux platforms.
func NewRealInputs(pinBacklight, pinOverride int) (*RealInputs, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealInputs) Read() (float64, float64, error) {
	return 0, 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealInputs) Close() error {
	return nil
}

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(pinRelay, pinLED int, drive Drive) (*RealOutputs, error) {
	return nil, errUnsupported
}

// SetRelay is not implemented on non-Linux platforms.
func (o *RealOutputs) SetRelay(on bool) error {
	return errUnsupported
}

// SetLED is not implemented on non-Linux platforms.
func (o *RealOutputs) SetLED(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutputs) Close() error {
	return nil
}
