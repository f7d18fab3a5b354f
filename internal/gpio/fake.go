package gpio

import "errors"

// FakeInputs is a test double that returns scripted button levels.
type FakeInputs struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single reading of both buttons in volts.
type Sample struct {
	Backlight float64
	Override  float64
}

// Released and Pressed are convenience levels for scripting samples.
const (
	Released = 0.0
	Pressed  = VRef
)

// NewFakeInputs creates a FakeInputs with the given samples.
func NewFakeInputs(samples []Sample) *FakeInputs {
	return &FakeInputs{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInputs) Read() (float64, float64, error) {
	if f.ReadError != nil {
		return 0, 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Backlight, sample.Override, nil
}

// Close marks the inputs as closed.
func (f *FakeInputs) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the inputs to the beginning of samples.
func (f *FakeInputs) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutputs records output writes.
type FakeOutputs struct {
	Relay bool
	LED   bool

	// RelayWrites and LEDWrites record every write in order.
	RelayWrites []bool
	LEDWrites   []bool

	// WriteError, if set, is returned by SetRelay and SetLED.
	WriteError error

	Closed bool
}

// NewFakeOutputs creates a FakeOutputs with both outputs off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// SetRelay records the relay state.
func (f *FakeOutputs) SetRelay(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Relay = on
	f.RelayWrites = append(f.RelayWrites, on)
	return nil
}

// SetLED records the LED state.
func (f *FakeOutputs) SetLED(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LED = on
	f.LEDWrites = append(f.LEDWrites, on)
	return nil
}

// Close switches both outputs off and marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Relay = false
	f.LED = false
	f.Closed = true
	return nil
}
