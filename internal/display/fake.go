package display

import "fmt"

// FakeDisplay records what would be shown.
type FakeDisplay struct {
	Lines     [2]string
	Backlight bool

	// Writes counts WriteLine calls.
	Writes int

	// WriteError, if set, is returned by WriteLine and SetBacklight.
	WriteError error

	Closed bool
}

// NewFakeDisplay creates a blank FakeDisplay with the backlight on.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{
		Lines:     [2]string{Fit(""), Fit("")},
		Backlight: true,
	}
}

// WriteLine implements Display.
func (f *FakeDisplay) WriteLine(line int, text string) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if line < 1 || line > len(f.Lines) {
		return fmt.Errorf("lcd has no line %d", line)
	}
	f.Lines[line-1] = Fit(text)
	f.Writes++
	return nil
}

// SetBacklight implements Display.
func (f *FakeDisplay) SetBacklight(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Backlight = on
	return nil
}

// Close implements Display.
func (f *FakeDisplay) Close() error {
	f.Backlight = false
	f.Closed = true
	return nil
}
