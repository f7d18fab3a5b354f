package logic

import "fmt"

// DefaultPressThreshold is the midpoint of a 3.3V reference.
const DefaultPressThreshold = 1.65

// Sample binarizes a raw level against the threshold and reports a rising
// edge (released -> pressed). There is no timed debounce window: the edge is
// detected purely by comparing with the previous cycle's level.
func (b *ButtonState) Sample(level, threshold float64) bool {
	b.Raw = level
	b.Previous = b.Pressed
	b.Pressed = level > threshold
	return b.Pressed && !b.Previous
}

// Arbiter merges the schedule result with the override button to decide the
// relay output. Schedule ON always wins over the override.
type Arbiter struct {
	mode           Mode
	scheduleActive bool
	windowID       int
}

// NewArbiter returns an arbiter in ModeAuto.
func NewArbiter() *Arbiter {
	return &Arbiter{mode: ModeAuto}
}

// Mode returns the current arbitration state.
func (a *Arbiter) Mode() Mode {
	return a.mode
}

// ScheduleActive reports whether the last schedule result was active.
func (a *Arbiter) ScheduleActive() bool {
	return a.scheduleActive
}

// ToggleOverride handles a rising edge of the override button. It flips the
// persistent override flag and reports whether the output must be re-applied,
// which is only the case while the schedule is inactive.
func (a *Arbiter) ToggleOverride(st *ControllerState) bool {
	st.ManualOverride = !st.ManualOverride
	if a.scheduleActive {
		return false
	}
	if st.ManualOverride {
		a.mode = ModeManualOn
	} else {
		a.mode = ModeManualOff
	}
	return true
}

// ToggleBacklight handles a rising edge of the backlight button. The result
// is applied unconditionally.
func (a *Arbiter) ToggleBacklight(st *ControllerState) {
	st.Backlight = !st.Backlight
}

// Schedule records a fresh schedule result.
func (a *Arbiter) Schedule(st *ControllerState, res ActivationResult) {
	a.scheduleActive = res.Active
	a.windowID = res.WindowID
	st.ActiveWindow = res.WindowID

	switch {
	case res.Active:
		a.mode = ModeAuto
	case st.ManualOverride:
		a.mode = ModeManualOn
	}
}

// Suspend clears the schedule result while time is unknown, so the override
// button alone drives the relay.
func (a *Arbiter) Suspend(st *ControllerState) {
	a.scheduleActive = false
	a.windowID = NoWindow
	st.ActiveWindow = NoWindow
}

// Decide returns the relay state and status line in priority order:
// active schedule, manual override, off.
func (a *Arbiter) Decide(st *ControllerState) (bool, string) {
	switch {
	case a.scheduleActive:
		return true, fmt.Sprintf("ON: %d", a.windowID)
	case st.ManualOverride:
		return true, "ON: Manual"
	default:
		return false, "OFF"
	}
}
