package logic

import (
	"fmt"
	"time"
)

// Display messages used outside normal cycling.
const (
	MsgSearching = "Searching GPS"
	MsgFixOK     = "GPS OK!"
)

// Config holds the compiled-in controller parameters.
type Config struct {
	Schedule       ScheduleTable
	OffsetHours    int
	PressThreshold float64       // volts; a level above it counts as pressed
	StaleAfter     time.Duration // fix age that triggers re-acquisition
}

// Controller runs one control cycle at a time over an explicit
// ControllerState. It is not safe for concurrent use; the control loop is
// its only caller.
type Controller struct {
	cfg     Config
	state   ControllerState
	arbiter *Arbiter

	backlightBtn ButtonState
	overrideBtn  ButtonState

	out       SystemOutput
	acquiring bool
	lastHeard time.Time // host clock at the last receiver traffic

	local      LocalTime
	satellites int
	hasReading bool

	counts EventCounts
}

// NewController creates a controller with relay, LED and backlight off.
// Zero threshold and staleness values fall back to the defaults.
func NewController(cfg Config) *Controller {
	if cfg.PressThreshold <= 0 {
		cfg.PressThreshold = DefaultPressThreshold
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	return &Controller{
		cfg:     cfg,
		arbiter: NewArbiter(),
		state:   ControllerState{ActiveWindow: NoWindow},
	}
}

// Buttons samples both inputs and applies their edges. The backlight button
// is handled before the override button on every cycle.
func (c *Controller) Buttons(backlightLevel, overrideLevel float64, now time.Time) []Event {
	var events []Event

	if c.backlightBtn.Sample(backlightLevel, c.cfg.PressThreshold) {
		c.arbiter.ToggleBacklight(&c.state)
		c.out.Backlight = c.state.Backlight
		c.counts.Backlights++
		t := EventBacklightOff
		if c.state.Backlight {
			t = EventBacklightOn
		}
		events = append(events, c.event(now, t))
	}

	if c.overrideBtn.Sample(overrideLevel, c.cfg.PressThreshold) {
		apply := c.arbiter.ToggleOverride(&c.state)
		c.counts.Overrides++
		t := EventOverrideOff
		if c.state.ManualOverride {
			t = EventOverrideOn
		}
		events = append(events, c.event(now, t))
		if apply {
			on, line := c.arbiter.Decide(&c.state)
			events = append(events, c.setRelay(now, on, line)...)
		}
	}

	return events
}

// Fix consumes a fresh reading: it refreshes the fix timestamp, evaluates the
// schedule against local time and synthesizes the output.
func (c *Controller) Fix(r TimeReading, now time.Time) []Event {
	c.state.LastFix = now
	c.local = LocalTimeOf(r, c.cfg.OffsetHours)
	c.satellites = r.Satellites
	c.hasReading = true

	c.arbiter.Schedule(&c.state, c.cfg.Schedule.Evaluate(c.local))

	c.out.Line1 = fmt.Sprintf("%02d:%02d:%02d/Sat:%d", c.local.Hour, c.local.Minute, c.local.Second, r.Satellites)
	on, line := c.arbiter.Decide(&c.state)
	return c.setRelay(now, on, line)
}

// Heard records receiver traffic that did not complete a fix.
func (c *Controller) Heard(now time.Time) {
	c.lastHeard = now
}

// Stale reports whether re-acquisition must run. Before the first fix it
// always must. After that the receiver counts as lost once it has been silent
// for StaleAfter, measured from the later of the last fix and the last
// traffic.
func (c *Controller) Stale(now time.Time) bool {
	if c.acquiring {
		return false
	}
	if c.state.LastFix.IsZero() {
		return true
	}
	last := c.state.LastFix
	if c.lastHeard.After(last) {
		last = c.lastHeard
	}
	return NeedsReacquisition(now, last, c.cfg.StaleAfter)
}

// BeginAcquisition enters the searching state: relay and LED off, schedule
// suspended, backlight forced on so the message is readable. The user
// backlight and override flags are kept.
func (c *Controller) BeginAcquisition(now time.Time) []Event {
	var events []Event
	if !c.state.LastFix.IsZero() {
		c.counts.FixLost++
		events = append(events, c.event(now, EventFixLost))
	}

	c.acquiring = true
	c.arbiter.Suspend(&c.state)
	c.out.Line1 = MsgSearching
	c.out.Backlight = true
	return append(events, c.setRelay(now, false, "")...)
}

// CompleteAcquisition records the fix that ended the search and shows the
// confirmation message. The caller holds it on screen before calling Resume.
func (c *Controller) CompleteAcquisition(now time.Time) []Event {
	c.state.LastFix = now
	c.out.Line1 = MsgFixOK
	c.out.Line2 = ""
	c.counts.FixAcquired++
	return []Event{c.event(now, EventFixAcquired)}
}

// Resume leaves acquisition, restores the user backlight state and processes
// the reading that ended the search.
func (c *Controller) Resume(r TimeReading, now time.Time) []Event {
	c.acquiring = false
	c.out.Backlight = c.state.Backlight
	return c.Fix(r, now)
}

// Acquiring reports whether the controller is waiting for a fix.
func (c *Controller) Acquiring() bool {
	return c.acquiring
}

// Output returns the current output image.
func (c *Controller) Output() SystemOutput {
	return c.out
}

// State returns a copy of the process-wide state.
func (c *Controller) State() ControllerState {
	return c.state
}

// Counts returns a copy of the event counters.
func (c *Controller) Counts() EventCounts {
	return c.counts
}

// View summarises the controller for status consumers.
func (c *Controller) View() View {
	return View{
		Mode:           c.arbiter.Mode(),
		Relay:          stateOf(c.out.Relay),
		Backlight:      c.out.Backlight,
		ManualOverride: c.state.ManualOverride,
		ActiveWindow:   c.state.ActiveWindow,
		Acquiring:      c.acquiring,
		LastFix:        c.state.LastFix,
		Local:          c.local,
		Satellites:     c.satellites,
		HasReading:     c.hasReading,
		Counts:         c.counts,
	}
}

func (c *Controller) setRelay(now time.Time, on bool, line string) []Event {
	c.out.Line2 = line
	if c.out.Relay == on {
		return nil
	}
	c.out.Relay = on
	c.out.LED = on
	if on {
		c.counts.RelayOn++
		return []Event{c.event(now, EventRelayOn)}
	}
	c.counts.RelayOff++
	return []Event{c.event(now, EventRelayOff)}
}

func (c *Controller) event(now time.Time, t EventType) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Relay:     stateOf(c.out.Relay),
		Mode:      c.arbiter.Mode(),
		WindowID:  c.state.ActiveWindow,
	}
}

func stateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}
