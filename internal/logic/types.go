// Package logic contains the pure decision-making core of the timer: local
// time conversion, schedule evaluation, manual override arbitration and fix
// staleness supervision.
// This package has NO external dependencies (no GPIO, serial, MQTT or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of a binary output.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Mode is the override arbitration state.
type Mode string

const (
	ModeAuto      Mode = "AUTO"       // schedule drives output
	ModeManualOn  Mode = "MANUAL_ON"  // override forces on
	ModeManualOff Mode = "MANUAL_OFF" // override forces off (schedule inactive)
)

// EventType represents a controller transition worth reporting.
type EventType string

const (
	EventRelayOn      EventType = "RELAY_ON"
	EventRelayOff     EventType = "RELAY_OFF"
	EventOverrideOn   EventType = "OVERRIDE_ON"
	EventOverrideOff  EventType = "OVERRIDE_OFF"
	EventBacklightOn  EventType = "BACKLIGHT_ON"
	EventBacklightOff EventType = "BACKLIGHT_OFF"
	EventFixLost      EventType = "FIX_LOST"
	EventFixAcquired  EventType = "FIX_ACQUIRED"
)

// Event represents a transition to be logged or published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Relay     State
	Mode      Mode
	WindowID  int // active window id, NoWindow when none
}

// TimeReading is one accepted UTC fix from the satellite receiver.
type TimeReading struct {
	Year       int // 0 when the receiver did not report it
	Month      int // 1-12
	Day        int // 1-31
	Hour       int // 0-23
	Minute     int // 0-59
	Second     int // 0-59
	Satellites int
	Valid      bool
}

// LocalTime is a wall-clock reading after the UTC offset was applied.
type LocalTime struct {
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// ButtonState tracks one push-button input across polling cycles.
type ButtonState struct {
	Raw      float64 // last sampled level in volts
	Pressed  bool    // current binarized level
	Previous bool    // binarized level of the previous cycle
}

// SystemOutput is the full output image recomputed every cycle.
type SystemOutput struct {
	Relay     bool
	LED       bool
	Line1     string
	Line2     string
	Backlight bool
}

// ControllerState is the process-wide mutable state. Fix-loss recovery does not
// reset ManualOverride or Backlight.
type ControllerState struct {
	LastFix        time.Time // host clock at the last accepted reading
	ManualOverride bool
	Backlight      bool
	ActiveWindow   int // NoWindow when no window is active
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	RelayOn     int
	RelayOff    int
	Overrides   int
	Backlights  int
	FixLost     int
	FixAcquired int
}

// View is a read-only summary of the controller used by status consumers.
type View struct {
	Mode           Mode
	Relay          State
	Backlight      bool
	ManualOverride bool
	ActiveWindow   int
	Acquiring      bool
	LastFix        time.Time
	Local          LocalTime
	Satellites     int
	HasReading     bool
	Counts         EventCounts
}
