// Package gps turns the raw byte stream of a satellite receiver into accepted
// UTC time fixes.
// The real receiver is read through a serial port; fakes allow testing
// without hardware.
package gps

import "github.com/sweeney/gps-timer/internal/logic"

// TimeFixSource yields accepted fixes. Poll never blocks: it drains whatever
// the receiver sent since the previous call.
type TimeFixSource interface {
	Poll() (logic.TimeReading, bool)
}

// Listener is implemented by sources that can tell whether the receiver is
// still talking, whether or not its sentences completed a fix.
type Listener interface {
	// Heard reports whether the last Poll decoded at least one sentence.
	Heard() bool
}

// Feed supplies raw receiver bytes.
type Feed interface {
	// Pending returns the bytes received since the last call without blocking.
	Pending() []byte
}

// Provider decodes receiver bytes incrementally and exposes the latest
// decoded values with per-field valid and updated flags.
type Provider interface {
	// Encode consumes one byte and reports whether it completed a sentence
	// that was accepted.
	Encode(b byte) bool

	// Status returns the latest decoded values.
	Status() Status

	// Consume clears the updated flags once a reading has been taken.
	Consume()
}

// Status is the decoder's view of the receiver.
type Status struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	Satellites int

	LocationValid   bool
	LocationUpdated bool
	DateValid       bool
	DateUpdated     bool
	TimeValid       bool
	TimeUpdated     bool
}

// Fresh is the acceptance gate for a fix: location, date and time all valid
// and all updated since the last reading, with at least one satellite in use.
// A valid but not re-updated status is stale and must not be reprocessed.
func (s Status) Fresh() bool {
	return s.LocationValid && s.DateValid && s.TimeValid &&
		s.LocationUpdated && s.DateUpdated && s.TimeUpdated &&
		s.Satellites > 0
}

// Reading converts the status to a TimeReading.
func (s Status) Reading() logic.TimeReading {
	return logic.TimeReading{
		Year:       s.Year,
		Month:      s.Month,
		Day:        s.Day,
		Hour:       s.Hour,
		Minute:     s.Minute,
		Second:     s.Second,
		Satellites: s.Satellites,
		Valid:      true,
	}
}

// Source is the TimeFixSource over a byte feed and a decoder.
type Source struct {
	feed     Feed
	provider Provider
	heard    bool
}

// NewSource creates a Source.
func NewSource(feed Feed, provider Provider) *Source {
	return &Source{feed: feed, provider: provider}
}

// Poll drains all pending bytes. When several sentences complete a fresh fix
// during one drain, the latest one is returned.
func (s *Source) Poll() (logic.TimeReading, bool) {
	var (
		reading logic.TimeReading
		ok      bool
	)
	s.heard = false
	for _, b := range s.feed.Pending() {
		if !s.provider.Encode(b) {
			continue
		}
		s.heard = true
		st := s.provider.Status()
		if !st.Fresh() {
			continue
		}
		reading, ok = st.Reading(), true
		s.provider.Consume()
	}
	return reading, ok
}

// Heard implements Listener.
func (s *Source) Heard() bool {
	return s.heard
}
