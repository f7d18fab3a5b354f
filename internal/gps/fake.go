package gps

import "github.com/sweeney/gps-timer/internal/logic"

// FakeFeed is a test double that returns scripted byte chunks.
type FakeFeed struct {
	// Chunks contains the data returned by successive Pending calls.
	// Once exhausted, Pending returns nil.
	Chunks [][]byte

	index int
}

// NewFakeFeed creates a FakeFeed with the given chunks.
func NewFakeFeed(chunks ...[]byte) *FakeFeed {
	return &FakeFeed{Chunks: chunks}
}

// Pending returns the next scripted chunk.
func (f *FakeFeed) Pending() []byte {
	if f.index >= len(f.Chunks) {
		return nil
	}
	c := f.Chunks[f.index]
	f.index++
	return c
}

// Poll is one scripted result of a FakeSource.
type Poll struct {
	Reading logic.TimeReading
	OK      bool

	// Heard marks receiver traffic without a fix. A poll with OK is always
	// heard.
	Heard bool
}

// FakeSource is a TimeFixSource returning scripted polls. Once exhausted it
// reports no fix.
type FakeSource struct {
	Polls []Poll

	// Calls counts Poll invocations.
	Calls int

	heard bool
}

// NewFakeSource creates a FakeSource with the given polls.
func NewFakeSource(polls ...Poll) *FakeSource {
	return &FakeSource{Polls: polls}
}

// Fix returns a successful scripted poll.
func Fix(r logic.TimeReading) Poll {
	r.Valid = true
	return Poll{Reading: r, OK: true}
}

// NoFix returns n empty scripted polls.
func NoFix(n int) []Poll {
	return make([]Poll, n)
}

// Chatter returns n polls where the receiver talks but yields no fix.
func Chatter(n int) []Poll {
	polls := make([]Poll, n)
	for i := range polls {
		polls[i].Heard = true
	}
	return polls
}

// Poll implements TimeFixSource.
func (f *FakeSource) Poll() (logic.TimeReading, bool) {
	i := f.Calls
	f.Calls++
	if i >= len(f.Polls) {
		f.heard = false
		return logic.TimeReading{}, false
	}
	p := f.Polls[i]
	f.heard = p.OK || p.Heard
	return p.Reading, p.OK
}

// Heard implements Listener.
func (f *FakeSource) Heard() bool {
	return f.heard
}
