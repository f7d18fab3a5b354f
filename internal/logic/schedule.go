package logic

import (
	"errors"
	"fmt"
)

// NoWindow is the window id reported when nothing is active.
const NoWindow = 0

// ClockTime is a time of day.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// String formats the time as HH:MM:SS.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c ClockTime) valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 &&
		c.Minute >= 0 && c.Minute <= 59 &&
		c.Second >= 0 && c.Second <= 59
}

// TimeWindow is an inclusive daily interval [Start, End]. Windows never wrap
// midnight; split such a period into two windows.
type TimeWindow struct {
	Start ClockTime
	End   ClockTime
}

// Contains reports whether (h,m,s) lies within the window. The comparison is
// lexicographic over the (hour, minute, second) triple.
func (w TimeWindow) Contains(h, m, s int) bool {
	sH, sM, sS := w.Start.Hour, w.Start.Minute, w.Start.Second
	eH, eM, eS := w.End.Hour, w.End.Minute, w.End.Second

	afterOrAtStart := h > sH || (h == sH && m > sM) || (h == sH && m == sM && s >= sS)
	beforeOrAtEnd := h < eH || (h == eH && m < eM) || (h == eH && m == eM && s <= eS)
	return afterOrAtStart && beforeOrAtEnd
}

// CalendarOverride forces activation on a fixed date during an inclusive
// minute range, regardless of window membership.
type CalendarOverride struct {
	Name  string
	Month int
	Day   int
	// From and To are inclusive; seconds are ignored.
	From ClockTime
	To   ClockTime
}

// Matches reports whether the override is active at the given local time.
func (o CalendarOverride) Matches(t LocalTime) bool {
	if t.Month != o.Month || t.Day != o.Day {
		return false
	}
	now := t.Hour*60 + t.Minute
	return now >= o.From.Hour*60+o.From.Minute && now <= o.To.Hour*60+o.To.Minute
}

// ActivationResult is the outcome of evaluating the schedule.
type ActivationResult struct {
	Active   bool
	WindowID int
}

// ScheduleTable is an ordered list of daily windows plus calendar overrides.
// Window ids are 1-based positions; override ids continue after the last
// window.
type ScheduleTable struct {
	Windows   []TimeWindow
	Overrides []CalendarOverride
}

// Evaluate decides whether the device should be on at the given local time.
// The first matching window wins; overrides are only consulted when no window
// matches.
func (t ScheduleTable) Evaluate(lt LocalTime) ActivationResult {
	for i, w := range t.Windows {
		if w.Contains(lt.Hour, lt.Minute, lt.Second) {
			return ActivationResult{Active: true, WindowID: i + 1}
		}
	}

	for i, o := range t.Overrides {
		if o.Matches(lt) {
			return ActivationResult{Active: true, WindowID: len(t.Windows) + i + 1}
		}
	}

	return ActivationResult{WindowID: NoWindow}
}

// Validate checks field ranges and that no window wraps past midnight.
func (t ScheduleTable) Validate() error {
	var errs []error
	for i, w := range t.Windows {
		id := i + 1
		if !w.Start.valid() {
			errs = append(errs, fmt.Errorf("window %d: start %s out of range", id, w.Start))
			continue
		}
		if !w.End.valid() {
			errs = append(errs, fmt.Errorf("window %d: end %s out of range", id, w.End))
			continue
		}
		if !w.Contains(w.Start.Hour, w.Start.Minute, w.Start.Second) {
			errs = append(errs, fmt.Errorf("window %d: %s-%s wraps midnight, split it in two", id, w.Start, w.End))
		}
	}

	for i, o := range t.Overrides {
		id := len(t.Windows) + i + 1
		if o.Month < 1 || o.Month > 12 || o.Day < 1 || o.Day > 31 {
			errs = append(errs, fmt.Errorf("override %d: invalid date %02d-%02d", id, o.Month, o.Day))
			continue
		}
		if !o.From.valid() || !o.To.valid() {
			errs = append(errs, fmt.Errorf("override %d: time out of range", id))
			continue
		}
		if o.From.Hour*60+o.From.Minute > o.To.Hour*60+o.To.Minute {
			errs = append(errs, fmt.Errorf("override %d: from %s is after to %s", id, o.From, o.To))
		}
	}

	return errors.Join(errs...)
}

// DefaultSchedule returns the built-in table: three short daily windows plus
// the Christmas and New Year overrides.
func DefaultSchedule() ScheduleTable {
	return ScheduleTable{
		Windows: []TimeWindow{
			{Start: ClockTime{8, 0, 0}, End: ClockTime{8, 0, 30}},
			{Start: ClockTime{12, 0, 0}, End: ClockTime{12, 1, 0}},
			{Start: ClockTime{21, 0, 0}, End: ClockTime{21, 1, 0}},
		},
		Overrides: []CalendarOverride{
			{Name: "christmas", Month: 12, Day: 25, From: ClockTime{0, 0, 0}, To: ClockTime{0, 0, 0}},
			{Name: "new-year", Month: 1, Day: 1, From: ClockTime{0, 0, 0}, To: ClockTime{0, 1, 0}},
		},
	}
}
