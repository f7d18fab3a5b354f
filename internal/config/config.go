// Package config loads the optional schedule file. Without a file the
// compiled-in schedule applies. The file is read once at startup.
//
//	offset_hours: -3
//	windows:
//	  - start: "08:00:00"
//	    end: "08:00:30"
//	overrides:
//	  - name: christmas
//	    date: "12-25"
//	    from: "00:00"
//	    to: "00:00"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/gps-timer/internal/logic"
)

// Schedule is the loaded schedule plus an optional offset.
type Schedule struct {
	Table logic.ScheduleTable

	// OffsetHours is nil when the file does not set it.
	OffsetHours *int
}

type file struct {
	OffsetHours *int           `yaml:"offset_hours"`
	Windows     []fileWindow   `yaml:"windows"`
	Overrides   []fileOverride `yaml:"overrides"`
}

type fileWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type fileOverride struct {
	Name string `yaml:"name"`
	Date string `yaml:"date"` // MM-DD
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Default returns the compiled-in schedule.
func Default() Schedule {
	return Schedule{Table: logic.DefaultSchedule()}
}

// Load reads the schedule file at path. An empty path yields Default().
func Load(path string) (Schedule, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read schedule: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a schedule document. Unknown keys are errors.
func Parse(data []byte) (Schedule, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Schedule{}, errors.New("empty schedule")
		}
		return Schedule{}, fmt.Errorf("decode: %w", err)
	}

	var (
		s    = Schedule{OffsetHours: f.OffsetHours}
		errs []error
	)
	if f.OffsetHours != nil && (*f.OffsetHours < -12 || *f.OffsetHours > 14) {
		errs = append(errs, fmt.Errorf("offset_hours %d out of range -12..14", *f.OffsetHours))
	}

	for i, w := range f.Windows {
		start, err1 := parseClock(w.Start)
		end, err2 := parseClock(w.End)
		if err := errors.Join(err1, err2); err != nil {
			errs = append(errs, fmt.Errorf("window %d: %w", i+1, err))
			continue
		}
		s.Table.Windows = append(s.Table.Windows, logic.TimeWindow{Start: start, End: end})
	}

	for _, o := range f.Overrides {
		var month, day int
		_, err := fmt.Sscanf(o.Date, "%d-%d", &month, &day)
		from, err1 := parseClock(o.From)
		to, err2 := parseClock(o.To)
		if err := errors.Join(err, err1, err2); err != nil {
			errs = append(errs, fmt.Errorf("override %q: %w", o.Name, err))
			continue
		}
		s.Table.Overrides = append(s.Table.Overrides, logic.CalendarOverride{
			Name:  o.Name,
			Month: month,
			Day:   day,
			From:  from,
			To:    to,
		})
	}

	if len(errs) > 0 {
		return Schedule{}, errors.Join(errs...)
	}
	if len(s.Table.Windows)+len(s.Table.Overrides) == 0 {
		return Schedule{}, errors.New("schedule has no windows or overrides")
	}
	if err := s.Table.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// parseClock accepts HH:MM or HH:MM:SS.
func parseClock(v string) (logic.ClockTime, error) {
	var c logic.ClockTime
	n, err := fmt.Sscanf(v, "%d:%d:%d", &c.Hour, &c.Minute, &c.Second)
	if n == 2 {
		c.Second = 0
		err = nil
	}
	if err != nil || n < 2 {
		return logic.ClockTime{}, fmt.Errorf("invalid time %q, want HH:MM[:SS]", v)
	}
	return c, nil
}
