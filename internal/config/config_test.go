package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gps-timer/internal/logic"
)

func TestLoadEmptyPathIsDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, logic.DefaultSchedule(), s.Table)
	assert.Nil(t, s.OffsetHours)
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
offset_hours: 1
windows:
  - start: "06:30"
    end: "06:45:10"
  - start: "18:00:00"
    end: "18:00:59"
overrides:
  - name: christmas
    date: "12-25"
    from: "07:00"
    to: "07:05"
`))
	require.NoError(t, err)
	require.NotNil(t, s.OffsetHours)
	assert.Equal(t, 1, *s.OffsetHours)

	assert.Equal(t, []logic.TimeWindow{
		{Start: logic.ClockTime{Hour: 6, Minute: 30}, End: logic.ClockTime{Hour: 6, Minute: 45, Second: 10}},
		{Start: logic.ClockTime{Hour: 18}, End: logic.ClockTime{Hour: 18, Second: 59}},
	}, s.Table.Windows)
	assert.Equal(t, []logic.CalendarOverride{
		{Name: "christmas", Month: 12, Day: 25, From: logic.ClockTime{Hour: 7}, To: logic.ClockTime{Hour: 7, Minute: 5}},
	}, s.Table.Overrides)

	// the override id continues after the two windows
	res := s.Table.Evaluate(logic.LocalTime{Month: 12, Day: 25, Hour: 7, Minute: 3})
	assert.Equal(t, logic.ActivationResult{Active: true, WindowID: 3}, res)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty schedule"},
		{"no entries", `offset_hours: 0`, "no windows"},
		{"unknown key", "windows: []\nwindow: []", "field window not found"},
		{"bad time", "windows:\n  - start: noon\n    end: \"12:01\"", `invalid time "noon"`},
		{"wraps midnight", "windows:\n  - start: \"23:00\"\n    end: \"01:00\"", "wraps midnight"},
		{"bad date", "overrides:\n  - name: x\n    date: \"13-01\"\n    from: \"00:00\"\n    to: \"00:00\"", "invalid date"},
		{"unreadable override", "overrides:\n  - name: xmas\n    date: dec\n    from: \"00:00\"\n    to: \"00:00\"", `override "xmas"`},
		{"reversed override", "overrides:\n  - name: x\n    date: \"01-01\"\n    from: \"00:05\"\n    to: \"00:01\"", "after to"},
		{"offset range", "offset_hours: 15\nwindows:\n  - start: \"08:00\"\n    end: \"08:01\"", "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("windows:\n  - start: \"08:00\"\n    end: \"08:00:30\"\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Table.Windows, 1)
	assert.Empty(t, s.Table.Overrides)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read schedule")
}
