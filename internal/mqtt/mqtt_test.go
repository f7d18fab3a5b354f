package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/gps-timer/internal/logic"
)

var (
	_ Publisher        = (*FakePublisher)(nil)
	_ Publisher        = (*RealPublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
	_ ConnectionStatus = (*RealPublisher)(nil)
)

func TestTopics(t *testing.T) {
	if Topic != "home/gps-timer/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "home/gps-timer/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2025, 12, 25, 0, 0, 12, 0, time.UTC),
		Type:      logic.EventRelayOn,
		Relay:     logic.StateOn,
		Mode:      logic.ModeAuto,
		WindowID:  4,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"timer":{"timestamp":"2025-12-25T00:00:12Z","event":"RELAY_ON","relay":"ON","mode":"AUTO","window":4}}`
	if string(payload) != want {
		t.Errorf("payload mismatch\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatPayloadOmitsWindowWhenInactive(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Type:      logic.EventOverrideOn,
		Relay:     logic.StateOn,
		Mode:      logic.ModeManualOn,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["timer"]["window"]; ok {
		t.Error("window should be omitted when no window is active")
	}
	if raw["timer"]["mode"] != "MANUAL_ON" {
		t.Errorf("unexpected mode: %v", raw["timer"]["mode"])
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	zone := time.FixedZone("UTC-3", -3*3600)
	event := logic.Event{
		Timestamp: time.Date(2025, 6, 1, 21, 0, 0, 0, zone),
		Type:      logic.EventRelayOff,
		Relay:     logic.StateOff,
		Mode:      logic.ModeAuto,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Timer.Timestamp != "2025-06-02T00:00:00Z" {
		t.Errorf("timestamp not converted to UTC: %s", parsed.Timer.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		name  string
		event SystemEvent
		want  string
	}{
		{
			"startup",
			SystemEvent{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Event: SystemStartup},
			`{"system":{"timestamp":"2025-01-01T00:00:00Z","event":"STARTUP"}}`,
		},
		{
			"shutdown with reason",
			SystemEvent{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Event: SystemShutdown, Reason: "SIGTERM"},
			`{"system":{"timestamp":"2025-01-01T00:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			"raw payload wins",
			SystemEvent{Event: SystemHeartbeat, RawPayload: []byte(`{"status":{}}`)},
			`{"status":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.want {
				t.Errorf("got %s, want %s", payload, tt.want)
			}
		})
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	events := []logic.Event{
		{Type: logic.EventRelayOn, Relay: logic.StateOn, Mode: logic.ModeAuto, WindowID: 1},
		{Type: logic.EventRelayOff, Relay: logic.StateOff, Mode: logic.ModeAuto},
	}
	for _, e := range events {
		if err := f.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := f.PublishSystem(SystemEvent{Event: SystemStartup}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 2 || len(f.Payloads) != 2 {
		t.Fatalf("expected 2 events and payloads, got %d/%d", len(f.Events), len(f.Payloads))
	}
	if f.Events[0].WindowID != 1 || f.Events[1].Type != logic.EventRelayOff {
		t.Errorf("events out of order: %+v", f.Events)
	}
	if names := f.SystemEventNames(); len(names) != 1 || names[0] != SystemStartup {
		t.Errorf("unexpected system events: %v", names)
	}

	f.Close()
	if !f.Closed {
		t.Error("should be closed")
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}
