package internal

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sweeney/gps-timer/internal/device"
	"github.com/sweeney/gps-timer/internal/display"
	"github.com/sweeney/gps-timer/internal/gpio"
	"github.com/sweeney/gps-timer/internal/gps"
	"github.com/sweeney/gps-timer/internal/logic"
	"github.com/sweeney/gps-timer/internal/mqtt"
)

// nmea frames a sentence body with its checksum.
func nmea(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, sum)
}

// fixAt returns the GGA+RMC pair a receiver sends for the given UTC instant.
func fixAt(ts time.Time) []byte {
	hms := ts.Format("150405")
	dmy := ts.Format("020106")
	return []byte(nmea("GPGGA,"+hms+",4807.038,N,01131.000,E,1,06,0.9,545.4,M,46.9,M,,") +
		nmea("GPRMC,"+hms+",A,4807.038,N,01131.000,E,0.0,0.0,"+dmy+",,"))
}

type rig struct {
	src  *gps.Source
	ctrl *logic.Controller
	dev  *device.Device
	out  *gpio.FakeOutputs
	disp *display.FakeDisplay
	pub  *mqtt.FakePublisher
}

func newRig(offset int, chunks ...[]byte) *rig {
	r := &rig{
		src:  gps.NewSource(gps.NewFakeFeed(chunks...), gps.NewDecoder()),
		ctrl: logic.NewController(logic.Config{Schedule: logic.DefaultSchedule(), OffsetHours: offset}),
		out:  gpio.NewFakeOutputs(),
		disp: display.NewFakeDisplay(),
		pub:  mqtt.NewFakePublisher(),
	}
	r.dev = device.New(r.out, r.disp)
	return r
}

// step runs the fix half of one control cycle.
func (r *rig) step(t *testing.T, now time.Time) bool {
	t.Helper()
	reading, ok := r.src.Poll()
	if ok {
		for _, e := range r.ctrl.Fix(reading, now) {
			if err := r.pub.Publish(e); err != nil {
				t.Fatalf("publish: %v", err)
			}
		}
	}
	if err := r.dev.Apply(r.ctrl.Output()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return ok
}

// TestIntegrationScheduleAcrossOffsetAndHolidays drives the real decoder,
// controller and device with receiver sentences at UTC-3.
func TestIntegrationScheduleAcrossOffsetAndHolidays(t *testing.T) {
	steps := []struct {
		utc   time.Time
		line1 string
		line2 string
		relay bool
	}{
		// 21:00:30 local on Dec 24: evening window
		{time.Date(2025, 12, 25, 0, 0, 30, 0, time.UTC), "21:00:30/Sat:6", "ON: 3", true},
		// 21:01:30 local: after the window
		{time.Date(2025, 12, 25, 0, 1, 30, 0, time.UTC), "21:01:30/Sat:6", "OFF", false},
		// 00:00:30 local on Dec 25: Christmas override
		{time.Date(2025, 12, 25, 3, 0, 30, 0, time.UTC), "00:00:30/Sat:6", "ON: 4", true},
		// 00:01:00 local on Dec 25: override covers minute 00:00 only
		{time.Date(2025, 12, 25, 3, 1, 0, 0, time.UTC), "00:01:00/Sat:6", "OFF", false},
		// 00:01:00 local on Jan 1: New Year override
		{time.Date(2026, 1, 1, 3, 1, 0, 0, time.UTC), "00:01:00/Sat:6", "ON: 5", true},
		// 08:00:30 local: last second of the morning window
		{time.Date(2026, 1, 1, 11, 0, 30, 0, time.UTC), "08:00:30/Sat:6", "ON: 1", true},
		// 08:00:31 local
		{time.Date(2026, 1, 1, 11, 0, 31, 0, time.UTC), "08:00:31/Sat:6", "OFF", false},
	}

	var chunks [][]byte
	for _, s := range steps {
		chunks = append(chunks, fixAt(s.utc))
	}
	r := newRig(-3, chunks...)

	host := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, s := range steps {
		if !r.step(t, host.Add(time.Duration(i)*100*time.Millisecond)) {
			t.Fatalf("step %d: no fix accepted", i)
		}
		if r.disp.Lines[0] != display.Fit(s.line1) {
			t.Errorf("step %d: line1 %q, want %q", i, r.disp.Lines[0], s.line1)
		}
		if r.disp.Lines[1] != display.Fit(s.line2) {
			t.Errorf("step %d: line2 %q, want %q", i, r.disp.Lines[1], s.line2)
		}
		if r.out.Relay != s.relay || r.out.LED != s.relay {
			t.Errorf("step %d: relay %v LED %v, want %v", i, r.out.Relay, r.out.LED, s.relay)
		}
	}

	var windows []int
	for _, e := range r.pub.Events {
		if e.Type == logic.EventRelayOn {
			windows = append(windows, e.WindowID)
		}
	}
	// the relay stays on from the New Year override into the morning window
	if fmt.Sprint(windows) != "[3 4 5]" {
		t.Errorf("RELAY_ON windows: got %v, want [3 4 5]", windows)
	}
}

func TestIntegrationPayloadFormat(t *testing.T) {
	r := newRig(0, fixAt(time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC)))
	r.step(t, time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC))

	if len(r.pub.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(r.pub.Payloads))
	}
	var p mqtt.Payload
	if err := json.Unmarshal(r.pub.Payloads[0], &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Timer.Event != "RELAY_ON" || p.Timer.Relay != "ON" || p.Timer.Mode != "AUTO" || p.Timer.Window != 2 {
		t.Errorf("unexpected payload: %+v", p.Timer)
	}
	if p.Timer.Timestamp != "2025-06-01T12:00:59Z" {
		t.Errorf("timestamp: got %s", p.Timer.Timestamp)
	}
}

func TestIntegrationCorruptSentencesNeverEvaluate(t *testing.T) {
	good := fixAt(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	corrupt := make([]byte, len(good))
	copy(corrupt, good)
	corrupt[10] ^= 0x01 // GGA fails its checksum; RMC alone reports no satellites

	r := newRig(0, corrupt)
	if r.step(t, time.Now()) {
		t.Fatal("corrupt input must not yield a fix")
	}
	if r.out.Relay || len(r.pub.Events) != 0 {
		t.Error("no evaluation may happen without an accepted fix")
	}
}

func TestIntegrationStaleReadingNotReprocessed(t *testing.T) {
	r := newRig(0, fixAt(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)), nil, nil)
	host := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	if !r.step(t, host) {
		t.Fatal("expected first fix")
	}
	if r.step(t, host.Add(500*time.Millisecond)) {
		t.Error("no new sentences: the old reading must not be returned again")
	}
	if !r.ctrl.Stale(host.Add(time.Second)) {
		t.Error("expected staleness one second after the only fix")
	}
}
