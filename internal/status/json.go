package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	BootID        string     `json:"boot_id"`
	Relay         string     `json:"relay"`
	Mode          string     `json:"mode"`
	Override      bool       `json:"override"`
	Backlight     bool       `json:"backlight"`
	Window        int        `json:"window"`
	GPS           GPSJSON    `json:"gps"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// GPSJSON reports receiver state.
type GPSJSON struct {
	Acquiring  bool   `json:"acquiring"`
	LocalTime  string `json:"local_time,omitempty"` // "MM-DD HH:MM:SS"
	Satellites int    `json:"satellites"`
	LastFix    string `json:"last_fix,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	RelayOn     int `json:"relay_on"`
	RelayOff    int `json:"relay_off"`
	Overrides   int `json:"overrides"`
	Backlights  int `json:"backlights"`
	FixLost     int `json:"fix_lost"`
	FixAcquired int `json:"fix_acquired"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	StaleMs     int64  `json:"stale_ms"`
	OffsetHours int    `json:"offset_hours"`
	Windows     int    `json:"windows"`
	Heartbeat   string `json:"heartbeat"`
	Serial      string `json:"serial"`
	RelayDuty   int    `json:"relay_duty"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	v := snap.View

	relay := string(v.Relay)
	if relay == "" {
		relay = "UNKNOWN"
	}

	gps := GPSJSON{Acquiring: v.Acquiring, Satellites: v.Satellites}
	if v.HasReading {
		l := v.Local
		gps.LocalTime = fmt.Sprintf("%02d-%02d %02d:%02d:%02d", l.Month, l.Day, l.Hour, l.Minute, l.Second)
	}
	if !v.LastFix.IsZero() {
		gps.LastFix = v.LastFix.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		BootID:        snap.BootID,
		Relay:         relay,
		Mode:          string(v.Mode),
		Override:      v.ManualOverride,
		Backlight:     v.Backlight,
		Window:        v.ActiveWindow,
		GPS:           gps,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			RelayOn:     v.Counts.RelayOn,
			RelayOff:    v.Counts.RelayOff,
			Overrides:   v.Counts.Overrides,
			Backlights:  v.Counts.Backlights,
			FixLost:     v.Counts.FixLost,
			FixAcquired: v.Counts.FixAcquired,
		},
		Config: ConfigJSON(snap.Config),
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
