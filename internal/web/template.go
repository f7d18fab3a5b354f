package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gps-timer/internal/logic"
	"github.com/sweeney/gps-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime":  formatUptime,
	"clock":   func(h, m, s int) string { return fmt.Sprintf("%02d:%02d:%02d", h, m, s) },
	"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"relayClass": func(s logic.State) string {
		switch s {
		case logic.StateOn:
			return "on"
		case logic.StateOff:
			return "off"
		}
		return "unknown"
	},
}).Parse(indexHTML))

// formatUptime renders d as "1d 2h 3m 4s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	secs := int64(d.Truncate(time.Second).Seconds())
	parts := []struct {
		n    int64
		unit string
	}{
		{secs / 86400, "d"},
		{secs / 3600 % 24, "h"},
		{secs / 60 % 60, "m"},
	}
	var out string
	for _, p := range parts {
		if p.n > 0 || out != "" {
			out += fmt.Sprintf("%d%s ", p.n, p.unit)
		}
	}
	return out + fmt.Sprintf("%ds", secs%60)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>GPS Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>GPS Timer</h1>

{{with .View}}
<h2>State</h2>
<table>
<tr><th>Relay</th><td id="relay-state" class="{{relayClass .Relay}}">{{if .Relay}}{{printf "%s" .Relay}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Mode</th><td>{{printf "%s" .Mode}}</td></tr>
<tr><th>Window</th><td>{{if .ActiveWindow}}{{.ActiveWindow}}{{else}}none{{end}}</td></tr>
<tr><th>Manual override</th><td>{{if .ManualOverride}}latched{{else}}off{{end}}</td></tr>
<tr><th>Backlight</th><td>{{if .Backlight}}on{{else}}off{{end}}</td></tr>
</table>

<h2>GPS</h2>
<table>
<tr><th>Fix</th><td class="{{if .Acquiring}}disconnected{{else}}connected{{end}}">{{if .Acquiring}}searching{{else}}ok{{end}}</td></tr>
<tr><th>Local time</th><td>{{if .HasReading}}{{.Local.Month}}/{{.Local.Day}} {{clock .Local.Hour .Local.Minute .Local.Second}}{{else}}unknown{{end}}</td></tr>
<tr><th>Satellites</th><td>{{.Satellites}}</td></tr>
<tr><th>Last fix</th><td>{{if .LastFix.IsZero}}never{{else}}{{rfc3339 .LastFix}}{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Relay ON</th><td>{{.Counts.RelayOn}}</td></tr>
<tr><th>Relay OFF</th><td>{{.Counts.RelayOff}}</td></tr>
<tr><th>Overrides</th><td>{{.Counts.Overrides}}</td></tr>
<tr><th>Fix lost</th><td>{{.Counts.FixLost}}</td></tr>
<tr><th>Fix acquired</th><td>{{.Counts.FixAcquired}}</td></tr>
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{rfc3339 .StartTime}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>UTC offset</th><td>{{.Config.OffsetHours}}h</td></tr>
<tr><th>Schedule entries</th><td>{{.Config.Windows}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Fix timeout</th><td>{{.Config.StaleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if .Config.Heartbeat}}{{.Config.Heartbeat}}{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
