// Package metrics exposes controller state as Prometheus metrics.
// All methods are safe on a nil *Metrics so callers can run without them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/gps-timer/internal/logic"
)

const namespace = "gps_timer"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	relay        prometheus.Gauge
	override     prometheus.Gauge
	activeWindow prometheus.Gauge
	satellites   prometheus.Gauge
	lastFix      prometheus.Gauge
	acquiring    prometheus.Gauge
	fixes        prometheus.Counter
	events       *prometheus.CounterVec
	acquisition  prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		relay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "1 while the relay is energised.",
		}),
		override: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "manual_override",
			Help:      "1 while the manual override is latched.",
		}),
		activeWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_window",
			Help:      "Id of the active schedule entry, 0 when none.",
		}),
		satellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "satellites",
			Help:      "Satellites in use at the last accepted fix.",
		}),
		lastFix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_fix_timestamp_seconds",
			Help:      "Host time of the last accepted fix.",
		}),
		acquiring: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "acquiring",
			Help:      "1 while searching for a fix.",
		}),
		fixes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_total",
			Help:      "Accepted fixes.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Controller events by type.",
		}, []string{"type"}),
		acquisition: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "acquisition_duration_seconds",
			Help:      "Time from fix loss to the next accepted fix.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.relay,
		m.override,
		m.activeWindow,
		m.satellites,
		m.lastFix,
		m.acquiring,
		m.fixes,
		m.events,
		m.acquisition,
		m.httpRequests,
	)
	return m
}

// Events counts controller events.
func (m *Metrics) Events(events []logic.Event) {
	if m == nil {
		return
	}
	for _, e := range events {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
}

// Fix records an accepted reading.
func (m *Metrics) Fix(r logic.TimeReading, now time.Time) {
	if m == nil {
		return
	}
	m.fixes.Inc()
	m.satellites.Set(float64(r.Satellites))
	m.lastFix.Set(float64(now.Unix()))
}

// Acquired records how long a search took.
func (m *Metrics) Acquired(d time.Duration) {
	if m == nil {
		return
	}
	m.acquisition.Observe(d.Seconds())
}

// Sync copies the controller view into the gauges.
func (m *Metrics) Sync(v logic.View) {
	if m == nil {
		return
	}
	m.relay.Set(boolFloat(v.Relay == logic.StateOn))
	m.override.Set(boolFloat(v.ManualOverride))
	m.activeWindow.Set(float64(v.ActiveWindow))
	m.acquiring.Set(boolFloat(v.Acquiring))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests served by next under the given route label.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
