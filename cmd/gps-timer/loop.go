package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/gps-timer/internal/device"
	"github.com/sweeney/gps-timer/internal/gpio"
	"github.com/sweeney/gps-timer/internal/gps"
	"github.com/sweeney/gps-timer/internal/logic"
	"github.com/sweeney/gps-timer/internal/metrics"
	"github.com/sweeney/gps-timer/internal/mqtt"
	"github.com/sweeney/gps-timer/internal/retry"
	"github.com/sweeney/gps-timer/internal/status"
)

// loop is the single control task. Nothing else touches the controller.
type loop struct {
	ctrl    *logic.Controller
	inputs  gpio.Inputs
	source  gps.TimeFixSource
	device  *device.Device
	policy  retry.Policy
	tracker *status.Tracker
	metrics *metrics.Metrics

	// publisher and conn are nil when telemetry is disabled.
	publisher mqtt.Publisher
	conn      mqtt.ConnectionStatus

	now   func() time.Time
	sleep func(context.Context, time.Duration)
	hold  time.Duration // how long "GPS OK!" stays up

	lastInputErr  string
	lastOutputErr string
}

// run executes control cycles on every tick until ctx is cancelled. The
// first cycle finds no fix and starts the initial acquisition.
func (l *loop) run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}

		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// cycle is one pass: buttons, receiver drain, schedule evaluation on a fresh
// fix, output, then the staleness check. Sentences that do not complete a fix
// still count as receiver traffic.
func (l *loop) cycle(ctx context.Context) error {
	l.buttons()

	if r, ok := l.source.Poll(); ok {
		now := l.now()
		l.metrics.Fix(r, now)
		l.emit(l.ctrl.Fix(r, now))
	} else if ls, isListener := l.source.(gps.Listener); isListener && ls.Heard() {
		l.ctrl.Heard(l.now())
	}
	l.apply()

	if l.ctrl.Stale(l.now()) {
		return l.acquire(ctx)
	}
	return nil
}

// acquire blocks until the receiver delivers a fix. Buttons stay live while
// searching. Only cancellation ends the search early.
func (l *loop) acquire(ctx context.Context) error {
	start := l.now()
	slog.Warn("gps fix lost, searching", "last_fix", l.ctrl.State().LastFix)
	l.emit(l.ctrl.BeginAcquisition(start))
	l.apply()

	var reading logic.TimeReading
	check := func(context.Context) bool {
		r, ok := l.source.Poll()
		if ok {
			reading = r
		}
		return ok
	}
	waiting := func(context.Context, uint64) {
		l.buttons()
		l.apply()
	}
	if _, err := l.policy.Until(ctx, "gps fix", check, waiting); err != nil {
		return err
	}

	now := l.now()
	l.metrics.Fix(reading, now)
	l.metrics.Acquired(now.Sub(start))
	slog.Info("gps fix acquired", "satellites", reading.Satellites, "after", now.Sub(start))
	l.emit(l.ctrl.CompleteAcquisition(now))
	l.apply()

	l.sleep(ctx, l.hold)

	l.emit(l.ctrl.Resume(reading, l.now()))
	l.apply()
	return nil
}

func (l *loop) buttons() {
	backlight, override, err := l.inputs.Read()
	if err != nil {
		if msg := err.Error(); msg != l.lastInputErr {
			slog.Error("button read failed", "error", err)
			l.lastInputErr = msg
		}
		return
	}
	l.lastInputErr = ""
	l.emit(l.ctrl.Buttons(backlight, override, l.now()))
}

// apply pushes the output image to the hardware and refreshes status.
// Hardware errors are logged once per distinct failure and retried on the
// next call.
func (l *loop) apply() {
	if err := l.device.Apply(l.ctrl.Output()); err != nil {
		if msg := err.Error(); msg != l.lastOutputErr {
			slog.Error("output write failed", "error", err)
			l.lastOutputErr = msg
		}
	} else {
		l.lastOutputErr = ""
	}

	v := l.ctrl.View()
	l.metrics.Sync(v)
	if l.tracker != nil {
		l.tracker.Update(v)
		if l.conn != nil {
			l.tracker.SetMQTTConnected(l.conn.IsConnected())
		}
	}
}

func (l *loop) emit(events []logic.Event) {
	l.metrics.Events(events)
	for _, e := range events {
		slog.Info("event", "type", e.Type, "relay", e.Relay, "mode", e.Mode, "window", e.WindowID)
		if l.publisher == nil {
			continue
		}
		if err := l.publisher.Publish(e); err != nil {
			// Don't crash on publish failure
			slog.Warn("publish failed", "type", e.Type, "error", err)
		}
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
