// Command gps-timer switches a relay on a daily schedule kept in time by a
// satellite receiver, with a manual override button and a 16x2 status display.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/gps-timer/internal/config"
	"github.com/sweeney/gps-timer/internal/device"
	"github.com/sweeney/gps-timer/internal/display"
	"github.com/sweeney/gps-timer/internal/gpio"
	"github.com/sweeney/gps-timer/internal/gps"
	"github.com/sweeney/gps-timer/internal/logic"
	"github.com/sweeney/gps-timer/internal/metrics"
	"github.com/sweeney/gps-timer/internal/mqtt"
	"github.com/sweeney/gps-timer/internal/retry"
	"github.com/sweeney/gps-timer/internal/status"
	"github.com/sweeney/gps-timer/internal/web"
)

type options struct {
	serial       string
	baud         int
	offset       int
	offsetSet    bool
	schedule     string
	threshold    float64
	stale        time.Duration
	poll         time.Duration
	hold         time.Duration
	pinBacklight int
	pinOverride  int
	pinRelay     int
	pinLED       int
	pwmDuty      int
	lcdBus       string
	lcdAddr      uint
	broker       string
	httpAddr     string
	heartbeat    string
	printState   bool
}

func main() {
	var o options
	flag.StringVar(&o.serial, "serial", "/dev/serial0", "GPS receiver serial device")
	flag.IntVar(&o.baud, "baud", 9600, "GPS receiver baud rate")
	flag.IntVar(&o.offset, "offset", -3, "Local UTC offset in whole hours (overrides the schedule file)")
	flag.StringVar(&o.schedule, "schedule", "", "Schedule YAML file (empty for the built-in schedule)")
	flag.Float64Var(&o.threshold, "threshold", logic.DefaultPressThreshold, "Button press threshold in volts")
	flag.DurationVar(&o.stale, "stale", logic.DefaultStaleAfter, "Fix age that triggers re-acquisition")
	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "Control cycle interval")
	flag.DurationVar(&o.hold, "hold", 500*time.Millisecond, "How long the fix confirmation stays on screen")
	flag.IntVar(&o.pinBacklight, "pin-backlight", gpio.DefaultPinBacklight, "BCM pin number for the backlight button")
	flag.IntVar(&o.pinOverride, "pin-override", gpio.DefaultPinOverride, "BCM pin number for the override button")
	flag.IntVar(&o.pinRelay, "pin-relay", gpio.DefaultPinRelay, "BCM pin number for the relay")
	flag.IntVar(&o.pinLED, "pin-led", gpio.DefaultPinLED, "BCM pin number for the status LED")
	flag.IntVar(&o.pwmDuty, "pwm-duty", gpio.DefaultDrive.DutyPercent, "Relay drive duty in percent (100 for plain on)")
	flag.StringVar(&o.lcdBus, "lcd-bus", "", "I2C bus for the display (empty for the first bus)")
	flag.UintVar(&o.lcdAddr, "lcd-addr", display.DefaultAddr, "I2C address of the display backpack")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable telemetry)")
	flag.StringVar(&o.httpAddr, "http", "", "HTTP status address (empty to disable)")
	flag.StringVar(&o.heartbeat, "heartbeat", "@every 15m", "Heartbeat cron spec (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print button levels and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "offset" {
			o.offsetSet = true
		}
	})

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	})))

	if err := run(o); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(o options) error {
	// Initialize buttons
	inputs, err := gpio.NewRealInputs(o.pinBacklight, o.pinOverride)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer inputs.Close()

	if o.printState {
		return printState(inputs, o.threshold)
	}

	sched, err := config.Load(o.schedule)
	if err != nil {
		return err
	}
	offset := o.offset
	if sched.OffsetHours != nil && !o.offsetSet {
		offset = *sched.OffsetHours
	}

	drive := gpio.Drive{DutyPercent: o.pwmDuty, Frequency: physic.KiloHertz}
	if err := drive.Validate(); err != nil {
		return err
	}
	outputs, err := gpio.NewRealOutputs(o.pinRelay, o.pinLED, drive)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	lcd, err := display.OpenLCD(o.lcdBus, uint16(o.lcdAddr))
	if err != nil {
		outputs.Close()
		return fmt.Errorf("init display: %w", err)
	}
	dev := device.New(outputs, lcd)
	defer dev.Close()

	port, err := gps.OpenPort(o.serial, o.baud)
	if err != nil {
		return fmt.Errorf("init gps: %w", err)
	}
	defer port.Close()

	bootID := uuid.NewString()
	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		PollMs:      o.poll.Milliseconds(),
		StaleMs:     o.stale.Milliseconds(),
		OffsetHours: offset,
		Windows:     len(sched.Table.Windows) + len(sched.Table.Overrides),
		Heartbeat:   o.heartbeat,
		Serial:      o.serial,
		RelayDuty:   o.pwmDuty,
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})
	m := metrics.New()

	l := &loop{
		ctrl: logic.NewController(logic.Config{
			Schedule:       sched.Table,
			OffsetHours:    offset,
			PressThreshold: o.threshold,
			StaleAfter:     o.stale,
		}),
		inputs:  inputs,
		source:  gps.NewSource(port, gps.NewDecoder()),
		device:  dev,
		policy:  &retry.Poll{Interval: o.poll, LogEvery: uint64(30 * time.Second / max(o.poll, time.Millisecond))},
		tracker: tracker,
		metrics: m,
		now:     time.Now,
		sleep:   sleepCtx,
		hold:    o.hold,
	}

	// Initialize MQTT
	if o.broker != "" {
		publisher, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   o.broker,
			ClientID: "gps-timer-" + bootID[:8],
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		l.publisher, l.conn = publisher, publisher

		publishLifecycle(publisher, tracker, mqtt.SystemStartup, "")
	}

	// Heartbeats run on their own goroutine so they keep flowing while the
	// control loop is blocked searching for a fix.
	if o.heartbeat != "" && l.publisher != nil {
		c := cron.New()
		if _, err := c.AddFunc(o.heartbeat, heartbeatJob(l.publisher, l.conn, tracker)); err != nil {
			return fmt.Errorf("heartbeat spec %q: %w", o.heartbeat, err)
		}
		c.Start()
		defer c.Stop()
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, m)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", o.httpAddr)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			slog.Info("shutting down", "signal", s)
			cancel(shutdownSignal(signalName(s)))
		case <-ctx.Done():
		}
	}()

	slog.Info("started",
		"boot_id", bootID,
		"serial", o.serial,
		"offset", offset,
		"entries", len(sched.Table.Windows)+len(sched.Table.Overrides),
		"broker", o.broker,
		"poll", o.poll,
	)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	err = l.run(ctx, ticker.C)

	if l.publisher != nil {
		publishLifecycle(l.publisher, tracker, mqtt.SystemShutdown, shutdownReason(ctx))
	}
	return err
}

// shutdownSignal is the cancellation cause recorded when a signal arrives.
type shutdownSignal string

func (s shutdownSignal) Error() string { return string(s) }

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func shutdownReason(ctx context.Context) string {
	var s shutdownSignal
	if errors.As(context.Cause(ctx), &s) {
		return string(s)
	}
	return ""
}

// publishLifecycle publishes a retained system event carrying a full status
// snapshot.
func publishLifecycle(p mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	snap := tracker.Snapshot()
	err := p.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		slog.Warn("failed to publish system event", "event", event, "error", err)
		return
	}
	slog.Info("published system event", "event", event)
}

func heartbeatJob(p mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker) func() {
	return func() {
		if conn != nil {
			tracker.SetMQTTConnected(conn.IsConnected())
		}
		snap := tracker.Snapshot()
		c := snap.View.Counts
		slog.Info("heartbeat",
			"uptime", snap.Uptime().Truncate(time.Second),
			"relay", snap.View.Relay,
			"acquiring", snap.View.Acquiring,
			"relay_on", c.RelayOn,
			"fix_lost", c.FixLost,
		)
		err := p.PublishSystem(mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      mqtt.SystemHeartbeat,
			RawPayload: status.FormatStatusEvent(snap, mqtt.SystemHeartbeat, ""),
		})
		if err != nil {
			slog.Warn("heartbeat publish error", "error", err)
		}
	}
}

func printState(inputs gpio.Inputs, threshold float64) error {
	backlight, override, err := inputs.Read()
	if err != nil {
		return fmt.Errorf("read buttons: %w", err)
	}
	fmt.Printf("backlight: %.2fV (%s), override: %.2fV (%s)\n",
		backlight, pressedString(backlight, threshold),
		override, pressedString(override, threshold))
	return nil
}

func pressedString(level, threshold float64) string {
	if level > threshold {
		return "pressed"
	}
	return "released"
}
