// Package retry provides the unbounded polling policy used while waiting for
// a satellite fix. There is no fallback time source, so the policy never
// gives up on its own; only context cancellation (process shutdown) stops it.
package retry

import (
	"context"
	"log/slog"
	"time"
)

type (
	// Check performs one attempt and reports whether it succeeded.
	Check = func(ctx context.Context) bool

	// Waiting is called after every failed attempt, typically to service
	// buttons and refresh the display.
	Waiting = func(ctx context.Context, attempt uint64)

	// Policy runs a check until it succeeds.
	Policy interface {
		Until(ctx context.Context, name string, check Check, waiting Waiting) (uint64, error)
	}
)

// Poll retries a check at a fixed interval. A zero Interval busy-polls.
type Poll struct {
	// Interval is the pause between attempts.
	Interval time.Duration

	// LogEvery logs a progress line every N failed attempts. Zero disables
	// progress logging.
	LogEvery uint64

	// Logger receives attempt and completion records. Defaults to slog.Default.
	Logger *slog.Logger

	// After indirects time.After for tests.
	After func(time.Duration) <-chan time.Time
}

// Until calls check until it returns true and returns the number of attempts.
// It only fails when ctx is cancelled.
func (p *Poll) Until(ctx context.Context, name string, check Check, waiting Waiting) (uint64, error) {
	l := p.logger()
	after := p.After
	if after == nil {
		after = time.After
	}

	for attempt := uint64(1); ; attempt++ {
		if err := ctx.Err(); err != nil {
			l.Info("retry cancelled",
				slog.String("task", name),
				slog.Uint64("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return attempt - 1, err
		}

		if check(ctx) {
			l.Info("retry succeeded",
				slog.String("task", name),
				slog.Uint64("attempt", attempt),
			)
			return attempt, nil
		}

		if p.LogEvery > 0 && attempt%p.LogEvery == 0 {
			l.Info("retry",
				slog.String("task", name),
				slog.Uint64("attempt", attempt),
			)
		}

		if waiting != nil {
			waiting(ctx, attempt)
		}

		if p.Interval > 0 {
			select {
			case <-after(p.Interval):
			case <-ctx.Done():
			}
		}
	}
}

func (p *Poll) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
