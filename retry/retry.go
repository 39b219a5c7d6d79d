// Package retry provides a small executor that re-attempts a fallible
// operation with exponential backoff. It is used exclusively around the
// completion request; deterministic failures (bad arguments, tool errors)
// are never routed through it.
package retry

import (
	"context"
	"time"

	"github.com/viktorbezdek/sw4rm/logging"
)

// Config controls retry behavior.
type Config struct {
	// MaxRetries is the total number of attempts (not re-attempts).
	MaxRetries int
	// InitialDelay is the sleep after the first failed attempt.
	InitialDelay time.Duration
	// MaxDelay caps the doubling backoff.
	MaxDelay time.Duration
}

// DefaultConfig returns the backoff parameters used by the engine when the
// caller supplies none.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// normalized clamps nonsensical configuration to single-attempt execution.
func (c Config) normalized() Config {
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	return c
}

// Do runs op up to cfg.MaxRetries times. Each failure is logged as a warning
// naming the attempt count; between attempts the executor sleeps for the
// current delay and then doubles it, capped at cfg.MaxDelay. The failure of
// the final attempt is returned unchanged. Context cancellation interrupts
// the backoff sleep and is returned immediately.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), cfg Config, logger logging.Logger) (T, error) {
	var zero T
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	cfg = cfg.normalized()

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn("retry.attempt.failed", "attempt", attempt, "max_retries", cfg.MaxRetries, "error", err.Error())
		if attempt == cfg.MaxRetries {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay = nextDelay(delay, cfg.MaxDelay)
	}
	return zero, lastErr
}

// nextDelay doubles the delay, capped at max.
func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	return next
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
