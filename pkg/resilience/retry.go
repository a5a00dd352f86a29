// Package resilience guards the resolver's store and broker calls: retry
// with jittered backoff for the vocabulary load, a circuit breaker for the
// minting path, and a context timeout wrapper for setup work.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig bounds the retry loop. Zero values fall back to the defaults
// below.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFraction <= 0 {
		c.JitterFraction = 0.1
	}
	return c
}

// Retry runs fn until it succeeds, the attempt budget is spent, or ctx is
// cancelled. Delays grow geometrically with a symmetric jitter so restarting
// replicas do not hammer the store in lock-step.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	log := slog.Default().With("component", "retry", "operation", name)

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("all %d attempts failed for %s: %w", cfg.MaxAttempts, name, lastErr)
		}

		wait := jitter(delay, cfg.JitterFraction)
		log.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", lastErr,
			"next_delay", wait,
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("retry of %s aborted: %w", name, ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// jitter spreads d by ±fraction.
func jitter(d time.Duration, fraction float64) time.Duration {
	spread := float64(d) * fraction * (2*rand.Float64() - 1)
	out := time.Duration(float64(d) + spread)
	if out <= 0 {
		return d
	}
	return out
}
