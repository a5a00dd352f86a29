package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/lexiconlabs/resolution-platform/pkg/errors"
)

// WithTimeout runs fn under a derived context that expires after the given
// duration. Expiry surfaces as the platform's timeout sentinel so callers
// can map it uniformly; a non-positive timeout runs fn unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(bounded)
	}()

	select {
	case err := <-done:
		return err
	case <-bounded.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s after %v: %w", name, timeout, apperrors.ErrTimeout)
	}
}
