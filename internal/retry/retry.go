// Package retry runs an operation a bounded number of times with a delay between
// attempts and returns the last error once attempts are exhausted.
package retry

import (
	"context"
	"errors"
	"time"

	"docquery/internal/contextutil"
)

// Policy controls how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first. Values below 1 are treated as 1.
	Attempts int
	// Delay is the pause after the first failed attempt.
	Delay time.Duration
	// Multiplier scales Delay after each failed attempt. Values <= 1 keep the delay fixed.
	Multiplier float64
}

// DefaultPolicy is three attempts with a fixed one second delay.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, Multiplier: 1}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, ctx is done, or the
// policy's attempts are used up. The last error is returned.
func Do(ctx context.Context, policy Policy, op string, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, policy, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, policy Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	logger := contextutil.LoggerFromContext(ctx)

	attempts := max(policy.Attempts, 1)
	delay := policy.Delay

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "operation succeeded after retry", "op", op, "attempt", attempt)
			}
			return v, nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return zero, p.err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "attempt failed",
			"op", op,
			"attempt", attempt,
			"attempts", attempts,
			"retry_in", delay,
			"error", err,
		)

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, lastErr
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return zero, lastErr
		}

		if policy.Multiplier > 1 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}
	}

	logger.ErrorContext(ctx, "all attempts failed", "op", op, "attempts", attempts, "error", lastErr)
	return zero, lastErr
}
