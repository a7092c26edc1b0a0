// Package retry runs a fallible operation a bounded number of times.
//
// An attempt succeeds only when the operation returns no error AND a non-zero
// value; a nil pointer or empty string counts as a failed attempt and is
// retried. The default policy waits a fixed delay between attempts, and a
// cancelled context ends the run early.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"time"
)

// ErrEmptyResult is recorded when an attempt returned no error but a zero value.
var ErrEmptyResult = errors.New("operation returned an empty result")

// BackoffFunc returns the pause after the given failed attempt (1-based).
type BackoffFunc func(attempt int, base time.Duration) time.Duration

// Fixed waits base between every attempt.
func Fixed() BackoffFunc {
	return func(_ int, base time.Duration) time.Duration {
		return base
	}
}

// Exponential doubles the pause per attempt up to max (no cap when max <= 0)
// and adds up to jitter (a fraction of the pause) of random spread.
func Exponential(max time.Duration, jitter float64) BackoffFunc {
	return func(attempt int, base time.Duration) time.Duration {
		d := base
		for i := 1; i < attempt && (max <= 0 || d < max); i++ {
			d *= 2
		}
		if max > 0 && d > max {
			d = max
		}
		if jitter > 0 && d > 0 {
			d += time.Duration(rand.Float64() * jitter * float64(d))
		}
		return d
	}
}

// Policy bounds a run.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Backoff defaults to Fixed.
	Backoff BackoffFunc
}

// Outcome is the aggregated result of a run.
type Outcome[T any] struct {
	OK       bool
	Value    T
	LastErr  error
	Attempts int
}

type options struct {
	logger *slog.Logger
	name   string
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customises a run.
type Option func(*options)

// WithLogger logs each failed attempt at WARN under name.
func WithLogger(logger *slog.Logger, name string) Option {
	return func(o *options) {
		o.logger = logger
		o.name = name
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// Do attempts op up to p.MaxAttempts times (at least once).
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), opts ...Option) Outcome[T] {
	o := options{sleep: sleep}
	for _, opt := range opts {
		opt(&o)
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Fixed()
	}
	maxAttempts := max(p.MaxAttempts, 1)

	var out Outcome[T]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			out.LastErr = err
			return out
		}
		out.Attempts = attempt

		value, err := op(ctx)
		if err == nil && !isZero(value) {
			out.OK = true
			out.Value = value
			out.LastErr = nil
			return out
		}
		if err == nil {
			err = ErrEmptyResult
		}
		out.LastErr = err
		if o.logger != nil {
			o.logger.WarnContext(ctx, "attempt failed",
				"operation", o.name,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err,
			)
		}

		if attempt < maxAttempts {
			if err := o.sleep(ctx, backoff(attempt, p.Delay)); err != nil {
				out.LastErr = err
				return out
			}
		}
	}
	return out
}

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

func isZero[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}
