// Package poll provides a bounded wait-for-condition primitive for external
// services that reach consistency eventually.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted reports that the condition was not met within the attempt
// budget. Callers usually wrap it into a domain error.
var ErrExhausted = errors.New("condition not met within the attempt budget")

// CheckFunc checks the condition once. It returns the value and true once the
// condition holds; a non-nil error aborts the wait immediately.
type CheckFunc[T any] func(ctx context.Context) (T, bool, error)

// SleepFunc suspends the calling task between attempts. Injected so tests can
// observe delays without waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc. It returns early with the context error
// when the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopSleep skips the delay entirely. Used by in-memory wirings where the
// polled backend is consistent immediately.
func NopSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Wait runs check up to attempts times, sleeping delay between attempts and
// never after the last one. It returns the checked value as soon as the
// condition holds, ErrExhausted after the final failed attempt, or the first
// check/sleep error.
func Wait[T any](
	ctx context.Context,
	attempts int,
	delay time.Duration,
	sleep SleepFunc,
	check CheckFunc[T],
) (T, error) {
	var zero T
	if attempts <= 0 {
		return zero, ErrExhausted
	}
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 1; ; attempt++ {
		value, ready, err := check(ctx)
		if err != nil {
			return zero, err
		}
		if ready {
			return value, nil
		}
		if attempt == attempts {
			return zero, ErrExhausted
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
