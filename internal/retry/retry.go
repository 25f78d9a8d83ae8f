// Package retry provides a shared exponential backoff policy for calls to
// upstream HTTP APIs.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Default policy parameters.
const (
	DefaultMaxRetries    = 5
	DefaultInitialDelay  = 2 * time.Second
	DefaultBackoffFactor = 2.0
)

// Policy describes how a failed call is retried. The zero value retries
// nothing; use NewPolicy for sensible defaults.
type Policy struct {
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewPolicy creates a Policy. Non-positive arguments fall back to the
// defaults.
func NewPolicy(maxRetries int, initialDelay time.Duration, backoffFactor float64) Policy {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	if backoffFactor <= 1 {
		backoffFactor = DefaultBackoffFactor
	}
	return Policy{
		maxRetries:    maxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
	}
}

// DefaultPolicy returns a Policy with the default parameters.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultMaxRetries, DefaultInitialDelay, DefaultBackoffFactor)
}

// MaxRetries returns the number of retries after the first attempt.
func (p Policy) MaxRetries() int {
	return p.maxRetries
}

// Do invokes fn until it succeeds, returns a non-retryable error, the retry
// budget is exhausted, or ctx is done. retryable classifies errors; a nil
// retryable treats every error as permanent.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if retryable == nil || !retryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
