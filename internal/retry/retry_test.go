package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func alwaysRetryable(error) bool { return true }

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p := NewPolicy(3, time.Millisecond, 2)

	calls := 0
	err := p.Do(context.Background(), alwaysRetryable, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(5, time.Millisecond, 2)

	calls := 0
	err := p.Do(context.Background(), alwaysRetryable, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	p := NewPolicy(5, time.Millisecond, 2)
	permanent := errors.New("unauthorized")

	calls := 0
	err := p.Do(context.Background(), func(err error) bool {
		return !errors.Is(err, permanent)
	}, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	p := NewPolicy(2, time.Millisecond, 2)

	calls := 0
	err := p.Do(context.Background(), alwaysRetryable, func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "max retries exceeded") {
		t.Errorf("unexpected error message: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (first attempt plus 2 retries)", calls)
	}
}

func TestDo_NilClassifierIsPermanent(t *testing.T) {
	p := NewPolicy(5, time.Millisecond, 2)

	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	p := NewPolicy(5, time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, alwaysRetryable, func() error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	p := NewPolicy(5, time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, alwaysRetryable, func() error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewPolicy_Defaults(t *testing.T) {
	p := NewPolicy(0, 0, 0)
	if p.MaxRetries() != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", p.MaxRetries(), DefaultMaxRetries)
	}
	if p.initialDelay != DefaultInitialDelay {
		t.Errorf("initialDelay = %v, want %v", p.initialDelay, DefaultInitialDelay)
	}
	if p.backoffFactor != DefaultBackoffFactor {
		t.Errorf("backoffFactor = %v, want %v", p.backoffFactor, DefaultBackoffFactor)
	}
}
