package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_NoPatterns(t *testing.T) {
	e := NewExecutor()

	called := false
	err := e.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Errorf("Execute() = %v, called = %v", err, called)
	}
}

func TestExecutor_NilReceiverCallsDirectly(t *testing.T) {
	var e *Executor
	want := errors.New("direct")

	if err := e.Execute(context.Background(), func(context.Context) error { return want }); err != want {
		t.Errorf("Execute() = %v, want %v", err, want)
	}
}

func TestExecutor_RetryWithinOneBreakerCall(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("boom")
	})

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Execute() = %v, want ErrMaxRetriesExceeded", err)
	}
	// One exhausted retry sequence is one breaker failure.
	if got := cb.Metrics().ConsecutiveFailures; got != 1 {
		t.Errorf("breaker ConsecutiveFailures = %d, want 1", got)
	}
	if cb.State() != StateClosed {
		t.Errorf("breaker state = %v, want closed", cb.State())
	}
}

func TestExecutor_TimeoutIsPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
		WithTimeout(20*time.Millisecond),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() = %v, want nil after a timed-out first attempt", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestExecutor_RateLimiterChargesOncePerCall(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	e := NewExecutor(
		WithRateLimiter(rl),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)
	ctx := context.Background()

	attempts := 0
	_ = e.Execute(ctx, func(context.Context) error {
		attempts++
		return errors.New("boom")
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 under one token", attempts)
	}

	err := e.Execute(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second call = %v, want ErrRateLimitExceeded", err)
	}
}

func TestExecutor_OpenCircuitNotRetried(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })

	e := NewExecutor(
		WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})),
		WithCircuitBreaker(cb),
	)

	err := e.Execute(context.Background(), func(context.Context) error {
		t.Error("op must not run while the circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
	}
	if e.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() should return the configured breaker")
	}
	if e.Bulkhead() == nil {
		t.Error("Bulkhead() should return the configured bulkhead")
	}
}

func TestWithTimeout_NonPositiveIgnored(t *testing.T) {
	e := NewExecutor(WithTimeout(0))
	if e.timeout != nil {
		t.Error("WithTimeout(0) should leave the timeout unset")
	}
}
