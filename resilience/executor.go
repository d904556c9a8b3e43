package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience patterns around one upstream call.
type Executor struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each attempt. Non-positive durations leave it unset.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
		}
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead {
	return e.bulkhead
}

// Execute runs op through every configured pattern.
//
// Order, outermost first:
// 1. Rate Limiter - one token per logical call, not per attempt
// 2. Bulkhead - one slot held across retries
// 3. Circuit Breaker - each retry sequence counts once
// 4. Retry
// 5. Timeout - per attempt
//
// A nil Executor calls op directly.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e == nil {
		return op(ctx)
	}

	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
