package resilience

import (
	"context"
	"errors"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when no token is available in time.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when no concurrency slot frees up in time.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsRejection reports whether err was produced by a resilience guard rather
// than by the protected operation.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrRateLimitExceeded) ||
		errors.Is(err, ErrBulkheadFull)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
