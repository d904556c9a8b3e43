package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// Retryable is implemented by errors that know whether they are transient,
// such as upstream 429 and 5xx responses.
type Retryable interface {
	Retryable() bool
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts.
	// Default: 10s
	MaxDelay time.Duration

	// Multiplier is the growth factor for BackoffExponential.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// RetryIf decides whether err is worth another attempt.
	// Default: DefaultRetryIf
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryIf retries attempt timeouts, errors that report themselves as
// retryable, and errors that carry no opinion. Caller cancellation and guard
// rejections are never retried.
func DefaultRetryIf(err error) bool {
	if err == nil || IsRejection(err) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	if isContextErr(err) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Retry re-runs failed operations with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryIf
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, returns a non-retryable error, or the
// attempts run out. Exhaustion returns ErrMaxRetriesExceeded wrapping the
// last error, so both remain visible to errors.Is and errors.As.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !r.config.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if r.config.MaxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

// Delay returns the wait before retry number attempt (1-based).
func (r *Retry) Delay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	default:
		factor := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * factor)
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
