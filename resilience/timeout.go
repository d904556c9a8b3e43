package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout bounds a single attempt.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds operations with a context deadline.
//
// The operation must honor ctx; HTTP requests built with
// http.NewRequestWithContext do.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op with a deadline. If this wrapper's deadline fired (and not
// the caller's), the error is ErrTimeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout runs op with a one-off timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
