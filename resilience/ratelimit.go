package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 10
	Rate float64

	// Burst is the maximum burst size.
	// Default: 5
	Burst int

	// WaitOnLimit waits for a token instead of failing immediately.
	// Default: false
	WaitOnLimit bool

	// MaxWait bounds how long WaitOnLimit may block.
	// Default: 1 second
	MaxWait time.Duration
}

// RateLimiter is a token bucket limiter for upstream requests.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available, MaxWait elapses, or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()

	if err := rl.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Either MaxWait elapsed or the limiter predicted it would.
		return ErrRateLimitExceeded
	}
	return nil
}

// Execute runs the operation once a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}

	return op(ctx)
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}

// Config returns the rate limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}
