package config

import (
	"context"
	"net/http"
	"time"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/resilience"
	"github.com/jonwraymond/websearch/search"
)

// CachePolicy returns the cache policy described by c.
func (c CacheConfig) CachePolicy() cache.Policy {
	return cache.Policy{
		DefaultTTL:    c.TTL,
		MaxTTL:        c.MaxTTL,
		SweepInterval: c.SweepInterval,
	}
}

// HTTPClient returns the client used for upstream requests. A zero timeout
// means none.
func (c SearXNGConfig) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}

// Executor builds the resilience executor. Patterns whose settings are zero
// are left out; with nothing enabled the executor calls straight through.
// Retries and circuit transitions are logged at warn level.
func (r ResilienceConfig) Executor(logger observe.Logger) *resilience.Executor {
	if logger == nil {
		logger = observe.NopLogger{}
	}

	var opts []resilience.ExecutorOption

	if r.RateLimit > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        r.RateLimit,
			Burst:       r.RateBurst,
			WaitOnLimit: r.MaxWait > 0,
			MaxWait:     r.MaxWait,
		})))
	}

	if r.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: r.MaxConcurrent,
			MaxWait:       r.MaxWait,
		})))
	}

	if r.CircuitBreaker.Enabled {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "searxng",
			MaxFailures:  r.CircuitBreaker.MaxFailures,
			ResetTimeout: r.CircuitBreaker.Timeout,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "circuit breaker state changed",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})))
	}

	if r.MaxRetries > 0 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  r.MaxRetries + 1,
			InitialDelay: r.RetryDelay,
			Jitter:       true,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn(context.Background(), "retrying upstream request",
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
					observe.Field{Key: "error", Value: err},
				)
			},
		})))
	}

	opts = append(opts, resilience.WithTimeout(r.AttemptTimeout))
	return resilience.NewExecutor(opts...)
}

// ClientOptions returns the search.Client options described by cfg. The
// caller adds logger, metrics and tracer options.
func (cfg *Config) ClientOptions(exec *resilience.Executor) []search.Option {
	return []search.Option{
		search.WithHTTPClient(cfg.SearXNG.HTTPClient()),
		search.WithUserAgent(cfg.SearXNG.UserAgent),
		search.WithMaxBodySize(cfg.SearXNG.MaxBodyBytes),
		search.WithCachePolicy(cfg.Cache.CachePolicy()),
		search.WithRequestCoalescing(cfg.Search.CoalesceRequests),
		search.WithFanOutLimit(cfg.Search.FanOutLimit),
		search.WithExecutor(exec),
	}
}
