// Package resilience protects calls to the upstream search engine.
//
// Each pattern wraps a func(context.Context) error and can be used alone or
// composed with Executor:
//
//   - RateLimiter: token bucket (golang.org/x/time/rate) that rejects or
//     waits when upstream traffic exceeds the configured rate.
//   - Bulkhead: caps concurrent upstream requests with a weighted semaphore.
//   - CircuitBreaker: fails fast after consecutive upstream failures
//     (github.com/sony/gobreaker/v2).
//   - Retry: re-runs transient failures with backoff.
//   - Timeout: bounds a single attempt with a context deadline.
//
// # Usage
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	        Rate:  5,
//	        Burst: 5,
//	        WaitOnLimit: true,
//	    })),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures: 5,
//	    })),
//	    resilience.WithTimeout(15*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// An Executor with no options calls the operation directly.
package resilience
