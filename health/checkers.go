package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/resilience"
	"github.com/jonwraymond/websearch/search"
)

// Pinger probes an upstream. *search.Client implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker reports whether the SearXNG instance answers its health
// endpoint.
type UpstreamChecker struct {
	name   string
	pinger Pinger
}

// NewUpstreamChecker creates an UpstreamChecker named name.
func NewUpstreamChecker(name string, p Pinger) *UpstreamChecker {
	return &UpstreamChecker{name: name, pinger: p}
}

// Name returns the checker name.
func (u *UpstreamChecker) Name() string {
	return u.name
}

// Check pings the upstream. A 429 answer is Degraded; every other failure is
// Unhealthy.
func (u *UpstreamChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var details map[string]any
	if b, ok := u.pinger.(interface{ BaseURL() string }); ok {
		details = map[string]any{"base_url": b.BaseURL()}
	}

	err := u.pinger.Ping(ctx)
	if err == nil {
		return Healthy("upstream reachable").WithDetails(details)
	}

	var reqErr *search.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusTooManyRequests {
		r := Degraded("upstream rate limited").WithDetails(details)
		r.Error = err
		return r
	}
	return Unhealthy("upstream unreachable", err).WithDetails(details)
}

// BreakerStater exposes a circuit breaker state. *resilience.CircuitBreaker
// implements it.
type BreakerStater interface {
	State() resilience.State
}

// CircuitChecker maps circuit breaker state to health: closed is Healthy,
// half-open Degraded, open Unhealthy.
type CircuitChecker struct {
	breaker BreakerStater
}

// NewCircuitChecker creates a CircuitChecker for b.
func NewCircuitChecker(b BreakerStater) *CircuitChecker {
	return &CircuitChecker{breaker: b}
}

// Name returns "circuit".
func (c *CircuitChecker) Name() string {
	return "circuit"
}

// Check reads the breaker state.
func (c *CircuitChecker) Check(_ context.Context) Result {
	state := c.breaker.State()
	details := map[string]any{"state": state.String()}

	switch state {
	case resilience.StateClosed:
		return Healthy("circuit closed").WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open").WithDetails(details)
	default:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	}
}

// StatsSource reports cache contents. *search.Client implements it.
type StatsSource interface {
	CacheStats() cache.Stats
}

// CacheChecker reports the result cache size. With a positive threshold the
// check is Degraded once the entry count reaches it.
type CacheChecker struct {
	source    StatsSource
	threshold int
}

// NewCacheChecker creates a CacheChecker. A threshold <= 0 never degrades.
func NewCacheChecker(src StatsSource, threshold int) *CacheChecker {
	return &CacheChecker{source: src, threshold: threshold}
}

// Name returns "cache".
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check snapshots the cache.
func (c *CacheChecker) Check(_ context.Context) Result {
	size := c.source.CacheStats().Size
	details := map[string]any{"size": size}
	if c.threshold > 0 {
		details["threshold"] = c.threshold
	}

	if c.threshold > 0 && size >= c.threshold {
		r := Degraded(fmt.Sprintf("cache holds %d entries", size)).WithDetails(details)
		r.Error = ErrCacheFull
		return r
	}
	return Healthy(fmt.Sprintf("cache holds %d entries", size)).WithDetails(details)
}

var (
	_ Checker = (*UpstreamChecker)(nil)
	_ Checker = (*CircuitChecker)(nil)
	_ Checker = (*CacheChecker)(nil)
	_ Checker = (*CheckerFunc)(nil)

	_ Pinger        = (*search.Client)(nil)
	_ StatsSource   = (*search.Client)(nil)
	_ BreakerStater = (*resilience.CircuitBreaker)(nil)
)
