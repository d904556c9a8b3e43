package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg and returns a *ValidationError listing every problem.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateSearXNG(cfg, ve)
	validateCache(cfg, ve)
	validateSearch(cfg, ve)
	validateResilience(cfg, ve)
	validateHealth(cfg, ve)
	if err := cfg.Observe.Validate(); err != nil {
		ve.Add("observe: %v", err)
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateSearXNG(cfg *Config, ve *ValidationError) {
	u, err := url.Parse(cfg.SearXNG.URL)
	switch {
	case cfg.SearXNG.URL == "":
		ve.Add("searxng.url must not be empty")
	case err != nil:
		ve.Add("searxng.url is invalid: %v", err)
	case u.Scheme != "http" && u.Scheme != "https":
		ve.Add("searxng.url must use http or https, got %q", u.Scheme)
	case u.Host == "":
		ve.Add("searxng.url must include a host")
	}

	if cfg.SearXNG.Timeout < 0 {
		ve.Add("searxng.timeout must be >= 0")
	}
	if cfg.SearXNG.MaxBodyBytes <= 0 {
		ve.Add("searxng.max_body_bytes must be > 0")
	}
}

func validateCache(cfg *Config, ve *ValidationError) {
	c := cfg.Cache
	if c.TTL < 0 {
		ve.Add("cache.ttl must be >= 0")
	}
	if c.MaxTTL < 0 {
		ve.Add("cache.max_ttl must be >= 0")
	}
	if c.MaxTTL > 0 && c.TTL > c.MaxTTL {
		ve.Add("cache.ttl (%s) must not exceed cache.max_ttl (%s)", c.TTL, c.MaxTTL)
	}
	if c.SweepInterval < 0 {
		ve.Add("cache.sweep_interval must be >= 0")
	}
}

func validateSearch(cfg *Config, ve *ValidationError) {
	if cfg.Search.DefaultMaxResults < 0 {
		ve.Add("search.default_max_results must be >= 0")
	}
	if cfg.Search.FanOutLimit < 0 {
		ve.Add("search.fan_out_limit must be >= 0")
	}
}

func validateResilience(cfg *Config, ve *ValidationError) {
	r := cfg.Resilience
	if r.RateLimit < 0 {
		ve.Add("resilience.rate_limit must be >= 0")
	}
	if r.RateLimit > 0 && r.RateBurst <= 0 {
		ve.Add("resilience.rate_burst must be > 0 when rate_limit is set")
	}
	if r.MaxConcurrent < 0 {
		ve.Add("resilience.max_concurrent must be >= 0")
	}
	if r.MaxWait < 0 {
		ve.Add("resilience.max_wait must be >= 0")
	}
	if r.MaxRetries < 0 {
		ve.Add("resilience.max_retries must be >= 0")
	}
	if r.RetryDelay < 0 {
		ve.Add("resilience.retry_delay must be >= 0")
	}
	if r.AttemptTimeout < 0 {
		ve.Add("resilience.attempt_timeout must be >= 0")
	}
	if r.CircuitBreaker.Enabled {
		if r.CircuitBreaker.MaxFailures <= 0 {
			ve.Add("resilience.circuit_breaker.max_failures must be > 0 when enabled")
		}
		if r.CircuitBreaker.Timeout <= 0 {
			ve.Add("resilience.circuit_breaker.timeout must be > 0 when enabled")
		}
	}
}

func validateHealth(cfg *Config, ve *ValidationError) {
	if cfg.Health.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Health.Addr); err != nil {
			ve.Add("health.addr %q is invalid: %v", cfg.Health.Addr, err)
		}
	}
	if cfg.Health.CacheThreshold < 0 {
		ve.Add("health.cache_threshold must be >= 0")
	}
}
