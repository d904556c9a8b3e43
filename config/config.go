package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/search"
)

// Environment variables read by ApplyEnvOverrides and the command.
const (
	EnvConfigPath       = "WEBSEARCH_CONFIG"
	EnvSearXNGURL       = "WEBSEARCH_SEARXNG_URL"
	EnvSearXNGURLCompat = "SEARXNG_URL"
	EnvCacheTTL         = "WEBSEARCH_CACHE_TTL"
	EnvLogLevel         = "WEBSEARCH_LOG_LEVEL"
	EnvHealthAddr       = "WEBSEARCH_HEALTH_ADDR"
	EnvCoalesce         = "WEBSEARCH_COALESCE_REQUESTS"
)

// Config is the complete server configuration.
type Config struct {
	SearXNG    SearXNGConfig    `yaml:"searxng"`
	Cache      CacheConfig      `yaml:"cache"`
	Search     SearchConfig     `yaml:"search"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Health     HealthConfig     `yaml:"health"`
	Observe    observe.Config   `yaml:"observe"`
}

// SearXNGConfig describes the upstream instance.
type SearXNGConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// CacheConfig maps onto cache.Policy.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	MaxTTL        time.Duration `yaml:"max_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// SearchConfig tunes the search client and MCP tools.
type SearchConfig struct {
	DefaultMaxResults int  `yaml:"default_max_results"`
	FanOutLimit       int  `yaml:"fan_out_limit"`
	CoalesceRequests  bool `yaml:"coalesce_requests"`
}

// ResilienceConfig protects upstream calls. Zero values disable each pattern.
type ResilienceConfig struct {
	RateLimit      float64              `yaml:"rate_limit"`
	RateBurst      int                  `yaml:"rate_burst"`
	MaxConcurrent  int                  `yaml:"max_concurrent"`
	MaxWait        time.Duration        `yaml:"max_wait"`
	MaxRetries     int                  `yaml:"max_retries"`
	RetryDelay     time.Duration        `yaml:"retry_delay"`
	AttemptTimeout time.Duration        `yaml:"attempt_timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig configures the upstream circuit breaker.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// HealthConfig configures the optional HTTP side listener.
type HealthConfig struct {
	// Addr is the listen address. Empty disables the listener.
	Addr string `yaml:"addr"`

	// CacheThreshold degrades the cache check at this many entries.
	// Zero never degrades.
	CacheThreshold int `yaml:"cache_threshold"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		SearXNG: SearXNGConfig{
			URL:          search.DefaultBaseURL,
			Timeout:      15 * time.Second,
			UserAgent:    search.DefaultUserAgent,
			MaxBodyBytes: search.DefaultMaxBodySize,
		},
		Cache: CacheConfig{
			TTL:           5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Search: SearchConfig{
			DefaultMaxResults: 10,
		},
		Resilience: ResilienceConfig{
			RateBurst:  5,
			MaxWait:    5 * time.Second,
			RetryDelay: 200 * time.Millisecond,
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Observe: observe.Config{
			ServiceName: "websearch-mcp",
			Version:     "1.0.0",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load resolves the configuration from defaults, the file at path (skipped
// when path is empty), and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg after expanding ${VAR} references in string
// scalars. Unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if len(root.Content) == 0 {
		return nil
	}

	if err := expandNode(&root); err != nil {
		return fmt.Errorf("expand config: %w", err)
	}

	// Re-encode so the strict decoder sees the expanded document.
	expanded, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("expand config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides maps WEBSEARCH_* variables onto cfg. SEARXNG_URL is
// honored when WEBSEARCH_SEARXNG_URL is unset.
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvSearXNGURL); v != "" {
		cfg.SearXNG.URL = v
	} else if v := os.Getenv(EnvSearXNGURLCompat); v != "" {
		cfg.SearXNG.URL = v
	}

	if v := os.Getenv(EnvCacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		cfg.Cache.TTL = d
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Observe.Logging.Level = v
	}

	if v := os.Getenv(EnvHealthAddr); v != "" {
		cfg.Health.Addr = v
	}

	if v := os.Getenv(EnvCoalesce); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCoalesce, err)
		}
		cfg.Search.CoalesceRequests = b
	}
	return nil
}
