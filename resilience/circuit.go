package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls are rejected with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen means a limited number of probe calls are allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromBreakerState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in state-change callbacks.
	// Default: "upstream"
	Name string

	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of probes allowed while half-open.
	// Default: 1
	HalfOpenMaxRequests int

	// Interval clears failure counts periodically while closed.
	// Default: 0 (counts reset only on success or state change)
	Interval time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error counts toward opening the circuit.
	// Default: any non-nil error except context cancellation and deadline.
	IsFailure func(err error) bool
}

// CircuitBreaker fails fast once the protected dependency keeps failing.
type CircuitBreaker struct {
	config  CircuitBreakerConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Name == "" {
		config.Name = "upstream"
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !isContextErr(err)
		}
	}

	maxFailures := uint32(config.MaxFailures)
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: uint32(config.HalfOpenMaxRequests),
		Interval:    config.Interval,
		Timeout:     config.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !config.IsFailure(err)
		},
	}
	if config.OnStateChange != nil {
		onChange := config.OnStateChange
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			onChange(fromBreakerState(from), fromBreakerState(to))
		}
	}

	return &CircuitBreaker{
		config:  config,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Execute runs the operation through the circuit breaker.
// Rejected calls return ErrCircuitOpen without invoking op.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := cb.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	return fromBreakerState(cb.breaker.State())
}

// Config returns the circuit breaker configuration.
func (cb *CircuitBreaker) Config() CircuitBreakerConfig {
	return cb.config
}

// Metrics returns current circuit breaker counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	counts := cb.breaker.Counts()
	return CircuitBreakerMetrics{
		State:               cb.State(),
		Requests:            counts.Requests,
		ConsecutiveFailures: counts.ConsecutiveFailures,
		TotalFailures:       counts.TotalFailures,
		TotalSuccesses:      counts.TotalSuccesses,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics for the current
// generation (counters reset on every state change).
type CircuitBreakerMetrics struct {
	State               State
	Requests            uint32
	ConsecutiveFailures uint32
	TotalFailures       uint32
	TotalSuccesses      uint32
}
