package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/websearch/observe"
)

// DefaultCheckTimeout bounds one CheckAll run.
const DefaultCheckTimeout = 10 * time.Second

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the deadline shared by all checks of one run.
	// Default: 10 seconds
	Timeout time.Duration

	// Sequential runs checks one after another instead of concurrently.
	Sequential bool

	// Logger receives a warning for every check that is not healthy.
	// Default: observe.NopLogger
	Logger observe.Logger
}

// Aggregator runs a set of named checkers and folds their results.
type Aggregator struct {
	config AggregatorConfig
	logger observe.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an Aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCheckTimeout
	}

	var logger observe.Logger = observe.NopLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Aggregator{
		config:   cfg,
		logger:   logger,
		checkers: make(map[string]Checker),
	}
}

// Register adds checker under name, replacing any previous checker with that
// name while keeping its position.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the checker registered under name.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.runCheck(ctx, name, checker), nil
}

// CheckAll runs every registered checker and returns results keyed by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	names := slices.Clone(a.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(names))
	if len(names) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if a.config.Sequential {
		for i, name := range names {
			results[name] = a.runCheck(ctx, name, checkers[i])
		}
		return results
	}

	out := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Go(func() {
			out[i] = a.runCheck(ctx, name, checkers[i])
		})
	}
	wg.Wait()

	for i, name := range names {
		results[name] = out[i]
	}
	return results
}

// OverallStatus folds results into the most severe status. An empty set is
// Healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	status := StatusHealthy
	for _, r := range results {
		status = status.Worse(r.Status)
	}
	return status
}

func (a *Aggregator) runCheck(ctx context.Context, name string, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		resultCh <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		result = Result{
			Status:  StatusUnhealthy,
			Message: "check timed out",
			Error:   ErrCheckTimeout,
		}
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}

	if result.Status != StatusHealthy {
		fields := []observe.Field{
			{Key: "check", Value: name},
			{Key: "status", Value: result.Status.String()},
			{Key: "message", Value: result.Message},
		}
		if result.Error != nil {
			fields = append(fields, observe.Field{Key: "error", Value: result.Error})
		}
		a.logger.Warn(ctx, "health check not healthy", fields...)
	}
	return result
}

// Checker exposes the aggregator as a single Checker named "aggregate".
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", func(ctx context.Context) Result {
		results := a.CheckAll(ctx)
		status := a.OverallStatus(results)

		details := make(map[string]any, len(results))
		for name, r := range results {
			details[name] = r.Status.String()
		}

		var message string
		switch status {
		case StatusHealthy:
			message = "all checks passed"
		case StatusDegraded:
			message = "some checks degraded"
		default:
			message = "some checks failed"
		}

		return Result{Status: status, Message: message, Details: details, Timestamp: time.Now()}
	})
}
