package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature of an observable tool handler.
type ExecuteFunc func(ctx context.Context, tool string, args map[string]any) (any, error)

// Middleware wraps tool handlers with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap returns a function safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: args and results pass through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components fall back to no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap instruments fn.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, tool string, args map[string]any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, ToolSpan(tool))

		start := time.Now()
		result, err := fn(ctx, tool, args)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordToolCall(ctx, tool, duration, err)

		logger := m.logger.With(Field{Key: "tool", Value: tool})
		fields := []Field{
			{Key: "duration_ms", Value: milliseconds(duration)},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "tool call failed", fields...)
		} else {
			logger.Info(ctx, "tool call completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver builds a Middleware on the observer's providers.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
