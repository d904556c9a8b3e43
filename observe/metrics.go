package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricCacheLookups     = "websearch.cache.lookups"
	MetricUpstreamRequests = "websearch.upstream.requests"
	MetricUpstreamDuration = "websearch.upstream.duration_ms"
	MetricToolCalls        = "websearch.tool.calls"
	MetricToolErrors       = "websearch.tool.errors"
	MetricToolDuration     = "websearch.tool.duration_ms"
)

// Metrics records search and tool-call measurements.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCacheLookup counts one search cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordUpstreamRequest records one HTTP request to the search engine.
	// statusCode is 0 when no response was received.
	RecordUpstreamRequest(ctx context.Context, duration time.Duration, statusCode int, err error)

	// RecordToolCall records one MCP tool invocation.
	RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error)
}

type metricsImpl struct {
	cacheLookups     metric.Int64Counter
	upstreamRequests metric.Int64Counter
	upstreamDuration metric.Float64Histogram
	toolCalls        metric.Int64Counter
	toolErrors       metric.Int64Counter
	toolDuration     metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.cacheLookups, err = meter.Int64Counter(MetricCacheLookups,
		metric.WithDescription("Search cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.upstreamRequests, err = meter.Int64Counter(MetricUpstreamRequests,
		metric.WithDescription("HTTP requests sent to the search engine"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.upstreamDuration, err = meter.Float64Histogram(MetricUpstreamDuration,
		metric.WithDescription("Search engine request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.toolCalls, err = meter.Int64Counter(MetricToolCalls,
		metric.WithDescription("MCP tool invocations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.toolErrors, err = meter.Int64Counter(MetricToolErrors,
		metric.WithDescription("MCP tool invocations that failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.toolDuration, err = meter.Float64Histogram(MetricToolDuration,
		metric.WithDescription("MCP tool duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache.hit", hit)))
}

func (m *metricsImpl) RecordUpstreamRequest(ctx context.Context, duration time.Duration, statusCode int, err error) {
	opt := metric.WithAttributes(
		attribute.Int("http.response.status_code", statusCode),
		attribute.Bool("error", err != nil),
	)
	m.upstreamRequests.Add(ctx, 1, opt)
	m.upstreamDuration.Record(ctx, milliseconds(duration), opt)
}

func (m *metricsImpl) RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("tool.name", tool))

	m.toolCalls.Add(ctx, 1, opt)
	if err != nil {
		m.toolErrors.Add(ctx, 1, opt)
	}
	m.toolDuration.Record(ctx, milliseconds(duration), opt)
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) RecordCacheLookup(context.Context, bool)                           {}
func (NopMetrics) RecordUpstreamRequest(context.Context, time.Duration, int, error) {}
func (NopMetrics) RecordToolCall(context.Context, string, time.Duration, error)     {}

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = NopMetrics{}
)
