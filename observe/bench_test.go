package observe

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "search completed", Field{Key: "results", Value: i})
	}
}

func BenchmarkLogger_ScopedWithRedaction(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard).With(
		Field{Key: "tool", Value: "web_search"},
		Field{Key: "authorization", Value: "Bearer abc"},
	)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "tool call completed", Field{Key: "duration_ms", Value: 1.5})
	}
}

// Filtered levels should cost close to nothing.
func BenchmarkLogger_LevelFiltered(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "cache hit", Field{Key: "key", Value: "cache:search:0123456789abcdef"})
	}
}

func BenchmarkMiddleware_Wrap(b *testing.B) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	mw := NewMiddleware(NopTracer(), metrics, NewLoggerWithWriter("info", io.Discard))
	fn := mw.Wrap(func(context.Context, string, map[string]any) (any, error) {
		return "ok", nil
	})
	ctx := context.Background()
	args := map[string]any{"query": "golang"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, "web_search", args)
	}
}

func BenchmarkMetrics_RecordUpstreamRequest(b *testing.B) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	failure := errors.New("boom")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			metrics.RecordUpstreamRequest(ctx, time.Millisecond, 502, failure)
		} else {
			metrics.RecordUpstreamRequest(ctx, time.Millisecond, 200, nil)
		}
	}
}
