package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/resilience"
	"github.com/jonwraymond/websearch/search"
)

func newUpstream(t *testing.T, status int) *search.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	client, err := search.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestUpstreamChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    Status
		message string
		wantErr bool
	}{
		{"reachable", http.StatusOK, StatusHealthy, "upstream reachable", false},
		{"rate limited", http.StatusTooManyRequests, StatusDegraded, "upstream rate limited", true},
		{"server error", http.StatusBadGateway, StatusUnhealthy, "upstream unreachable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newUpstream(t, tt.status)
			checker := NewUpstreamChecker("searxng", client)

			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if result.Message != tt.message {
				t.Errorf("Message = %q, want %q", result.Message, tt.message)
			}
			if (result.Error != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if result.Details["base_url"] != client.BaseURL() {
				t.Errorf("Details[base_url] = %v, want %s", result.Details["base_url"], client.BaseURL())
			}
		})
	}
}

func TestUpstreamChecker_RequestErrorExposed(t *testing.T) {
	client := newUpstream(t, http.StatusServiceUnavailable)
	result := NewUpstreamChecker("searxng", client).Check(context.Background())

	var reqErr *search.RequestError
	if !errors.As(result.Error, &reqErr) {
		t.Fatalf("Error = %v, want *search.RequestError", result.Error)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", reqErr.StatusCode)
	}
}

func TestUpstreamChecker_CancelledContext(t *testing.T) {
	pinged := false
	pinger := pingFunc(func(context.Context) error {
		pinged = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewUpstreamChecker("searxng", pinger).Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if pinged {
		t.Error("Ping should not run with a cancelled context")
	}
	if result.Details != nil {
		t.Errorf("Details = %v, want nil for a pinger without BaseURL", result.Details)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCircuitChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Hour,
	})
	checker := NewCircuitChecker(cb)

	if got := checker.Check(context.Background()); got.Status != StatusHealthy {
		t.Fatalf("closed breaker Status = %v, want healthy", got.Status)
	}

	_ = cb.Execute(context.Background(), func(context.Context) error {
		return errors.New("boom")
	})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("open breaker Status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, resilience.ErrCircuitOpen) {
		t.Errorf("Error = %v, want ErrCircuitOpen", result.Error)
	}
	if result.Details["state"] != resilience.StateOpen.String() {
		t.Errorf("Details[state] = %v, want %s", result.Details["state"], resilience.StateOpen)
	}
}

type fixedState resilience.State

func (s fixedState) State() resilience.State { return resilience.State(s) }

func TestCircuitChecker_HalfOpenDegrades(t *testing.T) {
	result := NewCircuitChecker(fixedState(resilience.StateHalfOpen)).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
}

type fixedStats cache.Stats

func (s fixedStats) CacheStats() cache.Stats { return cache.Stats(s) }

func TestCacheChecker(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		threshold int
		want      Status
	}{
		{"no threshold", 50000, 0, StatusHealthy},
		{"below threshold", 9, 10, StatusHealthy},
		{"at threshold", 10, 10, StatusDegraded},
		{"above threshold", 11, 10, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCacheChecker(fixedStats{Size: tt.size}, tt.threshold)
			result := checker.Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if result.Details["size"] != tt.size {
				t.Errorf("Details[size] = %v, want %d", result.Details["size"], tt.size)
			}
			if tt.want == StatusDegraded && !errors.Is(result.Error, ErrCacheFull) {
				t.Errorf("Error = %v, want ErrCacheFull", result.Error)
			}
		})
	}
}

func TestCacheChecker_ReadsClientCache(t *testing.T) {
	client := newUpstream(t, http.StatusOK)
	result := NewCacheChecker(client, 0).Check(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
	if result.Message != "cache holds 0 entries" {
		t.Errorf("Message = %q", result.Message)
	}
}
