package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeSearXNG is an httptest server speaking the SearXNG JSON API.
type fakeSearXNG struct {
	*httptest.Server

	requests atomic.Int64

	mu      sync.Mutex
	queries []url.Values
	headers []http.Header
}

// newFakeSearXNG starts a server. A nil handler answers every /search with
// resultsFor(q).
func newFakeSearXNG(t testing.TB, handler http.HandlerFunc) *fakeSearXNG {
	t.Helper()
	f := &fakeSearXNG{}
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			writeResults(w, resultsFor(r.URL.Query().Get("q")))
		}
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			f.requests.Add(1)
			f.mu.Lock()
			f.queries = append(f.queries, r.URL.Query())
			f.headers = append(f.headers, r.Header.Clone())
			f.mu.Unlock()
		}
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSearXNG) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return nil
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeSearXNG) lastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return nil
	}
	return f.headers[len(f.headers)-1]
}

func resultsFor(q string) []Result {
	return []Result{
		{Title: q + " one", URL: "https://example.com/" + q, Content: "first"},
		{Title: q + " two", URL: "https://example.org/" + q, Content: "second"},
	}
}

func writeResults(w http.ResponseWriter, results []Result) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		Query:           "",
		NumberOfResults: float64(len(results)),
		Results:         results,
	})
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(baseURL, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func score(v float64) *float64 {
	return &v
}
