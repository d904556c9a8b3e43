package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/search"
)

// stubSearcher serves canned results and records every call.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]search.Result
	err     error
	params  []search.Params
	cleared int
	stats   cache.Stats
}

func (s *stubSearcher) Search(_ context.Context, p search.Params) ([]search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, p)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[p.Query], nil
}

func (s *stubSearcher) SearchMultiple(ctx context.Context, params []search.Params) ([][]search.Result, error) {
	out := make([][]search.Result, len(params))
	for i, p := range params {
		r, err := s.Search(ctx, p)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (s *stubSearcher) ClearCache() {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
}

func (s *stubSearcher) CacheStats() cache.Stats {
	return s.stats
}

func score(v float64) *float64 { return &v }

// numbered returns n results on distinct hosts.
func numbered(n int) []search.Result {
	out := make([]search.Result, n)
	for i := range out {
		out[i] = search.Result{
			Title:   fmt.Sprintf("result %d", i),
			URL:     fmt.Sprintf("https://site%d.example.com/page", i),
			Content: "snippet",
		}
	}
	return out
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, tool := range s.tools {
		if tool.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := tool.Handler(context.Background(), req)
		if err != nil {
			t.Fatalf("%s handler returned a protocol error: %v", name, err)
		}
		return res
	}
	t.Fatalf("tool %q not registered", name)
	return nil
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("got %d content items, want 1", len(res.Content))
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("content is %T, want text", res.Content[0])
		return ""
	}
}

func decodeSearch(t *testing.T, res *mcp.CallToolResult) searchOutput {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var out searchOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	return out
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(&stubSearcher{})

	var names []string
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	want := []string{"web_search", "multi_search", "clear_cache", "cache_stats"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Tools() = %v, want %v", names, want)
	}

	web := s.Tools()[0]
	if len(web.InputSchema.Required) != 1 || web.InputSchema.Required[0] != "query" {
		t.Errorf("web_search required = %v, want [query]", web.InputSchema.Required)
	}
	multi := s.Tools()[1]
	if len(multi.InputSchema.Required) != 1 || multi.InputSchema.Required[0] != "queries" {
		t.Errorf("multi_search required = %v, want [queries]", multi.InputSchema.Required)
	}
}

func TestWebSearch_DefaultMaxResults(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{"golang": numbered(15)}}
	s := New(stub)

	out := decodeSearch(t, callTool(t, s, "web_search", map[string]any{"query": "golang"}))

	if out.Query != "golang" {
		t.Errorf("query = %q, want golang", out.Query)
	}
	if out.ResultsCount != 10 || len(out.Results) != 10 {
		t.Errorf("got %d results (count %d), want 10", len(out.Results), out.ResultsCount)
	}
}

func TestWebSearch_MaxResults(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		args map[string]any
		want int
	}{
		{"explicit", nil, map[string]any{"query": "q", "maxResults": 3}, 3},
		{"float from JSON", nil, map[string]any{"query": "q", "maxResults": float64(4)}, 4},
		{"zero returns all", nil, map[string]any{"query": "q", "maxResults": 0}, 15},
		{"configured default", []Option{WithDefaultMaxResults(5)}, map[string]any{"query": "q"}, 5},
		{"negative default ignored", []Option{WithDefaultMaxResults(-1)}, map[string]any{"query": "q"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{results: map[string][]search.Result{"q": numbered(15)}}
			out := decodeSearch(t, callTool(t, New(stub, tt.opts...), "web_search", tt.args))
			if out.ResultsCount != tt.want {
				t.Errorf("resultsCount = %d, want %d", out.ResultsCount, tt.want)
			}
		})
	}
}

func TestWebSearch_ForwardsParams(t *testing.T) {
	stub := &stubSearcher{}
	s := New(stub)

	callTool(t, s, "web_search", map[string]any{
		"query":      "rust async",
		"language":   "de",
		"timeRange":  "week",
		"categories": []any{"it", "science"},
		"engines":    []any{"duckduckgo"},
		"pageno":     2,
		"safesearch": 0,
	})

	if len(stub.params) != 1 {
		t.Fatalf("Search called %d times, want 1", len(stub.params))
	}
	p := stub.params[0]
	if p.Query != "rust async" || p.Language != "de" || p.TimeRange != search.TimeRangeWeek || p.PageNo != 2 {
		t.Errorf("params = %+v", p)
	}
	if strings.Join(p.Categories, ",") != "it,science" || strings.Join(p.Engines, ",") != "duckduckgo" {
		t.Errorf("categories = %v, engines = %v", p.Categories, p.Engines)
	}
	if p.SafeSearch == nil || *p.SafeSearch != search.SafeSearchOff {
		t.Errorf("SafeSearch = %v, want pointer to 0", p.SafeSearch)
	}
}

func TestWebSearch_OmittedSafeSearchStaysNil(t *testing.T) {
	stub := &stubSearcher{}
	callTool(t, New(stub), "web_search", map[string]any{"query": "q"})

	if stub.params[0].SafeSearch != nil {
		t.Errorf("SafeSearch = %v, want nil", *stub.params[0].SafeSearch)
	}
}

func TestWebSearch_Filters(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{"q": {
		{Title: "a", URL: "https://en.wikipedia.org/wiki/A", Score: score(0.9)},
		{Title: "b", URL: "https://en.wikipedia.org/wiki/B", Score: score(0.8)},
		{Title: "c", URL: "https://ads.com/x", Score: score(0.95)},
		{Title: "d", URL: "https://docs.example.org/d", Score: score(0.1)},
		{Title: "e", URL: "https://blog.example.org/e"},
	}}}
	s := New(stub)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"include", map[string]any{"includeDomains": []any{"wikipedia.org"}}, []string{"a", "b"}},
		{"exclude", map[string]any{"excludeDomains": []any{"ads.com"}}, []string{"a", "b", "d", "e"}},
		{"dedupe", map[string]any{"deduplicateByDomain": true}, []string{"a", "c", "d", "e"}},
		{"min score drops unscored", map[string]any{"minScore": 0.5}, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["query"] = "q"
			out := decodeSearch(t, callTool(t, s, "web_search", tt.args))

			var got []string
			for _, r := range out.Results {
				got = append(got, r.Title)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSearch_Projection(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{"q": {
		{Title: "dated", URL: "https://a.example/1", Content: "c1", Engine: "bing", Score: score(1), PublishedDate: "2024-05-01"},
		{Title: "undated", URL: "https://b.example/2", Content: "c2", Engine: "brave"},
	}}}

	res := callTool(t, New(stub), "web_search", map[string]any{"query": "q"})

	var raw struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &raw); err != nil {
		t.Fatal(err)
	}

	if raw.Results[0]["publishedDate"] != "2024-05-01" {
		t.Errorf("publishedDate = %v", raw.Results[0]["publishedDate"])
	}
	if _, ok := raw.Results[1]["publishedDate"]; ok {
		t.Error("empty publishedDate should be omitted")
	}
	for _, key := range []string{"engine", "score", "category"} {
		if _, ok := raw.Results[0][key]; ok {
			t.Errorf("projection should drop %q", key)
		}
	}
	if !strings.Contains(resultText(t, res), "\n  \"query\"") {
		t.Error("output should be indented JSON")
	}
}

func TestWebSearch_EmptyResultsEncodeAsArray(t *testing.T) {
	res := callTool(t, New(&stubSearcher{}), "web_search", map[string]any{"query": "nothing"})

	if !strings.Contains(resultText(t, res), `"results": []`) {
		t.Errorf("output = %s, want an empty results array", resultText(t, res))
	}
}

func TestWebSearch_Errors(t *testing.T) {
	upstream := fmt.Errorf("failed to search SearXNG: %w", errors.New("connection refused"))

	tests := []struct {
		name     string
		stubErr  error
		args     map[string]any
		wantText string
	}{
		{"missing query", nil, map[string]any{}, "Error: query is required"},
		{"blank query", nil, map[string]any{"query": "   "}, "Error: query is required"},
		{"bad argument type", nil, map[string]any{"query": "q", "maxResults": "ten"}, "Error: mcpserver: invalid arguments"},
		{"upstream failure", upstream, map[string]any{"query": "q"}, "Error: failed to search SearXNG: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, New(&stubSearcher{err: tt.stubErr}), "web_search", tt.args)
			if !res.IsError {
				t.Fatal("IsError = false, want true")
			}
			if got := resultText(t, res); !strings.HasPrefix(got, tt.wantText) {
				t.Errorf("text = %q, want prefix %q", got, tt.wantText)
			}
		})
	}
}

func TestMultiSearch_OrderAndCounts(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{
		"first":  numbered(3),
		"second": numbered(1),
	}}

	res := callTool(t, New(stub), "multi_search", map[string]any{
		"queries": []any{
			map[string]any{"query": "first", "language": "en", "timeRange": "day"},
			map[string]any{"query": "second", "categories": []any{"news"}},
		},
	})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}

	var out multiSearchOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Searches) != 2 {
		t.Fatalf("got %d searches, want 2", len(out.Searches))
	}
	if out.Searches[0].Query != "first" || out.Searches[0].ResultsCount != 3 {
		t.Errorf("searches[0] = %+v", out.Searches[0])
	}
	if out.Searches[1].Query != "second" || out.Searches[1].ResultsCount != 1 {
		t.Errorf("searches[1] = %+v", out.Searches[1])
	}

	if stub.params[0].Language != "en" || stub.params[0].TimeRange != search.TimeRangeDay {
		t.Errorf("params[0] = %+v", stub.params[0])
	}
	if strings.Join(stub.params[1].Categories, ",") != "news" {
		t.Errorf("params[1].Categories = %v", stub.params[1].Categories)
	}
}

func TestMultiSearch_NoDefaultMaxResults(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{"q": numbered(15)}}

	res := callTool(t, New(stub), "multi_search", map[string]any{
		"queries": []any{map[string]any{"query": "q"}},
	})

	var out multiSearchOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Searches[0].ResultsCount != 15 {
		t.Errorf("resultsCount = %d, want all 15", out.Searches[0].ResultsCount)
	}
}

func TestOverlay(t *testing.T) {
	three, five := 3, 5
	yes := true

	tests := []struct {
		name   string
		query  queryArgs
		global *globalFilters
		want   search.FilterOptions
	}{
		{"no globals", queryArgs{MaxResults: &three}, nil, search.FilterOptions{MaxResults: 3}},
		{"global max wins", queryArgs{MaxResults: &three}, &globalFilters{MaxResults: &five}, search.FilterOptions{MaxResults: 5}},
		{"unset global max keeps query max", queryArgs{MaxResults: &three}, &globalFilters{DeduplicateByDomain: &yes},
			search.FilterOptions{MaxResults: 3, DeduplicateByDomain: true}},
		{"domains from globals", queryArgs{}, &globalFilters{IncludeDomains: []string{"go.dev"}, ExcludeDomains: []string{"ads.com"}},
			search.FilterOptions{IncludeDomains: []string{"go.dev"}, ExcludeDomains: []string{"ads.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlay(tt.query, tt.global)
			if got.MaxResults != tt.want.MaxResults || got.DeduplicateByDomain != tt.want.DeduplicateByDomain {
				t.Errorf("overlay() = %+v, want %+v", got, tt.want)
			}
			if strings.Join(got.IncludeDomains, ",") != strings.Join(tt.want.IncludeDomains, ",") ||
				strings.Join(got.ExcludeDomains, ",") != strings.Join(tt.want.ExcludeDomains, ",") {
				t.Errorf("overlay() domains = %v / %v, want %v / %v",
					got.IncludeDomains, got.ExcludeDomains, tt.want.IncludeDomains, tt.want.ExcludeDomains)
			}
		})
	}
}

func TestMultiSearch_GlobalFilters(t *testing.T) {
	stub := &stubSearcher{results: map[string][]search.Result{
		"a": {
			{Title: "keep", URL: "https://go.dev/doc"},
			{Title: "drop", URL: "https://ads.com/x"},
			{Title: "keep2", URL: "https://go.dev/blog"},
		},
	}}

	res := callTool(t, New(stub), "multi_search", map[string]any{
		"queries": []any{map[string]any{"query": "a", "maxResults": 10}},
		"globalFilters": map[string]any{
			"excludeDomains": []any{"ads.com"},
			"maxResults":     1,
		},
	})

	var out multiSearchOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Searches[0].ResultsCount != 1 || out.Searches[0].Results[0].Title != "keep" {
		t.Errorf("searches[0] = %+v", out.Searches[0])
	}
}

func TestMultiSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		stubErr  error
		args     map[string]any
		wantText string
	}{
		{"no queries", nil, map[string]any{}, "Error: queries must contain at least one query"},
		{"empty list", nil, map[string]any{"queries": []any{}}, "Error: queries must contain at least one query"},
		{"blank entry", nil, map[string]any{"queries": []any{
			map[string]any{"query": "ok"},
			map[string]any{"query": ""},
		}}, "Error: queries[1]: query is required"},
		{"upstream failure", errors.New("boom"), map[string]any{"queries": []any{
			map[string]any{"query": "ok"},
		}}, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, New(&stubSearcher{err: tt.stubErr}), "multi_search", tt.args)
			if !res.IsError {
				t.Fatal("IsError = false, want true")
			}
			if got := resultText(t, res); got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestClearCache(t *testing.T) {
	stub := &stubSearcher{}
	res := callTool(t, New(stub), "clear_cache", nil)

	if res.IsError {
		t.Fatal("clear_cache should not fail")
	}
	if got := resultText(t, res); got != "Cache cleared successfully" {
		t.Errorf("text = %q", got)
	}
	if stub.cleared != 1 {
		t.Errorf("ClearCache called %d times, want 1", stub.cleared)
	}
}

func TestCacheStats(t *testing.T) {
	stub := &stubSearcher{stats: cache.Stats{Size: 2, Keys: []string{"cache:search:a", "cache:search:b"}}}
	res := callTool(t, New(stub), "cache_stats", nil)

	var got cache.Stats
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Size != 2 || len(got.Keys) != 2 || got.Keys[1] != "cache:search:b" {
		t.Errorf("cache_stats = %+v", got)
	}
}

func TestMiddlewareLogsToolCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)
	s := New(&stubSearcher{err: errors.New("upstream down")},
		WithMiddleware(observe.NewMiddleware(nil, nil, logger)))

	callTool(t, s, "clear_cache", nil)
	callTool(t, s, "web_search", map[string]any{"query": "q"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}

	var ok, failed map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ok); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &failed); err != nil {
		t.Fatal(err)
	}

	if ok["level"] != "info" || ok["tool"] != "clear_cache" {
		t.Errorf("success entry = %v", ok)
	}
	if failed["level"] != "error" || failed["tool"] != "web_search" || failed["error"] != "upstream down" {
		t.Errorf("failure entry = %v", failed)
	}
}
