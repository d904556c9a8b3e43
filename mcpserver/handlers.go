package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/websearch/search"
)

type webSearchArgs struct {
	Query               string   `json:"query"`
	MaxResults          *int     `json:"maxResults"`
	Language            string   `json:"language"`
	TimeRange           string   `json:"timeRange"`
	Categories          []string `json:"categories"`
	Engines             []string `json:"engines"`
	PageNo              int      `json:"pageno"`
	SafeSearch          *int     `json:"safesearch"`
	IncludeDomains      []string `json:"includeDomains"`
	ExcludeDomains      []string `json:"excludeDomains"`
	MinScore            *float64 `json:"minScore"`
	DeduplicateByDomain bool     `json:"deduplicateByDomain"`
}

type queryArgs struct {
	Query      string   `json:"query"`
	MaxResults *int     `json:"maxResults"`
	Language   string   `json:"language"`
	TimeRange  string   `json:"timeRange"`
	Categories []string `json:"categories"`
}

// globalFilters uses pointers so an absent field leaves the per-query
// filter alone.
type globalFilters struct {
	IncludeDomains      []string `json:"includeDomains"`
	ExcludeDomains      []string `json:"excludeDomains"`
	DeduplicateByDomain *bool    `json:"deduplicateByDomain"`
	MinScore            *float64 `json:"minScore"`
	MaxResults          *int     `json:"maxResults"`
}

type multiSearchArgs struct {
	Queries       []queryArgs    `json:"queries"`
	GlobalFilters *globalFilters `json:"globalFilters"`
}

type resultView struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

type searchOutput struct {
	Query        string       `json:"query"`
	ResultsCount int          `json:"resultsCount"`
	Results      []resultView `json:"results"`
}

type multiSearchOutput struct {
	Searches []searchOutput `json:"searches"`
}

func (s *Server) webSearch(ctx context.Context, _ string, raw map[string]any) (any, error) {
	var args webSearchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, ErrMissingQuery
	}

	params := search.Params{
		Query:      args.Query,
		Categories: args.Categories,
		Engines:    args.Engines,
		Language:   args.Language,
		PageNo:     args.PageNo,
		TimeRange:  search.TimeRange(args.TimeRange),
	}
	if args.SafeSearch != nil {
		params.SafeSearch = search.SafeSearch(*args.SafeSearch).Ptr()
	}

	results, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	maxResults := s.defaultMax
	if args.MaxResults != nil {
		maxResults = *args.MaxResults
	}
	filtered := search.Filter(results, search.FilterOptions{
		IncludeDomains:      args.IncludeDomains,
		ExcludeDomains:      args.ExcludeDomains,
		MinScore:            args.MinScore,
		MaxResults:          maxResults,
		DeduplicateByDomain: args.DeduplicateByDomain,
	})

	return encode(project(args.Query, filtered))
}

func (s *Server) multiSearch(ctx context.Context, _ string, raw map[string]any) (any, error) {
	var args multiSearchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Queries) == 0 {
		return nil, ErrNoQueries
	}

	params := make([]search.Params, len(args.Queries))
	for i, q := range args.Queries {
		if strings.TrimSpace(q.Query) == "" {
			return nil, fmt.Errorf("queries[%d]: %w", i, ErrMissingQuery)
		}
		params[i] = search.Params{
			Query:      q.Query,
			Categories: q.Categories,
			Language:   q.Language,
			TimeRange:  search.TimeRange(q.TimeRange),
		}
	}

	all, err := s.searcher.SearchMultiple(ctx, params)
	if err != nil {
		return nil, err
	}

	out := multiSearchOutput{Searches: make([]searchOutput, len(all))}
	for i, results := range all {
		opts := overlay(args.Queries[i], args.GlobalFilters)
		out.Searches[i] = project(args.Queries[i].Query, search.Filter(results, opts))
	}
	return encode(out)
}

func (s *Server) clearCache(context.Context, string, map[string]any) (any, error) {
	s.searcher.ClearCache()
	return "Cache cleared successfully", nil
}

func (s *Server) cacheStats(context.Context, string, map[string]any) (any, error) {
	return encode(s.searcher.CacheStats())
}

// overlay builds the filter for one multi_search query: the query's own
// maxResults, with every field set in g taking precedence.
func overlay(q queryArgs, g *globalFilters) search.FilterOptions {
	var opts search.FilterOptions
	if q.MaxResults != nil {
		opts.MaxResults = *q.MaxResults
	}
	if g == nil {
		return opts
	}

	if g.IncludeDomains != nil {
		opts.IncludeDomains = g.IncludeDomains
	}
	if g.ExcludeDomains != nil {
		opts.ExcludeDomains = g.ExcludeDomains
	}
	if g.DeduplicateByDomain != nil {
		opts.DeduplicateByDomain = *g.DeduplicateByDomain
	}
	if g.MinScore != nil {
		opts.MinScore = g.MinScore
	}
	if g.MaxResults != nil {
		opts.MaxResults = *g.MaxResults
	}
	return opts
}

func project(query string, results []search.Result) searchOutput {
	views := make([]resultView, len(results))
	for i, r := range results {
		views[i] = resultView{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
		}
	}
	return searchOutput{Query: query, ResultsCount: len(views), Results: views}
}

// decodeArgs converts loosely typed tool arguments into dst through JSON.
func decodeArgs(raw map[string]any, dst any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

func encode(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
