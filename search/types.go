package search

import "encoding/json"

// TimeRange restricts results to a recent period.
type TimeRange string

const (
	TimeRangeAny   TimeRange = ""
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// Valid reports whether r is a time range SearXNG accepts.
func (r TimeRange) Valid() bool {
	switch r {
	case TimeRangeAny, TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return true
	}
	return false
}

// SafeSearch is the SearXNG safe-search level.
type SafeSearch int

const (
	SafeSearchOff      SafeSearch = 0
	SafeSearchModerate SafeSearch = 1
	SafeSearchStrict   SafeSearch = 2
)

// Ptr returns a pointer to s, for use in Params.SafeSearch.
func (s SafeSearch) Ptr() *SafeSearch {
	return &s
}

// Params describes one search. Zero-valued fields are not sent upstream.
//
// The JSON encoding is the cache key input, so unset and zero fields are
// omitted alike.
type Params struct {
	Query      string      `json:"query"`
	Categories []string    `json:"categories,omitempty"`
	Engines    []string    `json:"engines,omitempty"`
	Language   string      `json:"language,omitempty"`
	PageNo     int         `json:"pageno,omitempty"`
	TimeRange  TimeRange   `json:"time_range,omitempty"`
	Format     string      `json:"format,omitempty"`
	SafeSearch *SafeSearch `json:"safesearch,omitempty"`
}

// Result is one search hit. Results returned by Client are shared with the
// cache and must be treated as read-only.
type Result struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Content       string   `json:"content"`
	Engine        string   `json:"engine,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Category      string   `json:"category,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
}

// Response is the SearXNG JSON response body.
type Response struct {
	Query               string            `json:"query"`
	NumberOfResults     float64           `json:"number_of_results"`
	Results             []Result          `json:"results"`
	Answers             []json.RawMessage `json:"answers,omitempty"`
	Corrections         []json.RawMessage `json:"corrections,omitempty"`
	Infoboxes           []json.RawMessage `json:"infoboxes,omitempty"`
	Suggestions         []json.RawMessage `json:"suggestions,omitempty"`
	UnresponsiveEngines []json.RawMessage `json:"unresponsive_engines,omitempty"`
}

// FilterOptions controls Filter. Each stage is skipped when its field is
// unset: empty lists, nil MinScore, false DeduplicateByDomain, and
// MaxResults <= 0.
type FilterOptions struct {
	IncludeDomains      []string `json:"includeDomains,omitempty"`
	ExcludeDomains      []string `json:"excludeDomains,omitempty"`
	MinScore            *float64 `json:"minScore,omitempty"`
	MaxResults          int      `json:"maxResults,omitempty"`
	DeduplicateByDomain bool     `json:"deduplicateByDomain,omitempty"`
}
