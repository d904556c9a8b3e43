package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Validate checks p before it is sent upstream. Errors wrap ErrInvalidParams.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidParams)
	}
	if !p.TimeRange.Valid() {
		return fmt.Errorf("%w: unknown time range %q", ErrInvalidParams, p.TimeRange)
	}
	if p.PageNo < 0 {
		return fmt.Errorf("%w: pageno must be >= 0, got %d", ErrInvalidParams, p.PageNo)
	}
	if p.SafeSearch != nil && (*p.SafeSearch < SafeSearchOff || *p.SafeSearch > SafeSearchStrict) {
		return fmt.Errorf("%w: safesearch must be 0, 1 or 2, got %d", ErrInvalidParams, *p.SafeSearch)
	}
	switch p.Format {
	case "", "json", "html":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidParams, p.Format)
	}
	return nil
}

// Values returns the upstream query string values for p.
//
// format=json is always sent because the client decodes JSON; p.Format only
// distinguishes cache entries. Other fields are sent only when set, and a
// non-nil SafeSearch is sent even when it is 0.
func (p Params) Values() url.Values {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("format", "json")

	if len(p.Categories) > 0 {
		q.Set("categories", strings.Join(p.Categories, ","))
	}
	if len(p.Engines) > 0 {
		q.Set("engines", strings.Join(p.Engines, ","))
	}
	if p.Language != "" {
		q.Set("language", p.Language)
	}
	if p.PageNo > 0 {
		q.Set("pageno", strconv.Itoa(p.PageNo))
	}
	if p.TimeRange != TimeRangeAny {
		q.Set("time_range", string(p.TimeRange))
	}
	if p.SafeSearch != nil {
		q.Set("safesearch", strconv.Itoa(int(*p.SafeSearch)))
	}
	return q
}
