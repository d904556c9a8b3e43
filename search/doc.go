// Package search is a SearXNG client with response caching, concurrent
// multi-query fan-out, and a result filter pipeline.
//
// Client.Search builds the upstream query from the non-empty fields of
// Params, serves repeated identical searches from a TTL cache, and reports
// upstream failures as *RequestError (non-2xx status) or *SearchError
// (transport, decode, or validation failure). Client.SearchMultiple runs
// searches concurrently and fails as a whole if any one fails.
//
// Filter is a pure function applied by callers after a search:
//
//	results, err := client.Search(ctx, search.Params{Query: "golang generics"})
//	if err != nil {
//	    return err
//	}
//	results = search.Filter(results, search.FilterOptions{
//	    ExcludeDomains:      []string{"pinterest.com"},
//	    DeduplicateByDomain: true,
//	    MaxResults:          5,
//	})
package search
