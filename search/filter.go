package search

import (
	"net/url"
	"strings"
)

// Hostname returns the lower-cased host of rawURL without port, or "" when
// rawURL does not parse or has no host.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Filter applies opts to results and returns a new slice. The input is not
// modified.
//
// Stages run in a fixed order: include domains, exclude domains, minimum
// score, deduplicate by domain, then truncation to MaxResults. Domain lists
// match by substring against the lower-cased result hostname, so
// "wikipedia.org" matches "en.wikipedia.org". Patterns are used as given and
// match case-sensitively. A result whose URL has no hostname has domain "".
func Filter(results []Result, opts FilterOptions) []Result {
	out := make([]Result, 0, len(results))

	include := opts.IncludeDomains
	exclude := opts.ExcludeDomains
	var seen map[string]struct{}
	if opts.DeduplicateByDomain {
		seen = make(map[string]struct{})
	}

	for _, r := range results {
		host := Hostname(r.URL)

		if len(include) > 0 && !containsAny(host, include) {
			continue
		}
		if len(exclude) > 0 && containsAny(host, exclude) {
			continue
		}
		if opts.MinScore != nil && (r.Score == nil || *r.Score < *opts.MinScore) {
			continue
		}
		if seen != nil {
			if _, dup := seen[host]; dup {
				continue
			}
			seen[host] = struct{}{}
		}

		out = append(out, r)
	}

	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults:opts.MaxResults]
	}
	return out
}

func containsAny(host string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(host, p) {
			return true
		}
	}
	return false
}
