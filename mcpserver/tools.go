package mcpserver

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var timeRanges = []string{"", "day", "week", "month", "year"}

func webSearchTool(defaultMax int) mcp.Tool {
	return mcp.NewTool("web_search",
		mcp.WithDescription("Search the web using SearXNG. Returns relevant web pages with titles, URLs, and content snippets. Supports filtering and multiple concurrent searches."),
		mcp.WithTitleAnnotation("Web search"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query string"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of results to return (default: %d)", defaultMax)),
			mcp.DefaultNumber(float64(defaultMax)),
			mcp.Min(0),
		),
		mcp.WithString("language",
			mcp.Description(`Language code for search results (e.g., "en", "es", "fr")`),
		),
		mcp.WithString("timeRange",
			mcp.Description("Time range filter for results"),
			mcp.Enum(timeRanges...),
		),
		mcp.WithArray("categories",
			mcp.Description(`Categories to search (e.g., ["general", "news", "science"])`),
			mcp.WithStringItems(),
		),
		mcp.WithArray("engines",
			mcp.Description(`Engines to query (e.g., ["duckduckgo", "wikipedia"])`),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("pageno",
			mcp.Description("Result page, starting at 1"),
			mcp.Min(1),
		),
		mcp.WithNumber("safesearch",
			mcp.Description("Safe search level: 0 off, 1 moderate, 2 strict"),
			mcp.Min(0),
			mcp.Max(2),
		),
		mcp.WithArray("includeDomains",
			mcp.Description("Only include results from these domains"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("excludeDomains",
			mcp.Description("Exclude results from these domains"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("minScore",
			mcp.Description("Drop unscored results and results scored below this value"),
		),
		mcp.WithBoolean("deduplicateByDomain",
			mcp.Description("Only return one result per domain (default: false)"),
			mcp.DefaultBool(false),
		),
	)
}

func multiSearchTool() mcp.Tool {
	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return mcp.NewTool("multi_search",
		mcp.WithDescription("Perform multiple web searches concurrently. Useful for comparing information from different queries or exploring related topics simultaneously."),
		mcp.WithTitleAnnotation("Multiple web searches"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description("Array of search queries to execute concurrently"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":      map[string]any{"type": "string"},
					"maxResults": map[string]any{"type": "number"},
					"language":   map[string]any{"type": "string"},
					"timeRange":  map[string]any{"type": "string", "enum": timeRanges},
					"categories": stringArray,
				},
				"required": []string{"query"},
			}),
		),
		mcp.WithObject("globalFilters",
			mcp.Description("Filters to apply to all search results"),
			mcp.Properties(map[string]any{
				"includeDomains":      stringArray,
				"excludeDomains":      stringArray,
				"deduplicateByDomain": map[string]any{"type": "boolean"},
				"minScore":            map[string]any{"type": "number"},
				"maxResults":          map[string]any{"type": "number"},
			}),
		),
	)
}

func clearCacheTool() mcp.Tool {
	return mcp.NewTool("clear_cache",
		mcp.WithDescription("Clear the search results cache. Useful when you need fresh results or to free up memory."),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func cacheStatsTool() mcp.Tool {
	return mcp.NewTool("cache_stats",
		mcp.WithDescription("Report how many searches are cached and their cache keys."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
