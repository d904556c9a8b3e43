// Package mcpserver exposes the SearXNG search client as MCP tools.
//
// Four tools are registered:
//
//   - web_search    one search with the result filter pipeline applied
//   - multi_search  concurrent searches sharing a set of global filters
//   - clear_cache   drops every cached search
//   - cache_stats   reports the cached entry count and keys
//
// Tool failures never surface as protocol errors. They become tool results
// with isError set and the text "Error: <message>", and are logged by the
// observe middleware that wraps every handler.
package mcpserver
