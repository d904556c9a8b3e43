package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/search"
)

const (
	// ServerName is the MCP implementation name.
	ServerName = "websearch-searxng"

	// ServerVersion is the MCP implementation version.
	ServerVersion = "1.0.0"

	// DefaultMaxResults applies to web_search when maxResults is omitted.
	DefaultMaxResults = 10
)

// Searcher is the search surface the tools need. *search.Client implements it.
type Searcher interface {
	Search(ctx context.Context, params search.Params) ([]search.Result, error)
	SearchMultiple(ctx context.Context, params []search.Params) ([][]search.Result, error)
	ClearCache()
	CacheStats() cache.Stats
}

// Server owns the MCP server and its tool handlers.
type Server struct {
	searcher   Searcher
	middleware *observe.Middleware
	defaultMax int
	tools      []server.ServerTool
	mcp        *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithMiddleware instruments every tool call. Default: no-op middleware.
func WithMiddleware(m *observe.Middleware) Option {
	return func(s *Server) {
		if m != nil {
			s.middleware = m
		}
	}
}

// WithDefaultMaxResults sets the web_search maxResults default.
// Zero returns every result. Negative values are ignored.
func WithDefaultMaxResults(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.defaultMax = n
		}
	}
}

// New creates a Server backed by searcher and registers its tools.
func New(searcher Searcher, opts ...Option) *Server {
	s := &Server{
		searcher:   searcher,
		middleware: observe.NewMiddleware(nil, nil, nil),
		defaultMax: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.tools = []server.ServerTool{
		{Tool: webSearchTool(s.defaultMax), Handler: s.handle(s.webSearch)},
		{Tool: multiSearchTool(), Handler: s.handle(s.multiSearch)},
		{Tool: clearCacheTool(), Handler: s.handle(s.clearCache)},
		{Tool: cacheStatsTool(), Handler: s.handle(s.cacheStats)},
	}
	s.mcp.AddTools(s.tools...)

	return s
}

// Tools returns the registered tool declarations.
func (s *Server) Tools() []mcp.Tool {
	tools := make([]mcp.Tool, len(s.tools))
	for i, t := range s.tools {
		tools[i] = t.Tool
	}
	return tools
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// handle adapts an instrumented tool function to an mcp-go handler. Errors
// become isError results.
func (s *Server) handle(fn observe.ExecuteFunc) server.ToolHandlerFunc {
	wrapped := s.middleware.Wrap(fn)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := wrapped(ctx, req.Params.Name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		text, _ := out.(string)
		return mcp.NewToolResultText(text), nil
	}
}
