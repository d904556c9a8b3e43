package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/websearch/cache"
	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/resilience"
)

const (
	// DefaultBaseURL is used when NewClient is given an empty base URL.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultMaxBodySize caps the decoded upstream response body.
	DefaultMaxBodySize int64 = 4 << 20

	// DefaultUserAgent is sent with every upstream request.
	DefaultUserAgent = "websearch-mcp/1.0"

	cacheNamespace = "search"
)

// Client queries a SearXNG instance.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Caching: successful searches are cached by canonicalized Params;
//     failures are never cached.
//   - Ownership: the cache created by NewClient is closed by Close. A cache
//     supplied with WithCache is left to its owner.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBody    int64

	cache      cache.Cache[[]Result]
	ownedCache *cache.MemoryCache[[]Result]
	loader     *cache.Loader[[]Result]
	keyer      cache.Keyer

	executor    *resilience.Executor
	fanOutLimit int

	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient  *http.Client
	policy      cache.Policy
	cache       cache.Cache[[]Result]
	executor    *resilience.Executor
	logger      observe.Logger
	metrics     observe.Metrics
	tracer      observe.Tracer
	coalesce    bool
	fanOutLimit int
	maxBody     int64
	userAgent   string
}

// WithHTTPClient sets the HTTP client used for upstream requests.
// Default: a client with no timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithCachePolicy sets the policy of the client-owned cache.
// Default: cache.DefaultPolicy().
func WithCachePolicy(p cache.Policy) Option {
	return func(o *clientOptions) {
		o.policy = p
	}
}

// WithCache supplies the result cache. The client does not close it.
func WithCache(c cache.Cache[[]Result]) Option {
	return func(o *clientOptions) {
		o.cache = c
	}
}

// WithExecutor routes every upstream request through e.
func WithExecutor(e *resilience.Executor) Option {
	return func(o *clientOptions) {
		o.executor = e
	}
}

// WithLogger sets the logger for debug-level cache and upstream events.
func WithLogger(l observe.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the cache and upstream metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *clientOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer for upstream request spans.
func WithTracer(t observe.Tracer) Option {
	return func(o *clientOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRequestCoalescing makes concurrent misses for the same params share
// one upstream request. Default: off.
func WithRequestCoalescing(enabled bool) Option {
	return func(o *clientOptions) {
		o.coalesce = enabled
	}
}

// WithFanOutLimit bounds how many searches SearchMultiple runs at once.
// Zero or negative means unbounded.
func WithFanOutLimit(n int) Option {
	return func(o *clientOptions) {
		o.fanOutLimit = n
	}
}

// WithMaxBodySize caps how many response bytes are decoded.
// Default: DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
// Default: DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// NewClient creates a client for the SearXNG instance at baseURL.
// Trailing slashes are trimmed; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	o := clientOptions{
		httpClient: &http.Client{},
		policy:     cache.DefaultPolicy(),
		logger:     observe.NopLogger{},
		metrics:    observe.NopMetrics{},
		tracer:     observe.NopTracer(),
		maxBody:    DefaultMaxBodySize,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		baseURL:     baseURL,
		httpClient:  o.httpClient,
		userAgent:   o.userAgent,
		maxBody:     o.maxBody,
		keyer:       cache.NewDefaultKeyer(),
		executor:    o.executor,
		fanOutLimit: o.fanOutLimit,
		logger:      o.logger.With(observe.Field{Key: "component", Value: "search"}),
		metrics:     o.metrics,
		tracer:      o.tracer,
	}

	if o.cache != nil {
		c.cache = o.cache
	} else {
		c.ownedCache = cache.NewMemoryCache[[]Result](o.policy)
		c.cache = c.ownedCache
	}
	c.loader = cache.NewLoader(c.cache, cache.WithCoalescing(o.coalesce))

	return c, nil
}

// BaseURL returns the normalized upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search returns the results for params, from the cache when possible.
//
// Errors are *SearchError (validation, transport, decoding, cancellation,
// resilience rejections) or *RequestError (non-2xx upstream status),
// possibly wrapped by resilience.ErrMaxRetriesExceeded.
func (c *Client) Search(ctx context.Context, params Params) ([]Result, error) {
	if err := params.Validate(); err != nil {
		return nil, searchErr(err)
	}

	key, err := c.keyer.Key(cacheNamespace, params)
	if err != nil {
		return nil, searchErr(err)
	}

	results, hit, err := c.loader.Load(ctx, key, func(ctx context.Context) ([]Result, error) {
		return c.fetch(ctx, params)
	})
	c.metrics.RecordCacheLookup(ctx, hit)
	if err != nil {
		return nil, asSearchFailure(err)
	}

	if hit {
		c.logger.Debug(ctx, "cache hit",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "results", Value: len(results)},
		)
	}
	return results, nil
}

// SearchMultiple runs one Search per element of params concurrently.
// out[i] holds the results for params[i]. The first failure cancels the
// remaining searches and is returned with no partial results.
func (c *Client) SearchMultiple(ctx context.Context, params []Params) ([][]Result, error) {
	out := make([][]Result, len(params))

	g, gctx := errgroup.WithContext(ctx)
	if c.fanOutLimit > 0 {
		g.SetLimit(c.fanOutLimit)
	}

	for i, p := range params {
		g.Go(func() error {
			results, err := c.Search(gctx, p)
			if err != nil {
				return err
			}
			out[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterResults applies Filter.
func (c *Client) FilterResults(results []Result, opts FilterOptions) []Result {
	return Filter(results, opts)
}

// ClearCache removes every cached search.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.logger.Debug(context.Background(), "cache cleared")
}

// CacheStats reports the cached entry count and keys.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// Close stops the sweep of a client-owned cache. Idempotent.
func (c *Client) Close() {
	if c.ownedCache != nil {
		c.ownedCache.Close()
	}
}

// Ping checks that the upstream answers GET /healthz with a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return searchErr(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRequestError(resp)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, params Params) ([]Result, error) {
	ctx, span := c.tracer.StartSpan(ctx, observe.UpstreamSpan("search",
		semconv.HTTPRequestMethodGet,
		attribute.Int("search.pageno", params.PageNo),
		attribute.StringSlice("search.categories", params.Categories),
	))

	var results []Result
	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		r, err := c.do(ctx, params)
		if err != nil {
			return err
		}
		results = r
		return nil
	})

	c.tracer.EndSpan(span, err)
	if err != nil {
		return nil, asSearchFailure(err)
	}
	return results, nil
}

// do performs a single upstream attempt.
func (c *Client) do(ctx context.Context, params Params) ([]Result, error) {
	reqURL := c.baseURL + "/search?" + params.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, searchErr(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(ctx, time.Since(start), 0, err)
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		reqErr := newRequestError(resp)
		c.metrics.RecordUpstreamRequest(ctx, time.Since(start), resp.StatusCode, reqErr)
		return nil, reqErr
	}

	var body Response
	dec := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, c.maxBody))
	if err := dec.Decode(&body); err != nil {
		err = fmt.Errorf("decode response: %w", err)
		c.metrics.RecordUpstreamRequest(ctx, time.Since(start), resp.StatusCode, err)
		return nil, searchErr(err)
	}

	duration := time.Since(start)
	c.metrics.RecordUpstreamRequest(ctx, duration, resp.StatusCode, nil)

	if body.Results == nil {
		body.Results = []Result{}
	}

	c.logger.Debug(ctx, "upstream search",
		observe.Field{Key: "status", Value: resp.StatusCode},
		observe.Field{Key: "results", Value: len(body.Results)},
		observe.Field{Key: "duration_ms", Value: duration.Milliseconds()},
	)
	return body.Results, nil
}

func newRequestError(resp *http.Response) *RequestError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &RequestError{StatusCode: resp.StatusCode, StatusText: text}
}
