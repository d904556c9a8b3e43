// Package health reports whether the websearch server can serve searches.
//
// A Checker reports one component: the SearXNG upstream, the circuit
// breaker guarding it, or the result cache. An Aggregator runs registered
// checkers concurrently under a shared deadline and folds their results into
// one Status: Unhealthy if any check failed, Degraded if any is degraded,
// Healthy otherwise.
//
// # Basic Usage
//
//	agg := health.NewAggregator(health.AggregatorConfig{Logger: logger})
//	agg.Register("searxng", health.NewUpstreamChecker("searxng", client))
//	agg.Register("cache", health.NewCacheChecker(client, 10000))
//
//	mux := health.NewMux(agg, obs.MetricsHandler())
//	srv := &http.Server{Addr: "127.0.0.1:9090", Handler: mux}
//
// # HTTP Endpoints
//
//   - /healthz   liveness, always 200 OK while the process serves HTTP
//   - /readyz    200 OK or DEGRADED, 503 UNHEALTHY
//   - /health    JSON report of every check
//   - /health/{name}  JSON report of one check
//   - /metrics   Prometheus exposition, when a metrics handler is supplied
package health
