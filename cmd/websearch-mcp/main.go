// Command websearch-mcp serves SearXNG web search as MCP tools over stdio.
//
// Usage:
//
//	websearch-mcp [-config path]
//
// Stdout carries the MCP protocol; logs and telemetry go to stderr. When
// health.addr is set, an HTTP listener serves /healthz, /readyz, /health
// and, with the prometheus metrics exporter, /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/websearch/config"
	"github.com/jonwraymond/websearch/health"
	"github.com/jonwraymond/websearch/mcpserver"
	"github.com/jonwraymond/websearch/observe"
	"github.com/jonwraymond/websearch/search"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("websearch-mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv(config.EnvConfigPath), "path to a YAML config file")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", mcpserver.ServerName, mcpserver.ServerVersion)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.Observe.Output = stderr

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	logger := obs.Logger()

	middleware, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return errors.Join(err, obs.Shutdown(context.Background()))
	}
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return errors.Join(err, obs.Shutdown(context.Background()))
	}

	executor := cfg.Resilience.Executor(logger)
	opts := append(cfg.ClientOptions(executor),
		search.WithLogger(logger),
		search.WithMetrics(metrics),
		search.WithTracer(observe.NewTracer(obs.Tracer())),
	)
	client, err := search.NewClient(cfg.SearXNG.URL, opts...)
	if err != nil {
		return errors.Join(err, obs.Shutdown(context.Background()))
	}

	agg := health.NewAggregator(health.AggregatorConfig{Logger: logger})
	agg.Register("searxng", health.NewUpstreamChecker("searxng", client))
	agg.Register("cache", health.NewCacheChecker(client, cfg.Health.CacheThreshold))
	if cb := executor.CircuitBreaker(); cb != nil {
		agg.Register("circuit", health.NewCircuitChecker(cb))
	}

	var httpSrv *http.Server
	if cfg.Health.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Health.Addr)
		if err != nil {
			client.Close()
			return errors.Join(fmt.Errorf("health listener: %w", err), obs.Shutdown(context.Background()))
		}
		httpSrv = &http.Server{
			Handler:           health.NewMux(agg, obs.MetricsHandler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "health listener stopped", observe.Field{Key: "error", Value: err})
			}
		}()
		logger.Info(ctx, "health listener started", observe.Field{Key: "addr", Value: ln.Addr().String()})
	}

	srv := mcpserver.New(client,
		mcpserver.WithMiddleware(middleware),
		mcpserver.WithDefaultMaxResults(cfg.Search.DefaultMaxResults),
	)

	logger.Info(ctx, "server starting",
		observe.Field{Key: "searxng_url", Value: client.BaseURL()},
		observe.Field{Key: "tools", Value: len(srv.Tools())},
	)
	fmt.Fprintln(stderr, "SearXNG MCP server running on stdio")

	serveErr := srv.Serve(ctx, stdin, stdout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil && ctx.Err() == nil && !errors.Is(serveErr, io.EOF) {
		errs = append(errs, fmt.Errorf("serve: %w", serveErr))
	}
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("health listener: %w", err))
		}
	}
	client.Close()
	logger.Info(shutdownCtx, "server stopped")

	if err := obs.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("observer: %w", err))
	}
	return errors.Join(errs...)
}
