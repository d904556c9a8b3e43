// Package observe provides logging, tracing, and metrics for the search
// service.
//
// NewObserver builds OpenTelemetry tracer and meter providers from Config
// along with a structured JSON Logger. The search client and the MCP layer
// take the narrower Tracer, Metrics, and Logger interfaces so they can run
// with the no-op implementations when observability is disabled.
//
// Logs and stdout exporters default to stderr: stdout carries the MCP
// protocol stream.
package observe
