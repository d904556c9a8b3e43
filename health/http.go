package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	readinessTimeout = 5 * time.Second
	detailedTimeout  = 10 * time.Second
)

// HealthResponse is the JSON body of the detailed health endpoint.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of one Result.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func toCheckResponse(r Result) CheckResponse {
	resp := CheckResponse{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		resp.Error = r.Error.Error()
	}
	return resp
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

// LivenessHandler answers 200 OK without running any check.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	}
}

// ReadinessHandler runs every check and answers OK, DEGRADED or UNHEALTHY.
// Only UNHEALTHY maps to 503.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := agg.OverallStatus(agg.CheckAll(ctx))
		switch status {
		case StatusHealthy:
			writeText(w, http.StatusOK, "OK")
		case StatusDegraded:
			writeText(w, http.StatusOK, "DEGRADED")
		default:
			writeText(w, http.StatusServiceUnavailable, "UNHEALTHY")
		}
	}
}

// DetailedHandler reports every check as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), detailedTimeout)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := agg.OverallStatus(results)

		response := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, result := range results {
			response.Checks[name] = toCheckResponse(result)
		}

		writeJSON(w, httpStatus(status), response)
	}
}

// SingleCheckHandler reports the check named by the {name} path value, or
// by name when the path carries none.
func SingleCheckHandler(agg *Aggregator, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkName := name
		if v := r.PathValue("name"); v != "" {
			checkName = v
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		result, err := agg.Check(ctx, checkName)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, httpStatus(result.Status), toCheckResponse(result))
	}
}

// RegisterHandlers mounts /healthz, /readyz, /health and /health/{name}.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(agg))
	mux.HandleFunc("GET /health", DetailedHandler(agg))
	mux.HandleFunc("GET /health/{name}", SingleCheckHandler(agg, ""))
}

// NewMux returns a mux with the health handlers, plus /metrics when metrics
// is non-nil.
func NewMux(agg *Aggregator, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
