package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus is the payload served by the health endpoint
type HealthStatus struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

// HealthHandler reports process liveness
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health handler anchored at the current time
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// ServeHTTP implements http.Handler
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		StartedAt: h.startedAt,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Serve starts an HTTP server exposing /metrics and /health on addr.
// It blocks, so callers run it in a goroutine.
func Serve(addr string, metrics *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", NewHealthHandler())
	return http.ListenAndServe(addr, mux)
}
