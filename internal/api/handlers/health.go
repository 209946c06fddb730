package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a dependency's connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and cache health
type HealthHandler struct {
	cache   Pinger
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cache Pinger) *HealthHandler {
	return &HealthHandler{cache: cache, started: time.Now()}
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "ok",
		"service": "quantfolio-api",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["cache"] = err.Error()
		} else {
			body["cache"] = "ok"
		}
	}

	respondJSON(w, status, body)
}
