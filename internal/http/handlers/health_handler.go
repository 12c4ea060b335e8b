package handlers

import (
	"net/http"
	"time"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now().UTC()}
}

// HandleHealth is GET /health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"service":    "sarah-booking",
		"uptime_sec": int64(time.Since(h.startedAt).Seconds()),
	})
}
