package handlers

import (
	"net/http"

	"reversion/internal/repository"
)

// HealthHandler serves the latest HealthCheck row the Strategy Core writes
// every heartbeat, not a live probe of the process itself: a stale row past
// a few heartbeat intervals is itself the signal something has wedged.
type HealthHandler struct {
	health *repository.HealthCheckRepository
}

func NewHealthHandler(health *repository.HealthCheckRepository) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	latest, err := h.health.Latest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read health state")
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "no health check recorded yet"})
		return
	}

	status := http.StatusOK
	if !latest.FeedConnected || !latest.AdapterReachable || !latest.SinkHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, latest)
}
