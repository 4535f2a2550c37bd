package handler

import (
	"net/http"

	"quickref/internal/httputil"
)

// SessionCounter reports connected viewers.
type SessionCounter interface {
	ActiveSessionCount() int
}

// HealthHandler reports liveness.
type HealthHandler struct {
	sessions SessionCounter
	backend  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions SessionCounter, backend string) *HealthHandler {
	return &HealthHandler{sessions: sessions, backend: backend}
}

// HealthCheck returns service status
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"active_viewers": h.sessions.ActiveSessionCount(),
		"store_backend":  h.backend,
	})
}
