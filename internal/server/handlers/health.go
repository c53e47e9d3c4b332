package handlers

import (
	"net/http"

	"github.com/kintoreai/kintore/pkg/api"
)

// HealthHandler handles GET /health.
type HealthHandler struct {
	Svc Service
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:         "ok",
		ActiveSessions: h.Svc.ActiveSessions(),
	})
}
