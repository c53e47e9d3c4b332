package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kintoreai/kintore/pkg/api"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	Svc Service
}

// Start handles POST /v1/session/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := h.Svc.StartSession(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.StartSessionResponse{SessionID: id})
}

// Status handles GET /v1/session/{id}/status.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SessionStatusResponse{
		SessionID:      st.SessionID,
		ProfileExists:  st.ProfileExists,
		MemoryReady:    st.MemoryReady,
		Turns:          st.Turns,
		StoredMemories: st.StoredMemories,
	})
}

// Stats handles GET /v1/session/{id}/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := api.SessionStatsResponse{
		SessionID:       stats.SessionID,
		CreatedAt:       stats.CreatedAt,
		DurationMinutes: stats.DurationMinutes,
		Turns:           stats.Turns,
		StoredMemories:  stats.StoredMemories,
	}
	if !stats.LastActivity.IsZero() {
		resp.LastActivity = &stats.LastActivity
	}
	writeJSON(w, http.StatusOK, resp)
}

// End handles POST /v1/session/{id}/end. An empty body defaults to
// discarding the session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req api.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Svc.EndSession(r.Context(), id, req.Save); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.EndSessionResponse{SessionID: id, Saved: req.Save})
}
