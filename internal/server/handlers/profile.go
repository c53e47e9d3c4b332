package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kintoreai/kintore/pkg/api"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	Svc Service
}

// Create handles POST /v1/profile.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id must not be empty")
		return
	}

	h.upsert(w, r, req.SessionID, req.Profile)
}

// Update handles PUT /v1/profile/{id}. The body is the raw field map;
// only whitelisted fields apply.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.upsert(w, r, r.PathValue("id"), data)
}

// Get handles GET /v1/profile/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.Svc.Profile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProfileResponse{SessionID: id, Profile: apiProfile(p)})
}

func (h *ProfileHandler) upsert(w http.ResponseWriter, r *http.Request, sessionID string, data map[string]any) {
	p, err := h.Svc.UpsertProfile(r.Context(), sessionID, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProfileResponse{SessionID: sessionID, Profile: apiProfile(p)})
}
