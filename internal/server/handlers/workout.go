package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kintoreai/kintore/internal/coach"
	"github.com/kintoreai/kintore/pkg/api"
)

// WorkoutHandler handles workout plan generation.
type WorkoutHandler struct {
	Svc Service
}

// Generate handles POST /v1/workout/generate.
func (h *WorkoutHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req api.WorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id must not be empty")
		return
	}

	plan, err := h.Svc.GenerateWorkout(r.Context(), req.SessionID, coach.WorkoutParams{
		Type:            req.Type,
		DurationMinutes: req.DurationMinutes,
		Intensity:       req.Intensity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.WorkoutResponse{SessionID: req.SessionID, Plan: plan})
}
