// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kintoreai/kintore/internal/buffer"
	"github.com/kintoreai/kintore/internal/coach"
	"github.com/kintoreai/kintore/internal/llm"
	"github.com/kintoreai/kintore/internal/profile"
	"github.com/kintoreai/kintore/internal/session"
	"github.com/kintoreai/kintore/pkg/api"
	"github.com/kintoreai/kintore/pkg/log"
)

// Service is the coach surface the handlers depend on.
type Service interface {
	StartSession(ctx context.Context) (string, error)
	UpsertProfile(ctx context.Context, sessionID string, data map[string]any) (profile.Profile, error)
	Profile(ctx context.Context, sessionID string) (profile.Profile, error)
	Chat(ctx context.Context, sessionID, message string) (string, error)
	GenerateWorkout(ctx context.Context, sessionID string, params coach.WorkoutParams) (string, error)
	Status(ctx context.Context, sessionID string) (coach.Status, error)
	Stats(ctx context.Context, sessionID string) (coach.Stats, error)
	History(ctx context.Context, sessionID string) ([]buffer.Turn, error)
	EndSession(ctx context.Context, sessionID string, save bool) error
	ActiveSessions() int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Error: api.ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}

// writeServiceError maps domain errors onto HTTP statuses. Server-side
// failures also go to the request-scoped logger.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_profile", verr.Error())
	case errors.Is(err, coach.ErrProfileRequired):
		writeError(w, http.StatusBadRequest, "profile_required", err.Error())
	case errors.Is(err, session.ErrNotReady):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
	case errors.Is(err, session.ErrSessionInvalid):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, llm.ErrProvider):
		log.FromCtx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("provider call failed")
		writeError(w, http.StatusBadGateway, "provider_error", err.Error())
	default:
		log.FromCtx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func apiProfile(p profile.Profile) api.Profile {
	return api.Profile{
		Name:        p.Name,
		Age:         p.Age,
		WeightKg:    p.WeightKg,
		HeightCm:    p.HeightCm,
		BMI:         p.BMI,
		BMICategory: p.BMICategory(),
		FitnessGoal: p.FitnessGoal,
		Experience:  p.Experience,
		Equipment:   p.Equipment,
		Limitations: p.Limitations,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
