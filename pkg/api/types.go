// Package api defines the wire types of the kintore HTTP API.
package api

import "time"

// StartSessionResponse is the response for POST /v1/session/start.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

// Profile is a user fitness profile as served over the API.
type Profile struct {
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	WeightKg    float64   `json:"weight_kg"`
	HeightCm    float64   `json:"height_cm"`
	BMI         float64   `json:"bmi"`
	BMICategory string    `json:"bmi_category"`
	FitnessGoal string    `json:"fitness_goal"`
	Experience  string    `json:"experience"`
	Equipment   string    `json:"equipment,omitempty"`
	Limitations string    `json:"limitations,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileRequest is the request for POST /v1/profile. Profile carries
// raw fields; validation happens server-side.
type ProfileRequest struct {
	SessionID string         `json:"session_id"`
	Profile   map[string]any `json:"profile"`
}

// ProfileResponse wraps a validated profile.
type ProfileResponse struct {
	SessionID string  `json:"session_id"`
	Profile   Profile `json:"profile"`
}

// ChatRequest is the request for POST /v1/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Turn is one user/assistant exchange.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the response for GET /v1/chat/history.
type HistoryResponse struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}

// SessionStatusResponse is the response for GET /v1/session/{id}/status.
type SessionStatusResponse struct {
	SessionID      string `json:"session_id"`
	ProfileExists  bool   `json:"profile_exists"`
	MemoryReady    bool   `json:"memory_ready"`
	Turns          int    `json:"turns"`
	StoredMemories int    `json:"stored_memories"`
}

// SessionStatsResponse is the response for GET /v1/session/{id}/stats.
// LastActivity is omitted for sessions without any turns.
type SessionStatsResponse struct {
	SessionID       string     `json:"session_id"`
	CreatedAt       time.Time  `json:"created_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Turns           int        `json:"turns"`
	StoredMemories  int        `json:"stored_memories"`
	LastActivity    *time.Time `json:"last_activity,omitempty"`
}

// EndSessionRequest is the request for POST /v1/session/{id}/end.
type EndSessionRequest struct {
	Save bool `json:"save"`
}

// EndSessionResponse acknowledges session teardown.
type EndSessionResponse struct {
	SessionID string `json:"session_id"`
	Saved     bool   `json:"saved"`
}

// WorkoutRequest is the request for POST /v1/workout/generate.
type WorkoutRequest struct {
	SessionID       string `json:"session_id"`
	Type            string `json:"type,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Intensity       string `json:"intensity,omitempty"`
}

// WorkoutResponse carries the generated plan.
type WorkoutResponse struct {
	SessionID string `json:"session_id"`
	Plan      string `json:"plan"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
