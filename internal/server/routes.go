package server

import (
	"net/http"

	"github.com/kintoreai/kintore/internal/server/handlers"
	"github.com/kintoreai/kintore/pkg/log"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health
	health := &handlers.HealthHandler{Svc: s.coach}
	mux.HandleFunc("GET /health", health.Health)

	// Session lifecycle
	sess := &handlers.SessionHandler{Svc: s.coach}
	mux.HandleFunc("POST /v1/session/start", sess.Start)
	mux.HandleFunc("GET /v1/session/{id}/status", sess.Status)
	mux.HandleFunc("GET /v1/session/{id}/stats", sess.Stats)
	mux.HandleFunc("POST /v1/session/{id}/end", sess.End)

	// Profile
	prof := &handlers.ProfileHandler{Svc: s.coach}
	mux.HandleFunc("POST /v1/profile", prof.Create)
	mux.HandleFunc("GET /v1/profile/{id}", prof.Get)
	mux.HandleFunc("PUT /v1/profile/{id}", prof.Update)

	// Conversation
	chat := &handlers.ChatHandler{Svc: s.coach}
	mux.HandleFunc("POST /v1/chat", chat.Chat)
	mux.HandleFunc("GET /v1/chat/history", chat.History)

	// Workout plans
	workout := &handlers.WorkoutHandler{Svc: s.coach}
	mux.HandleFunc("POST /v1/workout/generate", workout.Generate)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context(), s.log)))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
