package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kintoreai/kintore/pkg/api"
)

// ChatHandler handles conversation endpoints.
type ChatHandler struct {
	Svc Service
}

// Chat handles POST /v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id must not be empty")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message must not be empty")
		return
	}

	reply, err := h.Svc.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ChatResponse{SessionID: req.SessionID, Reply: reply})
}

// History handles GET /v1/chat/history?session_id=...
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id must not be empty")
		return
	}

	turns, err := h.Svc.History(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	apiTurns := make([]api.Turn, len(turns))
	for i, t := range turns {
		apiTurns[i] = api.Turn{User: t.User, Assistant: t.Assistant, Timestamp: t.Timestamp}
	}
	writeJSON(w, http.StatusOK, api.HistoryResponse{SessionID: sessionID, Turns: apiTurns})
}
