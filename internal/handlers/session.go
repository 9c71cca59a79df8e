package handlers

import (
	"net/http"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/services"
)

// SessionHandler ends a person's session
type SessionHandler struct {
	sessions *services.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CloseSession handles DELETE /api/v1/session
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close(middleware.GetUserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
