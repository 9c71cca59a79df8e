package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub       *services.WSHub
	validator middleware.TokenValidator
	sessions  *services.SessionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	validator middleware.TokenValidator,
	sessions *services.SessionManager,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		sessions:  sessions,
	}
}

// SnapshotData is sent right after connecting
type SnapshotData struct {
	Goals GoalsResponse `json:"goals"`
	Foods FoodsResponse `json:"foods"`
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	userID, err := middleware.ValidateWebSocketToken(r.Context(), token, h.validator)
	switch {
	case err == nil:
	case token == "", errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUnknownUser):
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	default:
		log.Error().Err(err).Msg("Failed to verify WebSocket user")
		respondError(w, "Failed to verify user", http.StatusServiceUnavailable)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	h.sendSnapshot(ctx, userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// Handle messages
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}

		h.handleMessage(ctx, userID, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) {
	switch msg.Type {
	case "ping":
		h.send(userID, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "snapshot":
		h.sendSnapshot(ctx, userID)
	case "refresh":
		// the store publishes foods_refreshed once the reload settles
		h.sessions.Get(ctx, userID).Foods.Refresh(ctx)
	default:
		h.sendErrorToUser(userID, "Unknown message type")
	}
}

func (h *WebSocketHandler) sendSnapshot(ctx context.Context, userID string) {
	session := h.sessions.Get(ctx, userID)
	h.send(userID, services.WSMessage{
		Type:      "snapshot",
		Timestamp: time.Now().UnixMilli(),
		Data: SnapshotData{
			Goals: GoalsResponse{Goals: session.Goals.Goals(), State: session.Goals.State()},
			Foods: foodsResponse(session.Foods),
		},
	})
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) {
	h.send(userID, services.WSMessage{
		Type:    "error",
		Message: message,
	})
}

func (h *WebSocketHandler) send(userID string, msg services.WSMessage) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to send WebSocket message")
	}
}
