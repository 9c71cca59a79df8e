package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageWriter is the part of a WebSocket connection the hub writes to
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type wsConn struct {
	conn MessageWriter
	// gorilla connections allow one concurrent writer
	mu sync.Mutex
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages one WebSocket connection per person and forwards store
// events to it
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsConn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsConn),
	}
}

// Register registers a connection for a user, replacing any existing one
func (h *WSHub) Register(userID string, conn MessageWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	h.connections[userID] = &wsConn{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn
func (h *WSHub) Unregister(userID string, conn MessageWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[userID]; exists && current.conn == conn {
		current.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Publish forwards a store event to the person's connection, if any
func (h *WSHub) Publish(e Event) {
	if !h.IsOnline(e.UserID) {
		return
	}

	message := WSMessage{
		Type:      e.Type,
		Timestamp: time.Now().UnixMilli(),
		Data:      e.Data,
	}
	if err := h.SendToUser(e.UserID, message); err != nil {
		log.Error().
			Err(err).
			Str("user_id", e.UserID).
			Str("type", e.Type).
			Msg("Failed to publish event")
	}
}
