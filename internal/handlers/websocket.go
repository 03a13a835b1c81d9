package handlers

import (
	"net/http"
	"time"

	"roastme-backend/internal/middleware"
	"roastme-backend/internal/services"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsReadLimit = 4096
	wsPongWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed is public and read-only
	},
}

// WebSocketHandler handles live engagement feed connections. The hub pings
// every connection, so listen-only clients stay connected as long as they
// answer with pongs.
type WebSocketHandler struct {
	hub      *services.EngagementHub
	pongWait time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.EngagementHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, pongWait: wsPongWait}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	connID := h.hub.Register(conn)
	defer h.hub.Unregister(connID)

	fp := middleware.GetFingerprint(r.Context())
	log.Debug().Str("conn_id", connID).Str("fingerprint", fp).Msg("WebSocket connection established")

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", connID).Msg("WebSocket error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var msg services.Event
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(connID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.hub.Send(connID, services.Event{Type: services.EventPong}); err != nil {
				return
			}
		default:
			h.sendError(connID, "Unknown message type")
		}
	}
}

// sendError sends an error event to one connection
func (h *WebSocketHandler) sendError(connID, message string) {
	err := h.hub.Send(connID, services.Event{Type: services.EventError, Message: message})
	if err != nil {
		log.Debug().Err(err).Str("conn_id", connID).Msg("Failed to send error event")
	}
}
