package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Engagement event types pushed to live feed clients
const (
	EventRoastSubmitted = "roast_submitted"
	EventRoastVoted     = "roast_voted"
	EventStoryCreated   = "story_created"
	EventStoryViewed    = "story_viewed"
	EventStoryReacted   = "story_reacted"
	EventContentRemoved = "content_removed"
	EventStoriesExpired = "stories_expired"
	EventPong           = "pong"
	EventError          = "error"
)

const (
	writeTimeout      = 5 * time.Second
	defaultPingPeriod = 54 * time.Second
	sendBufferSize    = 64
)

// Event represents a WebSocket message
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Publisher receives engagement events. Publishing never fails the
// operation that produced the event.
type Publisher interface {
	Publish(event Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// hubClient owns one connection. Only its writer goroutine writes to conn;
// everyone else enqueues on send.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// HubOption configures an EngagementHub
type HubOption func(*EngagementHub)

// WithPingPeriod sets how often idle connections are pinged. Clients must
// answer within the handler's pong wait, so keep it below that.
func WithPingPeriod(d time.Duration) HubOption {
	return func(h *EngagementHub) {
		if d > 0 {
			h.pingPeriod = d
		}
	}
}

// EngagementHub manages anonymous WebSocket connections and fans out events.
// Delivery is queued per connection, so a slow reader never stalls the
// request that published the event; a reader whose queue overflows is dropped.
type EngagementHub struct {
	mu         sync.RWMutex
	clients    map[string]*hubClient
	pingPeriod time.Duration
}

// NewEngagementHub creates a new WebSocket hub
func NewEngagementHub(opts ...HubOption) *EngagementHub {
	h := &EngagementHub{
		clients:    make(map[string]*hubClient),
		pingPeriod: defaultPingPeriod,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a connection, starts its writer and returns its id
func (h *EngagementHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()
	client := &hubClient{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[id] = client
	total := len(h.clients)
	h.mu.Unlock()

	go h.writePump(id, client)

	log.Info().Str("conn_id", id).Int("clients", total).Msg("WebSocket connection registered")
	return id
}

// Unregister removes a connection. Its writer closes the socket once the
// queue is drained.
func (h *EngagementHub) Unregister(id string) {
	h.mu.Lock()
	client, exists := h.clients[id]
	if exists {
		delete(h.clients, id)
		close(client.send)
	}
	h.mu.Unlock()

	if exists {
		log.Info().Str("conn_id", id).Msg("WebSocket connection unregistered")
	}
}

// Count returns the number of connected clients
func (h *EngagementHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues an event for one connection
func (h *EngagementHub) Send(id string, event Event) error {
	data, err := marshalEvent(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, exists := h.clients[id]
	queued := exists && enqueue(client, data)
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s is not registered", id)
	}
	if !queued {
		h.Unregister(id)
		return fmt.Errorf("connection %s is not keeping up", id)
	}
	return nil
}

// Publish queues an event for every connection without waiting for any
// write. Connections whose queue is full are dropped.
func (h *EngagementHub) Publish(event Event) {
	data, err := marshalEvent(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event")
		return
	}

	var overflowed []string
	h.mu.RLock()
	for id, client := range h.clients {
		if !enqueue(client, data) {
			overflowed = append(overflowed, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range overflowed {
		log.Warn().Str("conn_id", id).Str("type", event.Type).Msg("Client not keeping up, dropping connection")
		h.Unregister(id)
	}
}

// enqueue must be called with h.mu held so send cannot be closed under it
func enqueue(client *hubClient, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func (h *EngagementHub) writePump(id string, client *hubClient) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("conn_id", id).Msg("Failed to deliver event")
				h.Unregister(id)
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("conn_id", id).Msg("Ping failed")
				h.Unregister(id)
				return
			}
		}
	}
}

func marshalEvent(event Event) ([]byte, error) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}
