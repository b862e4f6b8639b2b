package websocket

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"feedback-moderation-server/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is the envelope written to moderator connections
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans moderation events out to every connected moderator.
// It implements services.EventPublisher.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	done    chan struct{}
	origins map[string]bool
	log     *zap.Logger
	mu      sync.RWMutex
}

// NewHub creates a hub. An empty origins list or "*" accepts any origin.
func NewHub(origins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		origins:    allowed,
		log:        log.Named("hub"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("moderator connected", zap.String("moderator", client.moderator))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Info("moderator disconnected", zap.String("moderator", client.moderator))

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish queues event for every connected moderator. It never blocks: when
// the queue is full the event is dropped.
func (h *Hub) Publish(event models.ModerationEvent) {
	msg := &Message{Type: string(event.Type), Timestamp: event.At, Data: event}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("feedback_id", event.FeedbackID),
		)
	}
}

// ClientCount reports the number of connected moderators
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("marshal message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.log.Warn("client send buffer full, disconnecting", zap.String("moderator", client.moderator))
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) allowOrigin(origin string) bool {
	if origin == "" || len(h.origins) == 0 || h.origins["*"] {
		return true
	}
	return h.origins[origin]
}
