package websocket

import (
	"log/slog"
	"sync"

	"github.com/freeplay/yourleague-service/internal/types"
)

// Hub maintains the set of active clients per topic and broadcasts topic
// messages to them
type Hub struct {
	// Registered clients grouped by topic
	topics map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect topics map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *BroadcastMessage

	done chan struct{}
}

// BroadcastMessage represents a message to be broadcast to a topic
type BroadcastMessage struct {
	Topic string       `json:"topic"`
	Event *types.Event `json:"event"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop; it returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.topics[client.topic]
			if !ok {
				subs = make(map[*Client]bool)
				h.topics[client.topic] = subs
			}
			subs[client] = true
			h.mu.Unlock()
			slog.Info("WebSocket client subscribed", slog.String("topic", client.topic))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.broadcastToTopic(message.Topic, message.Event)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[client.topic]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, client.topic)
	}
	close(client.send)
	slog.Info("WebSocket client unsubscribed", slog.String("topic", client.Topic()))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.topics {
		for client := range subs {
			close(client.send)
		}
		delete(h.topics, topic)
	}
}

// RegisterClient registers a new client. It returns false once the hub has
// been stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToTopic sends an event to every subscriber of topic
func (h *Hub) BroadcastToTopic(topic string, event *types.Event) {
	message := &BroadcastMessage{
		Topic: topic,
		Event: event,
	}

	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("topic", topic))
	}
}

// broadcastToTopic is the internal method that actually sends messages to clients
func (h *Hub) broadcastToTopic(topic string, event *types.Event) {
	h.mu.RLock()
	var failed []*Client
	for client := range h.topics[topic] {
		if err := client.SendEvent(event); err != nil {
			slog.Error("Failed to send event to client",
				slog.String("topic", topic),
				slog.String("error", err.Error()))
			failed = append(failed, client)
		}
	}
	h.mu.RUnlock()

	// Slow clients are dropped.
	for _, c := range failed {
		h.remove(c)
	}
}

// SubscriberCount returns the number of clients subscribed to topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, subs := range h.topics {
		n += len(subs)
	}
	return n
}
