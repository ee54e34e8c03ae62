package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventMatchPush EventType = "match.push"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Topic     string      `json:"topic"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// MatchPushEvent is the payload delivered to subscribers of a match topic.
type MatchPushEvent struct {
	ID      string `json:"id"`
	MatchID string `json:"matchId"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	SentAt  string `json:"sentAt"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, topic string, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
