package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/types"
)

// TopicHub delivers an event to the local subscribers of a topic.
type TopicHub interface {
	BroadcastToTopic(topic string, event *types.Event)
}

// Relay forwards every match topic message published on Redis to the local
// websocket hub.
type Relay struct {
	redis *redis.Client
	hub   TopicHub
}

func NewRelay(redisClient *redis.Client, hub TopicHub) *Relay {
	return &Relay{redis: redisClient, hub: hub}
}

// Start subscribes to all match topics and forwards messages until ctx is
// done. It returns once the subscription is confirmed.
func (r *Relay) Start(ctx context.Context) error {
	pubsub := r.redis.PSubscribe(ctx, TopicPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to match topics: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.forward(msg)
			}
		}
	}()

	slog.Info("Push relay subscribed", slog.String("pattern", TopicPrefix+"*"))
	return nil
}

func (r *Relay) forward(msg *redis.Message) {
	var event types.Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		slog.Warn("Dropping malformed push message",
			slog.String("topic", msg.Channel),
			slog.String("error", err.Error()))
		return
	}
	if event.Topic == "" {
		event.Topic = msg.Channel
	}
	matchID, _ := MatchIDFromTopic(msg.Channel)
	slog.Debug("Relaying push message", slog.String("match_id", matchID))
	r.hub.BroadcastToTopic(msg.Channel, &event)
}
