// Package push publishes match notifications to topic subscribers through
// Redis. Each message is appended to a bounded stream, whose entry id is the
// broker-assigned message id, and published on the topic channel for live
// subscribers.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/types"
)

// TopicPrefix starts every match topic name.
const TopicPrefix = "match_"

// streamPrefix namespaces the per-topic message streams.
const streamPrefix = "push:"

// DefaultStreamMaxLen bounds each topic stream.
const DefaultStreamMaxLen = 1000

// Topic returns the topic of a match.
func Topic(matchID string) string {
	return TopicPrefix + matchID
}

// MatchIDFromTopic is the inverse of Topic.
func MatchIDFromTopic(topic string) (string, bool) {
	return strings.CutPrefix(topic, TopicPrefix)
}

// Message is one push notification.
type Message struct {
	MatchID string
	Title   string
	Body    string
}

// RedisBroker is the push broker backed by Redis.
type RedisBroker struct {
	redis  *redis.Client
	maxLen int64
	now    func() time.Time
}

func NewRedisBroker(redisClient *redis.Client, maxLen int64) *RedisBroker {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisBroker{
		redis:  redisClient,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// Publish sends msg to topic and returns the broker message id.
func (b *RedisBroker) Publish(ctx context.Context, topic string, msg Message) (string, error) {
	sentAt := b.now().UTC().Format(time.RFC3339)

	id, err := b.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: streamPrefix + topic,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"matchId": msg.MatchID,
			"title":   msg.Title,
			"body":    msg.Body,
			"sentAt":  sentAt,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", topic, err)
	}

	event := types.NewEvent(types.EventMatchPush, topic, &types.MatchPushEvent{
		ID:      id,
		MatchID: msg.MatchID,
		Title:   msg.Title,
		Body:    msg.Body,
		SentAt:  sentAt,
	})
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	if err := b.redis.Publish(ctx, topic, data).Err(); err != nil {
		return "", fmt.Errorf("publish %s to %s: %w", id, topic, err)
	}
	return id, nil
}

// History returns up to count of the most recent messages of topic, newest
// first.
func (b *RedisBroker) History(ctx context.Context, topic string, count int64) ([]types.MatchPushEvent, error) {
	entries, err := b.redis.XRevRangeN(ctx, streamPrefix+topic, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s history: %w", topic, err)
	}

	events := make([]types.MatchPushEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, types.MatchPushEvent{
			ID:      e.ID,
			MatchID: fmt.Sprint(e.Values["matchId"]),
			Title:   fmt.Sprint(e.Values["title"]),
			Body:    fmt.Sprint(e.Values["body"]),
			SentAt:  fmt.Sprint(e.Values["sentAt"]),
		})
	}
	return events, nil
}
