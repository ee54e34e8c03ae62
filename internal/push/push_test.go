package push

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/types"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type recordingHub struct {
	mu     sync.Mutex
	events map[string][]*types.Event
	got    chan struct{}
}

func newRecordingHub() *recordingHub {
	return &recordingHub{events: make(map[string][]*types.Event), got: make(chan struct{}, 16)}
}

func (h *recordingHub) BroadcastToTopic(topic string, event *types.Event) {
	h.mu.Lock()
	h.events[topic] = append(h.events[topic], event)
	h.mu.Unlock()
	h.got <- struct{}{}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "match_42", Topic("42"))

	id, ok := MatchIDFromTopic("match_42")
	require.True(t, ok)
	assert.Equal(t, "42", id)

	_, ok = MatchIDFromTopic("news")
	assert.False(t, ok)
}

func TestRedisBroker_PublishAssignsID(t *testing.T) {
	mr, client := setupTestRedis(t)
	broker := NewRedisBroker(client, 10)
	ctx := context.Background()

	id1, err := broker.Publish(ctx, "match_42", Message{MatchID: "42", Title: "Goal", Body: "1-0"})
	require.NoError(t, err)
	id2, err := broker.Publish(ctx, "match_42", Message{MatchID: "42", Title: "Goal", Body: "2-0"})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)

	entries, err := mr.Stream("push:match_42")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	history, err := broker.History(ctx, "match_42", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, id2, history[0].ID)
	assert.Equal(t, "2-0", history[0].Body)
	assert.Equal(t, "42", history[1].MatchID)
}

func TestRedisBroker_PublishFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	broker := NewRedisBroker(client, 10)
	mr.Close()

	_, err := broker.Publish(context.Background(), "match_1", Message{MatchID: "1", Title: "t", Body: "b"})
	assert.Error(t, err)
}

func TestRelay_ForwardsToHub(t *testing.T) {
	_, client := setupTestRedis(t)
	hub := newRecordingHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewRelay(client, hub).Start(ctx))

	id, err := NewRedisBroker(client, 10).Publish(ctx, Topic("42"), Message{MatchID: "42", Title: "Half time", Body: "0-0"})
	require.NoError(t, err)

	select {
	case <-hub.got:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward the message")
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.Len(t, hub.events["match_42"], 1)
	event := hub.events["match_42"][0]
	assert.Equal(t, types.EventMatchPush, event.Type)
	assert.Equal(t, "match_42", event.Topic)
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "Half time", data["title"])
}
