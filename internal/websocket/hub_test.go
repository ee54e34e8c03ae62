package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/types"
)

// newTestClient builds a client without a connection; tests read its send
// channel directly.
func newTestClient(hub *Hub, topic string, buffer int) *Client {
	return &Client{send: make(chan []byte, buffer), topic: topic, hub: hub}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastReachesOnlyTopicSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := newTestClient(hub, "match_1", 4)
	b := newTestClient(hub, "match_2", 4)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	waitFor(t, func() bool { return hub.GetClientCount() == 2 })

	event := types.NewEvent(types.EventMatchPush, "match_1", types.MatchPushEvent{ID: "1-0", MatchID: "1", Title: "Goal"})
	hub.BroadcastToTopic("match_1", event)

	select {
	case raw := <-a.send:
		var got types.Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, types.EventMatchPush, got.Type)
		assert.Equal(t, "match_1", got.Topic)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-b.send:
		t.Fatal("client on another topic received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub, "match_9", 1)
	hub.RegisterClient(c)
	waitFor(t, func() bool { return hub.SubscriberCount("match_9") == 1 })

	hub.UnregisterClient(c)
	waitFor(t, func() bool { return hub.SubscriberCount("match_9") == 0 })

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := newTestClient(hub, "match_3", 1)
	hub.RegisterClient(slow)
	waitFor(t, func() bool { return hub.SubscriberCount("match_3") == 1 })

	event := types.NewEvent(types.EventMatchPush, "match_3", nil)
	hub.BroadcastToTopic("match_3", event)
	hub.BroadcastToTopic("match_3", event)

	waitFor(t, func() bool { return hub.SubscriberCount("match_3") == 0 })
}

func TestClient_SendEventFullBuffer(t *testing.T) {
	c := newTestClient(nil, "match_1", 1)
	event := types.NewEvent(types.EventMatchPush, "match_1", nil)

	require.NoError(t, c.SendEvent(event))
	assert.ErrorIs(t, c.SendEvent(event), ErrSlowClient)
}

func TestHub_RegisterAfterStopReturns(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	registered := make(chan bool, 1)
	go func() { registered <- hub.RegisterClient(newTestClient(hub, "match_1", 1)) }()

	select {
	case ok := <-registered:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("RegisterClient blocked on a stopped hub")
	}
}

func TestHub_RegisterWithoutRunAfterStop(t *testing.T) {
	hub := NewHub()
	hub.Stop()
	assert.False(t, hub.RegisterClient(newTestClient(hub, "match_1", 1)))
}
