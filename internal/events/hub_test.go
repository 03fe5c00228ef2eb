package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("x")
	assert.Equal(t, "x", <-a)
	assert.Equal(t, "x", <-b)
}

func TestHub_UnsubscribedClientGetsNothing(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	// must not panic on a closed client
	h.Publish("x")
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		h.Publish("evt")
	}
	// buffered events only; the rest were dropped, not blocked on
	assert.Equal(t, cap(ch), len(ch))
}

func TestNilHubEmitIsNoop(t *testing.T) {
	var h *Hub
	h.Emit("", TypeRunStarted, nil) // must not panic
}

func TestMakeEvent_Envelope(t *testing.T) {
	raw := MakeEvent("req-1", TypeMatchCreated, 1, map[string]any{"userId": "u1"})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeMatchCreated, e.Type)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, 1, e.Version)
	assert.False(t, e.At.IsZero())

	var data map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "u1", data["userId"])
}
