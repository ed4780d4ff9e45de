package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/core"
)

func TestBroker(t *testing.T) {
	t.Run("Should deliver direct messages only to the recipient", func(t *testing.T) {
		broker := NewBroker()
		progress := make(chan Message, 1)
		csv := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("progress", progress))
		require.NoError(t, broker.Subscribe("csv", csv))

		require.NoError(t, broker.Publish(Message{From: "runner", To: []string{"csv"}, Content: "flush"}))

		select {
		case got := <-csv:
			assert.Equal(t, "runner", got.From)
			assert.Equal(t, "flush", got.Content)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
		assert.Empty(t, progress)
	})

	t.Run("Should broadcast to everyone but the sender", func(t *testing.T) {
		broker := NewBroker()
		subs := map[string]chan Message{
			"a": make(chan Message, 1),
			"b": make(chan Message, 1),
			"c": make(chan Message, 1),
		}
		for id, ch := range subs {
			require.NoError(t, broker.Subscribe(id, ch))
		}

		require.NoError(t, broker.Publish(Message{From: "a", Content: "hello"}))

		assert.Empty(t, subs["a"])
		assert.Len(t, subs["b"], 1)
		assert.Len(t, subs["c"], 1)
	})

	t.Run("Should manage subscriptions", func(t *testing.T) {
		broker := NewBroker()
		ch := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("a", ch))
		assert.Error(t, broker.Subscribe("a", ch))
		require.NoError(t, broker.Unsubscribe("a"))
		assert.Error(t, broker.Unsubscribe("a"))
	})

	t.Run("Should report full channels without blocking", func(t *testing.T) {
		broker := NewBroker()
		ch := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("slow", ch))

		require.NoError(t, broker.Publish(Message{From: "runner", Content: 1}))
		assert.Error(t, broker.Publish(Message{From: "runner", Content: 2}))
	})

	t.Run("Should wrap experiment events", func(t *testing.T) {
		broker := NewBroker()
		ch := make(chan Message, 1)
		require.NoError(t, broker.Subscribe("progress", ch))

		require.NoError(t, broker.PublishEvent(core.Event{Type: core.EventRunScored, Task: "ClockOpenApp", Score: 1}))

		got := <-ch
		assert.Equal(t, EventSource, got.From)
		ev, ok := got.Content.(core.Event)
		require.True(t, ok)
		assert.Equal(t, core.EventRunScored, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	})
}
