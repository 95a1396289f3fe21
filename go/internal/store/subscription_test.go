package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionKeepsNewestSnapshot(t *testing.T) {
	sub := NewSubscription("timer", nil)

	assert.True(t, sub.Deliver(Event{Value: json.RawMessage(`1`)}))
	assert.True(t, sub.Deliver(Event{Value: json.RawMessage(`2`)}))
	assert.True(t, sub.Deliver(Event{Value: json.RawMessage(`3`)}))

	ev := <-sub.Events()
	assert.Equal(t, "timer", ev.Path)
	assert.Equal(t, json.RawMessage(`3`), ev.Value)

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestSubscriptionErrorsAreEvents(t *testing.T) {
	sub := NewSubscription("timer", nil)
	boom := errors.New("boom")
	sub.Deliver(Event{Err: boom})

	ev := <-sub.Events()
	assert.ErrorIs(t, ev.Err, boom)
}

func TestSubscriptionCloseRunsOnce(t *testing.T) {
	calls := 0
	sub := NewSubscription("drivers", func() { calls++ })

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 1, calls)

	assert.False(t, sub.Deliver(Event{Value: json.RawMessage(`1`)}))
	_, ok := <-sub.Events()
	assert.False(t, ok)
}
