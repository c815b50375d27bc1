package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	anon, err := hub.Register(0, nil)
	require.NoError(t, err)
	member, err := hub.Register(7, nil)
	require.NoError(t, err)

	hub.BroadcastAll(`{"type":"post_created"}`)

	assert.Equal(t, `{"type":"post_created"}`, string(<-anon.Send))
	assert.Equal(t, `{"type":"post_created"}`, string(<-member.Send))
	assert.Equal(t, 2, hub.Len())

	require.NoError(t, hub.Shutdown(context.Background()))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	// Anonymous viewers are not grouped together.
	for i := 0; i < maxConnsPerUser+1; i++ {
		_, err := hub.Register(0, nil)
		require.NoError(t, err)
	}
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(5, nil)
	require.NoError(t, err)

	hub.UnregisterClient(client)
	hub.UnregisterClient(client)

	_, open := <-client.Send
	assert.False(t, open)
	assert.Zero(t, hub.Len())

	// A closed client silently drops further sends.
	assert.NotPanics(t, func() { client.TrySend([]byte("late")) })

	_, err = hub.Register(5, nil)
	assert.NoError(t, err)
}

func TestHub_FullQueueDropsAndNotifies(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer-1; i++ {
		client.TrySend([]byte("x"))
	}
	client.TrySend([]byte("last slot"))
	client.TrySend([]byte("overflow"))

	var last []byte
	for i := 0; i < sendBuffer; i++ {
		last = <-client.Send
	}
	assert.Equal(t, "last slot", string(last))
	assert.Empty(t, client.Send)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-client.Send
	assert.False(t, open)
	_, err = hub.Register(2, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestEncode(t *testing.T) {
	msg, err := Encode(EventPostDeleted, map[string]uint{"post_id": 12})
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(msg), &ev))
	assert.Equal(t, EventPostDeleted, ev.Type)
	assert.JSONEq(t, `{"post_id":12}`, string(ev.Payload))
}
