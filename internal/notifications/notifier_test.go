package notifications

import (
	"context"
	"testing"
	"time"

	"network/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
	assert.NoError(t, n.StartBroadcastSubscriber(context.Background(), func(string) {
		t.Fatal("no messages without redis")
	}))
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 4)
	require.NoError(t, n.StartBroadcastSubscriber(ctx, func(p string) { payloads <- p }))

	require.NoError(t, n.PublishBroadcast(context.Background(), "before-cancel"))
	select {
	case got := <-payloads:
		assert.Equal(t, "before-cancel", got)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the message")
	}

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishBroadcast(context.Background(), "after-cancel"))
	assert.Never(t, func() bool { return len(payloads) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestPublisher_ThroughRedisReachesHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	NewPublisher(hub, n).Publish(ctx, EventPostReactionUpdated, models.LikeCounters(4, 2))

	select {
	case msg := <-client.Send:
		assert.JSONEq(t, `{"type":"post_reaction_updated","payload":{"post_id":4,"like_count":2}}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	// Delivered once, via Redis only.
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestPublisher_LocalWithoutRedis(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	NewPublisher(hub, NewNotifier(nil)).Publish(context.Background(), EventPostDeleted, map[string]uint{"post_id": 9})

	assert.JSONEq(t, `{"type":"post_deleted","payload":{"post_id":9}}`, string(<-client.Send))
}
