package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*Storage)(nil)

func TestStorage_RoundTripUnderPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewStorage(rdb, "csrf:")

	val, err := store.Get("token")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("token", []byte("+"), time.Minute))
	assert.True(t, mr.Exists("csrf:token"))
	assert.Equal(t, time.Minute, mr.TTL("csrf:token"))

	val, err = store.Get("token")
	require.NoError(t, err)
	assert.Equal(t, []byte("+"), val)

	require.NoError(t, store.Delete("token"))
	assert.False(t, mr.Exists("csrf:token"))
}

func TestStorage_ResetKeepsOtherKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewStorage(rdb, "csrf:")

	require.NoError(t, store.Set("a", []byte("1"), 0))
	require.NoError(t, store.Set("b", []byte("2"), 0))
	require.NoError(t, mr.Set(ProfileKey(1), "{}"))

	require.NoError(t, store.Reset())
	assert.Equal(t, []string{ProfileKey(1)}, mr.Keys())
	assert.NoError(t, store.Close())
}
