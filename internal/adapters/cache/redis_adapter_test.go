package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/domain/providers"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Requires redis connection (set REDIS_TEST_ADDR)")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisAdapter_GetSetDeletePattern(t *testing.T) {
	client := testRedis(t)
	adapter := &RedisAdapter{client: client}
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	_, err := adapter.Get(ctx, prefix+"missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, prefix+"a", []byte("1"), 60))
	require.NoError(t, adapter.Set(ctx, prefix+"b", []byte("2"), 60))

	val, err := adapter.Get(ctx, prefix+"a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, adapter.DeletePattern(ctx, prefix+"*"))
	exists, err := adapter.Exists(ctx, prefix+"b")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisFavoriteStore_OrderAndTTL(t *testing.T) {
	client := testRedis(t)
	store := newRedisFavoriteStore(client, time.Hour)
	ctx := context.Background()
	session := uuid.NewString()
	t.Cleanup(func() { _ = store.Clear(ctx, session) })

	require.NoError(t, store.Add(ctx, session, "second"))
	require.NoError(t, store.Add(ctx, session, "first"))
	require.NoError(t, store.Add(ctx, session, "second"))

	ids, err := store.List(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, ids)

	ttl, err := client.TTL(ctx, FavoritesKey(session)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, store.Remove(ctx, session, "second"))
	ids, _ = store.List(ctx, session)
	assert.Equal(t, []string{"first"}, ids)
}

func TestRedisFavoriteStore_BackToBackAddsKeepOrder(t *testing.T) {
	client := testRedis(t)
	store := newRedisFavoriteStore(client, time.Hour)
	ctx := context.Background()
	session := uuid.NewString()
	t.Cleanup(func() { _ = store.Clear(ctx, session) })

	// lexical order is the reverse of insertion order
	want := []string{"z", "y", "x", "w", "v", "u", "t", "s"}
	for _, id := range want {
		require.NoError(t, store.Add(ctx, session, id))
	}

	ids, err := store.List(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, want, ids)

	require.NoError(t, store.Clear(ctx, session))
	n, err := client.Exists(ctx, FavoritesKey(session), favoritesSeqKey(session)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
