package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore pointing to it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("gomarketplace:@GoMarketplace:products", `[{"id":"a"}]`))

	value, err := store.Get(context.Background(), "@GoMarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, value)
}

func TestRedisGet_Missing(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	value, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Empty(t, value)
}

func TestRedisSet_NoExpiry(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := store.Set(context.Background(), "products", "[]")
	require.NoError(t, err)

	stored, err := mr.Get("gomarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
	assert.Zero(t, mr.TTL("gomarketplace:products"))
}

func TestRedisSet_Overwrites(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "products", "first"))
	require.NoError(t, store.Set(ctx, "products", "second"))

	value, err := store.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestRedisRemove(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "products", "[]"))
	assert.True(t, mr.Exists("gomarketplace:products"))

	require.NoError(t, store.Remove(ctx, "products"))
	assert.False(t, mr.Exists("gomarketplace:products"))

	// Deleting non-existent key should not error
	assert.NoError(t, store.Remove(ctx, "products"))
}

func TestRedis_ServerDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := store.Get(context.Background(), "products")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorContains(t, err, "redis get failed")

	err = store.Set(context.Background(), "products", "[]")
	assert.ErrorContains(t, err, "redis set failed")
}

func TestRedisKey_Format(t *testing.T) {
	store := NewRedisStore(nil)
	assert.Equal(t, "gomarketplace:@GoMarketplace:products", store.redisKey("@GoMarketplace:products"))
}
