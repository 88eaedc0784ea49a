package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
)

func setupTestMongo(t *testing.T) (*MongoStore, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoStore(db)

	cleanup := func() {
		_ = store.Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestMongoStore_RoundTrip(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Get(ctx, "@GoMarketplace:products")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "@GoMarketplace:products", `[{"id":"a","quantity":1}]`))
	require.NoError(t, store.Set(ctx, "@GoMarketplace:products", `[{"id":"a","quantity":2}]`))

	value, err := store.Get(ctx, "@GoMarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a","quantity":2}]`, value)

	count, err := store.collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.Remove(ctx, "@GoMarketplace:products"))
	_, err = store.Get(ctx, "@GoMarketplace:products")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestConnectMongoDB_UnreachableFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	db, err := ConnectMongoDB(ctx, "mongodb://127.0.0.1:1", "testdb")
	assert.ErrorContains(t, err, "failed to ping MongoDB")
	assert.Nil(t, db)
}
