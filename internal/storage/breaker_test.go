package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/gomarketplace/pkg/circuitbreaker"
	"github.com/fjod/go_cart/gomarketplace/pkg/logger"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	m     sync.Mutex
	calls int
	err   error
	inner *MemoryStore
}

func (f *flakyStore) hit() error {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	return f.err
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if err := f.hit(); err != nil {
		return "", err
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyStore) Remove(ctx context.Context, key string) error {
	if err := f.hit(); err != nil {
		return err
	}
	return f.inner.Remove(ctx, key)
}

func newBreakerStore(next KeyValueStore) *BreakerStore {
	cfg := circuitbreaker.DefaultConfig("test-kv")
	cfg.MaxFailures = 2
	cfg.OpenTimeout = time.Minute
	return NewBreakerStore(next, cfg, logger.Discard())
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	inner := &flakyStore{inner: NewMemoryStore()}
	s := newBreakerStore(inner)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	require.NoError(t, s.Remove(ctx, "k"))
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerStore_MissingKeyDoesNotTrip(t *testing.T) {
	inner := &flakyStore{inner: NewMemoryStore()}
	s := newBreakerStore(inner)

	for i := 0; i < 5; i++ {
		_, err := s.Get(context.Background(), "missing")
		require.ErrorIs(t, err, ErrKeyNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, s.cb.State())
}

func TestBreakerStore_OpensOnFailures(t *testing.T) {
	inner := &flakyStore{inner: NewMemoryStore(), err: errors.New("disk full")}
	s := newBreakerStore(inner)
	ctx := context.Background()

	assert.ErrorContains(t, s.Set(ctx, "k", "v"), "disk full")
	assert.ErrorContains(t, s.Set(ctx, "k", "v"), "disk full")

	err := s.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerStore_CallerCancellationDoesNotTrip(t *testing.T) {
	inner := &flakyStore{inner: NewMemoryStore()}
	s := newBreakerStore(inner)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, s.Set(cancelled, "k", "v"), context.Canceled)
		assert.ErrorIs(t, s.Set(expired, "k", "v"), context.DeadlineExceeded)
	}
	assert.Equal(t, gobreaker.StateClosed, s.cb.State())

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	v, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
