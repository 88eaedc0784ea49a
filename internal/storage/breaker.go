package storage

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/gomarketplace/pkg/circuitbreaker"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// BreakerStore fails fast with gobreaker.ErrOpenState while the wrapped backend
// keeps failing. A missing key is not a failure, and neither is a caller that
// cancelled or ran out of time.
type BreakerStore struct {
	next KeyValueStore
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreakerStore(next KeyValueStore, cfg circuitbreaker.Config, log logrus.FieldLogger) *BreakerStore {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, ErrKeyNotFound) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded)
	}
	return &BreakerStore{
		next: next,
		cb:   circuitbreaker.New[string](cfg, log),
	}
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (string, error) {
		return "", b.next.Set(ctx, key, value)
	})
	return err
}

func (b *BreakerStore) Remove(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (string, error) {
		return "", b.next.Remove(ctx, key)
	})
	return err
}
