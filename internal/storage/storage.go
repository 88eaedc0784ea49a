package storage

import (
	"context"
	"errors"
)

// KeyValueStore is the persistence collaborator of the cart. Values are opaque
// strings; the caller owns the encoding.
type KeyValueStore interface {
	// Get returns ErrKeyNotFound when nothing is stored under key
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove is a no-op for missing keys
	Remove(ctx context.Context, key string) error
}

var ErrKeyNotFound = errors.New("key not found")
