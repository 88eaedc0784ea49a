package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisNamespace = "gomarketplace"

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: defaultRedisNamespace,
	}
}

// RedisStore keeps each value as a plain string key without expiry.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func (r RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", r.namespace, key)
}
