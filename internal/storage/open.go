package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Driver        string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDBName   string
}

// Open connects the configured backend. The returned close func releases it.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (KeyValueStore, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("using sqlite storage")
		return s, s.Close, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("using redis storage")
		return NewRedisStore(client), client.Close, nil

	case DriverMongo:
		db, err := ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		s := NewMongoStore(db)
		log.WithField("database", cfg.MongoDBName).Info("using mongo storage")
		return s, func() error { return s.Disconnect(context.Background()) }, nil

	case DriverMemory:
		log.Warn("using memory storage, cart will not survive a restart")
		return NewMemoryStore(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
