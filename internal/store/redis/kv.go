// Package redis keeps session snapshots in redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"phoenix/internal/logger"
	"phoenix/internal/session"
)

const keyPrefix = "phoenix:session:"

var _ session.KV = (*KV)(nil)

type KV struct {
	client *goredis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewKV wraps client. A zero ttl keeps snapshots until they are deleted.
func NewKV(client *goredis.Client, log *zap.Logger, ttl time.Duration) *KV {
	return &KV{
		client: client,
		logger: logger.OrNop(log).Named("RedisSessionKV"),
		ttl:    ttl,
	}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return client, nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := k.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		k.logger.Error("Failed to read session", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("getting session %s from redis: %w", key, err)
	}
	return value, nil
}

func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, keyPrefix+key, value, k.ttl).Err(); err != nil {
		k.logger.Error("Failed to write session", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("putting session %s to redis: %w", key, err)
	}
	k.logger.Debug("Session written", zap.String("key", key), zap.Duration("ttl", k.ttl))
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting session %s from redis: %w", key, err)
	}
	return nil
}
