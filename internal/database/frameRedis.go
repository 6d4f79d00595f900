package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisFrameCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFrameCache(ctx context.Context, client *redis.Client, ttl time.Duration) (FrameCache, error) {
	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisFrameCache{client: client, ttl: ttl}, nil
}

func (r *redisFrameCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, frameKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisFrameCache) Set(ctx context.Context, key string, image []byte) error {
	return r.client.Set(ctx, frameKey(key), image, r.ttl).Err()
}

func frameKey(key string) string {
	return fmt.Sprintf("frame:%s", key)
}
