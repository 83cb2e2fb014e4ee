package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"StockLens/internal/model"
)

const redisPrefix = "stocklens:series:"

// Redis stores entries as JSON with a native key TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr. ttl <= 0 means DefaultTTL.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return NewRedisClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key Key) (*model.PriceSeries, bool, error) {
	data, err := r.client.Get(ctx, redisPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	s, _, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	if s.Symbol != key.Symbol {
		return nil, false, nil
	}
	return s, true, nil
}

func (r *Redis) Set(ctx context.Context, key Key, series *model.PriceSeries) error {
	data, err := encode(series, time.Now())
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisPrefix+key.String(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
