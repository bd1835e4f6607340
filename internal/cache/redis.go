package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

// Redis stores JSON-encoded results in a shared Redis instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects lazily to addr; call Ping to verify reachability.
func NewRedis(addr string, ttl time.Duration) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}), ttl)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (knapsack.Result, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return knapsack.Result{}, false, nil
	}
	if err != nil {
		return knapsack.Result{}, false, fmt.Errorf("redis get: %w", err)
	}

	var res knapsack.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return knapsack.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return clone(res), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result knapsack.Result) error {
	data, err := json.Marshal(clone(result))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
