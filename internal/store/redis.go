package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "swingwatch:backtest:"

// RedisConfig configures the Redis result cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache is a ResultCache shared between scanner processes
type RedisCache struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a cache client. The connection is established lazily.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{cli: rdb, ttl: cfg.TTL}
}

// Ping checks the server is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.cli.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key CacheKey) ([]byte, bool, error) {
	b, err := r.cli.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key CacheKey, value []byte) error {
	return r.cli.Set(ctx, redisKey(key), value, r.ttl).Err()
}

// Close closes the client
func (r *RedisCache) Close() error {
	return r.cli.Close()
}

func redisKey(k CacheKey) string {
	return redisKeyPrefix + k.String()
}
