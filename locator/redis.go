package locator

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds the RedisCache settings.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL is the expiry of cached entries; zero keeps them forever.
	TTL time.Duration
	// Timeout bounds every round trip; zero means no extra bound.
	Timeout time.Duration
}

// DefaultRedisConfig returns the default Redis cache configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:  "vdto:",
		TTL:     time.Hour,
		Timeout: 500 * time.Millisecond,
	}
}

// RedisCache is a Cache shared between processes through Redis.
type RedisCache struct {
	client redis.UniversalClient
	config RedisConfig
	logger *zap.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache returns a cache using an existing client.
func NewRedisCache(client redis.UniversalClient, config RedisConfig, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, config: config, logger: logger}
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	v, err := r.client.Get(ctx, r.config.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Set(ctx, r.config.Prefix+key, value, r.config.TTL).Err(); err != nil {
		return err
	}
	r.logger.Debug("redis cache set", zap.String("key", r.config.Prefix+key), zap.String("version", value))
	return nil
}

// Clear removes every key under the configured prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.config.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.config.Timeout)
}
