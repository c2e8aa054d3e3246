package sharedcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
)

// RedisConfig configures the Redis-backed shared tier. Aliased here so
// callers outside the module can construct one.
type RedisConfig = internal.RedisConfig

// RetryConfig configures operation retry behavior for the Redis tier.
type RetryConfig = internal.RetryConfig

// DefaultRedisConfig returns a RedisConfig with sensible default values
func DefaultRedisConfig() *RedisConfig {
	return internal.DefaultRedisConfig()
}

// RedisConfigFromEnv returns the default configuration overridden by
// BRAGBOOK_CACHE_REDIS_* environment variables.
func RedisConfigFromEnv() *RedisConfig {
	return internal.RedisConfigFromEnv()
}

// RedisStore implements Store on Redis, for deployments where the cache is
// shared across processes.
type RedisStore struct {
	client internal.RedisClientInterface
	prefix string
}

// NewRedisStore creates a Redis-backed shared cache tier
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	client, err := internal.NewRedisClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: client.Config().KeyPrefix,
	}, nil
}

// NewRedisStoreWithClient creates a Redis store with an injected client for testing
func NewRedisStoreWithClient(client internal.RedisClientInterface, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves the bytes stored under key
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := rs.client.GetWithRetry(ctx, rs.fullKey(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		if isTimeoutError(err) {
			return nil, false, internal.NewTimeoutError(key, "timeout reading shared cache", err)
		}
		return nil, false, internal.NewConnectionError("failed to read shared cache", err)
	}

	return []byte(value), true, nil
}

// Set stores value under key with the given TTL
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	err := rs.client.SetWithRetry(ctx, rs.fullKey(key), value, ttl)
	if err != nil {
		if isTimeoutError(err) {
			return internal.NewTimeoutError(key, "timeout writing shared cache", err)
		}
		return internal.NewConnectionError("failed to write shared cache", err)
	}

	return nil
}

// Delete removes the given keys
func (rs *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = rs.fullKey(k)
	}

	if err := rs.client.DelWithRetry(ctx, full...); err != nil {
		if isTimeoutError(err) {
			return internal.NewTimeoutError("", "timeout deleting shared cache keys", err)
		}
		return internal.NewConnectionError("failed to delete shared cache keys", err)
	}

	return nil
}

// DeletePrefix removes every key sharing the given prefix using SCAN,
// so eviction never blocks the server the way KEYS would.
func (rs *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return internal.NewValidationError("empty_prefix", "eviction prefix cannot be empty")
	}

	keys, err := rs.client.ScanWithRetry(ctx, rs.fullKey(prefix)+"*")
	if err != nil {
		if isTimeoutError(err) {
			return internal.NewTimeoutError(prefix, "timeout scanning shared cache", err)
		}
		return internal.NewConnectionError("failed to scan shared cache", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := rs.client.DelWithRetry(ctx, keys...); err != nil {
		if isTimeoutError(err) {
			return internal.NewTimeoutError(prefix, "timeout deleting shared cache keys", err)
		}
		return internal.NewConnectionError("failed to delete shared cache keys", err)
	}

	return nil
}

// Ping performs a health check on the Redis connection
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.HealthWithRetry(ctx)
}

// Close closes the underlying Redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) fullKey(key string) string {
	if rs.prefix == "" {
		return key
	}
	return rs.prefix + key
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

var _ Store = (*RedisStore)(nil)
