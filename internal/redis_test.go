package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateRedisConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RedisConfig)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *RedisConfig) {},
			wantErr: false,
		},
		{
			name:    "empty address",
			mutate:  func(c *RedisConfig) { c.RedisAddr = "" },
			wantErr: true,
		},
		{
			name:    "database out of range",
			mutate:  func(c *RedisConfig) { c.RedisDB = 16 },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *RedisConfig) { c.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "zero dial timeout",
			mutate:  func(c *RedisConfig) { c.DialTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero pool size",
			mutate:  func(c *RedisConfig) { c.PoolSize = 0 },
			wantErr: true,
		},
		{
			name: "retry initial delay above max delay",
			mutate: func(c *RedisConfig) {
				c.RetryConfig.InitialDelay = 10 * time.Second
				c.RetryConfig.MaxDelay = time.Second
			},
			wantErr: true,
		},
		{
			name:    "retry multiplier below one",
			mutate:  func(c *RedisConfig) { c.RetryConfig.Multiplier = 0.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultRedisConfig()
			tt.mutate(config)

			err := validateRedisConfig(config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedisConfigFromEnv(t *testing.T) {
	t.Setenv("BRAGBOOK_CACHE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("BRAGBOOK_CACHE_REDIS_DB", "3")
	t.Setenv("BRAGBOOK_CACHE_REDIS_PREFIX", "gallery")

	config := RedisConfigFromEnv()
	assert.Equal(t, "redis.internal:6380", config.RedisAddr)
	assert.Equal(t, 3, config.RedisDB)
	assert.Equal(t, "gallery", config.KeyPrefix)

	// Untouched fields keep their defaults
	assert.Equal(t, DefaultRedisConfig().PoolSize, config.PoolSize)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "nil error",
			err:       nil,
			retryable: false,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp: connection refused"),
			retryable: true,
		},
		{
			name:      "io timeout",
			err:       errors.New("read tcp: i/o timeout"),
			retryable: true,
		},
		{
			name:      "redis loading dataset",
			err:       errors.New("LOADING Redis is loading the dataset in memory"),
			retryable: true,
		},
		{
			name:      "broken pipe",
			err:       errors.New("write: broken pipe"),
			retryable: true,
		},
		{
			name:      "wrong type error is permanent",
			err:       errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"),
			retryable: false,
		},
		{
			name:      "generic error is permanent",
			err:       errors.New("something else"),
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}
}

func TestNewRedisClientRejectsInvalidConfig(t *testing.T) {
	config := DefaultRedisConfig()
	config.RedisAddr = ""

	client, err := NewRedisClient(config)
	assert.Error(t, err)
	assert.Nil(t, client)
}
