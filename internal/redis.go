package internal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration for the shared cache tier
type RedisConfig struct {
	// Redis connection settings
	RedisAddr     string `json:"redis_addr"`     // Redis server address (host:port)
	RedisPassword string `json:"redis_password"` // Redis password (optional)
	RedisDB       int    `json:"redis_db"`       // Redis database number
	KeyPrefix     string `json:"key_prefix"`     // Prefix applied to every key

	// Connection pool settings
	MaxRetries   int           `json:"max_retries"`   // Maximum number of client-level retries
	DialTimeout  time.Duration `json:"dial_timeout"`  // Timeout for establishing connection
	ReadTimeout  time.Duration `json:"read_timeout"`  // Timeout for socket reads
	WriteTimeout time.Duration `json:"write_timeout"` // Timeout for socket writes
	PoolSize     int           `json:"pool_size"`     // Maximum number of socket connections

	// Resilience settings
	RetryConfig *RetryConfig `json:"retry_config"` // Retry configuration for operations
}

// RetryConfig defines retry behavior with exponential backoff
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`  // Maximum number of retry attempts
	InitialDelay time.Duration `json:"initial_delay"` // Initial delay before first retry
	MaxDelay     time.Duration `json:"max_delay"`     // Maximum delay between retries
	Multiplier   float64       `json:"multiplier"`    // Backoff multiplier
	Jitter       bool          `json:"jitter"`        // Whether to add random jitter
	RetryableOps []string      `json:"retryable_ops"` // Operations that should be retried
}

// DefaultRetryConfig returns a RetryConfig with sensible default values
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableOps: []string{"ping", "get", "set", "del", "scan"},
	}
}

// DefaultRedisConfig returns a RedisConfig with sensible default values
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,
		KeyPrefix:     "bragbook",
		MaxRetries:    3,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		PoolSize:      10,
		RetryConfig:   DefaultRetryConfig(),
	}
}

// RedisConfigFromEnv returns the default configuration overridden by
// environment variables:
//   - BRAGBOOK_CACHE_REDIS_ADDR: Redis address
//   - BRAGBOOK_CACHE_REDIS_PASSWORD: Redis password
//   - BRAGBOOK_CACHE_REDIS_DB: Redis database number
//   - BRAGBOOK_CACHE_REDIS_PREFIX: key prefix
func RedisConfigFromEnv() *RedisConfig {
	config := DefaultRedisConfig()

	if addr := os.Getenv("BRAGBOOK_CACHE_REDIS_ADDR"); addr != "" {
		config.RedisAddr = addr
	}
	if password := os.Getenv("BRAGBOOK_CACHE_REDIS_PASSWORD"); password != "" {
		config.RedisPassword = password
	}
	if db := os.Getenv("BRAGBOOK_CACHE_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			config.RedisDB = n
		}
	}
	if prefix := os.Getenv("BRAGBOOK_CACHE_REDIS_PREFIX"); prefix != "" {
		config.KeyPrefix = prefix
	}

	return config
}

// RedisClientInterface defines the interface for Redis client operations
type RedisClientInterface interface {
	Health(ctx context.Context) error
	HealthWithRetry(ctx context.Context) error
	SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetWithRetry(ctx context.Context, key string) (string, error)
	DelWithRetry(ctx context.Context, keys ...string) error
	ScanWithRetry(ctx context.Context, pattern string) ([]string, error)
	Client() *redis.Client
	Config() *RedisConfig
	Close() error
}

// RedisClient wraps the go-redis client with retry and scan helpers
type RedisClient struct {
	client *redis.Client
	config *RedisConfig
}

// NewRedisClient creates a new Redis client with the provided configuration
func NewRedisClient(config *RedisConfig) (*RedisClient, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	if err := validateRedisConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
	})

	return &RedisClient{
		client: client,
		config: config,
	}, nil
}

// validateRedisConfig validates the Redis configuration parameters
func validateRedisConfig(config *RedisConfig) error {
	if config.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	if config.RedisDB < 0 || config.RedisDB > 15 {
		return fmt.Errorf("redis database must be between 0 and 15, got %d", config.RedisDB)
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", config.MaxRetries)
	}

	if config.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %v", config.DialTimeout)
	}

	if config.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", config.ReadTimeout)
	}

	if config.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", config.WriteTimeout)
	}

	if config.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}

	if config.RetryConfig != nil {
		if err := validateRetryConfig(config.RetryConfig); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// validateRetryConfig validates the retry configuration parameters
func validateRetryConfig(config *RetryConfig) error {
	if config.MaxAttempts < 0 {
		return fmt.Errorf("max attempts cannot be negative, got %d", config.MaxAttempts)
	}

	if config.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative, got %v", config.InitialDelay)
	}

	if config.MaxDelay < 0 {
		return fmt.Errorf("max delay cannot be negative, got %v", config.MaxDelay)
	}

	if config.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", config.Multiplier)
	}

	if config.InitialDelay > config.MaxDelay {
		return fmt.Errorf("initial delay (%v) cannot be greater than max delay (%v)", config.InitialDelay, config.MaxDelay)
	}

	return nil
}

// Health performs a health check on the Redis connection
func (rc *RedisClient) Health(ctx context.Context) error {
	pong, err := rc.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	if pong != "PONG" {
		return fmt.Errorf("unexpected ping response: %s", pong)
	}

	return nil
}

// Client returns the underlying Redis client for direct access
func (rc *RedisClient) Client() *redis.Client {
	return rc.client
}

// Config returns the Redis client configuration
func (rc *RedisClient) Config() *RedisConfig {
	return rc.config
}

// Close closes the Redis client connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// IsRetryableError determines if an error should trigger a retry
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errorStr := strings.ToLower(err.Error())

	// Network errors that are typically transient
	if strings.Contains(errorStr, "connection refused") ||
		strings.Contains(errorStr, "connection reset") ||
		strings.Contains(errorStr, "connection timeout") ||
		strings.Contains(errorStr, "network is unreachable") ||
		strings.Contains(errorStr, "no route to host") ||
		strings.Contains(errorStr, "broken pipe") ||
		strings.Contains(errorStr, "i/o timeout") {
		return true
	}

	// Redis-specific transient errors
	if strings.Contains(errorStr, "loading") ||
		strings.Contains(errorStr, "busy") ||
		strings.Contains(errorStr, "tryagain") {
		return true
	}

	return false
}

// isOperationRetryable checks if the given operation should be retried
func (rc *RedisClient) isOperationRetryable(operation string) bool {
	if rc.config.RetryConfig == nil {
		return false
	}

	for _, op := range rc.config.RetryConfig.RetryableOps {
		if op == operation {
			return true
		}
	}
	return false
}

// calculateBackoffDelay calculates the delay for the next retry attempt
func (rc *RedisClient) calculateBackoffDelay(attempt int) time.Duration {
	if rc.config.RetryConfig == nil {
		return time.Second
	}

	config := rc.config.RetryConfig

	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		delay += rand.Float64() * 0.1 * delay // 10% jitter
	}

	return time.Duration(delay)
}

// executeWithRetry executes a function with retry logic
func (rc *RedisClient) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	if !rc.isOperationRetryable(operation) || rc.config.RetryConfig == nil {
		return fn()
	}

	var lastErr error
	maxAttempts := rc.config.RetryConfig.MaxAttempts

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !IsRetryableError(err) {
			return err
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := rc.calculateBackoffDelay(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", operation, maxAttempts, lastErr)
}

// HealthWithRetry performs a health check with retry logic
func (rc *RedisClient) HealthWithRetry(ctx context.Context) error {
	return rc.executeWithRetry(ctx, "ping", func() error {
		return rc.Health(ctx)
	})
}

// SetWithRetry performs a SET operation with retry logic
func (rc *RedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return rc.executeWithRetry(ctx, "set", func() error {
		return rc.client.Set(ctx, key, value, expiration).Err()
	})
}

// GetWithRetry performs a GET operation with retry logic
func (rc *RedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	var result string
	err := rc.executeWithRetry(ctx, "get", func() error {
		val, err := rc.client.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// DelWithRetry performs a DEL operation with retry logic
func (rc *RedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	return rc.executeWithRetry(ctx, "del", func() error {
		return rc.client.Del(ctx, keys...).Err()
	})
}

// ScanWithRetry collects every key matching the given pattern. The scan
// itself is cursor-based; retry wraps the whole traversal.
func (rc *RedisClient) ScanWithRetry(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := rc.executeWithRetry(ctx, "scan", func() error {
		keys = keys[:0]
		iter := rc.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		return iter.Err()
	})
	return keys, err
}
