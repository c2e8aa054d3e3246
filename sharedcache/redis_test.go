package sharedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
)

// mockRedisClient is a mock implementation of internal.RedisClientInterface
type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockRedisClient) HealthWithRetry(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockRedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockRedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockRedisClient) ScanWithRetry(ctx context.Context, pattern string) ([]string, error) {
	args := m.Called(ctx, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRedisClient) Client() *redis.Client {
	return nil
}

func (m *mockRedisClient) Config() *internal.RedisConfig {
	args := m.Called()
	return args.Get(0).(*internal.RedisConfig)
}

func (m *mockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRedisStoreGetHit(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "bragbook")
	ctx := context.Background()

	client.On("GetWithRetry", ctx, "bragbook/taxonomy/procedure/term/1").
		Return(`{"id":1}`, nil)

	value, ok, err := store.Get(ctx, "/taxonomy/procedure/term/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":1}`), value)
	client.AssertExpectations(t)
}

func TestRedisStoreGetMissIsNotAnError(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "")
	ctx := context.Background()

	client.On("GetWithRetry", ctx, "/taxonomy/procedure/term/404").
		Return("", redis.Nil)

	value, ok, err := store.Get(ctx, "/taxonomy/procedure/term/404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestRedisStoreGetConnectionError(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "")
	ctx := context.Background()

	client.On("GetWithRetry", ctx, "/taxonomy/procedure/term/1").
		Return("", errors.New("connection refused"))

	_, ok, err := store.Get(ctx, "/taxonomy/procedure/term/1")
	assert.False(t, ok)
	assert.True(t, internal.IsConnectionError(err))
}

func TestRedisStoreGetTimeoutError(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "")
	ctx := context.Background()

	client.On("GetWithRetry", ctx, "/taxonomy/procedure/term/1").
		Return("", errors.New("read tcp: i/o timeout"))

	_, _, err := store.Get(ctx, "/taxonomy/procedure/term/1")
	assert.True(t, internal.IsErrorType(err, internal.ErrorTypeTimeout))
}

func TestRedisStoreSetAppliesPrefixAndTTL(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "bragbook")
	ctx := context.Background()

	client.On("SetWithRetry", ctx, "bragbook/taxonomy/category/term/2", []byte("v"), time.Hour).
		Return(nil)

	err := store.Set(ctx, "/taxonomy/category/term/2", []byte("v"), time.Hour)
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRedisStoreDelete(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "bragbook")
	ctx := context.Background()

	client.On("DelWithRetry", ctx, []string{
		"bragbook/taxonomy/procedure/term/1",
		"bragbook/taxonomy/procedure/term/2",
	}).Return(nil)

	err := store.Delete(ctx, "/taxonomy/procedure/term/1", "/taxonomy/procedure/term/2")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRedisStoreDeleteNothing(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "")

	// No keys, no round trip
	assert.NoError(t, store.Delete(context.Background()))
	client.AssertNotCalled(t, "DelWithRetry")
}

func TestRedisStoreDeletePrefix(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "bragbook")
	ctx := context.Background()

	matched := []string{
		"bragbook/taxonomy/procedure/list/aaa",
		"bragbook/taxonomy/procedure/list/bbb",
	}
	client.On("ScanWithRetry", ctx, "bragbook/taxonomy/procedure/list/*").
		Return(matched, nil)
	client.On("DelWithRetry", ctx, matched).Return(nil)

	err := store.DeletePrefix(ctx, "/taxonomy/procedure/list/")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRedisStoreDeletePrefixNoMatches(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStoreWithClient(client, "")
	ctx := context.Background()

	client.On("ScanWithRetry", ctx, "/taxonomy/category/list/*").
		Return([]string{}, nil)

	assert.NoError(t, store.DeletePrefix(ctx, "/taxonomy/category/list/"))
	client.AssertNotCalled(t, "DelWithRetry")
}

func TestRedisStoreDeletePrefixRejectsEmpty(t *testing.T) {
	store := NewRedisStoreWithClient(&mockRedisClient{}, "")

	err := store.DeletePrefix(context.Background(), "")
	assert.True(t, internal.IsValidationError(err))
}
