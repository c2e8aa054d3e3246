package sharedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(64)
	require.NoError(t, err)
	return store
}

func TestMemoryStoreSetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "/taxonomy/procedure/term/1", []byte(`{"id":1}`), time.Minute)
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "/taxonomy/procedure/term/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":1}`), value)
}

func TestMemoryStoreMiss(t *testing.T) {
	store := newTestStore(t)

	value, ok, err := store.Get(context.Background(), "/taxonomy/procedure/term/404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key-ttl", []byte("v"), 10*time.Millisecond))
	require.NoError(t, store.Set(ctx, "key-forever", []byte("v"), 0))

	time.Sleep(20 * time.Millisecond)

	_, ok, err := store.Get(ctx, "key-ttl")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be served")

	_, ok, err = store.Get(ctx, "key-forever")
	require.NoError(t, err)
	assert.True(t, ok, "zero TTL means no expiry")
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, store.Delete(ctx, "a", "b", "never-existed"))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "/taxonomy/procedure/list/aaa", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "/taxonomy/procedure/list/bbb", []byte("2"), 0))
	require.NoError(t, store.Set(ctx, "/taxonomy/procedure/term/1", []byte("3"), 0))
	require.NoError(t, store.Set(ctx, "/taxonomy/category/list/ccc", []byte("4"), 0))

	require.NoError(t, store.DeletePrefix(ctx, "/taxonomy/procedure/list/"))

	_, ok, _ := store.Get(ctx, "/taxonomy/procedure/list/aaa")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "/taxonomy/procedure/list/bbb")
	assert.False(t, ok)

	// Other key families and taxonomies survive
	_, ok, _ = store.Get(ctx, "/taxonomy/procedure/term/1")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "/taxonomy/category/list/ccc")
	assert.True(t, ok)
}

func TestMemoryStoreCapacityEviction(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, store.Len())

	// Oldest entry evicted
	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryStoreClose(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Close())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreDefaultCapacity(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, store.Ping(context.Background()))
}
