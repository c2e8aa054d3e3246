package sharedcache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity bounds the in-memory tier when no capacity is given.
const DefaultMemoryCapacity = 4096

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store on an in-process LRU with per-entry TTLs.
// It serves single-process deployments and tests; expired entries are
// dropped lazily on read.
type MemoryStore struct {
	lru *lru.Cache[string, memoryEntry]
	mu  sync.RWMutex
}

// NewMemoryStore creates an in-memory shared cache tier with the given
// capacity. A non-positive capacity falls back to DefaultMemoryCapacity.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	l, err := lru.New[string, memoryEntry](capacity)
	if err != nil {
		return nil, err
	}

	return &MemoryStore{lru: l}, nil
}

// Get retrieves the bytes stored under key
func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, ok := ms.lru.Get(key)
	if !ok {
		return nil, false, nil
	}

	if entry.expired(time.Now()) {
		ms.lru.Remove(key)
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores value under key with the given TTL
func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.lru.Add(key, entry)
	return nil
}

// Delete removes the given keys
func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		ms.lru.Remove(key)
	}
	return nil
}

// DeletePrefix removes every key sharing the given prefix
func (ms *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range ms.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			ms.lru.Remove(key)
		}
	}
	return nil
}

// Ping always succeeds for the in-memory tier
func (ms *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close releases the cache contents
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.lru.Purge()
	return nil
}

// Len returns the number of resident entries, expired ones included
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return ms.lru.Len()
}

var _ Store = (*MemoryStore)(nil)
