package taxonomy

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// MockTermStore is a mock implementation of TermStore for testing
type MockTermStore struct {
	mock.Mock
}

func (m *MockTermStore) Fetch(ctx context.Context, taxonomy models.Taxonomy, filter TermFilter) ([]models.Term, error) {
	args := m.Called(ctx, taxonomy, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Term), args.Error(1)
}

func (m *MockTermStore) FetchMeta(ctx context.Context, termID int64, key string) (string, bool, error) {
	args := m.Called(ctx, termID, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockTermStore) WriteMeta(ctx context.Context, termID int64, key, value string) error {
	args := m.Called(ctx, termID, key, value)
	return args.Error(0)
}

func (m *MockTermStore) Create(ctx context.Context, taxonomy models.Taxonomy, name, slug string, parentID *int64, description string) (int64, error) {
	args := m.Called(ctx, taxonomy, name, slug, parentID, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTermStore) Update(ctx context.Context, termID int64, fields TermUpdate) error {
	args := m.Called(ctx, termID, fields)
	return args.Error(0)
}

func (m *MockTermStore) Delete(ctx context.Context, termID int64) error {
	args := m.Called(ctx, termID)
	return args.Error(0)
}

// MockSharedStore is a mock implementation of sharedcache.Store for testing
type MockSharedStore struct {
	mock.Mock
}

func (m *MockSharedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockSharedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockSharedStore) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockSharedStore) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func (m *MockSharedStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSharedStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
