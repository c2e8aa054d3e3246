// Package termstore provides term store implementations for the taxonomy
// engine. MemoryStore is a self-contained in-memory store suitable for
// tests and demos; production deployments wire the engine to the real
// persistent store behind the same interface.
package termstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/bragbook2/brag-book-gallery-sub019/models"
	"github.com/bragbook2/brag-book-gallery-sub019/taxonomy"
)

// MemoryStore is an in-memory TermStore. It is safe for concurrent use
// and pushes mutation notifications to subscribed handlers synchronously,
// in mutation order.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	terms    map[int64]models.Term
	meta     map[int64]map[string]string
	handlers []taxonomy.MutationHandler
}

// NewMemoryStore creates an empty in-memory term store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		terms:  make(map[int64]models.Term),
		meta:   make(map[int64]map[string]string),
	}
}

// Subscribe registers a mutation handler. Handlers run synchronously on
// the mutating goroutine.
func (ms *MemoryStore) Subscribe(handler taxonomy.MutationHandler) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers = append(ms.handlers, handler)
}

// Fetch returns every term of the taxonomy matching the filter.
func (ms *MemoryStore) Fetch(ctx context.Context, tax models.Taxonomy, filter taxonomy.TermFilter) ([]models.Term, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	matched := make([]models.Term, 0)
	for _, term := range ms.terms {
		if term.Taxonomy != tax {
			continue
		}
		if !ms.matches(term, filter) {
			continue
		}
		matched = append(matched, term)
	}
	return matched, nil
}

func (ms *MemoryStore) matches(term models.Term, filter taxonomy.TermFilter) bool {
	if filter.ID != nil && term.ID != *filter.ID {
		return false
	}
	if filter.ParentID != nil {
		if *filter.ParentID == 0 {
			if term.ParentID != nil {
				return false
			}
		} else if term.ParentID == nil || *term.ParentID != *filter.ParentID {
			return false
		}
	}
	if filter.Slug != "" && term.Slug != filter.Slug {
		return false
	}
	if filter.NameSubstring != "" &&
		!strings.Contains(strings.ToLower(term.Name), strings.ToLower(filter.NameSubstring)) {
		return false
	}
	if filter.MetaKey != "" {
		value, ok := ms.meta[term.ID][filter.MetaKey]
		if !ok || value != filter.MetaValue {
			return false
		}
	}
	if filter.HideEmpty && term.Count == 0 {
		return false
	}
	return true
}

// FetchMeta returns a term's meta value, reporting absence distinctly.
func (ms *MemoryStore) FetchMeta(ctx context.Context, termID int64, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	value, ok := ms.meta[termID][key]
	return value, ok, nil
}

// WriteMeta writes a term's meta value and notifies subscribers.
func (ms *MemoryStore) WriteMeta(ctx context.Context, termID int64, key, value string) error {
	ms.mu.Lock()
	term, ok := ms.terms[termID]
	if !ok {
		ms.mu.Unlock()
		return errors.Errorf("term %d does not exist", termID)
	}
	if ms.meta[termID] == nil {
		ms.meta[termID] = make(map[string]string)
	}
	ms.meta[termID][key] = value
	handlers := ms.handlers
	ms.mu.Unlock()

	ms.notify(ctx, handlers, models.MutationEvent{
		Type:     models.MutationUpdated,
		Taxonomy: term.Taxonomy,
		TermID:   term.ID,
		ParentID: term.ParentID,
		At:       time.Now(),
	})
	return nil
}

// Create inserts a new term and notifies subscribers.
func (ms *MemoryStore) Create(ctx context.Context, tax models.Taxonomy, name, slug string, parentID *int64, description string) (int64, error) {
	ms.mu.Lock()
	if parentID != nil {
		if _, ok := ms.terms[*parentID]; !ok {
			ms.mu.Unlock()
			return 0, errors.Errorf("parent term %d does not exist", *parentID)
		}
	}

	id := ms.nextID
	ms.nextID++
	term := models.Term{
		ID:          id,
		Taxonomy:    tax,
		Name:        name,
		Slug:        slug,
		Description: description,
		ParentID:    parentID,
	}
	ms.terms[id] = term
	handlers := ms.handlers
	ms.mu.Unlock()

	ms.notify(ctx, handlers, models.MutationEvent{
		Type:     models.MutationCreated,
		Taxonomy: tax,
		TermID:   id,
		ParentID: parentID,
		At:       time.Now(),
	})
	return id, nil
}

// Update mutates an existing term and notifies subscribers.
func (ms *MemoryStore) Update(ctx context.Context, termID int64, fields taxonomy.TermUpdate) error {
	ms.mu.Lock()
	term, ok := ms.terms[termID]
	if !ok {
		ms.mu.Unlock()
		return errors.Errorf("term %d does not exist", termID)
	}

	if fields.Name != nil {
		term.Name = *fields.Name
	}
	if fields.Description != nil {
		term.Description = *fields.Description
	}
	if fields.ParentID != nil {
		if *fields.ParentID == 0 {
			term.ParentID = nil
		} else {
			parent := *fields.ParentID
			term.ParentID = &parent
		}
	}
	ms.terms[termID] = term
	handlers := ms.handlers
	ms.mu.Unlock()

	ms.notify(ctx, handlers, models.MutationEvent{
		Type:     models.MutationUpdated,
		Taxonomy: term.Taxonomy,
		TermID:   term.ID,
		ParentID: term.ParentID,
		At:       time.Now(),
	})
	return nil
}

// Delete removes a term and its meta, then notifies subscribers.
func (ms *MemoryStore) Delete(ctx context.Context, termID int64) error {
	ms.mu.Lock()
	term, ok := ms.terms[termID]
	if !ok {
		ms.mu.Unlock()
		return errors.Errorf("term %d does not exist", termID)
	}
	delete(ms.terms, termID)
	delete(ms.meta, termID)
	handlers := ms.handlers
	ms.mu.Unlock()

	ms.notify(ctx, handlers, models.MutationEvent{
		Type:     models.MutationDeleted,
		Taxonomy: term.Taxonomy,
		TermID:   term.ID,
		ParentID: term.ParentID,
		At:       time.Now(),
	})
	return nil
}

// SetCount overwrites a term's usage count. Counts come from outside the
// engine's write paths, so this is a test and demo convenience.
func (ms *MemoryStore) SetCount(termID, count int64) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if term, ok := ms.terms[termID]; ok {
		term.Count = count
		ms.terms[termID] = term
	}
}

func (ms *MemoryStore) notify(ctx context.Context, handlers []taxonomy.MutationHandler, event models.MutationEvent) {
	for _, handler := range handlers {
		handler(ctx, event)
	}
}

var (
	_ taxonomy.TermStore        = (*MemoryStore)(nil)
	_ taxonomy.MutationNotifier = (*MemoryStore)(nil)
)
