package taxonomy

import (
	"context"

	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// TermFilter narrows a term store fetch. Filtering is pushed down to the
// store rather than applied in memory so result sizes stay bounded.
// The zero value matches every term of the taxonomy.
type TermFilter struct {
	// ID selects a single term by its store id
	ID *int64
	// ParentID selects direct children of a parent. Nil leaves parentage
	// unconstrained; a pointer to zero selects root terms (no parent).
	ParentID *int64
	// Slug selects the term carrying this slug (unique per taxonomy)
	Slug string
	// NameSubstring selects terms whose name contains this substring
	// (case-insensitive)
	NameSubstring string
	// MetaKey/MetaValue select terms carrying this exact meta value
	MetaKey   string
	MetaValue string
	// HideEmpty drops terms with a zero usage count
	HideEmpty bool
}

// TermUpdate carries the mutable term fields for a store update. Nil
// fields are left untouched.
type TermUpdate struct {
	Name        *string
	Description *string
	ParentID    *int64
}

// TermStore is the collaborator contract for the external persistent term
// store. The engine only mirrors terms; the store is the source of truth
// and the only component that originates or destroys them.
//
// Implementations are expected to be idempotent for reads. Errors returned
// from any method are treated as infrastructure failures and surface to
// engine callers as StoreUnavailable.
type TermStore interface {
	// Fetch returns every term of the taxonomy matching the filter.
	Fetch(ctx context.Context, taxonomy models.Taxonomy, filter TermFilter) ([]models.Term, error)

	// FetchMeta returns a term's meta value for key, reporting absence
	// distinctly from an empty value.
	FetchMeta(ctx context.Context, termID int64, key string) (string, bool, error)

	// WriteMeta writes a term's meta value for key.
	WriteMeta(ctx context.Context, termID int64, key, value string) error

	// Create inserts a new term and returns its id.
	Create(ctx context.Context, taxonomy models.Taxonomy, name, slug string, parentID *int64, description string) (int64, error)

	// Update mutates an existing term.
	Update(ctx context.Context, termID int64, fields TermUpdate) error

	// Delete removes a term.
	Delete(ctx context.Context, termID int64) error
}

// MutationHandler consumes a typed term store mutation notification.
type MutationHandler func(ctx context.Context, event models.MutationEvent)

// MutationNotifier is implemented by term stores that push mutation
// notifications. The engine subscribes its invalidation coordinator at
// construction time when the store supports it, replacing any reliance on
// ambient global dispatch.
type MutationNotifier interface {
	Subscribe(handler MutationHandler)
}
