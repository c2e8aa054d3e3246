// Package taxonomy implements the term cache and hierarchy engine for the
// two-axis gallery classification system (categories and procedures).
//
// The engine keeps an in-process view of the external term store
// synchronized through a two-tier cache (a request-scoped local map in
// front of a shared TTL tier), materializes parent/child hierarchies,
// performs idempotent bulk import/export, serves cross-taxonomy search
// with relevance ranking, and cascades cache eviction on term mutations.
//
// Shared state lives on an Engine; request-scoped work happens on a
// Session obtained from Engine.NewSession. A Session owns the local cache
// tier for one logical operation and must not be shared across goroutines.
package taxonomy

import (
	"context"
	"strconv"
	"time"

	"github.com/apex/log"

	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// TTLClass selects the shared-tier expiry for a query shape.
type TTLClass int

const (
	// TTLShort is for highly volatile entries (5 minutes)
	TTLShort TTLClass = iota
	// TTLMedium is for list and hierarchy queries (30 minutes)
	TTLMedium
	// TTLLong is for single-term and meta lookups (1 hour)
	TTLLong
	// TTLExtended is for external-id mappings (2 hours)
	TTLExtended
)

// Duration returns the expiry duration of the TTL class
func (c TTLClass) Duration() time.Duration {
	switch c {
	case TTLShort:
		return 5 * time.Minute
	case TTLMedium:
		return 30 * time.Minute
	case TTLLong:
		return time.Hour
	case TTLExtended:
		return 2 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// TermQuery describes a cached term list query. Semantically identical
// queries produce identical cache keys regardless of how the caller
// assembled them.
type TermQuery struct {
	// ParentID restricts results to direct children of a parent
	ParentID *int64
	// NameSubstring restricts results to names containing the substring
	NameSubstring string
	// HideEmpty drops terms with a zero usage count
	HideEmpty bool
}

// filter converts the query to its store-side push-down form
func (q TermQuery) filter() TermFilter {
	return TermFilter{
		ParentID:      q.ParentID,
		NameSubstring: q.NameSubstring,
		HideEmpty:     q.HideEmpty,
	}
}

// options renders the query as canonicalizable key/value options
func (q TermQuery) options() map[string]string {
	parent := ""
	if q.ParentID != nil {
		parent = strconv.FormatInt(*q.ParentID, 10)
	}
	hideEmpty := "0"
	if q.HideEmpty {
		hideEmpty = "1"
	}
	return map[string]string{
		"parent":     parent,
		"name_like":  q.NameSubstring,
		"hide_empty": hideEmpty,
	}
}

// Config configures an Engine
type Config struct {
	// Logger receives engine diagnostics; defaults to the apex root logger
	Logger log.Interface
	// CoalesceFetches collapses concurrent identical term store fetches
	// into one store round trip. Off by default: the store is idempotent
	// and read-only on this path, so duplicate fetches are merely wasteful.
	CoalesceFetches bool
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Logger:          log.Log,
		CoalesceFetches: false,
	}
}

// Service is the engine interface exposed to callers (admin UI, sync
// jobs, public listing code). It is implemented by Session.
type Service interface {
	// GetTerms returns the taxonomy's terms matching the query, cached.
	GetTerms(ctx context.Context, taxonomy models.Taxonomy, query TermQuery) ([]models.Term, error)

	// GetTermByID returns a single term; a miss is NotFound, not an
	// infrastructure error.
	GetTermByID(ctx context.Context, taxonomy models.Taxonomy, termID int64) (*models.Term, error)

	// GetTermByExternalID resolves a term by its external API id meta.
	GetTermByExternalID(ctx context.Context, taxonomy models.Taxonomy, externalID int64) (*models.Term, error)

	// GetTermMeta returns a term's recognized meta value, cached.
	GetTermMeta(ctx context.Context, taxonomy models.Taxonomy, termID int64, key string) (string, bool, error)

	// GetTermHierarchy materializes the parent/child forest rooted at
	// rootParentID (nil for the taxonomy's whole forest).
	GetTermHierarchy(ctx context.Context, taxonomy models.Taxonomy, rootParentID *int64) ([]*models.HierarchyNode, error)

	// SearchTerms runs a cross-taxonomy substring search ranked by usage.
	SearchTerms(ctx context.Context, query string, taxonomies ...models.Taxonomy) ([]models.SearchResult, error)

	// BulkImport applies an ordered record batch with create-or-update
	// dedup and per-record failure collection.
	BulkImport(ctx context.Context, taxonomy models.Taxonomy, records []models.ImportRecord) (*models.ImportResult, error)

	// ExportTerms flattens the taxonomy to import records, parents first.
	ExportTerms(ctx context.Context, taxonomy models.Taxonomy) ([]models.ImportRecord, error)

	// ClearTaxonomyCache evicts every cache entry of the taxonomy from
	// both tiers.
	ClearTaxonomyCache(ctx context.Context, taxonomy models.Taxonomy) error
}
