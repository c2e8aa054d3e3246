package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxNameLength is the maximum accepted length for a term name.
const MaxNameLength = 200

// Taxonomy identifies one of the two classification axes.
type Taxonomy int

const (
	// TaxonomyCategory is the top-level gallery category axis
	TaxonomyCategory Taxonomy = iota
	// TaxonomyProcedure is the procedure axis
	TaxonomyProcedure
)

// String returns the string representation of the taxonomy
func (t Taxonomy) String() string {
	switch t {
	case TaxonomyCategory:
		return "category"
	case TaxonomyProcedure:
		return "procedure"
	default:
		return "unknown"
	}
}

// Valid reports whether the taxonomy is one of the known axes
func (t Taxonomy) Valid() bool {
	return t == TaxonomyCategory || t == TaxonomyProcedure
}

// AllTaxonomies returns every known taxonomy, in declaration order.
func AllTaxonomies() []Taxonomy {
	return []Taxonomy{TaxonomyCategory, TaxonomyProcedure}
}

// Term is a single node within a taxonomy, mirrored from the term store.
// The cache never originates a Term; the store is the source of truth.
type Term struct {
	ID          int64    `json:"id"`
	Taxonomy    Taxonomy `json:"taxonomy"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	ParentID    *int64   `json:"parent_id,omitempty"`
	Count       int64    `json:"count"`
}

// Validate validates the Term data integrity
func (t *Term) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("term ID must be positive, got %d", t.ID)
	}

	if !t.Taxonomy.Valid() {
		return fmt.Errorf("unknown taxonomy: %d", int(t.Taxonomy))
	}

	if t.Name == "" {
		return fmt.Errorf("term name cannot be empty")
	}

	if len(t.Name) > MaxNameLength {
		return fmt.Errorf("term name exceeds maximum length of %d characters", MaxNameLength)
	}

	if !utf8.ValidString(t.Name) {
		return fmt.Errorf("term name contains invalid UTF-8")
	}

	if t.Slug == "" {
		return fmt.Errorf("term slug cannot be empty")
	}

	// A term may not be its own parent; deeper cycles are the
	// hierarchy builder's job to reject.
	if t.ParentID != nil && *t.ParentID == t.ID {
		return fmt.Errorf("term %d cannot be its own parent", t.ID)
	}

	return nil
}

// MetaKind is the value kind of a recognized meta key.
type MetaKind int

const (
	// MetaInt is an integer-valued meta key
	MetaInt MetaKind = iota
	// MetaBool is a boolean-valued meta key
	MetaBool
	// MetaString is a string-valued meta key
	MetaString
)

// Recognized meta keys.
const (
	MetaKeyAPIID          = "api_id"
	MetaKeyDisplayOrder   = "display_order"
	MetaKeySlugName       = "slug_name"
	MetaKeyContainsNudity = "contains_nudity"
	MetaKeyCaseCount      = "case_count"
)

var categoryMetaSchema = map[string]MetaKind{
	MetaKeyAPIID:        MetaInt,
	MetaKeyDisplayOrder: MetaInt,
}

var procedureMetaSchema = map[string]MetaKind{
	MetaKeyAPIID:          MetaInt,
	MetaKeySlugName:       MetaString,
	MetaKeyContainsNudity: MetaBool,
	MetaKeyCaseCount:      MetaInt,
}

// MetaSchema returns the closed set of recognized meta keys for a taxonomy
// and their value kinds. Keys outside the schema are rejected at the model
// boundary; the importer drops them silently instead.
func MetaSchema(t Taxonomy) map[string]MetaKind {
	switch t {
	case TaxonomyCategory:
		return categoryMetaSchema
	case TaxonomyProcedure:
		return procedureMetaSchema
	default:
		return nil
	}
}

// RecognizedMetaKey reports whether key is part of the taxonomy's schema.
func RecognizedMetaKey(t Taxonomy, key string) bool {
	_, ok := MetaSchema(t)[key]
	return ok
}

// HierarchyNode is one node of a materialized parent/child forest.
// Children are ordered per the sibling ordering rules.
type HierarchyNode struct {
	Term     Term             `json:"term"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// ImportRecord is one record of a bulk import batch, and the unit the
// exporter emits. Meta holds only recognized keys after export; on import
// unrecognized keys are dropped.
type ImportRecord struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug,omitempty"`
	ParentSlug  string         `json:"parent_slug,omitempty"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// FailedRecord pairs a rejected import record with the rejection reason.
type FailedRecord struct {
	Record ImportRecord `json:"record"`
	Reason string       `json:"reason"`
}

// ImportResult is the aggregate outcome of one bulk import batch.
type ImportResult struct {
	Created []int64        `json:"created"`
	Updated []int64        `json:"updated"`
	Failed  []FailedRecord `json:"failed"`
}

// MutationType classifies a term store mutation notification.
type MutationType int

const (
	// MutationCreated signals a new term was written to the store
	MutationCreated MutationType = iota
	// MutationUpdated signals an existing term changed
	MutationUpdated
	// MutationDeleted signals a term was removed from the store
	MutationDeleted
)

// String returns the string representation of the mutation type
func (m MutationType) String() string {
	switch m {
	case MutationCreated:
		return "created"
	case MutationUpdated:
		return "updated"
	case MutationDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MutationEvent is a typed term store mutation notification consumed by
// the invalidation coordinator. ParentID is the term's parent at the time
// of the mutation so the affected children level can be evicted without a
// read back through the store.
type MutationEvent struct {
	Type     MutationType `json:"type"`
	Taxonomy Taxonomy     `json:"taxonomy"`
	TermID   int64        `json:"term_id"`
	ParentID *int64       `json:"parent_id,omitempty"`
	At       time.Time    `json:"at"`
}

// SearchResult is one ranked hit of a cross-taxonomy search.
type SearchResult struct {
	TermID   int64    `json:"term_id"`
	Taxonomy Taxonomy `json:"taxonomy"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Count    int64    `json:"count"`
}
