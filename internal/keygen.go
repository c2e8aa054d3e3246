package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// KeyGenerator defines the interface for generating and validating cache keys
type KeyGenerator interface {
	TermKey(taxonomy string, termID int64) string
	TermMetaKey(taxonomy string, termID int64, metaKey string) string
	TermMetaPrefix(taxonomy string, termID int64) string
	ListKey(taxonomy string, query map[string]string) string
	ChildrenKey(taxonomy string, parentID *int64) string
	ExternalKey(taxonomy string, externalID int64) string
	TaxonomyPrefix(taxonomy string) string
	ListPrefix(taxonomy string) string
	ExternalPrefix(taxonomy string) string
	ValidateKey(key string) error
}

// DefaultKeyGenerator implements the KeyGenerator interface
type DefaultKeyGenerator struct{}

// NewKeyGenerator creates a new DefaultKeyGenerator instance
func NewKeyGenerator() KeyGenerator {
	return &DefaultKeyGenerator{}
}

// TermKey generates a cache key for a single term lookup
// Format: /taxonomy/<taxonomy>/term/<term_id>
func (kg *DefaultKeyGenerator) TermKey(taxonomy string, termID int64) string {
	return fmt.Sprintf("/taxonomy/%s/term/%d", taxonomy, termID)
}

// TermMetaKey generates a cache key for a single term meta value
// Format: /taxonomy/<taxonomy>/term/<term_id>/meta/<meta_key>
func (kg *DefaultKeyGenerator) TermMetaKey(taxonomy string, termID int64, metaKey string) string {
	return fmt.Sprintf("/taxonomy/%s/term/%d/meta/%s", taxonomy, termID, metaKey)
}

// TermMetaPrefix returns the eviction prefix covering every meta key of a term
func (kg *DefaultKeyGenerator) TermMetaPrefix(taxonomy string, termID int64) string {
	return fmt.Sprintf("/taxonomy/%s/term/%d/meta/", taxonomy, termID)
}

// ListKey generates a cache key for a term list query.
// Format: /taxonomy/<taxonomy>/list/<query_hash>
//
// The hash is computed over the canonical form of the query (sorted option
// keys, "k=v" pairs joined by "&") so that semantically identical queries
// hash identically regardless of caller-supplied key order.
func (kg *DefaultKeyGenerator) ListKey(taxonomy string, query map[string]string) string {
	return fmt.Sprintf("/taxonomy/%s/list/%s", taxonomy, QueryHash(query))
}

// ChildrenKey generates a cache key for one hierarchy level. A nil parent
// addresses the root level of the forest.
// Format: /taxonomy/<taxonomy>/children/<parent_id|root>
func (kg *DefaultKeyGenerator) ChildrenKey(taxonomy string, parentID *int64) string {
	if parentID == nil {
		return fmt.Sprintf("/taxonomy/%s/children/root", taxonomy)
	}
	return fmt.Sprintf("/taxonomy/%s/children/%d", taxonomy, *parentID)
}

// ExternalKey generates a cache key for an external-id lookup
// Format: /taxonomy/<taxonomy>/external/<external_id>
func (kg *DefaultKeyGenerator) ExternalKey(taxonomy string, externalID int64) string {
	return fmt.Sprintf("/taxonomy/%s/external/%d", taxonomy, externalID)
}

// TaxonomyPrefix returns the eviction prefix covering every key of a taxonomy
func (kg *DefaultKeyGenerator) TaxonomyPrefix(taxonomy string) string {
	return fmt.Sprintf("/taxonomy/%s/", taxonomy)
}

// ListPrefix returns the eviction prefix covering every list key of a taxonomy
func (kg *DefaultKeyGenerator) ListPrefix(taxonomy string) string {
	return fmt.Sprintf("/taxonomy/%s/list/", taxonomy)
}

// ExternalPrefix returns the eviction prefix covering every external-id key
func (kg *DefaultKeyGenerator) ExternalPrefix(taxonomy string) string {
	return fmt.Sprintf("/taxonomy/%s/external/", taxonomy)
}

// CanonicalQuery serializes query options into their canonical form:
// option keys sorted ascending, each rendered as "k=v", joined by "&".
// Options with empty values are included; a nil or empty map canonicalizes
// to the empty string.
func CanonicalQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+query[k])
	}
	return strings.Join(pairs, "&")
}

// QueryHash returns the deterministic short hash of a query's canonical form
func QueryHash(query map[string]string) string {
	h := sha256.Sum256([]byte(CanonicalQuery(query)))
	return hex.EncodeToString(h[:])[:16]
}

var invalidKeyChars = regexp.MustCompile(`[^\w\-/.]`)

// ValidateKey validates that a cache key follows the expected format and constraints
func (kg *DefaultKeyGenerator) ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if !strings.HasPrefix(key, "/taxonomy/") {
		return fmt.Errorf("key must start with '/taxonomy/': %s", key)
	}

	// Control characters and null bytes (security)
	for i, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("key contains control character at position %d: %s", i, key)
		}
	}

	if strings.Contains(key, "..") {
		return fmt.Errorf("key contains path traversal sequence: %s", key)
	}

	if invalidKeyChars.MatchString(key) {
		return fmt.Errorf("key contains invalid characters: %s", key)
	}

	if strings.Contains(key, "//") {
		return fmt.Errorf("key contains double slashes: %s", key)
	}

	// Conservative bound, well under the Redis key limit
	if len(key) > 250 {
		return fmt.Errorf("key exceeds maximum length of 250 characters")
	}

	parts := strings.Split(key, "/")
	// parts[0] is the empty segment before the leading slash
	if len(parts) < 4 || parts[1] != "taxonomy" || parts[2] == "" {
		return fmt.Errorf("key does not match any expected pattern: %s", key)
	}

	switch parts[3] {
	case "term":
		if len(parts) != 5 && !(len(parts) == 7 && parts[5] == "meta" && parts[6] != "") {
			return fmt.Errorf("invalid term key format: %s", key)
		}
		if parts[4] == "" {
			return fmt.Errorf("term ID cannot be empty in key: %s", key)
		}
	case "list", "children", "external":
		if len(parts) != 5 || parts[4] == "" {
			return fmt.Errorf("invalid %s key format: %s", parts[3], key)
		}
	default:
		return fmt.Errorf("key does not match any expected pattern: %s", key)
	}

	return nil
}
