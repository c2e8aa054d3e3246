package taxonomy

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// GetTerms returns the taxonomy's terms matching the query. Lookup order:
// session-local map, shared TTL tier, term store; a store result
// populates both tiers before returning. Empty result sets are cached as
// a legitimate answer; store misses of single lookups are not.
func (s *Session) GetTerms(ctx context.Context, taxonomy models.Taxonomy, query TermQuery) ([]models.Term, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	key := s.engine.keys.ListKey(taxonomy.String(), query.options())
	return s.fetchTermList(ctx, key, TTLMedium, func(ctx context.Context) ([]models.Term, error) {
		return s.engine.store.Fetch(ctx, taxonomy, query.filter())
	})
}

// getChildren returns one hierarchy level: the direct children of
// parentID (nil for the root level). Each level is cached independently
// so rebuilding a subtree reuses already-warmed levels.
func (s *Session) getChildren(ctx context.Context, taxonomy models.Taxonomy, parentID *int64) ([]models.Term, error) {
	key := s.engine.keys.ChildrenKey(taxonomy.String(), parentID)

	// The store filter selects roots with an explicit zero parent.
	filterParent := parentID
	if filterParent == nil {
		zero := int64(0)
		filterParent = &zero
	}

	return s.fetchTermList(ctx, key, TTLMedium, func(ctx context.Context) ([]models.Term, error) {
		return s.engine.store.Fetch(ctx, taxonomy, TermFilter{ParentID: filterParent})
	})
}

// GetTermByID returns a single term by its store id. A miss at the store
// is NotFound and is not memoized, so newly created terms are never
// masked by a cached absence.
func (s *Session) GetTermByID(ctx context.Context, taxonomy models.Taxonomy, termID int64) (*models.Term, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}
	if termID <= 0 {
		return nil, internal.NewValidationError("invalid_term_id", "term id must be positive")
	}

	key := s.engine.keys.TermKey(taxonomy.String(), termID)
	return s.fetchSingleTerm(ctx, key, TTLLong, func(ctx context.Context) ([]models.Term, error) {
		return s.engine.store.Fetch(ctx, taxonomy, TermFilter{ID: &termID})
	})
}

// GetTermByExternalID resolves a term by its external API id meta value.
// The lookup is pushed down to the store as a meta filter.
func (s *Session) GetTermByExternalID(ctx context.Context, taxonomy models.Taxonomy, externalID int64) (*models.Term, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	key := s.engine.keys.ExternalKey(taxonomy.String(), externalID)
	return s.fetchSingleTerm(ctx, key, TTLExtended, func(ctx context.Context) ([]models.Term, error) {
		return s.engine.store.Fetch(ctx, taxonomy, TermFilter{
			MetaKey:   models.MetaKeyAPIID,
			MetaValue: strconv.FormatInt(externalID, 10),
		})
	})
}

// GetTermMeta returns a term's meta value for a recognized key. Present
// values are cached with the long TTL class; absence is reported but
// never memoized.
func (s *Session) GetTermMeta(ctx context.Context, taxonomy models.Taxonomy, termID int64, metaKey string) (string, bool, error) {
	if !taxonomy.Valid() {
		return "", false, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}
	if !models.RecognizedMetaKey(taxonomy, metaKey) {
		return "", false, internal.NewValidationError("unknown_meta_key", "meta key not recognized for taxonomy")
	}

	key := s.engine.keys.TermMetaKey(taxonomy.String(), termID, metaKey)

	if value, ok := s.local.get(key); ok {
		return value.(string), true, nil
	}

	if data, ok := s.sharedGet(ctx, key); ok {
		value := string(data)
		s.local.set(key, value)
		return value, true, nil
	}

	value, present, err := s.engine.store.FetchMeta(ctx, termID, metaKey)
	if err != nil {
		return "", false, internal.NewStoreUnavailableError("term store meta fetch failed", err)
	}
	if !present {
		return "", false, nil
	}

	s.sharedSet(ctx, key, []byte(value), TTLLong)
	s.local.set(key, value)
	return value, true, nil
}

// fetchTermList runs the tiered read path for a term list key
func (s *Session) fetchTermList(ctx context.Context, key string, ttl TTLClass, fetch func(context.Context) ([]models.Term, error)) ([]models.Term, error) {
	if value, ok := s.local.get(key); ok {
		return value.([]models.Term), nil
	}

	if data, ok := s.sharedGet(ctx, key); ok {
		var terms []models.Term
		if err := json.Unmarshal(data, &terms); err == nil {
			s.local.set(key, terms)
			return terms, nil
		}
		// A corrupt entry counts as a miss; the refetch below overwrites it.
		s.engine.config.Logger.WithField("key", key).Warn("discarding undecodable shared cache entry")
	}

	terms, err := s.storeFetch(ctx, key, fetch)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("term store fetch failed", err)
	}

	if data, err := json.Marshal(terms); err == nil {
		s.sharedSet(ctx, key, data, ttl)
	}
	s.local.set(key, terms)

	return terms, nil
}

// fetchSingleTerm runs the tiered read path for a single-term key. The
// fetch returns zero or one terms; zero maps to NotFound and is not
// cached.
func (s *Session) fetchSingleTerm(ctx context.Context, key string, ttl TTLClass, fetch func(context.Context) ([]models.Term, error)) (*models.Term, error) {
	if value, ok := s.local.get(key); ok {
		term := value.(models.Term)
		return &term, nil
	}

	if data, ok := s.sharedGet(ctx, key); ok {
		var term models.Term
		if err := json.Unmarshal(data, &term); err == nil {
			s.local.set(key, term)
			return &term, nil
		}
		s.engine.config.Logger.WithField("key", key).Warn("discarding undecodable shared cache entry")
	}

	terms, err := s.storeFetch(ctx, key, fetch)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("term store fetch failed", err)
	}
	if len(terms) == 0 {
		return nil, internal.NewNotFoundError(key)
	}

	term := terms[0]
	if data, err := json.Marshal(term); err == nil {
		s.sharedSet(ctx, key, data, ttl)
	}
	s.local.set(key, term)

	return &term, nil
}

// storeFetch performs the tier-3 store hop, coalescing concurrent
// identical fetches when configured.
func (s *Session) storeFetch(ctx context.Context, key string, fetch func(context.Context) ([]models.Term, error)) ([]models.Term, error) {
	s.engine.config.Logger.WithField("key", key).Debug("cache miss, fetching from term store")

	if !s.engine.config.CoalesceFetches {
		return fetch(ctx)
	}

	result, err, _ := s.engine.group.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Term), nil
}

// sharedGet reads the shared tier. Tier errors are logged and treated as
// misses: the tier is an optimization, and stale-but-unexpired entries
// are left in place on read failure.
func (s *Session) sharedGet(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.engine.shared.Get(ctx, key)
	if err != nil {
		s.engine.config.Logger.WithField("key", key).WithError(err).Warn("shared cache read failed")
		return nil, false
	}
	return data, ok
}

// sharedSet writes the shared tier best-effort
func (s *Session) sharedSet(ctx context.Context, key string, data []byte, ttl TTLClass) {
	if err := s.engine.shared.Set(ctx, key, data, ttl.Duration()); err != nil {
		s.engine.config.Logger.WithField("key", key).WithError(err).Warn("shared cache write failed")
	}
}
