package taxonomy

import (
	"context"
	"strings"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
	"github.com/bragbook2/brag-book-gallery-sub019/sharedcache"
)

// Engine holds the state shared across requests: the term store
// collaborator, the shared TTL cache tier, and the invalidation
// coordinator. Engines are safe for concurrent use; per-request state
// lives on Sessions.
type Engine struct {
	store  TermStore
	shared sharedcache.Store
	keys   internal.KeyGenerator
	config *Config
	inv    *Invalidator
	group  singleflight.Group
}

// NewEngine creates a taxonomy engine over the given term store and
// shared cache tier. If the store implements MutationNotifier, the
// invalidation coordinator is subscribed to its mutation events.
func NewEngine(store TermStore, shared sharedcache.Store, config *Config) (*Engine, error) {
	if store == nil {
		return nil, internal.NewValidationError("missing_store", "term store cannot be nil")
	}
	if shared == nil {
		return nil, internal.NewValidationError("missing_shared_cache", "shared cache tier cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	keys := internal.NewKeyGenerator()
	e := &Engine{
		store:  store,
		shared: shared,
		keys:   keys,
		config: config,
		inv:    NewInvalidator(shared, keys, config.Logger),
	}

	if notifier, ok := store.(MutationNotifier); ok {
		notifier.Subscribe(e.HandleMutation)
		config.Logger.Debug("subscribed to term store mutation events")
	}

	return e, nil
}

// NewEngineWithDependencies creates an engine with injected dependencies for testing
func NewEngineWithDependencies(store TermStore, shared sharedcache.Store, keys internal.KeyGenerator, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	return &Engine{
		store:  store,
		shared: shared,
		keys:   keys,
		config: config,
		inv:    NewInvalidator(shared, keys, config.Logger),
	}
}

// NewSession creates a request-scoped session. The session carries the
// process-local cache tier for one logical operation and is discarded at
// its end; it must not be used from more than one goroutine.
func (e *Engine) NewSession() *Session {
	return &Session{
		engine: e,
		local:  newLocalCache(),
	}
}

// HandleMutation reacts to a term store mutation notification by
// cascading eviction across the shared tier. Session-local tiers are not
// reachable from here; they are request-scoped and cleared by the
// sessions that drive mutations themselves.
func (e *Engine) HandleMutation(ctx context.Context, event models.MutationEvent) {
	e.config.Logger.WithFields(log.Fields{
		"type":     event.Type.String(),
		"taxonomy": event.Taxonomy.String(),
		"term_id":  event.TermID,
	}).Debug("term store mutation")

	if err := e.inv.InvalidateTerm(ctx, event.Taxonomy, event.TermID, event.ParentID); err != nil {
		e.config.Logger.WithError(err).Warn("mutation-driven invalidation failed")
	}
}

// InvalidateTerm evicts every shared-tier entry that could contain the term
func (e *Engine) InvalidateTerm(ctx context.Context, taxonomy models.Taxonomy, termID int64, parentID *int64) error {
	return e.inv.InvalidateTerm(ctx, taxonomy, termID, parentID)
}

// InvalidateTaxonomy evicts every shared-tier entry of the taxonomy
func (e *Engine) InvalidateTaxonomy(ctx context.Context, taxonomy models.Taxonomy) error {
	return e.inv.InvalidateTaxonomy(ctx, taxonomy)
}

// Ping reports whether the shared cache tier is reachable
func (e *Engine) Ping(ctx context.Context) error {
	return e.shared.Ping(ctx)
}

// Close releases the shared cache tier
func (e *Engine) Close() error {
	return e.shared.Close()
}

// Session is the request-scoped face of the engine. It implements Service.
type Session struct {
	engine *Engine
	local  *localCache
}

// ClearTaxonomyCache evicts every cache entry of the taxonomy from the
// session-local map and the shared tier.
func (s *Session) ClearTaxonomyCache(ctx context.Context, taxonomy models.Taxonomy) error {
	if !taxonomy.Valid() {
		return internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	s.local.clearPrefix(s.engine.keys.TaxonomyPrefix(taxonomy.String()))
	return s.engine.inv.InvalidateTaxonomy(ctx, taxonomy)
}

// invalidateTerm cascades eviction for one term across both tiers. The
// local tier is over-evicted per taxonomy: it is request-scoped and cheap
// to repopulate.
func (s *Session) invalidateTerm(ctx context.Context, taxonomy models.Taxonomy, termID int64, parentID *int64) error {
	s.local.clearPrefix(s.engine.keys.TaxonomyPrefix(taxonomy.String()))
	return s.engine.inv.InvalidateTerm(ctx, taxonomy, termID, parentID)
}

// localCache is the process-local cache tier. It is scoped to one logical
// request, never persisted, and needs no synchronization because a
// session is single-goroutine by contract.
type localCache struct {
	entries map[string]any
}

func newLocalCache() *localCache {
	return &localCache{entries: make(map[string]any)}
}

func (lc *localCache) get(key string) (any, bool) {
	value, ok := lc.entries[key]
	return value, ok
}

func (lc *localCache) set(key string, value any) {
	lc.entries[key] = value
}

func (lc *localCache) clearPrefix(prefix string) {
	for key := range lc.entries {
		if strings.HasPrefix(key, prefix) {
			delete(lc.entries, key)
		}
	}
}

var _ Service = (*Session)(nil)
