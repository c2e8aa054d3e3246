// Package gallerytaxonomy provides a two-tier caching and hierarchy engine
// for gallery taxonomy terms (categories and procedures).
//
// This module implements a read-through caching layer over an external term
// store that supports:
//   - Two-tier reads: request-scoped local maps over a shared TTL tier
//   - Hierarchy materialization with cycle detection and sibling ordering
//   - Idempotent bulk import with per-record failure collection
//   - Round-trip export ordered parents-before-children
//   - Cross-taxonomy search ranked by usage count
//   - Mutation-driven cache invalidation cascades
//   - Typed errors and configurable retry logic with exponential backoff
//
// # Architecture
//
// The shared tier uses a hierarchical key structure:
//   - Single terms:       /taxonomy/<taxonomy>/term/<id>
//   - Term meta:          /taxonomy/<taxonomy>/term/<id>/meta/<key>
//   - Filtered lists:     /taxonomy/<taxonomy>/list/<query-hash>
//   - Hierarchy levels:   /taxonomy/<taxonomy>/children/<parent-id|root>
//   - External id lookup: /taxonomy/<taxonomy>/external/<api-id>
//
// Whole key families are evicted by prefix, so an invalidation cascade
// never needs to enumerate the queries that produced the cached lists.
//
// # Basic Usage
//
// Create an engine over a term store and a shared cache tier:
//
//	shared, err := sharedcache.NewRedisStore(sharedcache.RedisConfigFromEnv())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shared.Close()
//
//	engine, err := taxonomy.NewEngine(store, shared, taxonomy.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Each logical request gets its own session, which carries the local
// cache tier:
//
//	session := engine.NewSession()
//
//	terms, err := session.GetTerms(ctx, models.TaxonomyProcedure, taxonomy.TermQuery{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	forest, err := session.GetTermHierarchy(ctx, models.TaxonomyCategory, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// Engine operations return typed errors classified by failure mode:
//
//	term, err := session.GetTermByID(ctx, models.TaxonomyProcedure, 42)
//	if err != nil {
//	    switch {
//	    case taxonomy.IsNotFoundError(err):
//	        // the term does not exist in the store
//	    case taxonomy.IsStoreUnavailableError(err):
//	        // the term store could not answer; nothing was guessed
//	    case taxonomy.IsValidationError(err):
//	        // bad input
//	    default:
//	        log.Fatal(err)
//	    }
//	}
//
// Misses of the cache tiers are never errors; they fall through to the
// next tier. A store failure is surfaced as StoreUnavailable rather than
// served from a possibly-stale cache entry.
//
// # API Separation
//
// Public packages:
//   - taxonomy - engine, sessions, import/export, search, invalidation
//   - sharedcache - the shared tier contract with Redis and in-memory stores
//   - models - terms, hierarchies, import records, mutation events
//   - termstore - in-memory term store for tests and demos
//
// The internal package holds the Redis client wrapper, key generation,
// and typed errors; it may change without notice.
//
// # Examples
//
// See the examples directory for complete usage examples:
//   - examples/import_hierarchy_example/ - bulk import and hierarchy building
//   - examples/search_example/ - cross-taxonomy ranked search
package gallerytaxonomy
