package taxonomy

import (
	"context"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
	"github.com/bragbook2/brag-book-gallery-sub019/sharedcache"
)

// Invalidator coordinates shared-tier eviction after term mutations. It
// over-evicts rather than risking staleness: any key family that could
// contain the mutated term is swept, including every cached list of the
// taxonomy, since membership of an arbitrary filtered list cannot be
// decided from the outside.
type Invalidator struct {
	shared sharedcache.Store
	keys   internal.KeyGenerator
	logger log.Interface
}

// NewInvalidator creates an invalidation coordinator over the shared tier
func NewInvalidator(shared sharedcache.Store, keys internal.KeyGenerator, logger log.Interface) *Invalidator {
	return &Invalidator{shared: shared, keys: keys, logger: logger}
}

// InvalidateTerm evicts every shared-tier entry that could hold the term:
// its single-term key, its meta entries, the hierarchy level it sits in,
// the level of its own children, every cached list, and every external-id
// mapping of the taxonomy. All evictions are attempted; the first error
// is returned after the sweep completes.
func (inv *Invalidator) InvalidateTerm(ctx context.Context, taxonomy models.Taxonomy, termID int64, parentID *int64) error {
	tax := taxonomy.String()

	var firstErr error
	record := func(err error, what string) {
		if err == nil {
			return
		}
		inv.logger.WithFields(log.Fields{
			"taxonomy": tax,
			"term_id":  termID,
		}).WithError(err).Warn("eviction failed: " + what)
		if firstErr == nil {
			firstErr = errors.Wrap(err, what)
		}
	}

	record(inv.shared.Delete(ctx, inv.keys.TermKey(tax, termID)), "term key")
	record(inv.shared.DeletePrefix(ctx, inv.keys.TermMetaPrefix(tax, termID)), "term meta prefix")

	// The sibling level the term lives in, and the level of its own
	// children in case the mutation reparented or removed it.
	record(inv.shared.Delete(ctx, inv.keys.ChildrenKey(tax, parentID)), "parent children level")
	record(inv.shared.Delete(ctx, inv.keys.ChildrenKey(tax, &termID)), "own children level")

	// List keys are opaque query hashes; any of them could include the term.
	record(inv.shared.DeletePrefix(ctx, inv.keys.ListPrefix(tax)), "list prefix")
	record(inv.shared.DeletePrefix(ctx, inv.keys.ExternalPrefix(tax)), "external id prefix")

	if firstErr == nil {
		inv.logger.WithFields(log.Fields{
			"taxonomy": tax,
			"term_id":  termID,
		}).Debug("term eviction cascade complete")
	}
	return firstErr
}

// InvalidateTaxonomy evicts every shared-tier entry under the taxonomy
func (inv *Invalidator) InvalidateTaxonomy(ctx context.Context, taxonomy models.Taxonomy) error {
	prefix := inv.keys.TaxonomyPrefix(taxonomy.String())
	if err := inv.shared.DeletePrefix(ctx, prefix); err != nil {
		return errors.Wrapf(err, "evicting taxonomy prefix %q", prefix)
	}
	inv.logger.WithField("taxonomy", taxonomy.String()).Debug("taxonomy eviction complete")
	return nil
}
