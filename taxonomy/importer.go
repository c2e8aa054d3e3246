package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// Import failure reasons collected per record.
const (
	FailMissingName   = "missing_name"
	FailNameTooLong   = "name_too_long"
	FailInvalidSlug   = "invalid_slug"
	FailUnknownParent = "unknown_parent"
	FailInvalidMeta   = "invalid_meta"
)

// BulkImport applies an ordered record batch to the taxonomy with
// create-or-update dedup resolved by slug. One bad record never aborts
// the batch: validation failures are collected under Failed and
// processing continues. The batch aborts only on a term store failure,
// returning whatever was accumulated so far plus the error.
//
// Records are processed in input order and never reordered, so callers
// must submit parents before their children. Re-running the same batch
// against an already-imported state creates nothing and leaves term and
// meta state unchanged.
func (s *Session) BulkImport(ctx context.Context, taxonomy models.Taxonomy, records []models.ImportRecord) (*models.ImportResult, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	result := &models.ImportResult{
		Created: []int64{},
		Updated: []int64{},
		Failed:  []models.FailedRecord{},
	}

	// Slugs resolved during this batch, so later records can reference
	// parents created a few records earlier without a store round trip.
	batchSlugs := make(map[string]int64)

	for _, record := range records {
		termID, created, failReason, err := s.importRecord(ctx, taxonomy, record, batchSlugs)
		if err != nil {
			return result, err
		}
		if failReason != "" {
			result.Failed = append(result.Failed, models.FailedRecord{Record: record, Reason: failReason})
			continue
		}
		if created {
			result.Created = append(result.Created, termID)
		} else {
			result.Updated = append(result.Updated, termID)
		}
	}

	// Bulk import touched many terms; sweep the whole taxonomy.
	if err := s.ClearTaxonomyCache(ctx, taxonomy); err != nil {
		s.engine.config.Logger.WithError(err).Warn("post-import cache sweep failed")
	}

	s.engine.config.Logger.WithFields(log.Fields{
		"taxonomy": taxonomy.String(),
		"created":  len(result.Created),
		"updated":  len(result.Updated),
		"failed":   len(result.Failed),
	}).Info("bulk import finished")

	return result, nil
}

// importRecord processes a single record. A non-empty failReason marks a
// per-record rejection; a non-nil error is an infrastructure failure that
// aborts the batch.
func (s *Session) importRecord(ctx context.Context, taxonomy models.Taxonomy, record models.ImportRecord, batchSlugs map[string]int64) (termID int64, created bool, failReason string, err error) {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return 0, false, FailMissingName, nil
	}
	if len(name) > models.MaxNameLength {
		return 0, false, FailNameTooLong, nil
	}

	slug := strings.TrimSpace(record.Slug)
	if slug == "" {
		slug = internal.Slugify(name)
	}
	if slug == "" {
		return 0, false, FailInvalidSlug, nil
	}

	// Coerce meta against the taxonomy schema before touching the store,
	// so a rejected record leaves no partial writes behind. Unrecognized
	// keys are dropped silently.
	meta, metaOK := coerceMeta(taxonomy, record.Meta)
	if !metaOK {
		return 0, false, FailInvalidMeta, nil
	}

	// Dedup by (taxonomy, slug). The lookup goes straight to the store:
	// cached lists could predate terms created earlier in this batch.
	existing, err := s.lookupBySlug(ctx, taxonomy, slug)
	if err != nil {
		return 0, false, "", err
	}

	var invalidateParent *int64

	if existing == nil {
		var parentID *int64
		if record.ParentSlug != "" {
			resolved, ok, err := s.resolveParent(ctx, taxonomy, record.ParentSlug, batchSlugs)
			if err != nil {
				return 0, false, "", err
			}
			if !ok {
				// A child whose parent cannot be resolved is a failure,
				// never a silent root-level creation.
				return 0, false, FailUnknownParent, nil
			}
			parentID = &resolved
		}

		termID, err = s.engine.store.Create(ctx, taxonomy, name, slug, parentID, record.Description)
		if err != nil {
			return 0, false, "", internal.NewStoreUnavailableError("term create failed",
				errors.Wrapf(err, "creating term %q", slug))
		}
		created = true
		invalidateParent = parentID
	} else {
		termID = existing.ID
		invalidateParent = existing.ParentID

		// Overwrite name/description only when changed, to avoid spurious
		// mutation events. An empty incoming description means "absent",
		// not "clear".
		update := TermUpdate{}
		if existing.Name != name {
			update.Name = &name
		}
		if record.Description != "" && existing.Description != record.Description {
			description := record.Description
			update.Description = &description
		}
		if update.Name != nil || update.Description != nil {
			if err := s.engine.store.Update(ctx, termID, update); err != nil {
				return 0, false, "", internal.NewStoreUnavailableError("term update failed",
					errors.Wrapf(err, "updating term %q", slug))
			}
		}
	}

	batchSlugs[slug] = termID

	// Apply recognized meta in a stable order.
	metaKeys := make([]string, 0, len(meta))
	for key := range meta {
		metaKeys = append(metaKeys, key)
	}
	sort.Strings(metaKeys)
	for _, key := range metaKeys {
		if err := s.engine.store.WriteMeta(ctx, termID, key, meta[key]); err != nil {
			return 0, false, "", internal.NewStoreUnavailableError("term meta write failed",
				errors.Wrapf(err, "writing meta %q for term %q", key, slug))
		}
	}

	if err := s.invalidateTerm(ctx, taxonomy, termID, invalidateParent); err != nil {
		s.engine.config.Logger.WithError(err).WithField("term_id", termID).Warn("per-record invalidation failed")
	}

	return termID, created, "", nil
}

// lookupBySlug finds an existing term by its slug, straight at the store
func (s *Session) lookupBySlug(ctx context.Context, taxonomy models.Taxonomy, slug string) (*models.Term, error) {
	terms, err := s.engine.store.Fetch(ctx, taxonomy, TermFilter{Slug: slug})
	if err != nil {
		return nil, internal.NewStoreUnavailableError("term lookup failed",
			errors.Wrapf(err, "looking up slug %q", slug))
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return &terms[0], nil
}

// resolveParent resolves a parent_slug to a term id: first against slugs
// seen in this batch, then against the store.
func (s *Session) resolveParent(ctx context.Context, taxonomy models.Taxonomy, parentSlug string, batchSlugs map[string]int64) (int64, bool, error) {
	if id, ok := batchSlugs[parentSlug]; ok {
		return id, true, nil
	}

	parent, err := s.lookupBySlug(ctx, taxonomy, parentSlug)
	if err != nil {
		return 0, false, err
	}
	if parent == nil {
		return 0, false, nil
	}
	return parent.ID, true, nil
}

// coerceMeta filters a record's meta map down to the taxonomy's
// recognized keys and coerces each value to its canonical string form.
// Unrecognized keys are dropped silently (forward-compatibility policy);
// a recognized key with an uncoercible value rejects the record.
func coerceMeta(taxonomy models.Taxonomy, meta map[string]any) (map[string]string, bool) {
	if len(meta) == 0 {
		return nil, true
	}

	schema := models.MetaSchema(taxonomy)
	coerced := make(map[string]string)

	for key, value := range meta {
		kind, recognized := schema[key]
		if !recognized {
			continue
		}

		canonical, err := coerceMetaValue(kind, value)
		if err != nil {
			return nil, false
		}
		coerced[key] = canonical
	}

	return coerced, true
}

// coerceMetaValue renders one meta value in its canonical string form:
// base-10 integers, "1"/"0" booleans, raw strings.
func coerceMetaValue(kind models.MetaKind, value any) (string, error) {
	switch kind {
	case models.MetaInt:
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			// JSON numbers decode as float64; only whole values are ints.
			if v != float64(int64(v)) {
				return "", fmt.Errorf("non-integer value %v", v)
			}
			return strconv.FormatInt(int64(v), 10), nil
		case string:
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return "", fmt.Errorf("unparsable integer %q", v)
			}
			return v, nil
		}
	case models.MetaBool:
		switch v := value.(type) {
		case bool:
			if v {
				return "1", nil
			}
			return "0", nil
		case string:
			switch strings.ToLower(v) {
			case "1", "true", "yes":
				return "1", nil
			case "0", "false", "no", "":
				return "0", nil
			}
			return "", fmt.Errorf("unparsable boolean %q", v)
		case float64:
			if v == 1 {
				return "1", nil
			}
			if v == 0 {
				return "0", nil
			}
			return "", fmt.Errorf("unparsable boolean %v", v)
		}
	case models.MetaString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported value type %T", value)
}
