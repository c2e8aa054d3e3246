package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// ExportTerms serializes the whole taxonomy into import records ordered
// parents-before-children, so feeding the export back into BulkImport
// reconstructs the identical hierarchy in one pass. Siblings are emitted
// name-ascending; meta values are rendered in their typed form per the
// taxonomy's schema.
func (s *Session) ExportTerms(ctx context.Context, taxonomy models.Taxonomy) ([]models.ImportRecord, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	all, err := s.GetTerms(ctx, taxonomy, TermQuery{})
	if err != nil {
		return nil, err
	}

	slugByID := make(map[int64]string, len(all))
	childrenOf := make(map[int64][]models.Term)
	for _, term := range all {
		slugByID[term.ID] = term.Slug
		parent := int64(0)
		if term.ParentID != nil {
			parent = *term.ParentID
		}
		childrenOf[parent] = append(childrenOf[parent], term)
	}
	for parent := range childrenOf {
		siblings := childrenOf[parent]
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].Name < siblings[j].Name
		})
	}

	// Breadth-first from the roots guarantees a parent is emitted before
	// any of its children.
	records := make([]models.ImportRecord, 0, len(all))
	queue := append([]models.Term(nil), childrenOf[0]...)
	for len(queue) > 0 {
		term := queue[0]
		queue = queue[1:]

		record, err := s.exportRecord(ctx, taxonomy, term, slugByID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		queue = append(queue, childrenOf[term.ID]...)
	}

	// Terms never reached from a root sit on a looping parent chain.
	if len(records) < len(all) {
		return nil, internal.NewCycleDetectedError(fmt.Sprintf(
			"%d of %d %s terms unreachable from any root, parent chain loops",
			len(all)-len(records), len(all), taxonomy))
	}

	return records, nil
}

// exportRecord renders one term as an import record, resolving its parent
// slug and typed meta values.
func (s *Session) exportRecord(ctx context.Context, taxonomy models.Taxonomy, term models.Term, slugByID map[int64]string) (models.ImportRecord, error) {
	record := models.ImportRecord{
		Name:        term.Name,
		Slug:        term.Slug,
		Description: term.Description,
	}
	if term.ParentID != nil {
		record.ParentSlug = slugByID[*term.ParentID]
	}

	schema := models.MetaSchema(taxonomy)
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, present, err := s.GetTermMeta(ctx, taxonomy, term.ID, key)
		if err != nil {
			return models.ImportRecord{}, err
		}
		if !present {
			continue
		}

		typed, ok := typedMetaValue(schema[key], value)
		if !ok {
			s.engine.config.Logger.WithField("term_id", term.ID).WithField("meta_key", key).
				Warn("skipping meta value with unparsable canonical form")
			continue
		}
		if record.Meta == nil {
			record.Meta = make(map[string]any)
		}
		record.Meta[key] = typed
	}

	return record, nil
}

// typedMetaValue converts a canonical stored string back to its typed form
func typedMetaValue(kind models.MetaKind, value string) (any, bool) {
	switch kind {
	case models.MetaInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case models.MetaBool:
		switch value {
		case "1", "true":
			return true, true
		case "0", "false", "":
			return false, true
		}
		return nil, false
	default:
		return value, true
	}
}
