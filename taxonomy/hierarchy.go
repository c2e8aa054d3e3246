package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// GetTermHierarchy materializes the parent/child forest of a taxonomy,
// rooted at rootParentID (nil builds the whole forest from the root
// level). Each (taxonomy, parent) level is fetched through the term cache
// independently, so rebuilding a subtree reuses already-warmed levels.
//
// A parent chain that loops yields CycleDetected, never unbounded
// recursion: ids along the current path are tracked, and a whole-forest
// build additionally verifies every term of the taxonomy was placed,
// which catches loops detached from all roots.
func (s *Session) GetTermHierarchy(ctx context.Context, taxonomy models.Taxonomy, rootParentID *int64) ([]*models.HierarchyNode, error) {
	if !taxonomy.Valid() {
		return nil, internal.NewValidationError("unknown_taxonomy", "unknown taxonomy")
	}

	path := make(map[int64]struct{})
	if rootParentID != nil {
		path[*rootParentID] = struct{}{}
	}

	placed := 0
	forest, err := s.buildLevel(ctx, taxonomy, rootParentID, path, &placed)
	if err != nil {
		return nil, err
	}

	if rootParentID == nil {
		all, err := s.GetTerms(ctx, taxonomy, TermQuery{})
		if err != nil {
			return nil, err
		}
		if placed < len(all) {
			return nil, internal.NewCycleDetectedError(fmt.Sprintf(
				"%d of %d %s terms unreachable from any root, parent chain loops",
				len(all)-placed, len(all), taxonomy))
		}
	}

	return forest, nil
}

// buildLevel fetches one hierarchy level and recurses into each child's
// subtree. path holds the ids along the current ancestor chain.
func (s *Session) buildLevel(ctx context.Context, taxonomy models.Taxonomy, parentID *int64, path map[int64]struct{}, placed *int) ([]*models.HierarchyNode, error) {
	terms, err := s.getChildren(ctx, taxonomy, parentID)
	if err != nil {
		return nil, err
	}

	terms, err = s.orderSiblings(ctx, taxonomy, terms)
	if err != nil {
		return nil, err
	}

	nodes := make([]*models.HierarchyNode, 0, len(terms))
	for _, term := range terms {
		if _, seen := path[term.ID]; seen {
			return nil, internal.NewCycleDetectedError(fmt.Sprintf(
				"term %d in taxonomy %s is reachable from itself", term.ID, taxonomy))
		}

		path[term.ID] = struct{}{}
		id := term.ID
		children, err := s.buildLevel(ctx, taxonomy, &id, path, placed)
		delete(path, term.ID)
		if err != nil {
			return nil, err
		}

		*placed++
		nodes = append(nodes, &models.HierarchyNode{Term: term, Children: children})
	}

	return nodes, nil
}

// orderSiblings sorts one level of siblings: terms carrying a positive
// display_order meta value come first in ascending order (ties broken by
// name), the rest follow ordered by name ascending. Taxonomies without a
// display_order meta key sort purely by name.
func (s *Session) orderSiblings(ctx context.Context, taxonomy models.Taxonomy, terms []models.Term) ([]models.Term, error) {
	if !models.RecognizedMetaKey(taxonomy, models.MetaKeyDisplayOrder) {
		sort.Slice(terms, func(i, j int) bool {
			return terms[i].Name < terms[j].Name
		})
		return terms, nil
	}

	orders := make(map[int64]int64, len(terms))
	for _, term := range terms {
		value, ok, err := s.GetTermMeta(ctx, taxonomy, term.ID, models.MetaKeyDisplayOrder)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			orders[term.ID] = n
		}
	}

	sort.Slice(terms, func(i, j int) bool {
		oi, iOrdered := orders[terms[i].ID]
		oj, jOrdered := orders[terms[j].ID]

		switch {
		case iOrdered && jOrdered:
			if oi != oj {
				return oi < oj
			}
			return terms[i].Name < terms[j].Name
		case iOrdered:
			return true
		case jOrdered:
			return false
		default:
			return terms[i].Name < terms[j].Name
		}
	})

	return terms, nil
}
