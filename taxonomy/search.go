package taxonomy

import (
	"context"
	"sort"
	"strings"

	"github.com/bragbook2/brag-book-gallery-sub019/models"
)

// SearchTerms finds terms across taxonomies by case-insensitive name
// substring. Results are ranked by usage count descending, ties broken by
// name ascending, so the most-used matches surface first. Passing no
// taxonomies searches all of them; a blank query returns no results
// rather than everything.
//
// Each per-taxonomy match list rides the same tiered cache as GetTerms,
// so repeated searches for a hot query stay off the term store.
func (s *Session) SearchTerms(ctx context.Context, query string, taxonomies ...models.Taxonomy) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	if len(taxonomies) == 0 {
		taxonomies = models.AllTaxonomies()
	}

	results := make([]models.SearchResult, 0)
	for _, taxonomy := range taxonomies {
		terms, err := s.GetTerms(ctx, taxonomy, TermQuery{NameSubstring: query})
		if err != nil {
			return nil, err
		}
		for _, term := range terms {
			results = append(results, models.SearchResult{
				TermID:   term.ID,
				Taxonomy: taxonomy,
				Name:     term.Name,
				Slug:     term.Slug,
				Count:    term.Count,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Name < results[j].Name
	})

	return results, nil
}
