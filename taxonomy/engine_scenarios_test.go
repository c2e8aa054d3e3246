package taxonomy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bragbook2/brag-book-gallery-sub019/internal"
	"github.com/bragbook2/brag-book-gallery-sub019/models"
	"github.com/bragbook2/brag-book-gallery-sub019/sharedcache"
	"github.com/bragbook2/brag-book-gallery-sub019/taxonomy"
	"github.com/bragbook2/brag-book-gallery-sub019/termstore"
)

func newScenario(t *testing.T) (*taxonomy.Engine, *termstore.MemoryStore) {
	t.Helper()

	shared, err := sharedcache.NewMemoryStore(256)
	require.NoError(t, err)

	store := termstore.NewMemoryStore()
	engine, err := taxonomy.NewEngine(store, shared, taxonomy.DefaultConfig())
	require.NoError(t, err)
	return engine, store
}

func procedureBatch() []models.ImportRecord {
	return []models.ImportRecord{
		{Name: "Face", Meta: map[string]any{"api_id": 10}},
		{Name: "Rhinoplasty", ParentSlug: "face", Meta: map[string]any{
			"api_id":          42,
			"contains_nudity": false,
			"case_count":      17,
		}},
		{Name: "Facelift", ParentSlug: "face", Meta: map[string]any{"api_id": 43}},
		{Name: "Body", Meta: map[string]any{"api_id": 20}},
	}
}

func TestImportBuildsHierarchy(t *testing.T) {
	engine, _ := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, procedureBatch())
	require.NoError(t, err)
	assert.Len(t, result.Created, 4)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Failed)

	forest, err := session.GetTermHierarchy(ctx, models.TaxonomyProcedure, nil)
	require.NoError(t, err)
	require.Len(t, forest, 2)

	// Roots sort by name: Body before Face.
	assert.Equal(t, "Body", forest[0].Term.Name)
	assert.Equal(t, "Face", forest[1].Term.Name)

	face := forest[1]
	require.Len(t, face.Children, 2)
	assert.Equal(t, "Facelift", face.Children[0].Term.Name)
	assert.Equal(t, "Rhinoplasty", face.Children[1].Term.Name)

	// External API id resolves through the meta filter.
	term, err := session.GetTermByExternalID(ctx, models.TaxonomyProcedure, 42)
	require.NoError(t, err)
	assert.Equal(t, "Rhinoplasty", term.Name)

	// Boolean meta round-trips in canonical form.
	value, ok, err := session.GetTermMeta(ctx, models.TaxonomyProcedure, term.ID, models.MetaKeyContainsNudity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0", value)
}

func TestImportIdempotence(t *testing.T) {
	engine, _ := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	first, err := session.BulkImport(ctx, models.TaxonomyProcedure, procedureBatch())
	require.NoError(t, err)
	assert.Len(t, first.Created, 4)

	second, err := session.BulkImport(ctx, models.TaxonomyProcedure, procedureBatch())
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Updated, 4)
	assert.Empty(t, second.Failed)

	// No duplicates were minted.
	terms, err := engine.NewSession().GetTerms(ctx, models.TaxonomyProcedure, taxonomy.TermQuery{})
	require.NoError(t, err)
	assert.Len(t, terms, 4)
}

func TestImportContinuesPastBadRecords(t *testing.T) {
	engine, _ := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	records := []models.ImportRecord{
		{Name: "Face"},
		{Name: ""},
		{Name: "Rhinoplasty", ParentSlug: "face"},
		{Name: "Lost Child", ParentSlug: "no-such-parent"},
	}

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, records)
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "missing_name", result.Failed[0].Reason)
	assert.Equal(t, "unknown_parent", result.Failed[1].Reason)

	// The good records landed despite the bad ones.
	forest, err := session.GetTermHierarchy(ctx, models.TaxonomyProcedure, nil)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "Face", forest[0].Term.Name)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Rhinoplasty", forest[0].Children[0].Term.Name)
}

func TestExportRoundTrip(t *testing.T) {
	source, _ := newScenario(t)
	ctx := context.Background()

	_, err := source.NewSession().BulkImport(ctx, models.TaxonomyProcedure, procedureBatch())
	require.NoError(t, err)

	exported, err := source.NewSession().ExportTerms(ctx, models.TaxonomyProcedure)
	require.NoError(t, err)
	require.Len(t, exported, 4)

	// Parents precede children.
	position := make(map[string]int, len(exported))
	for i, record := range exported {
		position[record.Slug] = i
	}
	assert.Less(t, position["face"], position["rhinoplasty"])
	assert.Less(t, position["face"], position["facelift"])

	// Meta comes back typed.
	for _, record := range exported {
		if record.Slug == "rhinoplasty" {
			assert.Equal(t, int64(42), record.Meta["api_id"])
			assert.Equal(t, int64(17), record.Meta["case_count"])
			assert.Equal(t, false, record.Meta["contains_nudity"])
		}
	}

	// Feeding the export into a fresh engine reconstructs the same state.
	replica, _ := newScenario(t)
	result, err := replica.NewSession().BulkImport(ctx, models.TaxonomyProcedure, exported)
	require.NoError(t, err)
	assert.Len(t, result.Created, 4)
	assert.Empty(t, result.Failed)

	replicaExport, err := replica.NewSession().ExportTerms(ctx, models.TaxonomyProcedure)
	require.NoError(t, err)
	assert.Equal(t, exported, replicaExport)
}

func TestSearchRanking(t *testing.T) {
	engine, store := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Facelift"},
		{Name: "Mini Facelift"},
		{Name: "Face Tite"},
		{Name: "Tummy Tuck"},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 4)

	// Usage counts drive ranking; they change behind the engine's back.
	store.SetCount(result.Created[0], 20)
	store.SetCount(result.Created[1], 5)
	store.SetCount(result.Created[2], 1)
	require.NoError(t, session.ClearTaxonomyCache(ctx, models.TaxonomyProcedure))

	hits, err := session.SearchTerms(ctx, "face")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "Facelift", hits[0].Name)
	assert.Equal(t, int64(20), hits[0].Count)
	assert.Equal(t, "Mini Facelift", hits[1].Name)
	assert.Equal(t, "Face Tite", hits[2].Name)

	// Blank queries return nothing rather than everything.
	hits, err = session.SearchTerms(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Case-insensitive matching.
	hits, err = session.SearchTerms(ctx, "FACE", models.TaxonomyProcedure)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearchSpansTaxonomies(t *testing.T) {
	engine, _ := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	_, err := session.BulkImport(ctx, models.TaxonomyCategory, []models.ImportRecord{
		{Name: "Facial Procedures"},
	})
	require.NoError(t, err)
	_, err = session.BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Facelift"},
	})
	require.NoError(t, err)

	hits, err := session.SearchTerms(ctx, "fac")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = session.SearchTerms(ctx, "fac", models.TaxonomyCategory)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, models.TaxonomyCategory, hits[0].Taxonomy)
}

func TestHierarchyCycleDetected(t *testing.T) {
	engine, store := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Alpha"},
		{Name: "Beta", ParentSlug: "alpha"},
		{Name: "Gamma"},
	})
	require.NoError(t, err)
	alphaID, betaID := result.Created[0], result.Created[1]

	// Corrupt the parent chain: alpha and beta now point at each other.
	require.NoError(t, store.Update(ctx, alphaID, taxonomy.TermUpdate{ParentID: &betaID}))

	// The whole-forest build notices the detached loop.
	_, err = engine.NewSession().GetTermHierarchy(ctx, models.TaxonomyProcedure, nil)
	assert.True(t, internal.IsCycleDetectedError(err))

	// A subtree build rooted inside the loop trips the path check.
	_, err = engine.NewSession().GetTermHierarchy(ctx, models.TaxonomyProcedure, &alphaID)
	assert.True(t, internal.IsCycleDetectedError(err))
}

func TestExportRejectsLoopingParentChain(t *testing.T) {
	engine, store := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Alpha"},
		{Name: "Beta", ParentSlug: "alpha"},
	})
	require.NoError(t, err)

	betaID := result.Created[1]
	require.NoError(t, store.Update(ctx, result.Created[0], taxonomy.TermUpdate{ParentID: &betaID}))

	_, err = engine.NewSession().ExportTerms(ctx, models.TaxonomyProcedure)
	assert.True(t, internal.IsCycleDetectedError(err))
}

func TestCategorySiblingsFollowDisplayOrder(t *testing.T) {
	engine, _ := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	_, err := session.BulkImport(ctx, models.TaxonomyCategory, []models.ImportRecord{
		{Name: "Alpha"},
		{Name: "Beta", Meta: map[string]any{"display_order": 2}},
		{Name: "Zeta", Meta: map[string]any{"display_order": 1}},
		{Name: "Mid"},
	})
	require.NoError(t, err)

	forest, err := session.GetTermHierarchy(ctx, models.TaxonomyCategory, nil)
	require.NoError(t, err)
	require.Len(t, forest, 4)

	// Explicitly ordered terms come first ascending, the rest by name.
	assert.Equal(t, "Zeta", forest[0].Term.Name)
	assert.Equal(t, "Beta", forest[1].Term.Name)
	assert.Equal(t, "Alpha", forest[2].Term.Name)
	assert.Equal(t, "Mid", forest[3].Term.Name)
}

func TestMutationKeepsSharedTierCoherent(t *testing.T) {
	engine, store := newScenario(t)
	ctx := context.Background()

	_, err := engine.NewSession().BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Facelift"},
	})
	require.NoError(t, err)

	// Warm the shared tier.
	terms, err := engine.NewSession().GetTerms(ctx, models.TaxonomyProcedure, taxonomy.TermQuery{})
	require.NoError(t, err)
	require.Len(t, terms, 1)

	// A direct store mutation pushes an event; the cascade evicts the
	// cached list, so the next session sees the new term.
	_, err = store.Create(ctx, models.TaxonomyProcedure, "Rhinoplasty", "rhinoplasty", nil, "")
	require.NoError(t, err)

	terms, err = engine.NewSession().GetTerms(ctx, models.TaxonomyProcedure, taxonomy.TermQuery{})
	require.NoError(t, err)
	assert.Len(t, terms, 2)
}

func TestHideEmptyQuery(t *testing.T) {
	engine, store := newScenario(t)
	ctx := context.Background()
	session := engine.NewSession()

	result, err := session.BulkImport(ctx, models.TaxonomyProcedure, []models.ImportRecord{
		{Name: "Facelift"},
		{Name: "Rhinoplasty"},
	})
	require.NoError(t, err)

	store.SetCount(result.Created[0], 3)
	require.NoError(t, session.ClearTaxonomyCache(ctx, models.TaxonomyProcedure))

	terms, err := session.GetTerms(ctx, models.TaxonomyProcedure, taxonomy.TermQuery{HideEmpty: true})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "Facelift", terms[0].Name)
}
