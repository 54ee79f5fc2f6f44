package queryexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/value"
	"github.com/liliang-cn/searchsim/internal/vecindex"
)

func hotelsIndex() catalog.IndexDef {
	return catalog.IndexDef{
		Name: "hotels",
		Fields: []catalog.Field{
			{Name: "id", Type: catalog.TypeString, Key: true, Retrievable: true},
			{Name: "description", Type: catalog.TypeString, Searchable: true, Retrievable: true},
			{Name: "category", Type: catalog.TypeString, Searchable: true, Filterable: true, Facetable: true, Retrievable: true},
			{Name: "rating", Type: catalog.TypeDouble, Filterable: true, Sortable: true, Retrievable: true},
		},
		Similarity: catalog.DefaultSimilarity(),
	}
}

func doc(id, description, category string, rating float64) map[string]value.Value {
	return map[string]value.Value{
		"id":          value.String(id),
		"description": value.String(description),
		"category":    value.String(category),
		"rating":      value.Float64(rating),
	}
}

type noVectorStores struct{}

func (noVectorStores) StoreFor(string) (*vecindex.Store, bool) { return nil, false }

func newExecutor(t *testing.T) (*Executor, *lexical.Index) {
	t.Helper()
	idx := hotelsIndex()
	lex := lexical.New(idx, analyzer.NewRegistry(nil))
	return &Executor{Index: idx, Lex: lex, Vector: noVectorStores{}}, lex
}

func TestRunMatchAllReturnsEveryDocument(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain lodge", "lodge", 4.2))
	_, _ = lex.Upsert(doc("2", "beach house", "house", 3.9))

	resp, err := exec.Run(context.Background(), Request{SearchText: "*", Top: 10})
	require.NoError(t, err)
	assert.Len(t, resp.Value, 2)
}

func TestRunRanksByTextRelevance(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain mountain mountain lodge", "lodge", 4.0))
	_, _ = lex.Upsert(doc("2", "a modern hotel with no mountain view", "hotel", 4.0))

	resp, err := exec.Run(context.Background(), Request{SearchText: "mountain", Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 2)
	assert.Equal(t, "1", resp.Value[0].Key)
}

func TestRunAppliesFilter(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain lodge", "lodge", 4.0))
	_, _ = lex.Upsert(doc("2", "beach house", "house", 4.0))

	resp, err := exec.Run(context.Background(), Request{SearchText: "*", Filter: "category eq 'house'", Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	assert.Equal(t, "2", resp.Value[0].Key)
}

func TestRunPagesWithSkipAndTop(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "alpha lodge", "lodge", 1))
	_, _ = lex.Upsert(doc("2", "bravo lodge", "lodge", 2))
	_, _ = lex.Upsert(doc("3", "charlie lodge", "lodge", 3))

	resp, err := exec.Run(context.Background(), Request{
		SearchText: "*",
		OrderBy:    []OrderClause{{Field: "rating", Descending: false}},
		Top:        1,
		Skip:       1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	assert.Equal(t, "2", resp.Value[0].Key)
}

func TestRunReportsCountWhenRequested(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain lodge", "lodge", 1))
	_, _ = lex.Upsert(doc("2", "beach house", "house", 1))

	resp, err := exec.Run(context.Background(), Request{SearchText: "*", Count: true, Top: 1})
	require.NoError(t, err)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 2, *resp.Count)
	assert.Len(t, resp.Value, 1)
}

func TestRunComputesFacets(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain lodge", "lodge", 1))
	_, _ = lex.Upsert(doc("2", "beach house", "house", 1))
	_, _ = lex.Upsert(doc("3", "another lodge", "lodge", 1))

	resp, err := exec.Run(context.Background(), Request{
		SearchText: "*",
		Facets:     []FacetRequest{{Field: "category"}},
		Top:        10,
	})
	require.NoError(t, err)
	require.Contains(t, resp.Facets, "category")
	assert.Equal(t, FacetValue{Value: "lodge", Count: 2}, resp.Facets["category"][0])
}

func TestRunHighlightsMatchedTerms(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "a cozy mountain lodge with fireplace", "lodge", 1))

	resp, err := exec.Run(context.Background(), Request{
		SearchText: "mountain",
		Highlight:  []string{"description"},
		Top:        10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	require.Contains(t, resp.Value[0].Highlights, "description")
	assert.Contains(t, resp.Value[0].Highlights["description"][0], "<em>mountain</em>")
}

func TestRunRejectsUnknownScoringProfile(t *testing.T) {
	exec, _ := newExecutor(t)
	_, err := exec.Run(context.Background(), Request{SearchText: "*", ScoringProfile: "does-not-exist"})
	require.Error(t, err)
}

func TestRunSelectRestrictsProjectedFields(t *testing.T) {
	exec, lex := newExecutor(t)
	_, _ = lex.Upsert(doc("1", "mountain lodge", "lodge", 4.5))

	resp, err := exec.Run(context.Background(), Request{SearchText: "*", Select: []string{"id"}, Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	assert.Contains(t, resp.Value[0].Fields, "id")
	assert.NotContains(t, resp.Value[0].Fields, "description")
}
