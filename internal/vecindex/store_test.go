package vecindex

import (
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

func testAlgorithm() catalog.HNSWAlgorithm {
	return catalog.HNSWAlgorithm{Name: "default", M: 8, EfConstruction: 64, EfSearch: 64, Metric: catalog.MetricCosine}
}

func randomVector(r *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = r.Float32()*2 - 1
	}
	return v
}

func TestStoreUpsertAndKNNFindsSelf(t *testing.T) {
	s := NewStore(8, catalog.MetricCosine, testAlgorithm())
	r := rand.New(rand.NewSource(42))

	target := randomVector(r, 8)
	require.NoError(t, s.Upsert("target", target))
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Upsert(fmt.Sprintf("doc-%d", i), randomVector(r, 8)))
	}

	results, err := s.KNN(target, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "target", results[0].Key)
	assert.InDelta(t, 0, results[0].Distance, 1e-4)
}

func TestStoreKNNAscendingByDistance(t *testing.T) {
	s := NewStore(4, catalog.MetricEuclidean, testAlgorithm())
	require.NoError(t, s.Upsert("a", []float32{0, 0, 0, 0}))
	require.NoError(t, s.Upsert("b", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Upsert("c", []float32{5, 0, 0, 0}))

	results, err := s.KNN([]float32{0, 0, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
	assert.Equal(t, "a", results[0].Key)
}

func TestStoreUpsertReplacesAndTombstonesOldSlot(t *testing.T) {
	s := NewStore(2, catalog.MetricEuclidean, testAlgorithm())
	require.NoError(t, s.Upsert("k", []float32{0, 0}))
	require.NoError(t, s.Upsert("k", []float32{10, 10}))

	assert.Equal(t, 1, s.Len())
	results, err := s.KNN([]float32{10, 10}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0, results[0].Distance, 1e-4)
}

func TestStoreDeleteRemovesFromResults(t *testing.T) {
	s := NewStore(2, catalog.MetricEuclidean, testAlgorithm())
	require.NoError(t, s.Upsert("keep", []float32{0, 0}))
	require.NoError(t, s.Upsert("drop", []float32{0.01, 0}))
	s.Delete("drop")

	results, err := s.KNN([]float32{0, 0}, 5)
	require.NoError(t, err)
	for _, c := range results {
		assert.NotEqual(t, "drop", c.Key)
	}
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpsertDimensionMismatch(t *testing.T) {
	s := NewStore(4, catalog.MetricCosine, testAlgorithm())
	err := s.Upsert("bad", []float32{1, 2})
	require.Error(t, err)
}

func TestFilteredKNNRestrictsToCandidateSet(t *testing.T) {
	s := NewStore(2, catalog.MetricEuclidean, testAlgorithm())
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Upsert(fmt.Sprintf("doc-%d", i), randomVector(r, 2)))
	}
	allowed := map[string]bool{"doc-1": true, "doc-5": true, "doc-9": true}

	results, err := s.FilteredKNN([]float32{0, 0}, 10, allowed)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)
	for _, c := range results {
		assert.True(t, allowed[c.Key])
	}
}

func TestFilteredKNNFallsBackToBruteForceForSmallCandidateSets(t *testing.T) {
	s := NewStore(2, catalog.MetricEuclidean, testAlgorithm())
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		require.NoError(t, s.Upsert(fmt.Sprintf("doc-%d", i), randomVector(r, 2)))
	}
	// A single, specific candidate far outside the likely graph-search beam.
	require.NoError(t, s.Upsert("needle", []float32{100, 100}))
	allowed := map[string]bool{"needle": true}

	results, err := s.FilteredKNN([]float32{100, 100}, 1, allowed)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "needle", results[0].Key)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/vectors.bin"

	s := NewStore(3, catalog.MetricCosine, testAlgorithm())
	require.NoError(t, s.Upsert("a", []float32{1, 0, 0}))
	require.NoError(t, s.Upsert("b", []float32{0, 1, 0}))
	s.Delete("a")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())

	results, err := loaded.KNN([]float32{0, 1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Key)
}

func TestLoadRejectsGarbageFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/vectors.bin"
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
