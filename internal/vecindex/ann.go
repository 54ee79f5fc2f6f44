package vecindex

import (
	"github.com/fogfish/hnsw"
	hnswvector "github.com/fogfish/hnsw/vector"
	surface "github.com/kshard/vector"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

// defaultM and defaultEfConstruction match the teacher's own initHNSWIndex
// fallbacks when a field's HNSWAlgorithm leaves a parameter at its zero
// value.
const (
	defaultM              = 16
	defaultEfConstruction = 100
)

// annGraph is the approximate-nearest-neighbor index backing a Store: one
// instance per (index, field), exactly as the teacher keeps a single
// hnswIndex *hnsw.HNSW[vector.VF32] per opened database. Keys are the
// store's slot numbers rather than document ids, matching the teacher's own
// indirection through an integer key resolved back to a document via a
// side table (its sqlite row id vs. this package's keyOfSlot).
type annGraph = hnsw.HNSW[hnswvector.VF32]

// newAnnGraph builds a fresh graph configured by alg and metric. Grounded on
// the teacher's store.go initHNSWIndex: hnsw.New(vector.SurfaceVF32(surface.Cosine()),
// hnsw.WithM(cfg.M), hnsw.WithEfConstruction(cfg.EfConstruction)). The surface
// argument is already a runtime value there; surfaceFor below only widens
// the single metric the teacher hardcodes to the three §3 HNSWAlgorithm.Metric
// values a field can declare.
func newAnnGraph(alg catalog.HNSWAlgorithm, metric catalog.VectorMetric) *annGraph {
	m := alg.M
	if m <= 0 {
		m = defaultM
	}
	ef := alg.EfConstruction
	if ef <= 0 {
		ef = defaultEfConstruction
	}
	opts := []hnsw.Option{hnsw.WithM(m), hnsw.WithEfConstruction(ef)}

	switch metric {
	case catalog.MetricEuclidean:
		return hnsw.New(hnswvector.SurfaceVF32(surface.Euclidean()), opts...)
	case catalog.MetricDotProduct:
		return hnsw.New(hnswvector.SurfaceVF32(surface.Dot()), opts...)
	default:
		return hnsw.New(hnswvector.SurfaceVF32(surface.Cosine()), opts...)
	}
}

// annInsert and annSearch are thin indirections kept only so store.go reads
// as a sequence of named steps rather than bare library calls; their only
// logic of their own is annSearch raising ef to at least k.

func annInsert(g *annGraph, slot uint32, vec []float32) {
	g.Insert(hnswvector.VF32{Key: slot, Vec: vec})
}

func annSearch(g *annGraph, query []float32, k, ef int) []hnswvector.VF32 {
	if ef < k {
		ef = k
	}
	return g.Search(hnswvector.VF32{Vec: query}, k, ef)
}
