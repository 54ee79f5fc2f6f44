package vecindex

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	hnswvector "github.com/fogfish/hnsw/vector"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

// Candidate is one retrieval result: the document key and its distance.
type Candidate struct {
	Key      string
	Distance float32
	Score    float64
}

const defaultOversample = 3

// Store is the per-(index, field) dense-vector index (§4.4): a growable
// vector array, an id<->slot bimap, a set of tombstoned slots, and an HNSW
// graph rebuilt lazily from the non-tombstoned vectors whenever dirty.
// Grounded on the teacher's own store.go, which keeps exactly one
// hnswIndex *hnsw.HNSW[vector.VF32] per opened database and rebuilds it from
// the rows still live in its backing table; this store rebuilds from the
// slots not yet tombstoned instead of re-reading a SQL table.
type Store struct {
	mu sync.Mutex

	dim    int
	metric catalog.VectorMetric
	alg    catalog.HNSWAlgorithm
	distFn DistanceFunc

	vectors    [][]float32 // slot -> vector; tombstoned slots keep a stale entry
	keyOfSlot  []string    // slot -> document key
	slotOfKey  map[string]uint32
	tombstones *bitset.BitSet

	g     *annGraph
	dirty bool
}

// NewStore creates an empty vector store for one field of one index,
// configured by the field's VectorSearchConfig algorithm (§3 HNSWAlgorithm).
func NewStore(dim int, metric catalog.VectorMetric, alg catalog.HNSWAlgorithm) *Store {
	return &Store{
		dim:        dim,
		metric:     metric,
		alg:        alg,
		distFn:     For(metric),
		slotOfKey:  make(map[string]uint32),
		tombstones: bitset.New(0),
		dirty:      true,
	}
}

// Upsert inserts or replaces the vector for key. Replacing an existing key
// tombstones its old slot and appends a fresh one, matching the
// append-only-slots-plus-tombstones design in §4.4.
func (s *Store) Upsert(key string, vec []float32) error {
	if len(vec) != s.dim {
		return errDimMismatch(s.dim, len(vec))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.slotOfKey[key]; ok {
		s.tombstones.Set(uint(old))
	}
	slot := uint32(len(s.vectors))
	cp := make([]float32, len(vec))
	copy(cp, vec)
	s.vectors = append(s.vectors, cp)
	s.keyOfSlot = append(s.keyOfSlot, key)
	s.slotOfKey[key] = slot
	s.dirty = true
	return nil
}

// Delete tombstones key's slot, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slotOfKey[key]; ok {
		s.tombstones.Set(uint(slot))
		delete(s.slotOfKey, key)
		s.dirty = true
	}
}

// Len returns the number of live (non-tombstoned) vectors.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slotOfKey)
}

func (s *Store) isLive(slot uint32) bool {
	return !s.tombstones.Test(uint(slot))
}

// rebuildLocked re-creates the HNSW graph from only the live slots. Callers
// must hold s.mu. fogfish/hnsw has no remove API the teacher ever calls, so
// a tombstoned slot is dropped by leaving it out of the rebuild rather than
// by deleting it from a live graph, same as the teacher's own
// rebuildHNSWIndex re-inserting every row straight from its backing table.
func (s *Store) rebuildLocked() {
	if !s.dirty {
		return
	}
	g := newAnnGraph(s.alg, s.metric)
	for slot := uint32(0); int(slot) < len(s.vectors); slot++ {
		if s.isLive(slot) {
			annInsert(g, slot, s.vectors[slot])
		}
	}
	s.g = g
	s.dirty = false
}

// KNN returns up to k nearest live vectors to query (§4.4 "knn(q, k)").
func (s *Store) KNN(query []float32, k int) ([]Candidate, error) {
	if len(query) != s.dim {
		return nil, errDimMismatch(s.dim, len(query))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
	if s.g == nil || len(s.slotOfKey) == 0 {
		return nil, nil
	}
	found := annSearch(s.g, query, k, s.alg.EfSearch)
	return s.toCandidates(query, found), nil
}

// FilteredKNN returns up to k nearest live vectors to query, restricted to
// candidateKeys (§4.4 "filtered_knn(q, k, candidate_ids)"). It over-samples
// the unfiltered graph search by defaultOversample*k first; if that yields
// fewer than k matches after filtering, it falls back to a brute-force scan
// over exactly candidateKeys.
func (s *Store) FilteredKNN(query []float32, k int, candidateKeys map[string]bool) ([]Candidate, error) {
	if len(query) != s.dim {
		return nil, errDimMismatch(s.dim, len(query))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()

	var out []Candidate
	if s.g != nil {
		oversampled := annSearch(s.g, query, k*defaultOversample, k*defaultOversample+s.alg.EfSearch)
		for _, n := range oversampled {
			key := s.keyOfSlot[n.Key]
			if !candidateKeys[key] {
				continue
			}
			d := s.distFn(query, s.vectors[n.Key])
			out = append(out, Candidate{Key: key, Distance: d, Score: SimilarityFromDistance(d)})
		}
	}
	if len(out) >= k || len(candidateKeys) == 0 {
		sortCandidateResults(out)
		if len(out) > k {
			out = out[:k]
		}
		return out, nil
	}

	// Brute-force fallback (§4.4): the graph's approximate search missed
	// enough of the filtered candidate set, so scan it directly.
	out = out[:0]
	for slot := uint32(0); int(slot) < len(s.vectors); slot++ {
		if !s.isLive(slot) {
			continue
		}
		key := s.keyOfSlot[slot]
		if !candidateKeys[key] {
			continue
		}
		d := s.distFn(query, s.vectors[slot])
		out = append(out, Candidate{Key: key, Distance: d, Score: SimilarityFromDistance(d)})
	}
	sortCandidateResults(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// toCandidates re-scores every neighbor the graph returns against query
// using s.distFn, the same pattern as the teacher's searchWithHNSW: it
// reads back each hit's full vector and recomputes its own similarity
// rather than trusting a library-returned score.
func (s *Store) toCandidates(query []float32, found []hnswvector.VF32) []Candidate {
	out := make([]Candidate, 0, len(found))
	for _, n := range found {
		d := s.distFn(query, s.vectors[n.Key])
		out = append(out, Candidate{Key: s.keyOfSlot[n.Key], Distance: d, Score: SimilarityFromDistance(d)})
	}
	sortCandidateResults(out)
	return out
}

func sortCandidateResults(c []Candidate) {
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && c[j-1].Distance > c[j].Distance {
			c[j-1], c[j] = c[j], c[j-1]
			j--
		}
	}
}
