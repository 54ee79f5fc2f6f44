package engine

import (
	"sync"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/vecindex"
)

// vectorFields holds one *vecindex.Store per vector field of an index,
// created lazily on first write, and satisfies both docwrite.VectorStores
// and queryexec.VectorStores (§4.8, §4.6).
type vectorFields struct {
	mu     sync.RWMutex
	stores map[string]*vecindex.Store
}

func newVectorFields() *vectorFields {
	return &vectorFields{stores: map[string]*vecindex.Store{}}
}

func (v *vectorFields) StoreFor(field string) (*vecindex.Store, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s, ok := v.stores[field]
	return s, ok
}

func (v *vectorFields) GetOrCreate(field string, dim int, metric catalog.VectorMetric, alg catalog.HNSWAlgorithm) *vecindex.Store {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.stores[field]; ok {
		return s
	}
	s := vecindex.NewStore(dim, metric, alg)
	v.stores[field] = s
	return s
}
