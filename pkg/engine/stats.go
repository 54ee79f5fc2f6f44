package engine

import (
	"github.com/dustin/go-humanize"

	"github.com/liliang-cn/searchsim/internal/value"
)

// IndexStats answers `GET /indexes/{name}/stats` (§6.1): a document count and
// a rough storage-size estimate, humanized the way an operator-facing surface
// would render them rather than as raw byte counts.
type IndexStats struct {
	Name            string
	DocumentCount   int
	StorageSize     string
	VectorIndexSize string
}

// ServiceStats answers `GET /servicestats` (§6.1): totals across every index
// in the catalog.
type ServiceStats struct {
	IndexCount      int
	DocumentCount   int
	StorageSize     string
	VectorIndexSize string
}

// IndexStats reports document count and an approximate on-disk footprint for
// index name. Document content is never persisted to the catalog store
// (§6.4), so the size is estimated from the in-memory document bytes rather
// than read off a file.
func (e *Engine) IndexStats(name string) (IndexStats, error) {
	st, err := e.stateFor(name)
	if err != nil {
		return IndexStats{}, err
	}
	docCount := st.lex.Len()
	return IndexStats{
		Name:            name,
		DocumentCount:   docCount,
		StorageSize:     humanize.Bytes(estimateLexicalBytes(st)),
		VectorIndexSize: humanize.Bytes(estimateVectorBytes(st)),
	}, nil
}

// ServiceStats aggregates IndexStats across every index currently held by
// the engine.
func (e *Engine) ServiceStats() ServiceStats {
	e.mu.RLock()
	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	e.mu.RUnlock()

	var totalDocs int
	var totalLex, totalVec uint64
	for _, name := range names {
		st, err := e.stateFor(name)
		if err != nil {
			continue
		}
		totalDocs += st.lex.Len()
		totalLex += estimateLexicalBytes(st)
		totalVec += estimateVectorBytes(st)
	}
	return ServiceStats{
		IndexCount:      len(names),
		DocumentCount:   totalDocs,
		StorageSize:     humanize.Bytes(totalLex),
		VectorIndexSize: humanize.Bytes(totalVec),
	}
}

// estimateLexicalBytes sums the key length, field-name lengths and
// value.ApproxSize of every stored field of every document, a deliberately
// rough stand-in for an actual on-disk
// footprint since the lexical store here lives in memory for the process
// lifetime (§6.4).
func estimateLexicalBytes(st *indexState) uint64 {
	var total uint64
	for _, key := range st.lex.AllKeys() {
		doc, ok := st.lex.Get(key)
		if !ok {
			continue
		}
		total += uint64(len(key))
		for name, fv := range doc {
			total += uint64(len(name)) + value.ApproxSize(fv)
		}
	}
	return total
}

func estimateVectorBytes(st *indexState) uint64 {
	var total uint64
	for _, f := range st.def.Fields {
		if !f.IsVector() {
			continue
		}
		vs, ok := st.vectors.StoreFor(f.Name)
		if !ok {
			continue
		}
		total += uint64(vs.Len() * f.Dimensions * 4)
	}
	return total
}
