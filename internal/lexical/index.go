// Package lexical is the lexical index (§4.2): per-index inverted index
// over analyzed text, doc-values for filter/sort/facet, stored-field
// materialization, and BM25/Classic similarity scoring. Structurally
// grounded on the teacher's pkg/core/store.go SQLiteStore (single mutex
// guarding maps, eager-commit write path, a dedicated scoring pass over
// candidates) but rebuilt in memory as a real inverted index, since the
// teacher's store scores by linear/HNSW scan over dense vectors, not text.
package lexical

import (
	"errors"
	"sync"

	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/value"
)

// docEntry is everything kept about one indexed document.
type docEntry struct {
	key    string
	fields map[string]value.Value // the full document, for stored/retrievable materialization

	// fieldTermFreq[field][term] = occurrences of term in that field's
	// analyzed text, feeding both BM25/Classic scoring and featuresMode.
	fieldTermFreq map[string]map[string]int
	fieldLength   map[string]int
	fieldTokens   map[string][]analyzer.Token
}

// Index is one index's lexical store (§4.2).
type Index struct {
	mu  sync.RWMutex
	def catalog.IndexDef
	reg *analyzer.Registry

	docs map[string]*docEntry

	// postings[field][term] = set of document keys containing term, the
	// inverted index proper.
	postings map[string]map[string]map[string]bool

	totalDocLen map[string]int // field -> sum of fieldLength across docs, for avg field length
}

// New creates an empty lexical index for def (§4.2).
func New(def catalog.IndexDef, reg *analyzer.Registry) *Index {
	return &Index{
		def:         def,
		reg:         reg,
		docs:        make(map[string]*docEntry),
		postings:    make(map[string]map[string]map[string]bool),
		totalDocLen: make(map[string]int),
	}
}

// SetDefinition swaps in a changed index definition (§4.2 "changing
// similarity on an existing index triggers a reopen of the writer/searcher
// so the new parameters apply to subsequent reads"). The inverted index and
// stored documents are untouched; only scoring-relevant configuration (field
// flags, similarity, analyzers) changes for subsequent reads.
func (ix *Index) SetDefinition(def catalog.IndexDef) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.def = def
}

func (ix *Index) docValueFieldName(f catalog.Field) string {
	if f.Searchable && f.Filterable {
		return f.KeywordSidecarName()
	}
	return f.Name
}

// Upsert adds or atomically replaces the document at its key field's value
// (§4.2 "upsert(doc) adds a document under its key; an existing key is
// atomically replaced").
func (ix *Index) Upsert(doc map[string]value.Value) (string, error) {
	keyField, ok := ix.def.KeyField()
	if !ok {
		return "", errs.New("lexical.Upsert", errs.InternalError, errNoKeyField)
	}
	kv, ok := doc[keyField.Name]
	if !ok || kv.Kind != value.KindString || kv.String == "" {
		return "", errs.Newf("lexical.Upsert", errs.ValidationFailed, "document is missing its key field %q", keyField.Name)
	}
	key := kv.String

	entry := &docEntry{
		key:           key,
		fields:        doc,
		fieldTermFreq: make(map[string]map[string]int),
		fieldLength:   make(map[string]int),
		fieldTokens:   make(map[string][]analyzer.Token),
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(key)

	for _, f := range ix.def.Fields {
		fv, present := doc[f.Name]
		if !present {
			continue
		}
		if f.Searchable && f.Type.IsStringLike() {
			ix.indexSearchableLocked(entry, f, fv)
		}
	}

	ix.docs[key] = entry
	return key, nil
}

func (ix *Index) indexSearchableLocked(entry *docEntry, f catalog.Field, fv value.Value) {
	texts := stringsOf(fv)
	if len(texts) == 0 {
		return
	}
	analyzeFn := ix.reg.Resolve(f.IndexAnalyzerOrDefault())
	var allTokens []analyzer.Token
	offset := 0
	for _, text := range texts {
		toks := analyzeFn(text)
		for i := range toks {
			toks[i].Start += offset
			toks[i].End += offset
			toks[i].Pos += len(allTokens)
		}
		allTokens = append(allTokens, toks...)
		offset += len([]rune(text)) + 1
	}
	if entry.fieldTermFreq[f.Name] == nil {
		entry.fieldTermFreq[f.Name] = make(map[string]int)
	}
	for _, tok := range allTokens {
		entry.fieldTermFreq[f.Name][tok.Text]++
	}
	entry.fieldLength[f.Name] = len(allTokens)
	entry.fieldTokens[f.Name] = allTokens

	if ix.postings[f.Name] == nil {
		ix.postings[f.Name] = make(map[string]map[string]bool)
	}
	for term := range entry.fieldTermFreq[f.Name] {
		if ix.postings[f.Name][term] == nil {
			ix.postings[f.Name][term] = make(map[string]bool)
		}
		ix.postings[f.Name][term][entry.key] = true
	}
	ix.totalDocLen[f.Name] += len(allTokens)
}

func stringsOf(v value.Value) []string {
	switch v.Kind {
	case value.KindString:
		return []string{v.String}
	case value.KindList:
		out := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind == value.KindString {
				out = append(out, item.String)
			}
		}
		return out
	default:
		return nil
	}
}

// Delete removes key, if present (§4.2 "delete(key) removes it").
func (ix *Index) Delete(key string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(key)
}

func (ix *Index) removeLocked(key string) bool {
	old, ok := ix.docs[key]
	if !ok {
		return false
	}
	for field, terms := range old.fieldTermFreq {
		for term := range terms {
			if postings, ok := ix.postings[field][term]; ok {
				delete(postings, key)
				if len(postings) == 0 {
					delete(ix.postings[field], term)
				}
			}
		}
		ix.totalDocLen[field] -= old.fieldLength[field]
	}
	delete(ix.docs, key)
	return true
}

// Get returns the stored document fields for key, for materialization.
func (ix *Index) Get(key string) (map[string]value.Value, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	d, ok := ix.docs[key]
	if !ok {
		return nil, false
	}
	return d.fields, true
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// AllKeys returns every indexed document key, used by match_all and facet
// computation over the full corpus.
func (ix *Index) AllKeys() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.docs))
	for k := range ix.docs {
		out = append(out, k)
	}
	return out
}

var errNoKeyField = errors.New("index definition has no key field")
