// Package docwrite implements the document write path (§4.8): an ordered
// batch of upload/merge/mergeOrUpload/delete actions against one index's
// lexical store and per-field vector stores, producing an HTTP-207-like
// per-document result set where individual failures never abort the batch.
// Structurally grounded on the teacher's pkg/core/store.go batch-upsert loop
// (per-item try/collect-result, never short-circuit on the first failure).
package docwrite

import (
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/value"
	"github.com/liliang-cn/searchsim/internal/vecindex"
)

// ActionKind is one `index_documents` batch action (§4.8).
type ActionKind string

const (
	ActionUpload        ActionKind = "upload"
	ActionMerge         ActionKind = "merge"
	ActionMergeOrUpload ActionKind = "mergeOrUpload"
	ActionDelete        ActionKind = "delete"
)

// Action is one batch entry.
type Action struct {
	Kind ActionKind
	Doc  map[string]value.Value
}

// Result is one per-document outcome (§4.8 "{key, status, statusCode,
// errorMessage?}").
type Result struct {
	Key          string
	Status       bool
	StatusCode   int
	ErrorMessage string
}

// VectorStores gives docwrite access to the vector store backing each
// vector field of the index, creating one lazily on first write.
type VectorStores interface {
	StoreFor(field string) (*vecindex.Store, bool)
	GetOrCreate(field string, dim int, metric catalog.VectorMetric, alg catalog.HNSWAlgorithm) *vecindex.Store
}

// Writer applies document-write batches to one index (§4.8).
type Writer struct {
	Index  catalog.IndexDef
	Lex    *lexical.Index
	Vector VectorStores
}

// Apply runs actions in order, collecting one Result per action; a failure
// on one action never aborts the remaining actions in the batch (§4.8
// "Response is HTTP-207-like").
func (w *Writer) Apply(actions []Action) []Result {
	results := make([]Result, len(actions))
	for i, a := range actions {
		results[i] = w.applyOne(a)
	}
	return results
}

func (w *Writer) applyOne(a Action) Result {
	keyField, ok := w.Index.KeyField()
	if !ok {
		return Result{Status: false, StatusCode: 500, ErrorMessage: "index has no key field"}
	}
	kv, ok := a.Doc[keyField.Name]
	if !ok || kv.Kind != value.KindString || kv.String == "" {
		return Result{Status: false, StatusCode: 400, ErrorMessage: "document is missing its key field"}
	}
	key := kv.String

	switch a.Kind {
	case ActionUpload:
		return w.upsert(key, a.Doc, 200)
	case ActionMergeOrUpload:
		merged, existed := w.mergeWithExisting(key, a.Doc)
		status := 200
		if !existed {
			status = 201
		}
		return w.upsert(key, merged, status)
	case ActionMerge:
		merged, existed := w.mergeWithExisting(key, a.Doc)
		if !existed {
			return Result{Key: key, Status: false, StatusCode: 404, ErrorMessage: "document not found"}
		}
		return w.upsert(key, merged, 200)
	case ActionDelete:
		return w.delete(key)
	default:
		return Result{Key: key, Status: false, StatusCode: 400, ErrorMessage: "unknown action kind"}
	}
}

// mergeWithExisting patches patch onto the existing document at key: fields
// present in patch overwrite (a null value erases the field), fields absent
// from patch are kept from the existing document (§4.8 "patch provided
// fields (null values erase)").
func (w *Writer) mergeWithExisting(key string, patch map[string]value.Value) (map[string]value.Value, bool) {
	existing, ok := w.Lex.Get(key)
	if !ok {
		return patch, false
	}
	merged := make(map[string]value.Value, len(existing)+len(patch))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range patch {
		if v.IsNull() {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged, true
}

func (w *Writer) upsert(key string, doc map[string]value.Value, status int) Result {
	if _, err := w.Lex.Upsert(doc); err != nil {
		return Result{Key: key, Status: false, StatusCode: 400, ErrorMessage: err.Error()}
	}
	if err := w.upsertVectorFields(key, doc); err != nil {
		return Result{Key: key, Status: false, StatusCode: 400, ErrorMessage: err.Error()}
	}
	return Result{Key: key, Status: true, StatusCode: status}
}

// upsertVectorFields propagates every vector-field value present in doc to
// its dedicated vector store; vector values are additionally kept in the
// lexical store as stored-not-searchable, since lexical.Index.Upsert already
// records the full document for retrieval (§4.8 "Vector-field values are
// stored both in the lexical index ... and in the vector index").
func (w *Writer) upsertVectorFields(key string, doc map[string]value.Value) error {
	for _, f := range w.Index.Fields {
		if !f.IsVector() {
			continue
		}
		fv, ok := doc[f.Name]
		if !ok || fv.IsNull() {
			continue
		}
		alg, ok := w.Index.VectorSearch.AlgorithmFor(f.VectorSearchProfile)
		if !ok {
			return errs.Newf("docwrite.upsertVectorFields", errs.ValidationFailed, "field %q references an undefined vector-search profile", f.Name)
		}
		store := w.Vector.GetOrCreate(f.Name, f.Dimensions, alg.Metric, alg)
		if err := store.Upsert(key, fv.Vector); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) delete(key string) Result {
	w.Lex.Delete(key)
	for _, f := range w.Index.Fields {
		if !f.IsVector() {
			continue
		}
		if store, ok := w.Vector.StoreFor(f.Name); ok {
			store.Delete(key)
		}
	}
	return Result{Key: key, Status: true, StatusCode: 200}
}
