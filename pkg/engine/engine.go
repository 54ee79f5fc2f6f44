// Package engine is the top-level facade wiring the catalog store, lexical
// and vector indexes, the query executor, the document writer, the
// suggester, the skill pipeline and the indexer runtime into one cohesive
// local service (§6 "a single Go process"). Grounded on the teacher's
// pkg/core.SQLiteStore: one struct owning the persistence handle plus every
// derived in-memory structure, with thin methods delegating to the package
// that actually implements each concern.
package engine

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/config"
	"github.com/liliang-cn/searchsim/internal/datasource"
	"github.com/liliang-cn/searchsim/internal/docwrite"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/indexerrt"
	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/obslog"
	"github.com/liliang-cn/searchsim/internal/queryexec"
	"github.com/liliang-cn/searchsim/internal/skills"
	"github.com/liliang-cn/searchsim/internal/suggest"
)

// indexState is everything derived from one catalog.IndexDef that isn't
// itself persisted: the lexical store, per-field vector stores and
// per-suggester edge-gram indexes are created empty in memory when New opens
// the engine (for every persisted index) or when CreateIndex runs (§6.4 "the catalog persists definitions;
// document content lives in memory for the lifetime of the process").
type indexState struct {
	def        catalog.IndexDef
	lex        *lexical.Index
	vectors    *vectorFields
	suggesters map[string]*suggest.Index
}

// Engine owns the catalog and every derived in-memory index, and is the
// single dependency cmd/searchsim wires up.
type Engine struct {
	Catalog   *catalog.Store
	Analyzers *analyzer.Registry
	Skills    *skills.Registry
	Log       obslog.Logger

	mu      sync.RWMutex
	indexes map[string]*indexState

	indexer *indexerrt.Runtime
}

// New opens the catalog at cfg.DataDir and wires every subsystem together.
func New(ctx context.Context, cfg config.ServerConfig, log obslog.Logger) (*Engine, error) {
	if log == nil {
		log = obslog.Nop()
	}
	store, err := catalog.Open(ctx, filepath.Join(cfg.DataDir, "catalog.db"), log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Catalog:   store,
		Analyzers: analyzer.NewRegistry(nil),
		Skills:    skills.NewRegistry(skills.HTTPWebAPIClient{}, skills.HTTPEmbeddingClient{}),
		Log:       log,
		indexes:   map[string]*indexState{},
	}
	e.indexer = &indexerrt.Runtime{
		Catalog: store,
		Writers: e,
		Drivers: e,
		Skills:  e.Skills,
		Log:     log.With("component", "indexerrt"),
	}

	defs, err := store.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		e.mu.Lock()
		e.indexes[def.Name] = newIndexState(def, e.Analyzers)
		e.mu.Unlock()
	}
	return e, nil
}

func newIndexState(def catalog.IndexDef, reg *analyzer.Registry) *indexState {
	st := &indexState{
		def:        def,
		lex:        lexical.New(def, reg),
		vectors:    newVectorFields(),
		suggesters: map[string]*suggest.Index{},
	}
	for _, s := range def.Suggesters {
		st.suggesters[s.Name] = suggest.New(s, def, reg)
	}
	return st
}

// Close releases the catalog handle.
func (e *Engine) Close() error {
	return e.Catalog.Close()
}

// CreateIndex validates and persists def, then builds its in-memory index
// state (§3 "CreateIndex").
func (e *Engine) CreateIndex(ctx context.Context, def catalog.IndexDef) (catalog.IndexDef, error) {
	saved, err := e.Catalog.PutIndex(ctx, def, "")
	if err != nil {
		return catalog.IndexDef{}, err
	}
	e.mu.Lock()
	e.indexes[saved.Name] = newIndexState(saved, e.Analyzers)
	e.mu.Unlock()
	return saved, nil
}

// GetIndex returns the persisted definition.
func (e *Engine) GetIndex(ctx context.Context, name string) (catalog.IndexDef, error) {
	return e.Catalog.GetIndex(ctx, name)
}

// ListIndexes returns every persisted index definition.
func (e *Engine) ListIndexes(ctx context.Context) ([]catalog.IndexDef, error) {
	return e.Catalog.ListIndexes(ctx)
}

// DeleteIndex drops the catalog entry and its in-memory state; document
// content is discarded with it (§3 "DeleteIndex").
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	if err := e.Catalog.DeleteIndex(ctx, name); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.indexes, name)
	e.mu.Unlock()
	return nil
}

func (e *Engine) stateFor(name string) (*indexState, error) {
	e.mu.RLock()
	st, ok := e.indexes[name]
	e.mu.RUnlock()
	if !ok {
		return nil, errs.Newf("engine.stateFor", errs.NotFound, "index %q not found", name)
	}
	return st, nil
}

// Search runs req against index name (§4.6).
func (e *Engine) Search(ctx context.Context, name string, req queryexec.Request) (*queryexec.Response, error) {
	st, err := e.stateFor(name)
	if err != nil {
		return nil, err
	}
	exec := &queryexec.Executor{Index: st.def, Lex: st.lex, Vector: st.vectors}
	return exec.Run(ctx, req)
}

// WriteDocuments applies a batch of actions to index name, then keeps every
// suggester in sync with the resulting lexical documents (§4.7, §4.8:
// suggesters are not part of docwrite.Writer itself since a suggester is a
// secondary index over the same committed documents, not a write target).
func (e *Engine) WriteDocuments(ctx context.Context, name string, actions []docwrite.Action) ([]docwrite.Result, error) {
	st, err := e.stateFor(name)
	if err != nil {
		return nil, err
	}
	writer := &docwrite.Writer{Index: st.def, Lex: st.lex, Vector: st.vectors}
	results := writer.Apply(actions)
	for i, res := range results {
		if !res.Status {
			continue
		}
		if actions[i].Kind == docwrite.ActionDelete {
			for _, sug := range st.suggesters {
				sug.Delete(res.Key)
			}
			continue
		}
		if doc, ok := st.lex.Get(res.Key); ok {
			for _, sug := range st.suggesters {
				sug.Upsert(res.Key, doc)
			}
		}
	}
	return results, nil
}

// Suggest runs a `suggest` query against named suggester of index name (§4.7).
func (e *Engine) Suggest(ctx context.Context, name, suggesterName, prefix string, top int, candidateKeys map[string]bool) ([]suggest.Hit, error) {
	st, err := e.stateFor(name)
	if err != nil {
		return nil, err
	}
	sug, ok := st.suggesters[suggesterName]
	if !ok {
		return nil, errs.Newf("engine.Suggest", errs.NotFound, "suggester %q not found on index %q", suggesterName, name)
	}
	return sug.Suggest(prefix, top, candidateKeys), nil
}

// Autocomplete runs an `autocomplete` query against named suggester of index
// name (§4.7).
func (e *Engine) Autocomplete(ctx context.Context, name, suggesterName, prefix string, mode suggest.Mode, top int, candidateKeys map[string]bool) ([]suggest.Completion, error) {
	st, err := e.stateFor(name)
	if err != nil {
		return nil, err
	}
	sug, ok := st.suggesters[suggesterName]
	if !ok {
		return nil, errs.Newf("engine.Autocomplete", errs.NotFound, "suggester %q not found on index %q", suggesterName, name)
	}
	return sug.Autocomplete(prefix, mode, top, candidateKeys), nil
}

// RunIndexer executes indexer name once (§4.12).
func (e *Engine) RunIndexer(ctx context.Context, name string) (catalog.ExecutionResult, error) {
	return e.indexer.Run(ctx, name)
}

// WriterFor satisfies indexerrt.Writers.
func (e *Engine) WriterFor(indexName string) (*docwrite.Writer, error) {
	st, err := e.stateFor(indexName)
	if err != nil {
		return nil, err
	}
	return &docwrite.Writer{Index: st.def, Lex: st.lex, Vector: st.vectors}, nil
}

// DriverFor satisfies indexerrt.Drivers; only the filesystem data source has
// an in-core driver (§6.2).
func (e *Engine) DriverFor(ds catalog.DataSource) (datasource.Driver, error) {
	switch ds.Type {
	case catalog.DataSourceFilesystem:
		return datasource.FilesystemDriver{Root: ds.ContainerName}, nil
	default:
		return nil, errs.Newf("engine.DriverFor", errs.InvalidRequest, "data source type %q has no in-core driver", ds.Type)
	}
}
