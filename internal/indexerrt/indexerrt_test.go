package indexerrt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/datasource"
	"github.com/liliang-cn/searchsim/internal/docwrite"
	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/pipeline"
	"github.com/liliang-cn/searchsim/internal/vecindex"
)

type noVectorStores struct{}

func (noVectorStores) StoreFor(string) (*vecindex.Store, bool) { return nil, false }
func (noVectorStores) GetOrCreate(field string, dim int, metric catalog.VectorMetric, alg catalog.HNSWAlgorithm) *vecindex.Store {
	return vecindex.NewStore(dim, metric, alg)
}

type fakeCatalog struct {
	indexers   map[string]catalog.Indexer
	dataSrcs   map[string]catalog.DataSource
	indexes    map[string]catalog.IndexDef
	skillsets  map[string]catalog.Skillset
	statuses   map[string]catalog.IndexerStatus
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		indexers:  map[string]catalog.Indexer{},
		dataSrcs:  map[string]catalog.DataSource{},
		indexes:   map[string]catalog.IndexDef{},
		skillsets: map[string]catalog.Skillset{},
		statuses:  map[string]catalog.IndexerStatus{},
	}
}

func (f *fakeCatalog) GetIndexer(ctx context.Context, name string) (catalog.Indexer, error) {
	idx, ok := f.indexers[name]
	if !ok {
		return catalog.Indexer{}, notFoundErr(name)
	}
	return idx, nil
}

func (f *fakeCatalog) GetDataSource(ctx context.Context, name string) (catalog.DataSource, error) {
	ds, ok := f.dataSrcs[name]
	if !ok {
		return catalog.DataSource{}, notFoundErr(name)
	}
	return ds, nil
}

func (f *fakeCatalog) GetIndex(ctx context.Context, name string) (catalog.IndexDef, error) {
	def, ok := f.indexes[name]
	if !ok {
		return catalog.IndexDef{}, notFoundErr(name)
	}
	return def, nil
}

func (f *fakeCatalog) GetSkillset(ctx context.Context, name string) (catalog.Skillset, error) {
	ss, ok := f.skillsets[name]
	if !ok {
		return catalog.Skillset{}, notFoundErr(name)
	}
	return ss, nil
}

func (f *fakeCatalog) GetIndexerStatus(ctx context.Context, name string) (catalog.IndexerStatus, error) {
	st, ok := f.statuses[name]
	if !ok {
		return catalog.IndexerStatus{IndexerName: name, Status: catalog.RunStateUnknown}, nil
	}
	return st, nil
}

func (f *fakeCatalog) PutIndexerStatus(ctx context.Context, st catalog.IndexerStatus) error {
	f.statuses[st.IndexerName] = st
	return nil
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) + " not found" }

func notFoundErr(name string) error { return notFoundError(name) }

type fakeWriters struct {
	writer *docwrite.Writer
}

func (f fakeWriters) WriterFor(indexName string) (*docwrite.Writer, error) { return f.writer, nil }

type fakeDrivers struct {
	driver datasource.Driver
}

func (f fakeDrivers) DriverFor(ds catalog.DataSource) (datasource.Driver, error) { return f.driver, nil }

func docsIndex() catalog.IndexDef {
	return catalog.IndexDef{
		Name: "docs",
		Fields: []catalog.Field{
			{Name: "id", Type: catalog.TypeString, Key: true},
			{Name: "content", Type: catalog.TypeString, Searchable: true, Retrievable: true},
		},
	}
}

func newTestRuntime(t *testing.T, root string) (*Runtime, *fakeCatalog) {
	t.Helper()
	idx := docsIndex()
	lex := lexical.New(idx, analyzer.NewRegistry(nil))
	writer := &docwrite.Writer{Index: idx, Lex: lex, Vector: noVectorStores{}}

	fc := newFakeCatalog()
	fc.indexes["docs"] = idx
	fc.dataSrcs["fs"] = catalog.DataSource{Name: "fs", Type: catalog.DataSourceFilesystem}
	fc.indexers["idxr"] = catalog.Indexer{
		Name:            "idxr",
		DataSourceName:  "fs",
		TargetIndexName: "docs",
	}

	rt := &Runtime{
		Catalog: fc,
		Writers: fakeWriters{writer: writer},
		Drivers: fakeDrivers{driver: datasource.FilesystemDriver{Root: root}},
		Skills:  pipeline.Registry(nil),
	}
	return rt, fc
}

func TestRunProcessesChangedFilesIntoTargetIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))

	rt, _ := newTestRuntime(t, root)
	result, err := rt.Run(context.Background(), "idxr")
	require.NoError(t, err)
	require.Equal(t, 1, result.ItemsProcessed)
	require.Equal(t, 0, result.ItemsFailed)
	require.NotEmpty(t, result.FinalTrackingState)
}

func TestRunRejectsDisabledIndexer(t *testing.T) {
	root := t.TempDir()
	rt, fc := newTestRuntime(t, root)
	idxr := fc.indexers["idxr"]
	idxr.Disabled = true
	fc.indexers["idxr"] = idxr

	_, err := rt.Run(context.Background(), "idxr")
	require.Error(t, err)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	root := t.TempDir()
	rt, _ := newTestRuntime(t, root)
	require.True(t, rt.tryLock("idxr"))
	defer rt.unlock("idxr")

	_, err := rt.Run(context.Background(), "idxr")
	require.Error(t, err)
}

func TestRunSecondRunOnlyPicksUpNewFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))

	rt, _ := newTestRuntime(t, root)
	_, err := rt.Run(context.Background(), "idxr")
	require.NoError(t, err)

	result, err := rt.Run(context.Background(), "idxr")
	require.NoError(t, err)
	require.Equal(t, 0, result.ItemsProcessed)
}
