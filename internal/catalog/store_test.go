package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func simpleIndex(name string) IndexDef {
	return IndexDef{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: TypeString, Key: true},
			{Name: "title", Type: TypeString, Searchable: true, Retrievable: true},
		},
	}
}

func TestPutIndexThenGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.PutIndex(ctx, simpleIndex("hotels"), "")
	require.NoError(t, err)
	require.Equal(t, "hotels", saved.Name)
	require.NotEmpty(t, saved.ETag)
	require.False(t, saved.CreatedAt.IsZero())

	got, err := s.GetIndex(ctx, "hotels")
	require.NoError(t, err)
	require.Equal(t, saved.Name, got.Name)
	require.Equal(t, saved.ETag, got.ETag)
	require.Len(t, got.Fields, 2)
}

func TestPutIndexRejectsInvalidDefinition(t *testing.T) {
	s := newTestStore(t)
	_, err := s.PutIndex(context.Background(), IndexDef{Name: "bad"}, "")
	require.Error(t, err)
}

func TestGetIndexMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetIndex(context.Background(), "missing")
	require.Error(t, err)
}

func TestPutIndexWithStaleIfMatchIsRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.PutIndex(ctx, simpleIndex("hotels"), "")
	require.NoError(t, err)

	_, err = s.PutIndex(ctx, simpleIndex("hotels"), "stale-etag")
	require.Error(t, err)

	_, err = s.PutIndex(ctx, simpleIndex("hotels"), first.ETag)
	require.NoError(t, err)
}

func TestListIndexesReturnsEveryPersistedDefinition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PutIndex(ctx, simpleIndex("a"), "")
	require.NoError(t, err)
	_, err = s.PutIndex(ctx, simpleIndex("b"), "")
	require.NoError(t, err)

	defs, err := s.ListIndexes(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
}

func TestDeleteIndexRemovesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PutIndex(ctx, simpleIndex("hotels"), "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteIndex(ctx, "hotels"))
	_, err = s.GetIndex(ctx, "hotels")
	require.Error(t, err)
}

func TestDeleteIndexMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	require.Error(t, s.DeleteIndex(context.Background(), "missing"))
}

func TestDataSourceCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.PutDataSource(ctx, DataSource{Name: "fs", Type: DataSourceFilesystem, ContainerName: "/tmp/docs"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ETag)

	got, err := s.GetDataSource(ctx, "fs")
	require.NoError(t, err)
	require.Equal(t, DataSourceFilesystem, got.Type)

	require.NoError(t, s.DeleteDataSource(ctx, "fs"))
	_, err = s.GetDataSource(ctx, "fs")
	require.Error(t, err)
}

func TestDataSourcePutRequiresName(t *testing.T) {
	s := newTestStore(t)
	_, err := s.PutDataSource(context.Background(), DataSource{}, "")
	require.Error(t, err)
}

func TestSkillsetCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.PutSkillset(ctx, Skillset{Name: "ss", Skills: []Skill{{ODataType: "#Microsoft.Skills.Text.SplitSkill"}}}, "")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ETag)

	got, err := s.GetSkillset(ctx, "ss")
	require.NoError(t, err)
	require.Len(t, got.Skills, 1)

	require.NoError(t, s.DeleteSkillset(ctx, "ss"))
	_, err = s.GetSkillset(ctx, "ss")
	require.Error(t, err)
}

func TestIndexerCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.PutIndexer(ctx, Indexer{Name: "idxr", DataSourceName: "fs", TargetIndexName: "hotels"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ETag)

	got, err := s.GetIndexer(ctx, "idxr")
	require.NoError(t, err)
	require.Equal(t, "fs", got.DataSourceName)

	require.NoError(t, s.DeleteIndexer(ctx, "idxr"))
	_, err = s.GetIndexer(ctx, "idxr")
	require.Error(t, err)
}

func TestIndexerPutRequiresDataSourceAndTargetIndex(t *testing.T) {
	s := newTestStore(t)
	_, err := s.PutIndexer(context.Background(), Indexer{Name: "idxr"}, "")
	require.Error(t, err)
}

func TestSynonymMapCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.PutSynonymMap(ctx, SynonymMap{Name: "syn", Rules: []string{"usa,united states"}}, "")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ETag)

	got, err := s.GetSynonymMap(ctx, "syn")
	require.NoError(t, err)
	require.Equal(t, []string{"usa,united states"}, got.Rules)
}

func TestIndexerStatusDefaultsToUnknownWhenNeverRun(t *testing.T) {
	s := newTestStore(t)
	st, err := s.GetIndexerStatus(context.Background(), "never-run")
	require.NoError(t, err)
	require.Equal(t, RunStateUnknown, st.Status)
	require.Nil(t, st.LastResult)
}

func TestPutIndexerStatusThenGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := IndexerStatus{IndexerName: "idxr", Status: RunStateUnknown}
	st.RecordExecution(ExecutionResult{ID: "run-1", ItemsProcessed: 3})

	require.NoError(t, s.PutIndexerStatus(ctx, st))

	got, err := s.GetIndexerStatus(ctx, "idxr")
	require.NoError(t, err)
	require.Equal(t, "run-1", got.LastResult.ID)
	require.Equal(t, 3, got.LastResult.ItemsProcessed)
}

func TestRecordExecutionTrimsHistoryToMostRecentTen(t *testing.T) {
	var st IndexerStatus
	for i := 0; i < 15; i++ {
		st.RecordExecution(ExecutionResult{ID: string(rune('a' + i))})
	}
	require.Len(t, st.History, 10)
	require.Equal(t, string(rune('a'+14)), st.History[len(st.History)-1].ID)
}

func TestRecordExecutionSetsErrorStatusWhenErrorsPresent(t *testing.T) {
	var st IndexerStatus
	st.RecordExecution(ExecutionResult{ID: "run-1", Errors: []string{"boom"}})
	require.Equal(t, RunStateError, st.Status)
}
