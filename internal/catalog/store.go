package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/obslog"
)

// Store is the catalog's persistence surface: a key-value table per resource
// kind (§6.4 "a key-value store for index definitions, indexers, data
// sources, skillsets, synonym maps and indexer status"), backed by SQLite the
// same way the teacher's SQLiteStore backs vector storage
// (pkg/core/store_init.go schema-on-Init pattern).
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	log    obslog.Logger
	closed bool
}

// Open opens (creating if absent) the catalog database at path.
func Open(ctx context.Context, path string, log obslog.Logger) (*Store, error) {
	if log == nil {
		log = obslog.Nop()
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, errs.New("catalog.Open", errs.InternalError, err)
	}
	db.SetMaxOpenConns(1) // catalog writes are small and infrequent; avoid SQLITE_BUSY
	s := &Store{db: db, log: log.With("component", "catalog")}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS resources (
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	etag       TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	PRIMARY KEY (kind, name)
);
CREATE TABLE IF NOT EXISTS indexer_status (
	indexer_name TEXT PRIMARY KEY,
	body         TEXT NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return errs.New("catalog.createTables", errs.InternalError, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// kind discriminants for the resources table.
const (
	kindIndex      = "index"
	kindDataSource = "datasource"
	kindSkillset   = "skillset"
	kindIndexer    = "indexer"
	kindSynonyms   = "synonymmap"
)

// --- generic resource CRUD, shared by all five resource kinds ---

func (s *Store) put(ctx context.Context, kind, name string, etag string, body any, ifMatch string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errs.New("catalog.put", errs.InternalError, fmt.Errorf("store is closed"))
	}

	existingETag, exists, err := s.etagLocked(ctx, kind, name)
	if err != nil {
		return "", err
	}
	if ifMatch != "" && exists && existingETag != ifMatch {
		return "", errs.New("catalog.put", errs.Conflict, fmt.Errorf("etag mismatch for %s %q", kind, name))
	}

	newETag := etag
	if newETag == "" {
		newETag = uuid.NewString()
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", errs.New("catalog.put", errs.InternalError, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	createdAt := now
	if exists {
		createdAt, _ = s.createdAtLocked(ctx, kind, name)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO resources (kind, name, etag, body, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(kind, name) DO UPDATE SET etag=excluded.etag, body=excluded.body, modified_at=excluded.modified_at
`, kind, name, newETag, string(data), createdAt, now)
	if err != nil {
		return "", errs.New("catalog.put", errs.InternalError, err)
	}
	return newETag, nil
}

func (s *Store) get(ctx context.Context, kind, name string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT body FROM resources WHERE kind=? AND name=?`, kind, name)
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return errs.New("catalog.get", errs.NotFound, fmt.Errorf("%s %q not found", kind, name))
		}
		return errs.New("catalog.get", errs.InternalError, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return errs.New("catalog.get", errs.InternalError, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, kind string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM resources WHERE kind=? ORDER BY name`, kind)
	if err != nil {
		return nil, errs.New("catalog.list", errs.InternalError, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, errs.New("catalog.list", errs.InternalError, err)
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

func (s *Store) delete(ctx context.Context, kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE kind=? AND name=?`, kind, name)
	if err != nil {
		return errs.New("catalog.delete", errs.InternalError, err)
	}
	return nil
}

func (s *Store) etagLocked(ctx context.Context, kind, name string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT etag FROM resources WHERE kind=? AND name=?`, kind, name)
	var etag string
	if err := row.Scan(&etag); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errs.New("catalog.etag", errs.InternalError, err)
	}
	return etag, true, nil
}

func (s *Store) createdAtLocked(ctx context.Context, kind, name string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT created_at FROM resources WHERE kind=? AND name=?`, kind, name)
	var createdAt string
	_ = row.Scan(&createdAt)
	return createdAt, nil
}

// --- indexes ---

// PutIndex creates or replaces an index definition after validation; ifMatch,
// when non-empty, must equal the current ETag or a Conflict is returned
// (§12 "ETag: fully enforced").
func (s *Store) PutIndex(ctx context.Context, def IndexDef, ifMatch string) (IndexDef, error) {
	if err := ValidateIndexDef(def); err != nil {
		return IndexDef{}, err
	}
	now := time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.ModifiedAt = now
	// The ETag is generated before the body is serialized so GetIndex
	// returns the same ETag PutIndex reports.
	def.ETag = uuid.NewString()
	etag, err := s.put(ctx, kindIndex, def.Name, def.ETag, def, ifMatch)
	if err != nil {
		return IndexDef{}, err
	}
	def.ETag = etag
	s.log.Info("index put", "name", def.Name, "etag", etag)
	return def, nil
}

func (s *Store) GetIndex(ctx context.Context, name string) (IndexDef, error) {
	var def IndexDef
	if err := s.get(ctx, kindIndex, name, &def); err != nil {
		return IndexDef{}, err
	}
	return def, nil
}

func (s *Store) ListIndexes(ctx context.Context) ([]IndexDef, error) {
	bodies, err := s.list(ctx, kindIndex)
	if err != nil {
		return nil, err
	}
	out := make([]IndexDef, 0, len(bodies))
	for _, b := range bodies {
		var def IndexDef
		if err := json.Unmarshal([]byte(b), &def); err != nil {
			return nil, errs.New("catalog.ListIndexes", errs.InternalError, err)
		}
		out = append(out, def)
	}
	return out, nil
}

func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	if _, err := s.GetIndex(ctx, name); err != nil {
		return err
	}
	return s.delete(ctx, kindIndex, name)
}

// --- data sources ---

func (s *Store) PutDataSource(ctx context.Context, ds DataSource, ifMatch string) (DataSource, error) {
	if ds.Name == "" {
		return DataSource{}, errs.Newf("catalog.PutDataSource", errs.InvalidRequest, "name is required")
	}
	etag, err := s.put(ctx, kindDataSource, ds.Name, "", ds, ifMatch)
	if err != nil {
		return DataSource{}, err
	}
	ds.ETag = etag
	return ds, nil
}

func (s *Store) GetDataSource(ctx context.Context, name string) (DataSource, error) {
	var ds DataSource
	if err := s.get(ctx, kindDataSource, name, &ds); err != nil {
		return DataSource{}, err
	}
	return ds, nil
}

func (s *Store) DeleteDataSource(ctx context.Context, name string) error {
	return s.delete(ctx, kindDataSource, name)
}

// --- skillsets ---

func (s *Store) PutSkillset(ctx context.Context, ss Skillset, ifMatch string) (Skillset, error) {
	if ss.Name == "" {
		return Skillset{}, errs.Newf("catalog.PutSkillset", errs.InvalidRequest, "name is required")
	}
	etag, err := s.put(ctx, kindSkillset, ss.Name, "", ss, ifMatch)
	if err != nil {
		return Skillset{}, err
	}
	ss.ETag = etag
	return ss, nil
}

func (s *Store) GetSkillset(ctx context.Context, name string) (Skillset, error) {
	var ss Skillset
	if err := s.get(ctx, kindSkillset, name, &ss); err != nil {
		return Skillset{}, err
	}
	return ss, nil
}

func (s *Store) DeleteSkillset(ctx context.Context, name string) error {
	return s.delete(ctx, kindSkillset, name)
}

// --- indexers ---

func (s *Store) PutIndexer(ctx context.Context, idx Indexer, ifMatch string) (Indexer, error) {
	if idx.Name == "" || idx.DataSourceName == "" || idx.TargetIndexName == "" {
		return Indexer{}, errs.Newf("catalog.PutIndexer", errs.InvalidRequest, "name, dataSourceName and targetIndexName are required")
	}
	etag, err := s.put(ctx, kindIndexer, idx.Name, "", idx, ifMatch)
	if err != nil {
		return Indexer{}, err
	}
	idx.ETag = etag
	return idx, nil
}

func (s *Store) GetIndexer(ctx context.Context, name string) (Indexer, error) {
	var idx Indexer
	if err := s.get(ctx, kindIndexer, name, &idx); err != nil {
		return Indexer{}, err
	}
	return idx, nil
}

func (s *Store) DeleteIndexer(ctx context.Context, name string) error {
	return s.delete(ctx, kindIndexer, name)
}

// --- synonym maps ---

func (s *Store) PutSynonymMap(ctx context.Context, sm SynonymMap, ifMatch string) (SynonymMap, error) {
	if sm.Name == "" {
		return SynonymMap{}, errs.Newf("catalog.PutSynonymMap", errs.InvalidRequest, "name is required")
	}
	etag, err := s.put(ctx, kindSynonyms, sm.Name, "", sm, ifMatch)
	if err != nil {
		return SynonymMap{}, err
	}
	sm.ETag = etag
	return sm, nil
}

func (s *Store) GetSynonymMap(ctx context.Context, name string) (SynonymMap, error) {
	var sm SynonymMap
	if err := s.get(ctx, kindSynonyms, name, &sm); err != nil {
		return SynonymMap{}, err
	}
	return sm, nil
}

// --- indexer status ---

// GetIndexerStatus returns the persisted status, or an empty unknown status
// if the indexer has never run.
func (s *Store) GetIndexerStatus(ctx context.Context, name string) (IndexerStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT body FROM indexer_status WHERE indexer_name=?`, name)
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return IndexerStatus{IndexerName: name, Status: RunStateUnknown}, nil
		}
		return IndexerStatus{}, errs.New("catalog.GetIndexerStatus", errs.InternalError, err)
	}
	var st IndexerStatus
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return IndexerStatus{}, errs.New("catalog.GetIndexerStatus", errs.InternalError, err)
	}
	return st, nil
}

// PutIndexerStatus persists the indexer's status under the store-wide write
// lock.
func (s *Store) PutIndexerStatus(ctx context.Context, st IndexerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(st)
	if err != nil {
		return errs.New("catalog.PutIndexerStatus", errs.InternalError, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO indexer_status (indexer_name, body) VALUES (?, ?)
ON CONFLICT(indexer_name) DO UPDATE SET body=excluded.body
`, st.IndexerName, string(data))
	if err != nil {
		return errs.New("catalog.PutIndexerStatus", errs.InternalError, err)
	}
	return nil
}
