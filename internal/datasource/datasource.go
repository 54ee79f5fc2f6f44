// Package datasource defines the data-source driver interface the indexer
// runtime pulls documents through (§4.12 step 3), plus the one in-core
// driver the spec requires for local development: a filesystem driver. The
// spec treats cloud data sources (blob/SQL/table/CosmosDB/ADLS) as external
// and out of scope; no blob/SQL-client library is wired here for that
// reason (see DESIGN.md), matching the teacher's own narrow-interface
// pattern for storage backends it doesn't implement in-process.
package datasource

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Document is one item pulled from a data source (§4.12 step 3: "each
// document has {key, name, contentType, bytes, metadata}").
type Document struct {
	Key         string
	Name        string
	ContentType string
	Bytes       []byte
	Metadata    map[string]any
	ChangedAt   time.Time
}

// Driver lists documents changed since a high-water-mark tracking state
// (§4.12 step 3).
type Driver interface {
	ListChanged(ctx context.Context, sinceTrackingState string) ([]Document, string, error)
}

// FilesystemDriver walks a root directory, using each file's modtime as the
// high-water mark (§6.2 "in-core filesystem driver").
type FilesystemDriver struct {
	Root string
}

// ListChanged returns every file under Root modified strictly after the
// RFC3339 timestamp in sinceTrackingState (empty/unparsable means "from the
// beginning of time"), plus the new tracking state (the latest modtime
// seen, RFC3339Nano-encoded so sub-second modtimes compare exactly on the
// next call).
func (d FilesystemDriver) ListChanged(ctx context.Context, sinceTrackingState string) ([]Document, string, error) {
	since, _ := time.Parse(time.RFC3339, sinceTrackingState)

	var docs []Document
	newest := since

	err := filepath.WalkDir(d.Root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		modTime := info.ModTime()
		if !modTime.After(since) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(d.Root, path)
		docs = append(docs, Document{
			Key:         rel,
			Name:        entry.Name(),
			ContentType: "",
			Bytes:       data,
			Metadata: map[string]any{
				"metadata_storage_path": path,
				"metadata_storage_name": entry.Name(),
				"metadata_storage_size": info.Size(),
			},
			ChangedAt: modTime,
		})
		if modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, sinceTrackingState, err
	}

	state := sinceTrackingState
	if newest.After(since) {
		state = newest.Format(time.RFC3339Nano)
	}
	return docs, state, nil
}
