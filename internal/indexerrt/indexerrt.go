// Package indexerrt implements the indexer runtime (§4.12): pull changed
// documents from a data source, crack their content, run the referenced
// skillset pipeline, project the enriched document onto the target index's
// fields, and submit each as a mergeOrUpload write. Structurally grounded on
// Tangerg-lynx/flow's sequential node execution, generalized here to a
// pull-crack-pipeline-project-upload loop over a changed-document stream.
package indexerrt

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/cracker"
	"github.com/liliang-cn/searchsim/internal/datasource"
	"github.com/liliang-cn/searchsim/internal/docwrite"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/obslog"
	"github.com/liliang-cn/searchsim/internal/pipeline"
	"github.com/liliang-cn/searchsim/internal/value"
)

// Catalog is the subset of catalog.Store the runtime needs to resolve an
// indexer's referenced resources and persist its status.
type Catalog interface {
	GetIndexer(ctx context.Context, name string) (catalog.Indexer, error)
	GetDataSource(ctx context.Context, name string) (catalog.DataSource, error)
	GetIndex(ctx context.Context, name string) (catalog.IndexDef, error)
	GetSkillset(ctx context.Context, name string) (catalog.Skillset, error)
	GetIndexerStatus(ctx context.Context, name string) (catalog.IndexerStatus, error)
	PutIndexerStatus(ctx context.Context, st catalog.IndexerStatus) error
}

// Writers resolves the docwrite.Writer backing an index by name.
type Writers interface {
	WriterFor(indexName string) (*docwrite.Writer, error)
}

// Drivers resolves the datasource.Driver backing a data source.
type Drivers interface {
	DriverFor(ds catalog.DataSource) (datasource.Driver, error)
}

// SkillRegistry resolves a skill's executor; satisfied by *skills.Registry.
type SkillRegistry = pipeline.Registry

// Runtime runs indexers (§4.12, §5 "a second run while one is in progress is
// rejected").
type Runtime struct {
	Catalog Catalog
	Writers Writers
	Drivers Drivers
	Skills  SkillRegistry
	Log     obslog.Logger

	mu      sync.Mutex
	running map[string]bool
}

func (r *Runtime) tryLock(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == nil {
		r.running = map[string]bool{}
	}
	if r.running[name] {
		return false
	}
	r.running[name] = true
	return true
}

func (r *Runtime) unlock(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, name)
}

// Run executes indexer name once (§4.12 "run(name)").
func (r *Runtime) Run(ctx context.Context, name string) (catalog.ExecutionResult, error) {
	if !r.tryLock(name) {
		return catalog.ExecutionResult{}, errs.Newf("indexerrt.Run", errs.Conflict, "indexer %q is already running", name)
	}
	defer r.unlock(name)

	idx, err := r.Catalog.GetIndexer(ctx, name)
	if err != nil {
		return catalog.ExecutionResult{}, err
	}
	if idx.Disabled {
		return catalog.ExecutionResult{}, errs.Newf("indexerrt.Run", errs.InvalidRequest, "indexer %q is disabled", name)
	}
	ds, err := r.Catalog.GetDataSource(ctx, idx.DataSourceName)
	if err != nil {
		return catalog.ExecutionResult{}, errs.Newf("indexerrt.Run", errs.InvalidRequest, "data source %q: %v", idx.DataSourceName, err)
	}
	targetIndex, err := r.Catalog.GetIndex(ctx, idx.TargetIndexName)
	if err != nil {
		return catalog.ExecutionResult{}, errs.Newf("indexerrt.Run", errs.InvalidRequest, "target index %q: %v", idx.TargetIndexName, err)
	}

	var skillset catalog.Skillset
	if idx.SkillsetName != "" {
		skillset, err = r.Catalog.GetSkillset(ctx, idx.SkillsetName)
		if err != nil {
			return catalog.ExecutionResult{}, errs.Newf("indexerrt.Run", errs.InvalidRequest, "skillset %q: %v", idx.SkillsetName, err)
		}
	}

	writer, err := r.Writers.WriterFor(idx.TargetIndexName)
	if err != nil {
		return catalog.ExecutionResult{}, err
	}
	driver, err := r.Drivers.DriverFor(ds)
	if err != nil {
		return catalog.ExecutionResult{}, err
	}

	status, err := r.Catalog.GetIndexerStatus(ctx, name)
	if err != nil {
		return catalog.ExecutionResult{}, err
	}
	initialState := ""
	if status.LastResult != nil {
		initialState = status.LastResult.FinalTrackingState
	}

	result := catalog.ExecutionResult{
		ID:                   uuid.NewString(),
		StartTime:            time.Now().UTC(),
		InitialTrackingState: initialState,
	}

	docs, newState, err := driver.ListChanged(ctx, initialState)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.EndTime = time.Now().UTC()
		result.FinalTrackingState = initialState
		status.RecordExecution(result)
		_ = r.Catalog.PutIndexerStatus(ctx, status)
		return result, err
	}

	maxFailed := idx.Parameters.MaxFailedItems
	dataToExtract := idx.Parameters.DataToExtractOrDefault()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err.Error())
			break
		}

		if procErr := r.processOne(ctx, doc, dataToExtract, idx, skillset, targetIndex, writer); procErr != nil {
			result.ItemsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", doc.Key, procErr))
		} else {
			result.ItemsProcessed++
		}

		if maxFailed != -1 && result.ItemsFailed > maxFailed {
			result.Errors = append(result.Errors, "stopped early: failed item count exceeded maxFailedItems")
			break
		}
	}

	result.EndTime = time.Now().UTC()
	result.FinalTrackingState = newState
	status.IndexerName = name
	status.RecordExecution(result)
	if err := r.Catalog.PutIndexerStatus(ctx, status); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runtime) processOne(ctx context.Context, doc datasource.Document, dataToExtract catalog.DataToExtract, idx catalog.Indexer, skillset catalog.Skillset, targetIndex catalog.IndexDef, writer *docwrite.Writer) error {
	seed := seedDocument(doc, dataToExtract)
	enrichedDoc, err := enriched.New(seed)
	if err != nil {
		return err
	}

	if idx.SkillsetName != "" {
		pr := pipeline.Run(ctx, r.Skills, skillset, enrichedDoc)
		if pr.Halted {
			return fmt.Errorf("skill pipeline halted: %s", pr.HaltReason)
		}
	}

	target := projectTargetDocument(enrichedDoc, idx, targetIndex)
	results := writer.Apply([]docwrite.Action{{Kind: docwrite.ActionMergeOrUpload, Doc: target}})
	if len(results) == 0 || !results[0].Status {
		if len(results) > 0 {
			return fmt.Errorf("write failed: %s", results[0].ErrorMessage)
		}
		return fmt.Errorf("write produced no result")
	}
	return nil
}

// seedDocument builds the enriched-document seed from a changed document,
// gated by dataToExtract (§4.12 step 4a).
func seedDocument(doc datasource.Document, dataToExtract catalog.DataToExtract) map[string]any {
	seed := map[string]any{"key": doc.Key}
	for k, v := range doc.Metadata {
		seed[k] = v
	}

	if dataToExtract == catalog.ExtractStorageMetadata {
		return seed
	}

	ct := cracker.Detect(doc.Bytes)
	res, err := cracker.For(ct).Crack(doc.Bytes)
	if err == nil {
		if dataToExtract == catalog.ExtractContentAndMetadata {
			seed["content"] = res.Content
		}
		for k, v := range res.Metadata {
			seed[k] = v
		}
	}
	return seed
}

// internalFields are top-level document fields carrying storage plumbing,
// not auto-projected onto the target index unless explicitly field-mapped
// (§4.12 step 4d "excluding internal keys").
var internalFields = map[string]bool{
	"metadata_storage_path": true,
	"metadata_storage_name": true,
	"metadata_storage_size": true,
}

// projectTargetDocument builds the target index document by merging the
// default key mapping, auto-mapped top-level fields, fieldMappings and
// outputFieldMappings (§4.12 step 4d).
func projectTargetDocument(doc *enriched.Doc, idx catalog.Indexer, targetIndex catalog.IndexDef) map[string]value.Value {
	target := map[string]value.Value{}

	keyField, hasKey := targetIndex.KeyField()
	keyMapped := false
	for _, fm := range idx.FieldMappings {
		if hasKey && fm.TargetFieldName == keyField.Name {
			keyMapped = true
		}
	}
	if hasKey && !keyMapped {
		if v, ok := doc.Get("/document/metadata_storage_path"); ok {
			target[keyField.Name] = value.FromAny(keyField.Type, v)
		}
	}

	top, _ := doc.Get("/document")
	if topMap, ok := top.(map[string]any); ok {
		for name, v := range topMap {
			if internalFields[name] {
				continue
			}
			f, ok := targetIndex.FieldByName(name)
			if !ok {
				continue
			}
			target[f.Name] = value.FromAny(f.Type, v)
		}
	}

	for _, fm := range idx.FieldMappings {
		v, ok := doc.Get("/document/" + fm.SourceFieldName)
		if !ok {
			continue
		}
		f, ok := targetIndex.FieldByName(fm.TargetFieldName)
		if !ok {
			continue
		}
		target[f.Name] = value.FromAny(f.Type, applyMappingFunction(fm.MappingFunction, fm.Parameter, v))
	}

	for _, ofm := range idx.OutputFieldMappings {
		v, ok := doc.Get(ofm.SourcePath)
		if !ok {
			continue
		}
		f, ok := targetIndex.FieldByName(ofm.TargetFieldName)
		if !ok {
			continue
		}
		target[f.Name] = value.FromAny(f.Type, applyMappingFunction(ofm.MappingFunction, 0, v))
	}

	return target
}

// applyMappingFunction transforms v per fn (§3 Indexer fieldMappings); v is
// returned unchanged when it isn't a string or fn is empty, since every
// mapping function operates on text.
func applyMappingFunction(fn catalog.MappingFunction, param int, v any) any {
	s, ok := v.(string)
	if !ok || fn == "" {
		return v
	}
	switch fn {
	case catalog.MapBase64Encode:
		return base64.URLEncoding.EncodeToString([]byte(s))
	case catalog.MapBase64Decode:
		decoded, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			return s
		}
		return string(decoded)
	case catalog.MapURLEncode:
		return url.QueryEscape(s)
	case catalog.MapURLDecode:
		decoded, err := url.QueryUnescape(s)
		if err != nil {
			return s
		}
		return decoded
	case catalog.MapExtractTokenAtPosition:
		tokens := splitNonEmpty(s, '-')
		if param < 0 || param >= len(tokens) {
			return ""
		}
		return tokens[param]
	default:
		return v
	}
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	cur := ""
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(s[i])
	}
	out = append(out, cur)
	return out
}
