package catalog

import "time"

// DataSourceType enumerates the supported data-source kinds (§3 Data source).
// Only "filesystem" has a driver implementation in-core (§6.2); the rest are
// accepted as catalog entries so an out-of-scope driver can be plugged in.
type DataSourceType string

const (
	DataSourceFilesystem DataSourceType = "filesystem"
	DataSourceAzureBlob  DataSourceType = "azureblob"
	DataSourceAzureSQL   DataSourceType = "azuresql"
	DataSourceAzureTable DataSourceType = "azuretable"
	DataSourceCosmosDB   DataSourceType = "cosmosdb"
	DataSourceADLSGen2   DataSourceType = "adlsgen2"
)

// ChangeDetectionPolicy names the high-water-mark column (§3 Data source).
type ChangeDetectionPolicy struct {
	HighWaterMarkColumn string `json:"highWaterMarkColumn,omitempty"`
}

// SoftDeletePolicy is carried opaquely; the in-core filesystem driver ignores it.
type SoftDeletePolicy struct {
	SoftDeleteColumn string `json:"softDeleteColumn,omitempty"`
	MarkerValue      string `json:"markerValue,omitempty"`
}

// DataSource is a named, independent resource referenced by indexers (§3).
type DataSource struct {
	Name                  string                 `json:"name"`
	Type                  DataSourceType         `json:"type"`
	ContainerName         string                 `json:"containerName"`
	ContainerQuery        string                 `json:"containerQuery,omitempty"`
	Credentials           string                 `json:"credentials"` // opaque connection string
	ChangeDetectionPolicy ChangeDetectionPolicy  `json:"changeDetectionPolicy,omitempty"`
	SoftDeletePolicy      SoftDeletePolicy       `json:"softDeletePolicy,omitempty"`
	ETag                  string                 `json:"etag,omitempty"`
}

// SkillInput is one named input of a skill, resolved relative to the skill's
// context unless it is an absolute JSON path (§3 Skillset).
type SkillInput struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// SkillOutput is one named output of a skill; TargetName defaults to Name
// when empty (§3 Skillset).
type SkillOutput struct {
	Name       string `json:"name"`
	TargetName string `json:"targetName,omitempty"`
}

func (o SkillOutput) Target() string {
	if o.TargetName != "" {
		return o.TargetName
	}
	return o.Name
}

// Skill is one enrichment step. Config carries type-specific parameters as a
// loosely typed map; internal/skills decodes the subset each executor needs.
type Skill struct {
	ODataType string         `json:"odataType"`
	Name      string         `json:"name,omitempty"`
	Context   string         `json:"context,omitempty"` // default "/document"
	Inputs    []SkillInput   `json:"inputs,omitempty"`
	Outputs   []SkillOutput  `json:"outputs,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// ContextOrDefault returns Context, defaulting to "/document" (§3 Skillset).
func (s Skill) ContextOrDefault() string {
	if s.Context != "" {
		return s.Context
	}
	return "/document"
}

// Skillset is a named, ordered list of skills (§3).
type Skillset struct {
	Name   string  `json:"name"`
	Skills []Skill `json:"skills"`
	ETag   string  `json:"etag,omitempty"`
}

// MappingFunction is an output-field-mapping transform (§3 Indexer).
type MappingFunction string

const (
	MapBase64Encode           MappingFunction = "base64Encode"
	MapBase64Decode           MappingFunction = "base64Decode"
	MapURLEncode              MappingFunction = "urlEncode"
	MapURLDecode              MappingFunction = "urlDecode"
	MapExtractTokenAtPosition MappingFunction = "extractTokenAtPosition"
)

// FieldMapping maps a source document/storage field to a target index field,
// with an optional encode/decode function (§3 Indexer fieldMappings).
type FieldMapping struct {
	SourceFieldName string          `json:"sourceFieldName"`
	TargetFieldName string          `json:"targetFieldName"`
	MappingFunction MappingFunction `json:"mappingFunction,omitempty"`
	// Parameter is used by extractTokenAtPosition (the token position).
	Parameter int `json:"parameter,omitempty"`
}

// OutputFieldMapping maps an explicit enriched-document JSON path to a
// target index field (§3 Indexer outputFieldMappings, §4.12 step 4d).
type OutputFieldMapping struct {
	SourcePath      string          `json:"sourcePath"`
	TargetFieldName string          `json:"targetFieldName"`
	MappingFunction MappingFunction `json:"mappingFunction,omitempty"`
}

// DataToExtract gates what a cracked document surfaces to the enriched doc
// (§4.12 step 4a).
type DataToExtract string

const (
	ExtractContentAndMetadata DataToExtract = "contentAndMetadata"
	ExtractStorageMetadata    DataToExtract = "storageMetadata"
	ExtractAllMetadata        DataToExtract = "allMetadata"
)

// IndexerParameters are batching knobs (§3 Indexer parameters).
type IndexerParameters struct {
	BatchSize      int           `json:"batchSize,omitempty"`
	MaxFailedItems int           `json:"maxFailedItems,omitempty"` // -1 means unlimited
	DataToExtract  DataToExtract `json:"dataToExtract,omitempty"`  // defaults to contentAndMetadata
}

// DataToExtractOrDefault returns DataToExtract, defaulting to
// contentAndMetadata (§4.12 step 4a).
func (p IndexerParameters) DataToExtractOrDefault() DataToExtract {
	if p.DataToExtract != "" {
		return p.DataToExtract
	}
	return ExtractContentAndMetadata
}

// Indexer is a named resource wiring a data source, an optional skillset,
// and a target index together (§3).
type Indexer struct {
	Name                string               `json:"name"`
	DataSourceName      string               `json:"dataSourceName"`
	TargetIndexName     string               `json:"targetIndexName"`
	SkillsetName        string               `json:"skillsetName,omitempty"`
	Schedule            string               `json:"schedule,omitempty"` // ISO-8601 interval
	FieldMappings       []FieldMapping       `json:"fieldMappings,omitempty"`
	OutputFieldMappings []OutputFieldMapping `json:"outputFieldMappings,omitempty"`
	Parameters          IndexerParameters    `json:"parameters,omitempty"`
	Disabled            bool                 `json:"disabled,omitempty"`
	ETag                string               `json:"etag,omitempty"`
}

// IndexerRunState is the overall status of an indexer (§3 Indexer status).
type IndexerRunState string

const (
	RunStateRunning IndexerRunState = "running"
	RunStateError   IndexerRunState = "error"
	RunStateUnknown IndexerRunState = "unknown"
)

// ExecutionResult is one recorded indexer run (§3 Indexer status, §4.12 step 6).
type ExecutionResult struct {
	ID                 string          `json:"id"`
	StartTime          time.Time       `json:"startTime"`
	EndTime             time.Time      `json:"endTime"`
	ItemsProcessed     int             `json:"itemsProcessed"`
	ItemsFailed        int             `json:"itemsFailed"`
	InitialTrackingState string        `json:"initialTrackingState"`
	FinalTrackingState   string        `json:"finalTrackingState"`
	Errors             []string        `json:"errors,omitempty"`
	Warnings           []string        `json:"warnings,omitempty"`
}

// IndexerStatus is the persisted status an indexer owns (§3).
type IndexerStatus struct {
	IndexerName string            `json:"indexerName"`
	Status      IndexerRunState   `json:"status"`
	LastResult  *ExecutionResult  `json:"lastResult,omitempty"`
	// History is bounded to the most recent maxExecutionHistory executions (§3, §4.12 step 6).
	History []ExecutionResult `json:"history,omitempty"`
}

const maxExecutionHistory = 10

// RecordExecution appends result, trimming history to the most recent
// maxExecutionHistory entries (§3 "bounded to the most recent 10 executions").
func (s *IndexerStatus) RecordExecution(result ExecutionResult) {
	s.LastResult = &result
	s.History = append(s.History, result)
	if len(s.History) > maxExecutionHistory {
		s.History = s.History[len(s.History)-maxExecutionHistory:]
	}
	if len(result.Errors) > 0 {
		s.Status = RunStateError
	} else {
		s.Status = RunStateUnknown
	}
}

// SynonymMap is an independent named resource (§3). The catalog stores it;
// no analyzer stage applies its rules at indexing or query time.
type SynonymMap struct {
	Name    string   `json:"name"`
	Rules   []string `json:"rules"` // "a,b,c" solr-style equivalence lines
	ETag    string   `json:"etag,omitempty"`
}
