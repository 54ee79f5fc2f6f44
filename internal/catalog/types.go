// Package catalog is the index catalog (§4 component 1 in spec.md §2): index
// definitions, fields, scoring profiles, suggesters, vector-search config,
// and the independent named resources (data sources, skillsets, indexers,
// synonym maps) referenced by them (§3 "Lifecycle and ownership").
package catalog

import "time"

// FieldType is one of the primitive Edm-style types, a Collection(<primitive>),
// or Complex (§3 Field).
type FieldType string

const (
	TypeString         FieldType = "Edm.String"
	TypeInt32          FieldType = "Edm.Int32"
	TypeInt64          FieldType = "Edm.Int64"
	TypeDouble         FieldType = "Edm.Double"
	TypeBoolean        FieldType = "Edm.Boolean"
	TypeDateTimeOffset FieldType = "Edm.DateTimeOffset"
	TypeGeographyPoint FieldType = "Edm.GeographyPoint"
	TypeSingle         FieldType = "Edm.Single"
	TypeComplex        FieldType = "Edm.ComplexType"
)

// IsPrimitive reports whether t is one of the scalar Edm types (not a
// Collection(...) wrapper and not Complex).
func (t FieldType) IsPrimitive() bool {
	switch t {
	case TypeString, TypeInt32, TypeInt64, TypeDouble, TypeBoolean, TypeDateTimeOffset, TypeGeographyPoint, TypeSingle:
		return true
	}
	return false
}

// IsStringLike reports whether t (including its collection element type) is
// textual, the only family eligible for `searchable` (§3 Field invariant).
func (t FieldType) IsStringLike() bool {
	return t == TypeString || CollectionElem(t) == TypeString
}

// Collection wraps a primitive element type as Collection(<elem>).
func Collection(elem FieldType) FieldType { return FieldType("Collection(" + string(elem) + ")") }

// IsCollection reports whether t is a Collection(...) field type.
func IsCollection(t FieldType) bool {
	return len(t) > len("Collection()") && t[:11] == "Collection("
}

// CollectionElem returns the element type of a Collection(...) field type,
// or "" if t is not a collection.
func CollectionElem(t FieldType) FieldType {
	s := string(t)
	if len(s) < 12 || s[:11] != "Collection(" || s[len(s)-1] != ')' {
		return ""
	}
	return FieldType(s[11 : len(s)-1])
}

// Field is one field of an index definition (§3 Field).
type Field struct {
	Name        string    `json:"name" validate:"required"`
	Type        FieldType `json:"type" validate:"required"`
	Key         bool      `json:"key,omitempty"`
	Searchable  bool      `json:"searchable,omitempty"`
	Filterable  bool      `json:"filterable,omitempty"`
	Retrievable bool      `json:"retrievable,omitempty"`
	Stored      bool      `json:"stored,omitempty"`
	Sortable    bool      `json:"sortable,omitempty"`
	Facetable   bool      `json:"facetable,omitempty"`

	SearchAnalyzer string   `json:"searchAnalyzer,omitempty"`
	IndexAnalyzer  string   `json:"indexAnalyzer,omitempty"`
	Analyzer       string   `json:"analyzer,omitempty"`
	SynonymMaps    []string `json:"synonymMaps,omitempty"`

	// Dimensions and VectorSearchProfile apply only to Collection(Edm.Single)
	// vector fields (§3 Field: "vector-only").
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`

	// Fields holds nested fields for Type == TypeComplex (and
	// Collection(Edm.ComplexType), modeled the same way as a nested schema).
	Fields []Field `json:"fields,omitempty"`
}

// IsVector reports whether f is a dense-vector field (a float collection with
// declared dimensions and a profile reference).
func (f Field) IsVector() bool {
	return f.Dimensions > 0 && f.VectorSearchProfile != ""
}

// KeywordSidecarName is the shadow field name used when a field is both
// searchable and filterable (§4.2 "same field name twice" trap, §9 design note).
func (f Field) KeywordSidecarName() string { return f.Name + "__kw" }

// IndexAnalyzerOrDefault is the analyzer used at indexing time: the
// specific IndexAnalyzer if set, else the shared Analyzer, else "" (the
// registry resolves "" to its standard analyzer).
func (f Field) IndexAnalyzerOrDefault() string {
	if f.IndexAnalyzer != "" {
		return f.IndexAnalyzer
	}
	return f.Analyzer
}

// SearchAnalyzerOrDefault is the analyzer used at query time: the specific
// SearchAnalyzer if set, else the shared Analyzer, else "".
func (f Field) SearchAnalyzerOrDefault() string {
	if f.SearchAnalyzer != "" {
		return f.SearchAnalyzer
	}
	return f.Analyzer
}

// Interpolation shapes used by scoring functions (§3 Scoring profile, §4.5).
type Interpolation string

const (
	InterpLinear      Interpolation = "linear"
	InterpConstant    Interpolation = "constant"
	InterpQuadratic   Interpolation = "quadratic"
	InterpLogarithmic Interpolation = "logarithmic"
)

// ScoringFunctionType is one of the four scoring-function kinds (§3).
type ScoringFunctionType string

const (
	FuncFreshness ScoringFunctionType = "freshness"
	FuncMagnitude ScoringFunctionType = "magnitude"
	FuncDistance  ScoringFunctionType = "distance"
	FuncTag       ScoringFunctionType = "tag"
)

// ScoringFunction is one function contribution to a scoring profile (§3,
// §4.5). Only the fields relevant to Type are populated.
type ScoringFunction struct {
	Type          ScoringFunctionType `json:"type"`
	FieldName     string              `json:"fieldName"`
	Boost         float64             `json:"boost"`
	Interpolation Interpolation       `json:"interpolation"`

	// freshness
	BoostingDuration string `json:"boostingDuration,omitempty"`

	// magnitude
	BoostingRangeStart      float64 `json:"boostingRangeStart,omitempty"`
	BoostingRangeEnd        float64 `json:"boostingRangeEnd,omitempty"`
	ConstantBoostBeyondRange bool   `json:"constantBoostBeyondRange,omitempty"`

	// distance
	ReferencePointParameter string  `json:"referencePointParameter,omitempty"`
	BoostingDistance        float64 `json:"boostingDistance,omitempty"`

	// tag
	TagsParameter string `json:"tagsParameter,omitempty"`
}

// Aggregation combines multiple scoring-function results (§3, default "sum").
type Aggregation string

const (
	AggSum          Aggregation = "sum"
	AggAverage      Aggregation = "average"
	AggMinimum      Aggregation = "minimum"
	AggMaximum      Aggregation = "maximum"
	AggFirstMatching Aggregation = "firstMatching"
)

// ScoringProfile is a declarative per-index document-boost definition (§3).
type ScoringProfile struct {
	Name        string             `json:"name"`
	TextWeights map[string]float64 `json:"textWeights,omitempty"`
	Functions   []ScoringFunction  `json:"functions,omitempty"`
	Aggregation Aggregation        `json:"aggregation,omitempty"`
}

// VectorMetric is the HNSW distance metric (§3 Vector-search config).
type VectorMetric string

const (
	MetricCosine     VectorMetric = "cosine"
	MetricEuclidean  VectorMetric = "euclidean"
	MetricDotProduct VectorMetric = "dotProduct"
)

// HNSWAlgorithm is one named HNSW parameter set (§3).
type HNSWAlgorithm struct {
	Name           string       `json:"name"`
	M              int          `json:"m"`
	EfConstruction int          `json:"efConstruction"`
	EfSearch       int          `json:"efSearch"`
	Metric         VectorMetric `json:"metric"`
}

// VectorSearchConfig maps named profiles to named algorithms (§3).
type VectorSearchConfig struct {
	Algorithms []HNSWAlgorithm  `json:"algorithms,omitempty"`
	Profiles   map[string]string `json:"profiles,omitempty"` // profile name -> algorithm name
}

// AlgorithmFor resolves the HNSWAlgorithm backing a named vector-search profile.
func (c VectorSearchConfig) AlgorithmFor(profile string) (HNSWAlgorithm, bool) {
	algoName, ok := c.Profiles[profile]
	if !ok {
		return HNSWAlgorithm{}, false
	}
	for _, a := range c.Algorithms {
		if a.Name == algoName {
			return a, true
		}
	}
	return HNSWAlgorithm{}, false
}

// SimilarityAlgorithm selects BM25 or Classic TF-IDF (§3, §4.2).
type SimilarityAlgorithm string

const (
	SimilarityBM25    SimilarityAlgorithm = "bm25"
	SimilarityClassic SimilarityAlgorithm = "classic"
)

// Similarity is the per-index similarity configuration (§3, §4.2).
type Similarity struct {
	Algorithm SimilarityAlgorithm `json:"algorithm"`
	K1        float64             `json:"k1"`
	B         float64             `json:"b"`
}

// DefaultSimilarity is BM25 with the teacher-unrelated, spec-mandated defaults.
func DefaultSimilarity() Similarity {
	return Similarity{Algorithm: SimilarityBM25, K1: 1.2, B: 0.75}
}

// Suggester is an infix-matching suggester definition (§3).
type Suggester struct {
	Name         string   `json:"name"`
	SourceFields []string `json:"sourceFields"`
	SearchMode   string   `json:"searchMode"` // always "analyzingInfixMatching"
}

// IndexDef is the top-level index definition owning fields, scoring
// profiles, analyzers, and suggesters (§3 Index definition).
type IndexDef struct {
	Name                  string                    `json:"name"`
	Fields                []Field                   `json:"fields"`
	ScoringProfiles       []ScoringProfile          `json:"scoringProfiles,omitempty"`
	DefaultScoringProfile string                    `json:"defaultScoringProfile,omitempty"`
	Suggesters            []Suggester               `json:"suggesters,omitempty"`
	CustomAnalyzers       []string                  `json:"customAnalyzers,omitempty"`
	VectorSearch          VectorSearchConfig        `json:"vectorSearch,omitempty"`
	Similarity            Similarity                `json:"similarity,omitempty"`
	ETag                  string                    `json:"etag,omitempty"`
	CreatedAt             time.Time                 `json:"createdAt"`
	ModifiedAt            time.Time                 `json:"modifiedAt"`
}

// KeyField returns the single field marked Key, and whether one was found
// (the invariant guarantees exactly one after validation).
func (d IndexDef) KeyField() (Field, bool) {
	for _, f := range d.Fields {
		if f.Key {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByName looks a top-level field up case-insensitively (§3 invariant:
// field names are unique case-insensitively).
func (d IndexDef) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if equalFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// ScoringProfileByName looks a named scoring profile up, or the default if
// name is empty (§4.5).
func (d IndexDef) ScoringProfileByName(name string) (ScoringProfile, bool) {
	if name == "" {
		name = d.DefaultScoringProfile
	}
	if name == "" {
		return ScoringProfile{}, false
	}
	for _, p := range d.ScoringProfiles {
		if p.Name == name {
			return p, true
		}
	}
	return ScoringProfile{}, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
