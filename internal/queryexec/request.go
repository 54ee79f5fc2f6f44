// Package queryexec is the query executor (§4.6): it resolves one search
// request against an index's lexical store, vector stores, filter
// evaluator, and scoring profile, producing ordered, paged, materialized
// results with highlights, features, facets, and fusion of text+vector
// retrieval. Grounded on the teacher's pkg/core/reranker.go (combining
// independently-scored candidate streams) and faceted_search.go/
// aggregations.go (bucketing a candidate set by field value).
package queryexec

import (
	"time"

	"github.com/liliang-cn/searchsim/internal/scoring"
)

// FusionMethod selects how a text stream and vector streams are combined
// (§4.6 step 5).
type FusionMethod string

const (
	FusionRRF      FusionMethod = "rrf"
	FusionWeighted FusionMethod = "weighted"
)

// OrderClause is one `orderBy` term (§4.6 step 7).
type OrderClause struct {
	Field      string
	Descending bool
}

// VectorQuery is one `vectorQueries[]` entry (§4.6 step 4).
type VectorQuery struct {
	Field  string
	Vector []float32
	K      int
	Weight float64 // used by Weighted fusion; defaults to 0.7 split across all vector queries
}

// FacetRequest is one `facets` entry, e.g. "category" or "rating,count:5"
// (§4.6 step 10).
type FacetRequest struct {
	Field string
	Count int // 0 means use the default of 10
}

// Request is one query executor invocation (§4.6 "Inputs"). SearchMode,
// QueryType, Debug and Deadline are carried but not read by Executor.Run:
// every query is evaluated in "any" mode with the simple syntax, no debug
// data is produced, and no deadline is enforced.
type Request struct {
	SearchText          string
	Filter              string
	Select              []string
	OrderBy             []OrderClause
	Top                 int
	Skip                int
	Count               bool
	Highlight           []string
	HighlightPreTag     string
	HighlightPostTag    string
	SearchMode          string // "any" (default) | "all"
	QueryType           string // "simple" (default) | "full"
	SearchFields        []string
	Facets              []FacetRequest
	VectorQueries       []VectorQuery
	FusionMethod        FusionMethod
	FeaturesMode        string // "" | "enabled"
	Debug               string // "" | "vector" | "all"
	ScoringProfile      string
	ScoringParams       scoring.Params
	Deadline            time.Time
}

// ResultRow is one materialized hit (§4.6 step 9).
type ResultRow struct {
	Key        string
	Fields     map[string]any
	Score      float64
	Highlights map[string][]string
	Features   map[string]FieldFeaturesDTO
	Debug      map[string]any
}

// FieldFeaturesDTO mirrors lexical.FieldFeatures for the response surface,
// decoupling the executor's public API from the lexical package's internal
// type.
type FieldFeaturesDTO struct {
	UniqueTokenMatches int     `json:"uniqueTokenMatches"`
	SimilarityScore    float64 `json:"similarityScore"`
	TermFrequency      int     `json:"termFrequency"`
}

// FacetValue is one bucket of a computed facet (§4.6 step 10).
type FacetValue struct {
	Value string
	Count int
}

// Response is the executor's output (§4.6 step 11).
type Response struct {
	Count  *int
	Value  []ResultRow
	Facets map[string][]FacetValue
}
