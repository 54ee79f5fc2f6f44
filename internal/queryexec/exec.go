package queryexec

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/filter"
	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/scoring"
	"github.com/liliang-cn/searchsim/internal/value"
	"github.com/liliang-cn/searchsim/internal/vecindex"
)

const candidateBuffer = 50

// VectorStores resolves the vector store backing one field of an index, or
// nil if the field has no vector store (not a vector field, or never
// populated).
type VectorStores interface {
	StoreFor(field string) (*vecindex.Store, bool)
}

// Executor runs queries against one index (§4.6).
type Executor struct {
	Index  catalog.IndexDef
	Lex    *lexical.Index
	Vector VectorStores
}

// Run executes req against the index and returns the materialized response
// (§4.6 "Pipeline").
func (e *Executor) Run(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.New("queryexec.Run", errs.Cancelled, err)
	}

	var compiledFilter *filter.Compiled
	if strings.TrimSpace(req.Filter) != "" {
		cf, err := filter.Compile(req.Filter, e.Index)
		if err != nil {
			return nil, err
		}
		compiledFilter = cf
	}

	profile, hasProfile := e.Index.ScoringProfileByName(req.ScoringProfile)
	if req.ScoringProfile != "" && !hasProfile {
		return nil, errs.Newf("queryexec.Run", errs.InvalidRequest, "scoring profile %q does not exist", req.ScoringProfile)
	}

	hasTextQuery := !lexical.IsMatchAll(req.SearchText)
	matchAll := !hasTextQuery && len(req.VectorQueries) == 0

	allKeys := e.Lex.AllKeys()
	var filterSet map[string]bool
	if compiledFilter != nil {
		filterSet = make(map[string]bool)
		for _, key := range allKeys {
			fields, ok := e.Lex.Get(key)
			if !ok {
				continue
			}
			ok, err := compiledFilter.Residual(fields)
			if err != nil {
				return nil, err
			}
			if ok {
				filterSet[key] = true
			}
		}
	}

	resultCap := req.Top + req.Skip + candidateBuffer
	if resultCap <= 0 {
		resultCap = candidateBuffer
	}

	// The lexical stream and every vector-field stream are independent reads
	// against disjoint structures; fan them out concurrently rather than
	// walking them one at a time (§4.6 step 3/4).
	type retrievalResult struct {
		stream   stream
		weight   float64
		features map[string]map[string]lexical.FieldFeatures
	}

	var textResult *retrievalResult
	vectorResults := make([]*retrievalResult, len(req.VectorQueries))

	g, _ := errgroup.WithContext(ctx)

	if hasTextQuery {
		g.Go(func() error {
			opts := lexical.SearchOptions{
				SearchFields:  req.SearchFields,
				FieldWeights:  profile.TextWeights,
				Features:      req.FeaturesMode == "enabled",
				CandidateKeys: filterSet,
			}
			hits, err := e.Lex.Search(req.SearchText, opts)
			if err != nil {
				return err
			}
			hits = capHits(hits, resultCap)
			keys := make([]string, 0, len(hits))
			scores := make(map[string]float64, len(hits))
			features := make(map[string]map[string]lexical.FieldFeatures)
			for _, h := range hits {
				keys = append(keys, h.Key)
				scores[h.Key] = h.Score
				if h.Features != nil {
					features[h.Key] = h.Features
				}
			}
			textResult = &retrievalResult{stream: newStreamFromPairs(keys, scores), weight: 0.3, features: features}
			return nil
		})
	}

	for i, vq := range req.VectorQueries {
		i, vq := i, vq
		g.Go(func() error {
			store, ok := e.Vector.StoreFor(vq.Field)
			if !ok || store == nil {
				return nil
			}
			k := vq.K
			if k <= 0 {
				k = resultCap
			}
			var candidates []vecindex.Candidate
			var err error
			if filterSet != nil {
				candidates, err = store.FilteredKNN(vq.Vector, k, filterSet)
			} else {
				candidates, err = store.KNN(vq.Vector, k)
			}
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(candidates))
			scores := make(map[string]float64, len(candidates))
			for _, c := range candidates {
				keys = append(keys, c.Key)
				scores[c.Key] = c.Score
			}
			w := vq.Weight
			if w <= 0 {
				w = 0.7 / float64(len(req.VectorQueries))
			}
			vectorResults[i] = &retrievalResult{stream: newStreamFromPairs(keys, scores), weight: w}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var streams []stream
	var weights []float64
	var featuresByKey map[string]map[string]lexical.FieldFeatures

	if textResult != nil {
		streams = append(streams, textResult.stream)
		weights = append(weights, textResult.weight)
		featuresByKey = textResult.features
	}
	for _, vr := range vectorResults {
		if vr == nil {
			continue
		}
		streams = append(streams, vr.stream)
		weights = append(weights, vr.weight)
	}

	var fused map[string]float64
	switch {
	case matchAll:
		fused = make(map[string]float64, len(allKeys))
		for _, key := range allKeys {
			if filterSet != nil && !filterSet[key] {
				continue
			}
			fused[key] = 1.0
		}
	case len(streams) == 1:
		fused = streams[0].scores
	default:
		method := req.FusionMethod
		if method == "" {
			method = FusionRRF
		}
		if method == FusionWeighted {
			fused = fuseWeighted(streams, weights)
		} else {
			fused = fuseRRF(streams)
		}
	}

	boosted := make(map[string]float64, len(fused))
	var profilePtr *catalog.ScoringProfile
	if hasProfile {
		p := profile
		profilePtr = &p
	}
	for key, score := range fused {
		fields, ok := e.Lex.Get(key)
		if !ok {
			continue
		}
		boosted[key] = scoring.Apply(profilePtr, score, fields, req.ScoringParams)
	}

	ordered := orderKeysForResponse(boosted, req.OrderBy, e.Lex)
	total := len(ordered)

	start := req.Skip
	if start > len(ordered) {
		start = len(ordered)
	}
	end := start + req.Top
	if req.Top <= 0 {
		end = len(ordered)
	}
	if end > len(ordered) {
		end = len(ordered)
	}
	page := ordered[start:end]

	rows := make([]ResultRow, 0, len(page))
	for _, key := range page {
		fields, _ := e.Lex.Get(key)
		row := ResultRow{
			Key:    key,
			Fields: projectFields(fields, req.Select, e.Index),
			Score:  boosted[key],
		}
		if len(req.Highlight) > 0 {
			row.Highlights = e.computeHighlights(key, req)
		}
		if fmap := featuresByKey[key]; fmap != nil {
			row.Features = toFeatureDTOs(fmap)
		}
		rows = append(rows, row)
	}

	resp := &Response{Value: rows}
	if req.Count {
		n := total
		resp.Count = &n
	}
	if len(req.Facets) > 0 {
		candidateKeys := allKeys
		if filterSet != nil {
			candidateKeys = keysOf(filterSet)
		}
		resp.Facets = computeFacets(req.Facets, candidateKeys, e.Lex.Get)
	}
	return resp, nil
}

func capHits(hits []lexical.Hit, cap int) []lexical.Hit {
	if len(hits) > cap {
		return hits[:cap]
	}
	return hits
}

func keysOf(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func toFeatureDTOs(in map[string]lexical.FieldFeatures) map[string]FieldFeaturesDTO {
	out := make(map[string]FieldFeaturesDTO, len(in))
	for k, v := range in {
		out[k] = FieldFeaturesDTO{UniqueTokenMatches: v.UniqueTokenMatches, SimilarityScore: v.SimilarityScore, TermFrequency: v.TermFrequency}
	}
	return out
}

func (e *Executor) computeHighlights(key string, req Request) map[string][]string {
	pre, post := req.HighlightPreTag, req.HighlightPostTag
	if pre == "" {
		pre = "<em>"
	}
	if post == "" {
		post = "</em>"
	}
	terms := queryTermsFor(req.SearchText)
	out := make(map[string][]string)
	for _, field := range req.Highlight {
		frags := e.Lex.Highlight(key, field, terms, 0)
		if pre != "<em>" || post != "</em>" {
			for i, f := range frags {
				frags[i] = strings.ReplaceAll(strings.ReplaceAll(f, "<em>", pre), "</em>", post)
			}
		}
		if len(frags) > 0 {
			out[field] = frags
		}
	}
	return out
}

func queryTermsFor(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// projectFields materializes the requested `select` fields (or, if empty,
// every non-vector field) from a document's typed value tree into plain
// JSON-able values (§4.6 step 9).
func projectFields(fields map[string]value.Value, sel []string, idx catalog.IndexDef) map[string]any {
	out := make(map[string]any, len(fields))
	if len(sel) > 0 {
		for _, name := range sel {
			if fv, ok := fields[name]; ok {
				out[name] = value.ToAny(fv)
			}
		}
		return out
	}
	for _, f := range idx.Fields {
		if f.IsVector() {
			continue
		}
		if fv, ok := fields[f.Name]; ok {
			out[f.Name] = value.ToAny(fv)
		}
	}
	return out
}
