package queryexec

import (
	"sort"

	"github.com/liliang-cn/searchsim/internal/value"
)

const defaultFacetCount = 10

// computeFacets buckets candidateKeys by each requested facetable field's
// value and count (§4.6 step 10 "Compute facets from the filter's candidate
// set (counts by value or range)"). Only value-bucketed (non-range) facets
// are computed; numeric/date range facets are not.
func computeFacets(requests []FacetRequest, candidateKeys []string, fieldsOf func(string) (map[string]value.Value, bool)) map[string][]FacetValue {
	if len(requests) == 0 {
		return nil
	}
	out := make(map[string][]FacetValue, len(requests))
	for _, req := range requests {
		counts := make(map[string]int)
		for _, key := range candidateKeys {
			fields, ok := fieldsOf(key)
			if !ok {
				continue
			}
			fv, ok := fields[req.Field]
			if !ok || fv.IsNull() {
				continue
			}
			for _, label := range facetLabels(fv) {
				counts[label]++
			}
		}
		limit := req.Count
		if limit <= 0 {
			limit = defaultFacetCount
		}
		out[req.Field] = topFacetValues(counts, limit)
	}
	return out
}

// facetLabels returns the bucket label(s) a field value contributes to; a
// Collection(...) field contributes one label per element (multi-value
// facets), everything else contributes a single label.
func facetLabels(fv value.Value) []string {
	if fv.Kind == value.KindList {
		out := make([]string, 0, len(fv.List))
		for _, item := range fv.List {
			out = append(out, item.AsString())
		}
		return out
	}
	return []string{fv.AsString()}
}

func topFacetValues(counts map[string]int, limit int) []FacetValue {
	out := make([]FacetValue, 0, len(counts))
	for v, c := range counts {
		out = append(out, FacetValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
