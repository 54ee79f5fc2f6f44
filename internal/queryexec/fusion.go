package queryexec

import "sort"

// rrfK is the standard Reciprocal Rank Fusion constant (§4.6 step 5).
const rrfK = 60

// stream is one ranked retrieval result (lexical or one vector query),
// ordered by descending relevance within that stream.
type stream struct {
	keys   []string
	scores map[string]float64
}

func newStreamFromPairs(keys []string, scores map[string]float64) stream {
	return stream{keys: keys, scores: scores}
}

// fuseRRF implements §4.6's Reciprocal Rank Fusion: score(d) = Σ 1/(k + rank)
// across every stream the document appears in; absence from a stream
// contributes 0.
func fuseRRF(streams []stream) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range streams {
		for rank, key := range s.keys {
			out[key] += 1.0 / float64(rrfK+rank+1)
		}
	}
	return out
}

// fuseWeighted implements §4.6's weighted fusion: each stream's raw scores
// are min-max normalized to [0,1], then combined with the supplied weights.
func fuseWeighted(streams []stream, weights []float64) map[string]float64 {
	out := make(map[string]float64)
	for i, s := range streams {
		weight := 1.0
		if i < len(weights) {
			weight = weights[i]
		}
		normalized := minMaxNormalize(s)
		for key, v := range normalized {
			out[key] += v * weight
		}
	}
	return out
}

func minMaxNormalize(s stream) map[string]float64 {
	out := make(map[string]float64, len(s.keys))
	if len(s.keys) == 0 {
		return out
	}
	min, max := s.scores[s.keys[0]], s.scores[s.keys[0]]
	for _, k := range s.keys {
		v := s.scores[k]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	for _, k := range s.keys {
		if span == 0 {
			out[k] = 1
			continue
		}
		out[k] = (s.scores[k] - min) / span
	}
	return out
}

// orderedKeys returns the keys of scores sorted by descending score, ties
// broken by ascending key (§4.6 "Ordering guarantees").
func orderedKeys(scores map[string]float64) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
