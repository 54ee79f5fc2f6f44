package lexical

import (
	"math"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

// fieldStats is the corpus-level statistics a similarity function needs for
// one field (§4.2 "Similarity ... applied to both indexing-time norms and
// query-time scoring").
type fieldStats struct {
	totalDocs   int
	avgFieldLen float64
}

// termScore computes one term's contribution to a document's score in one
// field, per the index's configured similarity (§4.2).
func termScore(sim catalog.Similarity, stats fieldStats, docFreq, termFreq, fieldLen int) float64 {
	if docFreq == 0 || termFreq == 0 || stats.totalDocs == 0 {
		return 0
	}
	idf := idfOf(stats.totalDocs, docFreq)
	switch sim.Algorithm {
	case catalog.SimilarityClassic:
		tf := math.Sqrt(float64(termFreq))
		return tf * idf * idf
	default: // BM25
		k1, b := sim.K1, sim.B
		if k1 == 0 && b == 0 {
			d := catalog.DefaultSimilarity()
			k1, b = d.K1, d.B
		}
		norm := 1 - b + b*float64(fieldLen)/maxFloat(stats.avgFieldLen, 1)
		tf := (float64(termFreq) * (k1 + 1)) / (float64(termFreq) + k1*norm)
		return idf * tf
	}
}

// idfOf is the BM25 inverse-document-frequency term, floored at a small
// positive value so a term present in every document never zeroes out a
// match entirely.
func idfOf(totalDocs, docFreq int) float64 {
	v := math.Log(1 + (float64(totalDocs)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
	if v < 1e-6 {
		return 1e-6
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
