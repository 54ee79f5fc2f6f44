package lexical

import (
	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
)

// FieldFeatures is the §4.2 featuresMode=enabled payload for one matching
// searchable field.
type FieldFeatures struct {
	UniqueTokenMatches int
	SimilarityScore     float64
	TermFrequency       int
}

// Hit is one scored document from Search.
type Hit struct {
	Key      string
	Score    float64
	Features map[string]FieldFeatures // keyed by field name, only when requested
}

// SearchOptions configures one lexical query (§4.2).
type SearchOptions struct {
	SearchFields []string           // restricts scoring to these fields; empty = all searchable fields
	FieldWeights map[string]float64 // text.weights from the scoring profile (§4.5 item 3)
	Features     bool               // featuresMode=enabled
	CandidateKeys map[string]bool   // when non-nil, restrict to this key set (lexical-filter pushdown from §4.3)
}

// Search evaluates a simple-query-string search against searchable fields
// (§4.2 "Query surface"). Returns hits ordered by descending score; callers
// re-rank/paginate downstream.
func (ix *Index) Search(queryText string, opts SearchOptions) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	fields := ix.searchableFieldsLocked(opts.SearchFields)

	if IsMatchAll(queryText) {
		return ix.matchAllLocked(opts), nil
	}

	clauses := ParseSimpleQuery(queryText, func(s string) []string {
		return analyzeQueryTermLocked(ix, fields, s)
	})
	if len(clauses) == 0 {
		return ix.matchAllLocked(opts), nil
	}

	candidates := ix.candidateSetLocked(clauses, fields, opts)
	hits := make([]Hit, 0, len(candidates))
	for key := range candidates {
		if opts.CandidateKeys != nil && !opts.CandidateKeys[key] {
			continue
		}
		score, features, ok := ix.scoreDocLocked(key, clauses, fields, opts)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Key: key, Score: score, Features: features})
	}
	sortHitsDescending(hits)
	return hits, nil
}

func (ix *Index) searchableFieldsLocked(restrict []string) []catalog.Field {
	allowed := make(map[string]bool, len(restrict))
	for _, f := range restrict {
		allowed[f] = true
	}
	var out []catalog.Field
	for _, f := range ix.def.Fields {
		if !f.Searchable || !f.Type.IsStringLike() {
			continue
		}
		if len(restrict) > 0 && !allowed[f.Name] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func analyzeQueryTermLocked(ix *Index, fields []catalog.Field, term string) []string {
	// The default search analyzer is shared across all restricted fields
	// for simplicity; a per-field search analyzer is honored when every
	// candidate field agrees (the common case), otherwise falls back to
	// the registry default.
	name := ""
	for i, f := range fields {
		a := f.SearchAnalyzerOrDefault()
		if i == 0 {
			name = a
		} else if a != name {
			name = ""
			break
		}
	}
	analyzeFn := ix.reg.Resolve(name)
	toks := analyzeFn(term)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}

func (ix *Index) matchAllLocked(opts SearchOptions) []Hit {
	hits := make([]Hit, 0, len(ix.docs))
	for key := range ix.docs {
		if opts.CandidateKeys != nil && !opts.CandidateKeys[key] {
			continue
		}
		hits = append(hits, Hit{Key: key, Score: 1.0})
	}
	sortHitsDescending(hits)
	return hits
}

// candidateSetLocked returns the keys that satisfy every "must" clause and
// no "mustNot" clause across the restricted fields, and at least one
// "should"/"must" term if no must clauses were given.
func (ix *Index) candidateSetLocked(clauses []queryClause, fields []catalog.Field, opts SearchOptions) map[string]bool {
	hasMust := false
	for _, c := range clauses {
		if c.kind == clauseMust {
			hasMust = true
		}
	}

	out := make(map[string]bool)
	first := true
	for _, c := range clauses {
		if c.kind == clauseMustNot {
			continue
		}
		if hasMust && c.kind != clauseMust {
			continue
		}
		matched := ix.clauseMatchesLocked(c, fields)
		if first {
			for k := range matched {
				out[k] = true
			}
			first = false
			continue
		}
		if hasMust {
			for k := range out {
				if !matched[k] {
					delete(out, k)
				}
			}
		} else {
			for k := range matched {
				out[k] = true
			}
		}
	}

	for _, c := range clauses {
		if c.kind != clauseMustNot {
			continue
		}
		matched := ix.clauseMatchesLocked(c, fields)
		for k := range matched {
			delete(out, k)
		}
	}
	return out
}

func (ix *Index) clauseMatchesLocked(c queryClause, fields []catalog.Field) map[string]bool {
	targetFields := fields
	if c.field != "" {
		targetFields = []catalog.Field{{Name: c.field}}
	}
	out := make(map[string]bool)
	for _, f := range targetFields {
		postings := ix.postings[f.Name]
		if postings == nil {
			continue
		}
		if c.phrase {
			matchPhraseLocked(ix, f.Name, c.terms, out)
			continue
		}
		for _, term := range c.terms {
			for k := range postings[term] {
				out[k] = true
			}
		}
	}
	return out
}

// matchPhraseLocked matches a quoted phrase by requiring consecutive token
// positions in the field's analyzed stream.
func matchPhraseLocked(ix *Index, field string, terms []string, out map[string]bool) {
	if len(terms) == 0 {
		return
	}
	postings := ix.postings[field]
	candidates := postings[terms[0]]
	for key := range candidates {
		doc, ok := ix.docs[key]
		if !ok {
			continue
		}
		if phrasePresentInDoc(doc.fieldTokens[field], terms) {
			out[key] = true
		}
	}
}

// phrasePresentInDoc reports whether terms occur as a consecutive run of
// positions in tokens (a quoted-phrase match, §4.2).
func phrasePresentInDoc(tokens []analyzer.Token, terms []string) bool {
	if len(terms) == 0 || len(tokens) == 0 {
		return false
	}
	for start := 0; start <= len(tokens)-len(terms); start++ {
		if tokens[start].Text != terms[0] {
			continue
		}
		matched := true
		for i := 1; i < len(terms); i++ {
			if tokens[start+i].Text != terms[i] || tokens[start+i].Pos != tokens[start+i-1].Pos+1 {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func (ix *Index) scoreDocLocked(key string, clauses []queryClause, fields []catalog.Field, opts SearchOptions) (float64, map[string]FieldFeatures, bool) {
	doc, ok := ix.docs[key]
	if !ok {
		return 0, nil, false
	}
	var total float64
	var features map[string]FieldFeatures
	if opts.Features {
		features = make(map[string]FieldFeatures)
	}

	for _, f := range fields {
		termFreqs := doc.fieldTermFreq[f.Name]
		if len(termFreqs) == 0 {
			continue
		}
		stats := fieldStats{
			totalDocs:   len(ix.docs),
			avgFieldLen: avgFieldLenLocked(ix, f.Name),
		}
		weight := fieldWeight(f.Name, opts.FieldWeights)

		var fieldScore float64
		uniqueMatches := 0
		totalTermFreq := 0
		for _, c := range clauses {
			if c.kind == clauseMustNot {
				continue
			}
			if c.field != "" && c.field != f.Name {
				continue
			}
			for _, term := range c.terms {
				tf := termFreqs[term]
				if tf == 0 {
					continue
				}
				docFreq := len(ix.postings[f.Name][term])
				s := termScore(ix.def.Similarity, stats, docFreq, tf, doc.fieldLength[f.Name])
				fieldScore += s * c.boost
				uniqueMatches++
				totalTermFreq += tf
			}
		}
		if fieldScore == 0 {
			continue
		}
		total += fieldScore * weight
		if features != nil {
			features[f.Name] = FieldFeatures{
				UniqueTokenMatches: uniqueMatches,
				SimilarityScore:    fieldScore,
				TermFrequency:      totalTermFreq,
			}
		}
	}
	if total == 0 {
		return 0, nil, false
	}
	return total, features, true
}

func avgFieldLenLocked(ix *Index, field string) float64 {
	if len(ix.docs) == 0 {
		return 0
	}
	return float64(ix.totalDocLen[field]) / float64(len(ix.docs))
}

func fieldWeight(field string, weights map[string]float64) float64 {
	if w, ok := weights[field]; ok && w > 0 {
		return w
	}
	return 1
}

func sortHitsDescending(hits []Hit) {
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && hits[j-1].Score < hits[j].Score {
			hits[j-1], hits[j] = hits[j], hits[j-1]
			j--
		}
	}
}
