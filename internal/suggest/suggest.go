// Package suggest implements the suggester/autocomplete subsystem (§4.7): an
// edge-gram infix index built per-suggester over its source fields,
// supporting prefix-based `suggest` (whole matched documents) and
// `autocomplete` (oneTerm | twoTerms | oneTermWithContext). No prefix-trie or
// fuzzy-matching library appears anywhere in the retrieved example pack, so
// this is hand-rolled on top of analyzer.EdgeGrams rather than imported (see
// DESIGN.md); the gram-to-postings map mirrors internal/lexical's
// inverted index for consistency within this codebase.
package suggest

import (
	"sort"
	"strings"

	"github.com/liliang-cn/searchsim/internal/analyzer"
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/value"
)

const (
	minGram = 2
	maxGram = 10
)

// Mode selects the shape of autocomplete results (§4.7).
type Mode string

const (
	ModeOneTerm            Mode = "oneTerm"
	ModeTwoTerms           Mode = "twoTerms"
	ModeOneTermWithContext Mode = "oneTermWithContext"
)

// Hit is one `suggest` result: the matched document key plus the matched
// source field text with the prefix highlighted.
type Hit struct {
	Key  string
	Text string // @search.text, with the matched prefix wrapped in <em>...</em>
}

// Completion is one `autocomplete` result.
type Completion struct {
	Text string // the completed term or term pair
}

// gramEntry records which document+field a term occurrence belongs to, so a
// prefix match can be traced back to its source text for highlighting.
type gramEntry struct {
	key   string
	field string
	term  string // the full term the gram was generated from
}

// Index is one suggester's edge-gram infix index (§4.7).
type Index struct {
	def    catalog.Suggester
	reg    *analyzer.Registry
	fields map[string]catalog.Field

	// gramPostings maps an edge-gram to every (doc,field,term) occurrence
	// whose term starts with that gram.
	gramPostings map[string][]gramEntry
	// docTerms maps a document key to the ordered term sequence of each
	// source field, used by twoTerms/oneTermWithContext.
	docTerms map[string]map[string][]string
	docText  map[string]map[string]string
}

// New builds a suggester index for def, whose source fields must all be
// Edm.String (enforced by catalog.ValidateIndexDef before this is called).
func New(def catalog.Suggester, idx catalog.IndexDef, reg *analyzer.Registry) *Index {
	fields := make(map[string]catalog.Field, len(def.SourceFields))
	for _, name := range def.SourceFields {
		if f, ok := idx.FieldByName(name); ok {
			fields[name] = f
		}
	}
	return &Index{
		def:          def,
		reg:          reg,
		fields:       fields,
		gramPostings: make(map[string][]gramEntry),
		docTerms:     make(map[string]map[string][]string),
		docText:      make(map[string]map[string]string),
	}
}

// Upsert (re-)indexes doc's source fields. It removes any existing postings
// for key first, so re-upserting a key leaves no duplicate gram postings
// (mirrors internal/lexical.Index.Upsert's remove-then-reindex pattern).
func (ix *Index) Upsert(key string, doc map[string]value.Value) {
	ix.Delete(key)
	terms := make(map[string][]string, len(ix.fields))
	texts := make(map[string]string, len(ix.fields))
	for name, f := range ix.fields {
		fv, ok := doc[name]
		if !ok || fv.IsNull() {
			continue
		}
		text := fv.AsString()
		texts[name] = text
		analyze := ix.reg.Resolve(f.IndexAnalyzerOrDefault())
		toks := analyze(text)
		fieldTerms := make([]string, 0, len(toks))
		for _, t := range toks {
			fieldTerms = append(fieldTerms, t.Text)
			for _, gram := range analyzer.EdgeGrams(t.Text, minGram, maxGram) {
				ix.gramPostings[gram] = append(ix.gramPostings[gram], gramEntry{key: key, field: name, term: t.Text})
			}
		}
		terms[name] = fieldTerms
	}
	ix.docTerms[key] = terms
	ix.docText[key] = texts
}

// Delete removes key from the suggester index.
func (ix *Index) Delete(key string) {
	delete(ix.docTerms, key)
	delete(ix.docText, key)
	for gram, entries := range ix.gramPostings {
		kept := entries[:0]
		for _, e := range entries {
			if e.key != key {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(ix.gramPostings, gram)
		} else {
			ix.gramPostings[gram] = kept
		}
	}
}

// Suggest returns up to top documents whose source fields contain a term
// starting with prefix, restricted to candidateKeys if non-nil (the filter's
// residual candidate set), with the matched prefix highlighted in the
// returned text (§4.7).
func (ix *Index) Suggest(prefix string, top int, candidateKeys map[string]bool) []Hit {
	if top <= 0 {
		top = 5
	}
	gram := normalizeGram(prefix)
	seen := make(map[string]bool)
	var hits []Hit
	for _, e := range ix.gramPostings[gram] {
		if candidateKeys != nil && !candidateKeys[e.key] {
			continue
		}
		dedupeKey := e.key + "\x00" + e.field
		if seen[dedupeKey] {
			continue
		}
		if !strings.HasPrefix(e.term, gram) {
			continue
		}
		seen[dedupeKey] = true
		text := ix.docText[e.key][e.field]
		hits = append(hits, Hit{Key: e.key, Text: highlightPrefix(text, e.term, len(gram))})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Key != hits[j].Key {
			return hits[i].Key < hits[j].Key
		}
		return hits[i].Text < hits[j].Text
	})
	if len(hits) > top {
		hits = hits[:top]
	}
	return hits
}

// Autocomplete returns up to top completions for prefix in the given mode
// (§4.7). oneTerm completes the final partial word; twoTerms completes it
// plus the following term when one exists; oneTermWithContext restricts
// completions to terms immediately preceded by the context word in the same
// field.
func (ix *Index) Autocomplete(prefix string, mode Mode, top int, candidateKeys map[string]bool) []Completion {
	if top <= 0 {
		top = 5
	}
	if mode == "" {
		mode = ModeOneTerm
	}
	words := strings.Fields(strings.ToLower(prefix))
	if len(words) == 0 {
		return nil
	}
	lastWord := words[len(words)-1]
	var context string
	if mode == ModeOneTermWithContext && len(words) >= 2 {
		context = words[len(words)-2]
	}

	gram := normalizeGram(lastWord)
	seen := make(map[string]bool)
	var out []Completion
	for _, e := range ix.gramPostings[gram] {
		if candidateKeys != nil && !candidateKeys[e.key] {
			continue
		}
		if !strings.HasPrefix(e.term, gram) {
			continue
		}
		if context != "" && !ix.hasPrecedingTerm(e.key, e.field, e.term, context) {
			continue
		}
		completion := e.term
		if mode == ModeTwoTerms {
			if next, ok := ix.nextTerm(e.key, e.field, e.term); ok {
				completion = e.term + " " + next
			}
		}
		if seen[completion] {
			continue
		}
		seen[completion] = true
		out = append(out, Completion{Text: completion})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	if len(out) > top {
		out = out[:top]
	}
	return out
}

func (ix *Index) hasPrecedingTerm(key, field, term, context string) bool {
	seq := ix.docTerms[key][field]
	for i, t := range seq {
		if t == term && i > 0 && seq[i-1] == context {
			return true
		}
	}
	return false
}

func (ix *Index) nextTerm(key, field, term string) (string, bool) {
	seq := ix.docTerms[key][field]
	for i, t := range seq {
		if t == term && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return "", false
}

func normalizeGram(s string) string {
	return strings.ToLower(s)
}

// highlightPrefix finds the first case-insensitive occurrence of term in
// text and wraps its first prefixLen bytes (the matched prefix) with
// <em>...</em>, matching internal/lexical's highlight convention.
func highlightPrefix(text, term string, prefixLen int) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(term))
	if idx < 0 {
		return text
	}
	if prefixLen > len(term) {
		prefixLen = len(term)
	}
	return text[:idx] + "<em>" + text[idx:idx+prefixLen] + "</em>" + text[idx+prefixLen:]
}
