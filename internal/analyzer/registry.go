// Package analyzer is the analyzer registry (§4.1): it maps a named analyzer
// to a tokenizer + filter chain producing a positioned token stream, and
// separately exposes normalizers (whole-value token filters used only for
// filter/facet/sort, §4.1).
package analyzer

import (
	"strings"
	"unicode"
)

// Token is one positioned token in an analyzed stream (§4.1).
type Token struct {
	Text  string
	Start int
	End   int
	Pos   int
}

// Func turns text into a positioned token stream.
type Func func(text string) []Token

// Normalizer turns a whole value into a single normalized token.
type Normalizer func(text string) string

var stopwordsEN = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true,
}

var stopwordsFR = map[string]bool{
	"le": true, "la": true, "les": true, "de": true, "des": true, "du": true,
	"un": true, "une": true, "et": true, "en": true, "est": true, "que": true,
	"qui": true, "dans": true, "pour": true, "sur": true, "au": true, "aux": true,
}

// tokenizeWords splits text into (word, start, end) spans on non-letter,
// non-digit runes, never splitting inside a run of letters/digits.
func tokenizeWords(text string) []Token {
	var out []Token
	pos := 0
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		out = append(out, Token{Text: word, Start: start, End: i, Pos: pos})
		pos++
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// suffixStem is a light Porter-style suffix stripper: enough to fold simple
// English plurals/verb-forms together for test purposes without pulling in a
// full stemming library (none of the retrieved example repos import one).
func suffixStem(word string) string {
	lower := strings.ToLower(word)
	for _, suf := range []string{"ing", "edly", "ed", "ies", "es", "s"} {
		if len(lower) > len(suf)+2 && strings.HasSuffix(lower, suf) {
			return strings.TrimSuffix(lower, suf)
		}
	}
	return lower
}

func standardAnalyze(text string, stop map[string]bool, stem bool) []Token {
	toks := tokenizeWords(text)
	out := make([]Token, 0, len(toks))
	pos := 0
	for _, t := range toks {
		lower := strings.ToLower(t.Text)
		if stop != nil && stop[lower] {
			continue
		}
		if stem {
			lower = suffixStem(lower)
		}
		out = append(out, Token{Text: lower, Start: t.Start, End: t.End, Pos: pos})
		pos++
	}
	return out
}

// Registry resolves analyzer names to Funcs (§4.1).
type Registry struct {
	custom map[string]Func
}

// NewRegistry builds a Registry with the built-in analyzers and any
// caller-defined custom ones layered on top.
func NewRegistry(custom map[string]Func) *Registry {
	return &Registry{custom: custom}
}

// Resolve returns the Func for name. The bare language names "english" and
// "french" are aliases of the en/fr language analyzers; unknown
// `<lang>.microsoft` variants and any other unknown name fall back to the
// standard analyzer (§4.1).
func (r *Registry) Resolve(name string) Func {
	if r.custom != nil {
		if f, ok := r.custom[name]; ok {
			return f
		}
	}
	switch name {
	case "", "standard", "standard.lucene":
		return func(t string) []Token { return standardAnalyze(t, stopwordsEN, false) }
	case "keyword":
		return KeywordAnalyze
	case "simple":
		return func(t string) []Token { return standardAnalyze(t, nil, false) }
	case "stop":
		return func(t string) []Token { return standardAnalyze(t, stopwordsEN, false) }
	case "en.lucene", "en.microsoft", "english":
		return func(t string) []Token { return standardAnalyze(t, stopwordsEN, true) }
	case "fr.lucene", "fr.microsoft", "french":
		return func(t string) []Token { return standardAnalyze(t, stopwordsFR, true) }
	default:
		// Unknown "<lang>.microsoft" variant, or any other unknown name:
		// fall back to standard (§4.1).
		return func(t string) []Token { return standardAnalyze(t, stopwordsEN, false) }
	}
}

// KeywordAnalyze treats the whole input as a single unanalyzed token.
func KeywordAnalyze(text string) []Token {
	if text == "" {
		return nil
	}
	return []Token{{Text: text, Start: 0, End: len([]rune(text)), Pos: 0}}
}

// ResolveNormalizer returns the Normalizer for name, defaulting to
// lowercasing the whole value (§4.1).
func (r *Registry) ResolveNormalizer(name string) Normalizer {
	switch name {
	case "", "lowercase":
		return strings.ToLower
	case "keyword":
		return func(s string) string { return s }
	default:
		return strings.ToLower
	}
}

// EdgeGrams produces edge n-grams of s from minGram to maxGram runes,
// feeding the suggester's infix index (§4.7).
func EdgeGrams(s string, minGram, maxGram int) []string {
	runes := []rune(strings.ToLower(s))
	var out []string
	for n := minGram; n <= maxGram && n <= len(runes); n++ {
		out = append(out, string(runes[:n]))
	}
	if len(runes) < minGram {
		out = append(out, string(runes))
	}
	return out
}
