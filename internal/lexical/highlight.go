package lexical

import "strings"

const (
	defaultFragmentRunes = 40
	defaultMaxFragments  = 5
)

// Highlight extracts up to maxFragments `<em>term</em>`-wrapped snippets
// from field's original text for the given document, anchored on the
// analyzed token offsets recorded at index time (§4.2 "searchable string ->
// analyzed text with term positions and offsets (for highlights)"). A zero
// maxFragments uses the default of 5.
func (ix *Index) Highlight(key, field string, matchTerms []string, maxFragments int) []string {
	if maxFragments <= 0 {
		maxFragments = defaultMaxFragments
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.docs[key]
	if !ok {
		return nil
	}
	text := concatenatedText(doc, field)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	wanted := make(map[string]bool, len(matchTerms))
	for _, t := range matchTerms {
		wanted[t] = true
	}

	var fragments []string
	for _, tok := range doc.fieldTokens[field] {
		if !wanted[tok.Text] {
			continue
		}
		start := tok.Start - defaultFragmentRunes
		if start < 0 {
			start = 0
		}
		end := tok.End + defaultFragmentRunes
		if end > len(runes) {
			end = len(runes)
		}
		before := string(runes[start:tok.Start])
		match := string(runes[tok.Start:tok.End])
		after := string(runes[tok.End:end])
		fragments = append(fragments, before+"<em>"+match+"</em>"+after)
		if len(fragments) >= maxFragments {
			break
		}
	}
	return fragments
}

func concatenatedText(doc *docEntry, field string) string {
	fv, ok := doc.fields[field]
	if !ok {
		return ""
	}
	parts := stringsOf(fv)
	return strings.Join(parts, " ")
}
