package skills

import (
	"strings"
	"unicode"
)

// splitTextSkill implements SplitText (§4.10): splits the "text" input into
// chunks, written to the "textItems" output.
type splitTextSkill struct{}

func (splitTextSkill) Execute(ctx ExecContext) Result {
	text := ctx.InputString("text")
	mode, _ := ctx.Skill.Config["textSplitMode"].(string)
	maxLen := configInt(ctx.Skill.Config, "maximumPageLength", 5000)
	overlap := configInt(ctx.Skill.Config, "pageOverlapLength", 0)

	var chunks []string
	if mode == "sentences" {
		chunks = splitSentences(text)
	} else {
		chunks = splitPages(text, maxLen, overlap)
	}

	items := make([]any, len(chunks))
	for i, c := range chunks {
		items[i] = c
	}
	if err := ctx.SetOutput("textItems", items); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// splitPages chunks text into runs of at most maxLen runes, preferring to
// break on a paragraph boundary, then a sentence boundary, then a word
// boundary — never inside a word (§4.10 "breaking on paragraph/sentence/
// word boundary, never splitting inside a word"). overlap runes of the
// previous chunk are repeated at the start of the next.
func splitPages(text string, maxLen, overlap int) []string {
	runes := []rune(text)
	if maxLen <= 0 {
		maxLen = len(runes)
		if maxLen == 0 {
			maxLen = 1
		}
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxLen
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		breakAt := bestBreak(runes, start, end)
		chunks = append(chunks, strings.TrimSpace(string(runes[start:breakAt])))
		next := breakAt - overlap
		if next <= start {
			next = breakAt
		}
		start = next
	}
	return chunks
}

// bestBreak finds the latest paragraph break, else sentence break, else
// word break at or before end, never inside a word run.
func bestBreak(runes []rune, start, end int) int {
	if p := lastIndexRun(runes, start, end, "\n\n"); p > start {
		return p
	}
	if s := lastSentenceBreak(runes, start, end); s > start {
		return s
	}
	for i := end; i > start; i-- {
		if !unicode.IsLetter(runes[i-1]) && !unicode.IsDigit(runes[i-1]) {
			return i
		}
	}
	return end
}

func lastIndexRun(runes []rune, start, end int, sep string) int {
	sepRunes := []rune(sep)
	for i := end - len(sepRunes); i >= start; i-- {
		if matchesAt(runes, i, sepRunes) {
			return i + len(sepRunes)
		}
	}
	return -1
}

func matchesAt(runes []rune, pos int, sep []rune) bool {
	if pos < 0 || pos+len(sep) > len(runes) {
		return false
	}
	for i, r := range sep {
		if runes[pos+i] != r {
			return false
		}
	}
	return true
}

func lastSentenceBreak(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			return i + 1
		}
	}
	return -1
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

func configInt(config map[string]any, key string, def int) int {
	v, ok := config[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
