package skills

import (
	"strings"
	"testing"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/stretchr/testify/require"
)

func newSplitTextDoc(t *testing.T, text string) *enriched.Doc {
	t.Helper()
	d, err := enriched.New(map[string]any{"text": text})
	require.NoError(t, err)
	return d
}

func splitSkillOf(config map[string]any) catalog.Skill {
	return catalog.Skill{
		Context: "/document",
		Inputs:  []catalog.SkillInput{{Name: "text", Source: "text"}},
		Outputs: []catalog.SkillOutput{{Name: "textItems"}},
		Config:  config,
	}
}

func TestSplitTextPagesNeverSplitsInsideAWord(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 20)
	doc := newSplitTextDoc(t, text)
	skill := splitSkillOf(map[string]any{"textSplitMode": "pages", "maximumPageLength": 30})
	res := (splitTextSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/textItems")
	require.True(t, ok)
	items, ok := v.([]any)
	require.True(t, ok)
	require.NotEmpty(t, items)
	for _, item := range items {
		s, ok := item.(string)
		require.True(t, ok)
		require.False(t, strings.HasPrefix(s, " "))
		for _, w := range strings.Fields(s) {
			require.Contains(t, []string{"alpha", "beta", "gamma", "delta"}, w)
		}
	}
}

func TestSplitTextSentencesSplitsOnTerminalPunctuation(t *testing.T) {
	doc := newSplitTextDoc(t, "First sentence. Second sentence! Third one?")
	skill := splitSkillOf(map[string]any{"textSplitMode": "sentences"})
	res := (splitTextSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/textItems")
	require.True(t, ok)
	items := v.([]any)
	require.Equal(t, []any{"First sentence.", "Second sentence!", "Third one?"}, items)
}

func TestSplitTextOverlapRepeatsTrailingRunes(t *testing.T) {
	text := strings.Repeat("word ", 30)
	doc := newSplitTextDoc(t, text)
	skill := splitSkillOf(map[string]any{
		"textSplitMode":     "pages",
		"maximumPageLength": 20,
		"pageOverlapLength": 5,
	})
	res := (splitTextSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/textItems")
	require.True(t, ok)
	items := v.([]any)
	require.Greater(t, len(items), 1)
	// 150 runes in 20-rune pages, each starting 5 runes before the previous
	// page's end: pages start at 0, 15, ..., 135, so 10 pages (8 without
	// overlap).
	require.Len(t, items, 10)
}
