package skills

import (
	"encoding/base64"
	"testing"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/stretchr/testify/require"
)

func newExtractionDoc(t *testing.T, data string) *enriched.Doc {
	t.Helper()
	d, err := enriched.New(map[string]any{
		"file_data": map[string]any{
			"data": base64.StdEncoding.EncodeToString([]byte(data)),
		},
	})
	require.NoError(t, err)
	return d
}

func extractionSkill() catalog.Skill {
	return catalog.Skill{
		Context: "/document",
		Inputs:  []catalog.SkillInput{{Name: "file_data", Source: "file_data"}},
		Outputs: []catalog.SkillOutput{
			{Name: "content"},
			{Name: "normalized_images"},
		},
	}
}

func TestDocumentExtractionExtractsPlainText(t *testing.T) {
	doc := newExtractionDoc(t, "hello world")
	res := (documentExtractionSkill{}).Execute(ExecContext{Doc: doc, Skill: extractionSkill(), Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/content")
	require.True(t, ok)
	require.Equal(t, "hello world", v)
}

func TestDocumentExtractionExtractsJSONContent(t *testing.T) {
	doc := newExtractionDoc(t, `{"a": 1, "b": "two"}`)
	res := (documentExtractionSkill{}).Execute(ExecContext{Doc: doc, Skill: extractionSkill(), Context: "/document"})
	require.True(t, res.Success)

	_, ok := doc.Get("/document/content")
	require.True(t, ok)
}

func TestDocumentExtractionFailsWithoutFileData(t *testing.T) {
	doc, err := enriched.New(map[string]any{})
	require.NoError(t, err)
	res := (documentExtractionSkill{}).Execute(ExecContext{Doc: doc, Skill: extractionSkill(), Context: "/document"})
	require.False(t, res.Success)
}

func TestDocumentExtractionRejectsInvalidBase64(t *testing.T) {
	doc, err := enriched.New(map[string]any{
		"file_data": map[string]any{"data": "not valid base64!!"},
	})
	require.NoError(t, err)
	res := (documentExtractionSkill{}).Execute(ExecContext{Doc: doc, Skill: extractionSkill(), Context: "/document"})
	require.False(t, res.Success)
}
