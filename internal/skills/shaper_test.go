package skills

import (
	"testing"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/stretchr/testify/require"
)

func TestShaperBuildsNestedObject(t *testing.T) {
	doc, err := enriched.New(map[string]any{
		"name": "Contoso Hotel",
		"city": "Seattle",
	})
	require.NoError(t, err)

	skill := catalog.Skill{
		Context: "/document",
		Inputs: []catalog.SkillInput{
			{Name: "name", Source: "name"},
			{Name: "address/city", Source: "city"},
		},
		Outputs: []catalog.SkillOutput{{Name: "output"}},
	}
	res := (shaperSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/output")
	require.True(t, ok)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Contoso Hotel", obj["name"])

	addr, ok := obj["address"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Seattle", addr["city"])
}

func TestShaperSkipsMissingInputs(t *testing.T) {
	doc, err := enriched.New(map[string]any{"name": "Contoso Hotel"})
	require.NoError(t, err)

	skill := catalog.Skill{
		Context: "/document",
		Inputs: []catalog.SkillInput{
			{Name: "name", Source: "name"},
			{Name: "missing", Source: "nope"},
		},
		Outputs: []catalog.SkillOutput{{Name: "output"}},
	}
	res := (shaperSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/output")
	require.True(t, ok)
	obj := v.(map[string]any)
	_, hasMissing := obj["missing"]
	require.False(t, hasMissing)
}
