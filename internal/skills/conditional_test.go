package skills

import (
	"testing"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/stretchr/testify/require"
)

func newConditionalDoc(t *testing.T, language string) *enriched.Doc {
	t.Helper()
	d, err := enriched.New(map[string]any{"language": language})
	require.NoError(t, err)
	return d
}

func TestConditionalWritesWhenTrueBranch(t *testing.T) {
	doc := newConditionalDoc(t, "en")
	require.NoError(t, doc.Set("/document/trueBranch", "english"))
	require.NoError(t, doc.Set("/document/falseBranch", "other"))

	skill := catalog.Skill{
		Context: "/document",
		Inputs: []catalog.SkillInput{
			{Name: "whenTrue", Source: "trueBranch"},
			{Name: "whenFalse", Source: "falseBranch"},
		},
		Outputs: []catalog.SkillOutput{{Name: "output", TargetName: "chosen"}},
		Config:  map[string]any{"expression": `$(/document/language) == "en"`},
	}
	res := (conditionalSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/chosen")
	require.True(t, ok)
	require.Equal(t, "english", v)
}

func TestConditionalWritesWhenFalseBranch(t *testing.T) {
	doc := newConditionalDoc(t, "fr")
	require.NoError(t, doc.Set("/document/trueBranch", "english"))
	require.NoError(t, doc.Set("/document/falseBranch", "other"))

	skill := catalog.Skill{
		Context: "/document",
		Inputs: []catalog.SkillInput{
			{Name: "whenTrue", Source: "trueBranch"},
			{Name: "whenFalse", Source: "falseBranch"},
		},
		Outputs: []catalog.SkillOutput{{Name: "output", TargetName: "chosen"}},
		Config:  map[string]any{"expression": `$(/document/language) == "en"`},
	}
	res := (conditionalSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/chosen")
	require.True(t, ok)
	require.Equal(t, "other", v)
}

func TestConditionalTruthyPathOnly(t *testing.T) {
	doc := newConditionalDoc(t, "en")
	require.NoError(t, doc.Set("/document/flag", true))
	require.NoError(t, doc.Set("/document/trueBranch", "yes"))
	require.NoError(t, doc.Set("/document/falseBranch", "no"))

	skill := catalog.Skill{
		Context: "/document",
		Inputs: []catalog.SkillInput{
			{Name: "whenTrue", Source: "trueBranch"},
			{Name: "whenFalse", Source: "falseBranch"},
		},
		Outputs: []catalog.SkillOutput{{Name: "output", TargetName: "chosen"}},
		Config:  map[string]any{"expression": `$(/document/flag)`},
	}
	res := (conditionalSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.True(t, res.Success)

	v, ok := doc.Get("/document/chosen")
	require.True(t, ok)
	require.Equal(t, "yes", v)
}

func TestConditionalInvalidExpressionFails(t *testing.T) {
	doc := newConditionalDoc(t, "en")
	skill := catalog.Skill{
		Context: "/document",
		Outputs: []catalog.SkillOutput{{Name: "output"}},
		Config:  map[string]any{"expression": `$(/document/language == `},
	}
	res := (conditionalSkill{}).Execute(ExecContext{Doc: doc, Skill: skill, Context: "/document"})
	require.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
}
