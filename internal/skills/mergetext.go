package skills

import "strings"

// mergeTextSkill implements MergeText (§4.10): concatenates "text" with
// "itemsToInsert" using optional insertPreTag/insertPostTag, written to
// "mergedText".
type mergeTextSkill struct{}

func (mergeTextSkill) Execute(ctx ExecContext) Result {
	text := ctx.InputString("text")
	pre, _ := ctx.Skill.Config["insertPreTag"].(string)
	post, _ := ctx.Skill.Config["insertPostTag"].(string)

	items, _ := ctx.Input("itemsToInsert")
	var b strings.Builder
	b.WriteString(text)
	if list, ok := items.([]any); ok {
		for _, item := range list {
			s, _ := item.(string)
			b.WriteString(pre)
			b.WriteString(s)
			b.WriteString(post)
		}
	}
	if err := ctx.SetOutput("mergedText", b.String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}
