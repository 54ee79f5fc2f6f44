package skills

import "strings"

// shaperSkill implements Shaper (§4.10): builds an object from named input
// paths, with "/"-separated input names nesting into nested objects, and
// writes it to the "output" output.
type shaperSkill struct{}

func (shaperSkill) Execute(ctx ExecContext) Result {
	obj := map[string]any{}
	for _, in := range ctx.Skill.Inputs {
		v, ok := ctx.Doc.Get(ctx.resolvePath(in.Source))
		if !ok {
			continue
		}
		setNested(obj, strings.Split(in.Name, "/"), v)
	}
	if err := ctx.SetOutput("output", obj); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setNested(obj map[string]any, path []string, value any) {
	if len(path) == 1 {
		obj[path[0]] = value
		return
	}
	child, ok := obj[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		obj[path[0]] = child
	}
	setNested(child, path[1:], value)
}
