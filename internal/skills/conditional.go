package skills

import (
	"encoding/json"
	"regexp"

	"github.com/itchyny/gojq"
)

// conditionalSkill implements Conditional (§4.10): evaluates
// config["expression"], a jq-flavored boolean expression with $(path)
// references substituted from the enriched document, then writes the
// "whenTrue" or "whenFalse" input to the "output" output. The substituted
// expression (e.g. `"en" == "en"`) is itself evaluated by gojq rather than
// hand-parsed, since the pack already carries gojq for exactly this kind of
// small embedded-expression use (jordigilh-kubernaut's go.mod).
type conditionalSkill struct{}

var pathRefPattern = regexp.MustCompile(`\$\(([^)]+)\)`)

func (c conditionalSkill) Execute(ctx ExecContext) Result {
	expr, _ := ctx.Skill.Config["expression"].(string)
	truthy, err := c.eval(ctx, expr)
	if err != nil {
		return fail("configuration error: " + err.Error())
	}

	name := "whenFalse"
	if truthy {
		name = "whenTrue"
	}
	v, ok := ctx.Input(name)
	if !ok {
		return ok()
	}
	if err := ctx.SetOutput("output", v); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func (c conditionalSkill) eval(ctx ExecContext, expr string) (bool, error) {
	var substErr error
	substituted := pathRefPattern.ReplaceAllStringFunc(expr, func(m string) string {
		path := pathRefPattern.FindStringSubmatch(m)[1]
		v, ok := ctx.Doc.Get(ctx.resolvePath(path))
		if !ok {
			return "null"
		}
		b, err := json.Marshal(v)
		if err != nil {
			substErr = err
			return "null"
		}
		return string(b)
	})
	if substErr != nil {
		return false, substErr
	}

	query, err := gojq.Parse(substituted)
	if err != nil {
		return false, err
	}
	iter := query.Run(nil)
	v, hasNext := iter.Next()
	if !hasNext {
		return false, nil
	}
	if err, isErr := v.(error); isErr {
		return false, err
	}
	return isTruthy(v), nil
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}
