// Package skills implements the enrichment skill executors (§4.10): each
// executor iterates the contexts its skill.Context path matches in an
// enriched.Doc, resolves named inputs relative to that context, writes
// named outputs back into the document, and reports a uniform
// {success, warnings, errors} result. Grounded structurally on
// Tangerg-lynx/flow's step-executor contract (a named step reading/writing
// a shared state bag) even though none of its step types match this
// domain's skills one-for-one.
package skills

import (
	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
)

// Result is one skill invocation's outcome (§4.10 "{success, warnings, errors}").
type Result struct {
	Success  bool
	Warnings []string
	Errors   []string
}

func ok() Result { return Result{Success: true} }

func fail(msg string) Result { return Result{Success: false, Errors: []string{msg}} }

func (r *Result) warn(msg string) { r.Warnings = append(r.Warnings, msg) }

// Executor runs one skill against doc at a single resolved context path.
type Executor interface {
	Execute(ctx ExecContext) Result
}

// ExecContext is everything one skill invocation needs for one context
// (§4.10 "reads named inputs (resolved relative to the current context),
// writes named outputs (to <context>/<targetName>)").
type ExecContext struct {
	Doc     *enriched.Doc
	Skill   catalog.Skill
	Context string // the concrete (non-wildcard) context path for this invocation
}

// Input resolves a named input's value from the current context, per
// source path: "/document/..." absolute paths are used as-is, anything
// else (e.g. "text") is resolved relative to ctx.Context.
func (e ExecContext) Input(name string) (any, bool) {
	for _, in := range e.Skill.Inputs {
		if in.Name == name {
			return e.Doc.Get(e.resolvePath(in.Source))
		}
	}
	return nil, false
}

// InputString is Input coerced to a string, defaulting to "".
func (e ExecContext) InputString(name string) string {
	v, ok := e.Input(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (e ExecContext) resolvePath(source string) string {
	if len(source) > 0 && source[0] == '/' {
		return source
	}
	return e.Context + "/" + source
}

// SetOutput writes value to <context>/<targetName for name> (§4.10).
func (e ExecContext) SetOutput(name string, value any) error {
	for _, out := range e.Skill.Outputs {
		if out.Name == name {
			return e.Doc.Set(e.Context+"/"+out.Target(), value)
		}
	}
	return nil
}

// Registry resolves a skill's @odata.type to its Executor.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry builds the built-in skill registry (§4.10 "Executors implemented").
func NewRegistry(httpClient WebAPIClient, embedClient EmbeddingClient) *Registry {
	return &Registry{executors: map[string]Executor{
		"#Microsoft.Skills.Text.SplitSkill":          splitTextSkill{},
		"#Microsoft.Skills.Text.MergeSkill":          mergeTextSkill{},
		"#Microsoft.Skills.Util.ShaperSkill":         shaperSkill{},
		"#Microsoft.Skills.Util.ConditionalSkill":    conditionalSkill{},
		"#Microsoft.Skills.Custom.WebApiSkill":       webAPISkill{client: httpClient},
		"#Microsoft.Skills.Text.AzureOpenAIEmbeddingSkill": embeddingSkill{client: embedClient},
		"#Microsoft.Skills.Util.DocumentExtractionSkill":   documentExtractionSkill{},
	}}
}

// Resolve looks an executor up by its @odata.type, reporting whether one is
// registered (§4.11 "A skill whose type has no registered executor produces
// a warning and is skipped").
func (r *Registry) Resolve(odataType string) (Executor, bool) {
	e, ok := r.executors[odataType]
	return e, ok
}
