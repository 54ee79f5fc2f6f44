// Package pipeline runs a skillset's skills against an enriched document in
// declaration order (§4.11). Grounded structurally on Tangerg-lynx/flow's
// Join/Then chaining (a sequence of nodes, each run in turn, output feeding
// the next), simplified here to a plain ordered loop since skill chaining
// happens through the shared enriched.Doc rather than typed node output.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/liliang-cn/searchsim/internal/skills"
)

// Registry resolves a skill's @odata.type to an executor.
type Registry interface {
	Resolve(odataType string) (skills.Executor, bool)
}

// SkillResult is one skill's outcome across every context it matched.
type SkillResult struct {
	SkillName string
	ODataType string
	Duration  time.Duration
	Success   bool
	Warnings  []string
	Errors    []string
}

// Result is one pipeline run's outcome (§4.11).
type Result struct {
	SkillResults []SkillResult
	Halted       bool
	HaltReason   string
}

// haltMarkers are substrings in a failing skill's errors that halt the
// pipeline rather than letting it continue accumulating errors (§4.11 "a
// skill reporting failure with an error mentioning 'required' or
// 'configuration' halts the pipeline").
var haltMarkers = []string{"required", "configuration"}

// Run executes every skill in set, in order, against doc (§4.11).
func Run(ctx context.Context, reg Registry, set catalog.Skillset, doc *enriched.Doc) Result {
	var result Result
	for _, skill := range set.Skills {
		if err := ctx.Err(); err != nil {
			result.Halted = true
			result.HaltReason = err.Error()
			return result
		}

		sr := runSkill(reg, skill, doc)
		result.SkillResults = append(result.SkillResults, sr)

		if !sr.Success && mentionsHaltMarker(sr.Errors) {
			result.Halted = true
			result.HaltReason = fmt.Sprintf("skill %q failed: %s", skill.Name, strings.Join(sr.Errors, "; "))
			return result
		}
	}
	return result
}

func runSkill(reg Registry, skill catalog.Skill, doc *enriched.Doc) SkillResult {
	start := time.Now()
	sr := SkillResult{SkillName: skill.Name, ODataType: skill.ODataType, Success: true}

	executor, ok := reg.Resolve(skill.ODataType)
	if !ok {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("no registered executor for skill type %q, skipped", skill.ODataType))
		sr.Duration = time.Since(start)
		return sr
	}

	contexts := doc.MatchingContexts(skill.ContextOrDefault())
	if len(contexts) == 0 {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("context %q matched nothing, skipped", skill.ContextOrDefault()))
		sr.Duration = time.Since(start)
		return sr
	}

	for _, c := range contexts {
		res := executor.Execute(skills.ExecContext{Doc: doc, Skill: skill, Context: c})
		sr.Warnings = append(sr.Warnings, res.Warnings...)
		sr.Errors = append(sr.Errors, res.Errors...)
		if !res.Success {
			sr.Success = false
		}
	}
	sr.Duration = time.Since(start)
	return sr
}

func mentionsHaltMarker(errs []string) bool {
	for _, e := range errs {
		lower := strings.ToLower(e)
		for _, marker := range haltMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
