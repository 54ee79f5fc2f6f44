package pipeline

import (
	"context"
	"testing"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/enriched"
	"github.com/liliang-cn/searchsim/internal/skills"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	result skills.Result
	calls  *int
}

func (s stubExecutor) Execute(ctx skills.ExecContext) skills.Result {
	if s.calls != nil {
		*s.calls++
	}
	return s.result
}

type stubRegistry struct {
	executors map[string]skills.Executor
}

func (r stubRegistry) Resolve(odataType string) (skills.Executor, bool) {
	e, ok := r.executors[odataType]
	return e, ok
}

func newTestDoc(t *testing.T) *enriched.Doc {
	t.Helper()
	d, err := enriched.New(map[string]any{"content": "hello"})
	require.NoError(t, err)
	return d
}

func TestRunExecutesSkillsInOrder(t *testing.T) {
	doc := newTestDoc(t)
	var order []string
	set := catalog.Skillset{Skills: []catalog.Skill{
		{Name: "first", ODataType: "#Test.First"},
		{Name: "second", ODataType: "#Test.Second"},
	}}
	reg := stubRegistry{executors: map[string]skills.Executor{
		"#Test.First":  recordingExecutor{name: "first", order: &order, result: skills.Result{Success: true}},
		"#Test.Second": recordingExecutor{name: "second", order: &order, result: skills.Result{Success: true}},
	}}

	result := Run(context.Background(), reg, set, doc)
	require.False(t, result.Halted)
	require.Equal(t, []string{"first", "second"}, order)
	require.Len(t, result.SkillResults, 2)
}

type recordingExecutor struct {
	name   string
	order  *[]string
	result skills.Result
}

func (r recordingExecutor) Execute(ctx skills.ExecContext) skills.Result {
	*r.order = append(*r.order, r.name)
	return r.result
}

func TestRunWarnsAndSkipsUnregisteredSkillType(t *testing.T) {
	doc := newTestDoc(t)
	set := catalog.Skillset{Skills: []catalog.Skill{{Name: "unknown", ODataType: "#Test.Unknown"}}}
	reg := stubRegistry{executors: map[string]skills.Executor{}}

	result := Run(context.Background(), reg, set, doc)
	require.False(t, result.Halted)
	require.Len(t, result.SkillResults, 1)
	require.True(t, result.SkillResults[0].Success)
	require.Len(t, result.SkillResults[0].Warnings, 1)
}

func TestRunHaltsOnConfigurationError(t *testing.T) {
	doc := newTestDoc(t)
	set := catalog.Skillset{Skills: []catalog.Skill{
		{Name: "bad", ODataType: "#Test.Bad"},
		{Name: "never-runs", ODataType: "#Test.Never"},
	}}
	calls := 0
	reg := stubRegistry{executors: map[string]skills.Executor{
		"#Test.Bad":   stubExecutor{result: skills.Result{Success: false, Errors: []string{"configuration error: missing field"}}},
		"#Test.Never": stubExecutor{result: skills.Result{Success: true}, calls: &calls},
	}}

	result := Run(context.Background(), reg, set, doc)
	require.True(t, result.Halted)
	require.Len(t, result.SkillResults, 1)
	require.Equal(t, 0, calls)
}

func TestRunContinuesOnNonHaltingError(t *testing.T) {
	doc := newTestDoc(t)
	set := catalog.Skillset{Skills: []catalog.Skill{
		{Name: "flaky", ODataType: "#Test.Flaky"},
		{Name: "after", ODataType: "#Test.After"},
	}}
	calls := 0
	reg := stubRegistry{executors: map[string]skills.Executor{
		"#Test.Flaky": stubExecutor{result: skills.Result{Success: false, Errors: []string{"connection reset"}}},
		"#Test.After": stubExecutor{result: skills.Result{Success: true}, calls: &calls},
	}}

	result := Run(context.Background(), reg, set, doc)
	require.False(t, result.Halted)
	require.Len(t, result.SkillResults, 2)
	require.Equal(t, 1, calls)
}
