package controller_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
)

type scriptedExecutor struct {
	outputs []execOutput
	calls   int
}

type execOutput struct {
	stdout, stderr string
	err            error
}

func (s *scriptedExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (string, string, error) {
	idx := s.calls
	if idx >= len(s.outputs) {
		idx = len(s.outputs) - 1
	}
	s.calls++
	out := s.outputs[idx]
	return out.stdout, out.stderr, out.err
}

type scriptedLLM struct {
	reply string
}

func (l scriptedLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return l.reply, nil
}

func TestRun_SucceedsImmediatelyWhenSourceIsClean(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {\n\tprintln(\"ok\")\n}\n")
	exec := &scriptedExecutor{outputs: []execOutput{{stdout: "ok\n"}}}
	c := controller.New(exec, nil)

	res := c.Run(context.Background(), src, "", 3)

	assert.Equal(t, autofix.StatusSuccess, res.FinalStatus)
	assert.Equal(t, src, res.FinalSource)
	assert.Len(t, res.Report.Iterations, 1)
	assert.Equal(t, autofix.MethodNone, res.Report.Iterations[0].MethodApplied)
}

func TestRun_AppliesGenerativeFixAndSucceeds(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {\n\tundefinedCall()\n}\n")
	exec := &scriptedExecutor{outputs: []execOutput{
		{stdout: "", stderr: "undefined: undefinedCall"},
		{stdout: "", stderr: "undefined: undefinedCall"},
		{stdout: "fixed\n", stderr: ""},
		{stdout: "fixed\n", stderr: ""},
	}}
	llm := scriptedLLM{reply: "```go\npackage main\n\nfunc main() {\n\tprintln(\"fixed\")\n}\n```"}
	c := controller.New(exec, llm)

	res := c.Run(context.Background(), src, "", 3)

	assert.Equal(t, autofix.StatusSuccess, res.FinalStatus)
	assert.NotEmpty(t, res.Report.Iterations)
}

func TestRun_FailsAfterExhaustingIterationsWithNoLLM(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {\n\tundefinedCall()\n}\n")
	exec := &scriptedExecutor{outputs: []execOutput{{stdout: "", stderr: "undefined: undefinedCall"}}}
	c := controller.New(exec, nil)

	res := c.Run(context.Background(), src, "", 2)

	assert.Equal(t, autofix.StatusFailed, res.FinalStatus)
	assert.Len(t, res.Report.Iterations, 2)
}

func TestRun_SemanticIntentConflictTakesPreIterationFastPath(t *testing.T) {
	src := autofix.Source(`package main

func Fib(n int) int {
	memo := map[int]int{0: 0, 1: 1}
	return memo[0]
}
`)
	exec := &scriptedExecutor{outputs: []execOutput{{stdout: ""}}}
	llm := scriptedLLM{reply: "```go\npackage main\n\nfunc Fib(n int) int {\n\tmemo := map[int]int{0: 0, 1: 1}\n\treturn memo[n]\n}\n```"}
	c := controller.New(exec, llm)

	res := c.Run(context.Background(), src, "", 3)

	assert.Len(t, res.Report.Iterations, 1)
	assert.Equal(t, 0, res.Report.Iterations[0].Index)
	assert.Contains(t, string(res.FinalSource), "memo[n]")
}

type memoryStub struct {
	patch *autofix.Patch
}

func (m memoryStub) Lookup(kind autofix.ErrorKind, issueKind string) (*autofix.Patch, bool) {
	if m.patch == nil {
		return nil, false
	}
	return m.patch, true
}

func (m memoryStub) Record(kind autofix.ErrorKind, issueKind string, patch autofix.Patch) {}

func TestRun_WithMemory_StillProgressesOnMiss(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {\n\tundefinedCall()\n}\n")
	exec := &scriptedExecutor{outputs: []execOutput{{stdout: "", stderr: "undefined: undefinedCall"}}}
	c := controller.New(exec, nil).WithMemory(memoryStub{})

	res := c.Run(context.Background(), src, "", 1)

	assert.Equal(t, autofix.StatusFailed, res.FinalStatus)
	assert.Len(t, res.Report.Iterations, 1)
}
