package generative_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/generative"
)

func TestExtract_FencedBlock(t *testing.T) {
	text := "Here is the fix:\n```go\npackage main\n\nfunc main() {}\n```\nHope that helps."
	out := generative.Extract(text)
	assert.Contains(t, string(out), "package main")
	assert.Contains(t, string(out), "func main() {}")
}

func TestExtract_RawFallbackBounded(t *testing.T) {
	out := generative.Extract("not go code at all, just prose with no parseable block")
	assert.NotEmpty(t, out)
}

func TestExtract_Empty(t *testing.T) {
	assert.Equal(t, autofix.Source(""), generative.Extract(""))
}

func TestMergeLLMResult_AcceptsParsingCandidate(t *testing.T) {
	base := autofix.Source("package main\n\nfunc main() {\n\tprintln(\"old\")\n}\n")
	candidate := autofix.Source("package main\n\nfunc main() {\n\tprintln(\"new\")\n}\n")
	merged := generative.MergeLLMResult(base, candidate, false)
	assert.Contains(t, string(merged), "new")
}

func TestMergeLLMResult_RejectsMassiveShrink(t *testing.T) {
	base := autofix.Source(`package main

func A() {}
func B() {}
func C() {}
func D() {}
func E() {}

func main() {}
`)
	candidate := autofix.Source("package main\n\nfunc main() {}\n")
	merged := generative.MergeLLMResult(base, candidate, false)
	assert.Equal(t, base, merged)
}

func TestMergeLLMResult_ShrinkRejectionFallsBackToPartialMerge(t *testing.T) {
	base := autofix.Source(`package main

func Helper() int {
	x := 1
	return x
}

func Broken() int {
	y := 2
	return y
}

func Another() int {
	z := 3
	return z
}

func main() {
	println(Helper())
}
`)
	// A full, parseable candidate that only fixes Broken but is far too short
	// relative to base to be accepted outright (it drops every other decl).
	candidate := autofix.Source(`package main

func Broken() int {
	y := 20
	return y
}
`)
	merged := generative.MergeLLMResult(base, candidate, false)
	assert.Contains(t, string(merged), "y := 20")
	assert.Contains(t, string(merged), "func Helper() int")
	assert.Contains(t, string(merged), "func Another() int")
	assert.NotEqual(t, base, merged)
}

func TestMergeLLMResult_EmptyCandidateReturnsBase(t *testing.T) {
	base := autofix.Source("package main\n\nfunc main() {}\n")
	assert.Equal(t, base, generative.MergeLLMResult(base, "", false))
}

type stubLLM struct {
	out string
	err error
}

func (s stubLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return s.out, s.err
}

func TestFix_NoOpWhenLLMReturnsEmpty(t *testing.T) {
	base := autofix.Source("package main\n\nfunc main() {}\n")
	out := generative.Fix(context.Background(), stubLLM{out: ""}, base, "some error", nil, "", 256, false)
	assert.Equal(t, base, out)
}

func TestFix_MergesExtractedCandidate(t *testing.T) {
	base := autofix.Source("package main\n\nfunc main() {\n\tprintln(\"old\")\n}\n")
	llmReply := "```go\npackage main\n\nfunc main() {\n\tprintln(\"fixed\")\n}\n```"
	out := generative.Fix(context.Background(), stubLLM{out: llmReply}, base, "some error", nil, "", 256, false)
	assert.Contains(t, string(out), "fixed")
}
