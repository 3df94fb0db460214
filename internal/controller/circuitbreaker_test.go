package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/controller"
)

type failingLLM struct {
	calls int
}

func (f *failingLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	return "", errors.New("provider unavailable")
}

func TestCircuitBreaker_TripsAfterMaxFailures(t *testing.T) {
	cb := controller.NewCircuitBreaker(2, time.Minute)

	err1 := cb.Execute(func() error { return errors.New("boom") })
	assert.Error(t, err1)

	err2 := cb.Execute(func() error { return errors.New("boom again") })
	assert.Error(t, err2)

	called := false
	err3 := cb.Execute(func() error { called = true; return nil })
	assert.Error(t, err3)
	assert.False(t, called, "operation should not run while the breaker is open")
}

func TestCircuitBreaker_RecoversOnSuccess(t *testing.T) {
	cb := controller.NewCircuitBreaker(3, time.Minute)

	assert.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	assert.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	assert.NoError(t, cb.Execute(func() error { return nil }), "breaker should still be closed after only 2 consecutive failures following a reset")
}

func TestWithCircuitBreaker_SuspendsLLMAfterRepeatedFailures(t *testing.T) {
	exec := &scriptedExecutor{outputs: []execOutput{{stdout: "", stderr: "undefined: undefinedCall"}}}
	llm := &failingLLM{}

	c := controller.New(exec, llm).WithCircuitBreaker(1, time.Minute)

	_ = c.Run(context.Background(), "package main\n\nfunc main() {\n\tundefinedCall()\n}\n", "", 1)
	callsAfterFirstRun := llm.calls
	assert.Greater(t, callsAfterFirstRun, 0)

	_ = c.Run(context.Background(), "package main\n", "", 1)
	assert.Equal(t, callsAfterFirstRun, llm.calls, "the breaker should have suspended further LLM calls")
}
