package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/executor"
)

func TestYaegiExecutor_RunsSimpleProgram(t *testing.T) {
	e := executor.NewYaegiExecutor()
	src := autofix.Source(`package main

import "fmt"

func main() {
	fmt.Println("hello")
}
`)
	stdout, stderr, err := e.Run(context.Background(), src, "go", 2*time.Second)
	assert.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "hello")
}

func TestYaegiExecutor_TimesOut(t *testing.T) {
	e := executor.NewYaegiExecutor()
	src := autofix.Source(`package main

func main() {
	for {
	}
}
`)
	_, stderr, err := e.Run(context.Background(), src, "go", 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, autofix.TimeoutStderr, stderr)
}

func TestSubprocessExecutor_ImplementsExecutorInterface(t *testing.T) {
	var _ autofix.Executor = executor.NewSubprocessExecutor("")
}

func TestDaggerExecutor_ImplementsExecutorInterface(t *testing.T) {
	var _ autofix.Executor = executor.NewDaggerExecutor(nil)
}
