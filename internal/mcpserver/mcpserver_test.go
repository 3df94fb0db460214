package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
)

type stubExecutor struct {
	stdout, stderr string
	err            error
	gotTimeout     time.Duration
}

func (s *stubExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (string, string, error) {
	s.gotTimeout = timeout
	return s.stdout, s.stderr, s.err
}

func TestRunCode_ReturnsExecutorOutput(t *testing.T) {
	exec := &stubExecutor{stdout: "ok\n"}
	out, err := runCode(context.Background(), exec, RunCodeInput{Source: "package main\n"})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out.Stdout)
}

func TestRunCode_DefaultsTimeoutWhenUnset(t *testing.T) {
	exec := &stubExecutor{}
	_, err := runCode(context.Background(), exec, RunCodeInput{Source: "package main\n"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, exec.gotTimeout)
}

func TestRunCode_HonorsExplicitTimeout(t *testing.T) {
	exec := &stubExecutor{}
	_, err := runCode(context.Background(), exec, RunCodeInput{Source: "package main\n", TimeoutSeconds: 3})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, exec.gotTimeout)
}

func TestRunCode_WrapsExecutorError(t *testing.T) {
	exec := &stubExecutor{err: errors.New("sandbox boom")}
	_, err := runCode(context.Background(), exec, RunCodeInput{Source: "package main\n"})
	assert.Error(t, err)
}

func TestRepairCode_DefaultsMaxIterations(t *testing.T) {
	exec := &stubExecutor{stdout: "ok\n"}
	c := controller.New(exec, nil)

	out := repairCode(context.Background(), c, RepairCodeInput{Source: "package main\nfunc main(){}\n"})

	assert.Equal(t, autofix.StatusSuccess, out.FinalStatus)
	assert.Equal(t, 1, out.Iterations)
}

func TestNew_RegistersBothTools(t *testing.T) {
	exec := &stubExecutor{stdout: "ok\n"}
	c := controller.New(exec, nil)

	s := New(c, exec, nil)

	require.NotNil(t, s)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.controller)
}
