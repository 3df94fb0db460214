package autofix

import (
	"context"
	"time"
)

// TimeoutStderr is the sentinel Executor.Run writes to stderr when the
// sandboxed run is killed for exceeding its timeout.
const TimeoutStderr = "TIMEOUT"

// Executor runs a program and captures its stdout/stderr. Implementations
// (yaegi in-process, Dagger container, os/exec+pty subprocess) live in
// internal/executor; this interface is the seam every other component
// (logical, controller) depends on instead of a concrete backend.
type Executor interface {
	Run(ctx context.Context, source Source, language string, timeout time.Duration) (stdout, stderr string, err error)
}

// LLM completes a prompt. Implementations live in internal/llmclient.
type LLM interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
