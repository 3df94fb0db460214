//go:build !dagger
// +build !dagger

package executor

import (
	"context"
	"fmt"
	"time"

	"dagger.io/dagger"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// dag is provided by the Dagger runtime when this binary is invoked as a
// Dagger function; outside that context it stays nil and DaggerExecutor
// reports a collaborator fault rather than panicking.
var dag *dagger.Client

// DaggerExecutor runs source in a throwaway golang:1.23-alpine container:
// the candidate file is mounted in, built and executed, and its stdout and
// stderr are captured for the caller. The exit code is not returned.
type DaggerExecutor struct {
	Client *dagger.Client
}

func NewDaggerExecutor(client *dagger.Client) *DaggerExecutor {
	if client == nil {
		client = dag
	}
	return &DaggerExecutor{Client: client}
}

func (e *DaggerExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (stdout, stderr string, err error) {
	if e.Client == nil {
		return "", "", fmt.Errorf("dagger: no client available outside a dagger session")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	container := e.Client.Container().
		From("golang:1.23-alpine").
		WithNewFile("/workspace/main.go", string(source)).
		WithWorkdir("/workspace").
		WithExec([]string{"go", "run", "main.go"})

	out, runErr := container.Stdout(runCtx)
	if runCtx.Err() != nil {
		return "", autofix.TimeoutStderr, nil
	}
	if runErr != nil {
		errOut, _ := container.Stderr(runCtx)
		if errOut == "" {
			errOut = runErr.Error()
		}
		return out, errOut, nil
	}
	return out, "", nil
}
