// Package executor provides three interchangeable implementations of
// autofix.Executor: an in-process Go interpreter (default), a Dagger
// container sandbox, and a native os/exec+pty subprocess.
package executor

import (
	"bytes"
	"context"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// YaegiExecutor runs Go source in-process with github.com/traefik/yaegi. It
// is the default Executor backend: no container, no subprocess, cheapest
// per-iteration cost, at the expense of weaker isolation than Dagger or a
// real OS subprocess.
type YaegiExecutor struct{}

func NewYaegiExecutor() *YaegiExecutor { return &YaegiExecutor{} }

func (e *YaegiExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (stdout, stderr string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out, errOut string
		runErr      error
	}
	done := make(chan result, 1)

	go func() {
		var stdoutBuf, stderrBuf bytes.Buffer
		i := interp.New(interp.Options{Stdout: &stdoutBuf, Stderr: &stderrBuf})
		if useErr := i.Use(stdlib.Symbols); useErr != nil {
			done <- result{runErr: useErr}
			return
		}
		_, evalErr := i.Eval(string(source))
		done <- result{out: stdoutBuf.String(), errOut: stderrBuf.String(), runErr: evalErr}
	}()

	select {
	case <-runCtx.Done():
		return "", autofix.TimeoutStderr, nil
	case r := <-done:
		if r.runErr != nil && r.errOut == "" {
			r.errOut = r.runErr.Error()
		}
		return r.out, r.errOut, nil
	}
}
