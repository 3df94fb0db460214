package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// SubprocessExecutor compiles and runs source as a real OS process via
// `go run`, attached to a pty so a program's output behaves the way it would
// interactively (line-buffered, no extra pipe buffering surprises). The
// strongest isolation of the three backends short of a container; used when
// neither yaegi's in-process trust model nor a Dagger daemon is available.
type SubprocessExecutor struct {
	WorkDir string
}

func NewSubprocessExecutor(workDir string) *SubprocessExecutor {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &SubprocessExecutor{WorkDir: workDir}
}

func (e *SubprocessExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (stdout, stderr string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, mkErr := os.MkdirTemp(e.WorkDir, "autofix-run-"+uuid.NewString())
	if mkErr != nil {
		return "", "", mkErr
	}
	defer os.RemoveAll(dir)

	mainPath := dir + "/main.go"
	if writeErr := os.WriteFile(mainPath, []byte(source), 0o600); writeErr != nil {
		return "", "", writeErr
	}

	cmd := exec.CommandContext(runCtx, "go", "run", mainPath)
	cmd.Dir = dir

	ptyFile, startErr := pty.Start(cmd)
	if startErr != nil {
		var stderrBuf bytes.Buffer
		cmd.Stderr = &stderrBuf
		out, runErr := cmd.CombinedOutput()
		if runCtx.Err() != nil {
			return "", autofix.TimeoutStderr, nil
		}
		if runErr != nil {
			return string(out), runErr.Error(), nil
		}
		return string(out), "", nil
	}
	defer ptyFile.Close()

	var buf bytes.Buffer
	copyDone := make(chan struct{})
	go func() {
		buf.ReadFrom(ptyFile)
		close(copyDone)
	}()

	waitErr := cmd.Wait()
	<-copyDone

	if runCtx.Err() != nil {
		return buf.String(), autofix.TimeoutStderr, nil
	}
	if waitErr != nil {
		return buf.String(), waitErr.Error(), nil
	}
	return buf.String(), "", nil
}
