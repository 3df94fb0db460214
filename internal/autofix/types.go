// Package autofix holds the data model shared across the repair engine: the
// immutable Source type, the closed ErrorKind/FixMethod enums, and the
// iteration/report record types. Every other internal package imports this one;
// it imports none of them.
package autofix

import (
	"strings"
	"time"
)

// Source is normalized program text: line endings are always "\n". Every
// transformation in this module takes a Source by value and returns a new one;
// callers that need the previous version for diffing simply keep the old value.
type Source string

// NewSource normalizes text to Source, collapsing CRLF and lone CR into LF.
func NewSource(text string) Source {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return Source(text)
}

func (s Source) String() string { return string(s) }

// Lines splits the source on "\n" without discarding a trailing empty line.
func (s Source) Lines() []string { return strings.Split(string(s), "\n") }

// JoinLines is the inverse of Lines.
func JoinLines(lines []string) Source { return Source(strings.Join(lines, "\n")) }

// ErrorKind is the closed set of diagnostic categories a failed run can be
// classified into.
type ErrorKind string

const (
	KindNone         ErrorKind = "NONE"
	KindSyntax       ErrorKind = "SYNTAX"
	KindName         ErrorKind = "NAME"
	KindIndex        ErrorKind = "INDEX"
	KindKey          ErrorKind = "KEY"
	KindAttribute    ErrorKind = "ATTRIBUTE"
	KindValue        ErrorKind = "VALUE"
	KindImport       ErrorKind = "IMPORT"
	KindType         ErrorKind = "TYPE"
	KindZeroDivision ErrorKind = "ZERO_DIVISION"
	KindRecursion    ErrorKind = "RECURSION"
	KindRuntime      ErrorKind = "RUNTIME"
	KindLogical      ErrorKind = "LOGICAL"
	KindFile         ErrorKind = "FILE"
	KindParse        ErrorKind = "PARSE"
	KindRegex        ErrorKind = "REGEX"
	KindEncoding     ErrorKind = "ENCODING"
	KindNetwork      ErrorKind = "NETWORK"
	KindSystem       ErrorKind = "SYSTEM"
	KindMemory       ErrorKind = "MEMORY"
	KindUnknown      ErrorKind = "UNKNOWN"
)

// DiagnosticText is the raw, unstructured output of an Executor run.
type DiagnosticText string

// FixMethod is the closed tagged variant chosen per iteration.
type FixMethod string

const (
	MethodStructured FixMethod = "STRUCTURED"
	MethodGenerative FixMethod = "GENERATIVE"
	MethodNone       FixMethod = "NONE"
)

// Location is a 1-based line/column pointer into a Source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Patch is a textual substitution, kept as data so findings stay
// serializable: {pattern, replacement} rather than a closure. The controller
// applies it as a literal replacement of the first occurrence of Pattern;
// Pattern is not interpreted as a regular expression.
type Patch struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// LogicalIssue is one finding from the logical detector.
type LogicalIssue struct {
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	Location       *Location `json:"location,omitempty"`
	Evidence       string    `json:"evidence"`
	Hint           string    `json:"hint"`
	SuggestedPatch *Patch    `json:"suggested_patch,omitempty"`
}

// TestCase is data describing one dynamic probe, not executable code.
type TestCase struct {
	FunctionName   string `json:"function_name"`
	CallExpression string `json:"call_expression"`
	ExpectedRepr   string `json:"expected_repr"`
	Description    string `json:"description"`
}

// TestResult is the outcome of running one TestCase through the Executor.
type TestResult struct {
	Call         string `json:"call"`
	Expected     string `json:"expected"`
	OK           bool   `json:"ok"`
	ObservedRepr string `json:"observed_repr,omitempty"`
	ErrorText    string `json:"error_text,omitempty"`
}

// IterationRecord is one entry in a Report's iteration log.
type IterationRecord struct {
	Index         int            `json:"iteration"`
	Timestamp     time.Time      `json:"timestamp"`
	MethodApplied FixMethod      `json:"fix_method"`
	ErrorKind     ErrorKind      `json:"error_kind"`
	Success       bool           `json:"success"`
	Stdout        string         `json:"stdout"`
	Stderr        string         `json:"stderr"`
	CodeSnapshot  Source         `json:"code_snapshot"`
	ExecutionTime *time.Duration `json:"execution_time,omitempty"`
}

// ChangeEntry is one line-level edit attributed to a specific iteration.
type ChangeEntry struct {
	Iteration int       `json:"iteration"`
	Method    FixMethod `json:"method"`
	ErrorKind ErrorKind `json:"error_kind"`
	ChangeType string   `json:"change_type"` // "added" | "removed"
	LineOld   *int      `json:"line_old,omitempty"`
	LineNew   *int      `json:"line_new,omitempty"`
	OldText   string    `json:"old_text"`
	NewText   string    `json:"new_text"`
	Reason    string    `json:"reason"`
}

const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
)

// Report is the full per-run artifact persisted by internal/report.
type Report struct {
	RunID           string            `json:"run_id"`
	FinalStatus     string            `json:"final_status"` // "SUCCESS" | "FAILED"
	TotalIterations int               `json:"total_iterations"`
	Iterations      []IterationRecord `json:"iterations"`
	Changes         []ChangeEntry     `json:"changes"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)
