// Package errtax classifies raw Executor diagnostic text into the closed
// ErrorKind taxonomy and chooses a repair strategy for it. Both functions are
// pure: no I/O, no state. Matching is substring-based against the Go
// toolchain's and runtime's diagnostic vocabulary, the same style the original
// Python engine used against CPython's exception names.
package errtax

import (
	"strings"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// substringRule pairs a diagnostic substring with the ErrorKind it implies.
// Order matters: the first matching rule wins, most specific first.
type substringRule struct {
	substr string
	kind   autofix.ErrorKind
}

var rules = []substringRule{
	{"expected '{'", autofix.KindSyntax},
	{"expected declaration", autofix.KindSyntax},
	{"expected statement", autofix.KindSyntax},
	{"expected operand", autofix.KindSyntax},
	{"expected ';'", autofix.KindSyntax},
	{"unexpected newline", autofix.KindSyntax},
	{"undeclared name:", autofix.KindName},
	{"undefined:", autofix.KindName},
	{"imported and not used", autofix.KindImport},
	{"could not import", autofix.KindImport},
	{"no required module provides package", autofix.KindImport},
	{"index out of range", autofix.KindIndex},
	{"slice bounds out of range", autofix.KindIndex},
	{"missing key", autofix.KindKey},
	{"key not found", autofix.KindKey},
	{"has no field or method", autofix.KindAttribute},
	{"invalid memory address or nil pointer dereference", autofix.KindAttribute},
	{"cannot use", autofix.KindType},
	{"mismatched types", autofix.KindType},
	{"not enough arguments", autofix.KindType},
	{"too many arguments", autofix.KindType},
	{"invalid operation", autofix.KindValue},
	{"invalid argument", autofix.KindValue},
	{"integer divide by zero", autofix.KindZeroDivision},
	{"stack overflow", autofix.KindRecursion},
	{"no such file or directory", autofix.KindFile},
	{"invalid utf-8", autofix.KindEncoding},
	{"invalid regexp", autofix.KindRegex},
	{"connection refused", autofix.KindNetwork},
	{"no such host", autofix.KindNetwork},
	{"out of memory", autofix.KindMemory},
	{"runtime error:", autofix.KindRuntime},
	{"syntax error", autofix.KindParse},
}

// ParseError maps raw diagnostic text (and, for context, the source it came
// from) to an ErrorKind and a normalized copy of the diagnostic. source is
// currently unused by any rule but kept in the signature to leave room for
// source-aware disambiguation later.
func ParseError(diag autofix.DiagnosticText, source autofix.Source) (autofix.ErrorKind, string) {
	_ = source
	text := string(diag)
	if strings.TrimSpace(text) == "" {
		return autofix.KindNone, ""
	}

	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.substr)) {
			return r.kind, text
		}
	}

	if strings.Contains(text, "goroutine ") {
		return autofix.KindRuntime, text
	}

	return autofix.KindUnknown, text
}

// structuredKinds are repaired by deterministic text/AST transformation.
var structuredKinds = map[autofix.ErrorKind]bool{
	autofix.KindSyntax:    true,
	autofix.KindName:      true,
	autofix.KindImport:    true,
	autofix.KindAttribute: true,
	autofix.KindKey:       true,
	autofix.KindValue:     true,
	autofix.KindFile:      true,
	autofix.KindParse:     true,
	autofix.KindRegex:     true,
	autofix.KindEncoding:  true,
}

// ChooseFixMethod picks Structured or Generative for a given ErrorKind.
// Unmapped kinds (including Logical, Recursion, Runtime, ZeroDivision,
// Network, System, Memory, Type, Unknown, None) default to Generative.
func ChooseFixMethod(kind autofix.ErrorKind) autofix.FixMethod {
	if structuredKinds[kind] {
		return autofix.MethodStructured
	}
	return autofix.MethodGenerative
}
