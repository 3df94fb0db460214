package errtax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/errtax"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		diag string
		want autofix.ErrorKind
	}{
		{"empty", "", autofix.KindNone},
		{"undefined name", "./main.go:4:2: undefined: sqrt", autofix.KindName},
		{"missing brace", "./main.go:3:1: expected '{', found 'EOF'", autofix.KindSyntax},
		{"unused import", "imported and not used: \"fmt\"", autofix.KindImport},
		{"index", "panic: runtime error: index out of range [3] with length 2", autofix.KindIndex},
		{"nil deref", "panic: runtime error: invalid memory address or nil pointer dereference", autofix.KindAttribute},
		{"div zero", "panic: runtime error: integer divide by zero", autofix.KindZeroDivision},
		{"stack overflow", "runtime: goroutine stack exceeds 1000000000-byte limit\nfatal error: stack overflow", autofix.KindRecursion},
		{"generic panic traceback", "goroutine 1 [running]:\nmain.boom(...)", autofix.KindRuntime},
		{"unrecognized", "something completely unexpected happened", autofix.KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, normalized := errtax.ParseError(autofix.DiagnosticText(tc.diag), "")
			assert.Equal(t, tc.want, kind)
			if tc.diag == "" {
				assert.Empty(t, normalized)
			}
		})
	}
}

func TestChooseFixMethod(t *testing.T) {
	structured := []autofix.ErrorKind{
		autofix.KindSyntax, autofix.KindName, autofix.KindImport, autofix.KindAttribute,
		autofix.KindKey, autofix.KindValue, autofix.KindFile, autofix.KindParse,
		autofix.KindRegex, autofix.KindEncoding,
	}
	for _, k := range structured {
		assert.Equal(t, autofix.MethodStructured, errtax.ChooseFixMethod(k), "kind %s", k)
	}

	generative := []autofix.ErrorKind{
		autofix.KindLogical, autofix.KindRecursion, autofix.KindRuntime,
		autofix.KindZeroDivision, autofix.KindNetwork, autofix.KindSystem,
		autofix.KindMemory, autofix.KindUnknown, autofix.KindType,
	}
	for _, k := range generative {
		assert.Equal(t, autofix.MethodGenerative, errtax.ChooseFixMethod(k), "kind %s", k)
	}
}
