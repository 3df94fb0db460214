package structured_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/structured"
)

func TestFix_UnclosedParen(t *testing.T) {
	src := autofix.Source(`package main

func main() {
	println("hi"
}
`)
	fixed := structured.Fix(src)
	assert.Contains(t, string(fixed), `println("hi")`)
}

func TestFix_MissingBlockBrace(t *testing.T) {
	src := autofix.Source(`package main

func main() {
	if true
		println("yes")
	}
}
`)
	fixed := structured.Fix(src)
	assert.True(t, strings.Contains(string(fixed), "if true {") || strings.Contains(string(fixed), "if true{"))
}

func TestFix_AutoQualifiesUnresolvedStdlibCall(t *testing.T) {
	src := autofix.Source(`package main

func main() {
	x := Sqrt(16)
	_ = x
}
`)
	fixed := structured.Fix(src)
	out := string(fixed)
	assert.Contains(t, out, "math.Sqrt(16)")
	assert.Contains(t, out, `"math"`)
}

func TestFix_DoesNotQualifyUserDefinedFunction(t *testing.T) {
	src := autofix.Source(`package main

func Join(parts []string) string {
	return ""
}

func main() {
	Join([]string{"a", "b"})
}
`)
	fixed := structured.Fix(src)
	assert.NotContains(t, string(fixed), `strings.Join`)
}

func TestFix_AlreadyValidIsReturnedAsIs(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {}\n")
	fixed := structured.Fix(src)
	assert.Equal(t, "package main\n\nfunc main() {}\n", string(fixed))
}

func TestFix_Empty(t *testing.T) {
	assert.Equal(t, autofix.Source(""), structured.Fix(""))
}
