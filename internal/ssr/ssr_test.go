package ssr_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/ssr"
)

func TestApply_AlreadyValid(t *testing.T) {
	src := autofix.Source("package main\n\nfunc main() {}\n")
	assert.Equal(t, src, ssr.Apply(src))
}

func TestApply_UnclosedSliceLiteral(t *testing.T) {
	src := autofix.Source(`package main

import "fmt"

func main() {
	xs := []int{1, 2, 3, 4
	fmt.Println(xs)
}
`)
	fixed := ssr.Apply(src)
	assert.Contains(t, string(fixed), "}")
	assert.True(t, strings.Contains(string(fixed), "xs := []int{1, 2, 3, 4}"))
}

func TestApply_Idempotent(t *testing.T) {
	src := autofix.Source(`package main

func main() {
	xs := []int{1, 2, 3
	println(xs)
}
`)
	once := ssr.Apply(src)
	twice := ssr.Apply(once)
	assert.Equal(t, once, twice)
}

func TestApply_Empty(t *testing.T) {
	assert.Equal(t, autofix.Source(""), ssr.Apply(""))
}
