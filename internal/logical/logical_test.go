package logical_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/logical"
)

func TestInspectAndTest_FactorialBaseCase(t *testing.T) {
	src := autofix.Source(`package main

func Factorial(n int) int {
	if n == 0 {
		return 0
	}
	return n * Factorial(n-1)
}
`)
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, time.Second)
	assert.Equal(t, "static_detector", note)
	assert.NotEmpty(t, issues)
	assert.Equal(t, "factorial_base_case", issues[0].Kind)
}

func TestInspectAndTest_FibMemoZeroKnownPattern(t *testing.T) {
	src := autofix.Source(`package main

func Fib(n int) int {
	memo := map[int]int{0: 0, 1: 1}
	return memo[0]
}
`)
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, time.Second)
	assert.Equal(t, "known_pattern", note)
	assert.NotEmpty(t, issues)
	assert.Equal(t, "memo_index", issues[0].Kind)
}

func TestInspectAndTest_BinarySearchBoundKnownPattern(t *testing.T) {
	src := autofix.Source(`package main

func BinarySearch(xs []int, target int) int {
	lo, hi := 0, len(xs)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if xs[mid] == target {
			return mid
		} else if xs[mid] < target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return -1
}
`)
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, time.Second)
	assert.Equal(t, "known_pattern", note)
	assert.NotEmpty(t, issues)
	assert.Equal(t, "binary_search_bound", issues[0].Kind)
}

func TestInspectAndTest_BooleanCompare(t *testing.T) {
	src := autofix.Source(`package main

func Check(ok bool) bool {
	if ok == true {
		return true
	}
	return false
}
`)
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, time.Second)
	assert.Equal(t, "static_detector", note)
	assert.NotEmpty(t, issues)
	assert.Equal(t, "boolean_compare", issues[0].Kind)
}

func TestInspectAndTest_NoIssuesNoDriverNoExecutor(t *testing.T) {
	src := autofix.Source(`package main

func add(a, b int) int {
	return a + b
}
`)
	issues, _, _, note := logical.InspectAndTest(context.Background(), nil, src, time.Second)
	assert.Empty(t, issues)
	assert.Equal(t, "no_recognised_driver", note)
}

type fakeExecutor struct {
	stdout string
}

func (f fakeExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (string, string, error) {
	return f.stdout, "", nil
}

func TestInspectAndTest_DynamicFailure(t *testing.T) {
	src := autofix.Source(`package main

func SumList(xs []int) int {
	total := 0
	for _, x := range xs {
		total = x
	}
	return total
}
`)
	exec := fakeExecutor{stdout: "RESULT[0]=9\n"}
	issues, tests, results, note := logical.InspectAndTest(context.Background(), exec, src, time.Second)
	assert.Equal(t, "dynamic_test", note)
	assert.NotEmpty(t, tests)
	assert.NotEmpty(t, results)
	assert.False(t, results[0].OK)
	assert.NotEmpty(t, issues)
}
