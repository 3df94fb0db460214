// Package logical implements the Logical Detector: static AST heuristics and
// a dynamic test-harness fallback for bugs that parse and compile fine but
// compute the wrong answer.
package logical

import (
	"regexp"
	"strings"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// These regexes drive the known-pattern fast path before any static or
// dynamic analysis runs: a preorder-named function that appends to its
// result between its two recursive calls (in-order shape mislabelled as
// preorder), a fibonacci memoizer that returns memo[0] instead of memo[n],
// and a binary search that reassigns a bound to the midpoint without ±1.
var (
	preorderFuncRe     = regexp.MustCompile(`(?i)func\s+(\w*preorder\w*)\s*\(`)
	fibMemoZeroRe      = regexp.MustCompile(`\breturn\s+memo\[0\]`)
	binarySearchFuncRe = regexp.MustCompile(`(?i)func\s+(\w*(?:binary)?search\w*)\s*\(`)
	midAssignRe        = regexp.MustCompile(`\b(\w+)\s*:?=\s*\(?\s*(\w+)\s*\+\s*(\w+)\s*\)?\s*/\s*2`)
)

// checkKnownPatterns returns an issue for each known-shape bug recognised
// directly from source text, without invoking go/parser.
func checkKnownPatterns(src autofix.Source) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	text := string(src)

	if m := preorderFuncRe.FindStringSubmatchIndex(text); m != nil {
		name := text[m[2]:m[3]]
		body := extractFuncBody(text, m[0])
		if body != "" && inOrderShaped(body) {
			issues = append(issues, autofix.LogicalIssue{
				Kind:    "traversal_order",
				Message: "function " + name + " appends to its result between the two recursive calls (in-order shape), not before them (preorder)",
				Hint:    "move the append/result-write above both recursive calls",
			})
		}
	}

	if fibMemoZeroRe.MatchString(text) {
		issues = append(issues, autofix.LogicalIssue{
			Kind:    "memo_index",
			Message: "memoized fibonacci returns memo[0] instead of memo[n]",
			Hint:    "return memo[n]",
			SuggestedPatch: &autofix.Patch{
				Pattern:     "return memo[0]",
				Replacement: "return memo[n]",
			},
		})
	}

	if m := binarySearchFuncRe.FindStringSubmatchIndex(text); m != nil {
		body := extractFuncBody(text, m[0])
		if body != "" {
			if issue := binarySearchBoundIssue(body); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}

	return issues
}

// binarySearchBoundIssue looks for the classic off-by-the-midpoint bug: after
// computing mid := (lo + hi) / 2, a bound is reassigned to mid itself instead
// of mid+1 / mid-1, which can loop forever or skip the element at mid.
func binarySearchBoundIssue(body string) *autofix.LogicalIssue {
	midMatch := midAssignRe.FindStringSubmatch(body)
	if midMatch == nil {
		return nil
	}
	midVar, lo, hi := midMatch[1], midMatch[2], midMatch[3]

	loNoAdvance := regexp.MustCompile(`\b` + regexp.QuoteMeta(lo) + `\s*=\s*` + regexp.QuoteMeta(midVar) + `\s*(?:\n|;|$)`)
	hiNoAdvance := regexp.MustCompile(`\b` + regexp.QuoteMeta(hi) + `\s*=\s*` + regexp.QuoteMeta(midVar) + `\s*(?:\n|;|$)`)

	if loNoAdvance.MatchString(body) {
		return &autofix.LogicalIssue{
			Kind:    "binary_search_bound",
			Message: lo + " is reassigned to " + midVar + " without advancing past it, which can loop forever",
			Hint:    lo + " = " + midVar + " + 1",
		}
	}
	if hiNoAdvance.MatchString(body) {
		return &autofix.LogicalIssue{
			Kind:    "binary_search_bound",
			Message: hi + " is reassigned to " + midVar + " without retreating past it, which can loop forever",
			Hint:    hi + " = " + midVar + " - 1",
		}
	}
	return nil
}

// extractFuncBody returns the brace-delimited body text of the function
// declaration starting at startIdx in text, or "" if braces never balance.
func extractFuncBody(text string, startIdx int) string {
	open := strings.IndexByte(text[startIdx:], '{')
	if open < 0 {
		return ""
	}
	open += startIdx
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[open : i+1]
			}
		}
	}
	return ""
}

var recursiveCallLineRe = regexp.MustCompile(`\w+\(.*\)\s*$`)
var appendLineRe = regexp.MustCompile(`=\s*append\(`)

// inOrderShaped is a coarse textual check: within a two-recursive-call
// function body, does an append to the result sit between the two calls
// rather than before both? This mirrors the original's line-position
// heuristic rather than doing real control-flow analysis.
func inOrderShaped(body string) bool {
	lines := strings.Split(body, "\n")
	var callLines, appendLines []int
	for i, l := range lines {
		if strings.Count(l, "(") > 0 && recursiveCallLineRe.MatchString(strings.TrimSpace(l)) && !appendLineRe.MatchString(l) {
			if looksLikeSelfCall(l) {
				callLines = append(callLines, i)
			}
		}
		if appendLineRe.MatchString(l) {
			appendLines = append(appendLines, i)
		}
	}
	if len(callLines) < 2 || len(appendLines) == 0 {
		return false
	}
	a := appendLines[0]
	return a > callLines[0] && a < callLines[len(callLines)-1]
}

func looksLikeSelfCall(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Contains(trimmed, "(") && !strings.HasPrefix(trimmed, "//")
}
