package generative

import (
	"context"
	"regexp"
	"strings"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// MaxOutputChars bounds the raw-text fallback path of Extract.
const MaxOutputChars = 20000

const promptTemplate = `You are a local code assistant. The user provided the following Go program:

###
%s
###

It produced this error:

###
%s
###

Detected logical issues (if any):
###
%s
###

User instructions:
%s

Please return only the corrected Go source file contents (no explanation, no markdown, no fences).
If you cannot safely fix the program, return an empty string.
`

// BuildPrompt fills the fixed template with the failing source, its error
// output, any detected logical issues, and the caller's own instructions.
func BuildPrompt(code autofix.Source, errorMessage string, logicIssues []autofix.LogicalIssue, userInstructions string) string {
	var logic strings.Builder
	if len(logicIssues) == 0 {
		logic.WriteString("(none)")
	}
	for _, issue := range logicIssues {
		logic.WriteString("- [" + issue.Kind + "] " + issue.Message)
		if issue.Hint != "" {
			logic.WriteString(" (hint: " + issue.Hint + ")")
		}
		logic.WriteString("\n")
	}
	if userInstructions == "" {
		userInstructions = "(none provided)"
	}
	return sprintf(promptTemplate, string(code), errorMessage, logic.String(), userInstructions)
}

// sprintf fills %s placeholders positionally without rescanning substituted
// text: splitting on the original format up front means an argument that
// itself contains "%s" (common in error messages quoting fmt calls) can't be
// mistaken for the next slot.
func sprintf(format string, args ...string) string {
	parts := strings.Split(format, "%s")
	var out strings.Builder
	for i, p := range parts {
		out.WriteString(p)
		if i < len(args) {
			out.WriteString(args[i])
		}
	}
	return out.String()
}

var fencedGoBlockRe = regexp.MustCompile("(?s)```(?:go)?\\n(.*?)```")
var leadingCommentRe = regexp.MustCompile(`^\s*//.*\n+`)
var prosePrefixRe = regexp.MustCompile(`^[A-Za-z ,\-()"']+:\s*`)

// Extract pulls a Go source candidate out of an LLM's free-text reply, in
// four stages, each tried only if the previous one failed to parse:
//  1. a fenced code block, if present and it parses (optionally after
//     stripping a leading comment line);
//  2. otherwise the largest contiguous line block that parses as a Go file;
//  3. otherwise a common leading-prose prefix stripped and retried;
//  4. otherwise the raw text, bounded to MaxOutputChars.
func Extract(text string) autofix.Source {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if m := fencedGoBlockRe.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if parseOK(wrapForParse(candidate)) {
			return autofix.Source(candidate + "\n")
		}
		stripped := leadingCommentRe.ReplaceAllString(candidate, "")
		if parseOK(wrapForParse(stripped)) {
			return autofix.Source(stripped + "\n")
		}
	}

	if best := largestParsingBlock(text); best != "" {
		return autofix.Source(best + "\n")
	}

	cleaned := strings.TrimSpace(prosePrefixRe.ReplaceAllString(text, ""))
	if parseOK(wrapForParse(cleaned)) {
		return autofix.Source(cleaned + "\n")
	}

	bounded := strings.TrimSpace(text)
	if len(bounded) > MaxOutputChars {
		bounded = bounded[:MaxOutputChars]
	}
	return autofix.Source(bounded)
}

// largestParsingBlock is an O(n^2) contiguous-line-window search for the
// biggest span of text that parses as a Go file, capped at a 200-line
// window to keep the search bounded on long replies.
func largestParsingBlock(text string) string {
	lines := strings.Split(text, "\n")
	best := ""
	for i := range lines {
		limit := i + 200
		if limit > len(lines) {
			limit = len(lines)
		}
		for j := i + 1; j <= limit; j++ {
			block := strings.TrimSpace(strings.Join(lines[i:j], "\n"))
			if len(block) < 10 {
				continue
			}
			if len(block) > len(best) && parseOK(wrapForParse(block)) {
				best = block
			}
		}
	}
	return best
}

// Fix runs the Generative fixer end to end: build the prompt, call the LLM,
// extract candidate source from its free-text reply, and merge it into base
// via MergeLLMResult. Returns base unchanged (a no-op) if the LLM errors or
// returns nothing usable — the controller is responsible for noticing a
// no-op and escalating to the next repair method.
func Fix(ctx context.Context, llm autofix.LLM, base autofix.Source, errorMessage string, logicIssues []autofix.LogicalIssue, userInstructions string, maxTokens int, allowFullRewrite bool) autofix.Source {
	if llm == nil {
		return base
	}
	prompt := BuildPrompt(base, errorMessage, logicIssues, userInstructions)
	raw, err := llm.Complete(ctx, prompt, maxTokens)
	if err != nil || strings.TrimSpace(raw) == "" {
		return base
	}
	candidate := Extract(raw)
	return MergeLLMResult(base, candidate, allowFullRewrite)
}
