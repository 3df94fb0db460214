package generative

import (
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"regexp"
	"strings"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// Hallucination-bound constants: caps on how much an accepted candidate may
// shrink or grow relative to base before it's treated as untrustworthy.
const (
	maxAddedTopLevelDefs = 12
	maxAddedImports      = 8
	shrinkThreshold      = 0.75
)

func parseOK(code string) bool {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "candidate.go", code, parser.AllErrors)
	return err == nil
}

func safeParseTree(code string) *ast.File {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", code, 0)
	if err != nil {
		return nil
	}
	return file
}

func topLevelNames(code string) map[string]bool {
	names := map[string]bool{}
	file := safeParseTree(code)
	if file == nil {
		return names
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			names[d.Name.Name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

func importsOf(code string) map[string]bool {
	imports := map[string]bool{}
	file := safeParseTree(code)
	if file == nil {
		return imports
	}
	for _, imp := range file.Imports {
		imports[imp.Path.Value] = true
	}
	return imports
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

// funcOrTypeBlockRe finds a top-level func/type declaration and its body in
// raw text, used only as a fallback once go/ast extraction has been tried.
// A declaration's body is either all on one line ("{...}" with no interior
// newline) or spans multiple lines, in which case its closing brace is
// required to sit flush against the start of its own line — true for any
// gofmt'd top-level func/type, and the only way to find the end of a body
// without a full brace-counting parse.
var funcOrTypeBlockRe = regexp.MustCompile(`(?m)^(func\s+(?:\([^)]*\)\s*)?(\w+)\s*\([^\n]*\{\n(?:.*\n)*?^\}\n?|func\s+(?:\([^)]*\)\s*)?(\w+)\s*\([^\n]*\{[^\n{}]*\}\n?|type\s+(\w+)\s+struct\s*\{\n(?:.*\n)*?^\}\n?|type\s+(\w+)\s+struct\s*\{[^\n{}]*\}\n?)`)

func declPattern(name string) *regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?m)^(func\s+(?:\([^)]*\)\s*)?` + n + `\s*\([^\n]*\{\n(?:.*\n)*?^\}\n?` +
		`|func\s+(?:\([^)]*\)\s*)?` + n + `\s*\([^\n]*\{[^\n{}]*\}\n?` +
		`|type\s+` + n + `\s+struct\s*\{\n(?:.*\n)*?^\}\n?` +
		`|type\s+` + n + `\s+struct\s*\{[^\n{}]*\}\n?)`)
}

func replaceFirstMatch(target string, re *regexp.Regexp, replacement string) (string, bool) {
	loc := re.FindStringIndex(target)
	if loc == nil {
		return target, false
	}
	return target[:loc[0]] + replacement + target[loc[1]:], true
}

// extractSourceSegment renders the AST node's source span back to text via
// go/printer.
func extractSourceSegment(fset *token.FileSet, node ast.Node) string {
	var buf strings.Builder
	if err := printer.Fprint(&buf, fset, node); err != nil {
		return ""
	}
	return buf.String()
}

// MergeLLMResult merges candidate (raw LLM output, already run through
// Extract) into base: accept the candidate whole if it parses and passes the
// hallucination bounds, otherwise fall back to an AST partial merge, then a
// regex partial merge, then (only if allowFullRewrite) a full-rewrite
// partial merge against candidate text that never parsed as a whole file.
// Only gives up and returns base unchanged once every one of those fails.
func MergeLLMResult(base, candidate autofix.Source, allowFullRewrite bool) autofix.Source {
	if candidate == "" {
		return base
	}

	baseStr := string(base)
	candStr := strings.TrimSpace(string(candidate))
	baseLines := countLines(baseStr)
	candLines := countLines(candStr)

	// 1) Candidate parses fully: accept outright unless it trips a
	// hallucination bound. A rejection here is not a dead end — it falls
	// through to the partial-merge stages below instead of discarding a
	// candidate that may still contain one good, mergeable change.
	if parseOK(candStr) {
		baseNames := topLevelNames(baseStr)
		candNames := topLevelNames(candStr)
		addedDefs := 0
		for n := range candNames {
			if !baseNames[n] {
				addedDefs++
			}
		}

		baseImports := importsOf(baseStr)
		candImports := importsOf(candStr)
		newImports := 0
		for i := range candImports {
			if !baseImports[i] {
				newImports++
			}
		}

		shrunk := baseLines > 0 && candLines < maxInt(1, int(float64(baseLines)*shrinkThreshold))
		tooManyAdds := addedDefs > maxAddedTopLevelDefs || newImports > maxAddedImports
		if !shrunk && !tooManyAdds {
			return autofix.Source(candStr)
		}
	}

	// 2) Candidate doesn't parse, or parsed but was rejected above:
	// AST-level partial merge of whatever top-level decls in candidate DO
	// parse in isolation.
	if !parseOK(baseStr) {
		return base
	}

	candFile, candFset := parseLoose(candStr)
	merged := baseStr
	replacedAny := false
	if candFile != nil {
		for _, decl := range candFile.Decls {
			name, ok := declName(decl)
			if !ok {
				continue
			}
			seg := extractSourceSegment(candFset, decl)
			if seg == "" || !parseOK(wrapForParse(seg)) {
				continue
			}
			re := declPattern(name)
			replacement := strings.TrimRight(seg, "\n") + "\n"
			if candidateMerge, ok := replaceFirstMatch(merged, re, replacement); ok && parseOK(candidateMerge) {
				merged = candidateMerge
				replacedAny = true
			}
		}
	}
	if replacedAny && parseOK(merged) && merged != baseStr {
		return autofix.Source(merged)
	}

	// 3) Regex-level partial merge directly on raw candidate text.
	blocks := funcOrTypeBlockRe.FindAllString(candStr, -1)
	if len(blocks) > 0 {
		tmp := baseStr
		replacedAny = false
		for _, blk := range blocks {
			name, ok := blockName(blk)
			if !ok {
				continue
			}
			re := declPattern(name)
			replacement := strings.TrimRight(blk, "\n") + "\n"
			if candidateMerge, ok := replaceFirstMatch(tmp, re, replacement); ok && parseOK(candidateMerge) {
				tmp = candidateMerge
				replacedAny = true
			}
		}
		if replacedAny && parseOK(tmp) && tmp != baseStr {
			return autofix.Source(tmp)
		}
	}

	// 4) Full-function rewrite fallback, only when explicitly allowed, even
	// against candidate text that never parsed as a whole file.
	if allowFullRewrite {
		rawBlocks := funcOrTypeBlockRe.FindAllString(string(candidate), -1)
		if len(rawBlocks) > 0 {
			tmp := baseStr
			changed := false
			for _, blk := range rawBlocks {
				name, ok := blockName(blk)
				if !ok {
					continue
				}
				re := declPattern(name)
				replacement := strings.TrimRight(blk, "\n") + "\n"
				if candidateMerge, ok := replaceFirstMatch(tmp, re, replacement); ok && parseOK(candidateMerge) {
					tmp = candidateMerge
					changed = true
				}
			}
			if changed && parseOK(tmp) && tmp != baseStr {
				baseNames := topLevelNames(baseStr)
				tmpNames := topLevelNames(tmp)
				added := 0
				for n := range tmpNames {
					if !baseNames[n] {
						added++
					}
				}
				baseImports := importsOf(baseStr)
				tmpImports := importsOf(tmp)
				newImports := 0
				for i := range tmpImports {
					if !baseImports[i] {
						newImports++
					}
				}
				shrunk := baseLines > 0 && countLines(tmp) < maxInt(1, int(float64(baseLines)*shrinkThreshold))
				if shrunk || added > maxAddedTopLevelDefs || newImports > maxAddedImports {
					return base
				}
				return autofix.Source(tmp)
			}
		}
	}

	// 5) No safe merge found.
	return base
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// parseLoose parses candidate text permissively: it wraps a bare snippet in
// "package main" when needed, matching wrapForParse below.
func parseLoose(code string) (*ast.File, *token.FileSet) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", wrapForParse(code), 0)
	if err != nil {
		return nil, nil
	}
	return file, fset
}

func wrapForParse(code string) string {
	trimmed := strings.TrimLeft(code, " \t\n")
	if strings.HasPrefix(trimmed, "package ") {
		return code
	}
	return "package main\n\n" + code
}

func declName(decl ast.Decl) (string, bool) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		return d.Name.Name, true
	case *ast.GenDecl:
		for _, spec := range d.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				return ts.Name.Name, true
			}
		}
	}
	return "", false
}

var blockNameRe = regexp.MustCompile(`^(?:func\s+(?:\([^)]*\)\s*)?|type\s+)(\w+)`)

func blockName(blk string) (string, bool) {
	m := blockNameRe.FindStringSubmatch(blk)
	if m == nil {
		return "", false
	}
	return m[1], true
}
