package logical

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

var predeclaredIdents = map[string]bool{
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"copy": true, "delete": true, "panic": true, "recover": true, "print": true,
	"println": true, "close": true, "true": true, "false": true, "nil": true,
	"error": true, "string": true, "int": true, "bool": true, "float64": true,
}

// runStaticDetectors parses the file once and runs each detector over it in
// a fixed order, each detector walking the tree itself. It returns as soon
// as any detector reports an issue.
func runStaticDetectors(src autofix.Source) []autofix.LogicalIssue {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", string(src), 0)
	if err != nil {
		return nil
	}

	if issues := detectFactorialBaseCase(file); len(issues) > 0 {
		return issues
	}
	if issues := detectRecursionWithoutProgress(file); len(issues) > 0 {
		return issues
	}
	if issues := detectSharedMutableState(file); len(issues) > 0 {
		return issues
	}
	if issues := detectOffByOneSubscript(file); len(issues) > 0 {
		return issues
	}
	if issues := detectConstantIndexOnLiteral(file); len(issues) > 0 {
		return issues
	}
	if issues := detectBooleanCompare(file); len(issues) > 0 {
		return issues
	}
	if issues := detectBuiltinShadowing(file); len(issues) > 0 {
		return issues
	}
	if issues := detectUnreachableCode(file); len(issues) > 0 {
		return issues
	}
	return nil
}

func funcDecls(file *ast.File) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			out = append(out, fd)
		}
	}
	return out
}

func detectFactorialBaseCase(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	for _, fd := range funcDecls(file) {
		if !strings.Contains(strings.ToLower(fd.Name.Name), "factorial") || fd.Body == nil {
			continue
		}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			ifs, ok := n.(*ast.IfStmt)
			if !ok {
				return true
			}
			if !isEqualsZeroCheck(ifs.Cond) {
				return true
			}
			for _, stmt := range ifs.Body.List {
				ret, ok := stmt.(*ast.ReturnStmt)
				if !ok || len(ret.Results) != 1 {
					continue
				}
				lit, ok := ret.Results[0].(*ast.BasicLit)
				if ok && lit.Kind == token.INT && lit.Value == "0" {
					issues = append(issues, autofix.LogicalIssue{
						Kind:    "factorial_base_case",
						Message: "func " + fd.Name.Name + " returns 0 for its base case instead of 1",
						Hint:    "return 1",
						SuggestedPatch: &autofix.Patch{
							Pattern:     "return 0",
							Replacement: "return 1",
						},
					})
				}
			}
			return true
		})
	}
	return issues
}

func isEqualsZeroCheck(cond ast.Expr) bool {
	bin, ok := cond.(*ast.BinaryExpr)
	if !ok || bin.Op != token.EQL {
		return false
	}
	return isZeroLiteral(bin.X) || isZeroLiteral(bin.Y)
}

func isZeroLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.BasicLit)
	return ok && lit.Kind == token.INT && lit.Value == "0"
}

// detectRecursionWithoutProgress flags a function that calls itself but
// never passes an argument reduced by subtraction or division, and never
// returns without first making a further recursive call — i.e. no evident
// base case. Reported, not auto-patched.
func detectRecursionWithoutProgress(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	for _, fd := range funcDecls(file) {
		if fd.Body == nil {
			continue
		}
		selfCalls, hasProgress, hasBaseReturn := 0, false, false
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if ok {
				if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == fd.Name.Name {
					selfCalls++
					for _, arg := range call.Args {
						if bin, ok := arg.(*ast.BinaryExpr); ok && (bin.Op == token.SUB || bin.Op == token.QUO) {
							hasProgress = true
						}
					}
				}
			}
			if ifs, ok := n.(*ast.IfStmt); ok {
				for _, stmt := range ifs.Body.List {
					if ret, ok := stmt.(*ast.ReturnStmt); ok {
						if !returnContainsSelfCall(ret, fd.Name.Name) {
							hasBaseReturn = true
						}
					}
				}
			}
			return true
		})
		if selfCalls > 0 && !hasProgress && !hasBaseReturn {
			issues = append(issues, autofix.LogicalIssue{
				Kind:    "recursion_without_progress",
				Message: "func " + fd.Name.Name + " recurses without an argument that shrinks and without an evident base-case return",
				Hint:    "add a base case, or shrink the recursive argument by subtraction/division",
			})
		}
	}
	return issues
}

func returnContainsSelfCall(ret *ast.ReturnStmt, name string) bool {
	for _, r := range ret.Results {
		found := false
		ast.Inspect(r, func(n ast.Node) bool {
			if call, ok := n.(*ast.CallExpr); ok {
				if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == name {
					found = true
				}
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// detectSharedMutableState flags a package-level slice/map var, initialised
// with a composite literal, that more than one function mutates directly
// instead of copying first. Only the last such var in the file is checked:
// it is flagged when two or more functions assign to it or pass it to
// append. Earlier vars are not examined, and there is no reachability
// analysis.
func detectSharedMutableState(file *ast.File) []autofix.LogicalIssue {
	var mutableVars []string
	for _, d := range file.Decls {
		gen, ok := d.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					continue
				}
				if isCompositeLiteral(vs.Values[i]) {
					mutableVars = append(mutableVars, name.Name)
				}
			}
		}
	}
	if len(mutableVars) == 0 {
		return nil
	}

	lastVar := mutableVars[len(mutableVars)-1]
	var referencing []string
	for _, fd := range funcDecls(file) {
		if fd.Body == nil {
			continue
		}
		mutates := false
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			if assign, ok := n.(*ast.AssignStmt); ok {
				for _, lhs := range assign.Lhs {
					if refersTo(lhs, lastVar) {
						mutates = true
					}
				}
			}
			if call, ok := n.(*ast.CallExpr); ok {
				if sel, ok := call.Fun.(*ast.Ident); ok && sel.Name == "append" {
					for _, arg := range call.Args {
						if refersTo(arg, lastVar) {
							mutates = true
						}
					}
				}
			}
			return true
		})
		if mutates {
			referencing = append(referencing, fd.Name.Name)
		}
	}

	if len(referencing) > 1 {
		return []autofix.LogicalIssue{{
			Kind:    "shared_mutable_state",
			Message: "package-level var " + lastVar + " is mutated by " + strings.Join(referencing, ", ") + " without being copied first",
			Hint:    "copy the slice/map before mutating, or make it function-local",
		}}
	}
	return nil
}

func isCompositeLiteral(e ast.Expr) bool {
	_, ok := e.(*ast.CompositeLit)
	return ok
}

func refersTo(e ast.Expr, name string) bool {
	ident, ok := e.(*ast.Ident)
	return ok && ident.Name == name
}

// detectOffByOneSubscript flags x[i+1] (or x[i-1]) indexing inside a loop
// whose induction variable is i, the commonest off-by-one shape.
func detectOffByOneSubscript(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	ast.Inspect(file, func(n ast.Node) bool {
		forStmt, ok := n.(*ast.ForStmt)
		if !ok {
			return true
		}
		loopVar := loopInductionVar(forStmt)
		if loopVar == "" {
			return true
		}
		ast.Inspect(forStmt.Body, func(m ast.Node) bool {
			idx, ok := m.(*ast.IndexExpr)
			if !ok {
				return true
			}
			bin, ok := idx.Index.(*ast.BinaryExpr)
			if !ok || (bin.Op != token.ADD && bin.Op != token.SUB) {
				return true
			}
			if ident, ok := bin.X.(*ast.Ident); ok && ident.Name == loopVar {
				issues = append(issues, autofix.LogicalIssue{
					Kind:    "off_by_one_subscript",
					Message: "subscript offset from loop variable " + loopVar + " may run out of bounds",
					Hint:    "check the loop bound accounts for the offset",
				})
			}
			return true
		})
		return true
	})
	return issues
}

func loopInductionVar(f *ast.ForStmt) string {
	assign, ok := f.Init.(*ast.AssignStmt)
	if !ok || len(assign.Lhs) != 1 {
		return ""
	}
	ident, ok := assign.Lhs[0].(*ast.Ident)
	if !ok {
		return ""
	}
	return ident.Name
}

// detectConstantIndexOnLiteral flags arr[k] where arr is a composite slice
// literal and k a literal integer at or past its length.
func detectConstantIndexOnLiteral(file *ast.File) []autofix.LogicalIssue {
	lengths := map[string]int{}
	ast.Inspect(file, func(n ast.Node) bool {
		assign, ok := n.(*ast.AssignStmt)
		if !ok {
			return true
		}
		for i, lhs := range assign.Lhs {
			if i >= len(assign.Rhs) {
				continue
			}
			ident, ok := lhs.(*ast.Ident)
			comp, ok2 := assign.Rhs[i].(*ast.CompositeLit)
			if ok && ok2 {
				if _, isArrayOrSlice := comp.Type.(*ast.ArrayType); isArrayOrSlice || comp.Type == nil {
					lengths[ident.Name] = len(comp.Elts)
				}
			}
		}
		return true
	})
	if len(lengths) == 0 {
		return nil
	}

	var issues []autofix.LogicalIssue
	ast.Inspect(file, func(n ast.Node) bool {
		idx, ok := n.(*ast.IndexExpr)
		if !ok {
			return true
		}
		ident, ok := idx.X.(*ast.Ident)
		if !ok {
			return true
		}
		length, known := lengths[ident.Name]
		if !known {
			return true
		}
		lit, ok := idx.Index.(*ast.BasicLit)
		if !ok || lit.Kind != token.INT {
			return true
		}
		k, err := strconv.Atoi(lit.Value)
		if err != nil || k < length {
			return true
		}
		issues = append(issues, autofix.LogicalIssue{
			Kind:    "constant_index_on_literal",
			Message: ident.Name + "[" + lit.Value + "] indexes past the end of a " + strconv.Itoa(length) + "-element literal",
			Hint:    "check the index against the literal's length",
		})
		return true
	})
	return issues
}

func detectBooleanCompare(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	ast.Inspect(file, func(n ast.Node) bool {
		bin, ok := n.(*ast.BinaryExpr)
		if !ok || (bin.Op != token.EQL && bin.Op != token.NEQ) {
			return true
		}
		if isBoolLiteral(bin.X) || isBoolLiteral(bin.Y) {
			issues = append(issues, autofix.LogicalIssue{
				Kind:    "boolean_compare",
				Message: "explicit comparison against a boolean literal",
				Hint:    "use the boolean expression directly, negate with ! if needed",
			})
		}
		return true
	})
	return issues
}

func isBoolLiteral(e ast.Expr) bool {
	ident, ok := e.(*ast.Ident)
	return ok && (ident.Name == "true" || ident.Name == "false")
}

func detectBuiltinShadowing(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	ast.Inspect(file, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.AssignStmt:
			if s.Tok != token.DEFINE {
				return true
			}
			for _, lhs := range s.Lhs {
				if ident, ok := lhs.(*ast.Ident); ok && predeclaredIdents[ident.Name] {
					issues = append(issues, autofix.LogicalIssue{
						Kind:    "builtin_shadowing",
						Message: "local variable shadows predeclared identifier " + ident.Name,
						Hint:    "rename the variable",
					})
				}
			}
		case *ast.ValueSpec:
			for _, ident := range s.Names {
				if predeclaredIdents[ident.Name] {
					issues = append(issues, autofix.LogicalIssue{
						Kind:    "builtin_shadowing",
						Message: "variable shadows predeclared identifier " + ident.Name,
						Hint:    "rename the variable",
					})
				}
			}
		}
		return true
	})
	return issues
}

func detectUnreachableCode(file *ast.File) []autofix.LogicalIssue {
	var issues []autofix.LogicalIssue
	ast.Inspect(file, func(n ast.Node) bool {
		block, ok := n.(*ast.BlockStmt)
		if !ok {
			return true
		}
		for i, stmt := range block.List {
			if _, ok := stmt.(*ast.ReturnStmt); ok && i+1 < len(block.List) {
				issues = append(issues, autofix.LogicalIssue{
					Kind:    "unreachable_code",
					Message: "statement follows an unconditional return in the same block",
					Hint:    "remove the dead statement or move the return",
				})
			}
		}
		return true
	})
	return issues
}
