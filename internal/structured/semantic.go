package structured

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

var builtinIdents = map[string]bool{
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"copy": true, "delete": true, "panic": true, "recover": true, "print": true,
	"println": true, "close": true, "min": true, "max": true, "nil": true,
	"true": true, "false": true, "iota": true,
}

// qualifyAndImport parses src (already known to parse syntactically),
// collects the set of names the file defines itself, finds unresolved bare
// call identifiers among funcToPackage's table, and rewrites each into a
// package-qualified selector, adding the needed import if it's not already
// present.
func qualifyAndImport(src autofix.Source) autofix.Source {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", string(src), parser.ParseComments)
	if err != nil {
		return src
	}

	defined := collectDefinedNames(file)
	neededImports := map[string]bool{}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		ident, ok := call.Fun.(*ast.Ident)
		if !ok {
			return true
		}
		if builtinIdents[ident.Name] || defined[ident.Name] {
			return true
		}
		pkg, ok := resolvePackage(ident.Name)
		if !ok {
			return true
		}
		call.Fun = &ast.SelectorExpr{
			X:   ast.NewIdent(pkg),
			Sel: ast.NewIdent(ident.Name),
		}
		neededImports[pkg] = true
		return true
	})

	for pkg := range neededImports {
		addImportIfMissing(file, pkg)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return src
	}
	return autofix.Source(buf.String())
}

// collectDefinedNames gathers top-level and parameter/local names the file
// already binds, so the qualifier never shadows a user-defined function of
// the same name as a stdlib one (e.g. a file with its own `func Join(...)`).
func collectDefinedNames(file *ast.File) map[string]bool {
	defined := map[string]bool{}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			defined[d.Name.Name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, name := range s.Names {
						defined[name.Name] = true
					}
				case *ast.TypeSpec:
					defined[s.Name.Name] = true
				}
			}
		}
	}
	ast.Inspect(file, func(n ast.Node) bool {
		if ft, ok := n.(*ast.FuncType); ok && ft.Params != nil {
			for _, field := range ft.Params.List {
				for _, name := range field.Names {
					defined[name.Name] = true
				}
			}
			return true
		}
		assign, ok := n.(*ast.AssignStmt)
		if !ok || assign.Tok != token.DEFINE {
			return true
		}
		for _, lhs := range assign.Lhs {
			if ident, ok := lhs.(*ast.Ident); ok {
				defined[ident.Name] = true
			}
		}
		return true
	})
	return defined
}

// addImportIfMissing inserts an import spec for pkg's full path if the file
// doesn't already import it, reusing the first import GenDecl if one exists.
func addImportIfMissing(file *ast.File, pkg string) {
	path := pathFor(pkg)
	for _, imp := range file.Imports {
		if imp.Path.Value == `"`+path+`"` {
			return
		}
	}

	spec := &ast.ImportSpec{
		Path: &ast.BasicLit{Kind: token.STRING, Value: `"` + path + `"`},
	}
	file.Imports = append(file.Imports, spec)

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if ok && gen.Tok == token.IMPORT {
			gen.Specs = append(gen.Specs, spec)
			return
		}
	}

	importDecl := &ast.GenDecl{
		Tok:   token.IMPORT,
		Specs: []ast.Spec{spec},
	}
	file.Decls = append([]ast.Decl{importDecl}, file.Decls...)
}
