package main

// This package provides custom checks for "go vet". It can be used like the
// following:
// `go build && go vet -vettool=./check -commentLen -sentinelWrap ./...`
//
// commentLen verifies that no comment exceeds MaxLen. It ignores files that
// have "// Code generated" as first comment and "//go:generate" lines.
//
// sentinelWrap verifies that an error sentinel, a package variable named
// Err*, is formatted with the %w verb so that callers can match it.

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/unitchecker"
)

// MaxLen is the maximum length of a comment
var MaxLen = 80

var commentAnalyzer = &analysis.Analyzer{
	Name: "commentLen",
	Doc:  "checks the lengths of comments",
	Run:  runComments,
}

var wrapAnalyzer = &analysis.Analyzer{
	Name: "sentinelWrap",
	Doc:  "checks that error sentinels are wrapped with %w",
	Run:  runWrap,
}

var errorfPackages = map[string]bool{
	"fmt":                  true,
	"golang.org/x/xerrors": true,
}

func main() {
	unitchecker.Main(
		commentAnalyzer,
		wrapAnalyzer,
	)
}

// runComments parses all the comments in ast.File
func runComments(pass *analysis.Pass) (interface{}, error) {
fileLoop:
	for _, file := range pass.Files {
		isFirst := true
		for _, cg := range file.Comments {
			for _, c := range cg.List {
				if isFirst && strings.HasPrefix(c.Text, "// Code generated") {
					continue fileLoop
				}
				// in case of /* */ comment there might be multiple lines
				lines := strings.Split(c.Text, "\n")
				for _, line := range lines {
					if strings.HasPrefix(line, "//go:generate") {
						continue
					}
					if len(line) > MaxLen {
						pass.Reportf(c.Pos(), "Comment too long: %s (%d)",
							line, len(line))
					}
				}
				isFirst = false
			}
		}
	}
	return nil, nil
}

// runWrap looks for the Errorf calls that format a sentinel with another verb
// than %w.
func runWrap(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(node ast.Node) bool {
			call, ok := node.(*ast.CallExpr)
			if !ok || !isErrorf(pass, call) || len(call.Args) == 0 {
				return true
			}

			lit, ok := call.Args[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				return true
			}

			format, err := strconv.Unquote(lit.Value)
			if err != nil {
				return true
			}

			verbs := parseVerbs(format)
			for i, arg := range call.Args[1:] {
				if i >= len(verbs) {
					break
				}

				name, ok := sentinel(pass, arg)
				if ok && verbs[i] != 'w' {
					pass.Reportf(arg.Pos(), "sentinel %s formatted with %%%c instead of %%w",
						name, verbs[i])
				}
			}

			return true
		})
	}
	return nil, nil
}

func isErrorf(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Errorf" {
		return false
	}

	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}

	pkg, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)

	return ok && errorfPackages[pkg.Imported().Path()]
}

// sentinel returns the name of the expression if it refers to a package
// variable of type error whose name starts with Err.
func sentinel(pass *analysis.Pass, expr ast.Expr) (string, bool) {
	var ident *ast.Ident

	switch e := expr.(type) {
	case *ast.Ident:
		ident = e
	case *ast.SelectorExpr:
		ident = e.Sel
	default:
		return "", false
	}

	v, ok := pass.TypesInfo.Uses[ident].(*types.Var)
	if !ok || v.Pkg() == nil || v.Parent() != v.Pkg().Scope() {
		return "", false
	}

	if !strings.HasPrefix(v.Name(), "Err") {
		return "", false
	}

	errType := types.Universe.Lookup("error").Type().Underlying().(*types.Interface)

	return v.Name(), types.Implements(v.Type(), errType)
}

// parseVerbs returns the verb of each argument of the format in order.
func parseVerbs(format string) []rune {
	var verbs []rune

	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}

		i++
		for i < len(runes) && strings.ContainsRune("+-# 0123456789.*[]", runes[i]) {
			i++
		}

		if i < len(runes) && runes[i] != '%' {
			verbs = append(verbs, runes[i])
		}
	}

	return verbs
}
