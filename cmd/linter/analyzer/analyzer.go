package analyzer

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "forbiddencalls"
	analyzerDoc  = "reports panic and process-terminating calls (log.Fatal, os.Exit, zerolog Fatal/Panic) outside func main of package main"
)

// Analyzer checks for forbidden function calls in the code.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// forbidden maps an import path to the functions that may only be called from main.
var forbidden = map[string]map[string]string{
	"log": {
		"Fatal":   "log.Fatal",
		"Fatalf":  "log.Fatalf",
		"Fatalln": "log.Fatalln",
		"Panic":   "log.Panic",
		"Panicf":  "log.Panicf",
		"Panicln": "log.Panicln",
	},
	"os": {
		"Exit": "os.Exit",
	},
	"github.com/rs/zerolog/log": {
		"Fatal": "zerolog log.Fatal",
		"Panic": "zerolog log.Panic",
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	insp.WithStack(nodeFilter, func(node ast.Node, push bool, stack []ast.Node) bool {
		if push {
			checkCall(pass, node.(*ast.CallExpr), stack)
		}
		return true
	})

	return nil, nil
}

func checkCall(pass *analysis.Pass, callExpr *ast.CallExpr, stack []ast.Node) {
	switch fn := callExpr.Fun.(type) {
	case *ast.Ident:
		if _, ok := pass.TypesInfo.Uses[fn].(*types.Builtin); ok && fn.Name == "panic" {
			pass.Reportf(callExpr.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		name, ok := forbiddenName(pass, fn)
		if ok && !inMainFunc(pass, stack) {
			pass.Reportf(callExpr.Pos(), "%s is forbidden outside main function", name)
		}
	}
}

func forbiddenName(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", false
	}

	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", false
	}

	name, ok := forbidden[pkgName.Imported().Path()][sel.Sel.Name]
	return name, ok
}

// inMainFunc reports whether the innermost enclosing declaration is func main of package main.
// Closures declared inside main count as main.
func inMainFunc(pass *analysis.Pass, stack []ast.Node) bool {
	if pass.Pkg.Name() != "main" {
		return false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if decl, ok := stack[i].(*ast.FuncDecl); ok {
			return decl.Recv == nil && decl.Name.Name == "main"
		}
	}
	return false
}
