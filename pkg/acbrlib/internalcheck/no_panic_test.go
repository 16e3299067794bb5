package internalcheck

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestNoPanicInCore(t *testing.T) {
	pkgs := load(t,
		packages.NeedSyntax|packages.NeedTypes|packages.NeedTypesInfo|packages.NeedFiles|packages.NeedName,
		modulePath+"/internal/dl",
		modulePath+"/pkg/acbrlib",
		modulePath+"/pkg/acbrlib/esocial",
		modulePath+"/pkg/acbrlib/logging",
	)

	var findings []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				ident, ok := call.Fun.(*ast.Ident)
				if !ok {
					return true
				}
				if b, ok := pkg.TypesInfo.Uses[ident].(*types.Builtin); ok && b.Name() == "panic" {
					findings = append(findings, fmt.Sprintf("%s: panic in core package", pkg.Fset.Position(call.Pos())))
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("no-panic policy violation:\n%s", strings.Join(findings, "\n"))
	}
}
