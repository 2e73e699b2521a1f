// Package srctest loads packages from in-memory sources for tests.
package srctest

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

// PkgPath is the import path of loaded packages.
const PkgPath = "example.com/test"

// Load parses and type-checks the files. Keys are file names. Type errors
// are ignored so that tests may refer to undeclared names. Only standard
// library imports are resolved.
func Load(t testing.TB, files map[string]string) *packages.Package {
	t.Helper()

	fset := token.NewFileSet()
	var syntax []*ast.File
	for _, name := range slices.Sorted(maps.Keys(files)) {
		file, err := parser.ParseFile(fset, name, files[name], parser.ParseComments|parser.SkipObjectResolution)
		require.NoError(t, err)
		syntax = append(syntax, file)
	}
	require.NotEmpty(t, syntax)

	info := &types.Info{
		Types:     make(map[ast.Expr]types.TypeAndValue),
		Defs:      make(map[*ast.Ident]types.Object),
		Uses:      make(map[*ast.Ident]types.Object),
		Implicits: make(map[ast.Node]types.Object),
	}
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error:    func(error) {},
	}
	tpkg, _ := conf.Check(PkgPath, fset, syntax, info)

	return &packages.Package{
		ID:        PkgPath,
		Name:      syntax[0].Name.Name,
		PkgPath:   PkgPath,
		Fset:      fset,
		Syntax:    syntax,
		Types:     tpkg,
		TypesInfo: info,
	}
}

// Parse is like [Load] but without type information.
func Parse(t testing.TB, files map[string]string) *packages.Package {
	t.Helper()

	pkg := Load(t, files)
	pkg.Types = nil
	pkg.TypesInfo = nil
	return pkg
}
