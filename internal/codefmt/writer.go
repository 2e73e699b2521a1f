package codefmt

import (
	"cmp"
	"go/ast"
	"go/format"
	"go/printer"
	"go/types"
	"io"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"
)

// Writer is a writer for generated code. It records the imports of the
// source file that the written code refers to.
type Writer struct {
	w       io.Writer
	pkg     *packages.Package
	fmt     Formatter
	file    *ast.File
	imports map[string]Import
}

// NewWriter creates a new [Writer]. Imports are resolved against file, the
// source file where the written declarations come from.
func NewWriter(w io.Writer, pkg *packages.Package, file *ast.File) *Writer {
	return &Writer{
		w:       w,
		pkg:     pkg,
		fmt:     New(pkg),
		file:    file,
		imports: make(map[string]Import),
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// Printf writes a formatted string to the underlying writer using
// [Formatter.Fprintf].
func (w *Writer) Printf(format string, args ...any) (int, error) {
	return w.fmt.Fprintf(w.w, format, args...)
}

// PrintNode writes the node in gofmt style with the comments inside its range
// and records the imports it refers to. The doc comment of a declaration is
// not printed; write it with [Writer.PrintDoc].
func (w *Writer) PrintNode(node ast.Node, comments []*ast.CommentGroup) error {
	w.ImportAST(node)

	var n any = node
	if comments != nil {
		n = &printer.CommentedNode{Node: node, Comments: comments}
	}
	return format.Node(w.w, w.pkg.Fset, n)
}

// PrintDoc writes comment lines as they are. Each line must start with "//".
func (w *Writer) PrintDoc(lines []string) {
	for _, line := range lines {
		_, _ = io.WriteString(w.w, line+"\n")
	}
}

// Import is an import of the source file.
type Import struct {
	// Path is the import path.
	Path string

	// Name is the explicit import name. It is empty if the import has no
	// alias.
	Name string
}

// Imports returns the collected imports sorted by path.
func (w *Writer) Imports() []Import {
	return slices.SortedFunc(maps.Values(w.imports), func(a, b Import) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Name, b.Name))
	})
}

// ImportBlank records every blank import of the source file. Blank imports
// are kept in every generated file for their side effects.
func (w *Writer) ImportBlank() {
	for _, spec := range w.file.Imports {
		if spec.Name != nil && spec.Name.Name == "_" {
			w.importSpec(spec)
		}
	}
}

// ImportAST records imports of the source file used in the given AST node.
// Identifiers resolved by the type checker are looked up by their objects.
// Others, such as identifiers in generated nodes, are matched by import
// name.
func (w *Writer) ImportAST(node ast.Node) {
	astutil.Apply(node, func(c *astutil.Cursor) bool {
		switch node := c.Node().(type) {
		case *ast.SelectorExpr:
			id, ok := node.X.(*ast.Ident)
			if !ok {
				return true
			}
			if pkg := w.usedPackage(id); pkg != "" {
				w.importPath(pkg)
				return false
			}
			if w.resolved(id) {
				return true
			}
			for _, spec := range w.file.Imports {
				if importName(w.pkg, spec) == id.Name {
					w.importSpec(spec)
					return false
				}
			}

		case *ast.Ident:
			// Identifiers from dot imports
			if pkg := w.usedPackage(node); pkg != "" {
				w.importPath(pkg)
			}
		}
		return true
	}, nil)
}

// usedPackage returns the import path of the package that id refers to from
// outside of the current package.
func (w *Writer) usedPackage(id *ast.Ident) string {
	if w.pkg.TypesInfo == nil {
		return ""
	}

	obj := w.pkg.TypesInfo.Uses[id]
	if obj == nil {
		return ""
	}
	if pkgName, ok := obj.(*types.PkgName); ok {
		return pkgName.Imported().Path()
	}

	pkg := obj.Pkg()
	if pkg == nil || pkg.Path() == w.pkg.PkgPath || obj.Parent() != pkg.Scope() {
		return ""
	}
	return pkg.Path()
}

// resolved reports whether the type checker knows the identifier.
func (w *Writer) resolved(id *ast.Ident) bool {
	if w.pkg.TypesInfo == nil {
		return false
	}
	return w.pkg.TypesInfo.Uses[id] != nil || w.pkg.TypesInfo.Defs[id] != nil
}

func (w *Writer) importPath(path string) {
	for _, spec := range w.file.Imports {
		if p, _ := strconv.Unquote(spec.Path.Value); p == path {
			w.importSpec(spec)
			return
		}
	}
}

func (w *Writer) importSpec(spec *ast.ImportSpec) {
	p, _ := strconv.Unquote(spec.Path.Value)
	imp := Import{Path: p}
	if spec.Name != nil {
		imp.Name = spec.Name.Name
	}
	w.imports[imp.Path+" "+imp.Name] = imp
}

// importName returns the name that the import spec declares in the file.
func importName(pkg *packages.Package, spec *ast.ImportSpec) string {
	if spec.Name != nil {
		return spec.Name.Name
	}
	if pkg != nil && pkg.TypesInfo != nil {
		if obj, ok := pkg.TypesInfo.Implicits[spec].(*types.PkgName); ok {
			return obj.Name()
		}
	}

	// Guess by the last path element: "gopkg.in/yaml.v3" => "yaml",
	// "github.com/Masterminds/semver/v3" => "semver".
	p, _ := strconv.Unquote(spec.Path.Value)
	name := path.Base(p)
	if isMajorVersion(name) {
		name = path.Base(path.Dir(p))
	}
	if i := strings.IndexByte(name, '.'); i != -1 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
