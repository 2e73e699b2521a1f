// Package expand rewrites gated items into the declarations of the two
// generated files: the enabled file keeps the original bodies and the
// disabled file holds the stubs.
package expand

import (
	"go/ast"

	"golang.org/x/tools/go/packages"

	"github.com/sublee/cfgpanic/internal/cfgpanic/parse"
	"github.com/sublee/cfgpanic/internal/codefmt"
)

// DefaultNolint is appended to the doc comment of every stub. Stubs do not
// use their parameters.
const DefaultNolint = "//nolint:unparam,revive"

// Decl is a declaration to write in a generated file.
type Decl struct {
	// Doc holds the doc comment lines to write before the declaration. The
	// Doc field of Node is ignored.
	Doc []string

	// Node is the declaration in the template file.
	Node ast.Decl

	// Stub replaces the body of Node if it is not nil. Node is a
	// *ast.FuncDecl then. The stub has no valid positions.
	Stub *ast.BlockStmt
}

// Expansion is the result of expanding one gate.
type Expansion struct {
	// Enabled is written under the gate constraint.
	Enabled []Decl

	// Disabled is written under the negated gate constraint.
	Disabled []Decl

	// Skipped holds errors of nested items which are left as they are.
	Skipped []error

	// Warnings holds suspicious but accepted usages.
	Warnings []error
}

func (exp *Expansion) both(d Decl) {
	exp.Enabled = append(exp.Enabled, d)
	exp.Disabled = append(exp.Disabled, d)
}

func (exp *Expansion) merge(sub *Expansion) {
	exp.Enabled = append(exp.Enabled, sub.Enabled...)
	exp.Disabled = append(exp.Disabled, sub.Disabled...)
	exp.Skipped = append(exp.Skipped, sub.Skipped...)
	exp.Warnings = append(exp.Warnings, sub.Warnings...)
}

// Expander expands the item of one gate. An Expander shares nothing with
// other Expanders.
type Expander struct {
	pkg    *packages.Package
	gate   *parse.Gate
	nolint string
}

// Pkg returns the package of the template. Expander implements
// [codefmt.Pkger] by this method.
func (e *Expander) Pkg() *packages.Package { return e.pkg }

// New creates a new [Expander] for the gate. If nolint is empty,
// [DefaultNolint] is used.
func New(pkg *packages.Package, gate *parse.Gate, nolint string) *Expander {
	if nolint == "" {
		nolint = DefaultNolint
	}
	return &Expander{pkg: pkg, gate: gate, nolint: nolint}
}

// Expand expands the gated item. If the item cannot be gated, it returns an
// error and no declarations.
func (e *Expander) Expand() (*Expansion, error) {
	var exp Expansion
	if err := e.expandItem(e.gate.Item, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

// expandItem dispatches the item to its handler.
func (e *Expander) expandItem(item parse.Item, exp *Expansion) error {
	switch item := item.(type) {
	case *parse.Func:
		return e.expandFunc(item.Decl, exp)
	case *parse.Impl:
		return e.expandImpl(item, exp)
	case *parse.Mod:
		return e.expandMod(item, exp)
	case *parse.Unsupported:
		return codefmt.Errorf(e, item, "//cfgpanic:gate can only be used on functions, methods of defined types, and files, not %s", item.Kind)
	}
	panic("unexpected item")
}

// expandImpl expands every method of the type. The type declaration is kept
// in both files. A method which fails to expand fails the whole type.
func (e *Expander) expandImpl(impl *parse.Impl, exp *Expansion) error {
	var sub Expansion
	sub.both(e.unmodified(impl.Decl))

	for _, m := range impl.Methods {
		if err := e.expandFunc(m, &sub); err != nil {
			return err
		}
	}

	exp.merge(&sub)
	return nil
}

// expandMod expands every item in the file. An item which fails to expand is
// kept in both files as it is. The failure does not stop its siblings.
func (e *Expander) expandMod(mod *parse.Mod, exp *Expansion) error {
	if !mod.Inline() {
		// The gated package is declared somewhere else. There is nothing to
		// expand here.
		return nil
	}

	for _, item := range mod.Items {
		var sub Expansion
		if err := e.expandItem(item, &sub); err != nil {
			exp.Skipped = append(exp.Skipped, err)
			for _, decl := range parse.Decls(item) {
				exp.both(e.unmodified(decl))
			}
			continue
		}
		exp.merge(&sub)
	}
	return nil
}

// unmodified keeps the declaration as it is except Cfgpanic directives.
func (e *Expander) unmodified(decl ast.Decl) Decl {
	return Decl{Doc: parse.DocLines(docOf(decl)), Node: decl}
}

func docOf(decl ast.Decl) *ast.CommentGroup {
	switch decl := decl.(type) {
	case *ast.FuncDecl:
		return decl.Doc
	case *ast.GenDecl:
		return decl.Doc
	}
	return nil
}
