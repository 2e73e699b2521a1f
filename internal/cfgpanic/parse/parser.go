package parse

import (
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/token"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"github.com/sublee/cfgpanic"
	"github.com/sublee/cfgpanic/internal/codefmt"
)

// Parser parses an AST of the underlying package to collect gated items.
type Parser struct{ pkg *packages.Package }

func (p *Parser) Pkg() *packages.Package { return p.pkg }

// New creates a new [Parser]. Type information is optional. Without it,
// imports used by generated code are detected by name only.
func New(pkg *packages.Package) (*Parser, error) {
	if pkg.Name == "" {
		return nil, fmt.Errorf("need pkg name")
	}
	if pkg.Fset == nil {
		return nil, fmt.Errorf("need pkg fset")
	}
	if pkg.Syntax == nil {
		return nil, fmt.Errorf("need pkg syntax")
	}
	return &Parser{pkg: pkg}, nil
}

// Template is a source file tagged with "//go:build cfgpanic".
type Template struct {
	File *ast.File

	// Name is the base name of the file.
	Name string

	// Constraint holds the conjuncts of the template build constraint other
	// than the cfgpanic tag, followed by the GOOS and GOARCH implied by the
	// file name. It is nil if there is nothing but the tag.
	Constraint constraint.Expr

	// Test is true for a "_test.go" template.
	Test bool

	// Gates are the gated items in source order.
	Gates []*Gate

	// Plain are the declarations without any gate, except imports.
	Plain []ast.Decl
}

// Gate is an item annotated with the gate directive.
type Gate struct {
	Directive Directive
	Predicate Predicate
	Item      Item
}

// TemplateGoFiles returns the Go files that have a "//go:build cfgpanic"
// constraint.
func (p *Parser) TemplateGoFiles() []*ast.File {
	var files []*ast.File
	for _, file := range p.Pkg().Syntax {
		if _, ok := buildConstraint(file); ok {
			files = append(files, file)
		}
	}
	return files
}

// ParseTemplates parses all template files of the package.
func (p *Parser) ParseTemplates() ([]*Template, error) {
	var errs error
	var tmpls []*Template
	for _, file := range p.TemplateGoFiles() {
		tmpl, err := p.ParseTemplate(file)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		tmpls = append(tmpls, tmpl)
	}
	return tmpls, errs
}

// ParseTemplate collects the gated items of a template file.
func (p *Parser) ParseTemplate(file *ast.File) (*Template, error) {
	comment, ok := buildConstraint(file)
	if !ok {
		return nil, codefmt.Errorf(p, codefmt.Pos(file.Package), "missing //go:build %s constraint", cfgpanic.Tag)
	}

	expr, _ := constraint.Parse(comment.Text)
	rest, ok := stripTag(expr, cfgpanic.Tag)
	if !ok {
		return nil, codefmt.Errorf(p, comment, "build constraint of template must be %q or a conjunction with it", cfgpanic.Tag)
	}

	name := filepath.Base(p.Pkg().Fset.File(file.Pos()).Name())
	implied, test := FileNameConstraint(name)
	tmpl := &Template{
		File:       file,
		Name:       name,
		Constraint: And(rest, implied),
		Test:       test,
	}

	// Gated file
	// ==========
	//
	//	//cfgpanic:gate foo
	//	package bar
	//
	// Every declaration in the file belongs to the gate.
	fileGate, err := p.findGate(file.Doc)
	if err != nil {
		return nil, err
	}
	if fileGate != nil {
		gate, err := p.newGate(*fileGate, &Mod{File: file, Items: p.ClassifyFile(file)})
		if err != nil {
			return nil, err
		}
		tmpl.Gates = append(tmpl.Gates, gate)
		return tmpl, nil
	}

	// Gated declarations
	// ==================
	//
	//	//cfgpanic:gate foo
	//	func Bar() {}
	var errs error
	claimed := make(map[*ast.FuncDecl]*Gate)
	gated := make(map[ast.Decl]*Gate)

	for _, decl := range file.Decls {
		d, err := p.findGate(docOf(decl))
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if d == nil {
			continue
		}

		gate, err := p.newGate(*d, p.Classify(decl, file))
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		gated[decl] = gate

		if impl, ok := gate.Item.(*Impl); ok {
			for _, m := range impl.Methods {
				claimed[m] = gate
			}
		}
	}

	for _, decl := range file.Decls {
		if gate, ok := gated[decl]; ok {
			if fn, ok := decl.(*ast.FuncDecl); ok {
				if owner, ok := claimed[fn]; ok {
					err := codefmt.Errorf(p, gate.Directive, "method %s is gated twice\n\talready gated with its type at %b", fn.Name.Name, owner.Directive)
					errs = errors.Join(errs, err)
					continue
				}
			}
			tmpl.Gates = append(tmpl.Gates, gate)
			continue
		}

		if fn, ok := decl.(*ast.FuncDecl); ok {
			if _, ok := claimed[fn]; ok {
				continue
			}
		}
		if gen, ok := decl.(*ast.GenDecl); ok && gen.Tok == token.IMPORT {
			continue
		}
		tmpl.Plain = append(tmpl.Plain, decl)
	}

	if errs != nil {
		return nil, errs
	}
	return tmpl, nil
}

// findGate finds the gate directive in a doc comment. It returns nil if
// there is no gate.
func (p *Parser) findGate(doc *ast.CommentGroup) (*Directive, error) {
	var found *Directive
	for _, d := range Directives(doc) {
		if d.Name != cfgpanic.DirectiveGate {
			continue
		}
		if found != nil {
			return nil, codefmt.Errorf(p, d, "duplicate //cfgpanic:gate\n\tprevious gate at %b", *found)
		}
		found = &d
	}
	return found, nil
}

func (p *Parser) newGate(d Directive, item Item) (*Gate, error) {
	pred, err := ParsePredicate(d.Value)
	if err != nil {
		return nil, codefmt.Errorf(p, d, "%s", err.Error())
	}
	return &Gate{Directive: d, Predicate: pred, Item: item}, nil
}

// buildConstraint finds the "//go:build" line of the file if it mentions the
// cfgpanic tag without negation. Generated files carry "!cfgpanic" and are
// not templates.
func buildConstraint(file *ast.File) (*ast.Comment, bool) {
	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}
		for _, comment := range group.List {
			if !constraint.IsGoBuild(comment.Text) {
				continue
			}
			expr, err := constraint.Parse(comment.Text)
			if err != nil {
				return nil, false
			}
			if hasPositiveTag(expr, cfgpanic.Tag) {
				return comment, true
			}
		}
	}
	return nil, false
}

// docOf returns the doc comment of a declaration.
func docOf(decl ast.Decl) *ast.CommentGroup {
	switch decl := decl.(type) {
	case *ast.FuncDecl:
		return decl.Doc
	case *ast.GenDecl:
		return decl.Doc
	}
	return nil
}
