package parse

import (
	"go/ast"
	"go/token"
)

// Item is a gated declaration. It is one of [*Func], [*Impl], [*Mod], and
// [*Unsupported].
type Item interface {
	ast.Node
	item()
}

// Func is a function or a method.
type Func struct {
	Decl *ast.FuncDecl
}

// Impl is a defined type with the methods declared in the same file. The
// type declaration has exactly one spec.
type Impl struct {
	Decl    *ast.GenDecl
	Spec    *ast.TypeSpec
	Methods []*ast.FuncDecl
}

// Mod is a gated file or a gated import declaration. A gated import has no
// items because its declarations live in another package.
type Mod struct {
	File  *ast.File
	Decl  *ast.GenDecl
	Items []Item
}

// Unsupported is a declaration which cannot be gated.
type Unsupported struct {
	Decl ast.Decl

	// Kind describes the declaration for error messages.
	Kind string
}

func (*Func) item()        {}
func (*Impl) item()        {}
func (*Mod) item()         {}
func (*Unsupported) item() {}

func (f *Func) Pos() token.Pos { return f.Decl.Pos() }
func (f *Func) End() token.Pos { return f.Decl.End() }

func (i *Impl) Pos() token.Pos { return i.Decl.Pos() }
func (i *Impl) End() token.Pos { return i.Decl.End() }

func (m *Mod) Pos() token.Pos {
	if m.Decl != nil {
		return m.Decl.Pos()
	}
	return m.File.Package
}

func (m *Mod) End() token.Pos {
	if m.Decl != nil {
		return m.Decl.End()
	}
	return m.File.Name.End()
}

func (u *Unsupported) Pos() token.Pos { return u.Decl.Pos() }
func (u *Unsupported) End() token.Pos { return u.Decl.End() }

// Inline reports whether the module has its declarations in place.
func (m *Mod) Inline() bool { return m.Decl == nil }

// Decls returns the declarations of the item as they are in the source.
func Decls(item Item) []ast.Decl {
	switch item := item.(type) {
	case *Func:
		return []ast.Decl{item.Decl}
	case *Impl:
		decls := []ast.Decl{item.Decl}
		for _, m := range item.Methods {
			decls = append(decls, m)
		}
		return decls
	case *Mod:
		var decls []ast.Decl
		for _, item := range item.Items {
			decls = append(decls, Decls(item)...)
		}
		return decls
	case *Unsupported:
		return []ast.Decl{item.Decl}
	}
	return nil
}

// Classify determines the kind of a declaration in the file.
func (p *Parser) Classify(decl ast.Decl, file *ast.File) Item {
	switch decl := decl.(type) {
	case *ast.FuncDecl:
		return &Func{Decl: decl}

	case *ast.GenDecl:
		switch decl.Tok {
		case token.IMPORT:
			return &Mod{File: file, Decl: decl}
		case token.CONST:
			return &Unsupported{Decl: decl, Kind: "constants"}
		case token.VAR:
			return &Unsupported{Decl: decl, Kind: "variables"}
		case token.TYPE:
			if len(decl.Specs) != 1 {
				return &Unsupported{Decl: decl, Kind: "grouped type declarations"}
			}
			spec := decl.Specs[0].(*ast.TypeSpec)
			if spec.Assign.IsValid() {
				return &Unsupported{Decl: decl, Kind: "type aliases"}
			}
			if _, ok := spec.Type.(*ast.InterfaceType); ok {
				return &Unsupported{Decl: decl, Kind: "interface types"}
			}
			return &Impl{Decl: decl, Spec: spec, Methods: methodsOf(file, spec.Name.Name)}
		}
	}
	return &Unsupported{Decl: decl, Kind: "this declaration"}
}

// ClassifyFile classifies all declarations of the file except imports.
// Methods are grouped with their type when the type is an [Impl] in the same
// file.
func (p *Parser) ClassifyFile(file *ast.File) []Item {
	claimed := make(map[*ast.FuncDecl]bool)
	classified := make(map[ast.Decl]Item)
	for _, decl := range file.Decls {
		if _, ok := decl.(*ast.FuncDecl); ok {
			continue
		}

		item := p.Classify(decl, file)
		if impl, ok := item.(*Impl); ok {
			for _, m := range impl.Methods {
				claimed[m] = true
			}
		}
		classified[decl] = item
	}

	var items []Item
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			if !claimed[fn] {
				items = append(items, &Func{Decl: fn})
			}
			continue
		}

		if _, ok := classified[decl].(*Mod); ok {
			// Imports are written by the generator on demand.
			continue
		}
		items = append(items, classified[decl])
	}
	return items
}

// methodsOf collects methods of the named type declared in the file.
func methodsOf(file *ast.File, typeName string) []*ast.FuncDecl {
	var methods []*ast.FuncDecl
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		if id, ok := RecvTypeName(fn); ok && id == typeName {
			methods = append(methods, fn)
		}
	}
	return methods
}

// RecvTypeName returns the base type name of the method receiver.
//
//	func (t T) M()
//	        ^
//	func (t *T[K, V]) M()
//	         ^
func RecvTypeName(fn *ast.FuncDecl) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return "", false
	}

	expr := fn.Recv.List[0].Type
	for {
		switch x := ast.Unparen(expr).(type) {
		case *ast.StarExpr:
			expr = x.X
		case *ast.IndexExpr:
			expr = x.X
		case *ast.IndexListExpr:
			expr = x.X
		case *ast.Ident:
			return x.Name, true
		default:
			return "", false
		}
	}
}
