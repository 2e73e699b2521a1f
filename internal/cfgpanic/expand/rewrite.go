package expand

import (
	"go/ast"
	"go/parser"
	"go/token"
	"slices"
	"strconv"
	"strings"

	"github.com/sublee/cfgpanic"
	"github.com/sublee/cfgpanic/internal/cfgpanic/parse"
	"github.com/sublee/cfgpanic/internal/codefmt"
	"github.com/sublee/cfgpanic/internal/lcs"
	"github.com/sublee/cfgpanic/pkg/cfgpanicerrors"
)

// Func describes a function to rewrite.
type Func struct {
	Decl *ast.FuncDecl

	// Name is the function name. Methods are qualified by the receiver type
	// name, such as "Int.Add".
	Name string

	// NoSplit is true if the function is marked with //go:nosplit.
	NoSplit bool

	// Doc holds the doc comment lines without Cfgpanic directives.
	Doc []string

	// Results are the placeholder result types given by //cfgpanic:return.
	// It is nil if there is no such directive.
	Results *ast.FieldList
}

// expandFunc writes the original function into the enabled file and its stub
// into the disabled file.
func (e *Expander) expandFunc(decl *ast.FuncDecl, exp *Expansion) error {
	if decl.Body == nil {
		// Implemented outside of Go, for example in assembly. The declaration
		// is valid in both files.
		exp.both(e.unmodified(decl))
		return nil
	}

	fn, warnings, err := e.describe(decl)
	if err != nil {
		return err
	}

	exp.Enabled = append(exp.Enabled, Decl{Doc: fn.Doc, Node: decl})
	exp.Disabled = append(exp.Disabled, Decl{
		Doc:  append(slices.Clone(fn.Doc), e.nolint),
		Node: decl,
		Stub: e.stubBody(fn),
	})
	exp.Warnings = append(exp.Warnings, warnings...)
	return nil
}

// describe extracts the function descriptor. Cfgpanic directives are
// consumed here. Other comment lines are kept in their order.
func (e *Expander) describe(decl *ast.FuncDecl) (*Func, []error, error) {
	fn := &Func{Decl: decl, Name: decl.Name.Name}
	if recv, ok := parse.RecvTypeName(decl); ok {
		fn.Name = recv + "." + fn.Name
	}

	var warnings []error
	var prevReturn *parse.Directive

	if decl.Doc != nil {
		for _, c := range decl.Doc.List {
			if c == e.gate.Directive.Comment {
				continue
			}
			if c.Text == "//go:nosplit" {
				fn.NoSplit = true
			}

			d, ok := parse.ParseDirective(c)
			if !ok {
				fn.Doc = append(fn.Doc, c.Text)
				continue
			}

			switch d.Name {
			case cfgpanic.DirectiveReturn:
				results, err := e.parseReturn(d)
				if err != nil {
					return nil, nil, err
				}
				if prevReturn != nil {
					// The last one wins. But it is probably a mistake.
					warning := codefmt.Errorf(e, d, "duplicate //cfgpanic:return overrides the previous one at %b", *prevReturn)
					warnings = append(warnings, warning)
				}
				fn.Results = results
				prevReturn = &d

			case cfgpanic.DirectiveGate:
				return nil, nil, codefmt.Errorf(e, d, "nested //cfgpanic:gate in %s gated at %b", fn.Name, e.gate.Directive)

			default:
				if hint, ok := lcs.Closest(d.Name, cfgpanic.Directives); ok {
					return nil, nil, codefmt.Errorf(e, d, "unknown directive //cfgpanic:%s, did you mean //cfgpanic:%s?", d.Name, hint)
				}
				return nil, nil, codefmt.Errorf(e, d, "unknown directive //cfgpanic:%s", d.Name)
			}
		}
	}
	fn.Doc = parse.TrimDoc(fn.Doc)

	return fn, warnings, nil
}

// parseReturn parses the value of //cfgpanic:return as a list of result
// types.
//
//	//cfgpanic:return "iter.Seq[int]"
//	//cfgpanic:return "io.Reader, error"
//
// A line comment may follow the string literal.
func (e *Expander) parseReturn(d parse.Directive) (*ast.FieldList, error) {
	lit, err := strconv.QuotedPrefix(d.Value)
	if err != nil || lit[0] == '\'' {
		return nil, codefmt.Errorf(e, d, "expected a string literal")
	}
	if rest := strings.TrimSpace(d.Value[len(lit):]); rest != "" && !strings.HasPrefix(rest, "//") {
		return nil, codefmt.Errorf(e, d, "unexpected %q after the string literal", rest)
	}
	s, _ := strconv.Unquote(lit)

	expr, err := parser.ParseExpr("func() (" + s + ")")
	if err != nil {
		return nil, codefmt.Errorf(e, d, "invalid placeholder type %q", s)
	}
	ft, ok := expr.(*ast.FuncType)
	if !ok || ft.Results == nil || len(ft.Results.List) == 0 {
		return nil, codefmt.Errorf(e, d, "invalid placeholder type %q", s)
	}
	for _, field := range ft.Results.List {
		if len(field.Names) != 0 {
			return nil, codefmt.Errorf(e, d, "placeholder type %q must not name the result %c", s, field.Names[0])
		}
	}
	return ft.Results, nil
}

// stubBody builds the body of the disabled function.
//
//	{ panic("function 'F' unimplemented unless //go:build P is activated") }
//
// With placeholder results, the panic is the value of a local variable of the
// placeholder type which is returned explicitly:
//
//	{
//		ret := func() T { panic("...") }()
//		return ret
//	}
func (e *Expander) stubBody(fn *Func) *ast.BlockStmt {
	msg := cfgpanicerrors.Message(fn.Name, e.gate.Predicate.Text)
	if fn.NoSplit {
		msg = cfgpanicerrors.Bare
	}
	panicStmt := &ast.ExprStmt{X: &ast.CallExpr{
		Fun:  ast.NewIdent("panic"),
		Args: []ast.Expr{&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(msg)}},
	}}

	if fn.Results == nil {
		return &ast.BlockStmt{List: []ast.Stmt{panicStmt}}
	}

	ns := codefmt.NewNS(identNames(fn.Decl, fn.Results)...)
	var vars []ast.Expr
	for range fn.Results.List {
		vars = append(vars, ast.NewIdent(ns.Name("ret", "ret")))
	}

	return &ast.BlockStmt{List: []ast.Stmt{
		&ast.AssignStmt{
			Lhs: vars,
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.CallExpr{Fun: &ast.FuncLit{
				Type: &ast.FuncType{Params: &ast.FieldList{}, Results: fn.Results},
				Body: &ast.BlockStmt{List: []ast.Stmt{panicStmt}},
			}}},
		},
		&ast.ReturnStmt{Results: vars},
	}}
}

// identNames collects identifier names in the signature of the function and
// in the placeholder results. Local variables of a stub must not shadow any
// of them.
func identNames(decl *ast.FuncDecl, results *ast.FieldList) []string {
	nodes := []ast.Node{decl.Name, decl.Type, results}
	if decl.Recv != nil {
		nodes = append(nodes, decl.Recv)
	}

	var names []string
	for _, node := range nodes {
		ast.Inspect(node, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				names = append(names, id.Name)
			}
			return true
		})
	}
	return names
}
