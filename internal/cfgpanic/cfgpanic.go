package cfgpanicinternal

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/format"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/sublee/cfgpanic"
	"github.com/sublee/cfgpanic/internal/cfgpanic/expand"
	"github.com/sublee/cfgpanic/internal/cfgpanic/parse"
	"github.com/sublee/cfgpanic/internal/codefmt"
)

// Options configures code generation.
type Options struct {
	// Suffix is inserted between the template name and the gate name in
	// generated file names. The default is "cfgpanic".
	Suffix string

	// Nolint is appended to the doc comment of every stub. The default is
	// [expand.DefaultNolint].
	Nolint string

	// LegacyBuildLines adds "// +build" lines for Go 1.16 and older.
	LegacyBuildLines bool

	// Logger receives debug logs. It may be nil.
	Logger *zap.Logger
}

// Cfgpanic generates gated files for the templates of a package. Call
// [Build] and then [Generate] to get the generated code. All potential
// errors are returned by [Build]. Once [Build] succeeds, [Generate] never
// fails.
type Cfgpanic struct {
	p    *parse.Parser
	opts Options
	log  *zap.Logger

	tmpls    []*parse.Template
	groups   map[*parse.Template]*linkedhashmap.Map // predicate key -> *group
	warnings []error
}

// group collects the expansions of the gates sharing a constraint in a
// template.
type group struct {
	pred     parse.Predicate
	enabled  []expand.Decl
	disabled []expand.Decl
}

// New creates a new [Cfgpanic] for the given package. The package must have
// its Syntax. TypesInfo is optional but makes import detection precise.
func New(pkg *packages.Package, opts Options) (*Cfgpanic, error) {
	parser, err := parse.New(pkg)
	if err != nil {
		return nil, err
	}

	if opts.Suffix == "" {
		opts.Suffix = cfgpanic.Tag
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Cfgpanic{
		p:      parser,
		opts:   opts,
		log:    log.With(zap.String("pkg", pkg.PkgPath)),
		groups: make(map[*parse.Template]*linkedhashmap.Map),
	}, nil
}

// Warnings returns accepted but suspicious usages found by [Build].
func (cg *Cfgpanic) Warnings() []error { return cg.warnings }

// Build parses the templates and expands every gate. All potential errors
// are returned by this method. It must be called before [Generate].
func (cg *Cfgpanic) Build() error {
	tmpls, errs := cg.p.ParseTemplates()
	cg.tmpls = tmpls

	for _, tmpl := range tmpls {
		groups := linkedhashmap.New()
		cg.groups[tmpl] = groups

		for _, decl := range tmpl.Plain {
			for _, d := range parse.Directives(docOf(decl)) {
				warning := codefmt.Errorf(cg.p, d, "//cfgpanic:%s without //cfgpanic:gate is ignored", d.Name)
				cg.warnings = append(cg.warnings, warning)
			}
		}

		for _, gate := range tmpl.Gates {
			exp, err := expand.New(cg.p.Pkg(), gate, cg.opts.Nolint).Expand()
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}

			for _, err := range exp.Skipped {
				cg.log.Debug("left as it is", zap.String("template", tmpl.Name), zap.Error(err))
			}
			cg.warnings = append(cg.warnings, exp.Warnings...)

			key := gate.Predicate.Key()
			g, ok := groups.Get(key)
			if !ok {
				g = &group{pred: gate.Predicate}
				groups.Put(key, g)
			}
			g.(*group).enabled = append(g.(*group).enabled, exp.Enabled...)
			g.(*group).disabled = append(g.(*group).disabled, exp.Disabled...)
		}
	}

	return errs
}

// Generate generates the gated files. It returns a map of file paths to
// their contents. Paths are in the directory of each template. It must be
// called after [Build] succeeds.
func (cg *Cfgpanic) Generate() map[string][]byte {
	outs := make(map[string][]byte)

	for _, tmpl := range cg.tmpls {
		dir := filepath.Dir(cg.p.Pkg().Fset.File(tmpl.File.Pos()).Name())
		// Outputs of a test template are test files too.
		base, ext := strings.TrimSuffix(tmpl.Name, ".go"), ".go"
		if tmpl.Test {
			base, ext = strings.TrimSuffix(base, "_test"), "_test.go"
		}
		notTag := parse.Not(&constraint.TagExpr{Tag: cfgpanic.Tag})

		if len(tmpl.Plain) != 0 {
			var decls []expand.Decl
			for _, decl := range tmpl.Plain {
				decls = append(decls, expand.Decl{Doc: parse.DocLines(docOf(decl)), Node: decl})
			}

			name := fmt.Sprintf("%s_%s%s", base, cg.opts.Suffix, ext)
			outs[filepath.Join(dir, name)] = cg.frameCode(tmpl, parse.And(notTag, tmpl.Constraint), decls)
		}

		ns := codefmt.NewNS()
		groups := cg.groups[tmpl]
		for _, v := range groups.Values() {
			g := v.(*group)
			if len(g.enabled) == 0 && len(g.disabled) == 0 {
				// Only gated imports. Nothing to write.
				continue
			}
			slug := ns.Name(g.pred.Text, "gate")

			on := fmt.Sprintf("%s_%s_%s_on%s", base, cg.opts.Suffix, slug, ext)
			off := fmt.Sprintf("%s_%s_%s_off%s", base, cg.opts.Suffix, slug, ext)
			outs[filepath.Join(dir, on)] = cg.frameCode(tmpl, parse.And(notTag, tmpl.Constraint, g.pred.Enabled()), g.enabled)
			outs[filepath.Join(dir, off)] = cg.frameCode(tmpl, parse.And(notTag, tmpl.Constraint, g.pred.Disabled()), g.disabled)
		}
	}

	return outs
}

// frameCode writes a complete Go file with the header, the package clause,
// the imports, and the declarations.
func (cg *Cfgpanic) frameCode(tmpl *parse.Template, expr constraint.Expr, decls []expand.Decl) []byte {
	var body bytes.Buffer
	w := codefmt.NewWriter(&body, cg.p.Pkg(), tmpl.File)
	w.ImportBlank()
	for _, d := range decls {
		cg.writeDecl(w, tmpl.File, d)
		_, _ = w.Printf("\n\n")
	}

	versionSuffix := ""
	if Version != "" {
		versionSuffix = "@" + Version
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%s from %s. DO NOT EDIT.\n\n", GeneratedPrefix, versionSuffix, tmpl.Name)
	fmt.Fprintf(&buf, "//go:build %s\n", expr)
	if cg.opts.LegacyBuildLines {
		lines, err := constraint.PlusBuildLines(expr)
		if err == nil {
			for _, line := range lines {
				fmt.Fprintf(&buf, "%s\n", line)
			}
		}
	}
	fmt.Fprintf(&buf, "\npackage %s\n\n", cg.p.Pkg().Name)

	switch imports := w.Imports(); len(imports) {
	case 0:
	case 1:
		fmt.Fprintf(&buf, "import %s\n\n", importLine(imports[0]))
	default:
		fmt.Fprintf(&buf, "import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&buf, "%s\n", importLine(imp))
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	_, _ = buf.ReadFrom(&body)
	code := buf.Bytes()

	// Apply gofmt if succeeded
	if fmtCode, err := format.Source(code); err == nil {
		code = fmtCode
	} else {
		cg.log.Debug("gofmt failed", zap.String("template", tmpl.Name), zap.Error(err))
	}
	return code
}

// writeDecl writes a declaration with its doc comment. A stub is written as
// the signature of the original function followed by the stub body.
func (cg *Cfgpanic) writeDecl(w *codefmt.Writer, file *ast.File, d expand.Decl) {
	w.PrintDoc(d.Doc)

	if d.Stub != nil {
		fn := *d.Node.(*ast.FuncDecl)
		fn.Doc = nil
		fn.Body = nil
		_ = w.PrintNode(&fn, nil)
		_, _ = w.Printf(" ")

		// The stub has no positions in the template. Print it with an empty
		// file set so that the printer does not look up template lines.
		w.ImportAST(d.Stub)
		_ = format.Node(w, token.NewFileSet(), d.Stub)
		return
	}

	switch decl := d.Node.(type) {
	case *ast.FuncDecl:
		fn := *decl
		fn.Doc = nil
		_ = w.PrintNode(&fn, file.Comments)
	case *ast.GenDecl:
		gen := *decl
		gen.Doc = nil
		_ = w.PrintNode(&gen, file.Comments)
	default:
		_ = w.PrintNode(decl, file.Comments)
	}
}

func importLine(imp codefmt.Import) string {
	if imp.Name != "" {
		return fmt.Sprintf("%s %q", imp.Name, imp.Path)
	}
	return fmt.Sprintf("%q", imp.Path)
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
