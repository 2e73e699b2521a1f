// Package cfgpanicanalysis provides an analyzer which reports misuses of
// Cfgpanic directives. Template files are visible to the analyzer only when
// the "cfgpanic" build tag is set, for example with GOFLAGS=-tags=cfgpanic.
package cfgpanicanalysis

import (
	"errors"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"

	cfgpanicinternal "github.com/sublee/cfgpanic/internal/cfgpanic"
	"github.com/sublee/cfgpanic/internal/codefmt"
)

// Analyzer validates the usage of Cfgpanic in the package.
var Analyzer = &analysis.Analyzer{
	Name: "cfgpanic",
	Doc:  "linter for cfgpanic directives",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	pkg := &packages.Package{
		Name:      pass.Pkg.Name(),
		PkgPath:   pass.Pkg.Path(),
		Types:     pass.Pkg,
		Fset:      pass.Fset,
		Syntax:    pass.Files,
		TypesInfo: pass.TypesInfo,
	}

	cg, err := cfgpanicinternal.New(pkg, cfgpanicinternal.Options{})
	if err != nil {
		return nil, err
	}

	buildErr := cg.Build()
	return nil, report(pass, errors.Join(buildErr, errors.Join(cg.Warnings()...)))
}

// report reports every code error in err. Errors without a position are
// returned by the analyzer instead.
func report(pass *analysis.Pass, err error) error {
	codeErrs, rest := codefmt.CodeErrors(err)
	for _, codeErr := range codeErrs {
		pass.Report(analysis.Diagnostic{
			Pos:     codeErr.Pos(),
			End:     codeErr.End(),
			Message: codeErr.Unwrap().Error(),
		})
	}
	return errors.Join(rest...)
}
