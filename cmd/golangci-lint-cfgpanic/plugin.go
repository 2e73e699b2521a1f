// golangcilintcfgpanic package provides a plugin for golangci-lint to
// integrate the Cfgpanic analyzer. To build a custom golangci-lint binary with
// this plugin, use the following command at this package's directory:
//
//	golangci-lint custom
//
// Template files are linted only with the "cfgpanic" build tag:
//
//	run:
//	  build-tags:
//	    - cfgpanic
package golangcilintcfgpanic

import (
	"github.com/golangci/plugin-module-register/register"
	"golang.org/x/tools/go/analysis"

	"github.com/sublee/cfgpanic/pkg/cfgpanicanalysis"
)

func init() {
	register.Plugin("cfgpanic", New)
}

func New(settings any) (register.LinterPlugin, error) {
	return CfgpanicLinter{}, nil
}

type CfgpanicLinter struct{}

func (CfgpanicLinter) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	return []*analysis.Analyzer{cfgpanicanalysis.Analyzer}, nil
}

func (CfgpanicLinter) GetLoadMode() string {
	return register.LoadModeTypesInfo
}
