package cfgpanic_test

import (
	"bytes"
	"errors"
	"fmt"
	"go/build"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"

	cfgpanicinternal "github.com/sublee/cfgpanic/internal/cfgpanic"
	"github.com/sublee/cfgpanic/pkg/cfgpanicanalysis"
)

// featureTag is the build tag which satisfies the gates of the testdata
// programs.
const featureTag = "feature"

// TestAnalysis tests parsing and building errors using the Go analysis
// protocol. In this test, Cfgpanic errors will be reported as analysis
// errors. "// want `REGEXP`" comments in the fixture source files are used to
// check for expected analysis errors.
//
// The directory structure of testdata for subtests is as follows:
//
//	testdata/
//	└── analysis/
//	    ├── pkg1/
//	    │   └── *.go // with want comments
//	    └── pkg2/
//	        └── *.go // with want comments
func TestAnalysis(t *testing.T) {
	ents, err := os.ReadDir(filepath.FromSlash("testdata/analysis"))
	require.NoError(t, err)

	t.Setenv("GOFLAGS", "-tags=cfgpanic")

	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}

		t.Run(ent.Name(), func(t *testing.T) {
			t.Parallel()

			defer func() {
				if t.Failed() {
					t.Logf("\n\tReproduce:\tgo run ./cmd/cfgpanic ./testdata/analysis/%s", ent.Name())
				}
			}()

			analysistest.Run(t, "", cfgpanicanalysis.Analyzer, "./testdata/analysis/"+ent.Name())
		})
	}
}

// TestPrograms tests programs in the testdata directory. Each program is
// generated, and then run twice: with the "feature" build tag and without
// it.
//
// The directory structure of testdata for subtests is as follows:
//
//	testdata/
//	└── program/
//	    ├── program1/
//	    │   ├── main_pkg.txt --- If main_pkg.txt is not present, "main" will be used as the default package name.
//	    │   ├── main/
//	    │   │   ├── main.go
//	    │   │   └── tmpl.go --- //go:build cfgpanic
//	    │   └── want/
//	    │       ├── enabled_output.txt
//	    │       └── disabled_output.txt
//	    └── program2/
//	        ├── main/
//	        │   └── main.go
//	        └── want/
//	            └── cfgpanic_error.txt
func TestPrograms(t *testing.T) {
	// NOTE: Code snippets were stolen from Wire.
	ents, err := os.ReadDir(filepath.FromSlash("testdata/program"))
	require.NoError(t, err)

	cfgpanicGo, err := os.ReadFile("cfgpanic.go")
	require.NoError(t, err)
	cfgpanicErrorsGo, err := os.ReadFile(filepath.FromSlash("pkg/cfgpanicerrors/errors.go"))
	require.NoError(t, err)

	var tests []*programTest
	for _, ent := range ents {
		name := ent.Name()
		if !ent.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		test, err := newProgramTest(name, cfgpanicGo, cfgpanicErrorsGo)
		if err != nil {
			t.Error(err)
			continue
		}

		tests = append(tests, test)
	}

	for _, test := range tests {
		t.Run(test.Name(), test.Test())
	}
}

// programTest is a test case for a program. It executes Cfgpanic for the
// program and runs the program with generated code to check the output.
type programTest struct {
	name    string
	mainPkg string
	files   map[string][]byte
	want    struct {
		EnabledOutput  string
		DisabledOutput string
		CfgpanicError  string
	}
}

func (test *programTest) Name() string {
	return test.name
}

func (test *programTest) PkgPath() string {
	return fmt.Sprintf("example.com/%s", test.name)
}

func (test *programTest) ProgramPath() string {
	return fmt.Sprintf("%s/%s", test.PkgPath(), test.mainPkg)
}

// newProgramTest creates a new program test case.
func newProgramTest(name string, cfgpanicGo, cfgpanicErrorsGo []byte) (*programTest, error) {
	root := filepath.Join(filepath.FromSlash("testdata/program"), name)
	test := programTest{
		name:  name,
		files: make(map[string][]byte),
	}

	// mainPkg
	mainPkg, err := os.ReadFile(filepath.Join(root, "main_pkg.txt"))
	if errors.Is(err, os.ErrNotExist) {
		mainPkg = []byte("main")
	} else if err != nil {
		return nil, fmt.Errorf("load test case %s: %v", name, err)
	}
	test.mainPkg = string(bytes.TrimSpace(mainPkg))

	// want
	enabledOutput, _ := os.ReadFile(filepath.Join(root, "want", "enabled_output.txt"))
	disabledOutput, _ := os.ReadFile(filepath.Join(root, "want", "disabled_output.txt"))
	cfgpanicError, _ := os.ReadFile(filepath.Join(root, "want", "cfgpanic_error.txt"))
	test.want.EnabledOutput = string(bytes.TrimSpace(enabledOutput))
	test.want.DisabledOutput = string(bytes.TrimSpace(disabledOutput))
	test.want.CfgpanicError = string(bytes.TrimSpace(cfgpanicError))

	if test.want.EnabledOutput == "" && test.want.DisabledOutput == "" && test.want.CfgpanicError == "" {
		return nil, fmt.Errorf("load test case %s: does not want anything", name)
	}

	// files
	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Bubble up I/O errors
			return err
		}

		if info.IsDir() {
			// Skip directories
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			panic(err)
		}

		if !info.Mode().IsRegular() || filepath.Ext(path) != ".go" {
			// Skip non-Go files
			return nil
		}

		goCode, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if bytes.HasPrefix(goCode, []byte(cfgpanicinternal.GeneratedPrefix)) {
			// Skip generated files, they might be existed for debugging
			// purposes.
			return nil
		}
		test.files[test.PkgPath()+"/"+filepath.ToSlash(rel)] = goCode
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load test case %s: %v", name, err)
	}

	test.files["github.com/sublee/cfgpanic/cfgpanic.go"] = cfgpanicGo
	test.files["github.com/sublee/cfgpanic/pkg/cfgpanicerrors/errors.go"] = cfgpanicErrorsGo
	return &test, nil
}

// materialize copies the program code and the runtime helpers of Cfgpanic
// into the given GOPATH.
func (test *programTest) materialize(gopath string) error {
	// Remove leftovers of the previous run.
	if err := os.RemoveAll(gopath); err != nil {
		return fmt.Errorf("clean %s: %w", gopath, err)
	}

	for name, content := range test.files {
		dst := filepath.Join(gopath, "src", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
			return fmt.Errorf("mkdir %s: %w", name, err)
		}
		if err := os.WriteFile(dst, content, 0o666); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	// Write go.mod file for github.com/sublee/cfgpanic
	cfgpanicGomodPath := filepath.Join(gopath, "src", "github.com", "sublee", "cfgpanic", "go.mod")
	cfgpanicGomod := `
	module github.com/sublee/cfgpanic
	go 1.25.0`
	if err := os.WriteFile(cfgpanicGomodPath, []byte(cfgpanicGomod), 0o666); err != nil {
		return fmt.Errorf("write github.com/sublee/cfgpanic/go.mod: %w", err)
	}

	// Write go.mod file for example.com/NAME
	testGomodPath := filepath.Join(gopath, "src", filepath.FromSlash(test.PkgPath()), "go.mod")
	testGomod := fmt.Sprintf(`
	module %s
	go 1.25.0
	require github.com/sublee/cfgpanic v0.0.0
	replace github.com/sublee/cfgpanic => %s
	`, test.PkgPath(), filepath.Join(gopath, filepath.FromSlash("src/github.com/sublee/cfgpanic")))
	if err := os.WriteFile(testGomodPath, []byte(testGomod), 0o666); err != nil {
		return fmt.Errorf("write %s/go.mod: %w", test.PkgPath(), err)
	}

	return nil
}

// Test returns a test function for the program test. It runs Cfgpanic for
// the program and then checks its error or output messages.
func (test *programTest) Test() func(*testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		defer func() {
			if t.Failed() {
				t.Logf("\n\tReproduce:\tgo run ./cmd/cfgpanic ./testdata/program/%s/...", test.Name())
			}
		}()

		// Materialize in a temporary directory
		gopath := filepath.Join(os.TempDir(), "cfgpanic_test_"+test.Name())
		require.NoError(t, test.materialize(gopath), "Materialization failed")

		// Run Cfgpanic
		wd := filepath.Join(gopath, "src", filepath.FromSlash(test.PkgPath()))
		env := append(os.Environ(), "GOPATH="+gopath, "GOFLAGS=-mod=mod")
		res, cfgpanicErr := cfgpanicinternal.Main(t.Context(), wd, env, cfgpanicinternal.MainOptions{}, []string{"./..."})

		// Check for the Cfgpanic error
		if cfgpanicErr != nil {
			cfgpanicErr = errors.New(relPathInString(cfgpanicErr.Error(), wd))
			if test.want.CfgpanicError != "" {
				want := normalizeWhitespace(test.want.CfgpanicError)
				have := normalizeWhitespace(cfgpanicErr.Error())
				assert.Equal(t, want, have)
			} else {
				require.NoError(t, cfgpanicErr, "Cfgpanic exited with errors unexpectedly")
			}
			return
		}

		if test.want.CfgpanicError != "" {
			require.Error(t, cfgpanicErr, "Cfgpanic should have exited with an error")
		}

		// Write generated files
		for name, content := range res.Files {
			err := os.WriteFile(filepath.Join(wd, name), content, 0o666)
			require.NoError(t, err, "Failed to write a generated file")
		}

		// Run the program with and without the feature
		goCmd := filepath.Join(build.Default.GOROOT, "bin", "go")
		run := func(args ...string) string {
			cmd := exec.Command(goCmd, append([]string{"run"}, args...)...)
			cmd.Dir = wd
			cmd.Env = env
			out, err := cmd.CombinedOutput()
			require.NoError(t, err, string(out))
			return strings.TrimSpace(string(out))
		}

		if test.want.EnabledOutput != "" {
			assert.Equal(t, test.want.EnabledOutput, run("-tags="+featureTag, test.ProgramPath()), "enabled")
		}
		if test.want.DisabledOutput != "" {
			assert.Equal(t, test.want.DisabledOutput, run(test.ProgramPath()), "disabled")
		}
	}
}

// relPathInString replaces paths in the given string to their relative paths to
// the new working directory.
func relPathInString(s, wd string) string {
	realWD, err := os.Getwd()
	if err != nil {
		return s
	}

	rel, err := filepath.Rel(realWD, wd)
	if err != nil {
		return s
	}

	s = strings.ReplaceAll(s, rel+"/", "")
	s = strings.ReplaceAll(s, rel, "")
	return s
}

// normalizeWhitespaces normalizes whitespace in the given string for consistent
// comparison regardless of whitespace style.
func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\t", "    ")
	return s
}
