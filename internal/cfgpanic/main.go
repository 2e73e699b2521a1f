package cfgpanicinternal

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/sublee/cfgpanic"
)

var Version string

// GeneratedPrefix starts the first line of every generated file.
const GeneratedPrefix = "// Code generated by github.com/sublee/cfgpanic"

// Legacy build line modes.
const (
	LegacyAuto   = "auto"
	LegacyAlways = "always"
	LegacyNever  = "never"
)

// legacyBefore is the first Go version which understands //go:build without
// // +build lines.
var legacyBefore = semver.MustParse("1.17")

// MainOptions configures [Main].
type MainOptions struct {
	// Tags is the comma-separated build tags to add when loading packages.
	Tags string

	// LegacyBuildLines is one of "auto", "always", and "never". In "auto"
	// mode, "// +build" lines are written for modules declaring a go
	// version older than 1.17.
	LegacyBuildLines string

	// Jobs limits the number of packages generated concurrently. Zero means
	// the number of CPUs.
	Jobs int

	// Options is passed to every [Cfgpanic]. Options.LegacyBuildLines is
	// decided per package by LegacyBuildLines.
	Options
}

// Result is the outcome of [Main].
type Result struct {
	// Files maps output file paths to their contents.
	Files map[string][]byte

	// Stale lists previously generated files which are not generated
	// anymore. They should be removed.
	Stale []string

	// Warnings holds accepted but suspicious usages.
	Warnings []error

	// Dirs lists the directories of the loaded packages.
	Dirs []string
}

// Main is the main entry point for Cfgpanic. It is used by the command-line
// tool directly.
//
// ctx is the context for loading packages. If the loading is too slow, ctx
// can cancel the operation. wd is the path of the working directory. env is
// the environment variables to use when running the tool. patterns are the
// package patterns to process.
//
// Paths in the result are relative to wd if possible. If any error occurs,
// it returns a non-nil error.
func Main(ctx context.Context, wd string, env []string, opts MainOptions, patterns []string) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch opts.LegacyBuildLines {
	case "", LegacyAuto, LegacyAlways, LegacyNever:
	default:
		return nil, fmt.Errorf("invalid legacy build lines mode %q", opts.LegacyBuildLines)
	}

	pkgs, err := load(ctx, wd, env, opts.Tags, patterns)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded packages", zap.Int("count", len(pkgs)))

	type pkgResult struct {
		outs     map[string][]byte
		warnings []error
		err      error
	}
	results := make([]pkgResult, len(pkgs))

	var g errgroup.Group
	g.SetLimit(cmp.Or(opts.Jobs, runtime.NumCPU()))
	for i, pkg := range pkgs {
		g.Go(func() error {
			pkgOpts := opts.Options
			pkgOpts.Logger = log
			pkgOpts.LegacyBuildLines = legacyBuildLines(opts.LegacyBuildLines, pkg, log)

			cg, err := New(pkg, pkgOpts)
			if err != nil {
				results[i].err = err
				return nil
			}
			if err := cg.Build(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].outs = cg.Generate()
			results[i].warnings = cg.Warnings()
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Files: make(map[string][]byte)}
	var errs error
	for _, r := range results {
		if r.err != nil {
			errs = errors.Join(errs, r.err)
			continue
		}
		for out, code := range r.outs {
			res.Files[relPath(wd, out)] = code
		}
		res.Warnings = append(res.Warnings, r.warnings...)
	}
	if errs != nil {
		// errs already contains comprehensive error messages. So we don't need
		// to attach another error message.
		return nil, reorderErrors(errs)
	}

	suffix := cmp.Or(opts.Suffix, cfgpanic.Tag)
	loaded := make(map[string]bool)
	for _, pkg := range pkgs {
		for _, f := range pkg.GoFiles {
			loaded[f] = true
		}
	}
	for _, pkg := range pkgs {
		dirs := pkgDirs(pkg)
		for _, dir := range dirs {
			res.Dirs = append(res.Dirs, relPath(wd, dir))
		}

		stale, err := staleFiles(dirs, suffix, loaded)
		if err != nil {
			return nil, err
		}
		for _, path := range stale {
			path = relPath(wd, path)
			if _, ok := res.Files[path]; !ok {
				res.Stale = append(res.Stale, path)
			}
		}
	}
	slices.Sort(res.Dirs)
	res.Dirs = slices.Compact(res.Dirs)
	slices.Sort(res.Stale)
	res.Stale = slices.Compact(res.Stale)

	sort.Slice(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].Error() < res.Warnings[j].Error()
	})
	for _, w := range res.Warnings {
		log.Warn(w.Error())
	}
	for out := range res.Files {
		log.Debug("generated", zap.String("file", out))
	}
	return res, nil
}

// load loads packages.
func load(ctx context.Context, wd string, env []string, tags string, patterns []string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:       packages.NeedDeps | packages.NeedFiles | packages.NeedImports | packages.NeedName | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedModule | packages.NeedForTest,
		Tests:      true,
		Context:    ctx,
		Dir:        wd,
		Env:        env,
		BuildFlags: buildFlags(tags),
	}

	// Load the packages based on the provided patterns.
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found: %v", patterns)
	}

	// Check for errors in the loaded packages.
	var errs error
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors {
			if err.Pos == "" {
				errs = errors.Join(errs, errors.New(err.Msg))
				continue
			}

			path, rowcol, _ := strings.Cut(err.Pos, ":")
			if rel, relErr := filepath.Rel(wd, path); relErr == nil {
				err.Pos = rel + ":" + rowcol
			}
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	return withoutDuplicates(pkgs), nil
}

// buildFlags returns the build flags to load templates. The cfgpanic tag is
// always set. Tags of gate predicates are not, so a template which depends on
// a constrained file needs the constraint in tags.
func buildFlags(tags string) []string {
	if tags == "" {
		return []string{"-tags=" + cfgpanic.Tag}
	}
	return []string{"-tags=" + cfgpanic.Tag + "," + tags}
}

// withoutDuplicates drops the packages whose files are all covered by
// another loaded package: a package which has a test variant, and the
// synthesized test main packages.
func withoutDuplicates(pkgs []*packages.Package) []*packages.Package {
	tested := make(map[string]bool)
	for _, pkg := range pkgs {
		if pkg.ForTest != "" && pkg.PkgPath == pkg.ForTest {
			tested[pkg.PkgPath] = true
		}
	}

	var out []*packages.Package
	for _, pkg := range pkgs {
		switch {
		case pkg.Name == "main" && strings.HasSuffix(pkg.ID, ".test"):
			continue
		case pkg.ForTest == "" && tested[pkg.PkgPath]:
			continue
		}
		out = append(out, pkg)
	}
	return out
}

// legacyBuildLines decides whether to write "// +build" lines for the
// package.
func legacyBuildLines(mode string, pkg *packages.Package, log *zap.Logger) bool {
	switch mode {
	case LegacyAlways:
		return true
	case LegacyNever:
		return false
	}

	if pkg.Module == nil || pkg.Module.GoVersion == "" {
		return false
	}
	v, err := semver.NewVersion(pkg.Module.GoVersion)
	if err != nil {
		log.Debug("unknown go version", zap.String("module", pkg.Module.Path), zap.Error(err))
		return false
	}
	return v.LessThan(legacyBefore)
}

// pkgDirs returns the directories of the source files of the package,
// including the files excluded by build constraints.
func pkgDirs(pkg *packages.Package) []string {
	var dirs []string
	for _, f := range slices.Concat(pkg.GoFiles, pkg.IgnoredFiles) {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// staleFiles lists the files generated by Cfgpanic in the directories from
// templates which are loaded or removed. Outputs of templates excluded by
// build constraints in this run are kept. Whether the listed files are still
// generated is up to the caller.
func staleFiles(dirs []string, suffix string, loaded map[string]bool) ([]string, error) {
	var stale []string
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*_"+suffix+"*.go"))
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			tmpl, ok, err := GeneratedFrom(path)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			tmplPath := filepath.Join(dir, tmpl)
			if _, err := os.Stat(tmplPath); err == nil && !loaded[tmplPath] {
				continue
			}
			stale = append(stale, path)
		}
	}
	return stale, nil
}

// IsGenerated reports whether the file was generated by Cfgpanic.
func IsGenerated(path string) (bool, error) {
	_, ok, err := GeneratedFrom(path)
	return ok, err
}

// GeneratedFrom returns the template name written in the header of a file
// generated by Cfgpanic. It returns false if the file was not generated by
// Cfgpanic.
func GeneratedFrom(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	if !s.Scan() {
		return "", false, s.Err()
	}
	line, ok := strings.CutPrefix(s.Text(), GeneratedPrefix)
	if !ok {
		return "", false, nil
	}

	// "@v1.0.0 from x.go. DO NOT EDIT."
	_, rest, ok := strings.Cut(line, " from ")
	if !ok {
		return "", true, nil
	}
	tmpl, _ := strings.CutSuffix(rest, ". DO NOT EDIT.")
	return tmpl, true, nil
}

func relPath(wd, path string) string {
	if rel, err := filepath.Rel(wd, path); err == nil {
		return rel
	}
	return path
}

func reorderErrors(errs error) error {
	if errs == nil {
		return nil
	}

	// Flatten nested errors
	list := []error{errs}
	for i := 0; i < len(list); i++ {
		if u, ok := list[i].(interface{ Unwrap() []error }); ok {
			// errors.Join collapses errors with a single error having Unwrap()
			// []error method. The underlying errors could be retrieved using
			// the Unwrap() method.
			list = append(list, u.Unwrap()...)

			// The underlying errors are appended to the list. So the original
			// error can be removed.
			list[i] = nil
			continue
		}
	}
	list = slices.DeleteFunc(list, func(err error) bool {
		return err == nil
	})

	// Sort errors by message
	sort.Slice(list, func(i, j int) bool {
		return list[i].Error() < list[j].Error()
	})
	return errors.Join(list...)
}
