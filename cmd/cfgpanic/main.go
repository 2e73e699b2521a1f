package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"

	cfgpanicinternal "github.com/sublee/cfgpanic/internal/cfgpanic"
	"github.com/sublee/cfgpanic/internal/config"
	"github.com/sublee/cfgpanic/internal/watch"
)

var Version = "dev"

var (
	tagsFlag    string
	colorFlag   string
	configFlag  string
	verboseFlag bool
	watchFlag   bool
	dryRunFlag  bool

	logger *zap.Logger
	color  bool
)

var rootCmd = &cobra.Command{
	Use:   "cfgpanic [packages]",
	Short: "Generate build-gated functions that panic when disabled",
	Long: `cfgpanic reads template files tagged with "//go:build cfgpanic" and
generates a pair of files for each //cfgpanic:gate directive: one keeps the
original bodies under the gate constraint, the other declares the same
functions with bodies that panic when the constraint is not satisfied.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.DisableCaller = true
		zcfg.DisableStacktrace = true
		if verboseFlag {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	cfgpanicinternal.Version = Version

	rootCmd.Flags().StringVarP(&tagsFlag, "tags", "b", "", "comma-separated build tags")
	rootCmd.Flags().StringVarP(&colorFlag, "color", "c", "auto", "colorize (auto|always|never)")
	rootCmd.Flags().StringVar(&configFlag, "config", config.FileName, "config file")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&watchFlag, "watch", false, "regenerate when a template changes")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "print what would be written without writing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		message := err.Error()
		if color {
			message = colorize(message)
		}
		fmt.Fprintln(os.Stderr, message)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, wd)
	if err != nil {
		return err
	}
	color, err = resolveColor(cfg.Color, isatty())
	if err != nil {
		return err
	}

	opts := cfgpanicinternal.MainOptions{
		Tags:             cfg.Tags,
		LegacyBuildLines: cfg.LegacyBuildLines,
		Options: cfgpanicinternal.Options{
			Suffix: cfg.Suffix,
			Nolint: cfg.Nolint,
			Logger: logger,
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := generate(ctx, cmd.OutOrStdout(), wd, opts, args)
	if err != nil || !watchFlag {
		return err
	}

	w, err := watch.New(res.Dirs, watch.Options{
		Match:  templateMatcher(cfg.Suffix),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watching", zap.Strings("dirs", res.Dirs))
	return w.Run(ctx, func(ctx context.Context) error {
		if _, err := generate(ctx, cmd.OutOrStdout(), wd, opts, args); err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
		return nil
	})
}

// loadConfig loads the config file and applies the flags set explicitly.
func loadConfig(cmd *cobra.Command, wd string) (*config.Config, error) {
	path := configFlag
	if !filepath.IsAbs(path) {
		path = filepath.Join(wd, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("tags") {
		cfg.Tags = tagsFlag
	}
	if cmd.Flags().Changed("color") {
		cfg.Color = colorFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// generate runs Cfgpanic once. It writes the generated files, removes the
// stale ones, and prints what it did.
func generate(ctx context.Context, out io.Writer, wd string, opts cfgpanicinternal.MainOptions, patterns []string) (*cfgpanicinternal.Result, error) {
	res, err := cfgpanicinternal.Main(ctx, wd, os.Environ(), opts, patterns)
	if err != nil {
		return nil, err
	}

	for _, path := range slices.Sorted(maps.Keys(res.Files)) {
		code := res.Files[path]
		if dryRunFlag {
			fmt.Fprintln(out, "Would generate:", path)
			continue
		}

		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(wd, abs)
		}
		// Keep unchanged files untouched not to wake up watchers.
		if old, err := os.ReadFile(abs); err == nil && bytes.Equal(old, code) {
			fmt.Fprintln(out, "Generated:", path)
			continue
		}
		if err := os.WriteFile(abs, code, 0o644); err != nil {
			return nil, err
		}
		fmt.Fprintln(out, "Generated:", path)
	}

	for _, path := range res.Stale {
		if dryRunFlag {
			fmt.Fprintln(out, "Would remove:", path)
			continue
		}

		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(wd, abs)
		}
		if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		fmt.Fprintln(out, "Removed:", path)
	}
	return res, nil
}

// templateMatcher returns a matcher for files which may be templates. Files
// generated by Cfgpanic are excluded.
func templateMatcher(suffix string) func(path string) bool {
	return func(path string) bool {
		if !strings.HasSuffix(path, ".go") {
			return false
		}
		generated, err := cfgpanicinternal.IsGenerated(path)
		if err != nil {
			// Removed. Guess by the name.
			return !strings.Contains(filepath.Base(path), "_"+suffix)
		}
		return !generated
	}
}

func printError(w io.Writer, err error) {
	message := err.Error()
	if color {
		message = colorize(message)
	}
	fmt.Fprintln(w, message)
}

// resolveColor decides whether to colorize by the mode.
func resolveColor(mode string, tty bool) (bool, error) {
	switch mode {
	case "auto":
		return tty, nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid color value: %s", mode)
}

// isatty reports whether the program is running in a terminal. If it is true,
// we can use ANSI color codes.
func isatty() bool {
	_, err := unix.IoctlGetWinsize(int(os.Stderr.Fd()), unix.TIOCGWINSZ)
	return err == nil
}

var (
	rePos  = regexp.MustCompile(`(?m)^[^\s:]+\.go:\d+:\d+:`)
	reTab  = regexp.MustCompile(`(?m)^\t.+`)
	reHint = regexp.MustCompile(`did you mean [^?]+\?`)
)

// colorize adds ANSI color codes to the message.
func colorize(message string) string {
	const (
		bold   = "\033[1m"
		yellow = "\033[33m"
		dim    = "\033[2m"
		reset  = "\033[0m"
	)
	m := []byte(message)
	m = rePos.ReplaceAllFunc(m, func(b []byte) []byte {
		return []byte(bold + string(b) + reset)
	})
	m = reHint.ReplaceAllFunc(m, func(b []byte) []byte {
		return []byte(yellow + string(b) + reset)
	})
	m = reTab.ReplaceAllFunc(m, func(b []byte) []byte {
		return []byte(dim + string(b) + reset)
	})
	return string(m)
}
