package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublee/cfgpanic/internal/config"
)

func TestResolveColor(t *testing.T) {
	c, err := resolveColor("auto", true)
	require.NoError(t, err)
	assert.True(t, c)

	c, err = resolveColor("auto", false)
	require.NoError(t, err)
	assert.False(t, c)

	c, err = resolveColor("always", false)
	require.NoError(t, err)
	assert.True(t, c)

	c, err = resolveColor("never", true)
	require.NoError(t, err)
	assert.False(t, c)

	_, err = resolveColor("sometimes", true)
	assert.ErrorContains(t, err, "invalid color value: sometimes")
}

func TestColorize(t *testing.T) {
	message := "a.go:1:2: unknown directive //cfgpanic:gat, did you mean //cfgpanic:gate?\n\tsee here"
	colored := colorize(message)
	assert.Contains(t, colored, "\033[1ma.go:1:2:\033[0m")
	assert.Contains(t, colored, "\033[33mdid you mean //cfgpanic:gate?\033[0m")
	assert.Contains(t, colored, "\033[2m\tsee here\033[0m")
}

func TestTemplateMatcher(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "log.go")
	generated := filepath.Join(dir, "log_cfgpanic_linux_on.go")
	require.NoError(t, os.WriteFile(template, []byte("//go:build cfgpanic\n\npackage log\n"), 0o644))
	require.NoError(t, os.WriteFile(generated, []byte("// Code generated by github.com/sublee/cfgpanic from log.go. DO NOT EDIT.\n"), 0o644))

	match := templateMatcher("cfgpanic")
	assert.True(t, match(template))
	assert.False(t, match(generated))
	assert.False(t, match(filepath.Join(dir, "notes.txt")))
	assert.True(t, match(filepath.Join(dir, "removed.go")))
	assert.False(t, match(filepath.Join(dir, "removed_cfgpanic.go")))
}

func TestLoadConfigFlags(t *testing.T) {
	wd := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Tags = "fromfile"
	cfg.Color = "never"
	require.NoError(t, cfg.Save(filepath.Join(wd, config.FileName)))

	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&tagsFlag, "tags", "b", "", "")
	cmd.Flags().StringVarP(&colorFlag, "color", "c", "auto", "")
	require.NoError(t, cmd.Flags().Parse([]string{"-b", "fromflag"}))
	configFlag = config.FileName

	loaded, err := loadConfig(cmd, wd)
	require.NoError(t, err)
	assert.Equal(t, "fromflag", loaded.Tags)
	assert.Equal(t, "never", loaded.Color)
}
