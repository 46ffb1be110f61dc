package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-contactgen/internal/prompt"
	"github.com/goliatone/go-contactgen/pkg/errs"
)

type fakeDriver struct {
	inputs  []string
	engine  string
	confirm bool
	asked   int
}

func (f *fakeDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	f.asked++
	if len(f.inputs) == 0 {
		return cfg.Default, nil
	}
	v := f.inputs[0]
	f.inputs = f.inputs[1:]
	return v, nil
}

func (f *fakeDriver) Confirm(_ context.Context, _ prompt.ConfirmConfig) (bool, error) {
	f.asked++
	return f.confirm, nil
}

func (f *fakeDriver) Select(_ context.Context, cfg prompt.SelectConfig) (string, error) {
	f.asked++
	if f.engine == "" {
		return cfg.Default, nil
	}
	return f.engine, nil
}

func execute(t *testing.T, d deps, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(d)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contacts.csv"),
		[]byte("file_name,name,email\nada,Ada Lovelace,ada@example.com\ngrace,Grace Hopper,\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.html"),
		[]byte("<h1>{name}</h1>{{- if email -}}<a href=\"mailto:{email}\">{email}</a>{{- endif -}}"), 0o644))
	return dir
}

func TestRoot_GeneratesFiles(t *testing.T) {
	dir := writeWorkspace(t)
	outDir := filepath.Join(dir, "out")

	stdout, _, err := execute(t, defaultDeps(),
		"-f", filepath.Join(dir, "contacts.csv"),
		"-t", filepath.Join(dir, "template.html"),
		"-o", outDir,
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Generated 2 file(s)")

	data, err := os.ReadFile(filepath.Join(outDir, "ada.html"))
	require.NoError(t, err)
	assert.Equal(t, `<h1>Ada Lovelace</h1><a href="mailto:ada@example.com">ada@example.com</a>`, string(data))

	data, err = os.ReadFile(filepath.Join(outDir, "grace.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Grace Hopper</h1>", string(data))
}

func TestRoot_QuietSuppressesSummary(t *testing.T) {
	dir := writeWorkspace(t)

	stdout, stderr, err := execute(t, defaultDeps(),
		"--csv", filepath.Join(dir, "contacts.csv"),
		"--template", filepath.Join(dir, "template.html"),
		"--output", filepath.Join(dir, "out"),
		"--quiet",
	)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestRoot_VerboseLogsRows(t *testing.T) {
	dir := writeWorkspace(t)

	_, stderr, err := execute(t, defaultDeps(),
		"-f", filepath.Join(dir, "contacts.csv"),
		"-t", filepath.Join(dir, "template.html"),
		"-o", filepath.Join(dir, "out"),
		"-v",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "run_id=")
}

func TestRoot_DryRunWritesNothing(t *testing.T) {
	dir := writeWorkspace(t)
	outDir := filepath.Join(dir, "out")

	stdout, _, err := execute(t, defaultDeps(),
		"-f", filepath.Join(dir, "contacts.csv"),
		"-t", filepath.Join(dir, "template.html"),
		"-o", outDir,
		"--dry-run",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would generate 2 file(s)")
	assert.NoDirExists(t, outDir)
}

func TestRoot_ConfigFileAndFlagPrecedence(t *testing.T) {
	dir := writeWorkspace(t)
	configPath := filepath.Join(dir, "contactgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"table: "+filepath.Join(dir, "contacts.csv")+"\n"+
			"template: "+filepath.Join(dir, "template.html")+"\n"+
			"output: "+filepath.Join(dir, "from-config")+"\n"), 0o644))

	_, _, err := execute(t, defaultDeps(), "-c", configPath, "-q")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-config", "ada.html"))

	_, _, err = execute(t, defaultDeps(), "-c", configPath, "-o", filepath.Join(dir, "from-flag"), "-q")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-flag", "ada.html"))
}

func TestRoot_Errors(t *testing.T) {
	dir := writeWorkspace(t)

	t.Run("missing config file", func(t *testing.T) {
		_, _, err := execute(t, defaultDeps(), "-c", filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, _, err := execute(t, defaultDeps(),
			"-f", filepath.Join(dir, "contacts.csv"),
			"-t", filepath.Join(dir, "template.html"),
			"-e", "mustache",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mustache")
	})

	t.Run("missing table", func(t *testing.T) {
		_, _, err := execute(t, defaultDeps(),
			"-f", filepath.Join(dir, "nope.csv"),
			"-t", filepath.Join(dir, "template.html"),
			"-o", filepath.Join(dir, "out"),
		)
		require.ErrorIs(t, err, errs.ErrIO)
	})

	t.Run("positional arguments rejected", func(t *testing.T) {
		_, _, err := execute(t, defaultDeps(), "contacts.csv")
		require.Error(t, err)
	})
}

func TestRoot_Version(t *testing.T) {
	stdout, _, err := execute(t, defaultDeps(), "--version")
	require.NoError(t, err)
	assert.Equal(t, "contactgen "+version+"\n", stdout)
}

func TestRoot_Interactive(t *testing.T) {
	dir := writeWorkspace(t)
	outDir := filepath.Join(dir, "out")

	driver := &fakeDriver{
		inputs: []string{
			filepath.Join(dir, "contacts.csv"),
			filepath.Join(dir, "template.html"),
			outDir,
		},
		engine: "braces",
	}
	d := deps{prompter: func() prompt.Driver { return driver }}

	_, _, err := execute(t, d, "-i", "-q")
	require.NoError(t, err)
	assert.Equal(t, 4, driver.asked)
	assert.FileExists(t, filepath.Join(outDir, "ada.html"))
}

func TestRoot_InteractiveDeclinesOverwrite(t *testing.T) {
	dir := writeWorkspace(t)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "keep.html"), []byte("x"), 0o644))

	driver := &fakeDriver{confirm: false}
	d := deps{prompter: func() prompt.Driver { return driver }}

	_, _, err := execute(t, d, "-i",
		"-f", filepath.Join(dir, "contacts.csv"),
		"-t", filepath.Join(dir, "template.html"),
		"-o", outDir,
	)
	require.ErrorIs(t, err, errDeclined)
	assert.Equal(t, 5, driver.asked)
	assert.NoFileExists(t, filepath.Join(outDir, "ada.html"))
}

func TestInit_WritesStarterFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")

	stdout, _, err := execute(t, defaultDeps(), "init", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+filepath.Join(dir, "contacts.csv"))
	assert.FileExists(t, filepath.Join(dir, "template.html"))

	stdout, _, err = execute(t, defaultDeps(), "init", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "already present")

	stdout, _, err = execute(t, defaultDeps(), "init", "--force", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote")
}
