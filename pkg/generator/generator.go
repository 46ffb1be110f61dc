// Package generator writes one rendered HTML file per table row.
//
// Rows are processed in table order; the first failure aborts the run and the
// files written for earlier rows are left in place. Rows whose derived file
// names collide overwrite each other, so the last row wins.
package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contactgen/pkg/errs"
	"github.com/goliatone/go-contactgen/pkg/render/template"
	"github.com/goliatone/go-contactgen/pkg/table"
)

// HTMLSuffix is appended to file names that do not already carry it.
const HTMLSuffix = ".html"

const (
	defaultDirMode  os.FileMode = 0o755
	defaultFileMode os.FileMode = 0o644
)

// Option customises the generator.
type Option func(*Generator)

// WithLogger routes progress logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithFileMode sets the permission bits of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(g *Generator) {
		g.fileMode = mode
	}
}

// WithDirMode sets the permission bits of created directories.
func WithDirMode(mode os.FileMode) Option {
	return func(g *Generator) {
		g.dirMode = mode
	}
}

// WithDryRun renders and names every row without touching the filesystem.
func WithDryRun(enabled bool) Option {
	return func(g *Generator) {
		g.dryRun = enabled
	}
}

// Generator renders table rows through a compiled template into files.
type Generator struct {
	logger   *slog.Logger
	fileMode os.FileMode
	dirMode  os.FileMode
	dryRun   bool
}

// New constructs a Generator applying any provided options.
func New(options ...Option) *Generator {
	g := &Generator{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		fileMode: defaultFileMode,
		dirMode:  defaultDirMode,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Report summarises a generation run.
type Report struct {
	RunID     string
	OutputDir string
	// Files lists the written (or, in dry-run mode, planned) paths in row order.
	// A path appears once per row, so collisions show up as duplicates.
	Files    []string
	Rows     int
	DryRun   bool
	Duration time.Duration
}

// Generate renders every row of tbl with tmpl and writes the results under
// outputDir, creating it when needed.
func (g *Generator) Generate(ctx context.Context, tbl *table.Table, tmpl template.Compiled, outputDir string) (Report, error) {
	if ctx == nil {
		return Report{}, errors.New("generator: context is required")
	}
	if tbl == nil || tmpl == nil {
		return Report{}, errors.New("generator: table and template are required")
	}

	started := time.Now()
	report := Report{
		RunID:     uuid.NewString(),
		OutputDir: outputDir,
		DryRun:    g.dryRun,
	}
	logger := g.logger.With("run_id", report.RunID, "output", outputDir)

	if !g.dryRun {
		if err := os.MkdirAll(outputDir, g.dirMode); err != nil {
			e := errs.Wrap(errs.KindIO, "generator: create output directory", err)
			e.Path = outputDir
			return report, e
		}
	}

	for i, row := range tbl.All() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path, err := g.generateRow(row, tmpl, outputDir)
		if err != nil {
			return report, withRow(err, i+1)
		}

		report.Rows++
		report.Files = append(report.Files, path)
		logger.Debug("row generated", "row", i+1, "file", path)
	}

	report.Duration = time.Since(started)
	logger.Info("generation complete",
		"rows", report.Rows,
		"dry_run", report.DryRun,
		"duration", report.Duration,
	)
	return report, nil
}

func (g *Generator) generateRow(row table.Row, tmpl template.Compiled, outputDir string) (string, error) {
	html, err := tmpl.Render(row)
	if err != nil {
		return "", err
	}

	name, err := OutputName(row)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, name)
	if g.dryRun {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != filepath.Clean(outputDir) {
		if err := os.MkdirAll(dir, g.dirMode); err != nil {
			e := errs.Wrap(errs.KindIO, "generator: create directory", err)
			e.Path = dir
			return "", e
		}
	}

	if err := os.WriteFile(path, []byte(html), g.fileMode); err != nil {
		e := errs.Wrap(errs.KindIO, "generator: write", err)
		e.Path = path
		return "", e
	}
	return path, nil
}

// OutputName derives the output file name from the row's file_name column,
// appending HTMLSuffix unless it is already present. A missing, empty, or
// directory-escaping value is errs.KindRender.
func OutputName(row table.Row) (string, error) {
	name, ok := row[table.FileNameColumn]
	if !ok {
		return "", nameError("row has no file_name value", "")
	}
	if strings.TrimSpace(name) == "" {
		return "", nameError("file_name is empty", name)
	}
	if !strings.HasSuffix(name, HTMLSuffix) {
		name += HTMLSuffix
	}
	if !filepath.IsLocal(name) {
		return "", nameError("file_name must stay inside the output directory", name)
	}
	return name, nil
}

func nameError(msg, value string) *errs.Error {
	e := errs.New(errs.KindRender, "generator: output name", "%s", msg)
	e.Column = table.FileNameColumn
	if value != "" {
		e.Msg += " (" + value + ")"
	}
	return e
}

func withRow(err error, row int) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Row == 0 {
		e.Row = row
	}
	return err
}
