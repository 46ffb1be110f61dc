// Package contactgen turns a delimited contact list into one HTML file per
// contact by rendering every row through a shared template.
//
// The pipeline is table.Load -> Engine.Compile -> generator.Generate. Generate
// wires the three stages from a Config value; callers needing finer control
// can use the packages under pkg/ directly.
package contactgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goliatone/go-contactgen/pkg/errs"
	"github.com/goliatone/go-contactgen/pkg/generator"
	"github.com/goliatone/go-contactgen/pkg/render/template"
	"github.com/goliatone/go-contactgen/pkg/render/template/braces"
	"github.com/goliatone/go-contactgen/pkg/render/template/pongo"
	"github.com/goliatone/go-contactgen/pkg/table"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultTablePath    = "contacts.csv"
	DefaultTemplatePath = "template.html"
	DefaultOutputDir    = "output"
	DefaultEngine       = braces.EngineName
)

// Config describes a single generation run.
type Config struct {
	// TablePath is the delimited contact list (default contacts.csv).
	TablePath string
	// TemplatePath is the template rendered for every row (default template.html).
	TemplatePath string
	// OutputDir receives one file per row and is created when missing
	// (default output).
	OutputDir string
	// Engine names the template engine: "braces" (default) or "pongo2".
	Engine string
	// Delimiter overrides the field separator. Zero picks it from the table
	// file extension (tab for .tsv, comma otherwise).
	Delimiter rune
	// DryRun renders and names every row without writing files.
	DryRun bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		TablePath:    DefaultTablePath,
		TemplatePath: DefaultTemplatePath,
		OutputDir:    DefaultOutputDir,
		Engine:       DefaultEngine,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TablePath == "" {
		c.TablePath = def.TablePath
	}
	if c.TemplatePath == "" {
		c.TemplatePath = def.TemplatePath
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Engine == "" {
		c.Engine = def.Engine
	}
	return c
}

// Option customises Generate.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry *template.Registry
}

// WithLogger routes pipeline logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry replaces the engine registry built by DefaultRegistry.
func WithRegistry(registry *template.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// DefaultRegistry holds the built-in engines. templateDir anchors pongo2
// includes.
func DefaultRegistry(templateDir string) (*template.Registry, error) {
	registry := template.NewRegistry()
	if err := registry.Register(braces.New()); err != nil {
		return nil, err
	}
	engine, err := pongo.New(pongo.WithBaseDir(templateDir))
	if err != nil {
		return nil, err
	}
	if err := registry.Register(engine); err != nil {
		return nil, err
	}
	return registry, nil
}

// Generate loads the table, compiles the template, and writes one file per row.
// The template is compiled before any output is written, so syntax errors
// never leave partial output behind.
func Generate(ctx context.Context, cfg Config, opts ...Option) (generator.Report, error) {
	if ctx == nil {
		return generator.Report{}, errors.New("contactgen: context is required")
	}
	cfg = cfg.withDefaults()

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tbl, err := table.Load(cfg.TablePath, table.WithDelimiter(cfg.Delimiter))
	if err != nil {
		return generator.Report{}, err
	}
	o.logger.Debug("table loaded", "path", cfg.TablePath, "rows", tbl.Len(), "columns", len(tbl.Header()))

	compiled, err := compileTemplate(cfg, o)
	if err != nil {
		return generator.Report{}, err
	}

	gen := generator.New(
		generator.WithLogger(o.logger),
		generator.WithDryRun(cfg.DryRun),
	)
	return gen.Generate(ctx, tbl, compiled, cfg.OutputDir)
}

func compileTemplate(cfg Config, o *options) (template.Compiled, error) {
	text, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		e := errs.Wrap(errs.KindIO, "contactgen: read template", err)
		e.Path = cfg.TemplatePath
		return nil, e
	}

	registry := o.registry
	if registry == nil {
		registry, err = DefaultRegistry(filepath.Dir(cfg.TemplatePath))
		if err != nil {
			return nil, fmt.Errorf("contactgen: build engine registry: %w", err)
		}
	}

	engine, err := registry.Get(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("contactgen: %w", err)
	}

	compiled, err := engine.Compile(cfg.TemplatePath, string(text))
	if err != nil {
		return nil, err
	}
	o.logger.Debug("template compiled", "path", cfg.TemplatePath, "engine", engine.Name())
	return compiled, nil
}
