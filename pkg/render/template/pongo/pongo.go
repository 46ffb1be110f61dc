// Package pongo adapts flosch/pongo2 (Django syntax) to the template.Engine
// contract. Each row is exposed both under "contact" and, for columns that
// are valid identifiers, at the top level:
//
//	<h1>{{ name }}</h1>
//	{% if phone %}<p>{{ contact.phone }}</p>{% endif %}
//	{{ bio|sanitize }}
package pongo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-contactgen/pkg/errs"
	"github.com/goliatone/go-contactgen/pkg/render/sanitize"
	"github.com/goliatone/go-contactgen/pkg/render/template"
)

// EngineName is the registry name of this engine.
const EngineName = "pongo2"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Option configures the pongo2 adapter before construction.
type Option func(*config)

type config struct {
	baseDir    string
	globalData map[string]any
}

// WithBaseDir resolves {% include %} and {% extends %} relative to dir.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithGlobalData seeds values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine compiles templates against a private pongo2 template set.
type Engine struct {
	set *pongo2.TemplateSet
}

var (
	_ template.Engine   = (*Engine)(nil)
	_ template.Compiled = (*Template)(nil)
)

// New constructs an Engine using the provided configuration options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{baseDir: "."}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.baseDir == "" {
		cfg.baseDir = "."
	}

	loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
	if err != nil {
		return nil, fmt.Errorf("pongo: create local loader: %w", err)
	}

	set := pongo2.NewSet("contactgen", loader)
	if len(cfg.globalData) > 0 {
		set.Globals = make(pongo2.Context, len(cfg.globalData))
		set.Globals.Update(cfg.globalData)
	}
	registerDefaultFilters()

	return &Engine{set: set}, nil
}

// Name implements template.Engine.
func (e *Engine) Name() string {
	return EngineName
}

// Compile implements template.Engine.
func (e *Engine) Compile(name, text string) (template.Compiled, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("pongo: engine is nil")
	}

	tpl, err := e.set.FromString(text)
	if err != nil {
		out := errs.Wrap(errs.KindTemplate, "pongo: compile", err)
		out.Path = name
		out.Line = errorLine(err)
		return nil, out
	}
	return &Template{name: name, tpl: tpl}, nil
}

// Template is a compiled pongo2 template.
type Template struct {
	name string
	tpl  *pongo2.Template
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string {
	return t.name
}

// Render executes the template against row.
func (t *Template) Render(row map[string]string) (string, error) {
	out, err := t.tpl.Execute(contextFor(row))
	if err != nil {
		e := errs.Wrap(errs.KindRender, "pongo: render", err)
		e.Path = t.name
		e.Line = errorLine(err)
		return "", e
	}
	return out, nil
}

func contextFor(row map[string]string) pongo2.Context {
	contact := make(map[string]any, len(row))
	ctx := make(pongo2.Context, len(row)+1)
	for key, value := range row {
		contact[key] = value
		if identifier.MatchString(key) && key != "contact" {
			ctx[key] = value
		}
	}
	ctx["contact"] = contact
	return ctx
}

func errorLine(err error) int {
	var perr *pongo2.Error
	if errors.As(err, &perr) {
		return perr.Line
	}
	return 0
}

func registerDefaultFilters() {
	if !pongo2.FilterExists("sanitize") {
		_ = pongo2.RegisterFilter("sanitize", filterSanitize)
	}
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(sanitize.HTML(in.String())), nil
}
