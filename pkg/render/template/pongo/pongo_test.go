package pongo_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-contactgen/pkg/errs"
	"github.com/goliatone/go-contactgen/pkg/render/template/pongo"
)

func newEngine(t *testing.T, options ...pongo.Option) *pongo.Engine {
	t.Helper()

	engine, err := pongo.New(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderRow(t *testing.T) {
	engine := newEngine(t)
	compiled, err := engine.Compile("card.html", `<h1>{{ name }}</h1>{% if phone %}<p>{{ contact.phone }}</p>{% endif %}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, err := compiled.Render(map[string]string{"name": "Ada & Co", "phone": ""})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<h1>Ada &amp; Co</h1>"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}

	got, err = compiled.Render(map[string]string{"name": "Ada", "phone": "555"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<h1>Ada</h1><p>555</p>"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_NonIdentifierColumnsOnlyUnderContact(t *testing.T) {
	engine := newEngine(t)
	compiled, err := engine.Compile("card.html", `{{ contact.file_name }}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Render(map[string]string{"file_name": "ada", "first-name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ada" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_SanitizeFilter(t *testing.T) {
	engine := newEngine(t)
	compiled, err := engine.Compile("card.html", `{{ bio|sanitize }}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Render(map[string]string{"bio": `<b>hi</b><script>x()</script>`})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<b>hi</b>" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_CompileErrorIsTemplateError(t *testing.T) {
	engine := newEngine(t)
	_, err := engine.Compile("bad.html", "ok\n{% if name %}never closed")
	if !errors.Is(err, errs.ErrTemplate) {
		t.Fatalf("expected template error, got %v", err)
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Path != "bad.html" {
		t.Fatalf("expected path context, got %v", err)
	}
}

func TestEngine_IncludeResolvesFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "footer.html"), []byte("<footer>{{ name }}</footer>"), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}

	engine := newEngine(t, pongo.WithBaseDir(dir))
	compiled, err := engine.Compile("card.html", `<main></main>{% include "footer.html" %}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Render(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "<footer>Ada</footer>") {
		t.Fatalf("include not rendered: %q", got)
	}
}

func TestEngine_GlobalData(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobalData(map[string]any{"company": "Analytical Engines"}))
	compiled, err := engine.Compile("card.html", `{{ name }} @ {{ company }}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Render(map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Ada @ Analytical Engines" {
		t.Fatalf("got %q", got)
	}
}
