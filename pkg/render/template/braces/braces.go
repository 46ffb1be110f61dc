// Package braces implements the contact template language:
//
//	<p>{name}</p>                       interpolation, HTML escaped
//	{bio | unescaped}                   raw value
//	{bio | sanitize}                    value cleaned by the sanitize package
//	{{- if phone -}} ... {{- endif -}}  conditional block
//	{{ if not phone }} ... {{ else }} ... {{ endif }}
//	\{ \}                               literal braces
//
// A conditional is true only when its column is present in the row and holds
// a non-empty string. Bare interpolation of a column missing from the row is
// a render error. '-' markers strip the whitespace (including newlines)
// between the tag and the neighbouring text. Field paths may be prefixed with
// "contact." so templates written against the row-as-contact convention keep
// working.
package braces

import (
	"html"
	"strings"

	"github.com/goliatone/go-contactgen/pkg/errs"
	"github.com/goliatone/go-contactgen/pkg/render/sanitize"
	"github.com/goliatone/go-contactgen/pkg/render/template"
)

// EngineName is the registry name of this engine.
const EngineName = "braces"

const contactPrefix = "contact."

// Engine compiles brace templates.
type Engine struct{}

var (
	_ template.Engine   = Engine{}
	_ template.Compiled = (*Template)(nil)
)

// New returns a braces engine.
func New() Engine {
	return Engine{}
}

// Name implements template.Engine.
func (Engine) Name() string {
	return EngineName
}

// Compile implements template.Engine.
func (Engine) Compile(name, text string) (template.Compiled, error) {
	tmpl, err := Compile(name, text)
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Template is a compiled brace template. It is immutable and safe for
// concurrent use.
type Template struct {
	name  string
	nodes []node
}

// Compile parses text, reporting syntax problems as errs.KindTemplate.
func Compile(name, text string) (*Template, error) {
	p := &parser{name: name, src: text}
	nodes, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Template{name: name, nodes: nodes}, nil
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string {
	return t.name
}

// Render expands the template against row.
func (t *Template) Render(row map[string]string) (string, error) {
	var b strings.Builder
	if err := renderNodes(&b, t.nodes, row, t.name); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Fields lists every column path the template references, in first-use order.
func (t *Template) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func([]node)
	walk = func(nodes []node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case *fieldNode:
				if _, ok := seen[v.path]; !ok {
					seen[v.path] = struct{}{}
					out = append(out, v.path)
				}
			case *condNode:
				if _, ok := seen[v.path]; !ok {
					seen[v.path] = struct{}{}
					out = append(out, v.path)
				}
				walk(v.then)
				walk(v.otherwise)
			}
		}
	}
	walk(t.nodes)
	return out
}

type node interface {
	render(b *strings.Builder, row map[string]string, name string) error
}

type textNode string

func (n textNode) render(b *strings.Builder, _ map[string]string, _ string) error {
	b.WriteString(string(n))
	return nil
}

type fieldNode struct {
	path   string
	format formatter
	line   int
}

func (n *fieldNode) render(b *strings.Builder, row map[string]string, name string) error {
	value, ok := lookup(row, n.path)
	if !ok {
		return &errs.Error{
			Kind:  errs.KindRender,
			Op:    "braces: render",
			Path:  name,
			Line:  n.line,
			Field: n.path,
			Msg:   "row has no value for interpolated field",
		}
	}
	b.WriteString(n.format(value))
	return nil
}

type condNode struct {
	path      string
	negate    bool
	line      int
	then      []node
	otherwise []node
}

func (n *condNode) render(b *strings.Builder, row map[string]string, name string) error {
	value, ok := lookup(row, n.path)
	truthy := ok && value != ""
	if n.negate {
		truthy = !truthy
	}
	if truthy {
		return renderNodes(b, n.then, row, name)
	}
	return renderNodes(b, n.otherwise, row, name)
}

func renderNodes(b *strings.Builder, nodes []node, row map[string]string, name string) error {
	for _, n := range nodes {
		if err := n.render(b, row, name); err != nil {
			return err
		}
	}
	return nil
}

func lookup(row map[string]string, path string) (string, bool) {
	if value, ok := row[path]; ok {
		return value, true
	}
	if rest, ok := strings.CutPrefix(path, contactPrefix); ok {
		value, ok := row[rest]
		return value, ok
	}
	return "", false
}

type formatter func(string) string

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

func unescaped(s string) string {
	return s
}

var formatters = map[string]formatter{
	"escape":    escapeHTML,
	"unescaped": unescaped,
	"sanitize":  sanitize.HTML,
}
