package braces

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-contactgen/pkg/errs"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokField
	tokIf
	tokElse
	tokEndif
)

type token struct {
	kind      tokenKind
	text      string
	path      string
	format    formatter
	negate    bool
	trimLeft  bool
	trimRight bool
	line      int
}

type parser struct {
	name string
	src  string
}

func (p *parser) parse() ([]node, error) {
	tokens, err := p.lex()
	if err != nil {
		return nil, err
	}
	applyTrim(tokens)
	return p.build(tokens)
}

func (p *parser) lex() ([]token, error) {
	var (
		tokens []token
		text   strings.Builder
	)
	flush := func(line int) {
		if text.Len() == 0 {
			return
		}
		tokens = append(tokens, token{kind: tokText, text: text.String(), line: line})
		text.Reset()
	}

	src := p.src
	for i := 0; i < len(src); {
		switch {
		case src[i] == '\\' && i+1 < len(src) && (src[i+1] == '{' || src[i+1] == '}'):
			text.WriteByte(src[i+1])
			i += 2

		case strings.HasPrefix(src[i:], "{{"):
			line := p.lineAt(i)
			flush(line)
			end := strings.Index(src[i+2:], "}}")
			if end < 0 {
				return nil, p.errorf(line, "unclosed block tag")
			}
			tok, err := p.blockTag(src[i+2:i+2+end], line)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i += end + 4

		case src[i] == '{':
			line := p.lineAt(i)
			flush(line)
			end := strings.IndexAny(src[i+1:], "{}\n")
			if end < 0 || src[i+1+end] != '}' {
				return nil, p.errorf(line, "unclosed interpolation")
			}
			tok, err := p.interpolation(src[i+1:i+1+end], line)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i += end + 2

		default:
			text.WriteByte(src[i])
			i++
		}
	}
	flush(p.lineAt(len(src)))
	return tokens, nil
}

func (p *parser) blockTag(inner string, line int) (token, error) {
	tok := token{line: line}
	if strings.HasPrefix(inner, "-") {
		tok.trimLeft = true
		inner = inner[1:]
	}
	if strings.HasSuffix(inner, "-") {
		tok.trimRight = true
		inner = inner[:len(inner)-1]
	}

	words := strings.Fields(inner)
	if len(words) == 0 {
		return token{}, p.errorf(line, "empty block tag")
	}

	switch words[0] {
	case "if":
		args := words[1:]
		if len(args) == 2 && args[0] == "not" {
			tok.negate = true
			args = args[1:]
		}
		if len(args) != 1 || !validPath(args[0]) {
			return token{}, p.errorf(line, "malformed if tag %q", strings.TrimSpace(inner))
		}
		tok.kind = tokIf
		tok.path = args[0]
	case "else":
		if len(words) != 1 {
			return token{}, p.errorf(line, "else takes no arguments")
		}
		tok.kind = tokElse
	case "endif":
		if len(words) != 1 {
			return token{}, p.errorf(line, "endif takes no arguments")
		}
		tok.kind = tokEndif
	default:
		return token{}, p.errorf(line, "unknown block tag %q", words[0])
	}
	return tok, nil
}

func (p *parser) interpolation(inner string, line int) (token, error) {
	path, format, hasFormat := strings.Cut(inner, "|")
	path = strings.TrimSpace(path)
	if !validPath(path) {
		return token{}, p.errorf(line, "malformed interpolation {%s}", inner)
	}

	tok := token{kind: tokField, path: path, format: escapeHTML, line: line}
	if hasFormat {
		f, ok := formatters[strings.TrimSpace(format)]
		if !ok {
			return token{}, p.errorf(line, "unknown formatter %q", strings.TrimSpace(format))
		}
		tok.format = f
	}
	return tok, nil
}

// applyTrim strips whitespace next to block tags carrying '-' markers.
func applyTrim(tokens []token) {
	for i, tok := range tokens {
		if tok.kind == tokText || tok.kind == tokField {
			continue
		}
		if tok.trimLeft && i > 0 && tokens[i-1].kind == tokText {
			tokens[i-1].text = strings.TrimRightFunc(tokens[i-1].text, unicode.IsSpace)
		}
		if tok.trimRight && i+1 < len(tokens) && tokens[i+1].kind == tokText {
			tokens[i+1].text = strings.TrimLeftFunc(tokens[i+1].text, unicode.IsSpace)
		}
	}
}

type frame struct {
	cond   *condNode
	inElse bool
}

func (p *parser) build(tokens []token) ([]node, error) {
	var (
		root  []node
		stack []*frame
	)
	appendNode := func(n node) {
		if len(stack) == 0 {
			root = append(root, n)
			return
		}
		top := stack[len(stack)-1]
		if top.inElse {
			top.cond.otherwise = append(top.cond.otherwise, n)
		} else {
			top.cond.then = append(top.cond.then, n)
		}
	}

	for _, tok := range tokens {
		switch tok.kind {
		case tokText:
			if tok.text != "" {
				appendNode(textNode(tok.text))
			}
		case tokField:
			appendNode(&fieldNode{path: tok.path, format: tok.format, line: tok.line})
		case tokIf:
			cond := &condNode{path: tok.path, negate: tok.negate, line: tok.line}
			appendNode(cond)
			stack = append(stack, &frame{cond: cond})
		case tokElse:
			if len(stack) == 0 {
				return nil, p.errorf(tok.line, "else without matching if")
			}
			top := stack[len(stack)-1]
			if top.inElse {
				return nil, p.errorf(tok.line, "duplicate else for if opened on line %d", top.cond.line)
			}
			top.inElse = true
		case tokEndif:
			if len(stack) == 0 {
				return nil, p.errorf(tok.line, "endif without matching if")
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1].cond
		return nil, p.errorf(open.line, "if block for %q is never closed", open.path)
	}
	return root, nil
}

func (p *parser) lineAt(offset int) int {
	return 1 + strings.Count(p.src[:offset], "\n")
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &errs.Error{
		Kind: errs.KindTemplate,
		Op:   "braces: compile",
		Path: p.name,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// validPath accepts column names built from letters, digits, '_', '-' and
// dot separated segments.
func validPath(path string) bool {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
		return false
	}
	for _, r := range path {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}
