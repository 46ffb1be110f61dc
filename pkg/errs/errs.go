// Package errs defines the error taxonomy shared by the table reader, the
// template engines, and the batch generator. Every failure surfaced by the
// pipeline is an *Error carrying a Kind plus enough context (path, line, row,
// column, field) to diagnose it.
package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindIO covers files or directories that cannot be read, created, or written.
	KindIO Kind = iota + 1
	// KindParse covers malformed delimited-text input.
	KindParse
	// KindSchema covers a required column missing from the header.
	KindSchema
	// KindTemplate covers malformed template syntax found while compiling.
	KindTemplate
	// KindRender covers a row that cannot be rendered or named.
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindTemplate:
		return "template"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrIO       = &Error{Kind: KindIO}
	ErrParse    = &Error{Kind: KindParse}
	ErrSchema   = &Error{Kind: KindSchema}
	ErrTemplate = &Error{Kind: KindTemplate}
	ErrRender   = &Error{Kind: KindRender}
)

// Error is the concrete error type returned by the pipeline.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "table: load".
	Op string
	// Path is the file or directory involved, if any.
	Path string
	// Line is the 1-based source line (table or template), 0 when unknown.
	Line int
	// Row is the 1-based data row index, 0 when not row specific.
	Row int
	// Column names the table column involved, if any.
	Column string
	// Field names the template field involved, if any.
	Field string
	// Msg is a human readable description; Err is the wrapped cause.
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")

	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "path "+strconv.Quote(e.Path))
	}
	if e.Line > 0 {
		ctx = append(ctx, "line "+strconv.Itoa(e.Line))
	}
	if e.Row > 0 {
		ctx = append(ctx, "row "+strconv.Itoa(e.Row))
	}
	if e.Column != "" {
		ctx = append(ctx, "column "+strconv.Quote(e.Column))
	}
	if e.Field != "" {
		ctx = append(ctx, "field "+strconv.Quote(e.Field))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}

	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind so callers can write errors.Is(err, errs.ErrSchema).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a non-nil err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
