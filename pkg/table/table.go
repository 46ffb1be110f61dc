// Package table loads delimited contact lists into an immutable, header-keyed
// row model. The first record is the header; every following record is a row
// that must have exactly as many fields as the header.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-contactgen/pkg/errs"
)

// FileNameColumn is the column every table must carry; it names the output file.
const FileNameColumn = "file_name"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row maps column names to the field values of a single data row.
type Row map[string]string

// Table is the parsed, immutable representation of a delimited file.
type Table struct {
	source string
	header []string
	rows   [][]string
}

// Option configures how a table is parsed.
type Option func(*config)

type config struct {
	delimiter rune
	comment   rune
	required  []string
}

// WithDelimiter overrides the field delimiter. Zero keeps the default.
func WithDelimiter(r rune) Option {
	return func(cfg *config) {
		if r != 0 {
			cfg.delimiter = r
		}
	}
}

// WithComment ignores lines beginning with r.
func WithComment(r rune) Option {
	return func(cfg *config) {
		cfg.comment = r
	}
}

// WithRequiredColumns replaces the set of columns the header must contain.
// The default set is FileNameColumn.
func WithRequiredColumns(columns ...string) Option {
	return func(cfg *config) {
		cfg.required = append([]string(nil), columns...)
	}
}

// DelimiterFor picks the delimiter implied by a file extension: tab for .tsv,
// comma otherwise.
func DelimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// Load opens path and parses it. Open and read failures are errs.KindIO.
func Load(path string, options ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		e := errs.Wrap(errs.KindIO, "table: open", err)
		e.Path = path
		return nil, e
	}
	defer f.Close()

	opts := append([]Option{WithDelimiter(DelimiterFor(path))}, options...)
	return Parse(f, path, opts...)
}

// Parse reads a delimited table from r. source is only used to label errors.
func Parse(r io.Reader, source string, options ...Option) (*Table, error) {
	cfg := &config{
		delimiter: ',',
		required:  []string{FileNameColumn},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		e := errs.Wrap(errs.KindIO, "table: read", err)
		e.Path = source
		return nil, e
	}

	reader := csv.NewReader(br)
	reader.Comma = cfg.delimiter
	reader.Comment = cfg.comment
	// 0 pins every record to the header's field count.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		e := errs.New(errs.KindParse, "table: parse", "missing header record")
		e.Path = source
		return nil, e
	}
	if err != nil {
		return nil, readError(source, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(source, err)
		}
		rows = append(rows, record)
	}

	for _, column := range cfg.required {
		if !slices.Contains(header, column) {
			e := errs.New(errs.KindSchema, "table: validate", "header does not contain required column")
			e.Path = source
			e.Column = column
			return nil, e
		}
	}

	return &Table{
		source: source,
		header: header,
		rows:   rows,
	}, nil
}

// Source returns the path or label the table was loaded from.
func (t *Table) Source() string {
	return t.source
}

// Header returns a copy of the column names in file order.
func (t *Table) Header() []string {
	return slices.Clone(t.header)
}

// Len reports the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the raw fields of data row i (0-based).
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

// Mapping zips the header with data row i.
func (t *Table) Mapping(i int) Row {
	row := t.rows[i]
	out := make(Row, len(t.header))
	for col, name := range t.header {
		out[name] = row[col]
	}
	return out
}

// Mappings returns one Row per data row, in file order. The result is built
// fresh on every call.
func (t *Table) Mappings() []Row {
	out := make([]Row, 0, len(t.rows))
	for i := range t.rows {
		out = append(out, t.Mapping(i))
	}
	return out
}

// All yields (index, mapping) pairs lazily, building each mapping on demand.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := range t.rows {
			if !yield(i, t.Mapping(i)) {
				return
			}
		}
	}
}

func skipBOM(br *bufio.Reader) error {
	peek, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if bytes.Equal(peek, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

func readError(source string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		e := errs.Wrap(errs.KindParse, "table: parse", perr.Err)
		e.Path = source
		e.Line = perr.Line
		return e
	}
	e := errs.Wrap(errs.KindIO, "table: read", err)
	e.Path = source
	return e
}
