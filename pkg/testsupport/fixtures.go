// Package testsupport holds fixture and golden-file helpers shared by the
// package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contactgen/pkg/render/template/braces"
	"github.com/goliatone/go-contactgen/pkg/table"
)

// UpdateEnv names the variable that makes golden helpers rewrite fixtures
// instead of comparing against them.
const UpdateEnv = "UPDATE_GOLDENS"

// MustLoadTable loads a delimited fixture, failing the test on error.
func MustLoadTable(t *testing.T, path string, opts ...table.Option) *table.Table {
	t.Helper()

	tbl, err := table.Load(path, opts...)
	if err != nil {
		t.Fatalf("load table %s: %v", path, err)
	}
	return tbl
}

// MustParseTable parses inline delimited text, failing the test on error.
func MustParseTable(t *testing.T, text string, opts ...table.Option) *table.Table {
	t.Helper()

	tbl, err := table.Parse(strings.NewReader(text), "inline.csv", opts...)
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}
	return tbl
}

// MustCompileFile compiles a braces template fixture.
func MustCompileFile(t *testing.T, path string) *braces.Template {
	t.Helper()

	return MustCompile(t, filepath.Base(path), MustReadGoldenString(t, path))
}

// MustCompile compiles inline braces template text.
func MustCompile(t *testing.T, name, text string) *braces.Template {
	t.Helper()

	tmpl, err := braces.Compile(name, text)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return tmpl
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv(UpdateEnv) == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// AssertGoldenFile compares the file at gotPath with the golden at
// goldenPath, or refreshes the golden when UPDATE_GOLDENS is set.
func AssertGoldenFile(t *testing.T, goldenPath, gotPath string) {
	t.Helper()

	got := MustReadGolden(t, gotPath)
	if WriteMaybeGolden(t, goldenPath, got) {
		return
	}
	if diff := CompareGolden(MustReadGoldenString(t, goldenPath), string(got)); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", filepath.Base(gotPath), diff)
	}
}

// CompareGolden returns a cmp diff, empty when want and got match.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}
