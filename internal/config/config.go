// Package config loads the CLI configuration. Values come from built-in
// defaults, then an optional YAML file, then command-line flags; the result
// is validated once and converted into a contactgen.Config for the core.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	contactgen "github.com/goliatone/go-contactgen"
	"github.com/goliatone/go-contactgen/pkg/render/template/braces"
	"github.com/goliatone/go-contactgen/pkg/render/template/pongo"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "contactgen.yaml"

// Config holds all CLI configuration.
type Config struct {
	// Table is the contact list path (default: contacts.csv)
	Table string `yaml:"table"`

	// Template is the template path (default: template.html)
	Template string `yaml:"template"`

	// Output is the output directory (default: output)
	Output string `yaml:"output"`

	// Engine is the template engine: braces or pongo2 (default: braces)
	Engine string `yaml:"engine"`

	// Delimiter is a single character, or "tab"; empty picks it from the
	// table extension
	Delimiter string `yaml:"delimiter"`

	// DryRun renders every row without writing files (default: false)
	DryRun bool `yaml:"dry_run"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	core := contactgen.DefaultConfig()
	return Config{
		Table:    core.TablePath,
		Template: core.TemplatePath,
		Output:   core.OutputDir,
		Engine:   core.Engine,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path falls back to DefaultFile when it exists. A missing file is only an
// error when explicit is set.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// DelimiterRune converts Delimiter into the rune handed to the table reader.
// Zero means "pick from the file extension".
func (c Config) DelimiterRune() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", c.Delimiter)
	}
	return r, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Table) == "" {
		errs = append(errs, "table path is required")
	}
	if strings.TrimSpace(c.Template) == "" {
		errs = append(errs, "template path is required")
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, "output directory is required")
	}

	switch c.Engine {
	case braces.EngineName, pongo.EngineName:
	default:
		errs = append(errs, fmt.Sprintf("engine (%q) must be one of: %s, %s", c.Engine, braces.EngineName, pongo.EngineName))
	}

	if _, err := c.DelimiterRune(); err != nil {
		errs = append(errs, err.Error())
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ToCore converts a validated Config into the core configuration.
func (c Config) ToCore() (contactgen.Config, error) {
	delimiter, err := c.DelimiterRune()
	if err != nil {
		return contactgen.Config{}, fmt.Errorf("config: %w", err)
	}
	return contactgen.Config{
		TablePath:    c.Table,
		TemplatePath: c.Template,
		OutputDir:    c.Output,
		Engine:       c.Engine,
		Delimiter:    delimiter,
		DryRun:       c.DryRun,
	}, nil
}

// String returns a one-line summary for debug logging.
func (c Config) String() string {
	return fmt.Sprintf("Config{Table: %q, Template: %q, Output: %q, Engine: %q, Delimiter: %q, DryRun: %v, Logging: {Level: %q, Format: %q}}",
		c.Table, c.Template, c.Output, c.Engine, c.Delimiter, c.DryRun, c.Logging.Level, c.Logging.Format)
}
