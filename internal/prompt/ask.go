package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-contactgen/internal/config"
)

// Engines lists the choices offered for the template engine question.
var Engines = []string{"braces", "pongo2"}

// Settings asks for the table, template, output directory and engine,
// offering the current values as defaults. cfg is only updated when every
// question was answered.
func Settings(ctx context.Context, d Driver, cfg *config.Config) error {
	next := *cfg

	var err error
	if next.Table, err = d.Input(ctx, InputConfig{
		Message:   "Contact list (CSV):",
		Default:   cfg.Table,
		Help:      "Delimited file whose header includes a file_name column.",
		Validator: required("contact list"),
	}); err != nil {
		return err
	}
	if next.Template, err = d.Input(ctx, InputConfig{
		Message:   "Template:",
		Default:   cfg.Template,
		Validator: required("template"),
	}); err != nil {
		return err
	}
	if next.Output, err = d.Input(ctx, InputConfig{
		Message:   "Output directory:",
		Default:   cfg.Output,
		Validator: required("output directory"),
	}); err != nil {
		return err
	}
	if next.Engine, err = d.Select(ctx, SelectConfig{
		Message: "Template engine:",
		Options: Engines,
		Default: cfg.Engine,
	}); err != nil {
		return err
	}

	next.Table = strings.TrimSpace(next.Table)
	next.Template = strings.TrimSpace(next.Template)
	next.Output = strings.TrimSpace(next.Output)
	*cfg = next
	return nil
}

// ConfirmOverwrite asks before writing into a directory that already has
// entries. It returns true without asking when dir is missing or empty.
func ConfirmOverwrite(ctx context.Context, d Driver, dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}
	return d.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("%s already contains %d entries. Existing files with the same name will be replaced. Continue?", dir, len(entries)),
		Default: false,
	})
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}
