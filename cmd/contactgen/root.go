package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	contactgen "github.com/goliatone/go-contactgen"
	"github.com/goliatone/go-contactgen/internal/config"
	"github.com/goliatone/go-contactgen/internal/logging"
	"github.com/goliatone/go-contactgen/internal/prompt"
	"github.com/goliatone/go-contactgen/pkg/generator"
)

// errDeclined is returned when the user refuses to write into a non-empty
// output directory.
var errDeclined = errors.New("generation cancelled")

type deps struct {
	prompter func() prompt.Driver
}

func defaultDeps() deps {
	return deps{
		prompter: func() prompt.Driver { return prompt.NewSurveyDriver() },
	}
}

type rootFlags struct {
	table       string
	template    string
	output      string
	configPath  string
	engine      string
	delimiter   string
	quiet       bool
	verbose     bool
	dryRun      bool
	interactive bool
}

func newRootCmd(d deps) *cobra.Command {
	flags := &rootFlags{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:           "contactgen",
		Short:         "Generate one HTML page per contact from a CSV list and a template",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, d, flags)
		},
	}
	cmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	f := cmd.Flags()
	f.StringVarP(&flags.table, "csv", "f", defaults.Table, "Path to the contact list")
	f.StringVarP(&flags.template, "template", "t", defaults.Template, "Path to the template")
	f.StringVarP(&flags.output, "output", "o", defaults.Output, "Output directory")
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file (default "+config.DefaultFile+" when present)")
	f.StringVarP(&flags.engine, "engine", "e", defaults.Engine, "Template engine: braces or pongo2")
	f.StringVarP(&flags.delimiter, "delimiter", "d", "", `Field delimiter, a single character or "tab" (default: from file extension)`)
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Only log errors and skip the summary")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Log every generated file")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Render every row without writing files")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "Prompt for paths before generating")

	cmd.AddCommand(newInitCmd())
	return cmd
}

func runGenerate(cmd *cobra.Command, d deps, flags *rootFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load(flags.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, &cfg)

	if flags.interactive {
		driver := d.prompter()
		if err := prompt.Settings(ctx, driver, &cfg); err != nil {
			return err
		}
		if !cfg.DryRun {
			ok, err := prompt.ConfirmOverwrite(ctx, driver, cfg.Output)
			if err != nil {
				return err
			}
			if !ok {
				return errDeclined
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	core, err := cfg.ToCore()
	if err != nil {
		return err
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.ResolveLevel(cfg.Logging.Level, flags.verbose, flags.quiet), cfg.Logging.Format)
	logger.Debug("configuration resolved", "config", cfg.String())

	report, err := contactgen.Generate(ctx, core, contactgen.WithLogger(logger))
	if err != nil {
		return err
	}
	if !flags.quiet {
		printSummary(cmd.OutOrStdout(), report)
	}
	return nil
}

// applyFlags overlays flags the user actually set, so config file values are
// not clobbered by flag defaults.
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("csv") {
		cfg.Table = flags.table
	}
	if changed("template") {
		cfg.Template = flags.template
	}
	if changed("output") {
		cfg.Output = flags.output
	}
	if changed("engine") {
		cfg.Engine = flags.engine
	}
	if changed("delimiter") {
		cfg.Delimiter = flags.delimiter
	}
	if changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
}

func printSummary(w io.Writer, report generator.Report) {
	verb := "Generated"
	if report.DryRun {
		verb = "Would generate"
	}
	fmt.Fprintf(w, "%s %d file(s) in %s\n", verb, report.Rows, report.OutputDir)
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a sample contacts.csv and template.html",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			written, err := contactgen.WriteStarter(dir, force)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(written) == 0 {
				fmt.Fprintf(out, "Starter files already present in %s (use --force to replace them)\n", filepath.Clean(dir))
				return nil
			}
			for _, path := range written {
				fmt.Fprintf(out, "Wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace existing starter files")
	return cmd
}
