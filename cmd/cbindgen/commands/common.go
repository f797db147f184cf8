// Package commands implements the cbindgen subcommands
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/cbindgen/config"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/frontend/astdump"
	"github.com/teranos/cbindgen/frontend/clang"
	"github.com/teranos/cbindgen/pipeline"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// addRunFlags registers the flags shared by extract and generate
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("header", "", "Header to bind (overrides config)")
	cmd.Flags().String("frontend", "", "Front-end: clang or astdump (overrides config)")
	cmd.Flags().StringSlice("platform", nil, "Only run these platforms (by name)")
	cmd.Flags().Bool("strict", false, "Fail when any error diagnostic is reported")
	cmd.Flags().Int("workers", -1, "Parallel platforms (0 = GOMAXPROCS)")
}

// loadConfig reads the configuration and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("header") {
		cfg.Header, _ = flags.GetString("header")
	}
	if flags.Changed("frontend") {
		cfg.Frontend, _ = flags.GetString("frontend")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("package") {
		cfg.Package, _ = flags.GetString("package")
	}
	if flags.Changed("output") && cmd.Name() == "generate" {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("platform") {
		names, _ := flags.GetStringSlice("platform")
		if cfg.Platforms, err = selectPlatforms(cfg.Platforms, names); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func selectPlatforms(all []config.PlatformConfig, names []string) ([]config.PlatformConfig, error) {
	byName := make(map[string]config.PlatformConfig, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
	out := make([]config.PlatformConfig, 0, len(names))
	for _, n := range names {
		p, ok := byName[n]
		if !ok {
			return nil, errors.NewInvalidConfigError("unknown platform %q", n)
		}
		out = append(out, p)
	}
	return out, nil
}

// newParser picks the front-end named in the configuration
func newParser(cfg *config.Config, log *zap.SugaredLogger) (frontend.Parser, error) {
	switch cfg.Frontend {
	case "clang":
		return clang.New(log.Named("clang")), nil
	case "astdump":
		return astdump.New(log.Named("astdump")), nil
	}
	return nil, errors.NewInvalidConfigError("unknown frontend %q", cfg.Frontend)
}

// renderDiagnostics prints ds as a table. Nothing is printed when ds is empty.
func renderDiagnostics(w io.Writer, ds []diag.Diagnostic) error {
	if len(ds) == 0 {
		return nil
	}
	data := pterm.TableData{{"Platform", "Severity", "Code", "Entity", "Location", "Message"}}
	for _, d := range ds {
		data = append(data, []string{d.Platform, severity(d.Severity), string(d.Code), d.Entity, d.Position(), d.Message})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render diagnostics")
	}
	fmt.Fprintln(w, table)
	return nil
}

func severity(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return pterm.Red(s.String())
	case diag.SeverityWarning:
		return pterm.Yellow(s.String())
	}
	return s.String()
}

// report prints diagnostics and platform failures of one run. It returns an
// error when a platform failed, or in strict mode when an error diagnostic
// was reported.
func report(w io.Writer, cfg *config.Config, results []pipeline.PlatformResult) error {
	ds := pipeline.Diagnostics(results)
	if err := renderDiagnostics(w, ds); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintln(w, pterm.Error.Sprintf("%s: %v", res.Platform.Name, res.Err))
		}
	}
	if failed > 0 {
		return errors.Wrapf(pipeline.FirstError(results), "%d of %d platforms failed", failed, len(results))
	}
	if cfg.Strict && diag.HasErrors(ds) {
		errs := 0
		for _, d := range ds {
			if d.Severity >= diag.SeverityError {
				errs++
			}
		}
		return errors.WithHint(
			errors.Newf("strict mode: %d error diagnostics", errs),
			"fix the header, block the entities, or drop --strict",
		)
	}
	return nil
}
