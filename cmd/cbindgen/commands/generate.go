package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cbindgen/config"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/pipeline"
)

// GenerateCmd renders one Go file per platform
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Go bindings for every platform",
	Long: `Extract, map and render Go bindings for every configured platform.
Each platform produces <package>_<goos>_<goarch>.go in the output directory,
guarded by a build constraint.

With --watch the bindings are regenerated whenever the header, the config
file or the tables file changes. Stop with Ctrl+C.

Examples:
  cbindgen generate
  cbindgen generate -o internal/png --package png
  cbindgen generate --watch`,
	RunE: runGenerate,
}

func init() {
	addRunFlags(GenerateCmd)
	GenerateCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
	GenerateCmd.Flags().String("package", "", "Go package name (overrides config)")
	GenerateCmd.Flags().Bool("watch", false, "Regenerate when inputs change")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return generate(ctx, cmd, cfg)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := generate(ctx, cmd, cfg); err != nil {
		pterm.Warning.Println(err.Error())
	}
	w, err := pipeline.NewWatcher(cfg.WatchPaths(), cfg.Debounce(), logger.Named("watch"))
	if err != nil {
		return err
	}
	pterm.Info.Printf("Watching %d files, press Ctrl+C to stop\n", len(cfg.WatchPaths()))
	return w.Watch(ctx, func(ctx context.Context, changed []string) error {
		// the config itself may have changed
		next, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = next
		return generate(ctx, cmd, cfg)
	})
}

func generate(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	log := logger.Named("generate")
	parser, err := newParser(cfg, log)
	if err != nil {
		return err
	}

	results, err := pipeline.New(parser, log).Run(ctx, cfg.Request(pipeline.StageEmit))
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err == nil {
			pterm.Success.Printf("%s -> %s\n", res.Platform.Name, res.Output)
		}
	}
	return report(cmd.ErrOrStderr(), cfg, results)
}
