package commands

import (
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/config"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/pipeline"
)

// ExtractCmd writes the C model bundle
var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the per-platform C model as JSON",
	Long: `Run the explorer for every configured platform and write the resulting
C models as one JSON bundle. The bundle carries a format version so other
tools can check compatibility before reading it.

Examples:
  cbindgen extract                     # bundle to stdout
  cbindgen extract -o png.json         # bundle to a file
  cbindgen extract --platform linux-amd64`,
	RunE: runExtract,
}

func init() {
	addRunFlags(ExtractCmd)
	ExtractCmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")

	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", out)
		}
		defer f.Close()
		w = f
	}
	if err := extract(cmd, cfg, w); err != nil {
		return err
	}
	if out != "-" {
		pterm.Success.Printf("Wrote %s\n", out)
	}
	return nil
}

// extract runs the explorer stage and encodes the bundle of every
// platform that succeeded
func extract(cmd *cobra.Command, cfg *config.Config, w io.Writer) error {
	log := logger.Named("extract")
	parser, err := newParser(cfg, log)
	if err != nil {
		return err
	}

	results, err := pipeline.New(parser, log).Run(commandContext(cmd), cfg.Request(pipeline.StageExtract))
	if err != nil {
		return err
	}
	if err := cmodel.Encode(w, pipeline.Bundle(cfg.Header, results)); err != nil {
		return err
	}
	return report(cmd.ErrOrStderr(), cfg, results)
}
