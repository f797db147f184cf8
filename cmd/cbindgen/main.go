package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/cbindgen/cmd/cbindgen/commands"
	"github.com/teranos/cbindgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cbindgen",
	Short: "cbindgen - Go bindings for C libraries",
	Long: `cbindgen - Extract the ABI of a C header and generate Go bindings.

cbindgen walks a C header for every target platform, records the exact
layout of each function, record, enum and macro constant, and renders one
Go file per platform that loads the shared library at run time.

Available commands:
  extract  - Write the per-platform C model as a JSON bundle
  generate - Generate Go bindings for every platform
  config   - Create or show cbindgen.toml
  version  - Show version information

Examples:
  cbindgen config init --header include/png.h
  cbindgen extract -o png.json
  cbindgen generate --strict
  cbindgen generate --watch -v`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: nearest cbindgen.toml)")

	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
