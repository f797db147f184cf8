package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cbindgen/config"
	"github.com/teranos/cbindgen/errors"
)

// ConfigCmd manages cbindgen.toml
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show cbindgen.toml",
	Long: `Create or show the cbindgen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (CBINDGEN_* prefix)
3. The file given with --config, or the nearest cbindgen.toml
4. Default values

Examples:
  cbindgen config init --header include/png.h
  cbindgen config show
  cbindgen config show --format json`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default cbindgen.toml",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().String("header", "", "Header to record in the new file")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configShowCmd.Flags().String("format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) == 1 {
		path = args[0]
	}
	header, _ := cmd.Flags().GetString("header")
	force, _ := cmd.Flags().GetBool("force")

	if err := config.WriteDefault(path, header, force); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, err := formatConfig(cfg, format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func formatConfig(cfg *config.Config, format string) (string, error) {
	source := cfg.Path
	if source == "" {
		source = "defaults"
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return fmt.Sprintf("# cbindgen configuration (%s)\n%s", source, data), nil
	case "toml":
		data, err := cfg.Marshal()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("# cbindgen configuration (%s)\n%s", source, data), nil
	}
	return "", errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
}
