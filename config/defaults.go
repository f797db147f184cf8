package config

import (
	"github.com/spf13/viper"
)

// DefaultPlatforms are the targets generated when none are configured
var DefaultPlatforms = []PlatformConfig{
	{Name: "linux-amd64", Triple: "x86_64-pc-linux-gnu", GOOS: "linux", GOARCH: "amd64"},
	{Name: "linux-arm64", Triple: "aarch64-unknown-linux-gnu", GOOS: "linux", GOARCH: "arm64"},
	{Name: "darwin-arm64", Triple: "arm64-apple-darwin", GOOS: "darwin", GOARCH: "arm64"},
	{Name: "windows-amd64", Triple: "x86_64-pc-windows-msvc", GOOS: "windows", GOARCH: "amd64"},
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("header", "")
	v.SetDefault("package", "bindings")
	v.SetDefault("output_dir", ".")
	v.SetDefault("frontend", "clang")
	v.SetDefault("clang_args", []string{})
	v.SetDefault("workers", 0)
	v.SetDefault("strict", false)
	v.SetDefault("tables_file", "")

	// Every entity kind is a root by default
	v.SetDefault("explorer.functions", true)
	v.SetDefault("explorer.variables", true)
	v.SetDefault("explorer.enum_constants", true)
	v.SetDefault("explorer.macro_objects", true)
	v.SetDefault("explorer.include_system", false)
	v.SetDefault("explorer.full_file_paths", false)

	v.SetDefault("mapper.idiomatic_names", false)
	v.SetDefault("mapper.idiomatic_params", false)

	platforms := make([]map[string]interface{}, len(DefaultPlatforms))
	for i, p := range DefaultPlatforms {
		platforms[i] = map[string]interface{}{
			"name":   p.Name,
			"triple": p.Triple,
			"goos":   p.GOOS,
			"goarch": p.GOARCH,
		}
	}
	v.SetDefault("platforms", platforms)

	v.SetDefault("watch.debounce_ms", 500)
}

// Default returns the configuration SetDefaults describes
func Default() *Config {
	platforms := make([]PlatformConfig, len(DefaultPlatforms))
	copy(platforms, DefaultPlatforms)
	return &Config{
		Package:   "bindings",
		OutputDir: ".",
		Frontend:  "clang",
		ClangArgs: []string{},
		Explorer: ExplorerConfig{
			Functions:     true,
			Variables:     true,
			EnumConstants: true,
			MacroObjects:  true,
		},
		Platforms: platforms,
		Watch:     WatchConfig{DebounceMs: 500},
	}
}
