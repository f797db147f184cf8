// Package config loads cbindgen.toml and turns it into the options of each
// stage. Keys may be overridden from the environment with the CBINDGEN_
// prefix, e.g. CBINDGEN_PACKAGE or CBINDGEN_MAPPER_IDIOMATIC_NAMES.
//
// Viper folds map keys to lower case. Case-sensitive tables (renames,
// prefixes, system and type aliases) belong in the file named by
// tables_file, which is read verbatim.
package config

import (
	"github.com/teranos/cbindgen/explorer"
	"github.com/teranos/cbindgen/mapper"
)

const (
	// FileName is the project configuration file searched for by Load
	FileName = "cbindgen.toml"
	// DotEnvFile may hold CBINDGEN_ overrides next to the config file
	DotEnvFile = ".env"
)

// Config is the whole cbindgen configuration
type Config struct {
	Header    string `mapstructure:"header" toml:"header"`
	Package   string `mapstructure:"package" toml:"package"`
	OutputDir string `mapstructure:"output_dir" toml:"output_dir"`
	// Frontend is clang or astdump
	Frontend  string   `mapstructure:"frontend" toml:"frontend"`
	ClangArgs []string `mapstructure:"clang_args" toml:"clang_args"`
	Workers   int      `mapstructure:"workers" toml:"workers"` // 0 = GOMAXPROCS
	Strict    bool     `mapstructure:"strict" toml:"strict"`
	// TablesFile holds the case-sensitive name tables
	TablesFile string `mapstructure:"tables_file" toml:"tables_file,omitempty"`

	Explorer  ExplorerConfig   `mapstructure:"explorer" toml:"explorer"`
	Mapper    mapper.Options   `mapstructure:"mapper" toml:"mapper"`
	Platforms []PlatformConfig `mapstructure:"platforms" toml:"platforms"`
	Watch     WatchConfig      `mapstructure:"watch" toml:"watch"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `mapstructure:"-" toml:"-"`
}

// ExplorerConfig mirrors explorer.Options
type ExplorerConfig struct {
	Functions     bool `mapstructure:"functions" toml:"functions"`
	Variables     bool `mapstructure:"variables" toml:"variables"`
	EnumConstants bool `mapstructure:"enum_constants" toml:"enum_constants"`
	MacroObjects  bool `mapstructure:"macro_objects" toml:"macro_objects"`

	FunctionFilter     explorer.NameFilter `mapstructure:"function_filter" toml:"function_filter"`
	VariableFilter     explorer.NameFilter `mapstructure:"variable_filter" toml:"variable_filter"`
	EnumConstantFilter explorer.NameFilter `mapstructure:"enum_constant_filter" toml:"enum_constant_filter"`
	MacroFilter        explorer.NameFilter `mapstructure:"macro_filter" toml:"macro_filter"`

	OpaqueTypes   []string          `mapstructure:"opaque_types" toml:"opaque_types"`
	IncludeSystem bool              `mapstructure:"include_system" toml:"include_system"`
	FullFilePaths bool              `mapstructure:"full_file_paths" toml:"full_file_paths"`
	IgnoredFiles  []string          `mapstructure:"ignored_files" toml:"ignored_files"`
	TypeAliases   map[string]string `mapstructure:"type_aliases" toml:"type_aliases"`
}

// PlatformConfig is one [[platforms]] entry
type PlatformConfig struct {
	Name          string            `mapstructure:"name" toml:"name"`
	Triple        string            `mapstructure:"triple" toml:"triple"`
	GOOS          string            `mapstructure:"goos" toml:"goos"`
	GOARCH        string            `mapstructure:"goarch" toml:"goarch"`
	Args          []string          `mapstructure:"args" toml:"args,omitempty"`
	SystemAliases map[string]string `mapstructure:"system_aliases" toml:"system_aliases,omitempty"`
}

// WatchConfig configures generate --watch
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" toml:"debounce_ms"`
	// Extra are further files whose change triggers a rerun
	Extra []string `mapstructure:"extra" toml:"extra"`
}
