package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/explorer"
	"github.com/teranos/cbindgen/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Package != "bindings" {
		t.Errorf("expected default package 'bindings', got %q", cfg.Package)
	}
	if cfg.Frontend != "clang" {
		t.Errorf("expected default frontend 'clang', got %q", cfg.Frontend)
	}
	if !cfg.Explorer.Functions || !cfg.Explorer.MacroObjects {
		t.Errorf("expected every entity kind enabled, got %+v", cfg.Explorer)
	}
	assert.Equal(t, DefaultPlatforms, cfg.Platforms)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)

	// Default() must agree with SetDefaults
	def := Default()
	assert.Equal(t, cfg.Package, def.Package)
	assert.Equal(t, cfg.Platforms, def.Platforms)
	assert.Equal(t, cfg.Explorer, def.Explorer)
	assert.Equal(t, cfg.Watch.DebounceMs, def.Watch.DebounceMs)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, `
header = "include/png.h"
package = "png"
output_dir = "gen"
frontend = "astdump"
workers = 2

[explorer]
variables = false
opaque_types = ["png_struct"]

[explorer.function_filter]
allow = ["png_*"]
block = ["png_debug*"]

[mapper]
idiomatic_names = true

[mapper.renames]
png_free = "Release"

[[platforms]]
name = "linux-amd64"
triple = "x86_64-pc-linux-gnu"
goos = "linux"
goarch = "amd64"

[[platforms]]
name = "windows-386"
triple = "i686-pc-windows-msvc"
goos = "windows"
goarch = "386"
args = ["-DWIN32"]
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(dir, "include", "png.h"), cfg.Header)
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.OutputDir)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "png", cfg.Package)
	assert.Equal(t, 2, cfg.Workers)

	opts := cfg.ExplorerOptions()
	assert.True(t, opts.Functions)
	assert.False(t, opts.Variables)
	assert.Equal(t, []string{"png_struct"}, opts.OpaqueTypes)
	assert.Equal(t, explorer.Blocked, opts.FunctionFilter.Check("png_debug_dump"))
	assert.Equal(t, explorer.NotAllowed, opts.FunctionFilter.Check("free"))

	mopts := cfg.MapperOptions()
	assert.True(t, mopts.IdiomaticNames)
	assert.Equal(t, "Release", mopts.Renames["png_free"])
	assert.Equal(t, "uintptr", mopts.SystemAliases["FILE"])

	require.Len(t, cfg.Platforms, 2)
	plats := cfg.PipelinePlatforms()
	assert.Equal(t, "windows-386", plats[1].Name)
	assert.Equal(t, []string{"-DWIN32"}, plats[1].Args)

	req := cfg.Request(pipeline.StageEmit)
	assert.NoError(t, req.Validate())
	assert.Equal(t, cfg.Header, req.Header)
	assert.Equal(t, pipeline.StageEmit, req.Stage)
	assert.Equal(t, 2, req.Workers)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, "header = \"demo.h\"\npackage = \"demo\"\n")
	t.Setenv("CBINDGEN_PACKAGE", "fromenv")
	t.Setenv("CBINDGEN_MAPPER_IDIOMATIC_NAMES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Package)
	assert.True(t, cfg.Mapper.IdiomaticNames)

	// LoadFromFile ignores the environment
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Package)
}

func TestTablesFileKeepsCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "names.toml", `
[renames]
png_get_IHDR = "GetIHDR"

[prefixes]
PNG_ = ""

[type_aliases]
DWORD = "uint32"
`)
	path := writeFile(t, dir, FileName, `
header = "demo.h"
tables_file = "names.toml"

[mapper.prefixes]
png_ = ""
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "names.toml"), cfg.TablesFile)
	assert.Equal(t, "GetIHDR", cfg.Mapper.Renames["png_get_IHDR"])
	assert.Equal(t, map[string]string{"png_": "", "PNG_": ""}, cfg.Mapper.Prefixes)
	assert.Equal(t, "uint32", cfg.ExplorerOptions().TypeAliases["DWORD"])
	assert.Contains(t, cfg.WatchPaths(), cfg.TablesFile)
}

func TestTablesFileRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "names.toml", "[renamez]\nfoo = \"Bar\"\n")

	_, err := LoadTables(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "renamez")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Header = "demo.h"
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with a header are valid", mutate: func(*Config) {}},
		{name: "missing header", mutate: func(c *Config) { c.Header = "" }, wantErr: true},
		{name: "package must be an identifier", mutate: func(c *Config) { c.Package = "my-lib" }, wantErr: true},
		{name: "unknown frontend", mutate: func(c *Config) { c.Frontend = "gcc" }, wantErr: true},
		{name: "astdump frontend", mutate: func(c *Config) { c.Frontend = "astdump" }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: true},
		{name: "zero workers uses GOMAXPROCS", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.DebounceMs = -5 }, wantErr: true},
		{name: "no platforms", mutate: func(c *Config) { c.Platforms = nil }, wantErr: true},
		{name: "platform without triple", mutate: func(c *Config) { c.Platforms[0].Triple = "" }, wantErr: true},
		{name: "duplicate platform", mutate: func(c *Config) { c.Platforms[1].Name = c.Platforms[0].Name }, wantErr: true},
		{name: "rename to a non-identifier", mutate: func(c *Config) { c.Mapper.Renames = map[string]string{"a": "1a"} }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", FileName)
	require.NoError(t, WriteDefault(path, "demo.h", false))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "demo.h"), cfg.Header)
	assert.Equal(t, DefaultPlatforms, cfg.Platforms)

	err = WriteDefault(path, "demo.h", false)
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
	assert.NoError(t, WriteDefault(path, "other.h", true))
}

func TestWatchPaths(t *testing.T) {
	cfg := Default()
	cfg.Header = "demo.h"
	cfg.Path = "cbindgen.toml"
	cfg.Watch.Extra = []string{"extra.h"}
	assert.Equal(t, []string{"demo.h", "cbindgen.toml", "extra.h"}, cfg.WatchPaths())
	assert.Equal(t, int64(500), cfg.Debounce().Milliseconds())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, "header = \"demo.h\"\n")
	writeFile(t, dir, DotEnvFile, "CBINDGEN_PACKAGE=dotenv\nCBINDGEN_WORKERS=3\n")
	t.Setenv("CBINDGEN_WORKERS", "5")
	// godotenv sets variables in the process; make sure the test leaves none behind
	t.Setenv("CBINDGEN_PACKAGE", "")
	require.NoError(t, os.Unsetenv("CBINDGEN_PACKAGE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.Package)
	assert.Equal(t, 5, cfg.Workers, "variables already set win over .env")
}
