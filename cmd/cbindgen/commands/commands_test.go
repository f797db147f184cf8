package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/config"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/pipeline"
)

const header = `
file: demo.h
decls:
  - kind: struct
    name: P
    fields:
      - {name: x, type: int32_t}
      - {name: pad_needed, type: char}
      - {name: y, type: int32_t}
  - kind: function
    name: area
    return: int
    params: [{name: p, type: "const struct P *"}]
  - {kind: macro, name: MAX, tokens: "100ULL"}
`

const configFile = `
header = "demo.yaml"
package = "demo"
frontend = "astdump"

[[platforms]]
name = "linux-amd64"
triple = "x86_64-pc-linux-gnu"
goos = "linux"
goarch = "amd64"
`

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.yaml"), []byte(header), 0o644))
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(configFile), 0o644))
	return path
}

func execute(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "cbindgen", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().StringP("config", "c", "", "")
	root.AddCommand(sub)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExtractWritesBundle(t *testing.T) {
	cfgPath := project(t)
	out := filepath.Join(t.TempDir(), "demo.json")

	_, err := execute(t, ExtractCmd, "extract", "--config", cfgPath, "-o", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	bundle, err := cmodel.Decode(f)
	require.NoError(t, err)

	m, ok := bundle.Model("linux-amd64")
	require.True(t, ok)
	rec, ok := m.Record("P")
	require.True(t, ok)
	assert.Equal(t, int64(12), rec.Size)
	require.Len(t, m.Constants, 1)
	assert.Equal(t, "uint64", m.Constants[0].Type)
	assert.Equal(t, "100", m.Constants[0].Value)
}

func TestGenerateWritesOneFilePerPlatform(t *testing.T) {
	cfgPath := project(t)
	dir := filepath.Join(t.TempDir(), "gen")

	_, err := execute(t, GenerateCmd, "generate", "--config", cfgPath, "-o", dir)
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(dir, "demo_linux_amd64.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "//go:build linux && amd64")
	assert.Contains(t, string(src), "package demo")
}

func TestConfigShowFormats(t *testing.T) {
	cfg := config.Default()
	cfg.Header = "demo.h"

	out, err := formatConfig(cfg, "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "# cbindgen configuration (defaults)")
	assert.Contains(t, out, "header = 'demo.h'")

	out, err = formatConfig(cfg, "json")
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "demo.h", decoded["Header"])

	out, err = formatConfig(cfg, "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "header: demo.h")

	_, err = formatConfig(cfg, "xml")
	assert.Error(t, err)
}

func TestSelectPlatforms(t *testing.T) {
	got, err := selectPlatforms(config.DefaultPlatforms, []string{"windows-amd64", "linux-amd64"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "windows-amd64", got[0].Name)

	_, err = selectPlatforms(config.DefaultPlatforms, []string{"plan9-mips"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestReportStrictMode(t *testing.T) {
	results := []pipeline.PlatformResult{{
		Platform: pipeline.Platform{Name: "linux-amd64"},
		Diagnostics: []diag.Diagnostic{{
			Severity: diag.SeverityError,
			Code:     diag.CodeIgnoredType,
			Message:  "long double is not supported",
			Entity:   "ld",
			Platform: "linux-amd64",
		}},
	}}
	cfg := config.Default()

	var buf bytes.Buffer
	require.NoError(t, report(&buf, cfg, results))
	assert.Contains(t, buf.String(), "long double is not supported")

	cfg.Strict = true
	err := report(&bytes.Buffer{}, cfg, results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode: 1 error diagnostics")
}

func TestReportPlatformFailure(t *testing.T) {
	results := []pipeline.PlatformResult{
		{Platform: pipeline.Platform{Name: "linux-amd64"}},
		{Platform: pipeline.Platform{Name: "windows-amd64"}, Err: errors.Mark(errors.New("no toolchain"), errors.ErrParse)},
	}
	var buf bytes.Buffer
	err := report(&buf, config.Default(), results)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParse))
	assert.Contains(t, err.Error(), "1 of 2 platforms failed")
	assert.Contains(t, buf.String(), "windows-amd64")
}
