package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teranos/cbindgen/errors"
)

// Load reads configuration from path, or from the nearest cbindgen.toml in
// the working directory or its parents when path is empty. Without a file
// only defaults and environment overrides apply. A .env file next to the
// config file seeds the environment; variables already set win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findProjectConfig()
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	return cfg.finish(path)
}

// LoadFromFile loads configuration from a specific file without environment overrides
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return cfg.finish(path)
}

// LoadWithViper decodes an already populated viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("CBINDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// finish resolves relative paths against the config file and merges the
// tables file
func (c *Config) finish(path string) (*Config, error) {
	c.Path = path
	if path != "" {
		dir := filepath.Dir(path)
		c.Header = resolve(dir, c.Header)
		c.OutputDir = resolve(dir, c.OutputDir)
		c.TablesFile = resolve(dir, c.TablesFile)
		for i, extra := range c.Watch.Extra {
			c.Watch.Extra[i] = resolve(dir, extra)
		}
	}
	if c.TablesFile != "" {
		tables, err := LoadTables(c.TablesFile)
		if err != nil {
			return nil, err
		}
		tables.apply(c)
	}
	return c, nil
}

// loadDotEnv reads the .env file beside path, or in the working directory
// when path is empty
func loadDotEnv(path string) error {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}
	env := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(env); err != nil {
		return nil
	}
	if err := godotenv.Load(env); err != nil {
		return errors.Wrapf(err, "failed to read %s", env)
	}
	return nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// findProjectConfig walks up from the working directory looking for cbindgen.toml
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
