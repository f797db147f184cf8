package config

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
)

// Tables are the case-sensitive name maps kept outside the main config
//
//	[renames]
//	png_free = "Release"
//
//	[prefixes]
//	PNG_ = ""
type Tables struct {
	Renames       map[string]string `toml:"renames"`
	Prefixes      map[string]string `toml:"prefixes"`
	SystemAliases map[string]string `toml:"system_aliases"`
	TypeAliases   map[string]string `toml:"type_aliases"`
}

// LoadTables reads a tables file. Unknown keys are an error.
func LoadTables(path string) (*Tables, error) {
	var t Tables
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tables file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.NewInvalidConfigError("%s: unknown keys %v", path, keys)
	}
	logger.Debugw("loaded name tables",
		logger.FieldFile, path,
		"renames", len(t.Renames),
		"prefixes", len(t.Prefixes),
	)
	return &t, nil
}

// apply merges the tables over c; table entries win
func (t *Tables) apply(c *Config) {
	c.Mapper.Renames = merge(c.Mapper.Renames, t.Renames)
	c.Mapper.Prefixes = merge(c.Mapper.Prefixes, t.Prefixes)
	c.Mapper.SystemAliases = merge(c.Mapper.SystemAliases, t.SystemAliases)
	c.Explorer.TypeAliases = merge(c.Explorer.TypeAliases, t.TypeAliases)
}

func merge(base, over map[string]string) map[string]string {
	if len(over) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
