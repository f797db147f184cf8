package explorer

import (
	"path/filepath"
	"strings"
)

// NameFilter selects entities of one kind by name. Block always wins; when
// Allow is non-empty only listed names pass. Entries may be glob patterns.
type NameFilter struct {
	Allow []string `mapstructure:"allow" toml:"allow"`
	Block []string `mapstructure:"block" toml:"block"`
}

// Verdict is the outcome of a NameFilter
type Verdict int

const (
	Accepted   Verdict = iota
	NotAllowed         // not on a non-empty allow list: silent skip
	Blocked            // on the block list: reported skip
)

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if strings.ContainsAny(p, "*?[") {
			if ok, _ := filepath.Match(p, name); ok {
				return true
			}
		}
	}
	return false
}

// Check classifies name against the filter
func (f NameFilter) Check(name string) Verdict {
	if matchAny(f.Block, name) {
		return Blocked
	}
	if len(f.Allow) > 0 && !matchAny(f.Allow, name) {
		return NotAllowed
	}
	return Accepted
}

// Options controls root discovery and type resolution
type Options struct {
	Functions     bool
	Variables     bool
	EnumConstants bool
	MacroObjects  bool

	FunctionFilter     NameFilter
	VariableFilter     NameFilter
	EnumConstantFilter NameFilter
	MacroFilter        NameFilter

	// OpaqueTypes are records registered opaque even when defined
	OpaqueTypes []string
	// IncludeSystem keeps declarations from system headers as roots
	IncludeSystem bool
	// FullFilePaths records absolute file names in locations instead of base names
	FullFilePaths bool
	// IgnoredFiles are paths, base names, directories or globs whose declarations are skipped
	IgnoredFiles []string
	// TypeAliases maps C type names to Go types for macro casts
	TypeAliases map[string]string
}

// DefaultOptions enables every entity kind
func DefaultOptions() Options {
	return Options{
		Functions:     true,
		Variables:     true,
		EnumConstants: true,
		MacroObjects:  true,
	}
}

func (o Options) isOpaque(name string) bool {
	return matchAny(o.OpaqueTypes, name)
}

func (o Options) isIgnored(file string) bool {
	if file == "" {
		return false
	}
	base := filepath.Base(file)
	for _, p := range o.IgnoredFiles {
		switch {
		case p == file || p == base:
			return true
		case strings.HasPrefix(file, strings.TrimSuffix(p, "/")+"/"):
			return true
		case strings.ContainsAny(p, "*?["):
			if ok, _ := filepath.Match(p, file); ok {
				return true
			}
			if ok, _ := filepath.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
