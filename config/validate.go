package config

import (
	"go/token"

	"github.com/teranos/cbindgen/errors"
)

// Frontends lists the accepted values of frontend
var Frontends = []string{"clang", "astdump"}

// Validate checks that the configuration is usable for a run
func (c *Config) Validate() error {
	if c.Header == "" {
		return errors.NewInvalidConfigError("header is required")
	}
	if !token.IsIdentifier(c.Package) {
		return errors.NewInvalidConfigError("package %q is not a Go identifier", c.Package)
	}
	if !validFrontend(c.Frontend) {
		return errors.NewInvalidConfigError("frontend must be one of %v, got %q", Frontends, c.Frontend)
	}
	if c.Workers < 0 {
		return errors.NewInvalidConfigError("workers must be >= 0, got %d", c.Workers)
	}
	if c.Watch.DebounceMs < 0 {
		return errors.NewInvalidConfigError("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}

	if len(c.Platforms) == 0 {
		return errors.NewInvalidConfigError("at least one [[platforms]] entry is required")
	}
	seen := make(map[string]bool, len(c.Platforms))
	for i, p := range c.Platforms {
		if p.Name == "" {
			return errors.NewInvalidConfigError("platforms[%d].name is required", i)
		}
		if p.Triple == "" {
			return errors.NewInvalidConfigError("platforms[%d].triple is required (%s)", i, p.Name)
		}
		if seen[p.Name] {
			return errors.NewInvalidConfigError("platform %q is listed twice", p.Name)
		}
		seen[p.Name] = true
	}

	for name, goName := range c.Mapper.Renames {
		if !token.IsIdentifier(goName) {
			return errors.NewInvalidConfigError("mapper.renames[%q] = %q is not a Go identifier", name, goName)
		}
	}
	return nil
}

func validFrontend(name string) bool {
	for _, f := range Frontends {
		if f == name {
			return true
		}
	}
	return false
}
