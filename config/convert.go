package config

import (
	"time"

	"github.com/teranos/cbindgen/explorer"
	"github.com/teranos/cbindgen/mapper"
	"github.com/teranos/cbindgen/pipeline"
)

// ExplorerOptions converts the [explorer] table
func (c *Config) ExplorerOptions() explorer.Options {
	e := c.Explorer
	return explorer.Options{
		Functions:          e.Functions,
		Variables:          e.Variables,
		EnumConstants:      e.EnumConstants,
		MacroObjects:       e.MacroObjects,
		FunctionFilter:     e.FunctionFilter,
		VariableFilter:     e.VariableFilter,
		EnumConstantFilter: e.EnumConstantFilter,
		MacroFilter:        e.MacroFilter,
		OpaqueTypes:        e.OpaqueTypes,
		IncludeSystem:      e.IncludeSystem,
		FullFilePaths:      e.FullFilePaths,
		IgnoredFiles:       e.IgnoredFiles,
		TypeAliases:        e.TypeAliases,
	}
}

// MapperOptions converts the [mapper] table. Configured system aliases
// extend the built-in ones.
func (c *Config) MapperOptions() mapper.Options {
	opts := c.Mapper
	opts.SystemAliases = mapper.DefaultSystemAliases()
	return opts.WithSystemAliases(c.Mapper.SystemAliases)
}

// PipelinePlatforms converts the [[platforms]] entries. Clang arguments
// apply to every platform ahead of its own.
func (c *Config) PipelinePlatforms() []pipeline.Platform {
	out := make([]pipeline.Platform, len(c.Platforms))
	for i, p := range c.Platforms {
		args := append(append([]string{}, c.ClangArgs...), p.Args...)
		out[i] = pipeline.Platform{
			Name:          p.Name,
			Triple:        p.Triple,
			GOOS:          p.GOOS,
			GOARCH:        p.GOARCH,
			Args:          args,
			SystemAliases: p.SystemAliases,
		}
	}
	return out
}

// Request builds a pipeline request running up to stage
func (c *Config) Request(stage pipeline.Stage) pipeline.Request {
	return pipeline.Request{
		Header:    c.Header,
		Platforms: c.PipelinePlatforms(),
		Explorer:  c.ExplorerOptions(),
		Mapper:    c.MapperOptions(),
		Package:   c.Package,
		OutputDir: c.OutputDir,
		Stage:     stage,
		Workers:   c.Workers,
	}
}

// Debounce is the watch debounce period
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// WatchPaths are the files whose change reruns generate
func (c *Config) WatchPaths() []string {
	paths := []string{c.Header}
	if c.Path != "" {
		paths = append(paths, c.Path)
	}
	if c.TablesFile != "" {
		paths = append(paths, c.TablesFile)
	}
	return append(paths, c.Watch.Extra...)
}
