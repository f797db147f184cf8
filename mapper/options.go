package mapper

// Options controls how C names and types are projected onto Go
type Options struct {
	// Renames maps a C name to a Go name. It takes priority over every other rule.
	Renames map[string]string `mapstructure:"renames" toml:"renames"`
	// Prefixes replaces a C prefix with a Go prefix, e.g. "png_" -> ""
	Prefixes map[string]string `mapstructure:"prefixes" toml:"prefixes"`
	// SystemAliases replaces a platform C type by a Go type and suppresses its declaration
	SystemAliases map[string]string `mapstructure:"system_aliases" toml:"system_aliases"`
	// IdiomaticNames converts declaration names to Go casing
	IdiomaticNames bool `mapstructure:"idiomatic_names" toml:"idiomatic_names"`
	// IdiomaticParams converts parameter and field names to lowerCamelCase
	IdiomaticParams bool `mapstructure:"idiomatic_params" toml:"idiomatic_params"`
}

// DefaultSystemAliases are the handles every platform binds as uintptr
func DefaultSystemAliases() map[string]string {
	return map[string]string{
		"FILE":  "uintptr",
		"FILE*": "uintptr",
	}
}

// DefaultOptions keeps C names and binds FILE handles as uintptr
func DefaultOptions() Options {
	return Options{SystemAliases: DefaultSystemAliases()}
}

// WithSystemAliases returns a copy of o whose system aliases are extended by extra
func (o Options) WithSystemAliases(extra map[string]string) Options {
	merged := make(map[string]string, len(o.SystemAliases)+len(extra))
	for k, v := range o.SystemAliases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	o.SystemAliases = merged
	return o
}
