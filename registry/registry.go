// Package registry is the single source of truth for the C types of one
// platform run. At most one CType exists per name; an opaque placeholder is
// replaced once a complete definition is seen and never the other way round.
package registry

import (
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
)

// Outcome describes what Register did
type Outcome int

const (
	Inserted Outcome = iota // name was new
	Upgraded                // opaque placeholder replaced by a definition
	Kept                    // existing entry left untouched
)

// Registry maps type names to resolved types.
// It is owned by one explorer run and is not safe for concurrent use.
type Registry struct {
	types  map[string]cmodel.CType
	logger *zap.SugaredLogger
}

// New creates an empty registry
func New(log *zap.SugaredLogger) *Registry {
	return &Registry{
		types:  make(map[string]cmodel.CType),
		logger: logger.OrNop(log),
	}
}

// FromTypes builds a read-only index over an already extracted model
func FromTypes(types []cmodel.CType) *Registry {
	r := New(nil)
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register inserts t, or upgrades an opaque entry of the same name.
// Opaque registrations never replace a complete type.
func (r *Registry) Register(t cmodel.CType) Outcome {
	existing, ok := r.types[t.Name]
	if !ok {
		r.types[t.Name] = t
		return Inserted
	}
	if existing.IsOpaque() && !t.IsOpaque() {
		r.types[t.Name] = t
		r.logger.Debugw("upgraded opaque type", logger.FieldTypeName, t.Name, logger.FieldKind, t.Kind.String())
		return Upgraded
	}
	if existing.IsOpaque() && t.IsOpaque() && existing.Size == 0 && t.Size > 0 {
		existing.Size = t.Size
		existing.Align = t.Align
		r.types[t.Name] = existing
	}
	return Kept
}

// Lookup returns the type called name. A miss means a caller referenced a
// type it never registered, which is a programming error.
func (r *Registry) Lookup(name string) (cmodel.CType, error) {
	t, ok := r.types[name]
	if !ok {
		return cmodel.CType{}, errors.NewAssertionErrorWithWrappedErrf(errors.ErrTypeNotFound, "type %q", name)
	}
	return t, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// IsOpaque reports whether name is registered as an opaque placeholder
func (r *Registry) IsOpaque(name string) bool {
	t, ok := r.types[name]
	return ok && t.IsOpaque()
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	return len(r.types)
}

// Types returns a snapshot of every registered type sorted by name
func (r *Registry) Types() []cmodel.CType {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]cmodel.CType, 0, len(names))
	for _, name := range names {
		out = append(out, r.types[name])
	}
	return out
}
