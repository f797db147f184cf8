package cmodel

// EntityKind discriminates the entities of a Model
type EntityKind int

const (
	EntityFunction EntityKind = iota
	EntityRecord
	EntityEnum
	EntityAlias
	EntityOpaque
	EntityFunctionPointer
	EntityMacro
	EntityVariable
)

func (k EntityKind) String() string {
	switch k {
	case EntityFunction:
		return "function"
	case EntityRecord:
		return "record"
	case EntityEnum:
		return "enum"
	case EntityAlias:
		return "alias"
	case EntityOpaque:
		return "opaque"
	case EntityFunctionPointer:
		return "function-pointer"
	case EntityMacro:
		return "macro"
	case EntityVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Entity is implemented only by the entity types of this package.
// Consumers switch on the concrete type and treat anything else as a
// programming error.
type Entity interface {
	EntityName() string
	EntityKind() EntityKind
	entity()
}

func (f Function) EntityName() string        { return f.Name }
func (r Record) EntityName() string          { return r.Name }
func (e Enum) EntityName() string            { return e.Name }
func (a Alias) EntityName() string           { return a.Name }
func (o Opaque) EntityName() string          { return o.Name }
func (p FunctionPointer) EntityName() string { return p.Name }
func (m Macro) EntityName() string           { return m.Name }
func (v Variable) EntityName() string        { return v.Name }

func (Function) EntityKind() EntityKind        { return EntityFunction }
func (Record) EntityKind() EntityKind          { return EntityRecord }
func (Enum) EntityKind() EntityKind            { return EntityEnum }
func (Alias) EntityKind() EntityKind           { return EntityAlias }
func (Opaque) EntityKind() EntityKind          { return EntityOpaque }
func (FunctionPointer) EntityKind() EntityKind { return EntityFunctionPointer }
func (Macro) EntityKind() EntityKind           { return EntityMacro }
func (Variable) EntityKind() EntityKind        { return EntityVariable }

func (Function) entity()        {}
func (Record) entity()          {}
func (Enum) entity()            {}
func (Alias) entity()           {}
func (Opaque) entity()          {}
func (FunctionPointer) entity() {}
func (Macro) entity()           {}
func (Variable) entity()        {}

// Entities lists every entity of the model grouped by kind, in EntityKind order
func (m *Model) Entities() []Entity {
	out := make([]Entity, 0, len(m.Functions)+len(m.Records)+len(m.Enums)+len(m.Aliases)+
		len(m.Opaques)+len(m.FunctionPointers)+len(m.Macros)+len(m.Variables))
	for _, e := range m.Functions {
		out = append(out, e)
	}
	for _, e := range m.Records {
		out = append(out, e)
	}
	for _, e := range m.Enums {
		out = append(out, e)
	}
	for _, e := range m.Aliases {
		out = append(out, e)
	}
	for _, e := range m.Opaques {
		out = append(out, e)
	}
	for _, e := range m.FunctionPointers {
		out = append(out, e)
	}
	for _, e := range m.Macros {
		out = append(out, e)
	}
	for _, e := range m.Variables {
		out = append(out, e)
	}
	return out
}

// TypeRefs returns every type name an entity refers to
func TypeRefs(e Entity) []string {
	switch v := e.(type) {
	case Function:
		refs := []string{v.Return}
		for _, p := range v.Params {
			refs = append(refs, p.Type)
		}
		return refs
	case FunctionPointer:
		refs := []string{v.Return}
		for _, p := range v.Params {
			refs = append(refs, p.Type)
		}
		return refs
	case Record:
		refs := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			refs = append(refs, f.Type)
		}
		return refs
	case Enum:
		return []string{v.Type}
	case Alias:
		return []string{v.Underlying}
	case Variable:
		return []string{v.Type}
	case Opaque, Macro:
		return nil
	default:
		return nil
	}
}
