package mapper

import (
	"fmt"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/errors"
)

// fixedWidth are aliases that always resolve to their measured primitive
var fixedWidth = map[string]bool{
	"int8_t": true, "uint8_t": true, "int16_t": true, "uint16_t": true,
	"int32_t": true, "uint32_t": true, "int64_t": true, "uint64_t": true,
	"intptr_t": true, "uintptr_t": true, "size_t": true, "ssize_t": true,
	"ptrdiff_t": true, "wchar_t": true,
}

// embeddable are Go element types an inline array holds without wrapping
var embeddable = map[string]bool{
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "bool": true,
}

// transparent reports whether an alias is replaced by its target
func transparent(t cmodel.CType) bool {
	return t.Kind == cmodel.KindAlias && (t.IsBuiltin || fixedWidth[t.Name])
}

func integer(size int64, signed bool) string {
	switch size {
	case 1, 2, 4, 8:
		if signed {
			return fmt.Sprintf("int%d", size*8)
		}
		return fmt.Sprintf("uint%d", size*8)
	}
	return fmt.Sprintf("[%d]byte", size)
}

// primitive resolves a C builtin by its measured size
func primitive(t cmodel.CType) string {
	switch t.Name {
	case "void":
		return ""
	case "_Bool":
		return "bool"
	case "float":
		return "float32"
	case "double":
		return "float64"
	case "long double":
		if t.Size == 8 {
			return "float64"
		}
		return fmt.Sprintf("[%d]byte", t.Size)
	case "__int128", "unsigned __int128":
		return "[2]uint64"
	}
	return integer(t.Size, t.Signed)
}

// goType resolves a C type name to the Go type expression that binds it
func (r *run) goType(cname string) (string, error) {
	if g, ok := r.opts.SystemAliases[cname]; ok {
		return g, nil
	}
	if g, ok := r.declNames[cname]; ok {
		return g, nil
	}
	if g, ok := r.opts.Renames[cname]; ok {
		return g, nil
	}
	if g, ok := r.resolved[cname]; ok {
		return g, nil
	}

	t, err := r.types.Lookup(cname)
	if err != nil {
		return "", err
	}
	g, err := r.resolve(t)
	if err != nil {
		return "", err
	}
	r.resolved[cname] = g
	return g, nil
}

func (r *run) resolve(t cmodel.CType) (string, error) {
	switch t.Kind {
	case cmodel.KindPrimitive:
		return primitive(t), nil
	case cmodel.KindAlias:
		if t.Name == "uintptr_t" {
			return "uintptr", nil
		}
		if transparent(t) {
			return r.goType(t.Inner)
		}
	case cmodel.KindPointer:
		return r.pointer(t)
	case cmodel.KindArray:
		elem, err := r.goType(t.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", t.ArrayLength, elem), nil
	}
	return "", errors.AssertionFailedf("type %q of kind %s has no Go name", t.Name, t.Kind)
}

func (r *run) pointer(t cmodel.CType) (string, error) {
	switch r.baseName(t.Inner) {
	case "char":
		return "CString", nil
	case "wchar_t":
		return "WString", nil
	case "void":
		return "unsafe.Pointer", nil
	}
	inner, err := r.goType(t.Inner)
	if err != nil {
		return "", err
	}
	if inner == "" {
		return "unsafe.Pointer", nil
	}
	return "*" + inner, nil
}

// baseName follows signed-agnostic char and wchar_t spellings through
// system aliases
func (r *run) baseName(cname string) string {
	for i := 0; i < 16; i++ {
		if cname == "wchar_t" || cname == "char" || cname == "void" {
			return cname
		}
		t, err := r.types.Lookup(cname)
		if err != nil || !transparent(t) {
			return cname
		}
		cname = t.Inner
	}
	return cname
}

// paramType resolves a parameter type; arrays decay to pointers
func (r *run) paramType(cname string) (string, error) {
	if t, err := r.types.Lookup(cname); err == nil && t.Kind == cmodel.KindArray {
		if _, aliased := r.opts.SystemAliases[cname]; !aliased {
			elem, err := r.goType(t.Inner)
			if err != nil {
				return "", err
			}
			return "*" + elem, nil
		}
	}
	return r.goType(cname)
}
