package astdump

import (
	"fmt"
	"strings"

	"github.com/teranos/cbindgen/frontend"
)

// ctype implements frontend.Type over a resolved fixture type
type ctype struct {
	u        *unit
	kind     frontend.TypeKind
	spelling string
	isConst  bool

	inner  *ctype // pointee, element, named or modified type
	length int64

	// records and enums bind by tag so every reference sees the definition
	tag  string
	decl *cursor

	result   *ctype
	params   []*ctype
	variadic bool
	cc       frontend.CallingConv
}

var invalidType = &ctype{kind: frontend.TypeInvalid}

func (t *ctype) Kind() frontend.TypeKind { return t.kind }
func (t *ctype) IsConst() bool           { return t.isConst }

func (t *ctype) Spelling() string {
	s := t.spelling
	if t.isConst && !strings.HasPrefix(s, "const ") {
		if t.kind == frontend.TypePointer {
			return s + " const"
		}
		return "const " + s
	}
	return s
}

func (t *ctype) declaration() *cursor {
	switch t.kind {
	case frontend.TypeRecord, frontend.TypeEnum:
		if t.tag != "" {
			if d, ok := t.u.tags[t.tag]; ok {
				return d
			}
		}
		return t.decl
	case frontend.TypeTypedef:
		return t.decl
	case frontend.TypeElaborated:
		return t.inner.declaration()
	}
	return nil
}

func (t *ctype) Declaration() frontend.Cursor {
	if d := t.declaration(); d != nil {
		return d
	}
	return nullCursor
}

func (t *ctype) Canonical() frontend.Type {
	return t.canonical()
}

func (t *ctype) canonical() *ctype {
	switch t.kind {
	case frontend.TypeTypedef:
		c := t.decl.underlying.canonical()
		if t.isConst && !c.isConst {
			cp := *c
			cp.isConst = true
			return &cp
		}
		return c
	case frontend.TypeElaborated, frontend.TypeAttributed:
		return t.inner.canonical()
	case frontend.TypePointer, frontend.TypeConstantArray, frontend.TypeIncompleteArray:
		cp := *t
		cp.inner = t.inner.canonical()
		cp.spelling = spellDerived(cp.kind, cp.inner, cp.length)
		return &cp
	}
	return t
}

func (t *ctype) Pointee() frontend.Type {
	if t.kind == frontend.TypePointer {
		return t.inner
	}
	return invalidType
}

func (t *ctype) Element() frontend.Type {
	if t.kind == frontend.TypeConstantArray || t.kind == frontend.TypeIncompleteArray || t.kind == frontend.TypeComplex {
		return t.inner
	}
	return invalidType
}

func (t *ctype) ArrayLength() int64 {
	if t.kind == frontend.TypeConstantArray {
		return t.length
	}
	return -1
}

func (t *ctype) Named() frontend.Type {
	if t.kind == frontend.TypeElaborated {
		return t.inner
	}
	return invalidType
}

func (t *ctype) Modified() frontend.Type {
	if t.kind == frontend.TypeAttributed {
		return t.inner
	}
	return invalidType
}

func (t *ctype) function() *ctype {
	switch t.kind {
	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto:
		return t
	case frontend.TypeAttributed, frontend.TypeElaborated:
		return t.inner.function()
	case frontend.TypeTypedef:
		return t.decl.underlying.function()
	}
	return nil
}

func (t *ctype) Result() frontend.Type {
	if fn := t.function(); fn != nil {
		return fn.result
	}
	return invalidType
}

func (t *ctype) Params() []frontend.Type {
	fn := t.function()
	if fn == nil {
		return nil
	}
	out := make([]frontend.Type, len(fn.params))
	for i, p := range fn.params {
		out[i] = p
	}
	return out
}

func (t *ctype) IsVariadic() bool {
	fn := t.function()
	return fn != nil && fn.variadic
}

func (t *ctype) CallingConv() frontend.CallingConv {
	if fn := t.function(); fn != nil {
		if fn.cc == frontend.CallConvDefault {
			return frontend.CallConvC
		}
		return fn.cc
	}
	return frontend.CallConvOther
}

func (t *ctype) Size() int64 {
	switch t.kind {
	case frontend.TypePointer:
		return t.u.dm.Pointer
	case frontend.TypeTypedef:
		return t.decl.underlying.Size()
	case frontend.TypeElaborated, frontend.TypeAttributed:
		return t.inner.Size()
	case frontend.TypeRecord:
		d := t.declaration()
		if d == nil || d.opaque {
			return -2
		}
		return t.u.layoutOf(d).size
	case frontend.TypeEnum:
		d := t.declaration()
		if d == nil || d.enumType == nil {
			return -2
		}
		return d.enumType.Size()
	case frontend.TypeConstantArray:
		elem := t.inner.Size()
		if elem < 0 {
			return -1
		}
		return elem * t.length
	case frontend.TypeIncompleteArray:
		return -2
	case frontend.TypeComplex:
		return 2 * t.inner.Size()
	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto, frontend.TypeInvalid:
		return -1
	}
	if t.kind.IsPrimitive() {
		return t.u.dm.Size(t.kind)
	}
	return -1
}

func (t *ctype) Align() int64 {
	switch t.kind {
	case frontend.TypePointer:
		return t.u.dm.Pointer
	case frontend.TypeTypedef:
		return t.decl.underlying.Align()
	case frontend.TypeElaborated, frontend.TypeAttributed:
		return t.inner.Align()
	case frontend.TypeRecord:
		d := t.declaration()
		if d == nil || d.opaque {
			return -2
		}
		return t.u.layoutOf(d).align
	case frontend.TypeEnum:
		d := t.declaration()
		if d == nil || d.enumType == nil {
			return -2
		}
		return d.enumType.Align()
	case frontend.TypeConstantArray, frontend.TypeIncompleteArray, frontend.TypeComplex:
		return t.inner.Align()
	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto, frontend.TypeInvalid:
		return -1
	}
	if t.kind.IsPrimitive() {
		return t.u.dm.Align(t.kind)
	}
	return -1
}

func (t *ctype) OffsetOf(field string) int64 {
	switch t.kind {
	case frontend.TypeTypedef:
		return t.decl.underlying.OffsetOf(field)
	case frontend.TypeElaborated, frontend.TypeAttributed:
		return t.inner.OffsetOf(field)
	case frontend.TypeRecord:
		d := t.declaration()
		if d == nil || d.opaque {
			return -2
		}
		return t.u.offsetOf(d, field)
	}
	return -1
}

func spellDerived(kind frontend.TypeKind, inner *ctype, length int64) string {
	switch kind {
	case frontend.TypePointer:
		if fn := inner.function(); fn != nil {
			return spellFunction(fn, "(*)")
		}
		return inner.Spelling() + " *"
	case frontend.TypeConstantArray:
		return fmt.Sprintf("%s [%d]", inner.Spelling(), length)
	case frontend.TypeIncompleteArray:
		return inner.Spelling() + " []"
	}
	return ""
}

func spellFunction(fn *ctype, declarator string) string {
	params := make([]string, 0, len(fn.params)+1)
	for _, p := range fn.params {
		params = append(params, p.Spelling())
	}
	if fn.variadic {
		params = append(params, "...")
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return fmt.Sprintf("%s %s(%s)", fn.result.Spelling(), declarator, strings.Join(params, ", "))
}
