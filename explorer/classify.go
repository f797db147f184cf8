package explorer

import (
	"fmt"
	"strings"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
)

var primitiveNames = map[frontend.TypeKind]string{
	frontend.TypeVoid:       "void",
	frontend.TypeBool:       "_Bool",
	frontend.TypeCharS:      "char",
	frontend.TypeCharU:      "char",
	frontend.TypeSChar:      "signed char",
	frontend.TypeUChar:      "unsigned char",
	frontend.TypeWChar:      "wchar_t",
	frontend.TypeChar16:     "char16_t",
	frontend.TypeChar32:     "char32_t",
	frontend.TypeShort:      "short",
	frontend.TypeUShort:     "unsigned short",
	frontend.TypeInt:        "int",
	frontend.TypeUInt:       "unsigned int",
	frontend.TypeLong:       "long",
	frontend.TypeULong:      "unsigned long",
	frontend.TypeLongLong:   "long long",
	frontend.TypeULongLong:  "unsigned long long",
	frontend.TypeInt128:     "__int128",
	frontend.TypeUInt128:    "unsigned __int128",
	frontend.TypeFloat:      "float",
	frontend.TypeDouble:     "double",
	frontend.TypeLongDouble: "long double",
}

func signedKind(k frontend.TypeKind) bool {
	switch k {
	case frontend.TypeCharS, frontend.TypeSChar, frontend.TypeWChar, frontend.TypeShort, frontend.TypeInt,
		frontend.TypeLong, frontend.TypeLongLong, frontend.TypeInt128,
		frontend.TypeFloat, frontend.TypeDouble, frontend.TypeLongDouble:
		return true
	}
	return false
}

// classified is the outcome of classifying one type
type classified struct {
	kind    NodeKind
	name    string
	typ     frontend.Type // the type after unwrapping
	decl    frontend.Cursor
	typedef bool
}

// unwrap strips elaborated, attributed and unexposed wrappers
func unwrap(t frontend.Type) (frontend.Type, error) {
	for i := 0; i < 64; i++ {
		switch t.Kind() {
		case frontend.TypeElaborated:
			t = t.Named()
		case frontend.TypeAttributed:
			t = t.Modified()
		case frontend.TypeUnexposed:
			c := t.Canonical()
			if c.Kind() == frontend.TypeUnexposed {
				return nil, errors.Wrapf(errors.ErrUnknownKind, "type %q is unexposed", t.Spelling())
			}
			t = c
		default:
			return t, nil
		}
	}
	return nil, errors.AssertionFailedf("type %q does not unwrap", t.Spelling())
}

func isFunction(t frontend.Type) bool {
	k := t.Kind()
	if k == frontend.TypeFunctionProto || k == frontend.TypeFunctionNoProto {
		return true
	}
	c := t.Canonical().Kind()
	return c == frontend.TypeFunctionProto || c == frontend.TypeFunctionNoProto
}

func declKey(c frontend.Cursor) string {
	loc := c.Location()
	return fmt.Sprintf("%s|%s:%d:%d", c.Kind(), loc.File, loc.Line, loc.Column)
}

// tagName names a record or enum declaration
func (e *Explorer) tagName(decl frontend.Cursor) string {
	if n, ok := e.anonNames[declKey(decl)]; ok {
		return n
	}
	if !decl.IsAnonymous() && decl.Spelling() != "" {
		return decl.Spelling()
	}
	loc := decl.Location()
	return fmt.Sprintf("anonymous_%d_%d", loc.Line, loc.Column)
}

// classify resolves t to exactly one node kind and its logical name.
// It never registers anything.
func (e *Explorer) classify(t frontend.Type) (classified, error) {
	u, err := unwrap(t)
	if err != nil {
		return classified{}, err
	}
	kind := u.Kind()

	if kind.IsPrimitive() {
		return classified{kind: NodePrimitive, name: primitiveNames[kind], typ: u}, nil
	}

	switch kind {
	case frontend.TypePointer:
		pointee, err := unwrap(u.Pointee())
		if err != nil {
			return classified{}, err
		}
		if pointee.Kind() == frontend.TypeTypedef && isFunction(pointee) {
			// pointer to a typedef'd function type takes the typedef name
			return classified{kind: NodeFunctionPointer, name: pointee.Declaration().Spelling(), typ: pointee.Canonical(), typedef: true}, nil
		}
		if isFunction(pointee) {
			name, err := e.signatureName(pointee)
			if err != nil {
				return classified{}, err
			}
			return classified{kind: NodeFunctionPointer, name: name, typ: pointee}, nil
		}
		inner, err := e.classify(pointee)
		if err != nil {
			return classified{}, err
		}
		return classified{kind: NodePointer, name: inner.name + "*", typ: u}, nil

	case frontend.TypeConstantArray, frontend.TypeIncompleteArray:
		elem, err := e.classify(u.Element())
		if err != nil {
			return classified{}, err
		}
		suffix := "[]"
		if kind == frontend.TypeConstantArray {
			suffix = fmt.Sprintf("[%d]", u.ArrayLength())
		}
		return classified{kind: NodeArray, name: elem.name + suffix, typ: u}, nil

	case frontend.TypeEnum:
		decl := u.Declaration()
		return classified{kind: NodeEnum, name: e.tagName(decl), typ: u, decl: decl}, nil

	case frontend.TypeRecord:
		decl := u.Declaration()
		name := e.tagName(decl)
		if e.opts.isOpaque(name) || u.Size() < 0 {
			return classified{kind: NodeOpaque, name: name, typ: u, decl: decl}, nil
		}
		return classified{kind: NodeRecord, name: name, typ: u, decl: decl}, nil

	case frontend.TypeTypedef:
		return e.classifyTypedef(u)

	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto:
		name, err := e.signatureName(u)
		if err != nil {
			return classified{}, err
		}
		return classified{kind: NodeFunctionPointer, name: name, typ: u}, nil
	}

	return classified{}, errors.Wrapf(errors.ErrUnknownKind, "type %q has kind %s", u.Spelling(), kind)
}

func (e *Explorer) classifyTypedef(t frontend.Type) (classified, error) {
	decl := t.Declaration()
	name := decl.Spelling()
	under, err := unwrap(decl.TypedefUnderlying())
	if err != nil {
		return classified{}, err
	}

	switch under.Kind() {
	case frontend.TypeRecord, frontend.TypeEnum:
		target := under.Declaration()
		if target.IsAnonymous() {
			// typedef struct { ... } name;
			key := declKey(target)
			if _, named := e.anonNames[key]; !named {
				e.anonNames[key] = name
			}
			return e.classify(under)
		}
		if e.tagName(target) == name {
			// typedef struct name name;
			return e.classify(under)
		}
	case frontend.TypeFunctionProto, frontend.TypeFunctionNoProto:
		return classified{kind: NodeFunctionPointer, name: name, typ: under, decl: decl, typedef: true}, nil
	case frontend.TypePointer:
		if isFunction(under.Pointee()) {
			fn, err := unwrap(under.Pointee())
			if err != nil {
				return classified{}, err
			}
			if fn.Kind() == frontend.TypeTypedef {
				fn = fn.Canonical()
			}
			return classified{kind: NodeFunctionPointer, name: name, typ: fn, decl: decl, typedef: true}, nil
		}
	}
	return classified{kind: NodeTypedef, name: name, typ: t, decl: decl}, nil
}

// signatureName spells a function type structurally: ret(*)(p1,p2)
func (e *Explorer) signatureName(fn frontend.Type) (string, error) {
	ret, err := e.classify(fn.Result())
	if err != nil {
		return "", err
	}
	params := fn.Params()
	parts := make([]string, 0, len(params)+1)
	for _, p := range params {
		c, err := e.classify(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, c.name)
	}
	if fn.IsVariadic() {
		parts = append(parts, "...")
	}
	return ret.name + "(*)(" + strings.Join(parts, ",") + ")", nil
}
