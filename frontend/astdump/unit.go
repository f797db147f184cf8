package astdump

import (
	"strings"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
)

// unit implements frontend.TranslationUnit over a decoded document
type unit struct {
	dm       DataModel
	root     *cursor
	file     string
	system   map[string]bool
	tags     map[string]*cursor // "struct S", "union U", "enum E"
	typedefs map[string]*cursor
	layouts  map[*cursor]*recordLayout
	anonSeq  int
}

func (u *unit) Root() frontend.Cursor              { return u.root }
func (u *unit) Diagnostics() []frontend.Diagnostic { return nil }
func (u *unit) Close()                             {}

func (u *unit) CharSigned() bool { return u.dm.CharSigned }

func (u *unit) BuiltinSize(kind frontend.TypeKind) int64 {
	if kind == frontend.TypeCharS && !u.dm.CharSigned {
		kind = frontend.TypeCharU
	}
	return u.dm.Size(kind)
}

var callConvNames = map[string]frontend.CallingConv{
	"":           frontend.CallConvDefault,
	"cdecl":      frontend.CallConvC,
	"c":          frontend.CallConvC,
	"stdcall":    frontend.CallConvStdCall,
	"fastcall":   frontend.CallConvFastCall,
	"sysv":       frontend.CallConvSysV,
	"win64":      frontend.CallConvWin64,
	"aapcs":      frontend.CallConvAAPCS,
	"vectorcall": frontend.CallConvVectorCall,
	"thiscall":   frontend.CallConvOther,
}

// build turns a decoded document into a translation unit for dm
func build(doc *document, dm DataModel) (*unit, error) {
	u := &unit{
		dm:       dm,
		file:     doc.File,
		system:   make(map[string]bool),
		tags:     make(map[string]*cursor),
		typedefs: make(map[string]*cursor),
		layouts:  make(map[*cursor]*recordLayout),
	}
	u.root = &cursor{u: u, kind: frontend.CursorTranslationUnit, name: doc.File, typ: invalidType}
	for _, f := range doc.Files {
		u.system[f.Path] = f.System
	}

	declared := make(map[string]bool)
	for _, d := range doc.Decls {
		if d.Kind == "typedef" {
			declared[d.Name] = true
		}
	}

	b := &builder{u: u}
	for i, bt := range dm.builtinTypedefs() {
		if declared[bt.name] {
			continue
		}
		u.system[bt.file] = true
		b.typedef(declSpec{Name: bt.name, Type: typeSpec{Expr: bt.target}}, frontend.Location{File: bt.file, Line: i + 1, Column: 1, System: true})
	}

	for i, d := range doc.Decls {
		if err := b.decl(d, i); err != nil {
			return nil, err
		}
	}
	// resolving may queue more work, so the length is re-read every iteration
	for i := 0; i < len(b.pending); i++ {
		if err := b.pending[i](); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// builder creates cursors first and resolves type expressions once every
// tag and typedef of the document is known
type builder struct {
	u       *unit
	pending []func() error
}

func (b *builder) location(d declSpec, index int) frontend.Location {
	file := d.File
	if file == "" {
		file = b.u.file
	}
	line := d.Line
	if line == 0 {
		line = index + 1
	}
	col := d.Column
	if col == 0 {
		col = 1
	}
	return frontend.Location{File: file, Line: line, Column: col, System: b.u.system[file]}
}

func (b *builder) add(c *cursor) {
	c.parent = b.u.root
	b.u.root.children = append(b.u.root.children, c)
}

func (b *builder) decl(d declSpec, index int) error {
	loc := b.location(d, index)
	linkage := frontend.LinkageExternal
	if d.Static {
		linkage = frontend.LinkageInternal
	}

	switch d.Kind {
	case "struct", "union":
		if d.Name == "" {
			return errors.Wrapf(errors.ErrParse, "decl %d: %s without a tag", index, d.Kind)
		}
		rec := b.record(d.Kind == "union", d.Name, d.Fields, d.Opaque, loc)
		b.add(rec)
		return b.bindTag(rec)
	case "enum":
		e := b.enum(d.Name, d.Type.Expr, d.Constants, loc)
		b.add(e)
		if d.Name != "" {
			return b.bindTag(e)
		}
		return nil
	case "typedef":
		if d.Type.isZero() {
			return errors.Wrapf(errors.ErrParse, "typedef %s has no type", d.Name)
		}
		b.typedef(d, loc)
		return nil
	case "function":
		return b.function(d, loc, linkage)
	case "variable":
		v := &cursor{u: b.u, kind: frontend.CursorVariable, name: d.Name, loc: loc, linkage: linkage}
		b.add(v)
		b.resolveLater(d.Type.Expr, loc, func(t *ctype) { v.typ = t })
		return nil
	case "macro":
		m := &cursor{u: b.u, kind: frontend.CursorMacroDefinition, name: d.Name, loc: loc, fnLike: d.FunctionLike, typ: invalidType}
		m.tokens = append([]frontend.Token{{Kind: frontend.TokenIdentifier, Text: d.Name}}, Tokenize(d.Tokens)...)
		b.add(m)
		return nil
	default:
		return errors.Wrapf(errors.ErrParse, "decl %d: unknown kind %q", index, d.Kind)
	}
}

func (b *builder) bindTag(c *cursor) error {
	key := c.typ.tag
	existing, ok := b.u.tags[key]
	switch {
	case !ok:
		b.u.tags[key] = c
	case existing.opaque && !c.opaque:
		b.u.tags[key] = c
	case !existing.opaque && !c.opaque:
		return errors.Wrapf(errors.ErrParse, "%s: redefinition of %s", c.loc, key)
	}
	return nil
}

func (b *builder) nextAnonLocation(loc frontend.Location) frontend.Location {
	b.u.anonSeq++
	loc.Column = 1 + b.u.anonSeq
	return loc
}

func (b *builder) record(union bool, name string, fields []fieldSpec, opaque bool, loc frontend.Location) *cursor {
	kind, keyword := frontend.CursorStruct, "struct"
	if union {
		kind, keyword = frontend.CursorUnion, "union"
	}
	rec := &cursor{u: b.u, kind: kind, name: name, loc: loc, opaque: opaque, anonymous: name == ""}
	t := &ctype{u: b.u, kind: frontend.TypeRecord, decl: rec}
	if name != "" {
		t.tag = keyword + " " + name
		t.spelling = t.tag
	} else {
		t.spelling = keyword + " (anonymous at " + loc.String() + ")"
	}
	rec.typ = t

	for _, f := range fields {
		f := f
		if f.Type.Record != nil {
			inner := b.record(f.Type.Record.Union, "", f.Type.Record.Fields, false, b.nextAnonLocation(loc))
			inner.parent = rec
			rec.children = append(rec.children, inner)
			if f.Name == "" {
				inner.anonMember = true
				continue
			}
			field := &cursor{u: b.u, kind: frontend.CursorField, name: f.Name, loc: loc, parent: rec, offset: f.Offset, bits: f.Bits}
			field.typ = &ctype{u: b.u, kind: frontend.TypeElaborated, inner: inner.typ, spelling: inner.typ.spelling}
			rec.children = append(rec.children, field)
			continue
		}
		field := &cursor{u: b.u, kind: frontend.CursorField, name: f.Name, loc: loc, parent: rec, offset: f.Offset, bits: f.Bits}
		rec.children = append(rec.children, field)
		b.resolveLater(f.Type.Expr, loc, func(t *ctype) { field.typ = t })
	}
	return rec
}

func (b *builder) enum(name, integer string, constants []constSpec, loc frontend.Location) *cursor {
	e := &cursor{u: b.u, kind: frontend.CursorEnum, name: name, loc: loc, anonymous: name == ""}
	t := &ctype{u: b.u, kind: frontend.TypeEnum, decl: e}
	if name != "" {
		t.tag = "enum " + name
		t.spelling = t.tag
	} else {
		t.spelling = "enum (anonymous at " + loc.String() + ")"
	}
	e.typ = t

	next, negative := int64(0), false
	for _, c := range constants {
		if c.Value != nil {
			next = *c.Value
		}
		if next < 0 {
			negative = true
		}
		e.children = append(e.children, &cursor{
			u: b.u, kind: frontend.CursorEnumConstant, name: c.Name, loc: loc,
			parent: e, enumValue: next, typ: t,
		})
		next++
	}

	if integer == "" {
		integer = "unsigned int"
		if negative {
			integer = "int"
		}
	}
	b.resolveLater(integer, loc, func(it *ctype) { e.enumType = it })
	return e
}

func (b *builder) typedef(d declSpec, loc frontend.Location) {
	td := &cursor{u: b.u, kind: frontend.CursorTypedef, name: d.Name, loc: loc}
	td.typ = &ctype{u: b.u, kind: frontend.TypeTypedef, spelling: d.Name, decl: td}
	b.u.typedefs[d.Name] = td

	switch {
	case d.Type.Record != nil:
		rec := b.record(d.Type.Record.Union, "", d.Type.Record.Fields, false, b.nextAnonLocation(loc))
		b.add(rec)
		td.underlying = &ctype{u: b.u, kind: frontend.TypeElaborated, inner: rec.typ, spelling: rec.typ.spelling}
	case d.Type.IsEnum:
		e := b.enum("", "", d.Type.Enum, b.nextAnonLocation(loc))
		b.add(e)
		td.underlying = &ctype{u: b.u, kind: frontend.TypeElaborated, inner: e.typ, spelling: e.typ.spelling}
	default:
		b.resolveLater(d.Type.Expr, loc, func(t *ctype) { td.underlying = t })
	}
	b.add(td)
}

func (b *builder) function(d declSpec, loc frontend.Location, linkage frontend.Linkage) error {
	cc, ok := callConvNames[strings.ToLower(d.CallConv)]
	if !ok {
		return errors.Wrapf(errors.ErrParse, "%s: unknown calling convention %q", loc, d.CallConv)
	}
	ret := d.Return
	if ret == "" {
		ret = "void"
	}

	fn := &cursor{u: b.u, kind: frontend.CursorFunction, name: d.Name, loc: loc, linkage: linkage, variadic: d.Variadic}
	ft := &ctype{u: b.u, kind: frontend.TypeFunctionProto, variadic: d.Variadic, cc: cc}
	ft.params = make([]*ctype, len(d.Params))
	fn.typ = ft

	for i, p := range d.Params {
		i := i
		arg := &cursor{u: b.u, kind: frontend.CursorParam, name: p.Name, loc: loc, parent: fn}
		fn.args = append(fn.args, arg)
		fn.children = append(fn.children, arg)
		b.resolveLater(p.Type, loc, func(t *ctype) {
			arg.typ = t
			ft.params[i] = t
		})
	}
	b.resolveLater(ret, loc, func(t *ctype) {
		ft.result = t
	})
	b.pending = append(b.pending, func() error {
		ft.spelling = spellFunction(ft, "")
		return nil
	})
	b.add(fn)
	return nil
}

func (b *builder) resolveLater(expr string, loc frontend.Location, set func(*ctype)) {
	b.pending = append(b.pending, func() error {
		if expr == "" {
			return errors.Wrapf(errors.ErrParse, "%s: missing type", loc)
		}
		e, err := parseTypeExpr(expr)
		if err != nil {
			return errors.Wrapf(err, "%s", loc)
		}
		t, err := b.resolve(e, loc)
		if err != nil {
			return err
		}
		set(t)
		return nil
	})
}

// resolve binds a parsed type expression to the unit's declarations
func (b *builder) resolve(e *typeExpr, loc frontend.Location) (*ctype, error) {
	u := b.u
	switch e.op {
	case opPointer:
		inner, err := b.resolve(e.inner, loc)
		if err != nil {
			return nil, err
		}
		t := &ctype{u: u, kind: frontend.TypePointer, inner: inner, isConst: e.isConst}
		t.spelling = spellDerived(t.kind, inner, 0)
		return t, nil
	case opArray:
		inner, err := b.resolve(e.inner, loc)
		if err != nil {
			return nil, err
		}
		t := &ctype{u: u, kind: frontend.TypeConstantArray, inner: inner, length: e.length}
		if e.length < 0 {
			t.kind = frontend.TypeIncompleteArray
		}
		t.spelling = spellDerived(t.kind, inner, e.length)
		return t, nil
	case opFunction:
		result, err := b.resolve(e.inner, loc)
		if err != nil {
			return nil, err
		}
		fn := &ctype{u: u, kind: frontend.TypeFunctionProto, result: result, variadic: e.variadic, cc: e.cc}
		for _, p := range e.params {
			pt, err := b.resolve(p, loc)
			if err != nil {
				return nil, err
			}
			fn.params = append(fn.params, pt)
		}
		fn.spelling = spellFunction(fn, "")
		if e.cc != frontend.CallConvDefault {
			return &ctype{u: u, kind: frontend.TypeAttributed, inner: fn, spelling: fn.spelling}, nil
		}
		return fn, nil
	}

	if e.builtin != frontend.TypeInvalid {
		kind := e.builtin
		if kind == frontend.TypeCharS && !u.dm.CharSigned {
			kind = frontend.TypeCharU
		}
		t := &ctype{u: u, kind: kind, spelling: e.base, isConst: e.isConst}
		if e.complex {
			return &ctype{u: u, kind: frontend.TypeComplex, inner: t, spelling: "_Complex " + e.base, isConst: e.isConst}, nil
		}
		return t, nil
	}

	if keyword, tag, ok := strings.Cut(e.base, " "); ok {
		key := keyword + " " + tag
		if _, known := u.tags[key]; !known {
			b.forward(keyword, tag, loc)
		}
		named := u.tags[key].typ
		return &ctype{u: u, kind: frontend.TypeElaborated, inner: named, spelling: key, isConst: e.isConst}, nil
	}

	td, ok := u.typedefs[e.base]
	if !ok {
		return nil, errors.Wrapf(errors.ErrParse, "%s: unknown type name %q", loc, e.base)
	}
	return &ctype{u: u, kind: frontend.TypeTypedef, spelling: e.base, decl: td, isConst: e.isConst}, nil
}

// forward declares a tag that is only referenced, as clang does for
// "struct S *" without a prior declaration
func (b *builder) forward(keyword, tag string, loc frontend.Location) {
	var c *cursor
	if keyword == "enum" {
		c = &cursor{u: b.u, kind: frontend.CursorEnum, name: tag, loc: loc, opaque: true}
		c.typ = &ctype{u: b.u, kind: frontend.TypeEnum, decl: c, tag: "enum " + tag, spelling: "enum " + tag}
	} else {
		c = b.record(keyword == "union", tag, nil, true, loc)
	}
	c.parent = b.u.root
	b.u.tags[c.typ.tag] = c
}
