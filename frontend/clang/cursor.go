package clang

import (
	"github.com/go-clang/clang-v13/clang"

	"github.com/teranos/cbindgen/frontend"
)

type cursor struct {
	u *unit
	c clang.Cursor
}

func wrapCursor(u *unit, c clang.Cursor) *cursor {
	return &cursor{u: u, c: c}
}

func (c *cursor) Kind() frontend.CursorKind { return cursorKind(c.c.Kind()) }
func (c *cursor) Spelling() string          { return c.c.Spelling() }
func (c *cursor) Type() frontend.Type       { return wrapType(c.u, c.c.Type()) }

func (c *cursor) Linkage() frontend.Linkage {
	switch c.c.Linkage() {
	case clang.Linkage_External, clang.Linkage_UniqueExternal:
		return frontend.LinkageExternal
	case clang.Linkage_Internal:
		return frontend.LinkageInternal
	default:
		return frontend.LinkageNone
	}
}

func (c *cursor) Location() frontend.Location {
	return location(c.c.Location())
}

func (c *cursor) Children() []frontend.Cursor {
	var out []frontend.Cursor
	c.c.Visit(func(child, parent clang.Cursor) clang.ChildVisitResult {
		out = append(out, wrapCursor(c.u, child))
		return clang.ChildVisit_Continue
	})
	return out
}

func (c *cursor) IsAnonymous() bool         { return c.c.IsAnonymous() }
func (c *cursor) IsAnonymousMember() bool   { return c.c.IsAnonymousRecordDecl() }
func (c *cursor) IsBitField() bool          { return c.c.IsBitField() }
func (c *cursor) IsVariadic() bool          { return c.c.IsVariadic() }
func (c *cursor) IsFunctionLikeMacro() bool { return c.c.IsMacroFunctionLike() }
func (c *cursor) ResultType() frontend.Type { return wrapType(c.u, c.c.ResultType()) }
func (c *cursor) EnumValue() int64          { return c.c.EnumConstantDeclValue() }

func (c *cursor) Arguments() []frontend.Cursor {
	n := c.c.NumArguments()
	if n < 0 {
		return nil
	}
	out := make([]frontend.Cursor, 0, n)
	for i := int32(0); i < n; i++ {
		out = append(out, wrapCursor(c.u, c.c.Argument(uint32(i))))
	}
	return out
}

func (c *cursor) EnumIntegerType() frontend.Type {
	return wrapType(c.u, c.c.EnumDeclIntegerType())
}

func (c *cursor) TypedefUnderlying() frontend.Type {
	return wrapType(c.u, c.c.TypedefDeclUnderlyingType())
}

// FieldOffset converts libclang's bit offset to bytes
func (c *cursor) FieldOffset() int64 {
	bits := c.c.OffsetOfField()
	if bits < 0 {
		return bits
	}
	return bits / 8
}

func (c *cursor) Tokens() []frontend.Token {
	toks := c.u.tu.Tokenize(c.c.Extent())
	defer c.u.tu.DisposeTokens(toks)

	out := make([]frontend.Token, 0, len(toks))
	for _, t := range toks {
		out = append(out, frontend.Token{
			Kind: tokenKind(t.Kind()),
			Text: c.u.tu.TokenSpelling(t),
		})
	}
	return out
}

type ctype struct {
	u *unit
	t clang.Type
}

func wrapType(u *unit, t clang.Type) *ctype {
	return &ctype{u: u, t: t}
}

func (t *ctype) Kind() frontend.TypeKind      { return typeKind(t.t.Kind()) }
func (t *ctype) Spelling() string             { return t.t.Spelling() }
func (t *ctype) Canonical() frontend.Type     { return wrapType(t.u, t.t.CanonicalType()) }
func (t *ctype) IsConst() bool                { return t.t.IsConstQualifiedType() }
func (t *ctype) Pointee() frontend.Type       { return wrapType(t.u, t.t.PointeeType()) }
func (t *ctype) Element() frontend.Type       { return wrapType(t.u, t.t.ArrayElementType()) }
func (t *ctype) Named() frontend.Type         { return wrapType(t.u, t.t.NamedType()) }
func (t *ctype) Modified() frontend.Type      { return wrapType(t.u, t.t.ModifiedType()) }
func (t *ctype) Declaration() frontend.Cursor { return wrapCursor(t.u, t.t.Declaration()) }
func (t *ctype) Size() int64                  { return t.t.SizeOf() }
func (t *ctype) Align() int64                 { return t.t.AlignOf() }
func (t *ctype) Result() frontend.Type        { return wrapType(t.u, t.t.ResultType()) }
func (t *ctype) IsVariadic() bool             { return t.t.IsFunctionTypeVariadic() }

func (t *ctype) ArrayLength() int64 {
	if t.t.Kind() != clang.Type_ConstantArray {
		return -1
	}
	return t.t.ArraySize()
}

func (t *ctype) OffsetOf(field string) int64 {
	bits := t.t.OffsetOf(field)
	if bits < 0 {
		return bits
	}
	return bits / 8
}

func (t *ctype) Params() []frontend.Type {
	n := t.t.NumArgTypes()
	if n < 0 {
		return nil
	}
	out := make([]frontend.Type, 0, n)
	for i := int32(0); i < n; i++ {
		out = append(out, wrapType(t.u, t.t.ArgType(uint32(i))))
	}
	return out
}

func (t *ctype) CallingConv() frontend.CallingConv {
	return callingConv(t.t.FunctionTypeCallingConv())
}
