package astdump

import "github.com/teranos/cbindgen/frontend"

// cursor implements frontend.Cursor over one fixture declaration
type cursor struct {
	u        *unit
	kind     frontend.CursorKind
	name     string
	typ      *ctype
	loc      frontend.Location
	linkage  frontend.Linkage
	children []*cursor
	parent   *cursor

	anonymous  bool
	anonMember bool
	opaque     bool
	bits       int
	variadic   bool
	fnLike     bool

	args       []*cursor
	enumValue  int64
	enumType   *ctype
	underlying *ctype
	offset     *int64
	tokens     []frontend.Token
}

var nullCursor = &cursor{kind: frontend.CursorUnknown, typ: invalidType}

func (c *cursor) Kind() frontend.CursorKind   { return c.kind }
func (c *cursor) Spelling() string            { return c.name }
func (c *cursor) Linkage() frontend.Linkage   { return c.linkage }
func (c *cursor) Location() frontend.Location { return c.loc }
func (c *cursor) IsAnonymous() bool           { return c.anonymous }
func (c *cursor) IsAnonymousMember() bool     { return c.anonMember }
func (c *cursor) IsBitField() bool            { return c.bits > 0 }
func (c *cursor) IsVariadic() bool            { return c.variadic }
func (c *cursor) IsFunctionLikeMacro() bool   { return c.fnLike }
func (c *cursor) EnumValue() int64            { return c.enumValue }

func (c *cursor) Type() frontend.Type {
	if c.typ == nil {
		return invalidType
	}
	return c.typ
}

func (c *cursor) Children() []frontend.Cursor {
	out := make([]frontend.Cursor, len(c.children))
	for i, ch := range c.children {
		out[i] = ch
	}
	return out
}

func (c *cursor) ResultType() frontend.Type {
	if c.kind != frontend.CursorFunction {
		return invalidType
	}
	return c.typ.result
}

func (c *cursor) Arguments() []frontend.Cursor {
	out := make([]frontend.Cursor, len(c.args))
	for i, a := range c.args {
		out[i] = a
	}
	return out
}

func (c *cursor) EnumIntegerType() frontend.Type {
	if c.enumType == nil {
		return invalidType
	}
	return c.enumType
}

func (c *cursor) TypedefUnderlying() frontend.Type {
	if c.underlying == nil {
		return invalidType
	}
	return c.underlying
}

func (c *cursor) FieldOffset() int64 {
	if c.kind != frontend.CursorField || c.parent == nil {
		return -1
	}
	if c.offset != nil {
		return *c.offset
	}
	if c.parent.opaque {
		return -2
	}
	off, ok := c.u.layoutOf(c.parent).offsets[c]
	if !ok {
		return -1
	}
	return off
}

func (c *cursor) Tokens() []frontend.Token {
	return c.tokens
}

// members returns the fields and anonymous member records of a record decl
func (c *cursor) members() []*cursor {
	var out []*cursor
	for _, ch := range c.children {
		if ch.kind == frontend.CursorField || ch.anonMember {
			out = append(out, ch)
		}
	}
	return out
}
