package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/frontend/astdump"
)

var (
	linux64 = frontend.Target{Triple: "x86_64-pc-linux-gnu"}
	linux32 = frontend.Target{Triple: "i386-pc-linux-gnu"}
)

func explore(t *testing.T, src string, target frontend.Target, opts Options) (*cmodel.Model, *diag.Sink, *Explorer) {
	t.Helper()
	tu, err := astdump.Load("demo.yaml", []byte(src), target)
	require.NoError(t, err)
	sink := diag.NewSink("test")
	e := New(tu, opts, sink, zaptest.NewLogger(t).Sugar())
	m, err := e.Explore("test", "demo.h")
	require.NoError(t, err)
	return m, sink, e
}

const pointHeader = `
file: demo.h
decls:
  - kind: struct
    name: P
    fields:
      - {name: x, type: int32_t}
      - {name: pad_needed, type: char}
      - {name: y, type: int32_t}
  - kind: function
    name: area
    return: int
    params: [{name: p, type: "struct P *"}]
`

func TestStructPadding(t *testing.T) {
	m, sink, _ := explore(t, pointHeader, linux64, DefaultOptions())
	assert.Zero(t, sink.Len())

	p, ok := m.Record("P")
	require.True(t, ok)
	assert.Equal(t, int64(12), p.Size)
	assert.Equal(t, cmodel.RecordStruct, p.Kind)
	require.Len(t, p.Fields, 3)
	assert.Equal(t, cmodel.Field{Name: "x", Type: "int32_t", Offset: 0, Padding: 0, Size: 4}, p.Fields[0])
	assert.Equal(t, cmodel.Field{Name: "pad_needed", Type: "char", Offset: 4, Padding: 3, Size: 1}, p.Fields[1])
	assert.Equal(t, cmodel.Field{Name: "y", Type: "int32_t", Offset: 8, Padding: 0, Size: 4}, p.Fields[2])
	assert.False(t, p.Overlaps())

	fn, ok := m.Function("area")
	require.True(t, ok)
	assert.Equal(t, cmodel.CallConvCdecl, fn.CallConv)
	assert.Equal(t, "int", fn.Return)
	assert.Equal(t, []cmodel.Param{{Name: "p", Type: "P*"}}, fn.Params)
	require.NotNil(t, fn.Location)
	assert.Equal(t, "demo.h", fn.Location.File)

	ptr, ok := m.Type("P*")
	require.True(t, ok)
	assert.Equal(t, cmodel.KindPointer, ptr.Kind)
	assert.Equal(t, "P", ptr.Inner)
	assert.Equal(t, int64(8), ptr.Size)
}

func TestLayoutInvariant(t *testing.T) {
	m, _, _ := explore(t, pointHeader, linux64, DefaultOptions())
	for _, r := range m.Records {
		if r.Kind != cmodel.RecordStruct || r.Overlaps() {
			continue
		}
		for i, f := range r.Fields {
			next := r.Size
			if i+1 < len(r.Fields) {
				next = r.Fields[i+1].Offset
			}
			assert.Equal(t, next, f.Offset+f.Size+f.Padding, "%s.%s", r.Name, f.Name)
		}
	}
}

func TestTraceIsDepthFirst(t *testing.T) {
	_, _, e := explore(t, pointHeader, linux64, DefaultOptions())
	assert.Equal(t, []TraceEntry{
		{Kind: NodeFunction, Name: "area"},
		{Kind: NodePointer, Name: "P*", Parent: "area"},
		{Kind: NodeRecord, Name: "P", Parent: "P*"},
		{Kind: NodePrimitive, Name: "char", Parent: "P"},
		{Kind: NodeTypedef, Name: "int32_t", Parent: "P"},
		{Kind: NodePrimitive, Name: "int", Parent: "area"},
	}, e.Trace())
}

func TestExploreIsIdempotent(t *testing.T) {
	first, _, _ := explore(t, pointHeader, linux64, DefaultOptions())
	second, _, _ := explore(t, pointHeader, linux64, DefaultOptions())
	assert.Equal(t, first, second)
}

func TestAnonymousUnionIsSpliced(t *testing.T) {
	m, _, _ := explore(t, `
file: demo.h
decls:
  - kind: struct
    name: value
    fields:
      - {name: tag, type: int}
      - type:
          union:
            - {name: i, type: long long}
            - {name: f, type: float}
      - {name: flags, type: unsigned char}
  - {kind: variable, name: current, type: struct value}
`, linux32, DefaultOptions())

	v, ok := m.Record("value")
	require.True(t, ok)
	require.Len(t, v.Fields, 4)
	names := []string{v.Fields[0].Name, v.Fields[1].Name, v.Fields[2].Name, v.Fields[3].Name}
	assert.Equal(t, []string{"tag", "i", "f", "flags"}, names)
	assert.Equal(t, int64(4), v.Fields[1].Offset)
	assert.Equal(t, int64(4), v.Fields[2].Offset)
	assert.Equal(t, int64(12), v.Fields[3].Offset)
	assert.True(t, v.Overlaps())
	assert.Len(t, m.Records, 1, "anonymous members are not records of their own")
}

func TestNamedAnonymousFieldGetsSynthesizedRecord(t *testing.T) {
	m, _, _ := explore(t, `
file: demo.h
decls:
  - kind: struct
    name: shape
    fields:
      - name: origin
        type:
          struct:
            - {name: x, type: int}
            - {name: y, type: int}
      - {name: id, type: int}
  - {kind: variable, name: unit_shape, type: struct shape}
`, linux64, DefaultOptions())

	shape, ok := m.Record("shape")
	require.True(t, ok)
	require.Len(t, shape.Fields, 2)
	assert.Equal(t, "shape_origin", shape.Fields[0].Type)
	assert.Equal(t, int64(8), shape.Fields[1].Offset)

	origin, ok := m.Record("shape_origin")
	require.True(t, ok)
	assert.Equal(t, "shape", origin.ParentName)
	assert.Len(t, origin.Fields, 2)
}

func TestTypedefNamesAnonymousRecord(t *testing.T) {
	m, _, _ := explore(t, `
file: demo.h
decls:
  - kind: typedef
    name: vec2
    type:
      struct:
        - {name: x, type: float}
        - {name: y, type: float}
  - kind: function
    name: length
    return: float
    params: [{name: v, type: vec2}]
`, linux64, DefaultOptions())

	_, ok := m.Record("vec2")
	assert.True(t, ok)
	fn, _ := m.Function("length")
	assert.Equal(t, "vec2", fn.Params[0].Type)
	assert.Empty(t, m.Aliases)
}

func TestOpaqueTypes(t *testing.T) {
	src := `
file: demo.h
decls:
  - kind: function
    name: open_handle
    return: struct handle *
  - kind: function
    name: area
    return: int
    params: [{name: p, type: "struct P *"}]
  - kind: struct
    name: P
    fields:
      - {name: x, type: int}
`
	opts := DefaultOptions()
	opts.OpaqueTypes = []string{"P"}
	m, _, _ := explore(t, src, linux64, opts)

	require.Len(t, m.Opaques, 2)
	assert.Equal(t, cmodel.Opaque{Name: "P", Size: 4, Location: m.Opaques[0].Location}, m.Opaques[0])
	assert.Equal(t, "handle", m.Opaques[1].Name)
	assert.Equal(t, int64(0), m.Opaques[1].Size)
	assert.Empty(t, m.Records)

	h, ok := m.Type("handle")
	require.True(t, ok)
	assert.True(t, h.IsOpaque())
}

func TestLaterDefinitionWins(t *testing.T) {
	m, _, e := explore(t, `
file: demo.h
decls:
  - {kind: struct, name: node, opaque: true}
  - kind: variable
    name: head
    type: struct node *
  - kind: struct
    name: node
    fields:
      - {name: next, type: struct node *}
      - {name: value, type: int}
`, linux64, DefaultOptions())

	n, ok := m.Record("node")
	require.True(t, ok)
	assert.Equal(t, int64(16), n.Size)
	assert.Empty(t, m.Opaques)
	assert.False(t, e.Registry().IsOpaque("node"))
}

func TestRootPolicy(t *testing.T) {
	src := `
file: demo.h
files:
  - {path: /usr/include/sys.h, system: true}
decls:
  - {kind: function, name: sys_call, file: /usr/include/sys.h}
  - {kind: function, name: hidden, static: true}
  - {kind: function, name: lib_open}
  - {kind: function, name: lib_debug}
  - {kind: function, name: other}
  - {kind: function, name: secret, file: internal.h}
  - {kind: variable, name: lib_version, type: int}
`
	opts := DefaultOptions()
	opts.FunctionFilter = NameFilter{Allow: []string{"lib_*"}, Block: []string{"lib_debug"}}
	opts.IgnoredFiles = []string{"internal.h"}
	opts.Variables = false
	m, sink, _ := explore(t, src, linux64, opts)

	require.Len(t, m.Functions, 1)
	assert.Equal(t, "lib_open", m.Functions[0].Name)
	assert.Empty(t, m.Variables)

	excluded := map[string]bool{}
	for _, d := range sink.Items() {
		require.Equal(t, diag.CodeExcluded, d.Code)
		assert.Equal(t, diag.SeverityInfo, d.Severity)
		excluded[d.Entity] = true
	}
	assert.Equal(t, map[string]bool{"lib_debug": true, "secret": true}, excluded)

	opts = DefaultOptions()
	opts.IncludeSystem = true
	m, _, _ = explore(t, src, linux64, opts)
	_, ok := m.Function("sys_call")
	assert.True(t, ok)
}

func TestIgnoredTypeIsReported(t *testing.T) {
	m, sink, _ := explore(t, `
file: demo.h
decls:
  - kind: struct
    name: impl
    file: internal.h
    fields: [{name: n, type: int}]
  - kind: function
    name: make
    return: struct impl *
`, linux64, Options{Functions: true, IgnoredFiles: []string{"internal.h"}})

	require.Equal(t, 1, sink.Count(diag.CodeIgnoredType))
	assert.True(t, sink.HasErrors())
	_, ok := m.Record("impl")
	assert.True(t, ok, "the type is still registered")
}

func TestVariadicFunctionIsSkipped(t *testing.T) {
	m, sink, _ := explore(t, `
file: demo.h
decls:
  - kind: function
    name: log_message
    variadic: true
    params: [{name: fmt, type: const char *}]
  - kind: variable
    name: on_log
    type: void (*)(int, ...)
`, linux64, DefaultOptions())

	assert.Empty(t, m.Functions)
	assert.Equal(t, 2, sink.Count(diag.CodeVariadic))
	require.Len(t, m.FunctionPointers, 1)
	assert.Equal(t, "void(*)(int,...)", m.FunctionPointers[0].Name)
}

func TestBitFieldRecordBecomesOpaque(t *testing.T) {
	m, sink, _ := explore(t, `
file: demo.h
decls:
  - kind: struct
    name: flags
    fields:
      - {name: a, type: unsigned int, bits: 3}
      - {name: b, type: unsigned int, bits: 5}
  - {kind: variable, name: global_flags, type: struct flags}
`, linux64, DefaultOptions())

	assert.Equal(t, 1, sink.Count(diag.CodeBitField))
	assert.Empty(t, m.Records)
	require.Len(t, m.Opaques, 1)
	assert.Equal(t, "flags", m.Opaques[0].Name)
	assert.Equal(t, int64(4), m.Opaques[0].Size)
}

func TestFunctionPointers(t *testing.T) {
	m, _, _ := explore(t, `
file: demo.h
decls:
  - kind: typedef
    name: callback
    type: int (*)(void *, int)
  - kind: function
    name: subscribe
    params:
      - {name: cb, type: callback}
      - {name: raw, type: "void (__stdcall *)(int)"}
`, linux64, DefaultOptions())

	require.Len(t, m.FunctionPointers, 2)
	named, structural := m.FunctionPointers[0], m.FunctionPointers[1]
	assert.Equal(t, "callback", named.Name)
	assert.True(t, named.Typedef)
	assert.Equal(t, "int", named.Return)
	assert.Equal(t, []cmodel.Param{{Type: "void*"}, {Type: "int"}}, named.Params)

	assert.Equal(t, "void(*)(int)", structural.Name)
	assert.Equal(t, cmodel.CallConvStdcall, structural.CallConv)
	assert.False(t, structural.Typedef)

	cb, ok := m.Type("callback")
	require.True(t, ok)
	assert.Equal(t, int64(8), cb.Size)
}

func TestEnums(t *testing.T) {
	src := `
file: demo.h
decls:
  - kind: typedef
    name: color
    type:
      enum: [{name: RED}, {name: GREEN}, {name: BLUE}]
  - kind: enum
    name: level
    constants: [{name: LOW, value: -1}, {name: HIGH, value: 1}]
`
	opts := DefaultOptions()
	opts.EnumConstantFilter = NameFilter{Block: []string{"GREEN"}}
	m, _, _ := explore(t, src, linux64, opts)

	require.Len(t, m.Enums, 2)
	assert.Equal(t, "color", m.Enums[0].Name)
	assert.Equal(t, "unsigned int", m.Enums[0].Type)
	assert.Equal(t, []cmodel.EnumMember{{Name: "RED", Value: 0}, {Name: "BLUE", Value: 2}}, m.Enums[0].Members)
	assert.Equal(t, "level", m.Enums[1].Name)
	assert.Equal(t, "int", m.Enums[1].Type)

	opts.EnumConstants = false
	m, _, _ = explore(t, src, linux64, opts)
	assert.Empty(t, m.Enums)
}

func TestMacrosBecomeConstants(t *testing.T) {
	m, sink, _ := explore(t, `
file: demo.h
decls:
  - {kind: enum, name: mode, constants: [{name: MODE_A}, {name: MODE_B}]}
  - {kind: macro, name: MAX, tokens: 100ULL}
  - {kind: macro, name: EARLY, tokens: LATE + 1}
  - {kind: macro, name: LATE, tokens: "(MAX * 2)"}
  - {kind: macro, name: COUNT, tokens: MODE_B + 1}
  - {kind: macro, name: SQUARE, tokens: x * x, function_like: true}
  - {kind: macro, name: MAX, tokens: "200"}
`, linux64, DefaultOptions())

	got := map[string]cmodel.Constant{}
	for _, c := range m.Constants {
		got[c.Name] = c
	}
	assert.Equal(t, "uint64", got["MAX"].Type)
	assert.Equal(t, "100", got["MAX"].Value)
	assert.Equal(t, "200", got["LATE"].Value)
	assert.Equal(t, "2", got["COUNT"].Value)
	assert.NotContains(t, got, "EARLY")
	assert.NotContains(t, got, "SQUARE")

	assert.Equal(t, 1, sink.Count(diag.CodeForwardReference))
	assert.Equal(t, 1, sink.Count(diag.CodeDuplicateMacro))
	assert.Len(t, m.Macros, 4)
}

func TestMacroCharCastUsesTargetSignedness(t *testing.T) {
	src := `
file: demo.h
decls:
  - {kind: macro, name: BYTE, tokens: "((char)200)"}
`
	arm := frontend.Target{Triple: "aarch64-unknown-linux-gnu"}
	for _, tt := range []struct {
		target      frontend.Target
		typ, value string
	}{
		{linux64, "int8", "-56"},
		{arm, "uint8", "200"},
	} {
		m, sink, _ := explore(t, src, tt.target, DefaultOptions())
		require.Zero(t, sink.Len(), sink.Items())
		require.Len(t, m.Constants, 1, tt.target.Triple)
		assert.Equal(t, tt.typ, m.Constants[0].Type, tt.target.Triple)
		assert.Equal(t, tt.value, m.Constants[0].Value, tt.target.Triple)
	}
}

func TestUnknownKindIsFatal(t *testing.T) {
	tu, err := astdump.Load("demo.yaml", []byte(`
file: demo.h
decls:
  - {kind: variable, name: z, type: _Complex float}
`), linux64)
	require.NoError(t, err)
	_, err = New(tu, DefaultOptions(), diag.NewSink("test"), nil).Explore("test", "demo.h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownKind))
}

func TestCollisionsAreRecorded(t *testing.T) {
	m, _, _ := explore(t, `
file: demo.h
decls:
  - kind: struct
    name: stat
    fields: [{name: size, type: long}]
  - kind: function
    name: stat
    return: int
    params: [{name: path, type: const char *}, {name: buf, type: struct stat *}]
`, linux64, DefaultOptions())
	assert.Equal(t, []string{"stat"}, m.Collisions)
}

func TestNameFilter(t *testing.T) {
	f := NameFilter{Allow: []string{"png_*"}, Block: []string{"png_debug"}}
	assert.Equal(t, Accepted, f.Check("png_read"))
	assert.Equal(t, Blocked, f.Check("png_debug"))
	assert.Equal(t, NotAllowed, f.Check("zlib_init"))
	assert.Equal(t, Accepted, NameFilter{}.Check("anything"))
}

func TestLayoutFieldsDerivesMissingOffsets(t *testing.T) {
	fields := layoutFields([]rawField{
		{name: "a", typ: "int", size: 4, offset: 0},
		{name: "b", typ: "char", size: 1, offset: 0},
		{name: "c", typ: "int", size: 4, offset: -1},
	}, 12, false)
	assert.Equal(t, int64(8), fields[2].Offset)
	assert.Equal(t, int64(7), fields[1].Offset, "spurious zero is derived from the next member")
	assert.Equal(t, int64(3), fields[0].Padding)

	union := layoutFields([]rawField{
		{name: "i", typ: "int", size: 4, offset: 0},
		{name: "d", typ: "double", size: 8, offset: 0},
	}, 8, true)
	assert.Equal(t, int64(4), union[0].Padding)
	assert.Equal(t, int64(0), union[1].Padding)
}
