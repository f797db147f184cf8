package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/explorer"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/frontend/astdump"
	"github.com/teranos/cbindgen/target"
)

var (
	linux64 = frontend.Target{Triple: "x86_64-pc-linux-gnu"}
	win64   = frontend.Target{Triple: "x86_64-pc-windows-msvc"}
)

func extract(t *testing.T, src string, tgt frontend.Target) *cmodel.Model {
	t.Helper()
	tu, err := astdump.Load("demo.yaml", []byte(src), tgt)
	require.NoError(t, err)
	m, err := explorer.New(tu, explorer.DefaultOptions(), diag.NewSink(tgt.Triple), nil).Explore(tgt.Triple, "demo.h")
	require.NoError(t, err)
	return m
}

func mapModel(t *testing.T, src string, tgt frontend.Target, opts Options) *target.Model {
	t.Helper()
	out, err := New(opts, zaptest.NewLogger(t).Sugar()).Map(extract(t, src, tgt))
	require.NoError(t, err)
	return out
}

func TestLongWidthFollowsPlatform(t *testing.T) {
	src := `
file: demo.h
decls:
  - kind: function
    name: tick
    return: long
    params: [{name: delta, type: unsigned long}, {name: n, type: size_t}]
`
	lin := mapModel(t, src, linux64, DefaultOptions())
	win := mapModel(t, src, win64, DefaultOptions())

	fl, ok := lin.Function("tick")
	require.True(t, ok)
	fw, ok := win.Function("tick")
	require.True(t, ok)

	assert.Equal(t, "int64", fl.Return)
	assert.Equal(t, "int32", fw.Return)
	assert.Equal(t, "uint64", fl.Params[0].Type)
	assert.Equal(t, "uint32", fw.Params[0].Type)
	assert.Equal(t, "uint64", fl.Params[1].Type)
	assert.Equal(t, "uint64", fw.Params[1].Type)
}

func TestStructPadding(t *testing.T) {
	out := mapModel(t, `
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
    params: [{name: p, type: "const struct P *"}]
`, linux64, DefaultOptions())

	p, ok := out.Struct("P")
	require.True(t, ok)
	assert.Equal(t, int64(12), p.Size)
	assert.False(t, p.Blob)
	require.Len(t, p.Fields, 3)
	assert.Equal(t, "int32", p.Fields[0].Type)
	assert.Equal(t, "int8", p.Fields[1].Type)
	assert.Equal(t, int64(3), p.Fields[1].Padding)

	var total int64
	for _, f := range p.Fields {
		total += f.Size + f.Padding
	}
	assert.Equal(t, p.Size, total)

	fn, _ := out.Function("area")
	assert.Equal(t, []target.Param{{Name: "p", Type: "*P"}}, fn.Params)
	assert.Empty(t, out.Aliases, "fixed-width aliases resolve to primitives")
}

func TestPointerRules(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: function
    name: io
    return: void *
    params:
      - {name: path, type: const char *}
      - {name: wide, type: const wchar_t *}
      - {name: f, type: FILE *}
      - {name: argv, type: char **}
      - {name: buf, type: unsigned char *}
`, linux64, DefaultOptions())

	fn, ok := out.Function("io")
	require.True(t, ok)
	assert.Equal(t, "unsafe.Pointer", fn.Return)
	types := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		types[i] = p.Type
	}
	assert.Equal(t, []string{"CString", "WString", "uintptr", "*CString", "*uint8"}, types)
	assert.Empty(t, out.Aliases, "FILE is a system alias and is not declared")
}

func TestKeywordsAndUnnamedParams(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: function
    name: len
    params: [{name: type, type: int}, {type: int}, {name: range, type: int}]
`, linux64, DefaultOptions())

	require.Len(t, out.Functions, 1)
	fn := out.Functions[0]
	assert.Equal(t, "len_", fn.Name)
	assert.Equal(t, "len", fn.CName)
	assert.Equal(t, "", fn.Return)
	names := []string{fn.Params[0].Name, fn.Params[1].Name, fn.Params[2].Name}
	assert.Equal(t, []string{"type_", "a1", "range_"}, names)
}

func TestFunctionWinsCollision(t *testing.T) {
	out := mapModel(t, `
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

	fn, ok := out.Function("stat")
	require.True(t, ok)
	assert.Equal(t, "stat", fn.Name)
	assert.Equal(t, "*stat_", fn.Params[1].Type)

	s, ok := out.Struct("stat")
	require.True(t, ok)
	assert.Equal(t, "stat_", s.Name)
}

func TestFunctionPointerNames(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: typedef
    name: callback
    type: int (*)(void *, int)
  - kind: function
    name: on_event
    params:
      - {name: cb, type: callback}
      - {name: a, type: "void (*)(int)"}
      - {name: b, type: "void (*)(int)"}
      - {name: c, type: "void (*)(long)"}
      - {name: d, type: "void (*)(int64_t)"}
`, linux64, DefaultOptions())

	fn, ok := out.Function("on_event")
	require.True(t, ok)
	types := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		types[i] = p.Type
	}
	assert.Equal(t, "callback", types[0])
	assert.Equal(t, "FnPtr_Int32_Void", types[1])
	assert.Equal(t, types[1], types[2], "same signature, same name")
	assert.NotEqual(t, types[3], types[4], "distinct signatures with one Go shape are disambiguated")
	assert.Contains(t, []string{"FnPtr_Int64_Void", "FnPtr_Int64_Void_2"}, types[3])
	assert.Contains(t, []string{"FnPtr_Int64_Void", "FnPtr_Int64_Void_2"}, types[4])

	require.Len(t, out.FunctionPointers, 4)
	assert.Equal(t, "FnPtr_Int32_Void", out.FunctionPointers[0].Name, "sorted by Go name")
	cb := out.FunctionPointers[3]
	assert.Equal(t, "callback", cb.Name)
	assert.Equal(t, "int32", cb.Return)
	assert.Equal(t, []target.Param{{Name: "a0", Type: "unsafe.Pointer"}, {Name: "a1", Type: "int32"}}, cb.Params)
}

func TestWrappedArrays(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: struct
    name: point
    fields: [{name: x, type: int}, {name: y, type: int}]
  - kind: struct
    name: polygon
    fields:
      - {name: points, type: "struct point [4]"}
      - {name: weights, type: "float [4]"}
      - {name: names, type: "char * [2]"}
  - {kind: variable, name: shape, type: struct polygon}
`, linux64, DefaultOptions())

	poly, ok := out.Struct("polygon")
	require.True(t, ok)
	require.Len(t, poly.Fields, 3)
	assert.Equal(t, "PointArray4", poly.Fields[0].Type)
	assert.True(t, poly.Fields[0].Wrapped)
	assert.Equal(t, "[4]float32", poly.Fields[1].Type)
	assert.False(t, poly.Fields[1].Wrapped)
	assert.Equal(t, "CStringArray2", poly.Fields[2].Type)

	require.Len(t, out.Arrays, 2)
	assert.Equal(t, target.WrappedArray{Name: "CStringArray2", Elem: "CString", Length: 2, ElemSize: 8}, out.Arrays[0])
	assert.Equal(t, target.WrappedArray{Name: "PointArray4", Elem: "point", Length: 4, ElemSize: 8}, out.Arrays[1])
}

func TestUnionIsBlob(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: union
    name: number
    fields: [{name: i, type: int}, {name: d, type: double}]
  - {kind: variable, name: zero, type: union number}
`, linux64, DefaultOptions())

	u, ok := out.Struct("number")
	require.True(t, ok)
	assert.True(t, u.Union)
	assert.True(t, u.Blob)
	assert.Equal(t, int64(8), u.Align)
	for _, f := range u.Fields {
		assert.Zero(t, f.Offset)
	}
}

func TestMisalignedMemberMakesBlob(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: struct
    name: packed
    fields:
      - {name: a, type: char}
      - {name: b, type: int32_t, offset: 1}
  - kind: struct
    name: natural
    fields:
      - {name: a, type: char}
      - {name: b, type: int32_t}
  - {kind: variable, name: p, type: struct packed}
  - {kind: variable, name: n, type: struct natural}
`, linux64, DefaultOptions())

	p, ok := out.Struct("packed")
	require.True(t, ok)
	assert.True(t, p.Blob, "int32 at offset 1 cannot be a plain Go field")
	assert.False(t, p.Union)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, int64(1), p.Fields[1].Offset)

	n, ok := out.Struct("natural")
	require.True(t, ok)
	assert.False(t, n.Blob)
}

func TestLongLongOn32BitWindowsStaysPlain(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: struct
    name: wide
    fields:
      - {name: a, type: int}
      - {name: b, type: long long}
  - kind: function
    name: use
    return: void
    params: [{name: w, type: struct wide *}]
`, frontend.Target{Triple: "i686-pc-windows-msvc"}, DefaultOptions())

	w, ok := out.Struct("wide")
	require.True(t, ok)
	assert.False(t, w.Blob)
	require.Len(t, w.Fields, 2)
	assert.Equal(t, int64(8), w.Fields[1].Offset)
	assert.Equal(t, int64(4), w.Fields[0].Padding)
}

func TestNamingOptions(t *testing.T) {
	src := `
file: demo.h
decls:
  - kind: struct
    name: png_image
    fields: [{name: width_px, type: int}]
  - kind: function
    name: png_read_image
    params: [{name: image_ptr, type: struct png_image *}]
  - kind: function
    name: png_free
  - {kind: macro, name: PNG_VERSION, tokens: "16"}
`
	opts := DefaultOptions()
	opts.Prefixes = map[string]string{"png_": "", "PNG_": ""}
	opts.Renames = map[string]string{"png_free": "Release"}
	opts.IdiomaticNames = true
	opts.IdiomaticParams = true
	out := mapModel(t, src, linux64, opts)

	read, ok := out.Function("png_read_image")
	require.True(t, ok)
	assert.Equal(t, "ReadImage", read.Name)
	assert.Equal(t, "imagePtr", read.Params[0].Name)
	assert.Equal(t, "*Image", read.Params[0].Type)

	free, _ := out.Function("png_free")
	assert.Equal(t, "Release", free.Name)

	img, _ := out.Struct("png_image")
	assert.Equal(t, "Image", img.Name)
	assert.Equal(t, "WidthPx", img.Fields[0].Name)

	require.Len(t, out.Constants, 1)
	assert.Equal(t, target.Constant{Name: "VERSION", CName: "PNG_VERSION", Type: "int32", Value: "16"}, out.Constants[0])

	plain := mapModel(t, src, linux64, DefaultOptions())
	f, _ := plain.Function("png_read_image")
	assert.Equal(t, "png_read_image", f.Name, "casing applies only when enabled")
}

func TestEnumsAndMembers(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - kind: enum
    name: level
    constants: [{name: LOW, value: -1}, {name: HIGH, value: 1}]
  - {kind: function, name: LOW}
`, linux64, DefaultOptions())

	require.Len(t, out.Enums, 1)
	e := out.Enums[0]
	assert.Equal(t, "level", e.Name)
	assert.Equal(t, "int32", e.Type)
	assert.Equal(t, []target.EnumMember{{Name: "LOW_", CName: "LOW", Value: -1}, {Name: "HIGH", CName: "HIGH", Value: 1}}, e.Members)
}

func TestMapIsIdempotent(t *testing.T) {
	src := `
file: demo.h
decls:
  - kind: function
    name: run
    params: [{name: a, type: "void (*)(int)"}, {name: b, type: "int (*)(double)"}]
`
	m := extract(t, src, linux64)
	mp := New(DefaultOptions(), nil)
	first, err := mp.Map(m)
	require.NoError(t, err)
	second, err := mp.Map(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Names(), second.Names())
}

func TestMissingTypeIsAssertion(t *testing.T) {
	m := &cmodel.Model{
		Platform:  "broken",
		Functions: []cmodel.Function{{Name: "f", Return: "ghost_t"}},
	}
	_, err := New(DefaultOptions(), nil).Map(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTypeNotFound))
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestTypeToken(t *testing.T) {
	n := newNamer(Options{})
	assert.Equal(t, "PtrInt32", n.typeToken("*int32"))
	assert.Equal(t, "Arr4Uint8", n.typeToken("[4]uint8"))
	assert.Equal(t, "UnsafePointer", n.typeToken("unsafe.Pointer"))
	assert.Equal(t, "Void", n.typeToken(""))
}

func TestCasing(t *testing.T) {
	n := newNamer(Options{})
	assert.Equal(t, "ReadImage", n.pascal("read_image"))
	assert.Equal(t, "HttpServer", n.pascal("http-server"))
	assert.Equal(t, "imagePtr", n.camel("image_ptr"))
	assert.Equal(t, "func_", sanitize("func"))
	assert.Equal(t, "string_", sanitize("string"))
}

func TestLoaderLocalsAreReserved(t *testing.T) {
	out := mapModel(t, `
file: demo.h
decls:
  - {kind: function, name: path}
  - {kind: variable, name: lib, type: int}
  - {kind: function, name: Load}
`, linux64, DefaultOptions())

	fn, ok := out.Function("path")
	require.True(t, ok)
	assert.Equal(t, "path_", fn.Name)
	ld, ok := out.Function("Load")
	require.True(t, ok)
	assert.Equal(t, "Load_", ld.Name)
	require.Len(t, out.Variables, 1)
	assert.Equal(t, "lib_", out.Variables[0].Name)
}
