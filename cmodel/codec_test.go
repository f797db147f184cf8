package cmodel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	loc := &Location{File: "demo.h", Line: 3, Column: 8}
	return &Model{
		Platform: "linux-amd64",
		Header:   "demo.h",
		Functions: []Function{{
			Name:     "area",
			CallConv: CallConvCdecl,
			Return:   "int",
			Params:   []Param{{Name: "p", Type: "P*"}},
			Location: loc,
		}},
		Records: []Record{{
			Name: "P",
			Kind: RecordStruct,
			Fields: []Field{
				{Name: "x", Type: "int32_t", Offset: 0, Size: 4},
				{Name: "pad_needed", Type: "char", Offset: 4, Padding: 3, Size: 1},
				{Name: "y", Type: "int32_t", Offset: 8, Size: 4},
			},
			Size:  12,
			Align: 4,
		}},
		Enums:     []Enum{{Name: "color", Type: "unsigned int", Members: []EnumMember{{Name: "RED", Value: 0}}}},
		Constants: []Constant{{Name: "MAX", Type: "uint64", Value: "100"}},
		Macros:    []Macro{{Name: "MAX", Tokens: []string{"100ULL"}}},
		Types: []CType{
			{Name: "int", Kind: KindPrimitive, Size: 4, Align: 4, IsBuiltin: true, Signed: true},
			{Name: "P*", Kind: KindPointer, Size: 8, Align: 8, Inner: "P"},
		},
	}
}

func TestBundleRoundTrip(t *testing.T) {
	b := NewBundle("demo.h", sampleModel())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b))
	assert.Contains(t, buf.String(), `"kind": "pointer"`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)

	m, ok := decoded.Model("linux-amd64")
	require.True(t, ok)
	assert.Equal(t, "P", m.Records[0].Name)
}

func TestDecodeRejectsMajorMismatch(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"format_version":"2.0.0","header":"x.h","models":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible")

	_, err = Decode(strings.NewReader(`{"format_version":"1.4.2","header":"x.h","models":[]}`))
	assert.NoError(t, err)

	_, err = Decode(strings.NewReader(`{"format_version":"banana"}`))
	assert.Error(t, err)
}

func TestKindText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("function-pointer")))
	assert.Equal(t, KindFunctionPointer, k)
	assert.Error(t, k.UnmarshalText([]byte("complex")))

	_, err := Kind(42).MarshalText()
	assert.Error(t, err)
}

func TestEntitiesAndRefs(t *testing.T) {
	m := sampleModel()
	entities := m.Entities()
	require.Len(t, entities, 4)
	assert.Equal(t, EntityFunction, entities[0].EntityKind())
	assert.Equal(t, EntityRecord, entities[1].EntityKind())
	assert.Equal(t, EntityEnum, entities[2].EntityKind())
	assert.Equal(t, EntityMacro, entities[3].EntityKind())

	assert.Equal(t, []string{"int", "P*"}, TypeRefs(entities[0]))
	assert.Equal(t, []string{"int32_t", "char", "int32_t"}, TypeRefs(entities[1]))
	assert.Nil(t, TypeRefs(entities[3]))
}

func TestSortAndLookup(t *testing.T) {
	m := &Model{
		Types:     []CType{{Name: "b"}, {Name: "a"}},
		Functions: []Function{{Name: "z"}, {Name: "m"}},
	}
	m.Sort()
	assert.Equal(t, "a", m.Types[0].Name)
	assert.Equal(t, "m", m.Functions[0].Name)

	_, ok := m.Type("b")
	assert.True(t, ok)
	_, ok = m.Type("c")
	assert.False(t, ok)
}

func TestRecordOverlaps(t *testing.T) {
	r := Record{Fields: []Field{{Padding: -4}, {Padding: 3}}}
	assert.True(t, r.Overlaps())
	assert.False(t, sampleModel().Records[0].Overlaps())
}
