package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/errors"
)

func TestRegisterInsertAndKeep(t *testing.T) {
	r := New(zaptest.NewLogger(t).Sugar())

	assert.Equal(t, Inserted, r.Register(cmodel.CType{Name: "int", Kind: cmodel.KindPrimitive, Size: 4}))
	assert.Equal(t, Kept, r.Register(cmodel.CType{Name: "int", Kind: cmodel.KindPrimitive, Size: 8}))

	got, err := r.Lookup("int")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Size, "first registration wins")
	assert.Equal(t, 1, r.Len())
}

func TestOpaqueUpgradeIsMonotonic(t *testing.T) {
	r := New(zaptest.NewLogger(t).Sugar())

	r.Register(cmodel.CType{Name: "S", Kind: cmodel.KindOpaque})
	assert.True(t, r.IsOpaque("S"))

	assert.Equal(t, Upgraded, r.Register(cmodel.CType{Name: "S", Kind: cmodel.KindRecord, Size: 16, Align: 8}))
	assert.False(t, r.IsOpaque("S"))

	// Re-discovering the forward declaration must not revert the definition
	assert.Equal(t, Kept, r.Register(cmodel.CType{Name: "S", Kind: cmodel.KindOpaque}))
	got, err := r.Lookup("S")
	require.NoError(t, err)
	assert.Equal(t, cmodel.KindRecord, got.Kind)
	assert.Equal(t, int64(16), got.Size)
}

func TestOpaqueLearnsSize(t *testing.T) {
	r := New(nil)
	r.Register(cmodel.CType{Name: "flags", Kind: cmodel.KindOpaque})
	r.Register(cmodel.CType{Name: "flags", Kind: cmodel.KindOpaque, Size: 4, Align: 4})

	got, err := r.Lookup("flags")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Size)
	assert.True(t, got.IsOpaque())
}

func TestLookupMissIsFatal(t *testing.T) {
	r := New(nil)
	_, err := r.Lookup("struct missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTypeNotFound))
	assert.True(t, errors.HasAssertionFailure(err))
	assert.True(t, errors.IsFatal(err))
	assert.False(t, r.Has("struct missing"))
}

func TestTypesSorted(t *testing.T) {
	r := FromTypes([]cmodel.CType{{Name: "z"}, {Name: "a"}, {Name: "m"}})
	types := r.Types()
	require.Len(t, types, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{types[0].Name, types[1].Name, types[2].Name})
}
