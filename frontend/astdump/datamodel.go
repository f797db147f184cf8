package astdump

import (
	"strings"

	"github.com/teranos/cbindgen/frontend"
)

// DataModel fixes the widths and alignments of the C builtin types
type DataModel struct {
	Name            string
	Long            int64
	Pointer         int64
	LongLongAlign   int64
	DoubleAlign     int64
	LongDouble      int64
	LongDoubleAlign int64
	WChar           int64
	CharSigned      bool
}

var (
	ILP32 = DataModel{Name: "ILP32", Long: 4, Pointer: 4, LongLongAlign: 4, DoubleAlign: 4, LongDouble: 12, LongDoubleAlign: 4, WChar: 4, CharSigned: true}
	LP64  = DataModel{Name: "LP64", Long: 8, Pointer: 8, LongLongAlign: 8, DoubleAlign: 8, LongDouble: 16, LongDoubleAlign: 16, WChar: 4, CharSigned: true}
	LLP64 = DataModel{Name: "LLP64", Long: 4, Pointer: 8, LongLongAlign: 8, DoubleAlign: 8, LongDouble: 8, LongDoubleAlign: 8, WChar: 2, CharSigned: true}
)

// DataModelByName returns ILP32, LP64 or LLP64
func DataModelByName(name string) (DataModel, bool) {
	switch strings.ToUpper(name) {
	case "ILP32":
		return ILP32, true
	case "LP64":
		return LP64, true
	case "LLP64":
		return LLP64, true
	}
	return DataModel{}, false
}

var arch64 = []string{"x86_64", "amd64", "aarch64", "arm64", "ppc64", "riscv64", "s390x", "mips64", "sparcv9", "wasm64", "loongarch64"}

// DataModelForTriple picks the data model a compiler uses for an LLVM triple
func DataModelForTriple(triple string) DataModel {
	parts := strings.Split(strings.ToLower(triple), "-")
	arch := parts[0]
	windows := strings.Contains(triple, "windows") || strings.Contains(triple, "mingw") || strings.Contains(triple, "msvc")
	darwin := strings.Contains(triple, "darwin") || strings.Contains(triple, "apple")

	is64 := false
	for _, a := range arch64 {
		if strings.HasPrefix(arch, a) {
			is64 = true
			break
		}
	}

	var dm DataModel
	switch {
	case windows && is64:
		dm = LLP64
	case windows:
		dm = ILP32
		dm.WChar = 2
		dm.LongDouble = 8
		dm.DoubleAlign = 8
		dm.LongLongAlign = 8
	case is64:
		dm = LP64
	default:
		dm = ILP32
	}
	if !darwin && !windows && (strings.HasPrefix(arch, "arm") || strings.HasPrefix(arch, "aarch64")) {
		dm.CharSigned = false
	}
	// Apple silicon uses a 64-bit long double
	if darwin && is64 && !strings.HasPrefix(arch, "x86_64") {
		dm.LongDouble, dm.LongDoubleAlign = 8, 8
	}
	return dm
}

// Size returns the size of a builtin type kind
func (dm DataModel) Size(kind frontend.TypeKind) int64 {
	switch kind {
	case frontend.TypeVoid, frontend.TypeBool, frontend.TypeCharS, frontend.TypeCharU, frontend.TypeSChar, frontend.TypeUChar:
		return 1
	case frontend.TypeShort, frontend.TypeUShort, frontend.TypeChar16:
		return 2
	case frontend.TypeInt, frontend.TypeUInt, frontend.TypeFloat, frontend.TypeChar32:
		return 4
	case frontend.TypeWChar:
		return dm.WChar
	case frontend.TypeLong, frontend.TypeULong:
		return dm.Long
	case frontend.TypeLongLong, frontend.TypeULongLong, frontend.TypeDouble:
		return 8
	case frontend.TypeInt128, frontend.TypeUInt128:
		return 16
	case frontend.TypeLongDouble:
		return dm.LongDouble
	case frontend.TypePointer:
		return dm.Pointer
	}
	return -1
}

// Align returns the alignment of a builtin type kind
func (dm DataModel) Align(kind frontend.TypeKind) int64 {
	switch kind {
	case frontend.TypeLongLong, frontend.TypeULongLong:
		return dm.LongLongAlign
	case frontend.TypeDouble:
		return dm.DoubleAlign
	case frontend.TypeLongDouble:
		return dm.LongDoubleAlign
	case frontend.TypeInt128, frontend.TypeUInt128:
		return 16
	}
	return dm.Size(kind)
}

// builtinTypedef is a typedef every fixture gets from the system headers
type builtinTypedef struct {
	name   string
	file   string
	target string
}

// builtinTypedefs lists the system typedefs for dm in declaration order
func (dm DataModel) builtinTypedefs() []builtinTypedef {
	int64Base, intptrBase := "long long", "int"
	switch dm.Name {
	case "LP64":
		int64Base, intptrBase = "long", "long"
	case "LLP64":
		intptrBase = "long long"
	}
	wchar := "int"
	if dm.WChar == 2 {
		wchar = "unsigned short"
	}

	stdint := "/usr/include/stdint.h"
	stddef := "/usr/include/stddef.h"
	return []builtinTypedef{
		{"int8_t", stdint, "signed char"},
		{"uint8_t", stdint, "unsigned char"},
		{"int16_t", stdint, "short"},
		{"uint16_t", stdint, "unsigned short"},
		{"int32_t", stdint, "int"},
		{"uint32_t", stdint, "unsigned int"},
		{"int64_t", stdint, int64Base},
		{"uint64_t", stdint, "unsigned " + int64Base},
		{"intptr_t", stdint, intptrBase},
		{"uintptr_t", stdint, "unsigned " + intptrBase},
		{"size_t", stddef, "unsigned " + intptrBase},
		{"ptrdiff_t", stddef, intptrBase},
		{"ssize_t", "/usr/include/sys/types.h", intptrBase},
		{"wchar_t", stddef, wchar},
		{"FILE", "/usr/include/stdio.h", "struct _IO_FILE"},
	}
}
