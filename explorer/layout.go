package explorer

import "github.com/teranos/cbindgen/cmodel"

// rawField is a record member as reported by the front-end, before layout.
// Offset is negative when the front-end could not report one.
type rawField struct {
	name   string
	typ    string
	size   int64
	offset int64
	// exempt marks members spliced from an anonymous union, whose zero
	// offsets are genuine
	exempt bool
}

// validOffset reports whether a reported offset can be trusted. A zero
// offset for anything but the first member is treated as unreported.
func validOffset(off int64, index int, exempt bool) bool {
	if off < 0 {
		return false
	}
	return off != 0 || index == 0 || exempt
}

// layoutFields computes offsets and trailing padding walking from the last
// member to the first. Unreliable offsets are derived from the following
// member; union members all sit at offset 0.
func layoutFields(raw []rawField, recordSize int64, union bool) []cmodel.Field {
	out := make([]cmodel.Field, len(raw))
	next := recordSize
	for i := len(raw) - 1; i >= 0; i-- {
		f := raw[i]
		if union {
			out[i] = cmodel.Field{Name: f.name, Type: f.typ, Offset: 0, Padding: recordSize - f.size, Size: f.size}
			continue
		}

		off := f.offset
		if !validOffset(off, i, f.exempt) {
			off = next - f.size
			if off < 0 {
				off = 0
			}
		}
		out[i] = cmodel.Field{Name: f.name, Type: f.typ, Offset: off, Padding: next - off - f.size, Size: f.size}
		next = off
	}
	return out
}
