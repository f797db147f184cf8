package astdump

import "github.com/teranos/cbindgen/frontend"

// recordLayout is the size, alignment and member offsets of a record
// laid out the way a C compiler does for the unit's data model
type recordLayout struct {
	size    int64
	align   int64
	offsets map[*cursor]int64
}

func alignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func (u *unit) layoutOf(decl *cursor) *recordLayout {
	if l, ok := u.layouts[decl]; ok {
		return l
	}
	l := &recordLayout{align: 1, offsets: make(map[*cursor]int64)}
	u.layouts[decl] = l

	union := decl.kind == frontend.CursorUnion
	var end int64 // in bits
	for _, m := range decl.members() {
		size, align := m.typ.Size(), m.typ.Align()
		if size < 0 {
			// flexible array member
			size = 0
		}
		if align < 1 {
			align = 1
		}
		if align > l.align {
			l.align = align
		}
		width := size * 8
		if m.bits > 0 {
			width = int64(m.bits)
		}
		if union {
			l.offsets[m] = 0
			if width > end {
				end = width
			}
			continue
		}
		if m.bits > 0 {
			// a bit-field never straddles a storage unit of its type
			unit := size * 8
			start := end
			if unit > 0 && start/unit != (start+width-1)/unit {
				start = alignUp(start, unit)
			}
			if unit > 0 {
				l.offsets[m] = start / unit * size
			}
			end = start + width
			continue
		}
		off := alignUp((end+7)/8, align)
		l.offsets[m] = off
		end = (off + size) * 8
	}
	l.size = alignUp((end+7)/8, l.align)
	return l
}

// offsetOf finds a member by name, descending into anonymous members
func (u *unit) offsetOf(decl *cursor, field string) int64 {
	l := u.layoutOf(decl)
	for _, m := range decl.members() {
		if m.kind == frontend.CursorField && m.name == field {
			if m.offset != nil {
				return *m.offset
			}
			return l.offsets[m]
		}
		if m.anonMember {
			inner := u.offsetOf(m, field)
			if inner >= 0 {
				return l.offsets[m] + inner
			}
			if inner != -1 {
				return inner
			}
		}
	}
	return -1
}
