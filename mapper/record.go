package mapper

import (
	"fmt"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/target"
)

func (r *run) record(rec cmodel.Record) (target.Struct, error) {
	s := target.Struct{
		Name:  r.declNames[rec.Name],
		CName: rec.Name,
		Union: rec.Kind == cmodel.RecordUnion,
		Blob:  r.blob(rec),
		Size:  rec.Size,
		Align: rec.Align,
	}
	if rec.ParentName != "" {
		s.ParentName = r.declNames[rec.ParentName]
	}

	seen := make(map[string]bool, len(rec.Fields))
	for _, f := range rec.Fields {
		name := r.names.member(f.Name)
		for seen[name] {
			name += "_"
		}
		seen[name] = true

		typ, wrapped, err := r.fieldType(f.Type)
		if err != nil {
			return target.Struct{}, err
		}
		s.Fields = append(s.Fields, target.Field{
			Name:    name,
			CName:   f.Name,
			Type:    typ,
			Offset:  f.Offset,
			Padding: f.Padding,
			Size:    f.Size,
			Wrapped: wrapped,
		})
	}
	return s, nil
}

// fieldType resolves a member type. Inline arrays whose element is not an
// embeddable scalar become a named wrapped array type.
func (r *run) fieldType(cname string) (string, bool, error) {
	t, err := r.types.Lookup(cname)
	if err != nil {
		return "", false, err
	}
	if t.Kind != cmodel.KindArray {
		g, err := r.goType(cname)
		return g, false, err
	}
	if _, aliased := r.opts.SystemAliases[cname]; aliased {
		g, err := r.goType(cname)
		return g, false, err
	}

	elem, err := r.goType(t.Inner)
	if err != nil {
		return "", false, err
	}
	if embeddable[elem] {
		return fmt.Sprintf("[%d]%s", t.ArrayLength, elem), false, nil
	}

	key := fmt.Sprintf("[%d]%s", t.ArrayLength, elem)
	if name, ok := r.arrayKeys[key]; ok {
		return name, true, nil
	}
	name := r.ns.claim(fmt.Sprintf("%sArray%d", r.names.typeToken(elem), t.ArrayLength), "array")
	r.arrayKeys[key] = name
	r.arrays[name] = target.WrappedArray{Name: name, Elem: elem, Length: t.ArrayLength, ElemSize: t.ElementSize}
	return name, true, nil
}
