package explorer

import (
	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/registry"
)

// fieldWalk carries the state of one record's member collection
type fieldWalk struct {
	idx      int
	name     string
	top      frontend.Type
	fields   []rawField
	visited  map[string]bool
	bitfield string
}

func (e *Explorer) processRecord(idx int, n node) error {
	e.checkIgnored(n)
	decl := n.cursor
	union := decl.Kind() == frontend.CursorUnion
	size, align := n.typ.Size(), n.typ.Align()
	loc := e.location(decl.Location())

	w := &fieldWalk{idx: idx, name: n.name, top: n.typ, visited: map[string]bool{declKey(decl): true}}
	if err := e.collectFields(w, decl, false, true); err != nil {
		return err
	}

	if w.bitfield != "" {
		file := ""
		line := 0
		if loc != nil {
			file, line = loc.File, loc.Line
		}
		e.sink.Reportf(diag.CodeBitField, n.name, file, line,
			"record %s has bit-field member %s; registered as opaque", n.name, w.bitfield)
		e.registry.Register(cmodel.CType{
			Name:     n.name,
			Spelling: n.typ.Spelling(),
			Kind:     cmodel.KindOpaque,
			Size:     size,
			Align:    align,
			Location: loc,
		})
		e.opaques[n.name] = cmodel.Opaque{Name: n.name, Size: size, Location: loc}
		return nil
	}

	kind := cmodel.RecordStruct
	if union {
		kind = cmodel.RecordUnion
	}
	rec := cmodel.Record{
		Name:       n.name,
		ParentName: e.parents[n.name],
		Kind:       kind,
		Fields:     layoutFields(w.fields, size, union),
		Size:       size,
		Align:      align,
		Location:   loc,
	}
	if outcome := e.registry.Register(cmodel.CType{
		Name:     n.name,
		Spelling: n.typ.Spelling(),
		Kind:     cmodel.KindRecord,
		Size:     size,
		Align:    align,
		Location: loc,
	}); outcome == registry.Upgraded {
		e.logger.Debugw("opaque record completed", logger.FieldTypeName, n.name)
	}
	delete(e.opaques, n.name)
	e.records[n.name] = rec
	return nil
}

// collectFields appends the members of decl to w, splicing anonymous
// members in place. inUnion is set below an anonymous union.
func (e *Explorer) collectFields(w *fieldWalk, decl frontend.Cursor, inUnion, direct bool) error {
	for _, c := range decl.Children() {
		switch c.Kind() {
		case frontend.CursorStruct, frontend.CursorUnion:
			if c.IsAnonymousMember() {
				if err := e.splice(w, c, inUnion); err != nil {
					return err
				}
			}
		case frontend.CursorField:
			if err := e.collectField(w, c, inUnion, direct); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Explorer) splice(w *fieldWalk, rec frontend.Cursor, inUnion bool) error {
	key := declKey(rec)
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true
	return e.collectFields(w, rec, inUnion || rec.Kind() == frontend.CursorUnion, false)
}

func (e *Explorer) collectField(w *fieldWalk, c frontend.Cursor, inUnion, direct bool) error {
	name := c.Spelling()
	ft := c.Type()

	if name == "" {
		// unnamed member of anonymous record type
		if u, err := unwrap(ft); err == nil && u.Kind() == frontend.TypeRecord && u.Declaration().IsAnonymous() {
			return e.splice(w, u.Declaration(), inUnion)
		}
		return nil
	}

	if c.IsBitField() && w.bitfield == "" {
		w.bitfield = name
	}

	if u, err := unwrap(ft); err == nil && u.Kind() == frontend.TypeRecord && u.Declaration().IsAnonymous() {
		key := declKey(u.Declaration())
		if _, named := e.anonNames[key]; !named {
			synth := w.name + "_" + name
			e.anonNames[key] = synth
			e.parents[synth] = w.name
		}
	}

	typeName, err := e.resolve(ft, w.idx)
	if err != nil {
		return err
	}

	size := ft.Size()
	if size < 0 {
		size = 0
	}
	offset := c.FieldOffset()
	if !direct {
		offset = w.top.OffsetOf(name)
	}
	w.fields = append(w.fields, rawField{name: name, typ: typeName, size: size, offset: offset, exempt: inUnion})
	return nil
}
