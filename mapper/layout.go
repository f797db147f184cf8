package mapper

import "github.com/teranos/cbindgen/cmodel"

// maxAlign is the largest alignment gc gives any Go type on the platform.
// It equals the pointer size; 8 is assumed when the model has no pointer.
func (r *run) maxAlign() int64 {
	if r.wordSize > 0 {
		return r.wordSize
	}
	r.wordSize = 8
	for _, t := range r.model.Types {
		if t.Kind == cmodel.KindPointer && t.Size > 0 {
			r.wordSize = t.Size
			break
		}
	}
	return r.wordSize
}

// scalarAlign is the Go alignment of a scalar of size bytes
func (r *run) scalarAlign(size int64) int64 {
	switch size {
	case 1, 2, 4, 8:
		if m := r.maxAlign(); size > m {
			return m
		}
		return size
	}
	return 1
}

// blobAlign is the alignment of the aligner a blob or opaque struct carries
func (r *run) blobAlign(align int64) int64 {
	switch align {
	case 1, 2, 4:
		return align
	}
	return r.scalarAlign(8)
}

// goAlign is the alignment gc gives the Go type that binds cname
func (r *run) goAlign(cname string) int64 {
	if g, ok := r.opts.SystemAliases[cname]; ok {
		switch g {
		case "uintptr", "unsafe.Pointer":
			return r.maxAlign()
		}
	}
	t, err := r.types.Lookup(cname)
	if err != nil {
		return 1
	}
	switch t.Kind {
	case cmodel.KindPointer, cmodel.KindFunctionPointer:
		return r.maxAlign()
	case cmodel.KindArray, cmodel.KindAlias, cmodel.KindEnum:
		if t.Inner != "" {
			return r.goAlign(t.Inner)
		}
	case cmodel.KindRecord:
		if rec, ok := r.recordByName(cname); ok {
			return r.recordAlign(rec)
		}
	case cmodel.KindOpaque:
		if t.Size > 0 {
			return r.blobAlign(t.Align)
		}
		return 1
	case cmodel.KindPrimitive:
		if t.Name == "__int128" || t.Name == "unsigned __int128" {
			return r.scalarAlign(8)
		}
	}
	return r.scalarAlign(t.Size)
}

func (r *run) recordByName(name string) (cmodel.Record, bool) {
	if r.records == nil {
		r.records = make(map[string]cmodel.Record, len(r.model.Records))
		for _, rec := range r.model.Records {
			r.records[rec.Name] = rec
		}
	}
	rec, ok := r.records[name]
	return rec, ok
}

// recordAlign is the alignment of the Go struct emitted for rec
func (r *run) recordAlign(rec cmodel.Record) int64 {
	if r.blob(rec) {
		return r.blobAlign(rec.Align)
	}
	align := int64(1)
	for _, f := range rec.Fields {
		if a := r.goAlign(f.Type); a > align {
			align = a
		}
	}
	return align
}

// blob reports whether rec must be emitted as aligned raw storage. That is
// the case for unions, overlapping members, and any member gc would place
// at a different offset than C did, which packed and under-aligned records
// produce. A plain struct whose rounded Go size differs from the C size is
// a blob too.
func (r *run) blob(rec cmodel.Record) bool {
	if v, ok := r.blobs[rec.Name]; ok {
		return v
	}
	v := rec.Kind == cmodel.RecordUnion || rec.Overlaps() || !r.fitsGoLayout(rec)
	r.blobs[rec.Name] = v
	return v
}

func (r *run) fitsGoLayout(rec cmodel.Record) bool {
	align := int64(1)
	for _, f := range rec.Fields {
		a := r.goAlign(f.Type)
		if f.Offset%a != 0 {
			return false
		}
		if a > align {
			align = a
		}
	}
	return rec.Size%align == 0
}
