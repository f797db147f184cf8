// Package mapper projects a C semantic model onto the Go code model.
//
// Names are assigned before any type is resolved: every declaration claims
// its Go identifier in one package-wide namespace, in a fixed priority
// order, so a clash always resolves the same way. Types are then resolved
// through a rule table driven by the sizes the front-end measured for the
// platform, which keeps ambiguous C types (long, size_t, wchar_t) correct
// per target.
package mapper

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/registry"
	"github.com/teranos/cbindgen/target"
)

// Mapper maps models with fixed Options. Each Map call is independent.
type Mapper struct {
	opts   Options
	logger *zap.SugaredLogger
}

// New creates a Mapper
func New(opts Options, log *zap.SugaredLogger) *Mapper {
	return &Mapper{opts: opts, logger: logger.OrNop(log)}
}

// run is the state of one Map call
type run struct {
	opts   Options
	logger *zap.SugaredLogger
	model  *cmodel.Model
	types  *registry.Registry
	names  *namer
	ns     *namespace

	declNames map[string]string // C type name -> declared Go name
	funcNames map[string]string
	varNames  map[string]string
	resolved  map[string]string // memoized goType results
	fnptrs    map[string]string // structural signature -> synthesized name
	fnptrUsed map[string]string // synthesized base name -> first signature
	arrays    map[string]target.WrappedArray
	arrayKeys map[string]string // "[N]elem" -> wrapped name

	wordSize int64
	records  map[string]cmodel.Record
	blobs    map[string]bool
}

// Map projects m. The result is sorted by Go name within each kind.
func (mp *Mapper) Map(m *cmodel.Model) (*target.Model, error) {
	r := &run{
		opts:      mp.opts,
		logger:    logger.ChildLogger(mp.logger, logger.FieldPlatform, m.Platform),
		model:     m,
		types:     registry.FromTypes(m.Types),
		names:     newNamer(mp.opts),
		ns:        newNamespace(),
		declNames: make(map[string]string),
		funcNames: make(map[string]string),
		varNames:  make(map[string]string),
		resolved:  make(map[string]string),
		fnptrs:    make(map[string]string),
		fnptrUsed: make(map[string]string),
		arrays:    make(map[string]target.WrappedArray),
		arrayKeys: make(map[string]string),
		blobs:     make(map[string]bool),
	}

	out := &target.Model{Platform: m.Platform, Header: m.Header}
	entities := m.Entities()
	for _, e := range entities {
		if err := r.declare(e); err != nil {
			return nil, err
		}
	}
	if err := r.nameStructuralPointers(); err != nil {
		return nil, err
	}
	for _, e := range entities {
		if err := r.project(e, out); err != nil {
			return nil, errors.Wrapf(err, "%s %s", e.EntityKind(), e.EntityName())
		}
	}
	for _, c := range m.Constants {
		out.Constants = append(out.Constants, target.Constant{
			Name:  r.claim(c.Name, "constant"),
			CName: c.Name,
			Type:  c.Type,
			Value: c.Value,
		})
	}
	for _, a := range r.arrays {
		out.Arrays = append(out.Arrays, a)
	}

	out.Sort()
	r.logger.Infow("mapped model",
		"functions", len(out.Functions),
		"structs", len(out.Structs),
		"constants", len(out.Constants),
	)
	return out, nil
}

func (r *run) claim(cname, owner string) string {
	want := r.names.decl(cname)
	got := r.ns.claim(want, owner)
	if got != want {
		r.logger.Debugw("renamed to avoid a collision", logger.FieldEntity, cname, logger.FieldGoName, got, logger.FieldKind, owner)
	}
	return got
}

// skipped reports whether a type declaration is replaced rather than declared
func (r *run) skipped(name string) bool {
	if _, ok := r.opts.SystemAliases[name]; ok {
		return true
	}
	t, err := r.types.Lookup(name)
	return err == nil && transparent(t)
}

// declare claims the Go name of one entity. Functions come first in
// Entities order and therefore keep their names on a clash.
func (r *run) declare(e cmodel.Entity) error {
	switch v := e.(type) {
	case cmodel.Function:
		r.funcNames[v.Name] = r.claim(v.Name, "function")
	case cmodel.Variable:
		r.varNames[v.Name] = r.claim(v.Name, "variable")
	case cmodel.Record, cmodel.Enum, cmodel.Opaque, cmodel.Alias:
		if !r.skipped(v.EntityName()) {
			r.declNames[v.EntityName()] = r.claim(v.EntityName(), v.EntityKind().String())
		}
	case cmodel.FunctionPointer:
		if v.Typedef && !r.skipped(v.Name) {
			r.declNames[v.Name] = r.claim(v.Name, "function-pointer")
		}
	case cmodel.Macro:
	default:
		return errors.AssertionFailedf("unknown entity %T", e)
	}
	return nil
}

// nameStructuralPointers synthesizes FnPtr_<Params>_<Return> names for
// function pointer types that have no typedef
func (r *run) nameStructuralPointers() error {
	for _, p := range r.model.FunctionPointers {
		if p.Typedef || r.skipped(p.Name) {
			continue
		}
		if _, done := r.fnptrs[p.Name]; done {
			continue
		}
		ret, err := r.goType(p.Return)
		if err != nil {
			return err
		}
		var params string
		for _, param := range p.Params {
			g, err := r.paramType(param.Type)
			if err != nil {
				return err
			}
			params += r.names.typeToken(g)
		}
		if params == "" {
			params = "Void"
		}
		base := "FnPtr_" + params + "_" + r.names.typeToken(ret)
		name := base
		for n := 2; ; n++ {
			first, used := r.fnptrUsed[name]
			if !used || first == p.Name {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		r.fnptrUsed[name] = p.Name
		name = r.ns.claim(name, "function-pointer")
		r.fnptrs[p.Name] = name
		r.declNames[p.Name] = name
	}
	return nil
}

func (r *run) project(e cmodel.Entity, out *target.Model) error {
	switch v := e.(type) {
	case cmodel.Function:
		fn, err := r.function(v)
		if err != nil {
			return err
		}
		out.Functions = append(out.Functions, fn)
	case cmodel.Variable:
		t, err := r.goType(v.Type)
		if err != nil {
			return err
		}
		out.Variables = append(out.Variables, target.Variable{Name: r.varNames[v.Name], CName: v.Name, Type: t})
	case cmodel.Record:
		if r.skipped(v.Name) {
			return nil
		}
		s, err := r.record(v)
		if err != nil {
			return err
		}
		out.Structs = append(out.Structs, s)
	case cmodel.Enum:
		if r.skipped(v.Name) {
			return nil
		}
		en, err := r.enum(v)
		if err != nil {
			return err
		}
		out.Enums = append(out.Enums, en)
	case cmodel.Alias:
		if r.skipped(v.Name) {
			return nil
		}
		t, err := r.goType(v.Underlying)
		if err != nil {
			return err
		}
		out.Aliases = append(out.Aliases, target.Alias{Name: r.declNames[v.Name], CName: v.Name, Target: t})
	case cmodel.Opaque:
		if r.skipped(v.Name) {
			return nil
		}
		t, _ := r.types.Lookup(v.Name)
		out.Opaques = append(out.Opaques, target.Opaque{Name: r.declNames[v.Name], CName: v.Name, Size: v.Size, Align: t.Align})
	case cmodel.FunctionPointer:
		if r.skipped(v.Name) {
			return nil
		}
		p, err := r.functionPointer(v)
		if err != nil {
			return err
		}
		out.FunctionPointers = append(out.FunctionPointers, p)
	case cmodel.Macro:
	default:
		return errors.AssertionFailedf("unknown entity %T", e)
	}
	return nil
}

func (r *run) params(params []cmodel.Param) ([]target.Param, error) {
	out := make([]target.Param, 0, len(params))
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		name := fmt.Sprintf("a%d", i)
		if p.Name != "" {
			name = r.names.local(p.Name)
		}
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		t, err := r.paramType(p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, target.Param{Name: name, Type: t})
	}
	return out, nil
}

func (r *run) function(f cmodel.Function) (target.Function, error) {
	ret, err := r.goType(f.Return)
	if err != nil {
		return target.Function{}, err
	}
	params, err := r.params(f.Params)
	if err != nil {
		return target.Function{}, err
	}
	return target.Function{
		Name:     r.funcNames[f.Name],
		CName:    f.Name,
		CallConv: string(f.CallConv),
		Return:   ret,
		Params:   params,
	}, nil
}

func (r *run) functionPointer(p cmodel.FunctionPointer) (target.FunctionPointer, error) {
	ret, err := r.goType(p.Return)
	if err != nil {
		return target.FunctionPointer{}, err
	}
	params, err := r.params(p.Params)
	if err != nil {
		return target.FunctionPointer{}, err
	}
	return target.FunctionPointer{
		Name:     r.declNames[p.Name],
		CName:    p.Name,
		CallConv: string(p.CallConv),
		Return:   ret,
		Params:   params,
	}, nil
}

func (r *run) enum(e cmodel.Enum) (target.Enum, error) {
	backing, err := r.goType(e.Type)
	if err != nil {
		return target.Enum{}, err
	}
	out := target.Enum{Name: r.declNames[e.Name], CName: e.Name, Type: backing}
	for _, m := range e.Members {
		out.Members = append(out.Members, target.EnumMember{
			Name:  r.claim(m.Name, "enum-member"),
			CName: m.Name,
			Value: m.Value,
		})
	}
	return out, nil
}
