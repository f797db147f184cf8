// Package explorer walks a C translation unit from its externally visible
// declarations and produces the resolved C semantic model of one platform.
//
// Traversal uses an explicit frontier: discovered types are pushed as nodes
// onto a LIFO stack and processed one at a time, so the traversal order is
// depth-first and independent of call-stack depth. The type registry makes
// re-discovery of a registered name a no-op, which bounds the walk.
package explorer

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
	"github.com/teranos/cbindgen/macro"
	"github.com/teranos/cbindgen/registry"
)

// Explorer extracts one model from one translation unit. It is single-use.
type Explorer struct {
	tu       frontend.TranslationUnit
	opts     Options
	sink     *diag.Sink
	logger   *zap.SugaredLogger
	registry *registry.Registry
	frontier frontier
	trace    []TraceEntry

	seen      map[string]NodeKind
	anonNames map[string]string
	parents   map[string]string

	functions map[string]cmodel.Function
	variables map[string]cmodel.Variable
	records   map[string]cmodel.Record
	enums     map[string]cmodel.Enum
	aliases   map[string]cmodel.Alias
	opaques   map[string]cmodel.Opaque
	fnptrs    map[string]cmodel.FunctionPointer
	macros    []cmodel.Macro
	macroSeen map[string]bool

	enumOrder  []string
	enumValues map[string]int64
}

// New creates an explorer over tu
func New(tu frontend.TranslationUnit, opts Options, sink *diag.Sink, log *zap.SugaredLogger) *Explorer {
	log = logger.OrNop(log)
	return &Explorer{
		tu:         tu,
		opts:       opts,
		sink:       sink,
		logger:     log,
		registry:   registry.New(log),
		seen:       make(map[string]NodeKind),
		anonNames:  make(map[string]string),
		parents:    make(map[string]string),
		functions:  make(map[string]cmodel.Function),
		variables:  make(map[string]cmodel.Variable),
		records:    make(map[string]cmodel.Record),
		enums:      make(map[string]cmodel.Enum),
		aliases:    make(map[string]cmodel.Alias),
		opaques:    make(map[string]cmodel.Opaque),
		fnptrs:     make(map[string]cmodel.FunctionPointer),
		macroSeen:  make(map[string]bool),
		enumValues: make(map[string]int64),
	}
}

// Trace returns the processed nodes in the order they were popped
func (e *Explorer) Trace() []TraceEntry {
	out := make([]TraceEntry, len(e.trace))
	copy(out, e.trace)
	return out
}

// Registry exposes the type registry built by Explore
func (e *Explorer) Registry() *registry.Registry {
	return e.registry
}

// Explore runs the traversal and returns the immutable model. Fatal
// conditions abort with an error; everything else lands in the sink.
func (e *Explorer) Explore(platform, header string) (*cmodel.Model, error) {
	for _, d := range e.tu.Diagnostics() {
		e.sink.Reportf(diag.CodeFrontend, "", e.fileName(d.Location.File), d.Location.Line, "%s", d.Message)
	}

	e.discoverRoots()
	for {
		idx, ok := e.frontier.pop()
		if !ok {
			break
		}
		n := e.frontier.node(idx)
		parent := ""
		if n.parent >= 0 {
			parent = e.frontier.node(n.parent).name
		}
		e.trace = append(e.trace, TraceEntry{Kind: n.kind, Name: n.name, Parent: parent})
		if err := e.process(idx); err != nil {
			return nil, errors.Wrapf(err, "%s", n.name)
		}
	}

	constants := macro.New(e.macroConfig(), e.sink, e.logger).Evaluate(e.macros, e.enumOrder, e.enumValues)

	m := e.model(platform, header, constants)
	if err := e.verify(m); err != nil {
		return nil, err
	}
	e.logger.Infow("explored header",
		logger.FieldPlatform, platform,
		logger.FieldHeader, header,
		"functions", len(m.Functions),
		"records", len(m.Records),
		"types", len(m.Types),
		"constants", len(m.Constants),
	)
	return m, nil
}

func (e *Explorer) macroConfig() macro.Config {
	return macro.Config{
		Widths: macro.Widths{
			Int:      e.tu.BuiltinSize(frontend.TypeInt),
			Long:     e.tu.BuiltinSize(frontend.TypeLong),
			LongLong: e.tu.BuiltinSize(frontend.TypeLongLong),
			Pointer:  e.tu.BuiltinSize(frontend.TypePointer),
			WChar:    e.tu.BuiltinSize(frontend.TypeWChar),

			CharUnsigned: !e.tu.CharSigned(),
		},
		TypeAliases: e.opts.TypeAliases,
	}
}

func (e *Explorer) fileName(file string) string {
	if e.opts.FullFilePaths || file == "" {
		return file
	}
	return filepath.Base(file)
}

func (e *Explorer) location(loc frontend.Location) *cmodel.Location {
	if !loc.IsValid() {
		return nil
	}
	return &cmodel.Location{File: e.fileName(loc.File), Line: loc.Line, Column: loc.Column, System: loc.System}
}

// resolve names t and queues it for registration when it is new.
// A name seen only as opaque is queued again once a definition appears.
func (e *Explorer) resolve(t frontend.Type, parent int) (string, error) {
	c, err := e.classify(t)
	if err != nil {
		return "", err
	}
	prev, seen := e.seen[c.name]
	if seen && !(prev == NodeOpaque && c.kind == NodeRecord) {
		return c.name, nil
	}
	e.seen[c.name] = c.kind
	e.frontier.push(node{cursor: c.decl, typ: c.typ, parent: parent, kind: c.kind, name: c.name, typedef: c.typedef})
	return c.name, nil
}

func (e *Explorer) process(idx int) error {
	n := *e.frontier.node(idx)
	switch n.kind {
	case NodeFunction:
		return e.processFunction(idx, n)
	case NodeVariable:
		return e.processVariable(idx, n)
	case NodeMacro:
		return e.processMacro(n)
	case NodePrimitive:
		return e.processPrimitive(n)
	case NodePointer:
		return e.processPointer(idx, n)
	case NodeArray:
		return e.processArray(idx, n)
	case NodeRecord:
		return e.processRecord(idx, n)
	case NodeOpaque:
		return e.processOpaque(n)
	case NodeEnum:
		return e.processEnum(idx, n)
	case NodeTypedef:
		return e.processTypedef(idx, n)
	case NodeFunctionPointer:
		return e.processFunctionPointer(idx, n)
	default:
		return errors.AssertionFailedf("node %q has kind %s", n.name, n.kind)
	}
}

func callConv(cc frontend.CallingConv) (cmodel.CallConv, error) {
	switch cc {
	case frontend.CallConvDefault, frontend.CallConvC, frontend.CallConvSysV, frontend.CallConvWin64, frontend.CallConvAAPCS:
		return cmodel.CallConvCdecl, nil
	case frontend.CallConvStdCall:
		return cmodel.CallConvStdcall, nil
	case frontend.CallConvFastCall:
		return cmodel.CallConvFastcall, nil
	default:
		return "", errors.Wrapf(errors.ErrCallingConvention, "%s", cc)
	}
}

func (e *Explorer) processFunction(idx int, n node) error {
	c := n.cursor
	cc, err := callConv(c.Type().CallingConv())
	if err != nil {
		return err
	}
	ret, err := e.resolve(c.ResultType(), idx)
	if err != nil {
		return err
	}
	args := c.Arguments()
	params := make([]cmodel.Param, 0, len(args))
	for _, a := range args {
		t, err := e.resolve(a.Type(), idx)
		if err != nil {
			return err
		}
		params = append(params, cmodel.Param{Name: a.Spelling(), Type: t})
	}
	e.functions[n.name] = cmodel.Function{
		Name:     n.name,
		CallConv: cc,
		Return:   ret,
		Params:   params,
		Location: e.location(c.Location()),
	}
	return nil
}

func (e *Explorer) processVariable(idx int, n node) error {
	t, err := e.resolve(n.cursor.Type(), idx)
	if err != nil {
		return err
	}
	e.variables[n.name] = cmodel.Variable{Name: n.name, Type: t, Location: e.location(n.cursor.Location())}
	return nil
}

func (e *Explorer) processMacro(n node) error {
	toks := n.cursor.Tokens()
	body := make([]string, 0, len(toks))
	for i, t := range toks {
		if i == 0 || t.Kind == frontend.TokenComment {
			continue
		}
		body = append(body, t.Text)
	}
	e.macros = append(e.macros, cmodel.Macro{Name: n.name, Tokens: body, Location: e.location(n.cursor.Location())})
	return nil
}

func (e *Explorer) processPrimitive(n node) error {
	kind := n.typ.Kind()
	size, align := n.typ.Size(), n.typ.Align()
	if kind == frontend.TypeVoid {
		size, align = 0, 0
	}
	e.registry.Register(cmodel.CType{
		Name:      n.name,
		Spelling:  n.typ.Spelling(),
		Kind:      cmodel.KindPrimitive,
		Size:      size,
		Align:     align,
		IsBuiltin: true,
		Signed:    signedKind(kind),
	})
	return nil
}

func (e *Explorer) processPointer(idx int, n node) error {
	inner, err := e.resolve(n.typ.Pointee(), idx)
	if err != nil {
		return err
	}
	e.registry.Register(cmodel.CType{
		Name:     n.name,
		Spelling: n.typ.Spelling(),
		Kind:     cmodel.KindPointer,
		Size:     n.typ.Size(),
		Align:    n.typ.Align(),
		Inner:    inner,
	})
	return nil
}

func (e *Explorer) processArray(idx int, n node) error {
	elem := n.typ.Element()
	inner, err := e.resolve(elem, idx)
	if err != nil {
		return err
	}
	size := n.typ.Size()
	length := n.typ.ArrayLength()
	if size < 0 {
		size = 0
	}
	if length < 0 {
		length = 0
	}
	e.registry.Register(cmodel.CType{
		Name:        n.name,
		Spelling:    n.typ.Spelling(),
		Kind:        cmodel.KindArray,
		Size:        size,
		Align:       elem.Align(),
		ElementSize: elem.Size(),
		ArrayLength: length,
		Inner:       inner,
	})
	return nil
}

// checkIgnored reports a required type whose declaration lives in an ignored file
func (e *Explorer) checkIgnored(n node) {
	if n.cursor == nil {
		return
	}
	loc := n.cursor.Location()
	if e.opts.isIgnored(loc.File) {
		e.sink.Reportf(diag.CodeIgnoredType, n.name, e.fileName(loc.File), loc.Line,
			"type %s is declared in an ignored file but required by an exported declaration", n.name)
	}
}

func (e *Explorer) processOpaque(n node) error {
	e.checkIgnored(n)
	size, align := n.typ.Size(), n.typ.Align()
	if size < 0 {
		size, align = 0, 0
	}
	var loc *cmodel.Location
	if n.cursor != nil {
		loc = e.location(n.cursor.Location())
	}
	e.registry.Register(cmodel.CType{
		Name:     n.name,
		Spelling: n.typ.Spelling(),
		Kind:     cmodel.KindOpaque,
		Size:     size,
		Align:    align,
		Location: loc,
	})
	if _, defined := e.records[n.name]; !defined {
		e.opaques[n.name] = cmodel.Opaque{Name: n.name, Size: size, Location: loc}
	}
	return nil
}

func (e *Explorer) processEnum(idx int, n node) error {
	e.checkIgnored(n)
	decl := n.cursor
	backing, err := e.resolve(decl.EnumIntegerType(), idx)
	if err != nil {
		return err
	}

	var members []cmodel.EnumMember
	for _, c := range decl.Children() {
		if c.Kind() != frontend.CursorEnumConstant {
			continue
		}
		name := c.Spelling()
		switch e.opts.EnumConstantFilter.Check(name) {
		case Blocked:
			loc := c.Location()
			e.sink.Reportf(diag.CodeExcluded, name, e.fileName(loc.File), loc.Line, "enum constant %s is blocked", name)
			continue
		case NotAllowed:
			e.logger.Debugw("enum constant not allowed", logger.FieldEntity, name)
			continue
		}
		members = append(members, cmodel.EnumMember{Name: name, Value: c.EnumValue()})
		if _, dup := e.enumValues[name]; !dup {
			e.enumOrder = append(e.enumOrder, name)
			e.enumValues[name] = c.EnumValue()
		}
	}

	loc := e.location(decl.Location())
	e.registry.Register(cmodel.CType{
		Name:     n.name,
		Spelling: n.typ.Spelling(),
		Kind:     cmodel.KindEnum,
		Size:     n.typ.Size(),
		Align:    n.typ.Align(),
		Inner:    backing,
		Signed:   signedKind(decl.EnumIntegerType().Canonical().Kind()),
		Location: loc,
	})
	e.enums[n.name] = cmodel.Enum{Name: n.name, Type: backing, Members: members, Location: loc}
	return nil
}

func (e *Explorer) processTypedef(idx int, n node) error {
	e.checkIgnored(n)
	under, err := e.resolve(n.cursor.TypedefUnderlying(), idx)
	if err != nil {
		return err
	}
	loc := e.location(n.cursor.Location())
	e.registry.Register(cmodel.CType{
		Name:      n.name,
		Spelling:  n.typ.Spelling(),
		Kind:      cmodel.KindAlias,
		Size:      n.typ.Size(),
		Align:     n.typ.Align(),
		Inner:     under,
		IsBuiltin: loc != nil && loc.System,
		Signed:    signedKind(n.typ.Canonical().Kind()),
		Location:  loc,
	})
	e.aliases[n.name] = cmodel.Alias{Name: n.name, Underlying: under, Location: loc}
	return nil
}

func (e *Explorer) processFunctionPointer(idx int, n node) error {
	if n.cursor != nil {
		e.checkIgnored(n)
	}
	fn := n.typ
	cc, err := callConv(fn.CallingConv())
	if err != nil {
		return err
	}
	if fn.IsVariadic() {
		e.sink.Reportf(diag.CodeVariadic, n.name, "", 0, "function pointer %s is variadic; variadic arguments are not bound", n.name)
	}
	ret, err := e.resolve(fn.Result(), idx)
	if err != nil {
		return err
	}
	var params []cmodel.Param
	for _, p := range fn.Params() {
		t, err := e.resolve(p, idx)
		if err != nil {
			return err
		}
		params = append(params, cmodel.Param{Type: t})
	}

	size := e.tu.BuiltinSize(frontend.TypePointer)
	e.registry.Register(cmodel.CType{
		Name:     n.name,
		Spelling: fn.Spelling(),
		Kind:     cmodel.KindFunctionPointer,
		Size:     size,
		Align:    size,
		Inner:    ret,
	})
	e.fnptrs[n.name] = cmodel.FunctionPointer{
		Name:     n.name,
		Typedef:  n.typedef,
		CallConv: cc,
		Return:   ret,
		Params:   params,
	}
	return nil
}

// model assembles the sorted, immutable result
func (e *Explorer) model(platform, header string, constants []cmodel.Constant) *cmodel.Model {
	m := &cmodel.Model{
		Platform:  platform,
		Header:    header,
		Macros:    e.macros,
		Constants: constants,
		Types:     e.registry.Types(),
	}
	for _, f := range e.functions {
		m.Functions = append(m.Functions, f)
	}
	for _, v := range e.variables {
		m.Variables = append(m.Variables, v)
	}
	for _, r := range e.records {
		m.Records = append(m.Records, r)
	}
	for _, en := range e.enums {
		m.Enums = append(m.Enums, en)
	}
	for _, a := range e.aliases {
		m.Aliases = append(m.Aliases, a)
	}
	for _, o := range e.opaques {
		m.Opaques = append(m.Opaques, o)
	}
	for _, p := range e.fnptrs {
		m.FunctionPointers = append(m.FunctionPointers, p)
	}
	for name := range e.records {
		if _, clash := e.functions[name]; clash {
			m.Collisions = append(m.Collisions, name)
		}
	}
	m.Sort()
	return m
}

// verify checks that every referenced type is registered
func (e *Explorer) verify(m *cmodel.Model) error {
	for _, ent := range m.Entities() {
		for _, ref := range cmodel.TypeRefs(ent) {
			if _, err := e.registry.Lookup(ref); err != nil {
				return errors.Wrapf(err, "%s %s", ent.EntityKind(), ent.EntityName())
			}
		}
	}
	for _, t := range m.Types {
		if t.Inner == "" {
			continue
		}
		if _, err := e.registry.Lookup(t.Inner); err != nil {
			return errors.Wrapf(err, "type %s", t.Name)
		}
	}
	return nil
}
