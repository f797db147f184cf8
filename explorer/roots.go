package explorer

import (
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
)

// discoverRoots seeds the frontier with the exported declarations of the
// translation unit. Roots are pushed in reverse so they pop in source order.
func (e *Explorer) discoverRoots() {
	children := e.tu.Root().Children()
	e.nameAnonymousTypedefs(children)

	var roots []node
	for _, c := range children {
		switch c.Kind() {
		case frontend.CursorFunction:
			if e.acceptDecl(c, "function", e.opts.Functions, e.opts.FunctionFilter) {
				if c.IsVariadic() || c.Type().IsVariadic() {
					loc := c.Location()
					e.sink.Reportf(diag.CodeVariadic, c.Spelling(), e.fileName(loc.File), loc.Line,
						"function %s is variadic and is not bound", c.Spelling())
					continue
				}
				roots = append(roots, e.rootNode(c, NodeFunction))
			}
		case frontend.CursorVariable:
			if e.acceptDecl(c, "variable", e.opts.Variables, e.opts.VariableFilter) {
				roots = append(roots, e.rootNode(c, NodeVariable))
			}
		case frontend.CursorMacroDefinition:
			if e.acceptMacro(c) {
				roots = append(roots, e.rootNode(c, NodeMacro))
			}
		case frontend.CursorEnum:
			if e.acceptEnum(c) {
				roots = append(roots, e.rootNode(c, NodeEnum))
			}
		}
	}

	for i := len(roots) - 1; i >= 0; i-- {
		r := roots[i]
		if r.kind != NodeEnum {
			e.frontier.push(r)
			continue
		}
		// enum roots go through resolve so a type reference and a root share one node
		if _, err := e.resolve(r.typ, -1); err != nil {
			e.logger.Debugw("enum root not classified", logger.FieldEntity, r.name, logger.FieldError, err)
		}
	}
}

// nameAnonymousTypedefs gives typedef'd anonymous records and enums the
// typedef name before any of them can be reached by reference
func (e *Explorer) nameAnonymousTypedefs(children []frontend.Cursor) {
	for _, c := range children {
		if c.Kind() != frontend.CursorTypedef {
			continue
		}
		u, err := unwrap(c.TypedefUnderlying())
		if err != nil {
			continue
		}
		if k := u.Kind(); k != frontend.TypeRecord && k != frontend.TypeEnum {
			continue
		}
		decl := u.Declaration()
		if !decl.IsAnonymous() {
			continue
		}
		if key := declKey(decl); e.anonNames[key] == "" {
			e.anonNames[key] = c.Spelling()
		}
	}
}

func (e *Explorer) rootNode(c frontend.Cursor, kind NodeKind) node {
	return node{cursor: c, typ: c.Type(), parent: -1, kind: kind, name: c.Spelling()}
}

// skip logs a silent policy skip
func (e *Explorer) skip(what, name, reason string) {
	e.logger.Debugw("skipped declaration", logger.FieldKind, what, logger.FieldEntity, name, "reason", reason)
}

// excluded reports a skip the user asked for
func (e *Explorer) excluded(what, name string, loc frontend.Location, reason string) {
	e.sink.Reportf(diag.CodeExcluded, name, e.fileName(loc.File), loc.Line, "%s %s excluded: %s", what, name, reason)
}

func (e *Explorer) acceptDecl(c frontend.Cursor, what string, enabled bool, filter NameFilter) bool {
	name := c.Spelling()
	loc := c.Location()
	switch {
	case !enabled:
		e.skip(what, name, "disabled")
		return false
	case c.Linkage() != frontend.LinkageExternal:
		e.skip(what, name, "not external")
		return false
	case !loc.IsValid():
		e.skip(what, name, "no location")
		return false
	case loc.System && !e.opts.IncludeSystem:
		e.skip(what, name, "system header")
		return false
	case e.opts.isIgnored(loc.File):
		e.excluded(what, name, loc, "ignored file")
		return false
	}
	switch filter.Check(name) {
	case Blocked:
		e.excluded(what, name, loc, "blocked")
		return false
	case NotAllowed:
		e.skip(what, name, "not allowed")
		return false
	}
	return true
}

func (e *Explorer) acceptMacro(c frontend.Cursor) bool {
	name := c.Spelling()
	loc := c.Location()
	switch {
	case !e.opts.MacroObjects:
		e.skip("macro", name, "disabled")
		return false
	case c.IsFunctionLikeMacro():
		e.skip("macro", name, "function-like")
		return false
	case !loc.IsValid() || loc.File == "":
		e.skip("macro", name, "builtin")
		return false
	case loc.System && !e.opts.IncludeSystem:
		e.skip("macro", name, "system header")
		return false
	case e.opts.isIgnored(loc.File):
		e.excluded("macro", name, loc, "ignored file")
		return false
	}
	switch e.opts.MacroFilter.Check(name) {
	case Blocked:
		e.excluded("macro", name, loc, "blocked")
		return false
	case NotAllowed:
		e.skip("macro", name, "not allowed")
		return false
	}
	if e.macroSeen[name] {
		e.sink.Reportf(diag.CodeDuplicateMacro, name, e.fileName(loc.File), loc.Line,
			"macro %s is defined more than once; keeping the first definition", name)
		return false
	}
	e.macroSeen[name] = true
	return true
}

func (e *Explorer) acceptEnum(c frontend.Cursor) bool {
	loc := c.Location()
	name := c.Spelling()
	switch {
	case !e.opts.EnumConstants:
		e.skip("enum", name, "enum constants disabled")
		return false
	case !loc.IsValid():
		return false
	case loc.System && !e.opts.IncludeSystem:
		e.skip("enum", name, "system header")
		return false
	case e.opts.isIgnored(loc.File):
		e.excluded("enum", name, loc, "ignored file")
		return false
	}
	return true
}
