// Package clang adapts libclang, through go-clang, to the frontend interfaces.
package clang

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-clang/clang-v13/clang"
	"go.uber.org/zap"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
	"github.com/teranos/cbindgen/logger"
)

// Parser parses headers with libclang
type Parser struct {
	// Args are passed to every parse before the per-target arguments
	Args   []string
	logger *zap.SugaredLogger
}

// New creates a Parser
func New(log *zap.SugaredLogger, args ...string) *Parser {
	return &Parser{Args: args, logger: logger.OrNop(log)}
}

func (p *Parser) args(target frontend.Target) []string {
	args := []string{"-x", "c"}
	args = append(args, p.Args...)
	if target.Triple != "" {
		args = append(args, "-target", target.Triple)
	}
	return append(args, target.Args...)
}

// Parse implements frontend.Parser
func (p *Parser) Parse(header string, target frontend.Target) (frontend.TranslationUnit, error) {
	args := p.args(target)
	idx := clang.NewIndex(0, 0)

	var tu clang.TranslationUnit
	code := idx.ParseTranslationUnit2(header, args, nil, uint32(clang.TranslationUnit_DetailedPreprocessingRecord), &tu)
	if code != clang.Error_Success {
		idx.Dispose()
		return nil, errors.Wrapf(errors.ErrParse, "%s: libclang error %v", header, code)
	}

	u := &unit{idx: idx, tu: tu}
	u.diags = collectDiagnostics(tu)
	for _, d := range u.diags {
		if d.Fatal {
			u.Close()
			return nil, errors.WithDetail(
				errors.Wrapf(errors.ErrParse, "%s: %s", d.Location, d.Message),
				strings.Join(args, " "),
			)
		}
	}

	sizes, charSigned, err := p.probe(idx, args)
	if err != nil {
		p.logger.Warnw("failed to measure builtin types", logger.FieldHeader, header, logger.FieldError, err)
	}
	u.sizes = sizes
	u.charSigned = charSigned

	p.logger.Debugw("parsed header",
		logger.FieldHeader, header,
		"triple", target.Triple,
		"diagnostics", len(u.diags),
	)
	return u, nil
}

var probeDecls = []struct {
	kind frontend.TypeKind
	decl string
}{
	{frontend.TypeCharS, "char"},
	{frontend.TypeShort, "short"},
	{frontend.TypeInt, "int"},
	{frontend.TypeLong, "long"},
	{frontend.TypeLongLong, "long long"},
	{frontend.TypePointer, "void *"},
	{frontend.TypeFloat, "float"},
	{frontend.TypeDouble, "double"},
	{frontend.TypeLongDouble, "long double"},
	{frontend.TypeWChar, "__WCHAR_TYPE__"},
	{frontend.TypeBool, "_Bool"},
}

// probe measures builtin widths and the signedness of char by parsing a
// scratch file with the same arguments
func (p *Parser) probe(idx clang.Index, args []string) (map[frontend.TypeKind]int64, bool, error) {
	dir, err := os.MkdirTemp("", "cbindgen-probe")
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to create probe directory")
	}
	defer os.RemoveAll(dir)

	var src strings.Builder
	names := make(map[string]frontend.TypeKind, len(probeDecls))
	for i, d := range probeDecls {
		name := "cbindgen_probe_" + string(rune('a'+i))
		names[name] = d.kind
		src.WriteString(d.decl + " " + name + ";\n")
	}
	path := filepath.Join(dir, "probe.c")
	if err := os.WriteFile(path, []byte(src.String()), 0o644); err != nil {
		return nil, true, errors.Wrap(err, "failed to write probe file")
	}

	var tu clang.TranslationUnit
	if code := idx.ParseTranslationUnit2(path, args, nil, 0, &tu); code != clang.Error_Success {
		return nil, true, errors.Newf("probe parse failed: %v", code)
	}
	defer tu.Dispose()

	sizes := make(map[frontend.TypeKind]int64, len(probeDecls))
	charSigned := true
	tu.TranslationUnitCursor().Visit(func(c, parent clang.Cursor) clang.ChildVisitResult {
		if kind, ok := names[c.Spelling()]; ok {
			sizes[kind] = c.Type().SizeOf()
			if kind == frontend.TypeCharS {
				charSigned = c.Type().Kind() != clang.Type_Char_U
			}
		}
		return clang.ChildVisit_Continue
	})
	return sizes, charSigned, nil
}

func collectDiagnostics(tu clang.TranslationUnit) []frontend.Diagnostic {
	n := tu.NumDiagnostics()
	out := make([]frontend.Diagnostic, 0, n)
	for i := uint32(0); i < n; i++ {
		d := tu.Diagnostic(i)
		sev := d.Severity()
		if sev == clang.Diagnostic_Error || sev == clang.Diagnostic_Fatal || sev == clang.Diagnostic_Warning {
			out = append(out, frontend.Diagnostic{
				Fatal:    sev == clang.Diagnostic_Fatal,
				Message:  d.Spelling(),
				Location: location(d.Location()),
			})
		}
		d.Dispose()
	}
	return out
}

// unit owns the libclang index and translation unit
type unit struct {
	idx   clang.Index
	tu    clang.TranslationUnit
	diags []frontend.Diagnostic
	sizes map[frontend.TypeKind]int64

	charSigned bool
}

func (u *unit) Root() frontend.Cursor {
	return wrapCursor(u, u.tu.TranslationUnitCursor())
}

func (u *unit) Diagnostics() []frontend.Diagnostic {
	return u.diags
}

func (u *unit) CharSigned() bool {
	return u.charSigned
}

func (u *unit) BuiltinSize(kind frontend.TypeKind) int64 {
	switch kind {
	case frontend.TypeCharU, frontend.TypeSChar, frontend.TypeUChar:
		kind = frontend.TypeCharS
	case frontend.TypeUShort:
		kind = frontend.TypeShort
	case frontend.TypeUInt:
		kind = frontend.TypeInt
	case frontend.TypeULong:
		kind = frontend.TypeLong
	case frontend.TypeULongLong:
		kind = frontend.TypeLongLong
	case frontend.TypeChar16:
		return 2
	case frontend.TypeChar32:
		return 4
	}
	if size, ok := u.sizes[kind]; ok {
		return size
	}
	return -1
}

func (u *unit) Close() {
	u.tu.Dispose()
	u.idx.Dispose()
}

func location(loc clang.SourceLocation) frontend.Location {
	file, line, col, _ := loc.FileLocation()
	return frontend.Location{
		File:   file.Name(),
		Line:   int(line),
		Column: int(col),
		System: loc.IsInSystemHeader(),
	}
}
