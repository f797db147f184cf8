package mapper

import (
	"go/token"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reserved are identifiers the generated file declares or imports itself,
// plus the locals of Load and of the accessor methods, which would shadow a
// declaration of the same name
var reserved = map[string]bool{
	"CString": true, "WString": true, "Load": true,
	"unsafe": true, "purego": true, "syscall": true, "runtime": true,
	"lib": true, "path": true, "err": true, "sym": true, "h": true,
	"r": true, "i": true, "v": true,
}

// predeclared Go identifiers that would shadow builtins used by generated code
var predeclared = map[string]bool{
	"bool": true, "byte": true, "complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "rune": true, "string": true, "uint": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"true": true, "false": true, "iota": true, "nil": true, "new": true, "make": true,
	"len": true, "cap": true, "append": true, "copy": true, "panic": true,
	"any": true, "close": true, "delete": true, "print": true, "println": true,
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
}

// pascal converts snake_case or kebab-case to PascalCase
func (n *namer) pascal(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(n.title.String(w))
	}
	return b.String()
}

// camel converts snake_case or kebab-case to camelCase
func (n *namer) camel(s string) string {
	p := n.pascal(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// sanitize appends an underscore to Go keywords and predeclared names
func sanitize(name string) string {
	if name == "" {
		return "_"
	}
	if token.IsKeyword(name) || predeclared[name] {
		return name + "_"
	}
	return name
}

// namespace is Go's single package scope. The first claimant keeps a name;
// later ones get the collision marker appended.
type namespace struct {
	owners map[string]string
}

func newNamespace() *namespace {
	ns := &namespace{owners: make(map[string]string)}
	for r := range reserved {
		ns.owners[r] = "reserved"
	}
	return ns
}

func (ns *namespace) claim(name, owner string) string {
	for {
		if _, taken := ns.owners[name]; !taken {
			ns.owners[name] = owner
			return name
		}
		name += "_"
	}
}

// namer turns C identifiers into Go identifiers per Options.
// A Caser is stateful, so every mapping run gets its own namer.
type namer struct {
	opts     Options
	prefixes []string
	title    cases.Caser
}

func newNamer(opts Options) *namer {
	prefixes := make([]string, 0, len(opts.Prefixes))
	for p := range opts.Prefixes {
		prefixes = append(prefixes, p)
	}
	// longest prefix first
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	return &namer{opts: opts, prefixes: prefixes, title: cases.Title(language.Und, cases.NoLower)}
}

// decl names a top-level declaration
func (n *namer) decl(cname string) string {
	if r, ok := n.opts.Renames[cname]; ok {
		return r
	}
	name := cname
	for _, p := range n.prefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			name = n.opts.Prefixes[p] + name[len(p):]
			break
		}
	}
	if n.opts.IdiomaticNames {
		if p := n.pascal(name); p != "" {
			name = p
		}
	}
	if name != "" && unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	return sanitize(name)
}

// local names a parameter or field
func (n *namer) local(cname string) string {
	name := cname
	if n.opts.IdiomaticParams {
		if c := n.camel(cname); c != "" {
			name = c
		}
	}
	return sanitize(name)
}

// member names a struct field. Fields live in the struct's own scope, so
// only keywords need rewriting.
func (n *namer) member(cname string) string {
	name := cname
	if n.opts.IdiomaticNames {
		if p := n.pascal(cname); p != "" {
			name = p
		}
	}
	if token.IsKeyword(name) || name == "" {
		return name + "_"
	}
	return name
}

// typeToken spells a Go type as an identifier fragment: *T -> PtrT,
// [4]T -> Arr4T, unsafe.Pointer -> UnsafePointer
func (n *namer) typeToken(goType string) string {
	if goType == "" {
		return "Void"
	}
	var b strings.Builder
	for len(goType) > 0 {
		switch {
		case goType[0] == '*':
			b.WriteString("Ptr")
			goType = goType[1:]
		case goType[0] == '[':
			end := strings.IndexByte(goType, ']')
			if end < 0 {
				goType = goType[1:]
				continue
			}
			b.WriteString("Arr")
			b.WriteString(goType[1:end])
			goType = goType[end+1:]
		default:
			for _, part := range strings.FieldsFunc(goType, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}) {
				b.WriteString(n.title.String(part))
			}
			goType = ""
		}
	}
	return b.String()
}
