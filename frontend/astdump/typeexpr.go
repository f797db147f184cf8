package astdump

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/frontend"
)

// exprOp is the outermost constructor of a parsed type expression
type exprOp int

const (
	opBase exprOp = iota
	opPointer
	opArray
	opFunction
)

// typeExpr is an unresolved C type written as text in a fixture,
// e.g. "const char *", "struct P [4]" or "int (*)(int, ...)".
type typeExpr struct {
	op       exprOp
	isConst  bool
	base     string // builtin spelling, "struct X", "union X", "enum X" or a typedef name
	builtin  frontend.TypeKind
	complex  bool
	inner    *typeExpr // pointee, element or function result
	length   int64     // negative for incomplete arrays
	params   []*typeExpr
	variadic bool
	cc       frontend.CallingConv
}

var callConvWords = map[string]frontend.CallingConv{
	"__cdecl":      frontend.CallConvC,
	"__stdcall":    frontend.CallConvStdCall,
	"__fastcall":   frontend.CallConvFastCall,
	"__vectorcall": frontend.CallConvVectorCall,
}

func lexTypeExpr(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case strings.HasPrefix(s[i:], "..."):
			toks = append(toks, "...")
			i += 3
		case strings.ContainsRune("*()[],", c):
			toks = append(toks, string(c))
			i++
		default:
			j := i
			for j < len(s) && (s[j] == '_' || unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j]))) {
				j++
			}
			if j == i {
				j = i + 1
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

type exprParser struct {
	toks []string
	pos  int
	src  string
}

// parseTypeExpr parses a fixture type expression
func parseTypeExpr(s string) (*typeExpr, error) {
	p := &exprParser{toks: lexTypeExpr(s), src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, p.errorf("unexpected %q", p.toks[p.pos])
	}
	return t, nil
}

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.ErrParse, "type expression %q: %s", p.src, errors.Newf(format, args...).Error())
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) expect(tok string) error {
	if got := p.next(); got != tok {
		return p.errorf("expected %q, got %q", tok, got)
	}
	return nil
}

var builtinWords = map[string]bool{
	"void": true, "_Bool": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "signed": true, "unsigned": true, "float": true, "double": true,
	"_Complex": true, "__int128": true,
}

func (p *exprParser) parseType() (*typeExpr, error) {
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	t := base
	for {
		switch p.peek() {
		case "*":
			p.next()
			t = &typeExpr{op: opPointer, inner: t}
			if p.peek() == "const" {
				p.next()
				t.isConst = true
			}
		case "[":
			var dims []int64
			for p.peek() == "[" {
				p.next()
				n := int64(-1)
				if p.peek() != "]" {
					v, err := strconv.ParseInt(p.next(), 0, 64)
					if err != nil {
						return nil, p.errorf("bad array length")
					}
					n = v
				}
				if err := p.expect("]"); err != nil {
					return nil, err
				}
				dims = append(dims, n)
			}
			for i := len(dims) - 1; i >= 0; i-- {
				t = &typeExpr{op: opArray, inner: t, length: dims[i]}
			}
			return t, nil
		case "(":
			p.next()
			pointer := false
			cc := frontend.CallConvDefault
			if c, ok := callConvWords[p.peek()]; ok {
				p.next()
				cc = c
			}
			if p.peek() == "*" {
				p.next()
				pointer = true
				if err := p.expect(")"); err != nil {
					return nil, err
				}
				if err := p.expect("("); err != nil {
					return nil, err
				}
			}
			fn, err := p.parseParams(t)
			if err != nil {
				return nil, err
			}
			fn.cc = cc
			if pointer {
				return &typeExpr{op: opPointer, inner: fn}, nil
			}
			return fn, nil
		default:
			return t, nil
		}
	}
}

// parseParams parses a parameter list after its opening parenthesis
func (p *exprParser) parseParams(result *typeExpr) (*typeExpr, error) {
	fn := &typeExpr{op: opFunction, inner: result}
	if p.peek() == ")" {
		p.next()
		return fn, nil
	}
	if p.peek() == "void" && p.pos+1 < len(p.toks) && p.toks[p.pos+1] == ")" {
		p.pos += 2
		return fn, nil
	}
	for {
		if p.peek() == "..." {
			p.next()
			fn.variadic = true
			return fn, p.expect(")")
		}
		param, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fn.params = append(fn.params, param)
		switch p.next() {
		case ",":
		case ")":
			return fn, nil
		default:
			return nil, p.errorf("malformed parameter list")
		}
	}
}

func (p *exprParser) parseBase() (*typeExpr, error) {
	t := &typeExpr{op: opBase}
	var words []string
	for {
		tok := p.peek()
		switch {
		case tok == "const":
			p.next()
			t.isConst = true
		case tok == "volatile" || tok == "restrict":
			p.next()
		case tok == "struct" || tok == "union" || tok == "enum":
			if len(words) > 0 {
				return nil, p.errorf("%s after builtin", tok)
			}
			p.next()
			tag := p.next()
			if tag == "" || !isIdent(tag) {
				return nil, p.errorf("missing %s tag", tok)
			}
			t.base = tok + " " + tag
			p.skipQualifiers(t)
			return t, nil
		case builtinWords[tok]:
			p.next()
			words = append(words, tok)
		case isIdent(tok) && len(words) == 0 && !isQualifier(tok):
			if _, ok := callConvWords[tok]; ok {
				return nil, p.errorf("calling convention outside declarator")
			}
			p.next()
			t.base = tok
			p.skipQualifiers(t)
			return t, nil
		default:
			if len(words) == 0 {
				return nil, p.errorf("missing base type")
			}
			kind, complex, spelling, err := builtinKind(words)
			if err != nil {
				return nil, p.errorf("%s", err.Error())
			}
			t.builtin, t.complex, t.base = kind, complex, spelling
			return t, nil
		}
	}
}

func (p *exprParser) skipQualifiers(t *typeExpr) {
	for p.peek() == "const" || p.peek() == "volatile" {
		if p.next() == "const" {
			t.isConst = true
		}
	}
}

func isQualifier(tok string) bool {
	return tok == "const" || tok == "volatile" || tok == "restrict"
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for i, r := range tok {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// builtinKind normalizes a multiset of builtin keywords to one type kind
func builtinKind(words []string) (frontend.TypeKind, bool, string, error) {
	counts := map[string]int{}
	for _, w := range words {
		counts[w]++
	}
	complex := counts["_Complex"] > 0
	unsigned := counts["unsigned"] > 0
	signed := counts["signed"] > 0
	if unsigned && signed {
		return 0, false, "", errors.New("both signed and unsigned")
	}

	var kind frontend.TypeKind
	switch {
	case counts["void"] > 0:
		kind = frontend.TypeVoid
	case counts["_Bool"] > 0 || counts["bool"] > 0:
		kind = frontend.TypeBool
	case counts["float"] > 0:
		kind = frontend.TypeFloat
	case counts["double"] > 0 && counts["long"] > 0:
		kind = frontend.TypeLongDouble
	case counts["double"] > 0:
		kind = frontend.TypeDouble
	case counts["__int128"] > 0 && unsigned:
		kind = frontend.TypeUInt128
	case counts["__int128"] > 0:
		kind = frontend.TypeInt128
	case counts["char"] > 0 && unsigned:
		kind = frontend.TypeUChar
	case counts["char"] > 0 && signed:
		kind = frontend.TypeSChar
	case counts["char"] > 0:
		kind = frontend.TypeCharS
	case counts["short"] > 0 && unsigned:
		kind = frontend.TypeUShort
	case counts["short"] > 0:
		kind = frontend.TypeShort
	case counts["long"] >= 2 && unsigned:
		kind = frontend.TypeULongLong
	case counts["long"] >= 2:
		kind = frontend.TypeLongLong
	case counts["long"] == 1 && unsigned:
		kind = frontend.TypeULong
	case counts["long"] == 1:
		kind = frontend.TypeLong
	case unsigned:
		kind = frontend.TypeUInt
	default:
		kind = frontend.TypeInt
	}
	return kind, complex, builtinSpelling(kind), nil
}

var builtinSpellings = map[frontend.TypeKind]string{
	frontend.TypeVoid:       "void",
	frontend.TypeBool:       "_Bool",
	frontend.TypeCharS:      "char",
	frontend.TypeCharU:      "char",
	frontend.TypeSChar:      "signed char",
	frontend.TypeUChar:      "unsigned char",
	frontend.TypeShort:      "short",
	frontend.TypeUShort:     "unsigned short",
	frontend.TypeInt:        "int",
	frontend.TypeUInt:       "unsigned int",
	frontend.TypeLong:       "long",
	frontend.TypeULong:      "unsigned long",
	frontend.TypeLongLong:   "long long",
	frontend.TypeULongLong:  "unsigned long long",
	frontend.TypeInt128:     "__int128",
	frontend.TypeUInt128:    "unsigned __int128",
	frontend.TypeFloat:      "float",
	frontend.TypeDouble:     "double",
	frontend.TypeLongDouble: "long double",
	frontend.TypeWChar:      "wchar_t",
	frontend.TypeChar16:     "char16_t",
	frontend.TypeChar32:     "char32_t",
}

func builtinSpelling(kind frontend.TypeKind) string {
	return builtinSpellings[kind]
}
