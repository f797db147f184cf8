package macro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/cbindgen/errors"
)

var errForwardReference = errors.New("forward reference")

// env is the evaluation state shared by the macros of one unit
type env struct {
	bound    map[string]binding
	position map[string]int
	rejected map[string]bool
}

// rewriter converts the tokens of one macro body into a Go expression
type rewriter struct {
	ev    *Evaluator
	env   *env
	index int
	toks  []string
}

// matching returns the index of the parenthesis closing toks[open]
func matching(toks []string, open, hi int) int {
	depth := 0
	for i := open; i < hi; i++ {
		switch toks[i] {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripParens removes one parenthesis layer wrapping the whole body
func stripParens(toks []string) []string {
	if len(toks) >= 2 && toks[0] == "(" && matching(toks, 0, len(toks)) == len(toks)-1 {
		return toks[1 : len(toks)-1]
	}
	return toks
}

func (r *rewriter) rewrite(lo, hi int) (string, error) {
	var b strings.Builder
	for i := lo; i < hi; {
		tok := r.toks[i]
		var piece string
		next := i + 1

		switch {
		case tok == "(":
			end := matching(r.toks, i, hi)
			if end < 0 {
				return "", errors.New("unbalanced parentheses")
			}
			if goType, ok, err := r.castType(i+1, end); err != nil {
				return "", err
			} else if ok && end+1 < hi {
				operandEnd := r.operandEnd(end+1, hi)
				inner, err := r.rewrite(end+1, operandEnd)
				if err != nil {
					return "", err
				}
				if piece, err = r.ev.convert(goType, inner); err != nil {
					return "", err
				}
				next = operandEnd
				break
			}
			inner, err := r.rewrite(i+1, end)
			if err != nil {
				return "", err
			}
			piece, next = "("+inner+")", end+1

		case tok == "~":
			piece = "^"

		case tok == "?" || tok == ":":
			return "", errors.New("conditional expressions are not supported")

		case isString(tok):
			parts := []string{stringLiteral(tok)}
			for next < hi && isString(r.toks[next]) {
				parts = append(parts, stringLiteral(r.toks[next]))
				next++
			}
			piece = strings.Join(parts, " + ")

		case isChar(tok):
			v, err := charValue(tok)
			if err != nil {
				return "", err
			}
			piece = strconv.FormatInt(v, 10)

		case isNumber(tok):
			lit, err := r.number(tok)
			if err != nil {
				return "", err
			}
			piece = lit

		case isIdent(tok):
			text, err := r.identifier(tok)
			if err != nil {
				return "", err
			}
			piece = text

		default:
			piece = tok
		}

		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(piece)
		i = next
	}
	if b.Len() == 0 {
		return "", errors.New("empty expression")
	}
	return b.String(), nil
}

// operandEnd finds the end of the unary operand that follows a cast
func (r *rewriter) operandEnd(i, hi int) int {
	for i < hi && (r.toks[i] == "-" || r.toks[i] == "+" || r.toks[i] == "~" || r.toks[i] == "!") {
		i++
	}
	if i >= hi {
		return hi
	}
	if r.toks[i] == "(" {
		end := matching(r.toks, i, hi)
		if end < 0 {
			return hi
		}
		// a cast directly followed by another cast
		if _, ok, _ := r.castType(i+1, end); ok && end+1 < hi {
			return r.operandEnd(end+1, hi)
		}
		return end + 1
	}
	return i + 1
}

func (r *rewriter) identifier(name string) (string, error) {
	if b, ok := r.env.bound[name]; ok {
		return b.text, nil
	}
	if pos, ok := r.env.position[name]; ok {
		if pos > r.index {
			return "", errors.Wrapf(errForwardReference, "%s is defined later", name)
		}
		if r.env.rejected[name] {
			return "", errors.Newf("depends on rejected macro %s", name)
		}
	}
	if name == "sizeof" || name == "_Alignof" {
		return "", errors.Newf("%s is not supported", name)
	}
	return "", errors.Newf("unknown identifier %s", name)
}

// number rewrites a C numeric literal with its suffix as a Go conversion
func (r *rewriter) number(tok string) (string, error) {
	body, suffix := splitSuffix(tok)
	if body == "" {
		return "", errors.Newf("malformed number %q", tok)
	}
	w := r.ev.cfg.Widths
	if isFloat(body) {
		switch strings.ToLower(suffix) {
		case "":
			return body, nil
		case "f":
			return "float32(" + body + ")", nil
		case "l":
			return "float64(" + body + ")", nil
		}
		return "", errors.Newf("unsupported float suffix %q", suffix)
	}

	// C octal literals keep their meaning in Go
	switch strings.ToLower(suffix) {
	case "":
		return body, nil
	case "u":
		return fmt.Sprintf("uint%d(%s)", bits(w.Int, 4), body), nil
	case "l":
		return fmt.Sprintf("int%d(%s)", bits(w.Long, 8), body), nil
	case "ul", "lu":
		return fmt.Sprintf("uint%d(%s)", bits(w.Long, 8), body), nil
	case "ll":
		return fmt.Sprintf("int%d(%s)", bits(w.LongLong, 8), body), nil
	case "ull", "llu":
		return fmt.Sprintf("uint%d(%s)", bits(w.LongLong, 8), body), nil
	}
	return "", errors.Newf("unsupported integer suffix %q", suffix)
}

func bits(size, fallback int64) int64 {
	if size <= 0 {
		size = fallback
	}
	return size * 8
}

func splitSuffix(tok string) (string, string) {
	hex := strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X")
	end := len(tok)
	for end > 0 {
		c := tok[end-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			end--
			continue
		}
		// f is a hex digit
		if (c == 'f' || c == 'F') && !hex && end == len(tok) {
			end--
			continue
		}
		break
	}
	return tok[:end], tok[end:]
}

func isFloat(body string) bool {
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		return strings.ContainsAny(body, ".pP")
	}
	return strings.ContainsAny(body, ".eE")
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c >= '0' && c <= '9' || c == '.' && len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9'
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func literalPrefix(tok string) string {
	for _, p := range []string{"u8", "L", "u", "U"} {
		if strings.HasPrefix(tok, p) && len(tok) > len(p) && (tok[len(p)] == '"' || tok[len(p)] == '\'') {
			return p
		}
	}
	return ""
}

func isString(tok string) bool {
	rest := tok[len(literalPrefix(tok)):]
	return len(rest) >= 2 && rest[0] == '"'
}

func isChar(tok string) bool {
	rest := tok[len(literalPrefix(tok)):]
	return len(rest) >= 3 && rest[0] == '\''
}

// stringLiteral drops the encoding prefix; C and Go share the escape syntax
// of simple string literals
func stringLiteral(tok string) string {
	return tok[len(literalPrefix(tok)):]
}

// charValue computes the integer value of a C character constant
func charValue(tok string) (int64, error) {
	body := tok[len(literalPrefix(tok)):]
	body = body[1 : len(body)-1]
	if body == "" {
		return 0, errors.Newf("empty character constant %s", tok)
	}
	if body[0] != '\\' {
		rs := []rune(body)
		if len(rs) != 1 {
			return 0, errors.Newf("multi-character constant %s", tok)
		}
		return int64(rs[0]), nil
	}
	esc := body[1:]
	switch esc {
	case "n":
		return '\n', nil
	case "t":
		return '\t', nil
	case "r":
		return '\r', nil
	case "a":
		return '\a', nil
	case "b":
		return '\b', nil
	case "f":
		return '\f', nil
	case "v":
		return '\v', nil
	case "\\", "'", "\"", "?":
		return int64(esc[0]), nil
	}
	if esc != "" && (esc[0] == 'x' || esc[0] == 'X') {
		v, err := strconv.ParseInt(esc[1:], 16, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "character constant %s", tok)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(esc, 8, 64)
	if err != nil || len(esc) > 3 {
		return 0, errors.Newf("unsupported escape in %s", tok)
	}
	return v, nil
}
