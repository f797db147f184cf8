package astdump

import (
	"strings"
	"unicode"

	"github.com/teranos/cbindgen/frontend"
)

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true, "continue": true,
	"default": true, "do": true, "double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true, "volatile": true,
	"while": true, "_Bool": true, "_Complex": true,
}

var punctuators = []string{
	"...", "<<=", ">>=", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "##", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
}

// Tokenize splits preprocessor text into tokens the way a C lexer spells them.
// Comments are dropped.
func Tokenize(src string) []frontend.Token {
	var toks []frontend.Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\\':
			i++
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += end + 4
			}
		case c == '"' || c == '\'':
			j := scanQuoted(src, i)
			toks = append(toks, frontend.Token{Kind: frontend.TokenLiteral, Text: src[i:j]})
			i = j
		case (c == 'L' || c == 'u' || c == 'U') && i+1 < len(src) && (src[i+1] == '"' || src[i+1] == '\''):
			j := scanQuoted(src, i+1)
			toks = append(toks, frontend.Token{Kind: frontend.TokenLiteral, Text: src[i:j]})
			i = j
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := scanNumber(src, i)
			toks = append(toks, frontend.Token{Kind: frontend.TokenLiteral, Text: src[i:j]})
			i = j
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i
			for j < len(src) && (src[j] == '_' || unicode.IsLetter(rune(src[j])) || isDigit(src[j])) {
				j++
			}
			word := src[i:j]
			kind := frontend.TokenIdentifier
			if cKeywords[word] {
				kind = frontend.TokenKeyword
			}
			toks = append(toks, frontend.Token{Kind: kind, Text: word})
			i = j
		default:
			text := string(c)
			for _, p := range punctuators {
				if strings.HasPrefix(src[i:], p) {
					text = p
					break
				}
			}
			toks = append(toks, frontend.Token{Kind: frontend.TokenPunctuation, Text: text})
			i += len(text)
		}
	}
	return toks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func scanQuoted(src string, i int) int {
	quote := src[i]
	j := i + 1
	for j < len(src) && src[j] != quote {
		if src[j] == '\\' {
			j++
		}
		j++
	}
	if j < len(src) {
		j++
	}
	if j > len(src) {
		j = len(src)
	}
	return j
}

// scanNumber consumes a pp-number: digits, letters, dots and exponent signs
func scanNumber(src string, i int) int {
	j := i
	for j < len(src) {
		c := src[j]
		switch {
		case isDigit(c) || c == '.' || c == '_' || unicode.IsLetter(rune(c)):
			j++
		case (c == '+' || c == '-') && j > i && strings.ContainsRune("eEpP", rune(src[j-1])) && !isHexPrefixed(src[i:j], src[j-1]):
			j++
		default:
			return j
		}
	}
	return j
}

// isHexPrefixed reports whether an 'e' or 'E' before a sign is a hex digit
func isHexPrefixed(num string, exp byte) bool {
	lower := strings.ToLower(num)
	return strings.HasPrefix(lower, "0x") && (exp == 'e' || exp == 'E')
}
