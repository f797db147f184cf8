package macro

import (
	"fmt"
	"go/constant"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/cbindgen/errors"
)

var typeWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "const": true, "volatile": true,
}

// castTable maps C type spellings to Go types for the platform widths.
// User aliases override the builtin entries.
func castTable(cfg Config) map[string]string {
	w := cfg.Widths
	intT := fmt.Sprintf("int%d", bits(w.Int, 4))
	longT := fmt.Sprintf("int%d", bits(w.Long, 8))
	llT := fmt.Sprintf("int%d", bits(w.LongLong, 8))
	ptrT := fmt.Sprintf("int%d", bits(w.Pointer, 8))
	charT := "int8"
	if w.CharUnsigned {
		charT = "uint8"
	}

	t := map[string]string{
		"char":               charT,
		"signed char":        "int8",
		"unsigned char":      "uint8",
		"short":              "int16",
		"unsigned short":     "uint16",
		"int":                intT,
		"unsigned int":       "u" + intT,
		"long":               longT,
		"unsigned long":      "u" + longT,
		"long long":          llT,
		"unsigned long long": "u" + llT,
		"float":              "float32",
		"double":             "float64",
		"long double":        "float64",
		"_Bool":              "bool",
		"int8_t":             "int8",
		"uint8_t":            "uint8",
		"int16_t":            "int16",
		"uint16_t":           "uint16",
		"int32_t":            "int32",
		"uint32_t":           "uint32",
		"int64_t":            "int64",
		"uint64_t":           "uint64",
		"intptr_t":           ptrT,
		"uintptr_t":          "uintptr",
		"size_t":             "u" + ptrT,
		"ssize_t":            ptrT,
		"ptrdiff_t":          ptrT,
	}
	if w.WChar == 2 {
		t["wchar_t"] = "uint16"
	} else {
		t["wchar_t"] = "int32"
	}
	for c, g := range cfg.TypeAliases {
		t[c] = g
	}
	return t
}

// normalizeType puts the words of a builtin type in canonical order
func normalizeType(words []string) string {
	counts := map[string]int{}
	for _, w := range words {
		counts[w]++
	}
	var parts []string
	if counts["unsigned"] > 0 {
		parts = append(parts, "unsigned")
	} else if counts["signed"] > 0 && counts["char"] > 0 {
		parts = append(parts, "signed")
	}
	switch {
	case counts["char"] > 0:
		parts = append(parts, "char")
	case counts["short"] > 0:
		parts = append(parts, "short")
	case counts["long"] >= 2:
		parts = append(parts, "long long")
	case counts["long"] == 1 && counts["double"] > 0:
		return "long double"
	case counts["long"] == 1:
		parts = append(parts, "long")
	case counts["float"] > 0:
		return "float"
	case counts["double"] > 0:
		return "double"
	case counts["_Bool"] > 0:
		return "_Bool"
	case counts["void"] > 0:
		return "void"
	default:
		parts = append(parts, "int")
	}
	return strings.Join(parts, " ")
}

// castType decides whether toks[lo:hi] spell a type name. It returns the Go
// type when they do. Pointer casts are rejected.
func (r *rewriter) castType(lo, hi int) (string, bool, error) {
	if lo >= hi {
		return "", false, nil
	}
	toks := r.toks[lo:hi]
	pointer := false
	for len(toks) > 0 && toks[len(toks)-1] == "*" {
		pointer = true
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return "", false, nil
	}

	var words []string
	for _, t := range toks {
		if t == "const" || t == "volatile" {
			continue
		}
		words = append(words, t)
	}

	var name string
	switch {
	case len(words) == 1 && r.ev.casts[words[0]] != "" && !typeWords[words[0]]:
		name = words[0]
	case allTypeWords(words):
		name = normalizeType(words)
	case len(words) == 2 && (words[0] == "struct" || words[0] == "union" || words[0] == "enum"):
		name = strings.Join(words, " ")
		if pointer {
			return "", false, errors.Newf("pointer cast to %s * is not a constant", name)
		}
		return "", false, errors.Newf("cast to %s is not supported", name)
	default:
		return "", false, nil
	}

	if pointer {
		return "", false, errors.Newf("pointer cast to %s * is not a constant", name)
	}
	goType, ok := r.ev.casts[name]
	if !ok {
		return "", false, errors.Newf("no Go type for cast to %s", name)
	}
	return goType, true, nil
}

func allTypeWords(words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !typeWords[w] {
			return false
		}
	}
	return true
}

// intWidth reports the width and signedness of an integer Go type
func (ev *Evaluator) intWidth(goType string) (int64, bool, bool) {
	switch goType {
	case "int8", "int16", "int32", "int64":
		n, _ := strconv.ParseInt(goType[3:], 10, 64)
		return n, true, true
	case "uint8", "uint16", "uint32", "uint64":
		n, _ := strconv.ParseInt(goType[4:], 10, 64)
		return n, false, true
	case "int":
		return bits(ev.cfg.Widths.Pointer, 8), true, true
	case "uint", "uintptr":
		return bits(ev.cfg.Widths.Pointer, 8), false, true
	}
	return 0, false, false
}

// convert applies a C cast to the rewritten operand. Integer casts truncate
// floats toward zero and reduce the value modulo the target width.
func (ev *Evaluator) convert(goType, operand string) (string, error) {
	size, signed, isInt := ev.intWidth(goType)
	if !isInt && goType != "bool" {
		return goType + "(" + operand + ")", nil
	}
	tv, err := eval(operand)
	if err != nil {
		return "", err
	}
	v := tv.Value
	switch v.Kind() {
	case constant.Bool:
		if goType == "bool" {
			return "bool(" + v.ExactString() + ")", nil
		}
		v = constant.MakeInt64(0)
		if constant.BoolVal(tv.Value) {
			v = constant.MakeInt64(1)
		}
	case constant.Float:
		f, _ := constant.Float64Val(v)
		v = constant.ToInt(constant.MakeFloat64(math.Trunc(f)))
	case constant.Int:
	default:
		return "", errors.Newf("cannot cast %s to %s", v.ExactString(), goType)
	}
	if goType == "bool" {
		return "bool(" + strconv.FormatBool(constant.Sign(v) != 0) + ")", nil
	}
	return goType + "(" + wrap(v, size, signed).ExactString() + ")", nil
}
