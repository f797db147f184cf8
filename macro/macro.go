// Package macro turns object-like C macros into Go typed constants.
//
// A macro body is rewritten token by token into a Go constant expression
// and handed to the Go type checker. Earlier constants and enum values are
// substituted by value, so only macros that reduce to a constant survive.
package macro

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/cbindgen/cmodel"
	"github.com/teranos/cbindgen/diag"
	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
)

// Widths are the measured byte sizes of the platform's builtin types
type Widths struct {
	Int      int64
	Long     int64
	LongLong int64
	Pointer  int64
	WChar    int64

	// CharUnsigned is set where plain char is unsigned (ARM Linux)
	CharUnsigned bool
}

// Config parameterizes an Evaluator for one platform
type Config struct {
	Widths Widths
	// TypeAliases maps C type names to Go types for casts
	TypeAliases map[string]string
}

// Evaluator evaluates the macros of one translation unit
type Evaluator struct {
	cfg    Config
	casts  map[string]string
	sink   *diag.Sink
	logger *zap.SugaredLogger
}

// New builds an evaluator; sink receives one diagnostic per rejected macro
func New(cfg Config, sink *diag.Sink, log *zap.SugaredLogger) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		casts:  castTable(cfg),
		sink:   sink,
		logger: logger.OrNop(log),
	}
}

// binding is what an identifier is replaced with in later macros
type binding struct {
	text string
}

// Evaluate processes macros in the order given. enumOrder lists enum
// constant names with their values in enumValues; they are visible to every
// macro. The result keeps the input order of the surviving macros.
func (ev *Evaluator) Evaluate(macros []cmodel.Macro, enumOrder []string, enumValues map[string]int64) []cmodel.Constant {
	env := &env{
		bound:    make(map[string]binding, len(macros)+len(enumOrder)),
		position: make(map[string]int, len(macros)),
		rejected: make(map[string]bool),
	}
	for _, name := range enumOrder {
		env.bound[name] = binding{text: "(" + strconv.FormatInt(enumValues[name], 10) + ")"}
	}
	for i, m := range macros {
		if _, dup := env.position[m.Name]; !dup {
			env.position[m.Name] = i
		}
	}

	var out []cmodel.Constant
	for i, m := range macros {
		if len(m.Tokens) == 0 {
			ev.logger.Debugw("skipped empty macro", logger.FieldEntity, m.Name)
			env.rejected[m.Name] = true
			continue
		}
		c, err := ev.evaluate(env, i, m)
		if err != nil {
			env.rejected[m.Name] = true
			ev.report(m, err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (ev *Evaluator) report(m cmodel.Macro, err error) {
	code := diag.CodeMacroEval
	if errors.Is(err, errForwardReference) {
		code = diag.CodeForwardReference
	}
	file, line := "", 0
	if m.Location != nil {
		file, line = m.Location.File, m.Location.Line
	}
	ev.sink.Reportf(code, m.Name, file, line, "macro %s: %v", m.Name, err)
	ev.logger.Debugw("macro rejected", logger.FieldEntity, m.Name, logger.FieldCode, string(code), logger.FieldError, err)
}

func (ev *Evaluator) evaluate(env *env, index int, m cmodel.Macro) (cmodel.Constant, error) {
	r := rewriter{ev: ev, env: env, index: index, toks: stripParens(m.Tokens)}
	expr, err := r.rewrite(0, len(r.toks))
	if err != nil {
		return cmodel.Constant{}, err
	}

	tv, err := eval(expr)
	if err != nil {
		return cmodel.Constant{}, err
	}

	typ := tv.Type
	b, ok := typ.(*types.Basic)
	if !ok || b.Info()&types.IsUntyped == 0 {
		typeName := goTypeName(typ)
		value := literal(tv.Value, typ)
		env.bound[m.Name] = binding{text: typeName + "(" + value + ")"}
		return cmodel.Constant{Name: m.Name, Type: typeName, Value: value, Location: m.Location}, nil
	}

	// untyped results take the type C gives them
	var typeName, value string
	switch {
	case b.Info()&types.IsInteger != 0:
		typeName, err = ev.integerType(tv.Value)
		if err != nil {
			return cmodel.Constant{}, err
		}
		value = tv.Value.ExactString()
	case b.Info()&types.IsBoolean != 0:
		typeName = fmt.Sprintf("int%d", bits(ev.cfg.Widths.Int, 4))
		value = "0"
		if constant.BoolVal(tv.Value) {
			value = "1"
		}
	default:
		typ = types.Default(typ)
		typeName = goTypeName(typ)
		value = literal(tv.Value, typ)
	}
	// comparisons stay boolean for the macros that combine them
	env.bound[m.Name] = binding{text: "(" + literal(tv.Value, typ) + ")"}

	return cmodel.Constant{Name: m.Name, Type: typeName, Value: value, Location: m.Location}, nil
}

// eval type-checks a rewritten expression that must reduce to a constant
func eval(expr string) (types.TypeAndValue, error) {
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expr)
	if err != nil {
		return tv, errors.Wrapf(err, "evaluating %q", expr)
	}
	if tv.Value == nil || tv.Value.Kind() == constant.Unknown {
		return tv, errors.Newf("%q is not a constant", expr)
	}
	return tv, nil
}

// integerType picks the first of int, unsigned int, long, unsigned long,
// long long and unsigned long long that holds v
func (ev *Evaluator) integerType(v constant.Value) (string, error) {
	w := ev.cfg.Widths
	for _, size := range []int64{bits(w.Int, 4), bits(w.Long, 8), bits(w.LongLong, 8)} {
		if fits(v, size, true) {
			return fmt.Sprintf("int%d", size), nil
		}
		if fits(v, size, false) {
			return fmt.Sprintf("uint%d", size), nil
		}
	}
	return "", errors.Newf("integer constant %s does not fit unsigned long long", v.ExactString())
}

func pow2(n int64) constant.Value {
	return constant.Shift(constant.MakeInt64(1), token.SHL, uint(n))
}

func fits(v constant.Value, size int64, signed bool) bool {
	if !signed {
		return constant.Sign(v) >= 0 && constant.Compare(v, token.LSS, pow2(size))
	}
	half := pow2(size - 1)
	return constant.Compare(v, token.GEQ, constant.UnaryOp(token.SUB, half, 0)) &&
		constant.Compare(v, token.LSS, half)
}

// wrap reduces v modulo 2^size into the range of the sized integer
func wrap(v constant.Value, size int64, signed bool) constant.Value {
	mod := pow2(size)
	v = constant.BinaryOp(v, token.REM, mod)
	if constant.Sign(v) < 0 {
		v = constant.BinaryOp(v, token.ADD, mod)
	}
	if signed && constant.Compare(v, token.GEQ, pow2(size-1)) {
		v = constant.BinaryOp(v, token.SUB, mod)
	}
	return v
}

func goTypeName(t types.Type) string {
	switch t.String() {
	case "rune":
		return "int32"
	case "byte":
		return "uint8"
	}
	return t.String()
}

// literal spells a constant value as Go source
func literal(v constant.Value, t types.Type) string {
	if b, ok := t.Underlying().(*types.Basic); ok && b.Info()&types.IsFloat != 0 {
		v = constant.ToFloat(v)
	}
	switch v.Kind() {
	case constant.Float:
		f, _ := constant.Float64Val(v)
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	default:
		return v.ExactString()
	}
}
