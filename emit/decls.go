package emit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/cbindgen/target"
)

func writeConstants(sb *strings.Builder, m *target.Model) {
	if len(m.Constants) == 0 {
		return
	}
	sb.WriteString("const (\n")
	for _, c := range m.Constants {
		sb.WriteString(fmt.Sprintf("\t%s %s = %s\n", c.Name, c.Type, c.Value))
	}
	sb.WriteString(")\n\n")
}

func writeEnums(sb *strings.Builder, m *target.Model) {
	for _, e := range m.Enums {
		sb.WriteString(fmt.Sprintf("// %s is C enum %s\n", e.Name, e.CName))
		sb.WriteString(fmt.Sprintf("type %s %s\n\n", e.Name, e.Type))
		if len(e.Members) == 0 {
			continue
		}
		sb.WriteString("const (\n")
		for _, mem := range e.Members {
			sb.WriteString(fmt.Sprintf("\t%s %s = %d\n", mem.Name, e.Name, mem.Value))
		}
		sb.WriteString(")\n\n")
	}
}

func writeAliases(sb *strings.Builder, m *target.Model) {
	for _, a := range m.Aliases {
		sb.WriteString(fmt.Sprintf("type %s = %s\n\n", a.Name, a.Target))
	}
}

func writeOpaques(sb *strings.Builder, m *target.Model) {
	for _, o := range m.Opaques {
		sb.WriteString(fmt.Sprintf("// %s is opaque on the Go side\n", o.Name))
		if o.Size <= 0 {
			sb.WriteString(fmt.Sprintf("type %s struct{ _ [0]byte }\n\n", o.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("type %s struct {\n", o.Name))
		sb.WriteString(fmt.Sprintf("\t_ [0]%s\n", aligner(o.Align)))
		sb.WriteString(fmt.Sprintf("\t_ [%d]byte\n", o.Size))
		sb.WriteString("}\n\n")
	}
}

func writeFunctionPointers(sb *strings.Builder, m *target.Model) {
	for _, fp := range m.FunctionPointers {
		sb.WriteString(fmt.Sprintf("// %s holds a C function pointer: %s\n", fp.Name, signature(fp.Params, fp.Return)))
		if fp.CallConv != "" && fp.CallConv != "cdecl" {
			sb.WriteString(fmt.Sprintf("// Calling convention: %s\n", fp.CallConv))
		}
		sb.WriteString(fmt.Sprintf("type %s uintptr\n\n", fp.Name))
	}
}

func writeArrays(sb *strings.Builder, m *target.Model) {
	for _, a := range m.Arrays {
		sb.WriteString(fmt.Sprintf("type %s [%d]%s\n\n", a.Name, a.Length, a.Elem))
		sb.WriteString(fmt.Sprintf("func (r *%s) Len() int { return %d }\n\n", a.Name, a.Length))
		sb.WriteString(fmt.Sprintf("func (r *%s) At(i int) %s { return r[i] }\n\n", a.Name, a.Elem))
		sb.WriteString(fmt.Sprintf("func (r *%s) Set(i int, v %s) { r[i] = v }\n\n", a.Name, a.Elem))
	}
}

func writeStructs(sb *strings.Builder, m *target.Model) {
	for _, s := range m.Structs {
		kind := "struct"
		if s.Union {
			kind = "union"
		}
		sb.WriteString(fmt.Sprintf("// %s is C %s %s (%d bytes)\n", s.Name, kind, s.CName, s.Size))
		if s.Blob {
			writeBlob(sb, s)
			continue
		}
		sb.WriteString(fmt.Sprintf("type %s struct {\n", s.Name))
		if len(s.Fields) > 0 && s.Fields[0].Offset > 0 {
			sb.WriteString(fmt.Sprintf("\t_ [%d]byte\n", s.Fields[0].Offset))
		}
		for _, f := range s.Fields {
			sb.WriteString(fmt.Sprintf("\t%s %s\n", f.Name, f.Type))
			if f.Padding > 0 {
				sb.WriteString(fmt.Sprintf("\t_ [%d]byte\n", f.Padding))
			}
		}
		sb.WriteString("}\n\n")
	}
}

// writeBlob lays s out as raw storage. Every member gets a pointer accessor
// at its byte offset.
func writeBlob(sb *strings.Builder, s target.Struct) {
	sb.WriteString(fmt.Sprintf("type %s struct {\n", s.Name))
	sb.WriteString(fmt.Sprintf("\t_   [0]%s\n", aligner(s.Align)))
	sb.WriteString(fmt.Sprintf("\traw [%d]byte\n", s.Size))
	sb.WriteString("}\n\n")

	seen := map[string]bool{"raw": true}
	for _, f := range s.Fields {
		name := accessorName(f.Name)
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		sb.WriteString(fmt.Sprintf("// %s returns member %s at offset %d\n", name, f.CName, f.Offset))
		sb.WriteString(fmt.Sprintf("func (r *%s) %s() *%s {\n", s.Name, name, f.Type))
		sb.WriteString(fmt.Sprintf("\treturn (*%s)(unsafe.Add(unsafe.Pointer(&r.raw), %d))\n", f.Type, f.Offset))
		sb.WriteString("}\n\n")
	}
}

func writeVariables(sb *strings.Builder, m *target.Model) {
	if len(m.Variables) == 0 {
		return
	}
	sb.WriteString("// Global variables, bound by Load\n")
	sb.WriteString("var (\n")
	for _, v := range m.Variables {
		sb.WriteString(fmt.Sprintf("\t%s *%s\n", v.Name, v.Type))
	}
	sb.WriteString(")\n\n")
}

func writeFunctions(sb *strings.Builder, m *target.Model) {
	if len(m.Functions) == 0 {
		return
	}
	sb.WriteString("// Library functions, bound by Load\n")
	sb.WriteString("var (\n")
	for _, f := range m.Functions {
		sb.WriteString(fmt.Sprintf("\t%s %s\n", f.Name, signature(f.Params, f.Return)))
	}
	sb.WriteString(")\n\n")
}

func signature(params []target.Param, ret string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + p.Type
	}
	sig := "func(" + strings.Join(parts, ", ") + ")"
	if ret != "" {
		sig += " " + ret
	}
	return sig
}

// aligner picks the zero-length array element that gives a blob its C alignment
func aligner(align int64) string {
	switch align {
	case 1:
		return "uint8"
	case 2:
		return "uint16"
	case 4:
		return "uint32"
	}
	return "uint64"
}

func accessorName(field string) string {
	r, n := utf8.DecodeRuneInString(field)
	if r == '_' || n == 0 {
		return "Field" + field
	}
	return string(unicode.ToUpper(r)) + field[n:]
}
