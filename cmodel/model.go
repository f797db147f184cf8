// Package cmodel holds the resolved C semantic model of one header for one
// target platform. A Model is built once by the explorer and never mutated
// afterwards.
package cmodel

import "sort"

// CallConv is a function calling convention
type CallConv string

const (
	CallConvCdecl    CallConv = "cdecl"
	CallConvStdcall  CallConv = "stdcall"
	CallConvFastcall CallConv = "fastcall"
)

// RecordKind distinguishes structs from unions
type RecordKind string

const (
	RecordStruct RecordKind = "struct"
	RecordUnion  RecordKind = "union"
)

type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Function struct {
	Name     string    `json:"name"`
	CallConv CallConv  `json:"call_conv"`
	Return   string    `json:"return"`
	Params   []Param   `json:"params"`
	Location *Location `json:"location,omitempty"`
}

// Field is one record member after anonymous members have been spliced in.
// Padding may be negative when members overlap (union members promoted into a struct).
type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Offset  int64  `json:"offset"`
	Padding int64  `json:"padding"`
	Size    int64  `json:"size"`
}

type Record struct {
	Name       string     `json:"name"`
	ParentName string     `json:"parent_name,omitempty"`
	Kind       RecordKind `json:"kind"`
	Fields     []Field    `json:"fields"`
	Size       int64      `json:"size"`
	Align      int64      `json:"align"`
	Location   *Location  `json:"location,omitempty"`
}

// Overlaps reports whether any two fields share bytes
func (r Record) Overlaps() bool {
	for _, f := range r.Fields {
		if f.Padding < 0 {
			return true
		}
	}
	return false
}

type EnumMember struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type Enum struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Members  []EnumMember `json:"members"`
	Location *Location    `json:"location,omitempty"`
}

type Alias struct {
	Name       string    `json:"name"`
	Underlying string    `json:"underlying"`
	Location   *Location `json:"location,omitempty"`
}

type Opaque struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Location *Location `json:"location,omitempty"`
}

// FunctionPointer is a pointer-to-function type. Typedef is set when Name
// comes from a typedef rather than the structural signature.
type FunctionPointer struct {
	Name     string   `json:"name"`
	Typedef  bool     `json:"typedef,omitempty"`
	CallConv CallConv `json:"call_conv"`
	Return   string   `json:"return"`
	Params   []Param  `json:"params"`
}

// Macro is an object-like macro with the tokens that follow its name
type Macro struct {
	Name     string    `json:"name"`
	Tokens   []string  `json:"tokens"`
	Location *Location `json:"location,omitempty"`
}

// Constant is a macro object evaluated to a Go typed literal
type Constant struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Value    string    `json:"value"`
	Location *Location `json:"location,omitempty"`
}

type Variable struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Location *Location `json:"location,omitempty"`
}

// Model is the C semantic model of one header on one platform
type Model struct {
	Platform         string            `json:"platform"`
	Header           string            `json:"header"`
	Functions        []Function        `json:"functions"`
	Records          []Record          `json:"records"`
	Enums            []Enum            `json:"enums"`
	Aliases          []Alias           `json:"aliases"`
	Opaques          []Opaque          `json:"opaques"`
	FunctionPointers []FunctionPointer `json:"function_pointers"`
	Macros           []Macro           `json:"macros"`
	Constants        []Constant        `json:"constants"`
	Variables        []Variable        `json:"variables"`
	Types            []CType           `json:"types"`
	Collisions       []string          `json:"collisions,omitempty"`
}

// Sort orders every slice by name
func (m *Model) Sort() {
	sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].Name < m.Functions[j].Name })
	sort.Slice(m.Records, func(i, j int) bool { return m.Records[i].Name < m.Records[j].Name })
	sort.Slice(m.Enums, func(i, j int) bool { return m.Enums[i].Name < m.Enums[j].Name })
	sort.Slice(m.Aliases, func(i, j int) bool { return m.Aliases[i].Name < m.Aliases[j].Name })
	sort.Slice(m.Opaques, func(i, j int) bool { return m.Opaques[i].Name < m.Opaques[j].Name })
	sort.Slice(m.FunctionPointers, func(i, j int) bool { return m.FunctionPointers[i].Name < m.FunctionPointers[j].Name })
	sort.Slice(m.Macros, func(i, j int) bool { return m.Macros[i].Name < m.Macros[j].Name })
	sort.Slice(m.Constants, func(i, j int) bool { return m.Constants[i].Name < m.Constants[j].Name })
	sort.Slice(m.Variables, func(i, j int) bool { return m.Variables[i].Name < m.Variables[j].Name })
	sort.Slice(m.Types, func(i, j int) bool { return m.Types[i].Name < m.Types[j].Name })
	sort.Strings(m.Collisions)
}

// Type returns the registered type called name
func (m *Model) Type(name string) (CType, bool) {
	i := sort.Search(len(m.Types), func(i int) bool { return m.Types[i].Name >= name })
	if i < len(m.Types) && m.Types[i].Name == name {
		return m.Types[i], true
	}
	// Models assembled by hand may not be sorted yet
	for _, t := range m.Types {
		if t.Name == name {
			return t, true
		}
	}
	return CType{}, false
}

// Record returns the record called name
func (m *Model) Record(name string) (Record, bool) {
	for _, r := range m.Records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// Function returns the function called name
func (m *Model) Function(name string) (Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}
