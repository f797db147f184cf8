package astdump

import (
	"gopkg.in/yaml.v3"

	"github.com/teranos/cbindgen/errors"
)

// document is the top level of a header description.
//
//	file: demo.h
//	data_model: LP64        # optional, derived from the target triple otherwise
//	files:
//	  - {path: /usr/include/stdio.h, system: true}
//	decls:
//	  - kind: struct
//	    name: P
//	    fields:
//	      - {name: x, type: int32_t}
//	      - {name: pad_needed, type: char}
//	  - kind: function
//	    name: area
//	    return: int
//	    params: [{name: p, type: "struct P *"}]
//	  - kind: macro
//	    name: MAX
//	    tokens: 100ULL
type document struct {
	File      string     `yaml:"file"`
	DataModel string     `yaml:"data_model"`
	Files     []fileSpec `yaml:"files"`
	Decls     []declSpec `yaml:"decls"`
}

type fileSpec struct {
	Path   string `yaml:"path"`
	System bool   `yaml:"system"`
}

// declSpec is one top-level declaration. Which keys apply depends on Kind:
// struct, union, enum, typedef, function, variable or macro.
type declSpec struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
	Static bool   `yaml:"static"`

	// struct, union
	Opaque bool        `yaml:"opaque"`
	Fields []fieldSpec `yaml:"fields"`

	// function
	Return   string      `yaml:"return"`
	Params   []paramSpec `yaml:"params"`
	CallConv string      `yaml:"callconv"`
	Variadic bool        `yaml:"variadic"`

	// typedef target, variable type or enum integer type
	Type typeSpec `yaml:"type"`

	// enum
	Constants []constSpec `yaml:"constants"`

	// macro
	Tokens       string `yaml:"tokens"`
	FunctionLike bool   `yaml:"function_like"`
}

type fieldSpec struct {
	Name string   `yaml:"name"`
	Type typeSpec `yaml:"type"`
	// Offset overrides the offset the front-end reports, in bytes
	Offset *int64 `yaml:"offset"`
	Bits   int    `yaml:"bits"`
}

type paramSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type constSpec struct {
	Name  string `yaml:"name"`
	Value *int64 `yaml:"value"`
}

// typeSpec is either a type expression string or an inline anonymous
// definition: {struct: [fields]}, {union: [fields]} or {enum: [constants]}.
type typeSpec struct {
	Expr   string
	Record *inlineRecord
	Enum   []constSpec
	IsEnum bool
}

type inlineRecord struct {
	Union  bool
	Fields []fieldSpec
}

func (t typeSpec) isZero() bool {
	return t.Expr == "" && t.Record == nil && !t.IsEnum
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *typeSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		t.Expr = value.Value
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, body := value.Content[i].Value, value.Content[i+1]
			switch key {
			case "struct", "union":
				var fields []fieldSpec
				if err := body.Decode(&fields); err != nil {
					return err
				}
				t.Record = &inlineRecord{Union: key == "union", Fields: fields}
			case "enum":
				if err := body.Decode(&t.Enum); err != nil {
					return err
				}
				t.IsEnum = true
			default:
				return errors.Newf("line %d: unknown inline type %q", value.Line, key)
			}
		}
		return nil
	default:
		return errors.Newf("line %d: type must be a string or a mapping", value.Line)
	}
}
