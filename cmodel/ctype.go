package cmodel

import (
	"fmt"

	"github.com/teranos/cbindgen/errors"
)

// Kind classifies a registered C type
type Kind int

const (
	KindPrimitive Kind = iota
	KindPointer
	KindArray
	KindEnum
	KindRecord
	KindAlias
	KindFunctionPointer
	KindOpaque
)

var kindNames = [...]string{
	KindPrimitive:       "primitive",
	KindPointer:         "pointer",
	KindArray:           "array",
	KindEnum:            "enum",
	KindRecord:          "record",
	KindAlias:           "alias",
	KindFunctionPointer: "function-pointer",
	KindOpaque:          "opaque",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, errors.Wrapf(errors.ErrUnknownKind, "type kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrUnknownKind, "type kind %q", string(text))
}

// Location is a source position. File is a base name unless full paths were requested.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
	System bool   `json:"system,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// CType is one distinct C type of a platform run, identified by Name.
//
// Inner names the pointee of a pointer, the element of an array, the target
// of an alias and the backing integer of an enum.
type CType struct {
	Name        string    `json:"name"`
	Spelling    string    `json:"spelling,omitempty"`
	Kind        Kind      `json:"kind"`
	Size        int64     `json:"size"`
	Align       int64     `json:"align"`
	ElementSize int64     `json:"element_size,omitempty"`
	ArrayLength int64     `json:"array_length,omitempty"`
	Inner       string    `json:"inner,omitempty"`
	IsBuiltin   bool      `json:"is_builtin,omitempty"`
	Signed      bool      `json:"signed,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// IsOpaque reports whether the type has no visible definition
func (t CType) IsOpaque() bool {
	return t.Kind == KindOpaque
}
