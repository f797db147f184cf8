// Package frontend defines the cursor-based view of a parsed C header that
// the explorer walks. Implementations live in subpackages: clang binds
// libclang, astdump reads a declarative YAML description.
package frontend

import "fmt"

// Target selects the platform a header is parsed for
type Target struct {
	// Triple is an LLVM target triple such as x86_64-pc-linux-gnu
	Triple string
	// Args are extra front-end arguments (include paths, defines)
	Args []string
}

// Parser produces a translation unit for one header and target
type Parser interface {
	Parse(header string, target Target) (TranslationUnit, error)
}

// TranslationUnit is a parsed header. Close releases front-end resources.
type TranslationUnit interface {
	Root() Cursor
	Diagnostics() []Diagnostic
	// BuiltinSize returns the size in bytes of a builtin type on the parsed target
	BuiltinSize(kind TypeKind) int64
	// CharSigned reports whether plain char is signed on the parsed target
	CharSigned() bool
	Close()
}

// Diagnostic is a message reported by the front-end itself
type Diagnostic struct {
	Fatal    bool
	Message  string
	Location Location
}

// Cursor is a node of the C AST
type Cursor interface {
	Kind() CursorKind
	Spelling() string
	Type() Type
	Linkage() Linkage
	Location() Location
	Children() []Cursor

	// IsAnonymous reports whether a record or enum declaration has no tag
	IsAnonymous() bool
	// IsAnonymousMember reports whether a record declaration is an unnamed
	// member of its enclosing record (C11 anonymous struct or union)
	IsAnonymousMember() bool
	IsBitField() bool
	IsVariadic() bool
	IsFunctionLikeMacro() bool

	ResultType() Type
	Arguments() []Cursor
	EnumValue() int64
	EnumIntegerType() Type
	TypedefUnderlying() Type
	// FieldOffset returns the byte offset of a field in its record, negative when unknown
	FieldOffset() int64
	// Tokens returns the spelled tokens of the cursor extent; for a macro the first token is its name
	Tokens() []Token
}

// Type is a C type as seen by the front-end
type Type interface {
	Kind() TypeKind
	Spelling() string
	Canonical() Type
	IsConst() bool

	Pointee() Type
	Element() Type
	// ArrayLength returns the element count of a constant array, negative otherwise
	ArrayLength() int64
	// Named returns the type an elaborated type refers to
	Named() Type
	// Modified returns the type an attributed type wraps
	Modified() Type
	Declaration() Cursor

	// Size returns the size in bytes, negative when the type is incomplete
	Size() int64
	Align() int64
	// OffsetOf returns the byte offset of a member of a record type, looking
	// through anonymous members; negative when unknown
	OffsetOf(field string) int64

	Result() Type
	Params() []Type
	IsVariadic() bool
	CallingConv() CallingConv
}

// CursorKind classifies a cursor
type CursorKind int

const (
	CursorUnknown CursorKind = iota
	CursorTranslationUnit
	CursorFunction
	CursorVariable
	CursorStruct
	CursorUnion
	CursorEnum
	CursorEnumConstant
	CursorField
	CursorTypedef
	CursorParam
	CursorMacroDefinition
	CursorMacroExpansion
	CursorInclusion
)

func (k CursorKind) String() string {
	switch k {
	case CursorTranslationUnit:
		return "TranslationUnit"
	case CursorFunction:
		return "FunctionDecl"
	case CursorVariable:
		return "VarDecl"
	case CursorStruct:
		return "StructDecl"
	case CursorUnion:
		return "UnionDecl"
	case CursorEnum:
		return "EnumDecl"
	case CursorEnumConstant:
		return "EnumConstantDecl"
	case CursorField:
		return "FieldDecl"
	case CursorTypedef:
		return "TypedefDecl"
	case CursorParam:
		return "ParmDecl"
	case CursorMacroDefinition:
		return "MacroDefinition"
	case CursorMacroExpansion:
		return "MacroExpansion"
	case CursorInclusion:
		return "InclusionDirective"
	default:
		return fmt.Sprintf("CursorKind(%d)", int(k))
	}
}

// TypeKind classifies a type
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeUnexposed
	TypeVoid
	TypeBool
	TypeCharS
	TypeCharU
	TypeSChar
	TypeUChar
	TypeWChar
	TypeChar16
	TypeChar32
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLong
	TypeULong
	TypeLongLong
	TypeULongLong
	TypeInt128
	TypeUInt128
	TypeFloat
	TypeDouble
	TypeLongDouble
	TypePointer
	TypeRecord
	TypeEnum
	TypeTypedef
	TypeFunctionProto
	TypeFunctionNoProto
	TypeConstantArray
	TypeIncompleteArray
	TypeElaborated
	TypeAttributed
	TypeComplex
	TypeVector
)

var typeKindNames = map[TypeKind]string{
	TypeInvalid:         "Invalid",
	TypeUnexposed:       "Unexposed",
	TypeVoid:            "Void",
	TypeBool:            "Bool",
	TypeCharS:           "Char_S",
	TypeCharU:           "Char_U",
	TypeSChar:           "SChar",
	TypeUChar:           "UChar",
	TypeWChar:           "WChar",
	TypeChar16:          "Char16",
	TypeChar32:          "Char32",
	TypeShort:           "Short",
	TypeUShort:          "UShort",
	TypeInt:             "Int",
	TypeUInt:            "UInt",
	TypeLong:            "Long",
	TypeULong:           "ULong",
	TypeLongLong:        "LongLong",
	TypeULongLong:       "ULongLong",
	TypeInt128:          "Int128",
	TypeUInt128:         "UInt128",
	TypeFloat:           "Float",
	TypeDouble:          "Double",
	TypeLongDouble:      "LongDouble",
	TypePointer:         "Pointer",
	TypeRecord:          "Record",
	TypeEnum:            "Enum",
	TypeTypedef:         "Typedef",
	TypeFunctionProto:   "FunctionProto",
	TypeFunctionNoProto: "FunctionNoProto",
	TypeConstantArray:   "ConstantArray",
	TypeIncompleteArray: "IncompleteArray",
	TypeElaborated:      "Elaborated",
	TypeAttributed:      "Attributed",
	TypeComplex:         "Complex",
	TypeVector:          "Vector",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// IsPrimitive reports whether k is a builtin arithmetic type or void
func (k TypeKind) IsPrimitive() bool {
	return k >= TypeVoid && k <= TypeLongDouble
}

// Linkage of a declaration
type Linkage int

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
)

// CallingConv of a function type
type CallingConv int

const (
	CallConvDefault CallingConv = iota // no explicit convention reported
	CallConvC
	CallConvStdCall
	CallConvFastCall
	CallConvSysV
	CallConvWin64
	CallConvAAPCS
	CallConvVectorCall
	CallConvOther
)

func (c CallingConv) String() string {
	switch c {
	case CallConvDefault:
		return "default"
	case CallConvC:
		return "c"
	case CallConvStdCall:
		return "stdcall"
	case CallConvFastCall:
		return "fastcall"
	case CallConvSysV:
		return "sysv"
	case CallConvWin64:
		return "win64"
	case CallConvAAPCS:
		return "aapcs"
	case CallConvVectorCall:
		return "vectorcall"
	default:
		return "other"
	}
}

// Location is a source position
type Location struct {
	File   string
	Line   int
	Column int
	System bool
}

// IsValid reports whether the location names a file
func (l Location) IsValid() bool {
	return l.File != ""
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// TokenKind classifies a token
type TokenKind int

const (
	TokenPunctuation TokenKind = iota
	TokenKeyword
	TokenIdentifier
	TokenLiteral
	TokenComment
)

// Token is one spelled preprocessor token
type Token struct {
	Kind TokenKind
	Text string
}
