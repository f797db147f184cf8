package clang

import (
	"github.com/go-clang/clang-v13/clang"

	"github.com/teranos/cbindgen/frontend"
)

var cursorKinds = map[clang.CursorKind]frontend.CursorKind{
	clang.Cursor_TranslationUnit:    frontend.CursorTranslationUnit,
	clang.Cursor_FunctionDecl:       frontend.CursorFunction,
	clang.Cursor_VarDecl:            frontend.CursorVariable,
	clang.Cursor_StructDecl:         frontend.CursorStruct,
	clang.Cursor_UnionDecl:          frontend.CursorUnion,
	clang.Cursor_EnumDecl:           frontend.CursorEnum,
	clang.Cursor_EnumConstantDecl:   frontend.CursorEnumConstant,
	clang.Cursor_FieldDecl:          frontend.CursorField,
	clang.Cursor_TypedefDecl:        frontend.CursorTypedef,
	clang.Cursor_ParmDecl:           frontend.CursorParam,
	clang.Cursor_MacroDefinition:    frontend.CursorMacroDefinition,
	clang.Cursor_MacroExpansion:     frontend.CursorMacroExpansion,
	clang.Cursor_InclusionDirective: frontend.CursorInclusion,
}

func cursorKind(k clang.CursorKind) frontend.CursorKind {
	if kind, ok := cursorKinds[k]; ok {
		return kind
	}
	return frontend.CursorUnknown
}

var typeKinds = map[clang.TypeKind]frontend.TypeKind{
	clang.Type_Invalid:         frontend.TypeInvalid,
	clang.Type_Unexposed:       frontend.TypeUnexposed,
	clang.Type_Void:            frontend.TypeVoid,
	clang.Type_Bool:            frontend.TypeBool,
	clang.Type_Char_S:          frontend.TypeCharS,
	clang.Type_Char_U:          frontend.TypeCharU,
	clang.Type_SChar:           frontend.TypeSChar,
	clang.Type_UChar:           frontend.TypeUChar,
	clang.Type_WChar:           frontend.TypeWChar,
	clang.Type_Char16:          frontend.TypeChar16,
	clang.Type_Char32:          frontend.TypeChar32,
	clang.Type_Short:           frontend.TypeShort,
	clang.Type_UShort:          frontend.TypeUShort,
	clang.Type_Int:             frontend.TypeInt,
	clang.Type_UInt:            frontend.TypeUInt,
	clang.Type_Long:            frontend.TypeLong,
	clang.Type_ULong:           frontend.TypeULong,
	clang.Type_LongLong:        frontend.TypeLongLong,
	clang.Type_ULongLong:       frontend.TypeULongLong,
	clang.Type_Int128:          frontend.TypeInt128,
	clang.Type_UInt128:         frontend.TypeUInt128,
	clang.Type_Float:           frontend.TypeFloat,
	clang.Type_Double:          frontend.TypeDouble,
	clang.Type_LongDouble:      frontend.TypeLongDouble,
	clang.Type_Pointer:         frontend.TypePointer,
	clang.Type_Record:          frontend.TypeRecord,
	clang.Type_Enum:            frontend.TypeEnum,
	clang.Type_Typedef:         frontend.TypeTypedef,
	clang.Type_FunctionProto:   frontend.TypeFunctionProto,
	clang.Type_FunctionNoProto: frontend.TypeFunctionNoProto,
	clang.Type_ConstantArray:   frontend.TypeConstantArray,
	clang.Type_IncompleteArray: frontend.TypeIncompleteArray,
	clang.Type_Elaborated:      frontend.TypeElaborated,
	clang.Type_Attributed:      frontend.TypeAttributed,
	clang.Type_Complex:         frontend.TypeComplex,
	clang.Type_Vector:          frontend.TypeVector,
}

func typeKind(k clang.TypeKind) frontend.TypeKind {
	if kind, ok := typeKinds[k]; ok {
		return kind
	}
	// Any other clang type kind has no C ABI mapping; the explorer rejects it
	return frontend.TypeVector
}

func callingConv(cc clang.CallingConv) frontend.CallingConv {
	switch cc {
	case clang.CallingConv_C:
		return frontend.CallConvC
	case clang.CallingConv_X86StdCall:
		return frontend.CallConvStdCall
	case clang.CallingConv_X86FastCall:
		return frontend.CallConvFastCall
	case clang.CallingConv_X86_64SysV:
		return frontend.CallConvSysV
	case clang.CallingConv_Win64:
		return frontend.CallConvWin64
	case clang.CallingConv_AAPCS, clang.CallingConv_AAPCS_VFP:
		return frontend.CallConvAAPCS
	case clang.CallingConv_X86VectorCall:
		return frontend.CallConvVectorCall
	default:
		return frontend.CallConvOther
	}
}

func tokenKind(k clang.TokenKind) frontend.TokenKind {
	switch k {
	case clang.Token_Keyword:
		return frontend.TokenKeyword
	case clang.Token_Identifier:
		return frontend.TokenIdentifier
	case clang.Token_Literal:
		return frontend.TokenLiteral
	case clang.Token_Comment:
		return frontend.TokenComment
	default:
		return frontend.TokenPunctuation
	}
}
