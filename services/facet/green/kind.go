// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package green

// Kind identifies the grammar construct a node represents.
type Kind uint16

// Node kinds of the modelled Go subset.
//
// Child slot layouts (index: meaning) are fixed per kind:
//
//	File:         0 package Ident, 1 List of declarations
//	FuncDecl:     0 receiver SeparatedList, 1 name Ident, 2 params SeparatedList,
//	              3 results SeparatedList, 4 body Block
//	GenDecl:      text "var"|"const", 0 List of specs
//	VarSpec:      0 names SeparatedList, 1 type, 2 values SeparatedList
//	ConstSpec:    same as VarSpec
//	Param:        0 names SeparatedList, 1 type
//	Block:        0 List of statements
//	ExprStmt:     0 expression
//	AssignStmt:   text operator, 0 lhs SeparatedList, 1 rhs SeparatedList
//	ReturnStmt:   0 results SeparatedList
//	IfStmt:       0 condition, 1 then Block, 2 else (Block or IfStmt)
//	Ident:        text name
//	BasicLit:     text literal source, flags literal kind
//	BinaryExpr:   text operator, 0 x, 1 y
//	UnaryExpr:    text operator, 0 x
//	CallExpr:     0 function, 1 arguments SeparatedList
//	ParenExpr:    0 x
//	SelectorExpr: 0 x, 1 selector Ident
//	TypeRef:      text type source
//	Verbatim:     text source of an unmodelled construct
//	Error:        text source of a region the grammar could not parse
const (
	KindInvalid Kind = iota
	KindFile
	KindFuncDecl
	KindGenDecl
	KindVarSpec
	KindConstSpec
	KindParam
	KindBlock
	KindExprStmt
	KindAssignStmt
	KindReturnStmt
	KindIfStmt
	KindIdent
	KindBasicLit
	KindBinaryExpr
	KindUnaryExpr
	KindCallExpr
	KindParenExpr
	KindSelectorExpr
	KindTypeRef
	KindList
	KindSeparatedList
	KindComma
	KindVerbatim
	KindError

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:       "invalid",
	KindFile:          "file",
	KindFuncDecl:      "func_decl",
	KindGenDecl:       "gen_decl",
	KindVarSpec:       "var_spec",
	KindConstSpec:     "const_spec",
	KindParam:         "param",
	KindBlock:         "block",
	KindExprStmt:      "expr_stmt",
	KindAssignStmt:    "assign_stmt",
	KindReturnStmt:    "return_stmt",
	KindIfStmt:        "if_stmt",
	KindIdent:         "ident",
	KindBasicLit:      "basic_lit",
	KindBinaryExpr:    "binary_expr",
	KindUnaryExpr:     "unary_expr",
	KindCallExpr:      "call_expr",
	KindParenExpr:     "paren_expr",
	KindSelectorExpr:  "selector_expr",
	KindTypeRef:       "type_ref",
	KindList:          "list",
	KindSeparatedList: "separated_list",
	KindComma:         "comma",
	KindVerbatim:      "verbatim",
	KindError:         "error",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind is the inverse of String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// IsList reports whether k is one of the list kinds.
func (k Kind) IsList() bool {
	return k == KindList || k == KindSeparatedList
}

// Literal kind flags carried by BasicLit nodes. Exactly one must be set.
const (
	LitInt uint32 = 1 << iota
	LitFloat
	LitImag
	LitRune
	LitString
)

// LitMask covers every literal kind flag.
const LitMask = LitInt | LitFloat | LitImag | LitRune | LitString
