// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package goview provides view node kinds for the modelled Go subset.
//
// Every kind wraps one green kind (see green.Kind for the slot layouts) and
// follows the same pattern: scalar properties are view.Scalar values, child
// slots are view.Child values, child collections are view.ListSlot values,
// and Export threads them through a view.Exporter.
//
// Slots are typed by category (Decl, Spec, Stmt, Expr, Type). A persistent
// node that does not fit its slot's category, and every region the parser
// could not understand, is wrapped as Invalid, which reproduces the original
// node unchanged on export.
package goview

import (
	"iter"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

// Decl is a top-level declaration: FuncDecl, GenDecl, Invalid or Verbatim.
type Decl interface {
	view.Node
	declNode()
}

// Spec is an element of a GenDecl: ValueSpec, Invalid or Verbatim.
type Spec interface {
	view.Node
	specNode()
}

// Stmt is a statement.
type Stmt interface {
	view.Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	view.Node
	exprNode()
}

// Type is a type expression.
type Type interface {
	view.Node
	typeNode()
}

// Wrap materializes g as the view node of its kind, attached to parent.
func Wrap(g *green.Node, parent view.Node) view.Node {
	switch g.Kind() {
	case green.KindFile:
		return wrapFile(g, parent)
	case green.KindFuncDecl:
		return wrapFuncDecl(g, parent)
	case green.KindGenDecl:
		return wrapGenDecl(g, parent)
	case green.KindVarSpec, green.KindConstSpec:
		return wrapValueSpec(g, parent)
	case green.KindParam:
		return wrapParam(g, parent)
	case green.KindBlock:
		return wrapBlock(g, parent)
	case green.KindExprStmt:
		return wrapExprStmt(g, parent)
	case green.KindAssignStmt:
		return wrapAssignStmt(g, parent)
	case green.KindReturnStmt:
		return wrapReturnStmt(g, parent)
	case green.KindIfStmt:
		return wrapIfStmt(g, parent)
	case green.KindIdent:
		return wrapIdent(g, parent)
	case green.KindBasicLit:
		return wrapBasicLit(g, parent)
	case green.KindBinaryExpr:
		return wrapBinaryExpr(g, parent)
	case green.KindUnaryExpr:
		return wrapUnaryExpr(g, parent)
	case green.KindCallExpr:
		return wrapCallExpr(g, parent)
	case green.KindParenExpr:
		return wrapParenExpr(g, parent)
	case green.KindSelectorExpr:
		return wrapSelectorExpr(g, parent)
	case green.KindTypeRef:
		return wrapTypeRef(g, parent)
	case green.KindVerbatim:
		return wrapVerbatim(g, parent)
	case green.KindError:
		return wrapInvalid(g, parent, "")
	default:
		return wrapInvalid(g, parent, "node")
	}
}

// wrapAs wraps g for a slot of category T. A node outside the category
// becomes Invalid.
func wrapAs[T view.Node](g *green.Node, parent view.Node, want string) T {
	if n, ok := Wrap(g, parent).(T); ok {
		return n
	}
	return any(wrapInvalid(g, parent, want)).(T)
}

func wrapDecl(g *green.Node, parent view.Node) Decl {
	return wrapAs[Decl](g, parent, "declaration")
}

func wrapSpec(g *green.Node, parent view.Node) Spec {
	return wrapAs[Spec](g, parent, "spec")
}

func wrapStmt(g *green.Node, parent view.Node) Stmt {
	return wrapAs[Stmt](g, parent, "statement")
}

func wrapExpr(g *green.Node, parent view.Node) Expr {
	return wrapAs[Expr](g, parent, "expression")
}

func wrapType(g *green.Node, parent view.Node) Type {
	return wrapAs[Type](g, parent, "type")
}

// List options shared by the kinds.
var (
	declList  = view.ListOptions[Decl]{Wrap: wrapDecl, Required: true}
	specList  = view.ListOptions[Spec]{Wrap: wrapSpec, Expander: view.ExpanderFunc(ExpandValueSpec), Required: true}
	stmtList  = view.ListOptions[Stmt]{Wrap: wrapStmt, Required: true}
	paramList = view.ListOptions[*Param]{Wrap: wrapParam, Separated: true, Expander: view.ExpanderFunc(ExpandParam), Required: true}
	optParams = view.ListOptions[*Param]{Wrap: wrapParam, Separated: true, Expander: view.ExpanderFunc(ExpandParam)}
	nameList  = view.ListOptions[*Ident]{Wrap: wrapIdent, Separated: true, Required: true}
	argNames  = view.ListOptions[*Ident]{Wrap: wrapIdent, Separated: true}
	exprList  = view.ListOptions[Expr]{Wrap: wrapExpr, Separated: true, Required: true}
	valueList = view.ListOptions[Expr]{Wrap: wrapExpr, Separated: true}
)

func text(g *green.Node) string  { return g.Text() }
func flags(g *green.Node) uint32 { return g.Flags() }

func isNil[T view.Node](v T) bool {
	var zero T
	return any(v) == any(zero)
}

// nodes collects the non-nil values for view.CheckDetached.
func nodes[T view.Node](dst []view.Node, vs ...T) []view.Node {
	for _, v := range vs {
		if !isNil(v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// must panics on attach errors that CheckDetached already ruled out.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func none() iter.Seq[view.Node] { return view.Concat() }

// noNil rejects nil collection elements before anything is attached.
func noNil[T view.Node](kind green.Kind, prop string, vs []T) error {
	for _, v := range vs {
		if isNil(v) {
			return view.Invalid(kind, prop, "nil element")
		}
	}
	return nil
}
