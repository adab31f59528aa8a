// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sitter

import (
	"errors"

	ts "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/facet/services/facet/green"
)

var errNoPackage = errors.New("missing package clause")

// literalKinds maps tree-sitter literal node types to BasicLit flags.
var literalKinds = map[string]uint32{
	"int_literal":                green.LitInt,
	"float_literal":              green.LitFloat,
	"imaginary_literal":          green.LitImag,
	"rune_literal":               green.LitRune,
	"interpreted_string_literal": green.LitString,
	"raw_string_literal":         green.LitString,
}

// converter walks one tree-sitter tree. Each construct converter first calls
// broken, so a syntax error replaces the smallest enclosing construct only.
type converter struct {
	src   []byte
	diags []Diagnostic
}

func (c *converter) text(n *ts.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

// isError reports whether n is a region the grammar could not parse.
func isError(n *ts.Node) bool {
	return n.Type() == "ERROR" || n.IsMissing()
}

// hasError reports whether n is an error region or has one as a direct
// child.
func hasError(n *ts.Node) bool {
	if isError(n) {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if isError(n.Child(i)) {
			return true
		}
	}
	return false
}

// errorNode records a diagnostic and returns n as an error region.
func (c *converter) errorNode(n *ts.Node) *green.Node {
	pos := n.StartPoint()
	c.diags = append(c.diags, Diagnostic{
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Text:    c.text(n),
		Missing: n.IsMissing(),
	})
	return green.Token(green.KindError, c.text(n))
}

// broken returns an error node for n when hasError(n), and nil otherwise.
func (c *converter) broken(n *ts.Node) *green.Node {
	if !hasError(n) {
		return nil
	}
	return c.errorNode(n)
}

func (c *converter) verbatim(n *ts.Node) *green.Node {
	return green.Token(green.KindVerbatim, c.text(n))
}

func (c *converter) ident(n *ts.Node) *green.Node {
	return green.Token(green.KindIdent, c.text(n))
}

// named yields the named children of n that are not comments.
func named(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	out := make([]*ts.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) file(root *ts.Node) (*green.Node, error) {
	var pkg *green.Node
	var decls []*green.Node
	for _, child := range named(root) {
		switch child.Type() {
		case "package_clause":
			if g := c.broken(child); g != nil {
				decls = append(decls, g)
				continue
			}
			for _, id := range named(child) {
				if id.Type() == "package_identifier" {
					pkg = c.ident(id)
				}
			}
		default:
			decls = append(decls, c.decl(child))
		}
	}
	if pkg == nil {
		return nil, errNoPackage
	}
	return green.New(green.KindFile, "", 0, pkg, green.NewList(decls...)), nil
}

// =============================================================================
// Declarations
// =============================================================================

func (c *converter) decl(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	switch n.Type() {
	case "function_declaration", "method_declaration":
		return c.funcDecl(n)
	case "var_declaration":
		return c.genDecl(n, "var")
	case "const_declaration":
		return c.genDecl(n, "const")
	default:
		return c.verbatim(n)
	}
}

// paramStatus says why a parameter list could not be converted.
type paramStatus int

const (
	paramsOK paramStatus = iota
	paramsUnsupported
	paramsBroken
)

func (c *converter) funcDecl(n *ts.Node) *green.Node {
	name := n.ChildByFieldName("name")
	if name == nil || n.ChildByFieldName("type_parameters") != nil {
		return c.verbatim(n)
	}
	// A Param slot cannot carry an opaque node, so a parameter list that
	// does not convert takes the whole declaration with it.
	fallback := func(st paramStatus) *green.Node {
		if st == paramsBroken {
			return c.errorNode(n)
		}
		return c.verbatim(n)
	}
	var recv *green.Node
	if r := n.ChildByFieldName("receiver"); r != nil {
		var st paramStatus
		if recv, st = c.params(r); st != paramsOK {
			return fallback(st)
		}
	}
	params, st := c.params(n.ChildByFieldName("parameters"))
	if st != paramsOK {
		return fallback(st)
	}
	var results *green.Node
	if r := n.ChildByFieldName("result"); r != nil {
		if r.Type() == "parameter_list" {
			if results, st = c.params(r); st != paramsOK {
				return fallback(st)
			}
		} else {
			results = green.NewSeparatedList([]*green.Node{
				green.New(green.KindParam, "", 0, nil, c.typ(r)),
			}, nil)
		}
	}
	var body *green.Node
	if b := n.ChildByFieldName("body"); b != nil {
		body = c.block(b)
	}
	return green.New(green.KindFuncDecl, "", 0, recv, c.ident(name), params, results, body)
}

func (c *converter) params(n *ts.Node) (*green.Node, paramStatus) {
	if n == nil {
		return green.NewSeparatedList(nil, nil), paramsOK
	}
	if hasError(n) {
		return nil, paramsBroken
	}
	var out []*green.Node
	for _, p := range named(n) {
		if hasError(p) {
			return nil, paramsBroken
		}
		t := p.ChildByFieldName("type")
		if t == nil {
			return nil, paramsUnsupported
		}
		var typ *green.Node
		switch p.Type() {
		case "parameter_declaration":
			typ = c.typ(t)
		case "variadic_parameter_declaration":
			typ = green.Token(green.KindTypeRef, "..."+c.text(t))
		default:
			return nil, paramsUnsupported
		}
		var names []*green.Node
		for _, id := range named(p) {
			if id.Type() == "identifier" {
				names = append(names, c.ident(id))
			}
		}
		var nameList *green.Node
		if len(names) > 0 {
			nameList = green.NewSeparatedList(names, nil)
		}
		out = append(out, green.New(green.KindParam, "", 0, nameList, typ))
	}
	return green.NewSeparatedList(out, nil), paramsOK
}

func (c *converter) genDecl(n *ts.Node, tok string) *green.Node {
	var specs []*green.Node
	var collect func(*ts.Node)
	collect = func(n *ts.Node) {
		for _, child := range named(n) {
			switch child.Type() {
			case "var_spec", "const_spec":
				specs = append(specs, c.spec(child))
			case "var_spec_list", "const_spec_list":
				if g := c.broken(child); g != nil {
					specs = append(specs, g)
					continue
				}
				collect(child)
			default:
				specs = append(specs, c.verbatim(child))
			}
		}
	}
	collect(n)
	return green.New(green.KindGenDecl, tok, 0, green.NewList(specs...))
}

func (c *converter) spec(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	kind := green.KindVarSpec
	if n.Type() == "const_spec" {
		kind = green.KindConstSpec
	}
	var names []*green.Node
	for _, id := range named(n) {
		if id.Type() == "identifier" {
			names = append(names, c.ident(id))
		}
	}
	var typ *green.Node
	if t := n.ChildByFieldName("type"); t != nil {
		typ = c.typ(t)
	}
	var values *green.Node
	if v := n.ChildByFieldName("value"); v != nil {
		values = c.exprList(v)
	}
	return green.New(kind, "", 0, green.NewSeparatedList(names, nil), typ, values)
}

func (c *converter) typ(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	return green.Token(green.KindTypeRef, c.text(n))
}

// =============================================================================
// Statements
// =============================================================================

func (c *converter) block(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	var stmts []*green.Node
	for _, child := range named(n) {
		if child.Type() == "statement_list" {
			if g := c.broken(child); g != nil {
				stmts = append(stmts, g)
				continue
			}
			for _, s := range named(child) {
				stmts = append(stmts, c.stmt(s))
			}
			continue
		}
		stmts = append(stmts, c.stmt(child))
	}
	return green.New(green.KindBlock, "", 0, green.NewList(stmts...))
}

func (c *converter) stmt(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	switch n.Type() {
	case "block":
		return c.block(n)
	case "expression_statement":
		args := named(n)
		if len(args) != 1 {
			return c.verbatim(n)
		}
		return green.New(green.KindExprStmt, "", 0, c.expr(args[0]))
	case "assignment_statement":
		op := n.ChildByFieldName("operator")
		if op == nil {
			return c.verbatim(n)
		}
		return green.New(green.KindAssignStmt, c.text(op), 0,
			c.exprList(n.ChildByFieldName("left")), c.exprList(n.ChildByFieldName("right")))
	case "short_var_declaration":
		return green.New(green.KindAssignStmt, ":=", 0,
			c.exprList(n.ChildByFieldName("left")), c.exprList(n.ChildByFieldName("right")))
	case "return_statement":
		var results *ts.Node
		for _, child := range named(n) {
			if child.Type() == "expression_list" {
				results = child
			}
		}
		return green.New(green.KindReturnStmt, "", 0, c.exprList(results))
	case "if_statement":
		return c.ifStmt(n)
	default:
		return c.verbatim(n)
	}
}

func (c *converter) ifStmt(n *ts.Node) *green.Node {
	if n.ChildByFieldName("initializer") != nil {
		return c.verbatim(n)
	}
	cond := n.ChildByFieldName("condition")
	then := n.ChildByFieldName("consequence")
	if cond == nil || then == nil {
		return c.verbatim(n)
	}
	var els *green.Node
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		els = c.stmt(alt)
	}
	return green.New(green.KindIfStmt, "", 0, c.expr(cond), c.block(then), els)
}

// =============================================================================
// Expressions
// =============================================================================

// exprList converts an expression_list. nil converts to an empty list.
func (c *converter) exprList(n *ts.Node) *green.Node {
	if n == nil {
		return green.NewSeparatedList(nil, nil)
	}
	if n.Type() != "expression_list" {
		return green.NewSeparatedList([]*green.Node{c.expr(n)}, nil)
	}
	var out []*green.Node
	for _, child := range named(n) {
		out = append(out, c.expr(child))
	}
	return green.NewSeparatedList(out, nil)
}

func (c *converter) expr(n *ts.Node) *green.Node {
	if g := c.broken(n); g != nil {
		return g
	}
	if kind, ok := literalKinds[n.Type()]; ok {
		return green.New(green.KindBasicLit, c.text(n), kind)
	}
	switch n.Type() {
	case "identifier", "true", "false", "nil", "iota":
		return c.ident(n)
	case "binary_expression":
		left, op, right := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if left == nil || op == nil || right == nil {
			return c.verbatim(n)
		}
		return green.New(green.KindBinaryExpr, c.text(op), 0, c.expr(left), c.expr(right))
	case "unary_expression":
		op, operand := n.ChildByFieldName("operator"), n.ChildByFieldName("operand")
		if op == nil || operand == nil {
			return c.verbatim(n)
		}
		return green.New(green.KindUnaryExpr, c.text(op), 0, c.expr(operand))
	case "call_expression":
		return c.call(n)
	case "parenthesized_expression":
		inner := named(n)
		if len(inner) != 1 {
			return c.verbatim(n)
		}
		return green.New(green.KindParenExpr, "", 0, c.expr(inner[0]))
	case "selector_expression":
		operand, field := n.ChildByFieldName("operand"), n.ChildByFieldName("field")
		if operand == nil || field == nil {
			return c.verbatim(n)
		}
		return green.New(green.KindSelectorExpr, "", 0, c.expr(operand), c.ident(field))
	default:
		return c.verbatim(n)
	}
}

func (c *converter) call(n *ts.Node) *green.Node {
	fun, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
	if fun == nil || args == nil || n.ChildByFieldName("type_arguments") != nil {
		return c.verbatim(n)
	}
	if g := c.broken(args); g != nil {
		return green.New(green.KindCallExpr, "", 0, c.expr(fun), green.NewSeparatedList([]*green.Node{g}, nil))
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		if args.Child(i).Type() == "..." {
			return c.verbatim(n)
		}
	}
	var out []*green.Node
	for _, a := range named(args) {
		out = append(out, c.expr(a))
	}
	return green.New(green.KindCallExpr, "", 0, c.expr(fun), green.NewSeparatedList(out, nil))
}
