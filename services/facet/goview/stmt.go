// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package goview

import (
	"iter"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

// =============================================================================
// Block
// =============================================================================

// Block is a braced statement list.
type Block struct {
	view.Base
	stmts view.ListSlot[Stmt]
}

// NewBlock returns a detached block.
func NewBlock(stmts ...Stmt) (*Block, error) {
	if err := view.CheckDetached(nodes(nil, stmts...)...); err != nil {
		return nil, err
	}
	n := &Block{}
	n.Init(n, nil, nil)
	if err := n.stmts.Init(&n.Base, stmtList, stmts); err != nil {
		return nil, err
	}
	return n, nil
}

func wrapBlock(g *green.Node, parent view.Node) *Block {
	n := &Block{}
	n.Init(n, g, parent)
	return n
}

func (n *Block) Kind() green.Kind { return green.KindBlock }

// Stmts returns the statements.
func (n *Block) Stmts() *view.List[Stmt] { return n.stmts.Get(&n.Base, 0, stmtList) }

// Returns is the view of the block's return statements.
func (n *Block) Returns() *view.Filtered[Stmt, *ReturnStmt] {
	return view.Filter[*ReturnStmt](n.Stmts(), nil)
}

// Exprs projects the statements onto the expressions of expression
// statements. Other statements read as nil. Writing an expression stores it
// wrapped in a new ExprStmt.
func (n *Block) Exprs() *view.Projected[Stmt, Expr] {
	return view.Project(n.Stmts(),
		func(s Stmt) Expr {
			if es, ok := s.(*ExprStmt); ok {
				return es.X()
			}
			return nil
		},
		func(x Expr) (Stmt, error) {
			return NewExprStmt(x)
		})
}

func (n *Block) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	stmts := n.stmts.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindBlock, "", 0, stmts), nil
	})
}

func (n *Block) Children() iter.Seq[view.Node] { return view.Items(n.Stmts()) }

func (n *Block) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.stmts.Replacer())
}

func (n *Block) Clone() view.Node {
	c, err := NewBlock(view.CloneAll(n.Stmts())...)
	must(err)
	return c
}

func (n *Block) stmtNode() {}

// =============================================================================
// ExprStmt
// =============================================================================

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	view.Base
	x view.Child[Expr]
}

// NewExprStmt returns a detached expression statement.
func NewExprStmt(x Expr) (*ExprStmt, error) {
	if isNil(x) {
		return nil, view.Invalid(green.KindExprStmt, "x", "required")
	}
	if err := view.CheckDetached(x); err != nil {
		return nil, err
	}
	n := &ExprStmt{}
	n.Init(n, nil, nil)
	must(n.x.Init(&n.Base, x))
	return n, nil
}

func wrapExprStmt(g *green.Node, parent view.Node) *ExprStmt {
	n := &ExprStmt{}
	n.Init(n, g, parent)
	return n
}

func (n *ExprStmt) Kind() green.Kind { return green.KindExprStmt }

// X returns the expression.
func (n *ExprStmt) X() Expr { return n.x.Get(&n.Base, 0, wrapExpr) }

// SetX replaces the expression.
func (n *ExprStmt) SetX(x Expr) error { return setRequired(&n.Base, &n.x, "x", x) }

func (n *ExprStmt) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	x := n.x.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindExprStmt, "", 0, x), nil
	})
}

func (n *ExprStmt) Children() iter.Seq[view.Node] { return view.One(n.X()) }

func (n *ExprStmt) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.x.Replacer(&n.Base))
}

func (n *ExprStmt) Clone() view.Node {
	c, err := NewExprStmt(view.CloneOf(n.X()))
	must(err)
	return c
}

func (n *ExprStmt) stmtNode() {}

// =============================================================================
// AssignStmt
// =============================================================================

var assignOps = map[string]bool{
	"=": true, ":=": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, "&^=": true,
}

// AssignStmt is "lhs tok rhs", including short variable declarations.
type AssignStmt struct {
	view.Base
	tok      view.Scalar[string]
	lhs, rhs view.ListSlot[Expr]
}

// NewAssignStmt returns a detached assignment.
func NewAssignStmt(lhs []Expr, tok string, rhs []Expr) (*AssignStmt, error) {
	if err := checkOp(green.KindAssignStmt, assignOps, tok); err != nil {
		return nil, err
	}
	if len(lhs) == 0 || len(rhs) == 0 {
		return nil, view.Invalid(green.KindAssignStmt, "operands", "both sides need at least one expression")
	}
	if err := noNil(green.KindAssignStmt, "lhs", lhs); err != nil {
		return nil, err
	}
	if err := noNil(green.KindAssignStmt, "rhs", rhs); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes(nodes(nil, lhs...), rhs...)...); err != nil {
		return nil, err
	}
	n := &AssignStmt{}
	n.Init(n, nil, nil)
	n.tok.Init(tok)
	must(n.lhs.Init(&n.Base, exprList, lhs))
	must(n.rhs.Init(&n.Base, exprList, rhs))
	return n, nil
}

func wrapAssignStmt(g *green.Node, parent view.Node) *AssignStmt {
	n := &AssignStmt{}
	n.Init(n, g, parent)
	return n
}

func (n *AssignStmt) Kind() green.Kind { return green.KindAssignStmt }

// Tok returns the assignment operator.
func (n *AssignStmt) Tok() string { return n.tok.Get(&n.Base, text) }

// SetTok changes the assignment operator.
func (n *AssignStmt) SetTok(tok string) error {
	if err := checkOp(n.Kind(), assignOps, tok); err != nil {
		return err
	}
	n.tok.Set(&n.Base, tok, text)
	return nil
}

// Lhs returns the assigned expressions.
func (n *AssignStmt) Lhs() *view.List[Expr] { return n.lhs.Get(&n.Base, 0, exprList) }

// Rhs returns the values.
func (n *AssignStmt) Rhs() *view.List[Expr] { return n.rhs.Get(&n.Base, 1, exprList) }

func (n *AssignStmt) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	tok := n.tok.ExportTo(e, text)
	lhs := n.lhs.ExportTo(e, 0)
	rhs := n.rhs.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindAssignStmt, tok, 0, lhs, rhs), nil
	})
}

func (n *AssignStmt) Children() iter.Seq[view.Node] {
	return view.Concat(view.Items(n.Lhs()), view.Items(n.Rhs()))
}

func (n *AssignStmt) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.lhs.Replacer(), n.rhs.Replacer())
}

func (n *AssignStmt) Clone() view.Node {
	c, err := NewAssignStmt(view.CloneAll(n.Lhs()), n.Tok(), view.CloneAll(n.Rhs()))
	must(err)
	return c
}

func (n *AssignStmt) stmtNode() {}

// =============================================================================
// ReturnStmt
// =============================================================================

// ReturnStmt is "return results...".
type ReturnStmt struct {
	view.Base
	results view.ListSlot[Expr]
}

// NewReturnStmt returns a detached return statement.
func NewReturnStmt(results ...Expr) (*ReturnStmt, error) {
	if err := view.CheckDetached(nodes(nil, results...)...); err != nil {
		return nil, err
	}
	n := &ReturnStmt{}
	n.Init(n, nil, nil)
	if err := n.results.Init(&n.Base, exprList, results); err != nil {
		return nil, err
	}
	return n, nil
}

func wrapReturnStmt(g *green.Node, parent view.Node) *ReturnStmt {
	n := &ReturnStmt{}
	n.Init(n, g, parent)
	return n
}

func (n *ReturnStmt) Kind() green.Kind { return green.KindReturnStmt }

// Results returns the returned expressions.
func (n *ReturnStmt) Results() *view.List[Expr] { return n.results.Get(&n.Base, 0, exprList) }

func (n *ReturnStmt) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	results := n.results.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindReturnStmt, "", 0, results), nil
	})
}

func (n *ReturnStmt) Children() iter.Seq[view.Node] { return view.Items(n.Results()) }

func (n *ReturnStmt) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.results.Replacer())
}

func (n *ReturnStmt) Clone() view.Node {
	c, err := NewReturnStmt(view.CloneAll(n.Results())...)
	must(err)
	return c
}

func (n *ReturnStmt) stmtNode() {}

// =============================================================================
// IfStmt
// =============================================================================

// IfStmt is "if cond then else". Else is nil, a *Block or an *IfStmt, or
// an opaque node carried over from the source.
type IfStmt struct {
	view.Base
	cond view.Child[Expr]
	then view.Child[*Block]
	els  view.Child[Stmt]
}

// NewIfStmt returns a detached if statement. els may be nil.
func NewIfStmt(cond Expr, then *Block, els Stmt) (*IfStmt, error) {
	if isNil(cond) || then == nil {
		return nil, view.Invalid(green.KindIfStmt, "cond", "condition and body are required")
	}
	if err := checkElse(els); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes([]view.Node{cond, then}, els)...); err != nil {
		return nil, err
	}
	n := &IfStmt{}
	n.Init(n, nil, nil)
	must(n.cond.Init(&n.Base, cond))
	must(n.then.Init(&n.Base, then))
	must(n.els.Init(&n.Base, els))
	return n, nil
}

func wrapIfStmt(g *green.Node, parent view.Node) *IfStmt {
	n := &IfStmt{}
	n.Init(n, g, parent)
	return n
}

func checkElse(els Stmt) error {
	switch els.(type) {
	case nil, *Block, *IfStmt, *Invalid, *Verbatim:
		return nil
	default:
		return view.Invalid(green.KindIfStmt, "else", "must be a block or an if statement")
	}
}

func (n *IfStmt) Kind() green.Kind { return green.KindIfStmt }

// Cond returns the condition.
func (n *IfStmt) Cond() Expr { return n.cond.Get(&n.Base, 0, wrapExpr) }

// SetCond replaces the condition.
func (n *IfStmt) SetCond(cond Expr) error { return setRequired(&n.Base, &n.cond, "cond", cond) }

// Then returns the body.
func (n *IfStmt) Then() *Block { return n.then.Get(&n.Base, 1, wrapBlock) }

// SetThen replaces the body.
func (n *IfStmt) SetThen(then *Block) error { return setRequired(&n.Base, &n.then, "then", then) }

// Else returns the else branch, nil if there is none.
func (n *IfStmt) Else() Stmt { return n.els.Get(&n.Base, 2, wrapStmt) }

// SetElse replaces the else branch. nil removes it.
func (n *IfStmt) SetElse(els Stmt) error {
	if err := checkElse(els); err != nil {
		return err
	}
	return n.els.Set(&n.Base, els)
}

func (n *IfStmt) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	cond := n.cond.ExportTo(e, 0)
	then := n.then.ExportTo(e, 1)
	els := n.els.ExportTo(e, 2)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindIfStmt, "", 0, cond, then, els), nil
	})
}

func (n *IfStmt) Children() iter.Seq[view.Node] {
	return view.Concat(view.One(n.Cond()), view.One(n.Then()), view.One(n.Else()))
}

func (n *IfStmt) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new,
		n.cond.Replacer(&n.Base), n.then.Replacer(&n.Base), n.els.Replacer(&n.Base))
}

func (n *IfStmt) Clone() view.Node {
	c, err := NewIfStmt(view.CloneOf(n.Cond()), view.CloneOf(n.Then()), view.CloneOf(n.Else()))
	must(err)
	return c
}

func (n *IfStmt) stmtNode() {}
