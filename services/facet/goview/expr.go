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
	"fmt"
	"go/token"
	"iter"
	"math/bits"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

// =============================================================================
// Ident
// =============================================================================

// Ident is an identifier.
type Ident struct {
	view.Base
	name view.Scalar[string]
}

// NewIdent returns a detached identifier.
//
// Outputs:
//
//	*Ident - The identifier.
//	error - A *view.MutationError wrapping view.ErrInvalidValue when name is
//	        not a Go identifier.
func NewIdent(name string) (*Ident, error) {
	if err := checkIdent(name); err != nil {
		return nil, err
	}
	return newIdent(name), nil
}

// MustIdent is like NewIdent but panics on an invalid name.
func MustIdent(name string) *Ident {
	n, err := NewIdent(name)
	if err != nil {
		panic(err)
	}
	return n
}

func newIdent(name string) *Ident {
	n := &Ident{}
	n.Init(n, nil, nil)
	n.name.Init(name)
	return n
}

func wrapIdent(g *green.Node, parent view.Node) *Ident {
	n := &Ident{}
	n.Init(n, g, parent)
	return n
}

func checkIdent(name string) error {
	if !token.IsIdentifier(name) {
		return view.Invalid(green.KindIdent, "name", fmt.Sprintf("%q is not an identifier", name))
	}
	return nil
}

func (n *Ident) Kind() green.Kind { return green.KindIdent }

// Name returns the identifier's name.
func (n *Ident) Name() string { return n.name.Get(&n.Base, text) }

// SetName renames the identifier.
func (n *Ident) SetName(name string) error {
	if err := checkIdent(name); err != nil {
		return err
	}
	n.name.Set(&n.Base, name, text)
	return nil
}

func (n *Ident) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	name := n.name.ExportTo(e, text)
	return e.Build(func() (*green.Node, error) {
		return green.Token(green.KindIdent, name), nil
	})
}

func (n *Ident) Children() iter.Seq[view.Node]    { return none() }
func (n *Ident) Replace(old, new view.Node) error { return view.ReplaceIn(n.Kind(), old, new) }
func (n *Ident) Clone() view.Node                 { return newIdent(n.Name()) }
func (n *Ident) exprNode()                        {}

// =============================================================================
// BasicLit
// =============================================================================

// BasicLit is a literal. Its literal kind is exactly one of green.LitInt,
// LitFloat, LitImag, LitRune or LitString.
type BasicLit struct {
	view.Base
	kind  view.Scalar[uint32]
	value view.Scalar[string]
}

// NewBasicLit returns a detached literal with the given kind and source text.
func NewBasicLit(kind uint32, value string) (*BasicLit, error) {
	if err := checkLitKind(kind); err != nil {
		return nil, err
	}
	if err := checkLitValue(value); err != nil {
		return nil, err
	}
	return newBasicLit(kind, value), nil
}

func newBasicLit(kind uint32, value string) *BasicLit {
	n := &BasicLit{}
	n.Init(n, nil, nil)
	n.kind.Init(kind)
	n.value.Init(value)
	return n
}

func wrapBasicLit(g *green.Node, parent view.Node) *BasicLit {
	n := &BasicLit{}
	n.Init(n, g, parent)
	return n
}

func checkLitKind(kind uint32) error {
	if kind&^green.LitMask != 0 || bits.OnesCount32(kind) != 1 {
		return view.Invalid(green.KindBasicLit, "kind", fmt.Sprintf("flags %#x must name exactly one literal kind", kind))
	}
	return nil
}

func checkLitValue(value string) error {
	if value == "" {
		return view.Invalid(green.KindBasicLit, "value", "empty literal")
	}
	return nil
}

func (n *BasicLit) Kind() green.Kind { return green.KindBasicLit }

// LitKind returns the literal kind flag.
func (n *BasicLit) LitKind() uint32 { return n.kind.Get(&n.Base, flags) }

// SetLitKind changes the literal kind. Combinations of flags are rejected.
func (n *BasicLit) SetLitKind(kind uint32) error {
	if err := checkLitKind(kind); err != nil {
		return err
	}
	n.kind.Set(&n.Base, kind, flags)
	return nil
}

// Value returns the literal's source text.
func (n *BasicLit) Value() string { return n.value.Get(&n.Base, text) }

// SetValue changes the literal's source text.
func (n *BasicLit) SetValue(value string) error {
	if err := checkLitValue(value); err != nil {
		return err
	}
	n.value.Set(&n.Base, value, text)
	return nil
}

func (n *BasicLit) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	kind := n.kind.ExportTo(e, flags)
	value := n.value.ExportTo(e, text)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindBasicLit, value, kind), nil
	})
}

func (n *BasicLit) Children() iter.Seq[view.Node]    { return none() }
func (n *BasicLit) Replace(old, new view.Node) error { return view.ReplaceIn(n.Kind(), old, new) }
func (n *BasicLit) Clone() view.Node                 { return newBasicLit(n.LitKind(), n.Value()) }
func (n *BasicLit) exprNode()                        {}

// =============================================================================
// BinaryExpr
// =============================================================================

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "&^": true,
	"&&": true, "||": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// BinaryExpr is "x op y".
type BinaryExpr struct {
	view.Base
	op   view.Scalar[string]
	x, y view.Child[Expr]
}

// NewBinaryExpr returns a detached binary expression. x and y are required
// and must be detached.
func NewBinaryExpr(x Expr, op string, y Expr) (*BinaryExpr, error) {
	if err := checkOp(green.KindBinaryExpr, binaryOps, op); err != nil {
		return nil, err
	}
	if isNil(x) || isNil(y) {
		return nil, view.Invalid(green.KindBinaryExpr, "operands", "required")
	}
	if err := view.CheckDetached(x, y); err != nil {
		return nil, err
	}
	n := &BinaryExpr{}
	n.Init(n, nil, nil)
	n.op.Init(op)
	must(n.x.Init(&n.Base, x))
	must(n.y.Init(&n.Base, y))
	return n, nil
}

func wrapBinaryExpr(g *green.Node, parent view.Node) *BinaryExpr {
	n := &BinaryExpr{}
	n.Init(n, g, parent)
	return n
}

func checkOp(kind green.Kind, ops map[string]bool, op string) error {
	if !ops[op] {
		return view.Invalid(kind, "op", fmt.Sprintf("unknown operator %q", op))
	}
	return nil
}

func (n *BinaryExpr) Kind() green.Kind { return green.KindBinaryExpr }

// Op returns the operator.
func (n *BinaryExpr) Op() string { return n.op.Get(&n.Base, text) }

// SetOp changes the operator.
func (n *BinaryExpr) SetOp(op string) error {
	if err := checkOp(n.Kind(), binaryOps, op); err != nil {
		return err
	}
	n.op.Set(&n.Base, op, text)
	return nil
}

// X returns the left operand.
func (n *BinaryExpr) X() Expr { return n.x.Get(&n.Base, 0, wrapExpr) }

// SetX replaces the left operand.
func (n *BinaryExpr) SetX(x Expr) error { return setRequired(&n.Base, &n.x, "x", x) }

// Y returns the right operand.
func (n *BinaryExpr) Y() Expr { return n.y.Get(&n.Base, 1, wrapExpr) }

// SetY replaces the right operand.
func (n *BinaryExpr) SetY(y Expr) error { return setRequired(&n.Base, &n.y, "y", y) }

func (n *BinaryExpr) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	op := n.op.ExportTo(e, text)
	x := n.x.ExportTo(e, 0)
	y := n.y.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindBinaryExpr, op, 0, x, y), nil
	})
}

func (n *BinaryExpr) Children() iter.Seq[view.Node] {
	return view.Concat(view.One(n.X()), view.One(n.Y()))
}

func (n *BinaryExpr) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.x.Replacer(&n.Base), n.y.Replacer(&n.Base))
}

func (n *BinaryExpr) Clone() view.Node {
	c, err := NewBinaryExpr(view.CloneOf(n.X()), n.Op(), view.CloneOf(n.Y()))
	must(err)
	return c
}

func (n *BinaryExpr) exprNode() {}

// setRequired assigns a child slot that must not be nil.
func setRequired[T view.Node](b *view.Base, c *view.Child[T], prop string, v T) error {
	if isNil(v) {
		return view.Invalid(b.Self().Kind(), prop, "required")
	}
	return c.Set(b, v)
}

// =============================================================================
// UnaryExpr
// =============================================================================

var unaryOps = map[string]bool{
	"+": true, "-": true, "!": true, "^": true, "*": true, "&": true, "<-": true,
}

// UnaryExpr is "op x".
type UnaryExpr struct {
	view.Base
	op view.Scalar[string]
	x  view.Child[Expr]
}

// NewUnaryExpr returns a detached unary expression.
func NewUnaryExpr(op string, x Expr) (*UnaryExpr, error) {
	if err := checkOp(green.KindUnaryExpr, unaryOps, op); err != nil {
		return nil, err
	}
	if isNil(x) {
		return nil, view.Invalid(green.KindUnaryExpr, "x", "required")
	}
	if err := view.CheckDetached(x); err != nil {
		return nil, err
	}
	n := &UnaryExpr{}
	n.Init(n, nil, nil)
	n.op.Init(op)
	must(n.x.Init(&n.Base, x))
	return n, nil
}

func wrapUnaryExpr(g *green.Node, parent view.Node) *UnaryExpr {
	n := &UnaryExpr{}
	n.Init(n, g, parent)
	return n
}

func (n *UnaryExpr) Kind() green.Kind { return green.KindUnaryExpr }

// Op returns the operator.
func (n *UnaryExpr) Op() string { return n.op.Get(&n.Base, text) }

// SetOp changes the operator.
func (n *UnaryExpr) SetOp(op string) error {
	if err := checkOp(n.Kind(), unaryOps, op); err != nil {
		return err
	}
	n.op.Set(&n.Base, op, text)
	return nil
}

// X returns the operand.
func (n *UnaryExpr) X() Expr { return n.x.Get(&n.Base, 0, wrapExpr) }

// SetX replaces the operand.
func (n *UnaryExpr) SetX(x Expr) error { return setRequired(&n.Base, &n.x, "x", x) }

func (n *UnaryExpr) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	op := n.op.ExportTo(e, text)
	x := n.x.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindUnaryExpr, op, 0, x), nil
	})
}

func (n *UnaryExpr) Children() iter.Seq[view.Node] { return view.One(n.X()) }

func (n *UnaryExpr) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.x.Replacer(&n.Base))
}

func (n *UnaryExpr) Clone() view.Node {
	c, err := NewUnaryExpr(n.Op(), view.CloneOf(n.X()))
	must(err)
	return c
}

func (n *UnaryExpr) exprNode() {}

// =============================================================================
// CallExpr
// =============================================================================

// CallExpr is "fun(args...)".
type CallExpr struct {
	view.Base
	fun  view.Child[Expr]
	args view.ListSlot[Expr]
}

// NewCallExpr returns a detached call.
func NewCallExpr(fun Expr, args ...Expr) (*CallExpr, error) {
	if isNil(fun) {
		return nil, view.Invalid(green.KindCallExpr, "fun", "required")
	}
	if err := noNil(green.KindCallExpr, "args", args); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes([]view.Node{fun}, args...)...); err != nil {
		return nil, err
	}
	n := &CallExpr{}
	n.Init(n, nil, nil)
	must(n.fun.Init(&n.Base, fun))
	must(n.args.Init(&n.Base, exprList, args))
	return n, nil
}

func wrapCallExpr(g *green.Node, parent view.Node) *CallExpr {
	n := &CallExpr{}
	n.Init(n, g, parent)
	return n
}

func (n *CallExpr) Kind() green.Kind { return green.KindCallExpr }

// Fun returns the called expression.
func (n *CallExpr) Fun() Expr { return n.fun.Get(&n.Base, 0, wrapExpr) }

// SetFun replaces the called expression.
func (n *CallExpr) SetFun(fun Expr) error { return setRequired(&n.Base, &n.fun, "fun", fun) }

// Args returns the arguments.
func (n *CallExpr) Args() *view.List[Expr] { return n.args.Get(&n.Base, 1, exprList) }

func (n *CallExpr) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	fun := n.fun.ExportTo(e, 0)
	args := n.args.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindCallExpr, "", 0, fun, args), nil
	})
}

func (n *CallExpr) Children() iter.Seq[view.Node] {
	return view.Concat(view.One(n.Fun()), view.Items(n.Args()))
}

func (n *CallExpr) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.fun.Replacer(&n.Base), n.args.Replacer())
}

func (n *CallExpr) Clone() view.Node {
	c, err := NewCallExpr(view.CloneOf(n.Fun()), view.CloneAll(n.Args())...)
	must(err)
	return c
}

func (n *CallExpr) exprNode() {}

// =============================================================================
// ParenExpr
// =============================================================================

// ParenExpr is "(x)".
type ParenExpr struct {
	view.Base
	x view.Child[Expr]
}

// NewParenExpr returns a detached parenthesized expression.
func NewParenExpr(x Expr) (*ParenExpr, error) {
	if isNil(x) {
		return nil, view.Invalid(green.KindParenExpr, "x", "required")
	}
	if err := view.CheckDetached(x); err != nil {
		return nil, err
	}
	n := &ParenExpr{}
	n.Init(n, nil, nil)
	must(n.x.Init(&n.Base, x))
	return n, nil
}

func wrapParenExpr(g *green.Node, parent view.Node) *ParenExpr {
	n := &ParenExpr{}
	n.Init(n, g, parent)
	return n
}

func (n *ParenExpr) Kind() green.Kind { return green.KindParenExpr }

// X returns the inner expression.
func (n *ParenExpr) X() Expr { return n.x.Get(&n.Base, 0, wrapExpr) }

// SetX replaces the inner expression.
func (n *ParenExpr) SetX(x Expr) error { return setRequired(&n.Base, &n.x, "x", x) }

func (n *ParenExpr) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	x := n.x.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindParenExpr, "", 0, x), nil
	})
}

func (n *ParenExpr) Children() iter.Seq[view.Node] { return view.One(n.X()) }

func (n *ParenExpr) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.x.Replacer(&n.Base))
}

func (n *ParenExpr) Clone() view.Node {
	c, err := NewParenExpr(view.CloneOf(n.X()))
	must(err)
	return c
}

func (n *ParenExpr) exprNode() {}

// =============================================================================
// SelectorExpr
// =============================================================================

// SelectorExpr is "x.sel".
type SelectorExpr struct {
	view.Base
	x   view.Child[Expr]
	sel view.Child[*Ident]
}

// NewSelectorExpr returns a detached selector expression.
func NewSelectorExpr(x Expr, sel *Ident) (*SelectorExpr, error) {
	if isNil(x) || sel == nil {
		return nil, view.Invalid(green.KindSelectorExpr, "operands", "required")
	}
	if err := view.CheckDetached(x, sel); err != nil {
		return nil, err
	}
	n := &SelectorExpr{}
	n.Init(n, nil, nil)
	must(n.x.Init(&n.Base, x))
	must(n.sel.Init(&n.Base, sel))
	return n, nil
}

func wrapSelectorExpr(g *green.Node, parent view.Node) *SelectorExpr {
	n := &SelectorExpr{}
	n.Init(n, g, parent)
	return n
}

func (n *SelectorExpr) Kind() green.Kind { return green.KindSelectorExpr }

// X returns the operand.
func (n *SelectorExpr) X() Expr { return n.x.Get(&n.Base, 0, wrapExpr) }

// SetX replaces the operand.
func (n *SelectorExpr) SetX(x Expr) error { return setRequired(&n.Base, &n.x, "x", x) }

// Sel returns the selected name.
func (n *SelectorExpr) Sel() *Ident { return n.sel.Get(&n.Base, 1, wrapIdent) }

// SetSel replaces the selected name.
func (n *SelectorExpr) SetSel(sel *Ident) error { return setRequired(&n.Base, &n.sel, "sel", sel) }

func (n *SelectorExpr) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	x := n.x.ExportTo(e, 0)
	sel := n.sel.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindSelectorExpr, "", 0, x, sel), nil
	})
}

func (n *SelectorExpr) Children() iter.Seq[view.Node] {
	return view.Concat(view.One(n.X()), view.One(n.Sel()))
}

func (n *SelectorExpr) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.x.Replacer(&n.Base), n.sel.Replacer(&n.Base))
}

func (n *SelectorExpr) Clone() view.Node {
	c, err := NewSelectorExpr(view.CloneOf(n.X()), view.CloneOf(n.Sel()))
	must(err)
	return c
}

func (n *SelectorExpr) exprNode() {}

// =============================================================================
// TypeRef
// =============================================================================

// TypeRef is a type expression kept as source text, such as "int" or
// "map[string]*T".
type TypeRef struct {
	view.Base
	src view.Scalar[string]
}

// NewTypeRef returns a detached type reference.
func NewTypeRef(src string) (*TypeRef, error) {
	if src == "" {
		return nil, view.Invalid(green.KindTypeRef, "source", "empty type")
	}
	return newTypeRef(src), nil
}

func newTypeRef(src string) *TypeRef {
	n := &TypeRef{}
	n.Init(n, nil, nil)
	n.src.Init(src)
	return n
}

func wrapTypeRef(g *green.Node, parent view.Node) *TypeRef {
	n := &TypeRef{}
	n.Init(n, g, parent)
	return n
}

func (n *TypeRef) Kind() green.Kind { return green.KindTypeRef }

// Source returns the type's source text.
func (n *TypeRef) Source() string { return n.src.Get(&n.Base, text) }

// SetSource changes the type's source text.
func (n *TypeRef) SetSource(src string) error {
	if src == "" {
		return view.Invalid(n.Kind(), "source", "empty type")
	}
	n.src.Set(&n.Base, src, text)
	return nil
}

func (n *TypeRef) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	src := n.src.ExportTo(e, text)
	return e.Build(func() (*green.Node, error) {
		return green.Token(green.KindTypeRef, src), nil
	})
}

func (n *TypeRef) Children() iter.Seq[view.Node]    { return none() }
func (n *TypeRef) Replace(old, new view.Node) error { return view.ReplaceIn(n.Kind(), old, new) }
func (n *TypeRef) Clone() view.Node                 { return newTypeRef(n.Source()) }
func (n *TypeRef) typeNode()                        {}
