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
	"iter"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

// =============================================================================
// File
// =============================================================================

// File is a Go source file: a package clause and top-level declarations.
type File struct {
	view.Base
	pkg   view.Child[*Ident]
	decls view.ListSlot[Decl]
}

// NewFile returns a detached file.
func NewFile(pkg *Ident, decls ...Decl) (*File, error) {
	if pkg == nil {
		return nil, view.Invalid(green.KindFile, "package", "required")
	}
	if err := noNil(green.KindFile, "decls", decls); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes([]view.Node{pkg}, decls...)...); err != nil {
		return nil, err
	}
	n := &File{}
	n.Init(n, nil, nil)
	must(n.pkg.Init(&n.Base, pkg))
	must(n.decls.Init(&n.Base, declList, decls))
	return n, nil
}

// WrapFile returns the view of the file tree g. g must be a green.KindFile
// node.
func WrapFile(g *green.Node) (*File, error) {
	if g.Kind() != green.KindFile {
		return nil, fmt.Errorf("%w: want %s, got %s", view.ErrInvalidValue, green.KindFile, g.Kind())
	}
	return wrapFile(g, nil), nil
}

func wrapFile(g *green.Node, parent view.Node) *File {
	n := &File{}
	n.Init(n, g, parent)
	return n
}

func (n *File) Kind() green.Kind { return green.KindFile }

// Package returns the package name.
func (n *File) Package() *Ident { return n.pkg.Get(&n.Base, 0, wrapIdent) }

// SetPackage replaces the package name.
func (n *File) SetPackage(pkg *Ident) error { return setRequired(&n.Base, &n.pkg, "package", pkg) }

// Decls returns the top-level declarations.
func (n *File) Decls() *view.List[Decl] { return n.decls.Get(&n.Base, 1, declList) }

// Funcs is the view of the file's function and method declarations.
func (n *File) Funcs() *view.Filtered[Decl, *FuncDecl] {
	return view.Filter[*FuncDecl](n.Decls(), nil)
}

func (n *File) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	pkg := n.pkg.ExportTo(e, 0)
	decls := n.decls.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindFile, "", 0, pkg, decls), nil
	})
}

func (n *File) Children() iter.Seq[view.Node] {
	return view.Concat(view.One(n.Package()), view.Items(n.Decls()))
}

func (n *File) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.pkg.Replacer(&n.Base), n.decls.Replacer())
}

func (n *File) Clone() view.Node {
	c, err := NewFile(view.CloneOf(n.Package()), view.CloneAll(n.Decls())...)
	must(err)
	return c
}

// =============================================================================
// FuncDecl
// =============================================================================

// FuncDecl is a function or method declaration. Parameter and result lists
// hold one Param per name: "a, b int" reads as two parameters.
type FuncDecl struct {
	view.Base
	recv    view.ListSlot[*Param]
	name    view.Child[*Ident]
	params  view.ListSlot[*Param]
	results view.ListSlot[*Param]
	body    view.Child[*Block]
}

// NewFuncDecl returns a detached function declaration without a receiver.
// body may be nil for a declaration without a body.
func NewFuncDecl(name *Ident, params, results []*Param, body *Block) (*FuncDecl, error) {
	if name == nil {
		return nil, view.Invalid(green.KindFuncDecl, "name", "required")
	}
	if err := noNil(green.KindFuncDecl, "params", params); err != nil {
		return nil, err
	}
	if err := noNil(green.KindFuncDecl, "results", results); err != nil {
		return nil, err
	}
	all := nodes(nodes(nodes([]view.Node{name}, params...), results...), body)
	if err := view.CheckDetached(all...); err != nil {
		return nil, err
	}
	n := &FuncDecl{}
	n.Init(n, nil, nil)
	must(n.recv.Init(&n.Base, optParams, nil))
	must(n.name.Init(&n.Base, name))
	must(n.params.Init(&n.Base, paramList, params))
	must(n.results.Init(&n.Base, optParams, results))
	must(n.body.Init(&n.Base, body))
	return n, nil
}

func wrapFuncDecl(g *green.Node, parent view.Node) *FuncDecl {
	n := &FuncDecl{}
	n.Init(n, g, parent)
	return n
}

func (n *FuncDecl) Kind() green.Kind { return green.KindFuncDecl }

// Recv returns the receiver list, empty for plain functions.
func (n *FuncDecl) Recv() *view.List[*Param] { return n.recv.Get(&n.Base, 0, optParams) }

// IsMethod reports whether the declaration has a receiver.
func (n *FuncDecl) IsMethod() bool { return n.Recv().Len() > 0 }

// Name returns the function name.
func (n *FuncDecl) Name() *Ident { return n.name.Get(&n.Base, 1, wrapIdent) }

// SetName replaces the function name.
func (n *FuncDecl) SetName(name *Ident) error { return setRequired(&n.Base, &n.name, "name", name) }

// Params returns the parameters.
func (n *FuncDecl) Params() *view.List[*Param] { return n.params.Get(&n.Base, 2, paramList) }

// Results returns the results, empty when the function returns nothing.
func (n *FuncDecl) Results() *view.List[*Param] { return n.results.Get(&n.Base, 3, optParams) }

// Body returns the body, nil for a declaration without one.
func (n *FuncDecl) Body() *Block { return n.body.Get(&n.Base, 4, wrapBlock) }

// SetBody replaces the body. nil removes it.
func (n *FuncDecl) SetBody(body *Block) error { return n.body.Set(&n.Base, body) }

func (n *FuncDecl) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	recv := n.recv.ExportTo(e, 0)
	name := n.name.ExportTo(e, 1)
	params := n.params.ExportTo(e, 2)
	results := n.results.ExportTo(e, 3)
	body := n.body.ExportTo(e, 4)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindFuncDecl, "", 0, recv, name, params, results, body), nil
	})
}

func (n *FuncDecl) Children() iter.Seq[view.Node] {
	return view.Concat(
		view.Items(n.Recv()),
		view.One(n.Name()),
		view.Items(n.Params()),
		view.Items(n.Results()),
		view.One(n.Body()),
	)
}

func (n *FuncDecl) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new,
		n.recv.Replacer(),
		n.name.Replacer(&n.Base),
		n.params.Replacer(),
		n.results.Replacer(),
		n.body.Replacer(&n.Base),
	)
}

func (n *FuncDecl) Clone() view.Node {
	c, err := NewFuncDecl(view.CloneOf(n.Name()), view.CloneAll(n.Params()),
		view.CloneAll(n.Results()), view.CloneOf(n.Body()))
	must(err)
	must(c.Recv().Append(view.CloneAll(n.Recv())...))
	return c
}

func (n *FuncDecl) declNode() {}

// =============================================================================
// Param
// =============================================================================

// Param is one entry of a parameter, result or receiver list: optional
// names and a type.
type Param struct {
	view.Base
	names view.ListSlot[*Ident]
	typ   view.Child[Type]
}

// NewParam returns a detached parameter. names may be empty for an unnamed
// parameter.
func NewParam(typ Type, names ...*Ident) (*Param, error) {
	if isNil(typ) {
		return nil, view.Invalid(green.KindParam, "type", "required")
	}
	if err := noNil(green.KindParam, "names", names); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes([]view.Node{typ}, names...)...); err != nil {
		return nil, err
	}
	n := &Param{}
	n.Init(n, nil, nil)
	must(n.names.Init(&n.Base, argNames, names))
	must(n.typ.Init(&n.Base, typ))
	return n, nil
}

func wrapParam(g *green.Node, parent view.Node) *Param {
	n := &Param{}
	n.Init(n, g, parent)
	return n
}

func (n *Param) Kind() green.Kind { return green.KindParam }

// Names returns the parameter names.
func (n *Param) Names() *view.List[*Ident] { return n.names.Get(&n.Base, 0, argNames) }

// Type returns the parameter type.
func (n *Param) Type() Type { return n.typ.Get(&n.Base, 1, wrapType) }

// SetType replaces the parameter type.
func (n *Param) SetType(typ Type) error { return setRequired(&n.Base, &n.typ, "type", typ) }

func (n *Param) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	names := n.names.ExportTo(e, 0)
	typ := n.typ.ExportTo(e, 1)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindParam, "", 0, names, typ), nil
	})
}

func (n *Param) Children() iter.Seq[view.Node] {
	return view.Concat(view.Items(n.Names()), view.One(n.Type()))
}

func (n *Param) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.names.Replacer(), n.typ.Replacer(&n.Base))
}

func (n *Param) Clone() view.Node {
	c, err := NewParam(view.CloneOf(n.Type()), view.CloneAll(n.Names())...)
	must(err)
	return c
}

// =============================================================================
// GenDecl
// =============================================================================

// GenDecl is a "var" or "const" declaration. Specs hold one ValueSpec per
// name: "var a, b = 1, 2" reads as two specs.
type GenDecl struct {
	view.Base
	tok   view.Scalar[string]
	specs view.ListSlot[Spec]
}

// NewGenDecl returns a detached declaration. tok is "var" or "const".
func NewGenDecl(tok string, specs ...Spec) (*GenDecl, error) {
	if err := checkGenTok(tok); err != nil {
		return nil, err
	}
	if err := noNil(green.KindGenDecl, "specs", specs); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes(nil, specs...)...); err != nil {
		return nil, err
	}
	n := &GenDecl{}
	n.Init(n, nil, nil)
	n.tok.Init(tok)
	must(n.specs.Init(&n.Base, specList, specs))
	return n, nil
}

func wrapGenDecl(g *green.Node, parent view.Node) *GenDecl {
	n := &GenDecl{}
	n.Init(n, g, parent)
	return n
}

func checkGenTok(tok string) error {
	if tok != "var" && tok != "const" {
		return view.Invalid(green.KindGenDecl, "tok", fmt.Sprintf("want var or const, got %q", tok))
	}
	return nil
}

func (n *GenDecl) Kind() green.Kind { return green.KindGenDecl }

// Tok returns "var" or "const".
func (n *GenDecl) Tok() string { return n.tok.Get(&n.Base, text) }

// SetTok switches between "var" and "const". Every spec is re-exported with
// the matching kind.
func (n *GenDecl) SetTok(tok string) error {
	if err := checkGenTok(tok); err != nil {
		return err
	}
	if tok == n.Tok() {
		return nil
	}
	n.tok.Set(&n.Base, tok, text)
	// Specs read their kind from the parent, but only live ones export.
	n.Specs().MaterializeAll()
	return nil
}

// Specs returns the specs.
func (n *GenDecl) Specs() *view.List[Spec] { return n.specs.Get(&n.Base, 0, specList) }

func (n *GenDecl) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	tok := n.tok.ExportTo(e, text)
	specs := n.specs.ExportTo(e, 0)
	return e.Build(func() (*green.Node, error) {
		return green.New(green.KindGenDecl, tok, 0, specs), nil
	})
}

func (n *GenDecl) Children() iter.Seq[view.Node] { return view.Items(n.Specs()) }

func (n *GenDecl) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.specs.Replacer())
}

func (n *GenDecl) Clone() view.Node {
	c, err := NewGenDecl(n.Tok(), view.CloneAll(n.Specs())...)
	must(err)
	return c
}

func (n *GenDecl) declNode() {}

// =============================================================================
// ValueSpec
// =============================================================================

// ValueSpec is one "names type = values" entry of a GenDecl.
//
// Whether it exports as a green.KindVarSpec or KindConstSpec is decided by
// the enclosing GenDecl. A detached spec keeps the kind of its backing node;
// a freshly constructed spec that was never attached cannot be exported and
// fails with view.ErrMissingContext.
type ValueSpec struct {
	view.Base
	names  view.ListSlot[*Ident]
	typ    view.Child[Type]
	values view.ListSlot[Expr]
}

// NewValueSpec returns a detached spec. typ and values may be empty but not
// both.
func NewValueSpec(names []*Ident, typ Type, values []Expr) (*ValueSpec, error) {
	if len(names) == 0 {
		return nil, view.Invalid(green.KindVarSpec, "names", "at least one name is required")
	}
	if isNil(typ) && len(values) == 0 {
		return nil, view.Invalid(green.KindVarSpec, "type", "a type or values are required")
	}
	if err := noNil(green.KindVarSpec, "names", names); err != nil {
		return nil, err
	}
	if err := noNil(green.KindVarSpec, "values", values); err != nil {
		return nil, err
	}
	if err := view.CheckDetached(nodes(nodes(nodes(nil, names...), typ), values...)...); err != nil {
		return nil, err
	}
	n := &ValueSpec{}
	n.Init(n, nil, nil)
	must(n.names.Init(&n.Base, nameList, names))
	must(n.typ.Init(&n.Base, typ))
	must(n.values.Init(&n.Base, valueList, values))
	return n, nil
}

func wrapValueSpec(g *green.Node, parent view.Node) *ValueSpec {
	n := &ValueSpec{}
	n.Init(n, g, parent)
	return n
}

// specKind resolves the green kind from context. ok is false for a fresh
// detached spec.
func (n *ValueSpec) specKind() (kind green.Kind, ok bool) {
	if d, isDecl := n.Parent().(*GenDecl); isDecl {
		if d.Tok() == "const" {
			return green.KindConstSpec, true
		}
		return green.KindVarSpec, true
	}
	if g := n.Green(); g != nil {
		return g.Kind(), true
	}
	return green.KindVarSpec, false
}

// Kind returns KindVarSpec or KindConstSpec.
func (n *ValueSpec) Kind() green.Kind {
	k, _ := n.specKind()
	return k
}

// Names returns the declared names.
func (n *ValueSpec) Names() *view.List[*Ident] { return n.names.Get(&n.Base, 0, nameList) }

// Type returns the declared type, nil when it is inferred.
func (n *ValueSpec) Type() Type { return n.typ.Get(&n.Base, 1, wrapType) }

// SetType replaces the declared type. nil removes it.
func (n *ValueSpec) SetType(typ Type) error { return n.typ.Set(&n.Base, typ) }

// Values returns the initial values.
func (n *ValueSpec) Values() *view.List[Expr] { return n.values.Get(&n.Base, 2, valueList) }

func (n *ValueSpec) Export(sig *view.Signal) (*green.Node, error) {
	kind, ok := n.specKind()
	if !ok {
		return nil, fmt.Errorf("%w: a spec is a var or const only inside a declaration", view.ErrMissingContext)
	}
	e := n.BeginExport(sig)
	if b := e.Backing(); b != nil && b.Kind() != kind {
		e.Diverge()
	} else if g, ok := e.Reuse(); ok {
		return g, nil
	}
	names := n.names.ExportTo(e, 0)
	typ := n.typ.ExportTo(e, 1)
	values := n.values.ExportTo(e, 2)
	return e.Build(func() (*green.Node, error) {
		return green.New(kind, "", 0, names, typ, values), nil
	})
}

func (n *ValueSpec) Children() iter.Seq[view.Node] {
	return view.Concat(view.Items(n.Names()), view.One(n.Type()), view.Items(n.Values()))
}

func (n *ValueSpec) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new, n.names.Replacer(), n.typ.Replacer(&n.Base), n.values.Replacer())
}

func (n *ValueSpec) Clone() view.Node {
	c, err := NewValueSpec(view.CloneAll(n.Names()), view.CloneOf(n.Type()), view.CloneAll(n.Values()))
	must(err)
	return c
}

func (n *ValueSpec) specNode() {}
