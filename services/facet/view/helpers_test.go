// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package view

import (
	"iter"
	"strings"

	"github.com/AleutianAI/facet/services/facet/green"
)

// leaf is a minimal scalar-only node kind used by the tests.
type leaf struct {
	Base
	name Scalar[string]
}

func newLeaf(name string) *leaf {
	n := &leaf{}
	n.Init(n, nil, nil)
	n.name.Init(name)
	return n
}

func wrapLeaf(g *green.Node, parent Node) *leaf {
	n := &leaf{}
	n.Init(n, g, parent)
	return n
}

func leafName(g *green.Node) string { return g.Text() }

func (n *leaf) Kind() green.Kind { return green.KindIdent }

func (n *leaf) Name() string { return n.name.Get(&n.Base, leafName) }

func (n *leaf) SetName(s string) { n.name.Set(&n.Base, s, leafName) }

func (n *leaf) Export(sig *Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	name := n.name.ExportTo(e, leafName)
	return e.Build(func() (*green.Node, error) {
		if name == "" {
			return nil, ErrMissingContext
		}
		return green.Token(green.KindIdent, name), nil
	})
}

func (n *leaf) Children() iter.Seq[Node] { return Concat() }

func (n *leaf) Replace(old, new Node) error { return ReplaceIn(n.Kind(), old, new) }

func (n *leaf) Clone() Node { return newLeaf(n.Name()) }

// box holds one leaf in slot 0 and a separated list of leaves in slot 1.
// Leaves whose text contains "+" are compacted and expand into one part per
// name.
type box struct {
	Base
	fun  Child[*leaf]
	args ListSlot[*leaf]
}

var argOpts = ListOptions[*leaf]{
	Wrap:      wrapLeaf,
	Separated: true,
	Expander:  ExpanderFunc(splitPlus),
}

func splitPlus(g *green.Node) []*green.Node {
	names := strings.Split(g.Text(), "+")
	if len(names) < 2 {
		return nil
	}
	parts := make([]*green.Node, len(names))
	for i, name := range names {
		parts[i] = green.Token(green.KindIdent, name)
	}
	return parts
}

func newBox(fun *leaf, args ...*leaf) (*box, error) {
	n := &box{}
	n.Init(n, nil, nil)
	if err := n.fun.Init(&n.Base, fun); err != nil {
		return nil, err
	}
	if err := n.args.Init(&n.Base, argOpts, args); err != nil {
		return nil, err
	}
	return n, nil
}

func wrapBox(g *green.Node, parent Node) *box {
	n := &box{}
	n.Init(n, g, parent)
	return n
}

func (n *box) Kind() green.Kind { return green.KindCallExpr }

func (n *box) Fun() *leaf { return n.fun.Get(&n.Base, 0, wrapLeaf) }

func (n *box) SetFun(v *leaf) error {
	if v == nil {
		return Invalid(n.Kind(), "fun", "required")
	}
	return n.fun.Set(&n.Base, v)
}

func (n *box) Args() *List[*leaf] { return n.args.Get(&n.Base, 1, argOpts) }

func (n *box) Export(sig *Signal) (*green.Node, error) {
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

func (n *box) Children() iter.Seq[Node] { return Concat(One(n.Fun()), Items(n.Args())) }

func (n *box) Replace(old, new Node) error {
	return ReplaceIn(n.Kind(), old, new, n.fun.Replacer(&n.Base), n.args.Replacer())
}

func (n *box) Clone() Node {
	c, err := newBox(CloneOf(n.Fun()), CloneAll(n.Args())...)
	if err != nil {
		panic(err)
	}
	return c
}

func ident(name string) *green.Node { return green.Token(green.KindIdent, name) }

// sampleBox returns the persistent form of a box with fun "f" and the given
// argument tokens.
func sampleBox(args ...string) *green.Node {
	elems := make([]*green.Node, len(args))
	for i, a := range args {
		elems[i] = ident(a)
	}
	return green.New(green.KindCallExpr, "", 0, ident("f"), green.NewSeparatedList(elems, nil))
}
