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

// KindError describes why a persistent node is wrapped as Invalid.
type KindError struct {
	// Got is the kind of the persistent node.
	Got green.Kind

	// Want is the category of the slot holding it. Empty for a region the
	// parser could not understand.
	Want string
}

// Error implements error.
func (e *KindError) Error() string {
	if e.Want == "" {
		return "unparsable source region"
	}
	return fmt.Sprintf("%s is not a valid %s", e.Got, e.Want)
}

// opaque round-trips a persistent node it does not model. The node is
// re-emitted unchanged, restamped only when it was tagged.
type opaque struct {
	view.Base
	src *green.Node
}

func (n *opaque) Kind() green.Kind { return n.src.Kind() }

// Source returns the persistent node being carried.
func (n *opaque) Source() *green.Node { return n.src }

// Text returns the source text of the carried node.
func (n *opaque) Text() string { return n.src.Text() }

func (n *opaque) Export(sig *view.Signal) (*green.Node, error) {
	e := n.BeginExport(sig)
	if g, ok := e.Reuse(); ok {
		return g, nil
	}
	return e.Build(func() (*green.Node, error) {
		return n.src, nil
	})
}

func (n *opaque) Children() iter.Seq[view.Node] { return none() }

func (n *opaque) Replace(old, new view.Node) error {
	return view.ReplaceIn(n.Kind(), old, new)
}

func (n *opaque) declNode() {}
func (n *opaque) specNode() {}
func (n *opaque) stmtNode() {}
func (n *opaque) exprNode() {}
func (n *opaque) typeNode() {}

// detachedSource strips the identity tag so a copy does not claim the
// original's identity.
func detachedSource(g *green.Node) *green.Node {
	return g.WithoutAnnotations(view.TagAnnotation)
}

// Invalid stands in for a persistent node that is not valid where it
// appears: a parse error region, or a node whose kind does not fit its slot.
// It fits every slot category.
type Invalid struct {
	opaque
	cause *KindError
}

// NewInvalid returns a detached error region with the given source text.
func NewInvalid(src string) *Invalid {
	n := &Invalid{opaque: opaque{src: green.Token(green.KindError, src)}, cause: &KindError{Got: green.KindError}}
	n.Init(n, nil, nil)
	return n
}

func wrapInvalid(g *green.Node, parent view.Node, want string) *Invalid {
	n := &Invalid{opaque: opaque{src: g}, cause: &KindError{Got: g.Kind(), Want: want}}
	n.Init(n, g, parent)
	return n
}

// Err returns the reason the node is invalid.
func (n *Invalid) Err() error { return n.cause }

func (n *Invalid) Clone() view.Node {
	c := &Invalid{opaque: opaque{src: detachedSource(n.src)}, cause: n.cause}
	c.Init(c, nil, nil)
	return c
}

// Verbatim carries a construct outside the modelled subset, such as a type
// declaration or a for loop. It fits every slot category.
type Verbatim struct {
	opaque
}

// NewVerbatim returns a detached verbatim node with the given source text.
func NewVerbatim(src string) *Verbatim {
	n := &Verbatim{opaque: opaque{src: green.Token(green.KindVerbatim, src)}}
	n.Init(n, nil, nil)
	return n
}

func wrapVerbatim(g *green.Node, parent view.Node) *Verbatim {
	n := &Verbatim{opaque: opaque{src: g}}
	n.Init(n, g, parent)
	return n
}

func (n *Verbatim) Clone() view.Node {
	c := &Verbatim{opaque: opaque{src: detachedSource(n.src)}}
	c.Init(c, nil, nil)
	return c
}
