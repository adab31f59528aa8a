// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package green provides the immutable, structurally shared syntax tree that
// Facet keeps in sync with its mutable view layer.
//
// # Ownership Model
//
// Nodes are never mutated after construction. Every "With" method returns a new
// node that shares all unchanged children with the receiver, so holding on to an
// old root keeps a complete, valid snapshot of the tree at that time.
//
// # Thread Safety
//
// Because nodes are immutable, a tree may be read from any number of goroutines.
package green

import (
	"iter"
	"slices"
)

// Annotation is an opaque marker attached to a node.
//
// Annotations take part in Equal but not in Equivalent. A node carries at most
// one annotation per Kind.
type Annotation struct {
	Kind string `json:"kind"`
	Data string `json:"data"`
}

// Node is an immutable syntax tree node.
//
// Description:
//
//	A node has a kind, an optional token text (identifier name, operator,
//	literal source), a scalar flag set, positional children and annotations.
//	Children may contain nil entries for absent optional slots; lists are
//	represented by List and SeparatedList nodes.
type Node struct {
	kind        Kind
	text        string
	flags       uint32
	children    []*Node
	annotations []Annotation
}

// New creates a node. The children slice is copied.
func New(kind Kind, text string, flags uint32, children ...*Node) *Node {
	return &Node{
		kind:     kind,
		text:     text,
		flags:    flags,
		children: slices.Clone(children),
	}
}

// Token creates a childless node carrying only text.
func Token(kind Kind, text string) *Node {
	return &Node{kind: kind, text: text}
}

// NewList creates a List node holding the given elements.
func NewList(elems ...*Node) *Node {
	return New(KindList, "", 0, elems...)
}

// NewSeparatedList interleaves elements and separators.
//
// Description:
//
//	Separators are taken by position from seps; missing separators are filled
//	with fresh Comma tokens. Surplus separators are dropped.
//
// Outputs:
//
//	*Node - A SeparatedList node: e0, s0, e1, s1, ..., e(n-1).
func NewSeparatedList(elems []*Node, seps []*Node) *Node {
	children := make([]*Node, 0, max(0, 2*len(elems)-1))
	for i, e := range elems {
		if i > 0 {
			var sep *Node
			if i-1 < len(seps) {
				sep = seps[i-1]
			}
			if sep == nil {
				sep = Token(KindComma, ",")
			}
			children = append(children, sep)
		}
		children = append(children, e)
	}
	return &Node{kind: KindSeparatedList, children: children}
}

// Kind returns the node kind. Safe on a nil receiver (returns KindInvalid).
func (n *Node) Kind() Kind {
	if n == nil {
		return KindInvalid
	}
	return n.kind
}

// Text returns the token text.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

// Flags returns the scalar flag set.
func (n *Node) Flags() uint32 {
	if n == nil {
		return 0
	}
	return n.flags
}

// Len returns the number of child slots, including nil ones.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the i-th child slot, or nil when i is out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children iterates over child slots with their index.
func (n *Node) Children() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		if n == nil {
			return
		}
		for i, c := range n.children {
			if !yield(i, c) {
				return
			}
		}
	}
}

// ChildSlice returns a copy of the child slots.
func (n *Node) ChildSlice() []*Node {
	if n == nil {
		return nil
	}
	return slices.Clone(n.children)
}

// Elements returns the list elements. For a SeparatedList these are the nodes at
// even positions; for any other node it is every child.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	if n.kind != KindSeparatedList {
		return slices.Clone(n.children)
	}
	out := make([]*Node, 0, (len(n.children)+1)/2)
	for i := 0; i < len(n.children); i += 2 {
		out = append(out, n.children[i])
	}
	return out
}

// Separators returns the separator tokens of a SeparatedList.
func (n *Node) Separators() []*Node {
	if n == nil || n.kind != KindSeparatedList {
		return nil
	}
	out := make([]*Node, 0, len(n.children)/2)
	for i := 1; i < len(n.children); i += 2 {
		out = append(out, n.children[i])
	}
	return out
}

// WithChildren returns a copy of n with the given children. Annotations are kept.
func (n *Node) WithChildren(children ...*Node) *Node {
	c := n.shallow()
	c.children = slices.Clone(children)
	return c
}

// WithText returns a copy of n with new token text.
func (n *Node) WithText(text string) *Node {
	c := n.shallow()
	c.text = text
	return c
}

// WithFlags returns a copy of n with a new flag set.
func (n *Node) WithFlags(flags uint32) *Node {
	c := n.shallow()
	c.flags = flags
	return c
}

// WithAnnotation returns a copy of n carrying a, replacing any annotation of the
// same kind.
func (n *Node) WithAnnotation(a Annotation) *Node {
	c := n.shallow()
	c.annotations = make([]Annotation, 0, len(n.annotations)+1)
	for _, existing := range n.annotations {
		if existing.Kind != a.Kind {
			c.annotations = append(c.annotations, existing)
		}
	}
	c.annotations = append(c.annotations, a)
	slices.SortFunc(c.annotations, compareAnnotations)
	return c
}

// WithoutAnnotations returns a copy of n with every annotation of the given kind
// removed. Returns n itself when nothing would change.
func (n *Node) WithoutAnnotations(kind string) *Node {
	if _, ok := n.Annotation(kind); !ok {
		return n
	}
	c := n.shallow()
	c.annotations = slices.DeleteFunc(slices.Clone(n.annotations), func(a Annotation) bool {
		return a.Kind == kind
	})
	return c
}

// Annotation returns the annotation of the given kind.
func (n *Node) Annotation(kind string) (Annotation, bool) {
	if n == nil {
		return Annotation{}, false
	}
	for _, a := range n.annotations {
		if a.Kind == kind {
			return a, true
		}
	}
	return Annotation{}, false
}

// Annotations returns a copy of all annotations.
func (n *Node) Annotations() []Annotation {
	if n == nil {
		return nil
	}
	return slices.Clone(n.annotations)
}

// HasAnnotation reports whether n carries exactly a.
func (n *Node) HasAnnotation(a Annotation) bool {
	got, ok := n.Annotation(a.Kind)
	return ok && got == a
}

func (n *Node) shallow() *Node {
	return &Node{
		kind:        n.kind,
		text:        n.text,
		flags:       n.flags,
		children:    n.children,
		annotations: n.annotations,
	}
}

func compareAnnotations(a, b Annotation) int {
	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	}
	return 0
}

// Equal reports structural equality including annotations.
func Equal(a, b *Node) bool {
	return equal(a, b, true)
}

// Equivalent reports structural equality ignoring annotations.
func Equivalent(a, b *Node) bool {
	return equal(a, b, false)
}

func equal(a, b *Node, annotations bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.text != b.text || a.flags != b.flags || len(a.children) != len(b.children) {
		return false
	}
	if annotations && !slices.Equal(a.annotations, b.annotations) {
		return false
	}
	for i := range a.children {
		if !equal(a.children[i], b.children[i], annotations) {
			return false
		}
	}
	return true
}
