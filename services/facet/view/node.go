// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package view implements the mutable facade over green trees.
//
// A view node wraps an optional backing green node. Its properties are imported
// lazily on first read and the node is exported back to a green node on demand,
// rebuilding only what changed.
//
// # Ownership Model
//
// Every view node has at most one parent. Parent links are only changed through
// the package's attach and detach paths, which are reached via property setters
// and collection writes; assigning a node that is still attached elsewhere
// fails with ErrAliasing.
//
// # Thread Safety
//
// View trees are NOT safe for concurrent use. All reads, writes and exports of
// one tree must happen on one goroutine at a time. Mutating a subtree while it
// is being exported is undefined behaviour. Independent trees may be used from
// different goroutines.
package view

import (
	"fmt"
	"iter"
	"slices"

	"github.com/AleutianAI/facet/services/facet/green"
)

// Node is implemented by every view node kind.
//
// Implementations must embed Base and call Base.Init from their constructors.
type Node interface {
	// Kind reports the green kind the node exports as.
	Kind() green.Kind

	// Parent returns the owning node, nil for a root or detached node.
	Parent() Node

	// Green returns the cached backing node, nil if the node was never
	// exported and was not imported.
	Green() *green.Node

	// Tag returns the node's identity tag, minting it on first call.
	Tag() Tag

	// Export returns an up-to-date green node, rebuilding only if something
	// changed. sig may be nil when the caller does not track changes.
	Export(sig *Signal) (*green.Node, error)

	// Children yields the node's child nodes in slot order, materializing
	// them as needed.
	Children() iter.Seq[Node]

	// Replace substitutes new for the direct child old.
	Replace(old, new Node) error

	// Clone returns a detached deep copy with no backing node.
	Clone() Node

	viewBase() *Base
}

// WrapFunc converts a green node into a view node attached to parent.
type WrapFunc[T Node] func(g *green.Node, parent Node) T

// Base carries the state shared by all view nodes.
type Base struct {
	self    Node
	green   *green.Node
	parent  Node
	tag     Tag
	tracker Tracker

	// origin is the compacted persistent element green was split from.
	origin *green.Node

	// touched is set once any property has been materialized. An untouched
	// node with a correctly tagged backing node exports in O(1).
	touched bool
}

// Init binds the base to its outer node. g is the backing node (nil for a
// freshly constructed node) and parent the owner it was imported under.
// Init panics when called twice.
func (b *Base) Init(self Node, g *green.Node, parent Node) {
	if b.self != nil {
		panic("view: Base.Init called twice")
	}
	b.self = self
	b.green = g
	b.parent = parent
}

func (b *Base) viewBase() *Base { return b }

// Parent returns the owning node.
func (b *Base) Parent() Node { return b.parent }

// Green returns the cached backing node.
func (b *Base) Green() *green.Node { return b.green }

// Origin returns the compacted element n's backing node was split from, or
// nil when n was not built from a part. Parts are synthesized by an Expander
// and never appear in a persistent tree; their origin does.
func Origin(n Node) *green.Node {
	if n == nil {
		return nil
	}
	return n.viewBase().origin
}

// Tag returns the identity tag. A node whose backing node is already stamped
// adopts that tag; otherwise a tag is minted on first call and stamped onto
// the backing node at the next export.
func (b *Base) Tag() Tag {
	if b.tag.IsZero() {
		b.adoptTag()
	}
	if b.tag.IsZero() {
		b.tag = mintTag()
	}
	return b.tag
}

func (b *Base) adoptTag() {
	if t, ok := TagOf(b.green); ok {
		b.tag = t
	}
}

// HasTag reports whether a tag was minted, without minting one.
func (b *Base) HasTag() bool { return !b.tag.IsZero() }

// MarkDirty flags the node as diverged from its backing node.
func (b *Base) MarkDirty() { b.tracker.MarkDirty() }

// Dirty reports whether the node has unexported changes of its own.
func (b *Base) Dirty() bool { return b.tracker.Dirty() }

// Materialized reports whether any property has been read or written.
func (b *Base) Materialized() bool { return b.touched }

// Self returns the outer node the base was initialized with.
func (b *Base) Self() Node { return b.self }

// attach makes owner the parent of child.
func attach(owner *Base, child Node) error {
	if err := checkAttach(owner, child); err != nil {
		return err
	}
	child.viewBase().parent = owner.self
	return nil
}

// CheckDetached fails with ErrAliasing when a node is attached or listed
// twice. Nil entries are skipped. Constructors call it before attaching
// anything, so a failed construction leaves its arguments untouched.
func CheckDetached(nodes ...Node) error {
	seen := make(map[*Base]struct{}, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		b := n.viewBase()
		if b.parent != nil {
			return fmt.Errorf("%w: %s is attached to %s", ErrAliasing, n.Kind(), b.parent.Kind())
		}
		if _, dup := seen[b]; dup {
			return fmt.Errorf("%w: %s used twice", ErrAliasing, n.Kind())
		}
		seen[b] = struct{}{}
	}
	return nil
}

// checkAttach reports whether attach(owner, child) would fail.
func checkAttach(owner *Base, child Node) error {
	cb := child.viewBase()
	if cb.parent != nil {
		return fmt.Errorf("%w: %s is attached to %s", ErrAliasing, child.Kind(), cb.parent.Kind())
	}
	for n := owner.self; n != nil; n = n.Parent() {
		if n.viewBase() == cb {
			return fmt.Errorf("%w: %s cannot contain itself", ErrInvalidValue, child.Kind())
		}
	}
	return nil
}

// detach clears child's parent link if it still points at owner.
func detach(owner *Base, child Node) {
	cb := child.viewBase()
	if cb.parent != nil && cb.parent.viewBase() == owner {
		cb.parent = nil
		cb.origin = nil
	}
}

// isNil reports whether v is the zero value of T. Node kinds are pointers, so
// this is a nil check for both concrete and interface type parameters.
func isNil[T Node](v T) bool {
	var zero T
	return any(v) == any(zero)
}

func same[T Node](a T, b Node) bool {
	return any(a) == any(b)
}

// As converts n to T. A nil n converts to the zero T.
func As[T Node](n Node) (T, bool) {
	if n == nil {
		var zero T
		return zero, true
	}
	v, ok := n.(T)
	return v, ok
}

// CloneOf deep-copies n, preserving its static type. The zero T clones to
// itself.
func CloneOf[T Node](n T) T {
	if isNil(n) {
		return n
	}
	return n.Clone().(T)
}

// One yields n unless it is nil.
func One[T Node](n T) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if !isNil(n) {
			yield(n)
		}
	}
}

// Items yields every element of l.
func Items[T Node](l *List[T]) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if l == nil {
			return
		}
		for i := 0; i < l.Len(); i++ {
			if !yield(l.At(i)) {
				return
			}
		}
	}
}

// Concat chains sequences.
func Concat(seqs ...iter.Seq[Node]) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, seq := range seqs {
			for n := range seq {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for c := range n.Children() {
		Walk(c, fn)
	}
}

// Root returns the top-most ancestor of n.
func Root(n Node) Node {
	for n != nil && n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// IsAncestor reports whether a is a strict ancestor of n.
func IsAncestor(a, n Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// Rewrite replaces nodes bottom-up.
//
// Description:
//
//	Visits every descendant of root in post-order and calls fn on it. When fn
//	returns a different node with ok set, the node is substituted in its
//	parent through the parent's Replace method. Replacements must be detached
//	nodes; build them from Clones of the original if they reuse its parts.
//	fn is applied to root last and its replacement is returned.
//
// Outputs:
//
//	Node - The (possibly replaced) root.
//	error - The first Replace failure. Earlier substitutions are kept.
func Rewrite(root Node, fn func(Node) (Node, bool)) (Node, error) {
	if root == nil {
		return nil, nil
	}
	if err := rewriteChildren(root, fn); err != nil {
		return root, err
	}
	if repl, ok := fn(root); ok && repl != root {
		return repl, nil
	}
	return root, nil
}

func rewriteChildren(n Node, fn func(Node) (Node, bool)) error {
	kids := slices.Collect(n.Children())
	for _, kid := range kids {
		if err := rewriteChildren(kid, fn); err != nil {
			return err
		}
		repl, ok := fn(kid)
		if !ok || repl == kid {
			continue
		}
		if err := n.Replace(kid, repl); err != nil {
			return err
		}
	}
	return nil
}

// Replacer tries to substitute new for old in one child slot. It reports
// whether old was found in the slot.
type Replacer func(old, new Node) (bool, error)

// ReplaceIn runs each replacer until one finds old.
func ReplaceIn(kind green.Kind, old, new Node, slots ...Replacer) error {
	for _, r := range slots {
		found, err := r(old, new)
		if found || err != nil {
			return err
		}
	}
	return &MutationError{Kind: kind, Property: "children", Reason: "not a direct child", Err: ErrInvalidValue}
}
