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
	"fmt"
	"iter"

	"github.com/AleutianAI/facet/services/facet/green"
)

// ListOptions configures a child collection.
type ListOptions[T Node] struct {
	// Wrap materializes an element. Required.
	Wrap WrapFunc[T]

	// Separated selects a separated list. Existing separators are reused by
	// position and fresh Comma tokens fill the rest.
	Separated bool

	// Expander, when set, splits compacted elements at construction.
	Expander Expander

	// Required lists export as an empty list node rather than nil when they
	// have no backing node and no elements.
	Required bool
}

// slot is one logical element of a List.
type slot[T Node] struct {
	// raw is the persistent element, or one part of a compacted element.
	raw *green.Node

	// origin is the compacted element raw was split from, nil if none.
	origin *green.Node
	part   int
	parts  int

	node T
	live bool
}

// List is a mutable child collection.
//
// Description:
//
//	A List is built from a persistent list node in a single pass that runs
//	the expander over every element, so Len is exact before any element is
//	read. Elements are wrapped into view nodes on first access and attached
//	to the List's owner.
//
//	Removal by value compares node identity and assumes an element is held
//	once. Insertion is only supported at the end.
//
// Thread Safety:
//
//	Not safe for concurrent use. See the package documentation.
type List[T Node] struct {
	owner   *Base
	green   *green.Node
	opts    ListOptions[T]
	slots   []slot[T]
	tracker Tracker

	// touched is set once an element was read or the list was mutated.
	touched bool
}

// newList builds the collection for owner from the persistent list g, which
// may be nil.
func newList[T Node](owner *Base, g *green.Node, opts ListOptions[T]) *List[T] {
	l := &List[T]{owner: owner, green: g, opts: opts}
	elems := g.Elements()
	l.slots = make([]slot[T], 0, len(elems))
	for _, e := range elems {
		var parts []*green.Node
		if opts.Expander != nil {
			parts = opts.Expander.Expand(e)
		}
		if len(parts) < 2 {
			l.slots = append(l.slots, slot[T]{raw: e})
			continue
		}
		for i, p := range parts {
			l.slots = append(l.slots, slot[T]{raw: p, origin: e, part: i, parts: len(parts)})
		}
	}
	return l
}

// Len returns the number of logical elements.
func (l *List[T]) Len() int {
	return len(l.slots)
}

// Dirty reports whether the list was mutated since its last export.
func (l *List[T]) Dirty() bool {
	return l.tracker.Dirty()
}

// At returns element i, materializing it on first access. It panics when i
// is out of range, like slice indexing.
func (l *List[T]) At(i int) T {
	if i < 0 || i >= len(l.slots) {
		panic(fmt.Sprintf("view: index %d out of range [0:%d]", i, len(l.slots)))
	}
	l.touched = true
	s := &l.slots[i]
	if !s.live {
		s.node = l.opts.Wrap(s.raw, l.owner.self)
		s.node.viewBase().origin = s.origin
		s.live = true
		materialized.Inc()
	}
	return s.node
}

// Set replaces element i with v. v must be detached.
func (l *List[T]) Set(i int, v T) error {
	if i < 0 || i >= len(l.slots) {
		return fmt.Errorf("%w: set %d of %d", ErrIndexOutOfRange, i, len(l.slots))
	}
	if isNil(v) {
		return Invalid(l.owner.self.Kind(), "elements", "nil element")
	}
	s := &l.slots[i]
	if s.live && same(s.node, v) {
		return nil
	}
	if err := attach(l.owner, v); err != nil {
		return err
	}
	if s.live {
		detach(l.owner, s.node)
	}
	l.slots[i] = slot[T]{node: v, live: true}
	l.mutated()
	return nil
}

// Append adds vs at the end. Either all of vs are appended or none is.
func (l *List[T]) Append(vs ...T) error {
	if len(vs) == 0 {
		return nil
	}
	seen := make(map[*Base]struct{}, len(vs))
	for _, v := range vs {
		if isNil(v) {
			return Invalid(l.owner.self.Kind(), "elements", "nil element")
		}
		b := v.viewBase()
		if _, dup := seen[b]; dup {
			return fmt.Errorf("%w: %s appended twice", ErrAliasing, v.Kind())
		}
		seen[b] = struct{}{}
		if err := checkAttach(l.owner, v); err != nil {
			return err
		}
	}
	for _, v := range vs {
		v.viewBase().parent = l.owner.self
		l.slots = append(l.slots, slot[T]{node: v, live: true})
	}
	l.mutated()
	return nil
}

// Insert adds vs before index i. Only i == Len() is supported; any other
// position fails with ErrNotSupported.
func (l *List[T]) Insert(i int, vs ...T) error {
	switch {
	case i == len(l.slots):
		return l.Append(vs...)
	case i < 0 || i > len(l.slots):
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, i, len(l.slots))
	default:
		return fmt.Errorf("%w: insert at %d of %d", ErrNotSupported, i, len(l.slots))
	}
}

// RemoveAt removes element i and returns it detached.
func (l *List[T]) RemoveAt(i int) (T, error) {
	if i < 0 || i >= len(l.slots) {
		var zero T
		return zero, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, i, len(l.slots))
	}
	v := l.At(i)
	detach(l.owner, v)
	l.slots = append(l.slots[:i], l.slots[i+1:]...)
	l.mutated()
	return v, nil
}

// Remove removes v and reports whether it was an element.
func (l *List[T]) Remove(v Node) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}
	_, _ = l.RemoveAt(i)
	return true
}

// IndexOf returns the index of the materialized element v, or -1.
func (l *List[T]) IndexOf(v Node) int {
	if v == nil {
		return -1
	}
	for i := range l.slots {
		if l.slots[i].live && same(l.slots[i].node, v) {
			return i
		}
	}
	return -1
}

// Clear removes every element.
func (l *List[T]) Clear() {
	if len(l.slots) == 0 {
		return
	}
	for i := range l.slots {
		if l.slots[i].live {
			detach(l.owner, l.slots[i].node)
		}
	}
	l.slots = nil
	l.mutated()
}

// All yields index and element pairs, materializing each element.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < len(l.slots); i++ {
			if !yield(i, l.At(i)) {
				return
			}
		}
	}
}

// Values yields the elements, materializing each one.
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < len(l.slots); i++ {
			if !yield(l.At(i)) {
				return
			}
		}
	}
}

// MaterializeAll wraps every element that is still only persistent, so that
// each one exports through its own Export instead of as its cached node.
func (l *List[T]) MaterializeAll() {
	for i := range l.slots {
		l.At(i)
	}
}

// Slice returns a copy of the elements.
func (l *List[T]) Slice() []T {
	out := make([]T, len(l.slots))
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

func (l *List[T]) mutated() {
	l.touched = true
	l.owner.touched = true
	l.tracker.MarkDirty()
}

// replace substitutes new for the materialized element old.
func (l *List[T]) replace(old, new Node) (bool, error) {
	i := l.IndexOf(old)
	if i < 0 {
		return false, nil
	}
	v, ok := As[T](new)
	if !ok {
		return true, fmt.Errorf("%w: %s list cannot hold %s", ErrInvalidValue, l.owner.self.Kind(), new.Kind())
	}
	return true, l.Set(i, v)
}

// export returns the list's persistent form.
//
// Untouched lists return the cached node. Otherwise every element exports;
// a complete, in-order run of unchanged parts of one compacted element is
// emitted as the original compacted element. The list node is rebuilt only
// when the resulting elements differ from the cached ones.
func (l *List[T]) export(sig *Signal) (*green.Node, error) {
	if !l.touched {
		return l.green, nil
	}
	out := make([]*green.Node, len(l.slots))
	for i := range l.slots {
		s := &l.slots[i]
		if !s.live {
			out[i] = s.raw
			continue
		}
		g, err := s.node.Export(sig)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}

	elems := make([]*green.Node, 0, len(out))
	for i := 0; i < len(out); {
		if n := l.intactRun(i, out); n > 0 {
			elems = append(elems, l.slots[i].origin)
			i += n
			continue
		}
		elems = append(elems, out[i])
		i++
	}

	l.tracker.ConsumeInto(nil)
	if l.green == nil && len(elems) == 0 && !l.opts.Required {
		return nil, nil
	}
	if l.green != nil && sameElements(l.green.Elements(), elems) {
		return l.green, nil
	}
	if l.opts.Separated {
		l.green = green.NewSeparatedList(elems, l.green.Separators())
	} else {
		l.green = green.NewList(elems...)
	}
	sig.Mark()
	return l.green, nil
}

// intactRun returns the number of slots starting at i that together re-emit
// one compacted element unchanged, or 0.
func (l *List[T]) intactRun(i int, out []*green.Node) int {
	first := l.slots[i]
	if first.origin == nil || first.part != 0 || i+first.parts > len(l.slots) {
		return 0
	}
	for j := 0; j < first.parts; j++ {
		s := l.slots[i+j]
		if s.origin != first.origin || s.part != j || out[i+j] != s.raw {
			return 0
		}
	}
	return first.parts
}

func sameElements(a, b []*green.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneAll returns detached deep copies of the elements of l.
func CloneAll[T Node](l *List[T]) []T {
	if l == nil {
		return nil
	}
	out := make([]T, 0, l.Len())
	for v := range l.Values() {
		out = append(out, CloneOf(v))
	}
	return out
}
