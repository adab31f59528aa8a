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

	"github.com/AleutianAI/facet/services/facet/green"
)

// Scalar is a lazily imported value property.
//
// The materialized state is remembered separately from the value, so a
// property derived as the zero value is not derived again.
type Scalar[T comparable] struct {
	value  T
	loaded bool
}

// Init sets the value of a freshly constructed node without marking it dirty.
func (s *Scalar[T]) Init(v T) {
	s.value = v
	s.loaded = true
}

// Get returns the value, deriving it from the backing node on first read.
// Nodes without a backing node read the value given to Init, or the zero T.
func (s *Scalar[T]) Get(b *Base, derive func(*green.Node) T) T {
	if !s.loaded {
		if b.green != nil {
			s.value = derive(b.green)
		}
		s.loaded = true
		b.touched = true
	}
	return s.value
}

// Set stores v and marks the owner dirty when the value changes. Validation
// is the caller's job and must happen before Set.
func (s *Scalar[T]) Set(b *Base, v T, derive func(*green.Node) T) {
	if s.Get(b, derive) == v {
		return
	}
	s.value = v
	b.tracker.MarkDirty()
}

// ExportTo returns the current value and records on e whether it disagrees
// with what the backing node encodes. Scalars are not covered by child change
// propagation, so every scalar must be exported through here.
func (s *Scalar[T]) ExportTo(e *Exporter, derive func(*green.Node) T) T {
	b := e.b
	if !s.loaded {
		if b.green != nil {
			return derive(b.green)
		}
		var zero T
		return zero
	}
	if b.green == nil || derive(b.green) != s.value {
		e.diverged = true
	}
	return s.value
}

// Child is a lazily imported single child property backed by one child slot
// of the owner's green node.
type Child[T Node] struct {
	node   T
	loaded bool
}

// Init attaches v as the initial child of a freshly constructed node.
func (c *Child[T]) Init(b *Base, v T) error {
	if !isNil(v) {
		if err := attach(b, v); err != nil {
			return err
		}
	}
	c.node = v
	c.loaded = true
	return nil
}

// Get returns the child, wrapping backing slot on first read.
func (c *Child[T]) Get(b *Base, slot int, wrap WrapFunc[T]) T {
	if !c.loaded {
		if g := b.green.Child(slot); g != nil {
			c.node = wrap(g, b.self)
			materialized.Inc()
		}
		c.loaded = true
		b.touched = true
	}
	return c.node
}

// Set replaces the child.
//
// Description:
//
//	Attaches v to the owner (failing with ErrAliasing if v already has a
//	parent), detaches the previous child and marks the owner dirty. Assigning
//	the current child again is a no-op. On failure nothing changes.
func (c *Child[T]) Set(b *Base, v T) error {
	if c.loaded && same(c.node, v) {
		return nil
	}
	if !isNil(v) {
		if err := attach(b, v); err != nil {
			return err
		}
	}
	if c.loaded && !isNil(c.node) {
		detach(b, c.node)
	}
	c.node = v
	c.loaded = true
	b.touched = true
	b.tracker.MarkDirty()
	return nil
}

// ExportTo exports the child into e and returns its green form. A child that
// was never read is reused verbatim from the backing slot.
func (c *Child[T]) ExportTo(e *Exporter, slot int) *green.Node {
	if !c.loaded {
		return e.record(slot, e.b.green.Child(slot))
	}
	if isNil(c.node) {
		return e.record(slot, nil)
	}
	g, err := c.node.Export(&e.local)
	if err != nil {
		e.fail(err)
		return nil
	}
	return e.record(slot, g)
}

// Replacer returns a Replacer for this slot.
func (c *Child[T]) Replacer(b *Base) Replacer {
	return func(old, new Node) (bool, error) {
		if !c.loaded || isNil(c.node) || !same(c.node, old) {
			return false, nil
		}
		v, ok := As[T](new)
		if !ok {
			return true, fmt.Errorf("%w: %s cannot hold %s", ErrInvalidValue, b.self.Kind(), new.Kind())
		}
		return true, c.Set(b, v)
	}
}

// ListSlot is a lazily created child collection backed by one child slot of
// the owner's green node.
//
// Get is the single place a collection is created, so the first
// materialization of a slot is the only one; the list, including its
// expansion pass, is built exactly once per owner.
type ListSlot[T Node] struct {
	list *List[T]
}

// Get returns the collection, building it from the backing slot on first
// read.
func (s *ListSlot[T]) Get(b *Base, slot int, opts ListOptions[T]) *List[T] {
	if s.list == nil {
		s.list = newList(b, b.green.Child(slot), opts)
		b.touched = true
	}
	return s.list
}

// Init creates the collection of a freshly constructed node from elems.
func (s *ListSlot[T]) Init(b *Base, opts ListOptions[T], elems []T) error {
	l := newList(b, nil, opts)
	if err := l.Append(elems...); err != nil {
		return err
	}
	// Fresh collections always export, so required ones appear even when
	// empty.
	l.touched = true
	s.list = l
	return nil
}

// ExportTo exports the collection into e. A collection that was never
// created is reused verbatim from the backing slot.
func (s *ListSlot[T]) ExportTo(e *Exporter, slot int) *green.Node {
	if s.list == nil {
		return e.record(slot, e.b.green.Child(slot))
	}
	g, err := s.list.export(&e.local)
	if err != nil {
		e.fail(err)
		return nil
	}
	return e.record(slot, g)
}

// Replacer returns a Replacer for the collection's elements.
func (s *ListSlot[T]) Replacer() Replacer {
	return func(old, new Node) (bool, error) {
		if s.list == nil {
			return false, nil
		}
		return s.list.replace(old, new)
	}
}
