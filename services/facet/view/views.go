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
)

// Filtered is a live view of the elements of a List that are of type U and
// satisfy a predicate.
//
// Description:
//
//	The view holds no state of its own. Every call re-evaluates the predicate
//	over the underlying list, which materializes all of its elements, so the
//	view always agrees with the list even after direct list mutations.
//
// Thread Safety:
//
//	Not safe for concurrent use.
type Filtered[T, U Node] struct {
	list *List[T]
	pred func(U) bool
}

// Filter returns the view of the elements of l that are a U and satisfy
// pred. A nil pred matches every U.
func Filter[U, T Node](l *List[T], pred func(U) bool) *Filtered[T, U] {
	return &Filtered[T, U]{list: l, pred: pred}
}

func (f *Filtered[T, U]) match(v Node) (U, bool) {
	u, ok := v.(U)
	if !ok || isNil(u) {
		return u, false
	}
	return u, f.pred == nil || f.pred(u)
}

// indices returns the underlying indices of the matching elements.
func (f *Filtered[T, U]) indices() []int {
	var out []int
	for i, v := range f.list.All() {
		if _, ok := f.match(v); ok {
			out = append(out, i)
		}
	}
	return out
}

// Len returns the number of matching elements.
func (f *Filtered[T, U]) Len() int {
	return len(f.indices())
}

// At returns the i-th matching element. It panics when i is out of range.
func (f *Filtered[T, U]) At(i int) U {
	idx := f.indices()
	if i < 0 || i >= len(idx) {
		panic(fmt.Sprintf("view: filtered index %d out of range [0:%d]", i, len(idx)))
	}
	u, _ := f.match(f.list.At(idx[i]))
	return u
}

// convert checks that v belongs in the view and in the underlying list.
func (f *Filtered[T, U]) convert(v U) (T, error) {
	var zero T
	if isNil(v) {
		return zero, Invalid(f.list.owner.self.Kind(), "elements", "nil element")
	}
	if _, ok := f.match(v); !ok {
		return zero, Invalid(f.list.owner.self.Kind(), "elements", fmt.Sprintf("%s does not satisfy the filter", v.Kind()))
	}
	t, ok := Node(v).(T)
	if !ok {
		return zero, Invalid(f.list.owner.self.Kind(), "elements", fmt.Sprintf("list cannot hold %s", v.Kind()))
	}
	return t, nil
}

// Set replaces the i-th matching element. v must satisfy the filter.
func (f *Filtered[T, U]) Set(i int, v U) error {
	idx := f.indices()
	if i < 0 || i >= len(idx) {
		return fmt.Errorf("%w: set %d of %d", ErrIndexOutOfRange, i, len(idx))
	}
	t, err := f.convert(v)
	if err != nil {
		return err
	}
	return f.list.Set(idx[i], t)
}

// Append adds v to the end of the underlying list. v must satisfy the
// filter, so it is an element of both the list and the view afterwards.
func (f *Filtered[T, U]) Append(v U) error {
	t, err := f.convert(v)
	if err != nil {
		return err
	}
	return f.list.Append(t)
}

// Clear removes the matching elements from the underlying list. Other
// elements keep their relative order.
func (f *Filtered[T, U]) Clear() {
	idx := f.indices()
	for i := len(idx) - 1; i >= 0; i-- {
		_, _ = f.list.RemoveAt(idx[i])
	}
}

// All yields the matching elements with their view indices.
func (f *Filtered[T, U]) All() iter.Seq2[int, U] {
	return func(yield func(int, U) bool) {
		n := 0
		for _, v := range f.list.All() {
			u, ok := f.match(v)
			if !ok {
				continue
			}
			if !yield(n, u) {
				return
			}
			n++
		}
	}
}

// Projected is a live view of a List through a bidirectional mapping.
//
// Reads map elements with to; writes map values back with from, which may
// reject a value. The mapped-back node must be detached.
type Projected[S Node, T any] struct {
	list *List[S]
	to   func(S) T
	from func(T) (S, error)
}

// Project returns the view of l mapped through to and from.
func Project[S Node, T any](l *List[S], to func(S) T, from func(T) (S, error)) *Projected[S, T] {
	return &Projected[S, T]{list: l, to: to, from: from}
}

// Len returns the length of the underlying list.
func (p *Projected[S, T]) Len() int {
	return p.list.Len()
}

// At returns the mapped element i. It panics when i is out of range.
func (p *Projected[S, T]) At(i int) T {
	return p.to(p.list.At(i))
}

// Set maps v back and stores it at i.
func (p *Projected[S, T]) Set(i int, v T) error {
	s, err := p.from(v)
	if err != nil {
		return err
	}
	return p.list.Set(i, s)
}

// Append maps vs back and appends them. Either all are appended or none.
func (p *Projected[S, T]) Append(vs ...T) error {
	out := make([]S, 0, len(vs))
	for _, v := range vs {
		s, err := p.from(v)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	return p.list.Append(out...)
}

// All yields the mapped elements.
func (p *Projected[S, T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, s := range p.list.All() {
			if !yield(i, p.to(s)) {
				return
			}
		}
	}
}
