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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startsWithX(l *leaf) bool { return strings.HasPrefix(l.Name(), "x") }

func TestFiltered_AppendAddsToBoth(t *testing.T) {
	r := wrapBox(sampleBox("x1", "a", "x2"), nil)
	f := Filter[*leaf](r.Args(), startsWithX)
	assert.Equal(t, 2, f.Len())

	x3 := newLeaf("x3")
	require.NoError(t, f.Append(x3))
	assert.Equal(t, 3, f.Len())
	assert.Same(t, x3, f.At(2))
	assert.Equal(t, 3, r.Args().IndexOf(x3))
}

func TestFiltered_RejectsNonMatching(t *testing.T) {
	r := wrapBox(sampleBox("x1", "a"), nil)
	f := Filter[*leaf](r.Args(), startsWithX)

	err := f.Append(newLeaf("b"))
	require.ErrorIs(t, err, ErrInvalidValue)
	err = f.Set(0, newLeaf("c"))
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, "x1 a", names(r.Args()))

	err = f.Set(4, newLeaf("x9"))
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFiltered_SetMapsToUnderlyingIndex(t *testing.T) {
	r := wrapBox(sampleBox("a", "x1", "b", "x2"), nil)
	f := Filter[*leaf](r.Args(), startsWithX)

	require.NoError(t, f.Set(1, newLeaf("x9")))
	assert.Equal(t, "a x1 b x9", names(r.Args()))
}

func TestFiltered_ClearRemovesOnlyMatches(t *testing.T) {
	r := wrapBox(sampleBox("a", "x1", "b", "x2", "c"), nil)
	f := Filter[*leaf](r.Args(), startsWithX)
	x1 := f.At(0)

	f.Clear()
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, "a b c", names(r.Args()))
	assert.Nil(t, x1.Parent())

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, len(g.Child(1).Elements()))
}

func TestFiltered_TracksDirectListChanges(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	f := Filter[*leaf](r.Args(), startsWithX)
	assert.Equal(t, 0, f.Len())

	require.NoError(t, r.Args().Append(newLeaf("x1")))
	assert.Equal(t, 1, f.Len())

	var seen []string
	for i, v := range f.All() {
		assert.Equal(t, len(seen), i)
		seen = append(seen, v.Name())
	}
	assert.Equal(t, []string{"x1"}, seen)
}

func TestFiltered_NilPredicateMatchesType(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	f := Filter[*leaf](r.Args(), nil)
	assert.Equal(t, 2, f.Len())
	assert.Panics(t, func() { f.At(2) })
}

func TestProjected_MapsBothWays(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	errEmpty := errors.New("empty name")
	p := Project(r.Args(),
		func(l *leaf) string { return l.Name() },
		func(s string) (*leaf, error) {
			if s == "" {
				return nil, errEmpty
			}
			return newLeaf(s), nil
		})

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "b", p.At(1))

	require.NoError(t, p.Set(0, "z"))
	require.NoError(t, p.Append("c", "d"))
	assert.Equal(t, "z b c d", names(r.Args()))

	require.ErrorIs(t, p.Append("e", ""), errEmpty)
	assert.Equal(t, 4, p.Len(), "append is all or nothing")

	var got []string
	for _, s := range p.All() {
		got = append(got, s)
	}
	assert.Equal(t, []string{"z", "b", "c", "d"}, got)
}
