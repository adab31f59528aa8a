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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/facet/services/facet/green"
)

func names(l *List[*leaf]) string {
	var out []string
	for v := range l.Values() {
		out = append(out, v.Name())
	}
	return strings.Join(out, " ")
}

func TestList_ExpandsCompactedElementsBeforeAnyRead(t *testing.T) {
	before := testutil.ToFloat64(materialized)
	r := wrapBox(sampleBox("a+b+c", "d", "e+f"), nil)

	args := r.Args()
	assert.Equal(t, 6, args.Len())
	assert.Equal(t, before, testutil.ToFloat64(materialized), "length is known without materializing")

	assert.Equal(t, "a b c d e f", names(args))
	assert.Equal(t, before+6, testutil.ToFloat64(materialized))
}

func TestList_IntactCompactedRunIsReemitted(t *testing.T) {
	pr := sampleBox("a+b", "c")
	r := wrapBox(pr, nil)
	args := r.Args()
	_ = names(args)

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, pr, g)
}

func TestList_MutatedPartSplitsCompactedElement(t *testing.T) {
	pr := sampleBox("a+b+c", "d")
	r := wrapBox(pr, nil)
	r.Args().At(1).SetName("x")

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	elems := g.Child(1).Elements()
	require.Len(t, elems, 4)
	assert.Equal(t, []string{"a", "x", "c", "d"}, []string{elems[0].Text(), elems[1].Text(), elems[2].Text(), elems[3].Text()})
	assert.Same(t, pr.Child(1).Elements()[1], elems[3], "untouched element is reused")
	assert.Same(t, pr.Child(0), g.Child(0))
}

func TestList_SeparatorsReusedByPosition(t *testing.T) {
	semi := green.Token(green.KindComma, ", ")
	pArgs := green.NewSeparatedList([]*green.Node{ident("a"), ident("b")}, []*green.Node{semi})
	pr := green.New(green.KindCallExpr, "", 0, ident("f"), pArgs)
	r := wrapBox(pr, nil)

	require.NoError(t, r.Args().Append(newLeaf("c")))
	g, _, err := ExportRoot(r)
	require.NoError(t, err)

	seps := g.Child(1).Separators()
	require.Len(t, seps, 2)
	assert.Same(t, semi, seps[0])
	assert.Equal(t, ",", seps[1].Text())
}

func TestList_AppendIsAtomic(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	other := wrapBox(sampleBox("b"), nil)
	fresh := newLeaf("x")
	taken := other.Fun()

	err := r.Args().Append(fresh, taken)
	require.ErrorIs(t, err, ErrAliasing)
	assert.Equal(t, 1, r.Args().Len())
	assert.Nil(t, fresh.Parent())

	err = r.Args().Append(fresh, fresh)
	require.ErrorIs(t, err, ErrAliasing)
	assert.Nil(t, fresh.Parent())

	err = r.Args().Append(fresh, nil)
	require.ErrorIs(t, err, ErrInvalidValue)

	require.NoError(t, r.Args().Append(fresh))
	assert.Same(t, r, fresh.Parent())
	assert.Equal(t, "a x", names(r.Args()))
}

func TestList_ReattachAfterDetach(t *testing.T) {
	r, err := newBox(newLeaf("f"))
	require.NoError(t, err)

	f := r.Fun()
	require.NoError(t, r.SetFun(newLeaf("g")))
	require.NoError(t, r.Args().Append(f))
	assert.Same(t, r, f.Parent())
	err = r.Args().Append(f)
	require.ErrorIs(t, err, ErrAliasing)
}

func TestAttach_RejectsCycles(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	f := r.Fun()

	err := attach(&f.Base, r)
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Nil(t, r.Parent())
}

func TestList_InsertOnlyAtEnd(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	args := r.Args()

	err := args.Insert(0, newLeaf("x"))
	require.ErrorIs(t, err, ErrNotSupported)
	err = args.Insert(5, newLeaf("x"))
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	require.NoError(t, args.Insert(2, newLeaf("c")))
	assert.Equal(t, "a b c", names(args))
}

func TestList_RemoveAndIndexOf(t *testing.T) {
	r := wrapBox(sampleBox("a", "b", "c"), nil)
	args := r.Args()

	removed, err := args.RemoveAt(0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Name())
	assert.Nil(t, removed.Parent())

	c := args.At(1)
	assert.Equal(t, 1, args.IndexOf(c))
	assert.True(t, args.Remove(c))
	assert.False(t, args.Remove(c))
	assert.Equal(t, -1, args.IndexOf(c))
	assert.Equal(t, "b", names(args))

	_, err = args.RemoveAt(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.ErrorIs(t, args.Set(-1, newLeaf("x")), ErrIndexOutOfRange)
}

func TestList_ClearDetachesAndExportsEmpty(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	args := r.Args()
	a := args.At(0)

	args.Clear()
	assert.Equal(t, 0, args.Len())
	assert.Nil(t, a.Parent())
	assert.True(t, args.Dirty())

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, g.Child(1).Len())
	assert.False(t, args.Dirty())
}

func TestList_AbsentStaysNil(t *testing.T) {
	pr := green.New(green.KindCallExpr, "", 0, ident("f"), nil)
	r := wrapBox(pr, nil)
	assert.Equal(t, 0, r.Args().Len())
	r.Fun().SetName("g")

	g, _, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Nil(t, g.Child(1))
}

func TestList_AtPanicsOutOfRange(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	assert.Panics(t, func() { r.Args().At(1) })
	assert.Panics(t, func() { r.Args().At(-1) })
}

func TestList_SliceAndAll(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	s := r.Args().Slice()
	require.Len(t, s, 2)
	for i, v := range r.Args().All() {
		assert.Same(t, s[i], v)
	}
	assert.Len(t, CloneAll(r.Args()), 2)
	assert.Nil(t, CloneAll[*leaf](nil))
}
