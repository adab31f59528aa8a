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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/facet/services/facet/green"
)

func TestSignal_NeverReturnsToClean(t *testing.T) {
	var untracked *Signal
	untracked.Mark()
	assert.Equal(t, Untracked, untracked.State())
	assert.False(t, untracked.Changed())

	sig := NewSignal()
	assert.Equal(t, Clean, sig.State())
	sig.Mark()
	sig.Mark()
	assert.Equal(t, Dirty, sig.State())
	assert.True(t, sig.Changed())
	assert.Equal(t, "dirty", sig.State().String())
}

func TestTracker_ConsumeInto(t *testing.T) {
	var tr Tracker
	sig := NewSignal()
	assert.False(t, tr.ConsumeInto(sig))
	assert.False(t, sig.Changed())

	tr.MarkDirty()
	tr.MarkDirty()
	assert.True(t, tr.Dirty())
	assert.True(t, tr.ConsumeInto(sig))
	assert.True(t, sig.Changed())
	assert.False(t, tr.Dirty())

	tr.MarkDirty()
	assert.True(t, tr.ConsumeInto(nil), "consumes even when untracked")
	assert.False(t, tr.Dirty())
}

func TestExport_UntouchedReturnsBackingNode(t *testing.T) {
	pr := sampleBox("a", "b")
	r := wrapBox(pr, nil)

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Same(t, pr, g)
	assert.False(t, changed)
}

func TestExport_ScalarMutationRebuildsOnlyThePath(t *testing.T) {
	pa := ident("f")
	pArgs := green.NewSeparatedList([]*green.Node{ident("b")}, nil)
	pr := green.New(green.KindCallExpr, "", 0, pa, pArgs)
	r := wrapBox(pr, nil)

	a := r.Fun()
	a.SetName("g")

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotSame(t, pr, g)
	assert.NotSame(t, pa, g.Child(0))
	assert.Equal(t, "g", g.Child(0).Text())
	assert.Same(t, pArgs, g.Child(1), "untouched sibling is reused")
	assert.Same(t, pArgs.Child(0), g.Child(1).Child(0))
	assert.Same(t, g, r.Green())
}

func TestExport_Idempotent(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	r.Fun().SetName("g")

	first, changed, err := ExportRoot(r)
	require.NoError(t, err)
	require.True(t, changed)

	second, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.False(t, changed)
}

func TestExport_ReadingDoesNotRebuild(t *testing.T) {
	pr := sampleBox("a", "b", "c")
	r := wrapBox(pr, nil)

	for n := range r.Children() {
		if l, ok := n.(*leaf); ok {
			_ = l.Name()
		}
	}

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Same(t, pr, g)
	assert.False(t, changed)
}

func TestExport_SettingSameValueIsNotAChange(t *testing.T) {
	pr := sampleBox("a")
	r := wrapBox(pr, nil)
	r.Fun().SetName("f")

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Same(t, pr, g)
	assert.False(t, changed)
}

func TestExport_FreshNodes(t *testing.T) {
	r, err := newBox(newLeaf("f"), newLeaf("x"), newLeaf("y"))
	require.NoError(t, err)
	assert.Nil(t, r.Green())

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	want := sampleBox("x", "y")
	assert.True(t, green.Equivalent(want, g), "got:\n%s", green.Dump(g))

	again, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.Same(t, g, again)
	assert.False(t, changed)
}

func TestExport_FailureKeepsNodeDirty(t *testing.T) {
	pr := sampleBox("a")
	r := wrapBox(pr, nil)
	r.Fun().SetName("")

	_, _, err := ExportRoot(r)
	require.ErrorIs(t, err, ErrMissingContext)
	assert.Same(t, pr, r.Green())

	r.Fun().SetName("h")
	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "h", g.Child(0).Text())
}

func TestExport_ChildReplacement(t *testing.T) {
	pr := sampleBox("a")
	r := wrapBox(pr, nil)
	old := r.Fun()

	require.NoError(t, r.SetFun(newLeaf("g")))
	assert.Nil(t, old.Parent())

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "g", g.Child(0).Text())
	assert.Same(t, pr.Child(1), g.Child(1))
}

func TestAttach_RejectsAliasing(t *testing.T) {
	r1 := wrapBox(sampleBox("a"), nil)
	r2 := wrapBox(sampleBox("b"), nil)
	x := newLeaf("x")

	require.NoError(t, r1.SetFun(x))
	assert.Same(t, r1, x.Parent())

	before := r2.Fun()
	err := r2.SetFun(x)
	require.ErrorIs(t, err, ErrAliasing)
	assert.Same(t, before, r2.Fun(), "failed assignment leaves the slot unchanged")
	assert.Same(t, r1, x.Parent())

	err = r2.Args().Set(0, x)
	require.ErrorIs(t, err, ErrAliasing)

	require.NoError(t, r1.SetFun(newLeaf("y")))
	assert.Nil(t, x.Parent())
	require.NoError(t, r2.SetFun(x))
	assert.Same(t, r2, x.Parent())
}

func TestAttach_SameChildIsNoOp(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	f := r.Fun()
	require.NoError(t, r.SetFun(f))

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, r.Green(), g)
}

func TestRequiredChild_RejectsNil(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	err := r.SetFun(nil)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "fun", mutErr.Property)
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.Equal(t, "call_expr.fun: required: invalid property value", err.Error())
}

func TestRewrite_ReplacesThroughParents(t *testing.T) {
	r := wrapBox(sampleBox("a", "b", "a"), nil)

	root, err := Rewrite(r, func(n Node) (Node, bool) {
		if l, ok := n.(*leaf); ok && l.Name() == "a" {
			return newLeaf("z"), true
		}
		return nil, false
	})
	require.NoError(t, err)
	assert.Same(t, r, root)

	g, changed, err := ExportRoot(r)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, green.Equivalent(green.New(green.KindCallExpr, "", 0, ident("f"),
		green.NewSeparatedList([]*green.Node{ident("z"), ident("b"), ident("z")}, nil)), g))
}

func TestReplace_RejectsStranger(t *testing.T) {
	r := wrapBox(sampleBox("a"), nil)
	err := r.Replace(newLeaf("q"), newLeaf("z"))
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestClone_IsDetachedDeepCopy(t *testing.T) {
	pr := sampleBox("a", "b")
	r := wrapBox(pr, nil)

	c := r.Clone().(*box)
	assert.Nil(t, c.Parent())
	assert.Nil(t, c.Green())
	assert.NotSame(t, r.Fun(), c.Fun())
	assert.Same(t, c, c.Fun().Parent())

	g, _, err := ExportRoot(c)
	require.NoError(t, err)
	assert.True(t, green.Equivalent(pr, g))
}

func TestWalkRootAndAncestry(t *testing.T) {
	r := wrapBox(sampleBox("a", "b"), nil)
	var names []string
	Walk(r, func(n Node) bool {
		if l, ok := n.(*leaf); ok {
			names = append(names, l.Name())
		}
		return true
	})
	assert.Equal(t, []string{"f", "a", "b"}, names)

	b := r.Args().At(1)
	assert.Same(t, r, Root(b))
	assert.True(t, IsAncestor(r, b))
	assert.False(t, IsAncestor(b, r))
}
