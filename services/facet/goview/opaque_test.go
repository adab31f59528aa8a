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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

func TestWrap_CategoryMismatchIsInvalid(t *testing.T) {
	block := gBlock()
	src := gExprStmt(block)
	s := wrapExprStmt(src, nil)

	inv, ok := s.X().(*Invalid)
	require.True(t, ok, "a block is not an expression")
	var kindErr *KindError
	require.True(t, errors.As(inv.Err(), &kindErr))
	assert.Equal(t, green.KindBlock, kindErr.Got)
	assert.Equal(t, "expression", kindErr.Want)
	assert.Equal(t, "block is not a valid expression", inv.Err().Error())
	assert.Equal(t, green.KindBlock, inv.Kind())
	assert.Same(t, block, inv.Source())

	g, changed, err := view.ExportRoot(s)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, src, g)
}

func TestWrap_ErrorRegionsRoundTrip(t *testing.T) {
	bad := green.Token(green.KindError, "func (")
	src := gFile(bad, gAdd())
	f, err := WrapFile(src)
	require.NoError(t, err)

	inv, ok := f.Decls().At(0).(*Invalid)
	require.True(t, ok)
	assert.Equal(t, "unparsable source region", inv.Err().Error())
	assert.Equal(t, "func (", inv.Text())
	assert.Equal(t, 1, f.Funcs().Len())

	require.NoError(t, f.Funcs().At(0).Name().SetName("plus"))
	g, changed, err := view.ExportRoot(f)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Same(t, bad, g.Child(1).Elements()[0], "error region is carried unchanged")
}

func TestVerbatim_TaggingRestamps(t *testing.T) {
	typeDecl := green.Token(green.KindVerbatim, "type T struct{}")
	src := gFile(typeDecl)
	f, err := WrapFile(src)
	require.NoError(t, err)

	v, ok := f.Decls().At(0).(*Verbatim)
	require.True(t, ok)
	tag := v.Tag()

	g, changed, err := view.ExportRoot(f)
	require.NoError(t, err)
	assert.True(t, changed, "the tag must be written into the tree")

	res := view.Locate(g, tag)
	require.Equal(t, view.Found, res.Status)
	assert.Equal(t, "type T struct{}", res.Node.Text())
	assert.True(t, green.Equivalent(typeDecl, res.Node))

	again, changed, err := view.ExportRoot(f)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, g, again)
}

func TestOpaque_CloneDropsTheTag(t *testing.T) {
	f, err := WrapFile(gFile(green.Token(green.KindVerbatim, "type T int")))
	require.NoError(t, err)
	v := f.Decls().At(0).(*Verbatim)
	tag := v.Tag()
	g, _, err := view.ExportRoot(f)
	require.NoError(t, err)

	c := v.Clone().(*Verbatim)
	require.NoError(t, f.Decls().Append(c))
	g, _, err = view.ExportRoot(f)
	require.NoError(t, err)
	assert.Equal(t, view.Found, view.Locate(g, tag).Status, "the copy does not claim the original's identity")
	assert.Equal(t, "type T int", c.Text())
}

func TestNewInvalidAndVerbatim(t *testing.T) {
	inv := NewInvalid("x :=")
	assert.Equal(t, green.KindError, inv.Kind())
	var kindErr *KindError
	require.True(t, errors.As(inv.Err(), &kindErr))
	assert.Empty(t, kindErr.Want)

	v := NewVerbatim("for {}")
	blk, err := NewBlock(v)
	require.NoError(t, err)
	g, _, err := view.ExportRoot(blk)
	require.NoError(t, err)
	assert.Equal(t, "for {}", g.Child(0).Elements()[0].Text())
	assert.Equal(t, green.KindVerbatim, g.Child(0).Elements()[0].Kind())
}
