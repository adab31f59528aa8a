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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/view"
)

func gExprStmt(x *green.Node) *green.Node { return green.New(green.KindExprStmt, "", 0, x) }

func TestBlock_ReturnsAndExprsViews(t *testing.T) {
	src := gBlock(
		gExprStmt(gIdent("a")),
		gReturn(gIdent("b")),
		gExprStmt(gIdent("c")),
	)
	b := wrapBlock(src, nil)

	require.Equal(t, 1, b.Returns().Len())
	assert.Equal(t, "b", b.Returns().At(0).Results().At(0).(*Ident).Name())

	exprs := b.Exprs()
	require.Equal(t, 3, exprs.Len())
	assert.Equal(t, "a", exprs.At(0).(*Ident).Name())
	assert.Nil(t, exprs.At(1))
	assert.Equal(t, "c", exprs.At(2).(*Ident).Name())

	require.NoError(t, exprs.Append(MustIdent("d")))
	require.Equal(t, 4, b.Stmts().Len())
	last, ok := b.Stmts().At(3).(*ExprStmt)
	require.True(t, ok)
	assert.Equal(t, "d", last.X().(*Ident).Name())

	ret, err := NewReturnStmt()
	require.NoError(t, err)
	require.NoError(t, b.Returns().Append(ret))
	assert.Equal(t, 2, b.Returns().Len())
	assert.Equal(t, 5, b.Stmts().Len())

	g, changed, err := view.ExportRoot(b)
	require.NoError(t, err)
	assert.True(t, changed)
	stmts := g.Child(0).Elements()
	require.Len(t, stmts, 5)
	for i := 0; i < 3; i++ {
		assert.Same(t, src.Child(0).Elements()[i], stmts[i], "statement %d is shared", i)
	}
	assert.Equal(t, green.KindReturnStmt, stmts[4].Kind())
	assert.Equal(t, 0, stmts[4].Child(0).Len(), "bare return has an empty result list")
}

func TestAssignStmt_Validation(t *testing.T) {
	_, err := NewAssignStmt([]Expr{MustIdent("a")}, "==", []Expr{MustIdent("b")})
	assert.ErrorIs(t, err, view.ErrInvalidValue)

	_, err = NewAssignStmt(nil, "=", []Expr{MustIdent("b")})
	assert.ErrorIs(t, err, view.ErrInvalidValue)

	s, err := NewAssignStmt([]Expr{MustIdent("a")}, ":=", []Expr{MustIdent("b")})
	require.NoError(t, err)
	require.NoError(t, s.SetTok("+="))

	g, _, err := view.ExportRoot(s)
	require.NoError(t, err)
	assert.Equal(t, "+=", g.Text())
	assert.Equal(t, 1, len(g.Child(0).Elements()))
}

func TestIfStmt_ElseBranch(t *testing.T) {
	then, err := NewBlock()
	require.NoError(t, err)
	s, err := NewIfStmt(MustIdent("ok"), then, nil)
	require.NoError(t, err)
	assert.Nil(t, s.Else())

	stmt, err := NewExprStmt(MustIdent("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetElse(stmt), view.ErrInvalidValue)

	els, err := NewBlock()
	require.NoError(t, err)
	require.NoError(t, s.SetElse(els))
	require.NoError(t, s.SetElse(nil))
	assert.Nil(t, els.Parent())

	g, _, err := view.ExportRoot(s)
	require.NoError(t, err)
	assert.Nil(t, g.Child(2))
}

func TestIfStmt_CloneKeepsOpaqueElse(t *testing.T) {
	src := green.New(green.KindIfStmt, "", 0,
		gIdent("ok"),
		gBlock(),
		green.Token(green.KindError, "else ???"),
	)
	s := wrapIfStmt(src, nil)
	_, isInvalid := s.Else().(*Invalid)
	require.True(t, isInvalid)

	c := s.Clone()
	g, _, err := view.ExportRoot(c)
	require.NoError(t, err)
	assert.True(t, green.Equivalent(src, g))
}
