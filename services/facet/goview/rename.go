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
	"github.com/AleutianAI/facet/services/facet/view"
)

// Idents returns every identifier under root in pre-order.
func Idents(root view.Node) []*Ident {
	var out []*Ident
	view.Walk(root, func(n view.Node) bool {
		if id, ok := n.(*Ident); ok {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Rename renames every identifier called from to to.
//
// Description:
//
//	Identifiers are renamed in place, so they keep their identity tags and
//	only the enclosing nodes rebuild on the next export. Rename is purely
//	syntactic: it does not consult scopes, so shadowed and unrelated names
//	with the same spelling are renamed too.
//
// Outputs:
//
//	int - Number of identifiers renamed.
//	error - A *view.MutationError when to is not a Go identifier. Nothing is
//	        renamed in that case.
func Rename(root view.Node, from, to string) (int, error) {
	if err := checkIdent(to); err != nil {
		return 0, err
	}
	count := 0
	for _, id := range Idents(root) {
		if id.Name() != from {
			continue
		}
		must(id.SetName(to))
		count++
	}
	return count, nil
}

// ReplaceExprs substitutes expressions bottom-up through view.Rewrite.
//
// fn is called for every expression under root. When it returns a detached
// replacement and true, the expression is swapped in its parent slot. Only
// modelled expressions in Expr slots are offered; identifiers naming
// declarations and selectors are left alone.
//
// Outputs:
//
//	int - Number of substitutions.
//	error - The first failed substitution. Earlier ones are kept.
func ReplaceExprs(root view.Node, fn func(Expr) (Expr, bool)) (int, error) {
	count := 0
	_, err := view.Rewrite(root, func(n view.Node) (view.Node, bool) {
		x, ok := n.(Expr)
		if !ok || !inExprSlot(n) {
			return nil, false
		}
		repl, ok := fn(x)
		if !ok || isNil(repl) {
			return nil, false
		}
		count++
		return repl, true
	})
	return count, err
}

// inExprSlot reports whether n sits in a slot typed as Expr. Opaque nodes
// fit every category and are never offered.
func inExprSlot(n view.Node) bool {
	switch n.(type) {
	case *Invalid, *Verbatim:
		return false
	}
	id, isIdent := n.(*Ident)
	if !isIdent {
		return n.Parent() != nil
	}
	switch p := n.Parent().(type) {
	case nil, *File, *FuncDecl, *Param:
		return false
	case *ValueSpec:
		return p.Names().IndexOf(id) < 0
	case *SelectorExpr:
		return p.Sel() != id
	default:
		return true
	}
}
