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
	"github.com/AleutianAI/facet/services/facet/green"
)

func gIdent(name string) *green.Node { return green.Token(green.KindIdent, name) }

func gType(src string) *green.Node { return green.Token(green.KindTypeRef, src) }

func gInt(v string) *green.Node { return green.New(green.KindBasicLit, v, green.LitInt) }

func gSep(elems ...*green.Node) *green.Node { return green.NewSeparatedList(elems, nil) }

func gParam(typ string, names ...string) *green.Node {
	ids := make([]*green.Node, len(names))
	for i, n := range names {
		ids[i] = gIdent(n)
	}
	return green.New(green.KindParam, "", 0, gSep(ids...), gType(typ))
}

func gReturn(results ...*green.Node) *green.Node {
	return green.New(green.KindReturnStmt, "", 0, gSep(results...))
}

func gBlock(stmts ...*green.Node) *green.Node {
	return green.New(green.KindBlock, "", 0, green.NewList(stmts...))
}

func gBinary(x *green.Node, op string, y *green.Node) *green.Node {
	return green.New(green.KindBinaryExpr, op, 0, x, y)
}

func gFile(decls ...*green.Node) *green.Node {
	return green.New(green.KindFile, "", 0, gIdent("p"), green.NewList(decls...))
}

// gAdd is "func add(a, b int) int { return a + b }".
func gAdd() *green.Node {
	return green.New(green.KindFuncDecl, "", 0,
		nil,
		gIdent("add"),
		gSep(gParam("int", "a", "b")),
		gSep(gParam("int")),
		gBlock(gReturn(gBinary(gIdent("a"), "+", gIdent("b")))),
	)
}

// gVar is a GenDecl holding one spec with the given names and values.
func gVar(tok string, names []string, typ *green.Node, values ...*green.Node) *green.Node {
	ids := make([]*green.Node, len(names))
	for i, n := range names {
		ids[i] = gIdent(n)
	}
	kind := green.KindVarSpec
	if tok == "const" {
		kind = green.KindConstSpec
	}
	var vals *green.Node
	if len(values) > 0 {
		vals = gSep(values...)
	}
	spec := green.New(kind, "", 0, gSep(ids...), typ, vals)
	return green.New(green.KindGenDecl, tok, 0, green.NewList(spec))
}
