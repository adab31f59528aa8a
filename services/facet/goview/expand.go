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
	"github.com/AleutianAI/facet/services/facet/view"
)

// Expander splits every compacted node the Go collections expand:
// parameters and value specs with several names.
var Expander view.Expander = view.ExpanderFunc(expandCompacted)

func expandCompacted(g *green.Node) []*green.Node {
	if parts := ExpandParam(g); parts != nil {
		return parts
	}
	return ExpandValueSpec(g)
}

// CarryTags carries the tags of old onto next, aligning parameter and spec
// lists name by name. See view.CarryTags.
func CarryTags(old, next *green.Node) *green.Node {
	return view.CarryTags(old, next, view.WithExpander(Expander))
}

// ExpandValueSpec splits "var a, b T = x, y" into one spec per name.
//
// Description:
//
//	Every part keeps the shared type node. Values are split positionally, so
//	a spec whose value count differs from its name count (a multi-value call
//	such as "a, b := f()") is left compacted.
//
// Outputs:
//
//	[]*green.Node - One VarSpec or ConstSpec per name, or nil when g is not
//	                a spec with several names.
func ExpandValueSpec(g *green.Node) []*green.Node {
	if g.Kind() != green.KindVarSpec && g.Kind() != green.KindConstSpec {
		return nil
	}
	names := g.Child(0).Elements()
	if len(names) < 2 {
		return nil
	}
	typ := g.Child(1)
	values := g.Child(2).Elements()
	if len(values) != 0 && len(values) != len(names) {
		return nil
	}
	parts := make([]*green.Node, len(names))
	for i, name := range names {
		var vals *green.Node
		if len(values) != 0 {
			vals = green.NewSeparatedList([]*green.Node{values[i]}, nil)
		}
		parts[i] = green.New(g.Kind(), "", 0, green.NewSeparatedList([]*green.Node{name}, nil), typ, vals)
	}
	return parts
}

// ExpandParam splits "a, b int" into one parameter per name.
func ExpandParam(g *green.Node) []*green.Node {
	if g.Kind() != green.KindParam {
		return nil
	}
	names := g.Child(0).Elements()
	if len(names) < 2 {
		return nil
	}
	typ := g.Child(1)
	parts := make([]*green.Node, len(names))
	for i, name := range names {
		parts[i] = green.New(green.KindParam, "", 0, green.NewSeparatedList([]*green.Node{name}, nil), typ)
	}
	return parts
}
