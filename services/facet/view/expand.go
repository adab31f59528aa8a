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

import "github.com/AleutianAI/facet/services/facet/green"

// Expander splits a compacted persistent node into single-declaration parts.
//
// Description:
//
//	A compacted node bundles several logical declarations in one physical
//	node, as in "var a, b = 1, 2". Collections call Expand once per element
//	while they are constructed, so their length accounts for every part
//	before any element is read.
//
// Outputs:
//
//	[]*green.Node - The parts in order, or nil when g is not compacted.
//	                Returning a single part is the same as returning nil.
type Expander interface {
	Expand(g *green.Node) []*green.Node
}

// ExpanderFunc adapts a function to Expander.
type ExpanderFunc func(g *green.Node) []*green.Node

// Expand calls f(g).
func (f ExpanderFunc) Expand(g *green.Node) []*green.Node {
	return f(g)
}
