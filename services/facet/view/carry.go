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
	"github.com/AleutianAI/facet/services/facet/green"
)

// CarryOption configures CarryTags.
type CarryOption func(*carrier)

// WithExpander aligns collection elements over the parts exp splits them
// into, which is how the view's collections see them. Without it a tag
// inside a split group, such as one name of "a, b int", is lost when the
// new tree holds the group compacted.
func WithExpander(exp Expander) CarryOption {
	return func(c *carrier) {
		c.exp = exp
	}
}

type carrier struct {
	exp Expander
}

// CarryTags copies the identity tags of old onto the matching nodes of next.
//
// Description:
//
//	Used when a tree is produced again from source, for example after the
//	file changed on disk, so that nodes tagged in the previous tree can still
//	be located. Nodes are matched structurally: fixed child slots by
//	position and kind, collection elements by equivalence first and then by
//	kind between equivalent neighbours. Every old tag lands on at most one
//	node of the result.
//
//	With WithExpander, a compacted element of next whose parts receive tags
//	is replaced by those parts, the same form the view exports once a node
//	inside the group is tagged.
//
// Outputs:
//
//	*green.Node - next with the carried tags, sharing every subtree that
//	              received none. next itself when nothing was carried.
func CarryTags(old, next *green.Node, opts ...CarryOption) *green.Node {
	c := &carrier{}
	for _, opt := range opts {
		opt(c)
	}
	return c.carry(old, next)
}

func (c *carrier) carry(old, next *green.Node) *green.Node {
	if old == nil || next == nil || old.Kind() != next.Kind() {
		return next
	}
	var result *green.Node
	if k := next.Kind(); k == green.KindList || k == green.KindSeparatedList {
		result = c.carryElements(old, next)
	} else {
		result = c.carrySlots(old, next)
	}
	if t, ok := TagOf(old); ok {
		result = Stamp(result, t)
	}
	return result
}

// carrySlots matches fixed child slots by position.
func (c *carrier) carrySlots(old, next *green.Node) *green.Node {
	oc, nc := old.ChildSlice(), next.ChildSlice()
	changed := false
	for j, ch := range nc {
		if j >= len(oc) {
			break
		}
		if carried := c.carry(oc[j], ch); carried != ch {
			nc[j] = carried
			changed = true
		}
	}
	if !changed {
		return next
	}
	return next.WithChildren(nc...)
}

// piece is one logical element of a collection: a whole element, or one
// part of a compacted element.
type piece struct {
	g    *green.Node
	elem int
}

// pieces splits elems the way a view collection would. Tagged elements are
// kept whole so their own tag has a node to land on.
func (c *carrier) pieces(elems []*green.Node) []piece {
	out := make([]piece, 0, len(elems))
	for i, e := range elems {
		var parts []*green.Node
		if _, tagged := TagOf(e); c.exp != nil && !tagged {
			parts = c.exp.Expand(e)
		}
		if len(parts) < 2 {
			out = append(out, piece{g: e, elem: i})
			continue
		}
		for _, p := range parts {
			out = append(out, piece{g: p, elem: i})
		}
	}
	return out
}

// carryElements matches collection elements over their pieces.
func (c *carrier) carryElements(old, next *green.Node) *green.Node {
	op, np := c.pieces(old.Elements()), c.pieces(next.Elements())
	match := alignElements(pieceNodes(op), pieceNodes(np))

	elems := next.Elements()
	out := make([]*green.Node, 0, len(np))
	changed := false
	for j := 0; j < len(np); {
		elem := np[j].elem
		var parts []*green.Node
		partChanged := false
		for ; j < len(np) && np[j].elem == elem; j++ {
			g := np[j].g
			if match[j] >= 0 {
				if carried := c.carry(op[match[j]].g, g); carried != g {
					g, partChanged = carried, true
				}
			}
			parts = append(parts, g)
		}
		switch {
		case !partChanged:
			out = append(out, elems[elem])
		case len(parts) == 1:
			out = append(out, parts[0])
			changed = true
		default:
			out = append(out, parts...)
			changed = true
		}
	}
	if !changed {
		return next
	}
	if next.Kind() == green.KindSeparatedList {
		return next.WithChildren(green.NewSeparatedList(out, next.Separators()).ChildSlice()...)
	}
	return next.WithChildren(out...)
}

func pieceNodes(ps []piece) []*green.Node {
	out := make([]*green.Node, len(ps))
	for i, p := range ps {
		out[i] = p.g
	}
	return out
}

// alignElements maps each element of next to an element of old, or -1.
func alignElements(old, next []*green.Node) []int {
	match := make([]int, len(next))
	used := make([]bool, len(old))
	for j := range match {
		match[j] = -1
	}

	cursor := 0
	for j, n := range next {
		for k := cursor; k < len(old); k++ {
			if !used[k] && green.Equivalent(old[k], n) {
				match[j], used[k], cursor = k, true, k+1
				break
			}
		}
	}

	lo := 0
	for j, n := range next {
		if match[j] >= 0 {
			lo = match[j] + 1
			continue
		}
		hi := len(old)
		for jj := j + 1; jj < len(next); jj++ {
			if match[jj] >= 0 {
				hi = match[jj]
				break
			}
		}
		for k := lo; k < hi; k++ {
			if !used[k] && old[k] != nil && n != nil && old[k].Kind() == n.Kind() {
				match[j], used[k], lo = k, true, k+1
				break
			}
		}
	}
	return match
}
