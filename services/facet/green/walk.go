// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package green

import "slices"

// WalkFunc is called for every non-nil node in pre-order. path holds the
// ancestors of n, root first; it is reused between calls and must be cloned if
// retained. Returning false skips the children of n.
type WalkFunc func(path []*Node, n *Node) bool

// Walk visits every non-nil node under root in pre-order.
func Walk(root *Node, fn WalkFunc) {
	if root == nil {
		return
	}
	path := make([]*Node, 0, 16)
	walk(path, root, fn)
}

func walk(path []*Node, n *Node, fn WalkFunc) {
	if !fn(path, n) {
		return
	}
	path = append(path, n)
	for _, c := range n.children {
		if c != nil {
			walk(path, c, fn)
		}
	}
}

// Match is a node found by Find together with its ancestors.
type Match struct {
	Node *Node
	Path []*Node
}

// Parent returns the immediate ancestor of the match, nil for the root.
func (m Match) Parent() *Node {
	if len(m.Path) == 0 {
		return nil
	}
	return m.Path[len(m.Path)-1]
}

// Find returns every node under root for which pred returns true.
func Find(root *Node, pred func(*Node) bool) []Match {
	var out []Match
	Walk(root, func(path []*Node, n *Node) bool {
		if pred(n) {
			out = append(out, Match{Node: n, Path: slices.Clone(path)})
		}
		return true
	})
	return out
}

// Count returns the number of non-nil nodes under root, root included.
func Count(root *Node) int {
	count := 0
	Walk(root, func(_ []*Node, _ *Node) bool {
		count++
		return true
	})
	return count
}
