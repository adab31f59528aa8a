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

import (
	"fmt"
	"slices"
	"strings"
)

// Edit is one changed region between two trees.
//
// Path is the child-index path from the root to the changed slot. Old or New is
// nil when the slot was added or removed.
type Edit struct {
	Path []int
	Old  *Node
	New  *Node
}

// String renders the edit as "path: old -> new".
func (e Edit) String() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("/%s: %s -> %s", strings.Join(parts, "/"), e.Old.Kind(), e.New.Kind())
}

// Diff computes the edit ranges that turn old into new.
//
// Description:
//
//	Walks both trees in lockstep. Pointer-identical subtrees are skipped
//	without being inspected, so the cost is proportional to the changed part
//	of the tree. A node whose kind, text, flags or child count differ is
//	reported as a single edit; otherwise Diff descends into its children.
//	Annotation-only differences are not edits.
//
// Inputs:
//
//	old, new - Roots of the two trees. Either may be nil.
//
// Outputs:
//
//	[]Edit - Edits in pre-order. Empty when the trees are equivalent.
func Diff(old, new *Node) []Edit {
	var edits []Edit
	diff(nil, old, new, &edits)
	return edits
}

func diff(path []int, a, b *Node, edits *[]Edit) {
	if a == b {
		return
	}
	if a == nil || b == nil || a.kind != b.kind || a.text != b.text || a.flags != b.flags || len(a.children) != len(b.children) {
		*edits = append(*edits, Edit{Path: slices.Clone(path), Old: a, New: b})
		return
	}
	for i := range a.children {
		diff(append(path, i), a.children[i], b.children[i], edits)
	}
}
