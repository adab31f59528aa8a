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
	"strconv"
	"strings"
)

// Listing is an indented, line-oriented rendering of a tree.
//
// It is a debugging view of the structure, not source text. Every child slot
// occupies at least one line (absent slots render as "-"), so the line span of
// a slot is stable under edits elsewhere in the tree.
type Listing struct {
	Lines []string
	spans map[string][2]int
}

// Dump renders root as a Listing.
func Dump(root *Node) *Listing {
	l := &Listing{spans: make(map[string][2]int)}
	l.dump(nil, root, 0)
	return l
}

// String joins the lines with newlines.
func (l *Listing) String() string {
	if len(l.Lines) == 0 {
		return ""
	}
	return strings.Join(l.Lines, "\n") + "\n"
}

// Span returns the half-open line range [start, end) occupied by the slot at
// path. ok is false when the path does not exist in the dumped tree.
func (l *Listing) Span(path []int) (start, end int, ok bool) {
	s, ok := l.spans[pathKey(path)]
	return s[0], s[1], ok
}

func (l *Listing) dump(path []int, n *Node, depth int) {
	start := len(l.Lines)
	indent := strings.Repeat("  ", depth)
	if n == nil {
		l.Lines = append(l.Lines, indent+"-")
		l.spans[pathKey(path)] = [2]int{start, start + 1}
		return
	}
	l.Lines = append(l.Lines, indent+header(n))
	for i, c := range n.children {
		l.dump(append(path, i), c, depth+1)
	}
	l.spans[pathKey(path)] = [2]int{start, len(l.Lines)}
}

func header(n *Node) string {
	var b strings.Builder
	b.WriteString(n.kind.String())
	if n.text != "" {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.text))
	}
	if n.flags != 0 {
		fmt.Fprintf(&b, " flags=%#x", n.flags)
	}
	for _, a := range n.annotations {
		fmt.Fprintf(&b, " @%s=%s", a.Kind, a.Data)
	}
	return b.String()
}

func pathKey(path []int) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}
