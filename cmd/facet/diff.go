// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/facet/services/facet/green"
)

// dumpDiff compares the dumps of two trees.
//
// Description:
//
//	Both trees are rendered with green.Dump and compared line by line as a
//	unified diff. The diff text is parsed back into hunks so callers can
//	report per-hunk positions and line statistics.
//
// Outputs:
//
//	*diff.FileDiff - nil when the dumps are identical.
func dumpDiff(name string, old, new *green.Node, context int) (*diff.FileDiff, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        dumpLines(old),
		B:        dumpLines(new),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  context,
	})
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", name, err)
	}
	if text == "" {
		return nil, nil
	}
	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse diff of %s: %w", name, err)
	}
	return fd, nil
}

func dumpLines(n *green.Node) []string {
	if n == nil {
		return nil
	}
	lines := green.Dump(n).Lines
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// printFileDiff writes the hunks of fd followed by a one-line summary.
func printFileDiff(p *printer, fd *diff.FileDiff) {
	for _, h := range fd.Hunks {
		p.println(p.diffLine(fmt.Sprintf("@@ -%d,%d +%d,%d @@",
			h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)))
		for _, line := range strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n") {
			p.println(p.diffLine(line))
		}
	}
	st := fd.Stat()
	p.println(p.muted(fmt.Sprintf("%d hunk(s): %d added, %d changed, %d deleted",
		len(fd.Hunks), st.Added, st.Changed, st.Deleted)))
}
