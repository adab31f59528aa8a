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
	"fmt"

	"github.com/google/uuid"

	"github.com/AleutianAI/facet/services/facet/green"
)

// TagAnnotation is the annotation kind used to stamp identity tags onto
// persistent nodes.
const TagAnnotation = "facet.view/tag"

// Tag is an opaque identity marker for a view node.
//
// Description:
//
//	Persistent nodes are rebuilt, never mutated, so pointer identity does not
//	survive an export or an external regeneration of the tree. A Tag is
//	minted once per view node and stamped onto whichever persistent node
//	currently represents it, which lets the node's counterpart be found in
//	any later tree that kept the annotation.
//
//	The zero Tag means "no tag".
type Tag struct {
	id uuid.UUID
}

// mintTag returns a fresh tag.
func mintTag() Tag {
	return Tag{id: uuid.New()}
}

// IsZero reports whether t is the zero Tag.
func (t Tag) IsZero() bool {
	return t.id == uuid.Nil
}

// String returns the tag's textual form, empty for the zero Tag.
func (t Tag) String() string {
	if t.IsZero() {
		return ""
	}
	return t.id.String()
}

// ParseTag parses the textual form produced by String.
func ParseTag(s string) (Tag, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Tag{}, fmt.Errorf("parse tag %q: %w", s, err)
	}
	return Tag{id: id}, nil
}

func (t Tag) annotation() green.Annotation {
	return green.Annotation{Kind: TagAnnotation, Data: t.String()}
}

// Stamp returns an equivalent node carrying t, replacing any previous tag.
// Returns n unchanged when it already carries t or t is zero.
func Stamp(n *green.Node, t Tag) *green.Node {
	if n == nil || t.IsZero() || Carries(n, t) {
		return n
	}
	return n.WithAnnotation(t.annotation())
}

// Carries reports whether n is stamped with t.
func Carries(n *green.Node, t Tag) bool {
	return !t.IsZero() && n.HasAnnotation(t.annotation())
}

// TagOf returns the tag stamped on n.
func TagOf(n *green.Node) (Tag, bool) {
	a, ok := n.Annotation(TagAnnotation)
	if !ok {
		return Tag{}, false
	}
	t, err := ParseTag(a.Data)
	if err != nil {
		return Tag{}, false
	}
	return t, true
}

// LocateStatus is the outcome of a tag search.
type LocateStatus int

const (
	// Found means exactly one node carries the tag.
	Found LocateStatus = iota

	// NotFound means no node carries the tag.
	NotFound

	// Ambiguous means more than one node carries the tag.
	Ambiguous
)

// String returns the lowercase name of the status.
func (s LocateStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// LocateResult is the result of Locate.
type LocateResult struct {
	Status LocateStatus

	// Node is the unique match. Nil unless Status is Found.
	Node *green.Node

	// Path holds the ancestors of Node, root first.
	Path []*green.Node

	// Matches is the number of tagged nodes seen.
	Matches int
}

// Err converts a non-Found status into ErrNotFound or ErrAmbiguous.
func (r LocateResult) Err() error {
	switch r.Status {
	case Found:
		return nil
	case Ambiguous:
		return fmt.Errorf("%w: %d matches", ErrAmbiguous, r.Matches)
	default:
		return ErrNotFound
	}
}

// Locate searches tree for the node stamped with tag.
//
// Description:
//
//	Visits every node of the tree, so the cost is O(tree size). Callers that
//	need bounded latency should pass the smallest enclosing subtree known to
//	be stable. Locate never retries: zero or several matches are reported as
//	NotFound or Ambiguous and the policy is left to the caller.
//
// Inputs:
//
//	tree - Root to search. May be nil.
//	tag - Tag to look for. The zero Tag is never found.
//
// Outputs:
//
//	LocateResult - Status, the unique match and its ancestors.
func Locate(tree *green.Node, tag Tag) LocateResult {
	if tag.IsZero() {
		return LocateResult{Status: NotFound}
	}
	matches := green.Find(tree, func(n *green.Node) bool { return Carries(n, tag) })
	switch len(matches) {
	case 0:
		return LocateResult{Status: NotFound}
	case 1:
		return LocateResult{Status: Found, Node: matches[0].Node, Path: matches[0].Path, Matches: 1}
	default:
		return LocateResult{Status: Ambiguous, Matches: len(matches)}
	}
}

// Counterpart locates the persistent counterpart of n in tree.
//
// n must have been tagged (via Tag) and exported into the tree's history;
// otherwise the result is NotFound.
func Counterpart(tree *green.Node, n Node) LocateResult {
	return Locate(tree, n.viewBase().tag)
}
