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
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by Unmarshal when the encoded tree is invalid.
var ErrMalformed = errors.New("malformed tree encoding")

// wireNode is the JSON shape of a node. A nil child slot encodes as null.
type wireNode struct {
	Kind        string       `json:"k"`
	Text        string       `json:"t,omitempty"`
	Flags       uint32       `json:"f,omitempty"`
	Children    []*wireNode  `json:"c,omitempty"`
	Annotations []Annotation `json:"a,omitempty"`
}

// Marshal encodes a tree, annotations included.
func Marshal(root *Node) ([]byte, error) {
	return json.Marshal(toWire(root))
}

// Unmarshal decodes a tree produced by Marshal.
func Unmarshal(data []byte) (*Node, error) {
	var w *wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromWire(w)
}

func toWire(n *Node) *wireNode {
	if n == nil {
		return nil
	}
	w := &wireNode{
		Kind:        n.kind.String(),
		Text:        n.text,
		Flags:       n.flags,
		Annotations: n.annotations,
	}
	if len(n.children) > 0 {
		w.Children = make([]*wireNode, len(n.children))
		for i, c := range n.children {
			w.Children[i] = toWire(c)
		}
	}
	return w
}

func fromWire(w *wireNode) (*Node, error) {
	if w == nil {
		return nil, nil
	}
	kind, ok := ParseKind(w.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, w.Kind)
	}
	n := &Node{kind: kind, text: w.Text, flags: w.Flags}
	if len(w.Children) > 0 {
		n.children = make([]*Node, len(w.Children))
		for i, c := range w.Children {
			child, err := fromWire(c)
			if err != nil {
				return nil, err
			}
			n.children[i] = child
		}
	}
	if len(w.Annotations) > 0 {
		n.annotations = w.Annotations
	}
	return n, nil
}
