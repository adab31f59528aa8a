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

// Exporter runs one node's export.
//
// Description:
//
//	A node kind's Export method begins an export, returns early when the
//	node can be reused wholesale, feeds every constituent through the
//	ExportTo methods of its properties and finally calls Build with a
//	constructor for its green node:
//
//	    func (n *ParenExpr) Export(sig *view.Signal) (*green.Node, error) {
//	        e := n.BeginExport(sig)
//	        if g, ok := e.Reuse(); ok {
//	            return g, nil
//	        }
//	        x := n.x.ExportTo(e, 0)
//	        return e.Build(func() (*green.Node, error) {
//	            return green.New(green.KindParenExpr, "", 0, x), nil
//	        })
//	    }
//
//	Build rebuilds when the node has no backing node, when a constituent
//	changed (its export marked the signal or its green node is not the one in
//	the backing slot), when a scalar diverged, when the node's own tracker is
//	dirty, or when the backing node lacks the node's tag. Otherwise the
//	backing node is returned and the outer signal is left untouched.
type Exporter struct {
	b        *Base
	outer    *Signal
	local    Signal
	err      error
	changed  bool
	diverged bool
	reuse    bool
}

// BeginExport starts exporting the node. sig may be nil.
func (b *Base) BeginExport(sig *Signal) *Exporter {
	e := &Exporter{b: b, outer: sig, local: Signal{state: Clean}}
	e.reuse = b.green != nil && !b.touched && !b.tracker.Dirty() && b.stamped()
	return e
}

// stamped reports whether the backing node carries the node's tag, or no tag
// was minted.
func (b *Base) stamped() bool {
	return b.tag.IsZero() || Carries(b.green, b.tag)
}

// Reuse returns the backing node when the node was never materialized, so no
// constituent needs exporting.
func (e *Exporter) Reuse() (*green.Node, bool) {
	if !e.reuse {
		return nil, false
	}
	exports.WithLabelValues(outcomeReused).Inc()
	return e.b.green, true
}

// Backing returns the node's current backing node. Kinds whose green kind
// depends on context use it to compare against.
func (e *Exporter) Backing() *green.Node {
	return e.b.green
}

// Diverge forces a rebuild. Kinds call it when a derived property (one not
// held in a Scalar) disagrees with the backing node.
func (e *Exporter) Diverge() {
	e.diverged = true
}

func (e *Exporter) record(slot int, g *green.Node) *green.Node {
	if e.b.green == nil || e.b.green.Child(slot) != g {
		e.changed = true
	}
	return g
}

func (e *Exporter) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Build finishes the export.
//
// Inputs:
//
//	construct - Builds the node's green form from the exported constituents.
//	            Only called when a rebuild is needed. May return
//	            ErrMissingContext or another error.
//
// Outputs:
//
//	*green.Node - The new or cached green node.
//	error - The first constituent or construction error. The node keeps its
//	        previous backing node and stays dirty.
func (e *Exporter) Build(construct func() (*green.Node, error)) (*green.Node, error) {
	if e.err != nil {
		return nil, e.err
	}
	b := e.b
	dirty := b.tracker.ConsumeInto(&e.local)
	rebuild := b.green == nil || e.local.Changed() || e.changed || e.diverged || dirty || !b.stamped()
	if !rebuild {
		exports.WithLabelValues(outcomeReused).Inc()
		return b.green, nil
	}
	if b.tag.IsZero() {
		b.adoptTag()
	}
	g, err := construct()
	if err != nil {
		if dirty {
			b.tracker.MarkDirty()
		}
		return nil, err
	}
	g = Stamp(g, b.tag)
	b.green = g
	e.outer.Mark()
	exports.WithLabelValues(outcomeRebuilt).Inc()
	return g, nil
}

// ExportRoot exports n with a fresh tracked signal and reports whether
// anything was rebuilt.
func ExportRoot(n Node) (*green.Node, bool, error) {
	sig := NewSignal()
	g, err := n.Export(sig)
	if err != nil {
		return nil, false, err
	}
	return g, sig.Changed(), nil
}
