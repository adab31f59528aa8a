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

// Tracking is the state of a change signal threaded through an export.
type Tracking uint8

const (
	// Untracked means the caller has no interest in whether anything changed.
	Untracked Tracking = iota

	// Clean means tracking is on and nothing has changed so far.
	Clean

	// Dirty means at least one node was rebuilt during the export.
	Dirty
)

// String returns the lowercase name of the state.
func (t Tracking) String() string {
	switch t {
	case Untracked:
		return "untracked"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Signal accumulates whether an export changed anything.
//
// A nil *Signal is Untracked. Once Dirty, a signal never returns to Clean, so a
// clean sibling exported after a rebuilt one cannot hide the change.
type Signal struct {
	state Tracking
}

// NewSignal returns a Clean signal.
func NewSignal() *Signal {
	return &Signal{state: Clean}
}

// State returns the current state. Safe on a nil receiver.
func (s *Signal) State() Tracking {
	if s == nil {
		return Untracked
	}
	return s.state
}

// Mark records a change. No-op when untracked.
func (s *Signal) Mark() {
	if s == nil || s.state == Untracked {
		return
	}
	s.state = Dirty
}

// Changed reports whether the signal is Dirty.
func (s *Signal) Changed() bool {
	return s.State() == Dirty
}

// Tracker is the per-node dirty flag.
//
// It is set by property and collection mutations and consumed when the owner
// exports.
type Tracker struct {
	dirty bool
}

// MarkDirty flags the owner as diverged from its last export. Idempotent.
func (t *Tracker) MarkDirty() {
	t.dirty = true
}

// Dirty reports the flag without clearing it.
func (t *Tracker) Dirty() bool {
	return t.dirty
}

// ConsumeInto marks sig when the tracker is dirty and clears the local flag.
// It reports whether the tracker was dirty, regardless of sig's tracking state.
func (t *Tracker) ConsumeInto(sig *Signal) bool {
	if !t.dirty {
		return false
	}
	t.dirty = false
	sig.Mark()
	return true
}
