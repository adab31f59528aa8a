// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"slices"
	"sync"
	"time"
)

// DirtyEntry records why a file needs to be reloaded.
type DirtyEntry struct {
	// Path is the file path.
	Path string

	// MarkedAt is when the file was last marked.
	MarkedAt time.Time

	// Op is the last change seen for the file.
	Op ChangeOp
}

// DirtyTracker tracks files whose source changed on disk since they were
// last loaded.
//
// # Thread Safety
//
// Safe for concurrent use.
type DirtyTracker struct {
	mu    sync.RWMutex
	files map[string]DirtyEntry
}

// NewDirtyTracker creates an empty tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{files: make(map[string]DirtyEntry)}
}

// Mark records a change. A later change to the same path replaces the
// earlier one, so a file created and then removed ends up removed.
func (d *DirtyTracker) Mark(change Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := change.Time
	if at.IsZero() {
		at = time.Now()
	}
	d.files[change.Path] = DirtyEntry{Path: change.Path, MarkedAt: at, Op: change.Op}
}

// MarkAll records a batch of changes. It is a ChangeHandler.
func (d *DirtyTracker) MarkAll(changes []Change) {
	for _, c := range changes {
		d.Mark(c)
	}
}

// Count returns the number of dirty files.
func (d *DirtyTracker) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.files)
}

// Entries returns the dirty entries sorted by path.
func (d *DirtyTracker) Entries() []DirtyEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]DirtyEntry, 0, len(d.files))
	for _, e := range d.files {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b DirtyEntry) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return entries
}

// Clear removes the given paths and returns how many were dirty.
func (d *DirtyTracker) Clear(paths ...string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cleared := 0
	for _, p := range paths {
		if _, ok := d.files[p]; ok {
			delete(d.files, p)
			cleared++
		}
	}
	return cleared
}

// Take returns the dirty entries sorted by path and clears them.
func (d *DirtyTracker) Take() []DirtyEntry {
	entries := d.Entries()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entries {
		// Keep entries re-marked since Entries returned.
		if cur, ok := d.files[e.Path]; ok && cur == e {
			delete(d.files, e.Path)
		}
	}
	return entries
}
