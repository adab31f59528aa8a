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
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is a debounced change to a Go source file.
type Change struct {
	// Path is the path of the changed file.
	Path string

	// Op is the type of change.
	Op ChangeOp

	// Time is when the change was detected.
	Time time.Time
}

// ChangeOp is the type of a file change.
type ChangeOp int

const (
	// OpCreate indicates a file was created.
	OpCreate ChangeOp = iota

	// OpWrite indicates a file was modified.
	OpWrite

	// OpRemove indicates a file was deleted or renamed away.
	OpRemove
)

// String returns the lowercase name of the operation.
func (op ChangeOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ChangeHandler receives a batch of changes, one per path.
type ChangeHandler func(changes []Change)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Debounce is how long the watcher waits for more changes before it
	// delivers a batch. Default: 100ms.
	Debounce time.Duration

	// Ignore lists directory base names or glob patterns that are not
	// watched.
	Ignore []string

	// BufferSize is the capacity of the pending change channel.
	BufferSize int

	// Logger receives watch errors. nil means slog.Default().
	Logger *slog.Logger
}

// DefaultWatcherOptions returns the defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		Debounce:   100 * time.Millisecond,
		Ignore:     []string{".git", "vendor", "testdata", ".idea"},
		BufferSize: 1000,
	}
}

// Watcher watches a directory tree for changes to .go files and delivers
// them in debounced batches.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	ignore   []string
	logger   *slog.Logger

	changes   chan Change
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	closeOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a watcher for root. Call Start to begin watching.
//
// # Inputs
//
//   - root: Directory to watch recursively.
//   - handler: Receives the debounced batches.
//   - opts: Optional configuration (nil uses defaults).
func NewWatcher(root string, handler ChangeHandler, opts *WatcherOptions) (*Watcher, error) {
	defaults := DefaultWatcherOptions()
	if opts == nil {
		opts = &defaults
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaults.BufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		watcher:  fw,
		handler:  handler,
		debounce: opts.Debounce,
		ignore:   opts.Ignore,
		logger:   logger.With(slog.String("watch_root", root)),
		changes:  make(chan Change, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory tree and starts the event and debounce
// goroutines. They exit when Stop is called or ctx is canceled; either way
// the underlying fsnotify watcher is closed. Calling Start again is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.watching = true

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops watching and waits for the goroutines to exit. Pending changes
// are flushed to the handler first.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.closeWatcher()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// closeWatcher releases the fsnotify watcher exactly once.
func (w *Watcher) closeWatcher() {
	w.closeOnce.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("close file watcher failed", slog.String("error", err.Error()))
		}
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if base == pattern {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.closeWatcher()
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.ignored(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("watch new directory failed",
						slog.String("dir", event.Name),
						slog.String("error", err.Error()))
				}
			}
			return
		}
	}
	if filepath.Ext(event.Name) != ".go" {
		return
	}
	op, ok := convertOp(event.Op)
	if !ok {
		return
	}
	select {
	case w.changes <- Change{Path: event.Name, Op: op, Time: time.Now()}:
	default:
		w.logger.Warn("change buffer full, dropping event", slog.String("file", event.Name))
	}
}

func convertOp(op fsnotify.Op) (ChangeOp, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	var (
		batch  []Change
		timer  *time.Timer
		timerC <-chan time.Time
	)
	flush := func() {
		if len(batch) > 0 && w.handler != nil {
			w.handler(dedupe(batch))
		}
		batch = batch[:0]
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case c := <-w.changes:
			batch = append(batch, c)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}

// dedupe keeps the latest change per path, in order of first appearance.
// A create followed by writes stays a create.
func dedupe(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		i, ok := seen[c.Path]
		if !ok {
			seen[c.Path] = len(out)
			out = append(out, c)
			continue
		}
		if out[i].Op == OpCreate && c.Op == OpWrite {
			out[i].Time = c.Time
			continue
		}
		out[i] = c
	}
	return out
}
