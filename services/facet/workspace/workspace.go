// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace manages the documents of many Go files.
//
// Files are loaded concurrently, reloaded when they change on disk and,
// when a snapshot store is configured, their exported revisions are
// recorded. Reloading keeps identity tags: the tags of the previous tree are
// carried onto the reparsed one before the document adopts it, so view
// nodes tagged before the change can still be located afterwards.
package workspace

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/facet/services/facet/document"
	"github.com/AleutianAI/facet/services/facet/goview"
	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/sitter"
	"github.com/AleutianAI/facet/services/facet/storage/badger"
)

// DefaultConcurrency is the default number of files loaded at once.
const DefaultConcurrency = 8

// ErrNotLoaded is returned for paths the workspace has no document for.
var ErrNotLoaded = errors.New("document not loaded")

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithImporter sets the importer used for every file.
func WithImporter(imp *sitter.Importer) Option {
	return func(w *Workspace) {
		if imp != nil {
			w.importer = imp
		}
	}
}

// WithConcurrency bounds the number of files loaded at once. Values below 1
// are ignored.
func WithConcurrency(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithSnapshots records every committed revision in store.
func WithSnapshots(store *badger.SnapshotStore) Option {
	return func(w *Workspace) {
		w.snapshots = store
	}
}

// WithDocumentOptions passes options to every document the workspace
// opens.
func WithDocumentOptions(opts ...document.Option) Option {
	return func(w *Workspace) {
		w.docOpts = append(w.docOpts, opts...)
	}
}

type entry struct {
	doc  *document.Document
	hash [sha256.Size]byte
}

// Workspace is a set of documents keyed by file path.
//
// # Thread Safety
//
// Safe for concurrent use. Views of individual documents follow the rules of
// package document.
type Workspace struct {
	importer    *sitter.Importer
	snapshots   *badger.SnapshotStore
	concurrency int
	docOpts     []document.Option
	logger      *slog.Logger

	mu     sync.RWMutex
	docs   map[string]*entry
	flight singleflight.Group
	dirty  *DirtyTracker
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		docs:        make(map[string]*entry),
		dirty:       NewDirtyTracker(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.importer == nil {
		w.importer = sitter.NewImporter(sitter.WithLogger(w.logger))
	}
	return w
}

// Dirty returns the tracker of files changed on disk.
func (w *Workspace) Dirty() *DirtyTracker { return w.dirty }

// Load reads and imports paths concurrently.
//
// Description:
//
//	At most the configured number of files are read and imported at once.
//	A file that fails does not stop the others: every successfully imported
//	file is in the workspace when Load returns, and the failures are joined
//	into the returned error. Files already loaded are reloaded.
//
// Outputs:
//
//	error - nil when every file loaded, the joined per-file errors
//	        otherwise, or the context's error when ctx ended first.
func (w *Workspace) Load(ctx context.Context, paths ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := w.Reload(gctx, p); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w.logger.Info("workspace loaded",
		slog.Int("requested", len(paths)),
		slog.Int("failed", len(errs)),
		slog.Int("documents", w.Len()))
	return errors.Join(errs...)
}

// Reload reads path again and brings its document up to date.
//
// Description:
//
//	Concurrent reloads of the same path share one read and import. A
//	document whose source is unchanged is returned as is. Otherwise the
//	tags of the document's current tree are carried onto the new tree,
//	which the document then adopts through Regenerate. Tags minted since
//	the last export and unexported view edits do not survive. A path
//	without a document gets a new one.
//
// Outputs:
//
//	*document.Document - The up to date document.
//	error - A read error or the importer's *sitter.ImportError. The
//	        existing document is left untouched.
func (w *Workspace) Reload(ctx context.Context, path string) (*document.Document, error) {
	v, err, shared := w.flight.Do(path, func() (interface{}, error) {
		return w.reload(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		w.logger.Debug("reload shared", slog.String("file", path))
	}
	return v.(*document.Document), nil
}

func (w *Workspace) reload(ctx context.Context, path string) (*document.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	hash := sha256.Sum256(content)

	w.mu.RLock()
	cur := w.docs[path]
	w.mu.RUnlock()
	if cur != nil && cur.hash == hash {
		return cur.doc, nil
	}

	res, err := w.importer.Import(ctx, path, content)
	if err != nil {
		return nil, err
	}
	if res.HasErrors() {
		w.logger.Warn("file has syntax errors",
			slog.String("file", path),
			slog.Int("error_regions", len(res.Diagnostics)))
	}

	if cur != nil {
		tree := goview.CarryTags(cur.doc.Current(), res.Tree)
		if err := cur.doc.Regenerate(tree); err != nil {
			return nil, err
		}
		w.mu.Lock()
		cur.hash = hash
		w.mu.Unlock()
		w.logger.Debug("document reloaded",
			slog.String("file", path),
			slog.Uint64("revision", cur.doc.Revision()))
		return cur.doc, nil
	}

	opts := append([]document.Option{document.WithLogger(w.logger)}, w.docOpts...)
	doc, err := document.FromTree(path, res.Tree, opts...)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.docs[path] = &entry{doc: doc, hash: hash}
	w.mu.Unlock()
	return doc, nil
}

// Get returns the document for path.
func (w *Workspace) Get(path string) (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.docs[path]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// Remove forgets path and reports whether it was loaded.
func (w *Workspace) Remove(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.docs[path]
	delete(w.docs, path)
	return ok
}

// Len returns the number of documents.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.docs)
}

// Paths returns the loaded paths, sorted.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Commit exports the document for path and, when a snapshot store is
// configured, records the resulting revision.
//
// Outputs:
//
//	*green.Node - The exported tree.
//	uint64 - Its revision.
//	error - ErrNotLoaded, an export error or a storage error.
func (w *Workspace) Commit(ctx context.Context, path string) (*green.Node, uint64, error) {
	doc, ok := w.Get(path)
	if !ok {
		return nil, 0, fmt.Errorf("commit %s: %w", path, ErrNotLoaded)
	}
	tree, err := doc.Tree(ctx)
	if err != nil {
		return nil, 0, err
	}
	rev := doc.Revision()
	if w.snapshots != nil {
		if err := w.snapshots.Put(ctx, path, rev, tree); err != nil {
			return nil, 0, err
		}
	}
	return tree, rev, nil
}

// SyncResult reports what Sync did.
type SyncResult struct {
	Reloaded []string
	Removed  []string
	Failed   map[string]error
}

// Sync applies every change recorded in the dirty tracker: removed files
// are forgotten and the others reloaded. Failed reloads are reported and
// stay out of the tracker.
func (w *Workspace) Sync(ctx context.Context) SyncResult {
	res := SyncResult{Failed: make(map[string]error)}
	for _, e := range w.dirty.Take() {
		if err := ctx.Err(); err != nil {
			res.Failed[e.Path] = err
			continue
		}
		if e.Op == OpRemove {
			if w.Remove(e.Path) {
				res.Removed = append(res.Removed, e.Path)
			}
			continue
		}
		if _, err := w.Reload(ctx, e.Path); err != nil {
			res.Failed[e.Path] = err
			continue
		}
		res.Reloaded = append(res.Reloaded, e.Path)
	}
	return res
}
