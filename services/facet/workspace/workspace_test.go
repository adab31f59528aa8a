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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AleutianAI/facet/services/facet/goview"
	"github.com/AleutianAI/facet/services/facet/sitter"
	"github.com/AleutianAI/facet/services/facet/storage/badger"
	"github.com/AleutianAI/facet/services/facet/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Badger's in-memory instances keep a few background goroutines
		// alive until the process exits.
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
		goleak.IgnoreTopFunction("github.com/dgraph-io/ristretto/v2/z.(*AllocatorPool).freeupAllocators"),
		goleak.IgnoreAnyFunction("github.com/dgraph-io/ristretto/v2.(*defaultPolicy[...]).processItems"),
		goleak.IgnoreAnyFunction("github.com/dgraph-io/ristretto/v2.(*Cache[...]).processItems"),
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

const addSrc = "package calc\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n"

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestWorkspace_LoadConcurrently(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 20 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%02d.go", i),
			fmt.Sprintf("package p\n\nfunc f%d() {}\n", i)))
	}

	ws := New(WithConcurrency(3))
	require.NoError(t, ws.Load(context.Background(), paths...))
	assert.Equal(t, 20, ws.Len())
	assert.Equal(t, paths, ws.Paths())

	doc, ok := ws.Get(paths[7])
	require.True(t, ok)
	assert.Equal(t, "f7", doc.Root().Funcs().At(0).Name().Name())
}

func TestWorkspace_LoadKeepsGoodFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.go", addSrc)
	noPkg := writeFile(t, dir, "nopkg.go", "func f() {}\n")
	missing := filepath.Join(dir, "missing.go")

	ws := New()
	err := ws.Load(context.Background(), good, noPkg, missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, sitter.ErrInvalidContent)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []string{good}, ws.Paths())
}

func TestWorkspace_LoadCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkspace_ReloadUnchangedKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ws := New()

	first, err := ws.Reload(context.Background(), path)
	require.NoError(t, err)
	again, err := ws.Reload(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, uint64(0), again.Revision())
}

func TestWorkspace_ReloadCarriesTags(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ws := New()

	doc, err := ws.Reload(ctx, path)
	require.NoError(t, err)
	fn := doc.Root().Funcs().At(0)
	fn.Tag()
	_, _, err = ws.Commit(ctx, path)
	require.NoError(t, err)

	// A declaration is inserted above the tagged function on disk.
	writeFile(t, dir, "a.go", "package calc\n\nvar zero = 0\n\nfunc add(a, b int) int {\n\treturn a - b\n}\n")
	again, err := ws.Reload(ctx, path)
	require.NoError(t, err)
	assert.Same(t, doc, again)
	assert.Equal(t, uint64(2), doc.Revision())

	moved, err := doc.Relocate(fn)
	require.NoError(t, err)
	got, ok := moved.(*goview.FuncDecl)
	require.True(t, ok)
	assert.NotSame(t, fn, got)
	assert.Equal(t, 2, doc.Root().Decls().Len())
	assert.Same(t, doc.Root().Decls().At(1), view.Node(got))
}

func TestWorkspace_ReloadCarriesTagsInsideNameGroups(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ws := New()

	doc, err := ws.Reload(ctx, path)
	require.NoError(t, err)
	b := doc.Root().Funcs().At(0).Params().At(1).Names().At(0)
	require.Equal(t, "b", b.Name())
	b.Tag()
	_, _, err = ws.Commit(ctx, path)
	require.NoError(t, err)
	require.Equal(t, view.Found, doc.Counterpart(b).Status)

	// The reparse holds "a, b int" compacted again.
	writeFile(t, dir, "a.go", "package calc\n\nfunc add(a, b int) int {\n\treturn a - b\n}\n")
	_, err = ws.Reload(ctx, path)
	require.NoError(t, err)

	res := doc.Counterpart(b)
	require.Equal(t, view.Found, res.Status)
	assert.Equal(t, "b", res.Node.Text())

	moved, err := doc.Relocate(b)
	require.NoError(t, err)
	got, ok := moved.(*goview.Ident)
	require.True(t, ok)
	assert.Equal(t, "b", got.Name())
	assert.Equal(t, b.Tag(), got.Tag())
}

func TestWorkspace_ConcurrentReloadsShareWork(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ws := New()

	var wg sync.WaitGroup
	docs := make([]any, 8)
	for i := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := ws.Reload(context.Background(), path)
			assert.NoError(t, err)
			docs[i] = d
		}()
	}
	wg.Wait()
	for _, d := range docs[1:] {
		assert.Same(t, docs[0], d)
	}
	assert.Equal(t, 1, ws.Len())
}

func TestWorkspace_CommitRecordsSnapshots(t *testing.T) {
	ctx := context.Background()
	db, err := badger.OpenDB(badger.InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()
	store := badger.NewSnapshotStore(db, nil)

	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", addSrc)
	ws := New(WithSnapshots(store))
	require.NoError(t, ws.Load(ctx, path))

	_, _, err = ws.Commit(ctx, filepath.Join(dir, "other.go"))
	assert.ErrorIs(t, err, ErrNotLoaded)

	tree, rev, err := ws.Commit(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rev)

	doc, _ := ws.Get(path)
	_, err = goview.Rename(doc.Root(), "a", "x")
	require.NoError(t, err)
	_, rev, err = ws.Commit(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	revs, err := store.Revisions(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, revs)
	first, err := store.Get(ctx, path, 0)
	require.NoError(t, err)
	assert.Equal(t, tree.Child(0).Text(), first.Child(0).Text())
}

func TestWorkspace_SyncAppliesDirtyFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", addSrc)
	b := writeFile(t, dir, "b.go", "package calc\n")
	ws := New()
	require.NoError(t, ws.Load(ctx, a, b))

	writeFile(t, dir, "a.go", "package calc\n\nfunc sub(a, b int) int { return a - b }\n")
	require.NoError(t, os.Remove(b))
	c := writeFile(t, dir, "c.go", "package calc\n")
	missing := filepath.Join(dir, "gone.go")

	ws.Dirty().MarkAll([]Change{
		{Path: a, Op: OpWrite},
		{Path: b, Op: OpRemove},
		{Path: c, Op: OpCreate},
		{Path: missing, Op: OpWrite},
	})
	res := ws.Sync(ctx)
	assert.Equal(t, []string{a, c}, res.Reloaded)
	assert.Equal(t, []string{b}, res.Removed)
	require.Contains(t, res.Failed, missing)
	assert.ErrorIs(t, res.Failed[missing], os.ErrNotExist)
	assert.Zero(t, ws.Dirty().Count())

	doc, ok := ws.Get(a)
	require.True(t, ok)
	assert.Equal(t, "sub", doc.Root().Funcs().At(0).Name().Name())
	assert.Equal(t, []string{a, c}, ws.Paths())
}

func TestDirtyTracker(t *testing.T) {
	d := NewDirtyTracker()
	d.Mark(Change{Path: "b.go", Op: OpCreate})
	d.Mark(Change{Path: "a.go", Op: OpWrite})
	d.Mark(Change{Path: "b.go", Op: OpRemove})

	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a.go", entries[0].Path)
	assert.Equal(t, OpRemove, entries[1].Op)
	assert.False(t, entries[0].MarkedAt.IsZero())

	assert.Equal(t, 1, d.Clear("a.go", "x.go"))
	assert.Len(t, d.Take(), 1)
	assert.Zero(t, d.Count())
}

func TestDedupe(t *testing.T) {
	now := time.Now()
	got := dedupe([]Change{
		{Path: "a.go", Op: OpCreate, Time: now},
		{Path: "b.go", Op: OpWrite, Time: now},
		{Path: "a.go", Op: OpWrite, Time: now.Add(time.Millisecond)},
		{Path: "b.go", Op: OpRemove, Time: now.Add(time.Millisecond)},
	})
	require.Len(t, got, 2)
	assert.Equal(t, OpCreate, got[0].Op, "a create followed by writes stays a create")
	assert.Equal(t, now.Add(time.Millisecond), got[0].Time)
	assert.Equal(t, OpRemove, got[1].Op)
}

func TestWatcher_DeliversGoFileChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	batches := make(chan []Change, 16)
	w, err := NewWatcher(dir, func(cs []Change) { batches <- cs }, &WatcherOptions{
		Debounce: 20 * time.Millisecond,
		Ignore:   []string{"vendor"},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "vendor"), "skip.go", "package v\n")
	writeFile(t, dir, "notes.txt", "ignored")
	path := writeFile(t, dir, "a.go", addSrc)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cs := <-batches:
			for _, c := range cs {
				assert.Equal(t, ".go", filepath.Ext(c.Path))
				assert.NotContains(t, c.Path, "vendor")
				if c.Path == path {
					return
				}
			}
		case <-deadline:
			t.Fatal("no change delivered for a.go")
		}
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}

func TestWatcher_CanceledContextClosesWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		return errors.Is(w.watcher.Add(dir), fsnotify.ErrClosed)
	}, 5*time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestChangeOp_String(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "unknown", ChangeOp(9).String())
}
