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
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/facet/services/facet/document"
	"github.com/AleutianAI/facet/services/facet/goview"
	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/storage/badger"
	"github.com/AleutianAI/facet/services/facet/view"
)

func newHistoryCmd(a *app) *cobra.Command {
	var show int64
	cmd := &cobra.Command{
		Use:   "history FILE",
		Short: "Record a snapshot of a Go file and list its revisions",
		Long: `Import FILE and compare it with the latest recorded snapshot. Identity
tags of declarations are carried over from that snapshot, so a declaration
keeps its tag across edits. A new revision is recorded only when the tree
changed. With --show, the tree of one revision is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer closeStore()

			key, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if show >= 0 {
				tree, err := store.Get(ctx, key, uint64(show))
				if err != nil {
					return err
				}
				a.out.printf("%s", green.Dump(tree).String())
				return nil
			}
			if err := a.record(ctx, store, args[0], key); err != nil {
				return err
			}

			revs, err := store.Revisions(ctx, key)
			if err != nil {
				return err
			}
			a.out.println(a.out.muted(fmt.Sprintf("revisions: %v", revs)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&show, "show", -1, "print the tree recorded at this revision")
	return cmd
}

// record imports path and stores it under key when it differs from the
// latest snapshot.
func (a *app) record(ctx context.Context, store *badger.SnapshotStore, path, key string) error {
	res, err := a.importFile(ctx, path)
	if err != nil {
		return err
	}

	latest, prev, err := store.Latest(ctx, key)
	switch {
	case errors.Is(err, badger.ErrSnapshotNotFound):
		prev = nil
	case err != nil:
		return err
	}

	tree := res.Tree
	if prev != nil {
		tree = goview.CarryTags(prev, tree)
	}
	doc, err := document.FromTree(key, tree, document.WithLogger(a.logger.Slog()))
	if err != nil {
		return err
	}
	decls := doc.Root().Decls()
	for d := range decls.Values() {
		d.Tag()
	}
	tree, err = doc.Tree(ctx)
	if err != nil {
		return err
	}

	if prev != nil && green.Equivalent(prev, tree) {
		a.out.println(a.out.success(fmt.Sprintf("%s unchanged since revision %d", path, latest)))
		return nil
	}
	rev := uint64(0)
	if prev != nil {
		rev = latest + 1
	}
	if err := store.Put(ctx, key, rev, tree); err != nil {
		return err
	}
	a.out.println(a.out.success(fmt.Sprintf("recorded %s at revision %d", path, rev)))

	if prev != nil {
		a.out.println(a.out.title("Edits"))
		for _, e := range green.Diff(prev, tree) {
			a.out.println("  " + e.String())
		}
	}
	a.out.println(a.out.title("Declarations"))
	for i, d := range decls.All() {
		status := "new"
		if prev != nil && view.Locate(prev, d.Tag()).Status == view.Found {
			status = "kept"
		}
		a.out.println(fmt.Sprintf("  %d %s %s %s", i, d.Kind(), d.Tag(), a.out.muted(status)))
	}
	return nil
}

// openSnapshots opens the configured snapshot store. The returned func
// closes the database.
func (a *app) openSnapshots() (*badger.SnapshotStore, func(), error) {
	cfg := badger.DefaultConfig()
	cfg.Path = a.cfg.Storage.Path
	cfg.InMemory = a.cfg.Storage.InMemory
	cfg.Logger = a.logger.Slog()
	db, err := badger.OpenDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot store: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("close snapshot store", "error", err)
		}
	}
	return badger.NewSnapshotStore(db, a.logger.Slog()), closeDB, nil
}
