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
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/facet/services/facet/workspace"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		record  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Load every Go file under DIR and keep the documents in sync",
		Long: `Load every Go file under DIR, then reload files as they change on disk
until interrupted. Reloaded documents keep the identity tags of their
declarations. With --record, every reloaded file is committed to the
snapshot store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			root := args[0]
			wopts := workspace.DefaultWatcherOptions()
			wopts.Debounce = a.cfg.Workspace.Debounce
			wopts.Logger = a.logger.Slog()

			var extra []workspace.Option
			if record {
				store, closeStore, err := a.openSnapshots()
				if err != nil {
					return err
				}
				defer closeStore()
				extra = append(extra, workspace.WithSnapshots(store))
			}
			ws := a.workspace(extra...)

			paths, err := goFiles(root, wopts.Ignore)
			if err != nil {
				return err
			}
			if err := ws.Load(ctx, paths...); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.out.println(a.out.warning(err.Error()))
			}
			a.out.println(a.out.success(fmt.Sprintf("watching %d file(s) under %s", ws.Len(), root)))

			// The final flush in Stop runs after ctx ends.
			syncCtx := context.WithoutCancel(ctx)
			var mu sync.Mutex
			handler := func(changes []workspace.Change) {
				mu.Lock()
				defer mu.Unlock()
				ws.Dirty().MarkAll(changes)
				a.report(syncCtx, ws, ws.Sync(syncCtx), record)
			}
			w, err := workspace.NewWatcher(root, handler, &wopts)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "commit reloaded files to the snapshot store")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop after this long (0 waits for an interrupt)")
	return cmd
}

func (a *app) report(ctx context.Context, ws *workspace.Workspace, res workspace.SyncResult, record bool) {
	for _, path := range res.Reloaded {
		doc, ok := ws.Get(path)
		if !ok {
			continue
		}
		msg := fmt.Sprintf("reloaded %s (revision %d)", path, doc.Revision())
		if record {
			if _, rev, err := ws.Commit(ctx, path); err != nil {
				a.out.println(a.out.failure(fmt.Sprintf("commit %s: %v", path, err)))
			} else {
				msg = fmt.Sprintf("reloaded %s (recorded revision %d)", path, rev)
			}
		}
		a.out.println(a.out.success(msg))
	}
	for _, path := range res.Removed {
		a.out.println(a.out.warning("removed " + path))
	}
	failed := make([]string, 0, len(res.Failed))
	for path := range res.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		a.out.println(a.out.failure(fmt.Sprintf("%s: %v", path, res.Failed[path])))
	}
}

// goFiles lists the .go files under root, skipping ignored directories.
func goFiles(root string, ignore []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && matchesAny(d.Name(), ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok || p == name {
			return true
		}
	}
	return false
}
