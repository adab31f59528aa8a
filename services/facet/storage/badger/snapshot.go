// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/facet/services/facet/green"
)

// ErrSnapshotNotFound is returned when a document has no snapshot at the
// requested revision.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	snapPrefix = "snap/"

	// revDigits is wide enough for any uint64 so keys sort by revision.
	revDigits = 20
)

func docPrefix(doc string) []byte {
	return []byte(snapPrefix + doc + "/")
}

func snapKey(doc string, revision uint64) []byte {
	return fmt.Appendf(docPrefix(doc), "%0*d", revDigits, revision)
}

// parseRevision returns the revision of key under prefix. Keys of documents
// whose name extends doc with a slash share the prefix and are rejected.
func parseRevision(key, prefix []byte) (uint64, bool) {
	rest := key[len(prefix):]
	if len(rest) != revDigits {
		return 0, false
	}
	rev, err := strconv.ParseUint(string(rest), 10, 64)
	if err != nil {
		return 0, false
	}
	return rev, true
}

// SnapshotStore records exported trees per document and revision.
//
// Thread Safety: Safe for concurrent use.
type SnapshotStore struct {
	db     *DB
	logger *slog.Logger
}

// NewSnapshotStore returns a store over db. A nil logger means
// slog.Default().
func NewSnapshotStore(db *DB, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{db: db, logger: logger}
}

// Put records tree as the given revision of doc, replacing any earlier
// snapshot of that revision.
//
// Inputs:
//
//	ctx - Checked before the transaction starts.
//	doc - Document path.
//	revision - Document revision.
//	tree - Exported tree. Must not be nil.
func (s *SnapshotStore) Put(ctx context.Context, doc string, revision uint64, tree *green.Node) error {
	if tree == nil {
		return fmt.Errorf("put %s@%d: nil tree", doc, revision)
	}
	data, err := green.Marshal(tree)
	if err != nil {
		return fmt.Errorf("put %s@%d: %w", doc, revision, err)
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(snapKey(doc, revision), data)
	})
	if err != nil {
		return fmt.Errorf("put %s@%d: %w", doc, revision, err)
	}
	s.logger.Debug("recorded snapshot",
		slog.String("document", doc),
		slog.Uint64("revision", revision),
		slog.Int("bytes", len(data)))
	return nil
}

// Get returns the snapshot of doc at revision.
//
// Outputs:
//
//	*green.Node - A tree equal to the one recorded, tags included.
//	error - ErrSnapshotNotFound, a storage error or a decode error.
func (s *SnapshotStore) Get(ctx context.Context, doc string, revision uint64) (*green.Node, error) {
	var tree *green.Node
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(snapKey(doc, revision))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tree, err = green.Unmarshal(val)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get %s@%d: %w", doc, revision, err)
	}
	return tree, nil
}

// Latest returns the highest recorded revision of doc and its tree.
//
// Outputs:
//
//	uint64 - The revision.
//	*green.Node - Its tree.
//	error - ErrSnapshotNotFound when doc has no snapshots.
func (s *SnapshotStore) Latest(ctx context.Context, doc string) (uint64, *green.Node, error) {
	prefix := docPrefix(doc)
	var (
		rev  uint64
		tree *green.Node
	)
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(append([]byte{}, prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			r, ok := parseRevision(item.Key(), prefix)
			if !ok {
				continue
			}
			rev = r
			return item.Value(func(val []byte) error {
				var err error
				tree, err = green.Unmarshal(val)
				return err
			})
		}
		return ErrSnapshotNotFound
	})
	if err != nil {
		return 0, nil, fmt.Errorf("latest %s: %w", doc, err)
	}
	return rev, tree, nil
}

// Revisions lists the recorded revisions of doc in ascending order.
func (s *SnapshotStore) Revisions(ctx context.Context, doc string) ([]uint64, error) {
	prefix := docPrefix(doc)
	var revs []uint64
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if r, ok := parseRevision(it.Item().Key(), prefix); ok {
				revs = append(revs, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revisions %s: %w", doc, err)
	}
	return revs, nil
}
