// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package document ties one Go file's view to its persistent trees.
//
// A Document owns the root view node of a file, the last persistent tree it
// produced or adopted, and a revision counter that advances every time that
// tree changes. It is the root-level surface of the facade: Tree exports the
// whole view, Regenerate adopts a tree produced elsewhere, and Counterpart
// and Relocate find a node's latest persistent and view counterparts through
// its identity tag.
//
// # Thread Safety
//
// Document methods are safe for concurrent use, but the view returned by Root
// is not: edits to the view must not run concurrently with each other or with
// Tree.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/facet/services/facet/goview"
	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/sitter"
	"github.com/AleutianAI/facet/services/facet/view"
)

var tracer = otel.Tracer("facet.document")

// ErrNoOracle is returned by Resolve when no oracle is bound to the current
// tree.
var ErrNoOracle = errors.New("no semantic oracle bound")

// Symbol is what an Oracle resolves a node occurrence to. The facade does not
// interpret it.
type Symbol struct {
	Name   string
	Kind   string
	Detail string
}

// Oracle resolves node occurrences of one persistent tree.
//
// An Oracle is bound to the tree it was created for. The document drops it
// whenever the tree changes and never caches its answers.
type Oracle interface {
	Resolve(ctx context.Context, tree, node *green.Node) (Symbol, error)
}

// OracleFactory creates the oracle for a tree.
type OracleFactory func(tree *green.Node) Oracle

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOracleFactory binds a fresh oracle lazily to every tree the document
// adopts.
func WithOracleFactory(f OracleFactory) Option {
	return func(d *Document) {
		d.factory = f
	}
}

// Document is one Go file under edit.
type Document struct {
	mu       sync.Mutex
	path     string
	root     *goview.File
	tree     *green.Node
	prev     *green.Node
	revision uint64
	oracle   Oracle
	factory  OracleFactory
	logger   *slog.Logger
}

// Open imports content and returns a document over the resulting tree.
//
// Outputs:
//
//	*Document - The document at revision 0.
//	error - The importer's *sitter.ImportError.
func Open(ctx context.Context, imp *sitter.Importer, path string, content []byte, opts ...Option) (*Document, error) {
	res, err := imp.Import(ctx, path, content)
	if err != nil {
		return nil, err
	}
	return FromTree(path, res.Tree, opts...)
}

// FromTree returns a document over an existing green.KindFile tree.
func FromTree(path string, tree *green.Node, opts ...Option) (*Document, error) {
	root, err := goview.WrapFile(tree)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	d := &Document{path: path, root: root, tree: tree, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(slog.String("document", path))
	return d, nil
}

// Path returns the document's path.
func (d *Document) Path() string { return d.path }

// Root returns the root view node.
func (d *Document) Root() *goview.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root
}

// Current returns the latest persistent tree without exporting.
func (d *Document) Current() *green.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree
}

// Revision returns the number of times the tree has changed.
func (d *Document) Revision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// Tree exports the view and returns the current persistent tree.
//
// Description:
//
//	Runs a full export. When anything was rebuilt the new tree becomes
//	current, the revision advances and the oracle binding is dropped.
//	Otherwise the current tree is returned unchanged.
//
// Outputs:
//
//	*green.Node - The current tree.
//	error - The first export failure, such as view.ErrMissingContext. The
//	        current tree and revision are unchanged.
func (d *Document) Tree(ctx context.Context) (*green.Node, error) {
	_, span := tracer.Start(ctx, "Document.Tree",
		trace.WithAttributes(attribute.String("facet.document", d.path)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	g, changed, err := view.ExportRoot(d.root)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("export %s: %w", d.path, err)
	}
	if changed || g != d.tree {
		d.adopt(g)
		d.logger.Debug("exported new revision",
			slog.Uint64("revision", d.revision),
			slog.Int("edits", len(green.Diff(d.prev, d.tree))))
	}
	span.SetAttributes(
		attribute.Bool("facet.changed", changed),
		attribute.Int64("facet.revision", int64(d.revision)),
	)
	return d.tree, nil
}

// adopt makes g the current tree. The caller holds mu.
func (d *Document) adopt(g *green.Node) {
	d.prev = d.tree
	d.tree = g
	d.revision++
	d.oracle = nil
}

// Regenerate adopts a tree produced outside the facade.
//
// Description:
//
//	The document's view is rebuilt over tree. Nodes of the previous view
//	stay usable as handles: Counterpart and Relocate find their counterparts
//	in the new tree through the identity tags the tree preserved. The oracle
//	binding is dropped.
//
// Outputs:
//
//	error - view.ErrInvalidValue when tree is not a file.
func (d *Document) Regenerate(tree *green.Node) error {
	root, err := goview.WrapFile(tree)
	if err != nil {
		return fmt.Errorf("regenerate %s: %w", d.path, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = root
	d.adopt(tree)
	d.logger.Debug("adopted regenerated tree", slog.Uint64("revision", d.revision))
	return nil
}

// Edits returns the edits between the previous and the current tree.
func (d *Document) Edits() []green.Edit {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.prev == nil {
		return nil
	}
	return green.Diff(d.prev, d.tree)
}

// Counterpart locates n's persistent counterpart in the current tree. n
// must have been tagged before the tree was produced.
func (d *Document) Counterpart(n view.Node) view.LocateResult {
	return view.Counterpart(d.Current(), n)
}

// Relocate returns the node of the current view that n's counterpart
// backs.
//
// Outputs:
//
//	view.Node - The current view node, which is n itself when n belongs to
//	            the current view.
//	error - view.ErrNotFound or view.ErrAmbiguous.
func (d *Document) Relocate(n view.Node) (view.Node, error) {
	d.mu.Lock()
	root, tree := d.root, d.tree
	d.mu.Unlock()

	res := view.Counterpart(tree, n)
	if err := res.Err(); err != nil {
		return nil, err
	}
	// Parts of a compacted element are entered through their origin, which
	// is what the path holds.
	onPath := make(map[*green.Node]bool, len(res.Path))
	for _, p := range res.Path {
		onPath[p] = true
	}
	var found view.Node
	view.Walk(root, func(v view.Node) bool {
		if found != nil {
			return false
		}
		if v.Green() == res.Node {
			found = v
			return false
		}
		return onPath[v.Green()] || onPath[view.Origin(v)]
	})
	if found == nil {
		return nil, fmt.Errorf("%w: counterpart is not reachable from the view", view.ErrNotFound)
	}
	return found, nil
}

// Bind binds o to the current tree until the tree next changes.
func (d *Document) Bind(o Oracle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.oracle = o
}

// Resolve asks the oracle about n's counterpart in the current tree.
//
// Outputs:
//
//	Symbol - The oracle's answer.
//	error - ErrNoOracle, a locate error, or the oracle's error.
func (d *Document) Resolve(ctx context.Context, n view.Node) (Symbol, error) {
	d.mu.Lock()
	tree := d.tree
	if d.oracle == nil && d.factory != nil {
		d.oracle = d.factory(tree)
	}
	oracle := d.oracle
	d.mu.Unlock()

	if oracle == nil {
		return Symbol{}, ErrNoOracle
	}
	res := view.Counterpart(tree, n)
	if err := res.Err(); err != nil {
		return Symbol{}, fmt.Errorf("resolve: %w", err)
	}
	return oracle.Resolve(ctx, tree, res.Node)
}
