// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sitter imports Go source into persistent trees using tree-sitter.
//
// The importer maps the modelled Go subset onto green node kinds. Constructs
// outside the subset become Verbatim nodes carrying their source text, and
// every region the grammar could not parse becomes an Error node. Malformed
// input is contained: only the smallest construct holding the error is
// replaced, and the rest of the file imports normally.
package sitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	ts "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/AleutianAI/facet/services/facet/green"
)

// File size constants for input validation.
const (
	// DefaultMaxFileSize is the largest file imported by default (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// Option configures an Importer.
type Option func(*Importer)

// WithMaxFileSize sets the largest accepted file in bytes. Non-positive
// values are ignored.
//
// Example:
//
//	imp := sitter.NewImporter(sitter.WithMaxFileSize(5 * 1024 * 1024))
func WithMaxFileSize(bytes int64) Option {
	return func(imp *Importer) {
		if bytes > 0 {
			imp.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(imp *Importer) {
		if logger != nil {
			imp.logger = logger
		}
	}
}

// Importer converts Go source into green trees.
//
// Thread Safety:
//
//	Importer instances are safe for concurrent use. Each Import call creates
//	its own tree-sitter parser.
type Importer struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewImporter creates an Importer with the given options.
func NewImporter(opts ...Option) *Importer {
	imp := &Importer{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// MaxFileSize returns the configured size limit in bytes.
func (imp *Importer) MaxFileSize() int64 {
	return imp.maxFileSize
}

// Result is one imported file.
type Result struct {
	// Path is the path given to Import.
	Path string

	// Tree is the green.KindFile root.
	Tree *green.Node

	// Hash is the hex SHA-256 of the imported content.
	Hash string

	// Diagnostics lists the error regions, in source order.
	Diagnostics []Diagnostic

	// Duration is the time spent importing.
	Duration time.Duration
}

// HasErrors reports whether the tree contains error regions.
func (r *Result) HasErrors() bool {
	return len(r.Diagnostics) > 0
}

// Import parses content and converts it into a green tree.
//
// Description:
//
//	The import is error tolerant: syntax errors are carried in the tree as
//	green.KindError nodes and listed in Result.Diagnostics. Only input that
//	cannot be a Go file at all fails.
//
// Inputs:
//
//	ctx - Checked before and after parsing. Tree-sitter parsing itself is
//	      interrupted through the context too.
//	path - Used for reporting only.
//	content - Go source. Must be valid UTF-8.
//
// Outputs:
//
//	*Result - The imported tree. Never nil on success.
//	error - An *ImportError wrapping ErrFileTooLarge, ErrInvalidContent or
//	        ErrImportCanceled.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (imp *Importer) Import(ctx context.Context, path string, content []byte) (*Result, error) {
	ctx, span := startImportSpan(ctx, path, len(content))
	defer span.End()

	start := time.Now()
	fail := func(err error) (*Result, error) {
		recordImportMetrics(ctx, time.Since(start), 0, 0, false)
		span.RecordError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(importErr(path, ErrImportCanceled, "before start: %v", err))
	}
	if int64(len(content)) > imp.maxFileSize {
		return fail(importErr(path, ErrFileTooLarge, "size %d exceeds limit %d", len(content), imp.maxFileSize))
	}
	if len(content) > WarnFileSize {
		imp.logger.Warn("importing large file",
			slog.String("file", path),
			slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		return fail(importErr(path, ErrInvalidContent, "content is not valid UTF-8"))
	}

	hash := sha256.Sum256(content)

	// New parser per call for thread safety.
	parser := ts.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if ctx.Err() != nil {
			return fail(importErr(path, ErrImportCanceled, "during parse: %v", ctx.Err()))
		}
		return fail(importErr(path, err, "tree-sitter parse failed"))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return fail(importErr(path, ErrInvalidContent, "empty syntax tree"))
	}

	c := &converter{src: content}
	file, err := c.file(root)
	if err != nil {
		return fail(importErr(path, ErrInvalidContent, "%v", err))
	}
	if err := ctx.Err(); err != nil {
		return fail(importErr(path, ErrImportCanceled, "after conversion: %v", err))
	}

	nodes := green.Count(file)
	res := &Result{
		Path:        path,
		Tree:        file,
		Hash:        hex.EncodeToString(hash[:]),
		Diagnostics: c.diags,
		Duration:    time.Since(start),
	}
	setImportSpanResult(span, nodes, len(c.diags))
	recordImportMetrics(ctx, res.Duration, nodes, len(c.diags), true)

	if res.HasErrors() {
		imp.logger.Debug("imported file with syntax errors",
			slog.String("file", path),
			slog.Int("error_regions", len(c.diags)),
			slog.String("first", c.diags[0].String()))
	}
	return res, nil
}

// ImportString is Import for a source string, mainly for tests and tools.
func (imp *Importer) ImportString(ctx context.Context, path, src string) (*green.Node, error) {
	res, err := imp.Import(ctx, path, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return res.Tree, nil
}
