// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sitter

import (
	"errors"
	"fmt"
)

// Sentinel errors for import failures.
//
// Syntax errors are not failures: they are carried in the tree as error
// regions and reported in Result.Diagnostics.
var (
	// ErrFileTooLarge is returned when the content exceeds the importer's
	// size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")

	// ErrInvalidContent is returned for content that is not UTF-8 or has no
	// package clause.
	ErrInvalidContent = errors.New("invalid content")

	// ErrImportCanceled wraps a context cancellation observed during import.
	ErrImportCanceled = errors.New("import canceled")
)

// ImportError provides detailed information about a failed import.
//
// Example:
//
//	res, err := imp.Import(ctx, "main.go", content)
//	if err != nil {
//	    var impErr *sitter.ImportError
//	    if errors.As(err, &impErr) {
//	        fmt.Printf("%s: %s\n", impErr.Path, impErr.Message)
//	    }
//	}
type ImportError struct {
	// Path is the file being imported.
	Path string

	// Message describes the failure.
	Message string

	// Cause is the sentinel or underlying error.
	Cause error
}

// Error formats the failure as "path: message".
func (e *ImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ImportError) Unwrap() error {
	return e.Cause
}

func importErr(path string, cause error, format string, args ...any) *ImportError {
	return &ImportError{Path: path, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Diagnostic locates one error region of an imported file.
type Diagnostic struct {
	// Line is 1-indexed.
	Line int

	// Column is 1-indexed, in bytes.
	Column int

	// Text is the source of the region, empty for a missing token.
	Text string

	// Missing is set when the parser inserted a token that is not in the
	// source.
	Missing bool
}

// String formats the diagnostic as "line:col: ...".
func (d Diagnostic) String() string {
	if d.Missing {
		return fmt.Sprintf("%d:%d: missing token", d.Line, d.Column)
	}
	return fmt.Sprintf("%d:%d: unparsable %q", d.Line, d.Column, d.Text)
}
