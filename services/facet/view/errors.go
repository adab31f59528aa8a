// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package view

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/facet/services/facet/green"
)

// Sentinel errors for view operations.
//
// All of them are local and synchronous: the failing call leaves the tree in
// the state it was in before the call.
var (
	// ErrAliasing is returned when a node that already has a parent is
	// assigned to another child slot. Detach it (remove it or replace it in its
	// current slot) or Clone it first.
	ErrAliasing = errors.New("node already has a parent")

	// ErrInvalidValue is returned when a property is assigned a value outside
	// its domain, such as an illegal flag combination or nil for a required
	// child.
	ErrInvalidValue = errors.New("invalid property value")

	// ErrMissingContext is returned when a node cannot be exported because its
	// persistent form depends on an ancestor it does not have.
	ErrMissingContext = errors.New("export requires an enclosing node")

	// ErrNotSupported is returned for collection operations the collection
	// does not implement, such as insertion before the end.
	ErrNotSupported = errors.New("operation not supported")

	// ErrIndexOutOfRange is returned by collection writes with a bad index.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotFound is returned when an identity tag has no match in a tree.
	ErrNotFound = errors.New("tagged node not found")

	// ErrAmbiguous is returned when an identity tag matches several nodes.
	ErrAmbiguous = errors.New("tagged node is ambiguous")
)

// MutationError describes a rejected property or collection write.
//
// Example:
//
//	if err := lit.SetKind(green.LitInt | green.LitString); err != nil {
//	    var mutErr *view.MutationError
//	    if errors.As(err, &mutErr) {
//	        fmt.Println(mutErr.Property) // "kind"
//	    }
//	}
type MutationError struct {
	// Kind is the kind of the node being mutated.
	Kind green.Kind

	// Property names the rejected property.
	Property string

	// Reason is a human-readable explanation.
	Reason string

	// Err is the sentinel describing the failure class.
	Err error
}

// Error formats the failure as "kind.property: reason: sentinel".
func (e *MutationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s.%s: %v", e.Kind, e.Property, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s: %v", e.Kind, e.Property, e.Reason, e.Err)
}

// Unwrap returns the sentinel.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// Invalid builds a MutationError wrapping ErrInvalidValue.
func Invalid(kind green.Kind, property, reason string) *MutationError {
	return &MutationError{Kind: kind, Property: property, Reason: reason, Err: ErrInvalidValue}
}
