// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package faodag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the faodag package.
var (
	// ErrNilNode is returned when the start node, end node, or an edge
	// endpoint is nil.
	ErrNilNode = errors.New("node must not be nil")

	// ErrEdgeNotFound is returned when a node's edge list names an edge id
	// absent from the edge table.
	ErrEdgeNotFound = errors.New("edge not found in edge table")

	// ErrEdgeMismatch is returned when the edge table and a node's edge
	// list disagree about which side of an edge the node is on.
	ErrEdgeMismatch = errors.New("edge endpoint does not match node edge list")

	// ErrEndUnreachable is returned when the end node cannot be reached
	// from the start node through the edge table.
	ErrEndUnreachable = errors.New("end node unreachable from start node")

	// ErrSizeMismatch is returned when a boundary copy is given a flat
	// array whose length differs from the boundary buffer's.
	ErrSizeMismatch = errors.New("array length does not match buffer length")
)

// EdgeError wraps an error with the edge id that caused it.
type EdgeError struct {
	EdgeID int
	Err    error
}

// Error returns the error message.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %d: %v", e.EdgeID, e.Err)
}

// Unwrap returns the underlying error.
func (e *EdgeError) Unwrap() error {
	return e.Err
}

// NewEdgeError creates an EdgeError.
func NewEdgeError(edgeID int, err error) *EdgeError {
	return &EdgeError{
		EdgeID: edgeID,
		Err:    err,
	}
}
