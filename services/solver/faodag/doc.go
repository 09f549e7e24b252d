// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package faodag evaluates a DAG of atomic affine operator nodes
// representing a decomposed linear map A — and, by reversing the
// traversal, its adjoint Aᵗ — without ever materializing A as a matrix.
//
// One readiness-driven topological traversal serves four per-node
// operations: buffer allocation at construction, the forward and adjoint
// evaluation passes, and buffer release at teardown. The engine sits on
// the hot path of an outer iterative solver, so evaluation performs no
// heap allocation: buffers and offset maps are fixed at construction,
// and the traversal's scratch state is reused across calls.
//
// The engine is single-threaded by design. No evaluation call may be
// concurrent with another on the same FAODAG.
package faodag
