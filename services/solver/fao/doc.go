// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fao defines the atomic affine operator (FAO) node contract
// consumed by the faodag engine, plus a small library of concrete
// operators.
//
// An FAO is one vertex of a decomposed linear map: it owns a contiguous
// input buffer and a contiguous output buffer, declares the shape carried
// on each of its input and output slots, and knows how to apply its own
// forward and adjoint kernels to those buffers. Everything else — when a
// node runs, and how partial results move between buffers — is the
// engine's business.
//
// Buffer layout convention: a node's input buffer is the concatenation of
// its input slots in declaration order, and likewise for outputs. Offset
// maps translate an edge id into the element offset of the slot bound to
// that edge.
package fao
