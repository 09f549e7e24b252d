// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fao

import "fmt"

// Shape is the declared dimension of one input or output slot.
//
// Vectors are n×1, scalars 1×1. Matrices are stored column-major inside
// the flat buffers, though nothing in the engine depends on the storage
// order — only on the element count.
type Shape struct {
	Rows int
	Cols int
}

// Vec returns an n×1 vector shape.
func Vec(n int) Shape {
	return Shape{Rows: n, Cols: 1}
}

// Scalar returns the 1×1 shape.
func Scalar() Shape {
	return Shape{Rows: 1, Cols: 1}
}

// ElemCount returns the number of scalar elements the shape occupies.
func (s Shape) ElemCount() int {
	return s.Rows * s.Cols
}

// String renders the shape as "rows x cols".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}
