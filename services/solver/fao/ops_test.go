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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prep allocates a node's buffers and offset maps, test-side stand-in
// for the engine's allocation pass.
func prep(n Node) {
	n.AllocBuffers()
	n.InitOffsetMaps()
}

func TestShape_ElemCount(t *testing.T) {
	assert.Equal(t, 12, Shape{Rows: 3, Cols: 4}.ElemCount())
	assert.Equal(t, 5, Vec(5).ElemCount())
	assert.Equal(t, 1, Scalar().ElemCount())
	assert.Equal(t, "3x4", Shape{Rows: 3, Cols: 4}.String())
}

func TestVariable_ForwardAdjoint(t *testing.T) {
	v := NewVariable(Vec(3))
	prep(v)

	copy(v.InputBuffer(), []float64{1, -2, 0.5})
	v.ForwardEval()
	assert.Equal(t, []float64{1, -2, 0.5}, v.OutputBuffer())

	copy(v.OutputBuffer(), []float64{7, 8, 9})
	v.AdjointEval()
	assert.Equal(t, []float64{7, 8, 9}, v.InputBuffer())
}

func TestScalarMul_ForwardAdjoint(t *testing.T) {
	m := NewScalarMul(Vec(2), -2.5)
	prep(m)

	copy(m.InputBuffer(), []float64{4, -2})
	m.ForwardEval()
	assert.Equal(t, []float64{-10, 5}, m.OutputBuffer())

	copy(m.OutputBuffer(), []float64{2, 2})
	m.AdjointEval()
	assert.Equal(t, []float64{-5, -5}, m.InputBuffer())
}

func TestSum_Forward(t *testing.T) {
	s := NewSum(3, Vec(2))
	prep(s)
	require.Len(t, s.InputBuffer(), 6)
	require.Len(t, s.OutputBuffer(), 2)

	copy(s.InputBuffer(), []float64{1, 2, 10, 20, 100, 200})
	s.ForwardEval()
	assert.Equal(t, []float64{111, 222}, s.OutputBuffer())
}

func TestSum_AdjointReplicates(t *testing.T) {
	s := NewSum(2, Vec(2))
	prep(s)

	copy(s.OutputBuffer(), []float64{3, -1})
	s.AdjointEval()
	assert.Equal(t, []float64{3, -1, 3, -1}, s.InputBuffer())
}

func TestCopy_ForwardReplicates(t *testing.T) {
	c := NewCopy(Vec(2), 3)
	prep(c)
	require.Len(t, c.OutputBuffer(), 6)

	copy(c.InputBuffer(), []float64{5, -5})
	c.ForwardEval()
	assert.Equal(t, []float64{5, -5, 5, -5, 5, -5}, c.OutputBuffer())
}

func TestCopy_AdjointSums(t *testing.T) {
	c := NewCopy(Vec(2), 2)
	prep(c)

	copy(c.OutputBuffer(), []float64{1, 2, 10, 20})
	c.AdjointEval()
	assert.Equal(t, []float64{11, 22}, c.InputBuffer())
}

func TestDenseMatMul_Forward(t *testing.T) {
	// A = [1 2; 3 4; 5 6], 3x2.
	d := NewDenseMatMul([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	prep(d)
	require.Len(t, d.InputBuffer(), 2)
	require.Len(t, d.OutputBuffer(), 3)

	copy(d.InputBuffer(), []float64{1, -1})
	d.ForwardEval()
	assert.Equal(t, []float64{-1, -1, -1}, d.OutputBuffer())
}

func TestDenseMatMul_AdjointInnerProduct(t *testing.T) {
	// ⟨A·x, y⟩ must equal ⟨x, Aᵗ·y⟩.
	a := []float64{2, -1, 0, 4, 1, 1, 3, -2}
	d := NewDenseMatMul(a, 4, 2)
	prep(d)

	x := []float64{1.5, -2}
	y := []float64{1, 2, 3, 4}

	copy(d.InputBuffer(), x)
	d.ForwardEval()
	lhs := 0.0
	for i, v := range d.OutputBuffer() {
		lhs += v * y[i]
	}

	copy(d.OutputBuffer(), y)
	d.AdjointEval()
	rhs := 0.0
	for j, v := range d.InputBuffer() {
		rhs += v * x[j]
	}

	assert.InDelta(t, lhs, rhs, 1e-12)
}

func TestBaseFAO_BufferSizing(t *testing.T) {
	b := &BaseFAO{
		InShapes:  []Shape{Vec(3), Vec(5)},
		OutShapes: []Shape{{Rows: 2, Cols: 2}},
	}
	b.AllocBuffers()
	assert.Len(t, b.InputBuffer(), 8)
	assert.Len(t, b.OutputBuffer(), 4)

	b.FreeBuffers()
	assert.Nil(t, b.InputBuffer())
	assert.Nil(t, b.OutputBuffer())
}

func TestBaseFAO_OffsetMaps(t *testing.T) {
	// Three inbound edges over shapes of 2, 3, and 4 elements: offsets
	// are contiguous and follow edge-list order, not edge-id order.
	b := &BaseFAO{
		InEdges:  []int{9, 4, 7},
		InShapes: []Shape{Vec(2), Vec(3), Vec(4)},
	}
	b.AllocBuffers()
	b.InitOffsetMaps()

	assert.Equal(t, 0, b.InputOffset(9))
	assert.Equal(t, 2, b.InputOffset(4))
	assert.Equal(t, 5, b.InputOffset(7))
}

func TestConnect(t *testing.T) {
	src := &BaseFAO{OutShapes: []Shape{Vec(2)}}
	dst := &BaseFAO{InShapes: []Shape{Vec(2)}}

	Connect(3, src, dst)
	require.Equal(t, []int{3}, src.OutputEdges())
	require.Equal(t, []int{3}, dst.InputEdges())
}
