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

// Variable is the identity leaf operator. It is the usual start node of a
// DAG: its input slot is fed externally rather than by an edge.
type Variable struct {
	BaseFAO
}

// NewVariable creates an identity node carrying the given shape.
func NewVariable(s Shape) *Variable {
	return &Variable{
		BaseFAO: BaseFAO{
			InShapes:  []Shape{s},
			OutShapes: []Shape{s},
		},
	}
}

// ForwardEval copies the input buffer to the output buffer.
func (v *Variable) ForwardEval() {
	copy(v.outBuf, v.inBuf)
}

// AdjointEval copies the output buffer to the input buffer. The identity
// is self-adjoint.
func (v *Variable) AdjointEval() {
	copy(v.inBuf, v.outBuf)
}

// ScalarMul multiplies its single slot elementwise by a constant.
// Scaling by a real constant is self-adjoint.
type ScalarMul struct {
	BaseFAO
	Scalar float64
}

// NewScalarMul creates a scaling node for the given shape and constant.
func NewScalarMul(s Shape, c float64) *ScalarMul {
	return &ScalarMul{
		BaseFAO: BaseFAO{
			InShapes:  []Shape{s},
			OutShapes: []Shape{s},
		},
		Scalar: c,
	}
}

// ForwardEval writes c * input into the output buffer.
func (m *ScalarMul) ForwardEval() {
	for i, v := range m.inBuf {
		m.outBuf[i] = m.Scalar * v
	}
}

// AdjointEval writes c * output into the input buffer.
func (m *ScalarMul) AdjointEval() {
	for i, v := range m.outBuf {
		m.inBuf[i] = m.Scalar * v
	}
}

// Sum adds k equal-shaped input slots into one output slot. Its adjoint
// is replication (Sumᵗ = Copy).
type Sum struct {
	BaseFAO
}

// NewSum creates a k-ary summation node over the given slot shape.
func NewSum(k int, s Shape) *Sum {
	in := make([]Shape, k)
	for i := range in {
		in[i] = s
	}
	return &Sum{
		BaseFAO: BaseFAO{
			InShapes:  in,
			OutShapes: []Shape{s},
		},
	}
}

// ForwardEval sums the input segments into the output buffer.
func (s *Sum) ForwardEval() {
	n := len(s.outBuf)
	for i := range s.outBuf {
		s.outBuf[i] = 0
	}
	for seg := 0; seg < len(s.InShapes); seg++ {
		base := seg * n
		for i := 0; i < n; i++ {
			s.outBuf[i] += s.inBuf[base+i]
		}
	}
}

// AdjointEval replicates the output segment into every input segment.
func (s *Sum) AdjointEval() {
	n := len(s.outBuf)
	for seg := 0; seg < len(s.InShapes); seg++ {
		copy(s.inBuf[seg*n:(seg+1)*n], s.outBuf)
	}
}

// Copy replicates its single input slot into k output slots. Its adjoint
// is summation (Copyᵗ = Sum).
type Copy struct {
	BaseFAO
}

// NewCopy creates a fan-out node replicating the given shape k times.
func NewCopy(s Shape, k int) *Copy {
	out := make([]Shape, k)
	for i := range out {
		out[i] = s
	}
	return &Copy{
		BaseFAO: BaseFAO{
			InShapes:  []Shape{s},
			OutShapes: out,
		},
	}
}

// ForwardEval replicates the input into every output segment.
func (c *Copy) ForwardEval() {
	n := len(c.inBuf)
	for seg := 0; seg < len(c.OutShapes); seg++ {
		copy(c.outBuf[seg*n:(seg+1)*n], c.inBuf)
	}
}

// AdjointEval sums the output segments into the input buffer.
func (c *Copy) AdjointEval() {
	n := len(c.inBuf)
	for i := range c.inBuf {
		c.inBuf[i] = 0
	}
	for seg := 0; seg < len(c.OutShapes); seg++ {
		base := seg * n
		for i := 0; i < n; i++ {
			c.inBuf[i] += c.outBuf[base+i]
		}
	}
}

// DenseMatMul applies a dense m×n matrix: forward y = A·x, adjoint
// x = Aᵗ·y. A is row-major and owned by the node, not by the engine.
type DenseMatMul struct {
	BaseFAO
	A    []float64
	M, N int
}

// NewDenseMatMul creates a dense matrix-multiply node.
//
// Inputs:
//
//	a - Row-major matrix data, length m*n.
//	m - Row count (output dimension).
//	n - Column count (input dimension).
func NewDenseMatMul(a []float64, m, n int) *DenseMatMul {
	return &DenseMatMul{
		BaseFAO: BaseFAO{
			InShapes:  []Shape{Vec(n)},
			OutShapes: []Shape{Vec(m)},
		},
		A: a,
		M: m,
		N: n,
	}
}

// ForwardEval computes y = A·x.
func (d *DenseMatMul) ForwardEval() {
	for i := 0; i < d.M; i++ {
		acc := 0.0
		row := d.A[i*d.N : (i+1)*d.N]
		for j, a := range row {
			acc += a * d.inBuf[j]
		}
		d.outBuf[i] = acc
	}
}

// AdjointEval computes x = Aᵗ·y.
func (d *DenseMatMul) AdjointEval() {
	for j := 0; j < d.N; j++ {
		d.inBuf[j] = 0
	}
	for i := 0; i < d.M; i++ {
		y := d.outBuf[i]
		row := d.A[i*d.N : (i+1)*d.N]
		for j, a := range row {
			d.inBuf[j] += a * y
		}
	}
}
