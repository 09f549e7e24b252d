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

// Node is the capability contract the faodag engine consumes.
//
// Description:
//
//	A Node exposes buffer lifecycle (allocate, free, offset maps), its
//	topology as seen from its own side (ordered edge-id lists and per-slot
//	shapes), read access to its buffers, and its two kernels. The engine
//	holds non-owning references to Nodes; it owns the buffer *contents*
//	for the lifetime of the engine, while the caller owns the topology.
//
// Thread Safety:
//
//	Nodes are driven by a single-threaded engine. Implementations need no
//	internal locking.
type Node interface {
	// AllocBuffers allocates the input and output buffers, sized from the
	// declared slot shapes. Called exactly once, at engine construction.
	AllocBuffers()

	// FreeBuffers releases both buffers. Called exactly once, at teardown.
	FreeBuffers()

	// InitOffsetMaps assigns each bound edge id a contiguous element
	// offset inside the corresponding buffer, in edge-list order. Called
	// exactly once, after AllocBuffers.
	InitOffsetMaps()

	// ForwardEval applies the node's forward kernel: read the input
	// buffer, write the output buffer.
	ForwardEval()

	// AdjointEval applies the adjoint kernel: read the output buffer,
	// write the input buffer.
	AdjointEval()

	// InputEdges returns the ordered inbound edge ids. Parallel to
	// InputShapes for interior nodes; the start node's input slots carry
	// no edges.
	InputEdges() []int

	// OutputEdges returns the ordered outbound edge ids.
	OutputEdges() []int

	// InputShapes returns the declared shape of each input slot.
	InputShapes() []Shape

	// OutputShapes returns the declared shape of each output slot.
	OutputShapes() []Shape

	// InputBuffer returns the node's input buffer. Nil before
	// AllocBuffers and after FreeBuffers.
	InputBuffer() []float64

	// OutputBuffer returns the node's output buffer.
	OutputBuffer() []float64

	// InputOffset returns the element offset of the given inbound edge's
	// slot within the input buffer.
	InputOffset(edge int) int

	// OutputOffset returns the element offset of the given outbound
	// edge's slot within the output buffer.
	OutputOffset(edge int) int

	// ElemCount converts a declared slot shape to its element count.
	ElemCount(s Shape) int
}

// BaseFAO implements everything in Node except the two kernels.
//
// Description:
//
//	Embed BaseFAO in a concrete operator and implement ForwardEval and
//	AdjointEval. Topology fields are filled by the canonicalization layer
//	(or by Connect in tests): InShapes/OutShapes declare the slots,
//	InEdges/OutEdges bind slots to edges positionally.
//
// Example:
//
//	type Negate struct {
//	    fao.BaseFAO
//	}
//
//	func (n *Negate) ForwardEval() {
//	    for i, v := range n.InputBuffer() {
//	        n.OutputBuffer()[i] = -v
//	    }
//	}
type BaseFAO struct {
	InEdges   []int
	OutEdges  []int
	InShapes  []Shape
	OutShapes []Shape

	inBuf      []float64
	outBuf     []float64
	inOffsets  map[int]int
	outOffsets map[int]int
}

// AllocBuffers sizes the input buffer to the sum of the input slot
// element counts and the output buffer likewise.
func (b *BaseFAO) AllocBuffers() {
	b.inBuf = make([]float64, totalElems(b.InShapes))
	b.outBuf = make([]float64, totalElems(b.OutShapes))
}

// FreeBuffers drops both buffers.
func (b *BaseFAO) FreeBuffers() {
	b.inBuf = nil
	b.outBuf = nil
}

// InitOffsetMaps walks the edge lists in order, assigning each edge the
// running element offset of its slot. Slots without a bound edge (the
// global boundary slots) occupy buffer space but get no map entry.
func (b *BaseFAO) InitOffsetMaps() {
	b.inOffsets = make(map[int]int, len(b.InEdges))
	offset := 0
	for i, edge := range b.InEdges {
		b.inOffsets[edge] = offset
		offset += b.InShapes[i].ElemCount()
	}

	b.outOffsets = make(map[int]int, len(b.OutEdges))
	offset = 0
	for i, edge := range b.OutEdges {
		b.outOffsets[edge] = offset
		offset += b.OutShapes[i].ElemCount()
	}
}

// InputEdges returns the ordered inbound edge ids.
func (b *BaseFAO) InputEdges() []int { return b.InEdges }

// OutputEdges returns the ordered outbound edge ids.
func (b *BaseFAO) OutputEdges() []int { return b.OutEdges }

// InputShapes returns the declared input slot shapes.
func (b *BaseFAO) InputShapes() []Shape { return b.InShapes }

// OutputShapes returns the declared output slot shapes.
func (b *BaseFAO) OutputShapes() []Shape { return b.OutShapes }

// InputBuffer returns the input buffer.
func (b *BaseFAO) InputBuffer() []float64 { return b.inBuf }

// OutputBuffer returns the output buffer.
func (b *BaseFAO) OutputBuffer() []float64 { return b.outBuf }

// InputOffset returns the input-buffer offset for the given edge id.
func (b *BaseFAO) InputOffset(edge int) int { return b.inOffsets[edge] }

// OutputOffset returns the output-buffer offset for the given edge id.
func (b *BaseFAO) OutputOffset(edge int) int { return b.outOffsets[edge] }

// ElemCount converts a slot shape to its element count.
func (b *BaseFAO) ElemCount(s Shape) int { return s.ElemCount() }

// Connect binds edge id to the pair (src, dst): the id is appended to
// src's outbound list and dst's inbound list. Slots are bound
// positionally, so connect a node's edges in slot-declaration order.
func Connect(id int, src, dst *BaseFAO) {
	src.OutEdges = append(src.OutEdges, id)
	dst.InEdges = append(dst.InEdges, id)
}

func totalElems(shapes []Shape) int {
	n := 0
	for _, s := range shapes {
		n += s.ElemCount()
	}
	return n
}
