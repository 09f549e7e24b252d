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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/faoengine/services/solver/fao"
)

var (
	tracer = otel.Tracer("aleutian.faodag")
	meter  = otel.Meter("aleutian.faodag")
)

// Edge is one entry of the edge table: a directed connection from the
// Source node's output buffer to the Target node's input buffer. The
// edge carries no data itself; it only identifies which buffer segments
// the engine copies between.
type Edge struct {
	Source fao.Node
	Target fao.Node
}

// FAODAG evaluates an FAO DAG and its adjoint.
//
// Description:
//
//	FAODAG holds the designated start node (sole global input), end node
//	(sole global output), and the edge table. Construction allocates
//	every node's buffers and offset maps; Teardown releases them. In
//	between, ForwardEval and AdjointEval may be called unboundedly many
//	times without allocating.
//
// Thread Safety:
//
//	NOT safe for concurrent use. The engine is driven by a single solver
//	goroutine; readiness state and node buffers are unguarded by design.
type FAODAG struct {
	start fao.Node
	end   fao.Node
	edges map[int]Edge

	id        string
	nodeCount int
	logger    *slog.Logger

	// Traversal scratch state, reused across calls.
	arrivals map[fao.Node]int
	queue    []fao.Node

	// Timing info, reported at Teardown.
	forwardEvals int
	adjointEvals int
	totalForward time.Duration
	totalAdjoint time.Duration

	// Metrics (initialized lazily).
	metricsOnce sync.Once
	evalLatency metric.Float64Histogram
	evalsTotal  metric.Int64Counter
}

// New constructs the engine over an externally-built DAG.
//
// Description:
//
//	Validates that the edge table and the nodes' edge lists agree, then
//	traverses the graph once, allocating each node's input and output
//	buffers and building its offset maps. Buffers are never resized or
//	reallocated after New returns.
//
// Inputs:
//
//	start - The sole global-input node. Must not be nil.
//	end - The sole global-output node. Must not be nil.
//	edges - Edge table mapping edge id to its (source, target) pair. May
//	        be nil for a single-node graph.
//	logger - Logger for engine logs. If nil, uses slog.Default().
//
// Outputs:
//
//	*FAODAG - The constructed engine.
//	error - Non-nil if validation fails.
func New(start, end fao.Node, edges map[int]Edge, logger *slog.Logger) (*FAODAG, error) {
	if start == nil || end == nil {
		return nil, ErrNilNode
	}
	if edges == nil {
		edges = map[int]Edge{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &FAODAG{
		start:    start,
		end:      end,
		edges:    edges,
		id:       uuid.NewString()[:12],
		logger:   logger,
		arrivals: make(map[fao.Node]int),
	}

	if err := d.validate(); err != nil {
		return nil, err
	}

	d.traverseGraph(func(n fao.Node) {
		n.AllocBuffers()
		n.InitOffsetMaps()
		d.nodeCount++
	}, true)

	d.logger.Debug("fao dag constructed",
		slog.String("dag_id", d.id),
		slog.Int("nodes", d.nodeCount),
		slog.Int("edges", len(d.edges)),
	)

	return d, nil
}

// Teardown reports evaluation statistics and releases every node's
// buffers. The engine must not be used afterwards.
func (d *FAODAG) Teardown() {
	forwardStats := []any{
		slog.String("dag_id", d.id),
		slog.Int("evals", d.forwardEvals),
	}
	if d.forwardEvals > 0 {
		forwardStats = append(forwardStats,
			slog.Duration("avg", d.totalForward/time.Duration(d.forwardEvals)))
	}
	d.logger.Info("forward eval stats", forwardStats...)

	adjointStats := []any{
		slog.String("dag_id", d.id),
		slog.Int("evals", d.adjointEvals),
	}
	if d.adjointEvals > 0 {
		adjointStats = append(adjointStats,
			slog.Duration("avg", d.totalAdjoint/time.Duration(d.adjointEvals)))
	}
	d.logger.Info("adjoint eval stats", adjointStats...)

	d.traverseGraph(func(n fao.Node) {
		n.FreeBuffers()
	}, true)
}

// NodeCount returns the number of nodes reachable from the start node.
func (d *FAODAG) NodeCount() int { return d.nodeCount }

// ForwardEvals returns the number of completed forward evaluations.
func (d *FAODAG) ForwardEvals() int { return d.forwardEvals }

// AdjointEvals returns the number of completed adjoint evaluations.
func (d *FAODAG) AdjointEvals() int { return d.adjointEvals }

// TotalForwardTime returns cumulative forward evaluation wall time.
func (d *FAODAG) TotalForwardTime() time.Duration { return d.totalForward }

// TotalAdjointTime returns cumulative adjoint evaluation wall time.
func (d *FAODAG) TotalAdjointTime() time.Duration { return d.totalAdjoint }

// traverseGraph applies visit to every reachable node exactly once, in a
// readiness-driven topological order.
//
// Description:
//
//	Seeds the ready queue with the start node (forward) or end node
//	(reverse). Each dequeued node is visited, then every edge in its
//	direction-appropriate edge list bumps the far-end node's arrival
//	counter; a node is enqueued the moment its counter reaches the number
//	of edges it expects from that direction. Ties among simultaneously
//	ready nodes break FIFO by enqueue time; kernels must be independent
//	given their inputs, so no stronger ordering is needed.
//
//	The arrival map is cleared before returning, and the queue's backing
//	storage is retained, so repeated traversals do not allocate.
func (d *FAODAG) traverseGraph(visit func(fao.Node), forward bool) {
	queue := d.queue[:0]
	if forward {
		queue = append(queue, d.start)
	} else {
		queue = append(queue, d.end)
	}

	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		visit(curr)

		var childEdges []int
		if forward {
			childEdges = curr.OutputEdges()
		} else {
			childEdges = curr.InputEdges()
		}

		for _, id := range childEdges {
			edge := d.edges[id]
			var next fao.Node
			if forward {
				next = edge.Target
			} else {
				next = edge.Source
			}

			d.arrivals[next]++

			var expected int
			if forward {
				expected = len(next.InputEdges())
			} else {
				expected = len(next.OutputEdges())
			}
			if d.arrivals[next] == expected {
				queue = append(queue, next)
			}
		}
	}

	d.queue = queue[:0]
	clear(d.arrivals)
}

// validate checks that the edge table and the nodes' declared edge lists
// tell the same story. Acyclicity is trusted: the canonicalization layer
// constructs the graph and cannot produce cycles.
func (d *FAODAG) validate() error {
	for id, edge := range d.edges {
		if edge.Source == nil || edge.Target == nil {
			return NewEdgeError(id, ErrNilNode)
		}
		if !containsEdge(edge.Source.OutputEdges(), id) {
			return NewEdgeError(id, ErrEdgeMismatch)
		}
		if !containsEdge(edge.Target.InputEdges(), id) {
			return NewEdgeError(id, ErrEdgeMismatch)
		}
	}

	// Walk every node reachable from the start and cross-check its edge
	// lists against the table. An id the table doesn't know would
	// otherwise starve or double-fire a node mid-pass.
	seen := make(map[fao.Node]bool)
	stack := []fao.Node{d.start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true

		for _, id := range n.InputEdges() {
			edge, ok := d.edges[id]
			if !ok {
				return NewEdgeError(id, ErrEdgeNotFound)
			}
			if edge.Target != n {
				return NewEdgeError(id, ErrEdgeMismatch)
			}
		}
		for _, id := range n.OutputEdges() {
			edge, ok := d.edges[id]
			if !ok {
				return NewEdgeError(id, ErrEdgeNotFound)
			}
			if edge.Source != n {
				return NewEdgeError(id, ErrEdgeMismatch)
			}
			stack = append(stack, edge.Target)
		}
	}

	if !seen[d.end] {
		return ErrEndUnreachable
	}
	return nil
}

func containsEdge(edges []int, id int) bool {
	for _, e := range edges {
		if e == id {
			return true
		}
	}
	return false
}
