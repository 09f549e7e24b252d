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
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/faoengine/services/solver/fao"
)

// initMetrics lazily initializes the evaluation instruments.
// Logs a warning if registration fails but continues; the plain counters
// remain the source of truth for Teardown reporting.
func (d *FAODAG) initMetrics() {
	d.metricsOnce.Do(func() {
		var err error
		d.evalLatency, err = meter.Float64Histogram("faodag_eval_duration_seconds",
			metric.WithDescription("Wall time per DAG evaluation pass"),
			metric.WithUnit("s"),
		)
		if err != nil {
			d.logger.Warn("failed to register eval latency histogram",
				slog.String("error", err.Error()),
			)
		}

		d.evalsTotal, err = meter.Int64Counter("faodag_evals_total",
			metric.WithDescription("Number of DAG evaluation passes"),
		)
		if err != nil {
			d.logger.Warn("failed to register eval counter",
				slog.String("error", err.Error()),
			)
		}
	})
}

// ForwardEval applies the decomposed operator A to the global input,
// leaving the result in the end node's output buffer.
//
// Description:
//
//	Runs one forward traversal: each node's forward kernel fires once,
//	then the node's results are copied along its output edges into the
//	target nodes' input buffers at the offsets reserved for those edges.
//	Cannot fail: topology was validated at construction and buffers are
//	fixed. The context is used for tracing only; the pass always runs to
//	completion synchronously.
func (d *FAODAG) ForwardEval(ctx context.Context) {
	d.initMetrics()

	ctx, span := tracer.Start(ctx, "faodag.ForwardEval",
		trace.WithAttributes(attribute.String("faodag.id", d.id)),
	)
	defer span.End()

	start := time.Now()
	d.traverseGraph(d.forwardVisit, true)
	elapsed := time.Since(start)

	d.forwardEvals++
	d.totalForward += elapsed
	d.recordEval(ctx, "forward", elapsed)
}

// AdjointEval applies Aᵗ to the global adjoint input (the end node's
// output buffer), leaving the result in the start node's input buffer.
func (d *FAODAG) AdjointEval(ctx context.Context) {
	d.initMetrics()

	ctx, span := tracer.Start(ctx, "faodag.AdjointEval",
		trace.WithAttributes(attribute.String("faodag.id", d.id)),
	)
	defer span.End()

	start := time.Now()
	d.traverseGraph(d.adjointVisit, false)
	elapsed := time.Since(start)

	d.adjointEvals++
	d.totalAdjoint += elapsed
	d.recordEval(ctx, "adjoint", elapsed)
}

// forwardVisit runs a node's forward kernel, then copies its results to
// its successors.
func (d *FAODAG) forwardVisit(node fao.Node) {
	node.ForwardEval()

	outBuf := node.OutputBuffer()
	for i, id := range node.OutputEdges() {
		target := d.edges[id].Target
		n := node.ElemCount(node.OutputShapes()[i])
		src := outBuf[node.OutputOffset(id):]
		dst := target.InputBuffer()[target.InputOffset(id):]
		copy(dst[:n], src[:n])
	}
}

// adjointVisit runs a node's adjoint kernel, then copies its results to
// its predecessors. Input and output roles swap in the adjoint sense:
// the node's input buffer feeds each source node's output buffer.
func (d *FAODAG) adjointVisit(node fao.Node) {
	node.AdjointEval()

	inBuf := node.InputBuffer()
	for i, id := range node.InputEdges() {
		source := d.edges[id].Source
		n := node.ElemCount(node.InputShapes()[i])
		src := inBuf[node.InputOffset(id):]
		dst := source.OutputBuffer()[source.OutputOffset(id):]
		copy(dst[:n], src[:n])
	}
}

func (d *FAODAG) recordEval(ctx context.Context, direction string, elapsed time.Duration) {
	if d.evalLatency != nil {
		d.evalLatency.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("direction", direction)),
		)
	}
	if d.evalsTotal != nil {
		d.evalsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("direction", direction)),
		)
	}

	d.logger.Debug("eval complete",
		slog.String("dag_id", d.id),
		slog.String("direction", direction),
		slog.Duration("duration", elapsed),
	)
}

// ForwardInput returns the global forward input: the start node's input
// buffer. The caller may read and write it in place.
func (d *FAODAG) ForwardInput() []float64 {
	return d.start.InputBuffer()
}

// ForwardOutput returns the global forward output: the end node's output
// buffer.
func (d *FAODAG) ForwardOutput() []float64 {
	return d.end.OutputBuffer()
}

// AdjointInput returns the global adjoint input. The operator's output
// space is the adjoint's input space, so this is the same buffer as
// ForwardOutput.
func (d *FAODAG) AdjointInput() []float64 {
	return d.ForwardOutput()
}

// AdjointOutput returns the global adjoint output: the same buffer as
// ForwardInput.
func (d *FAODAG) AdjointOutput() []float64 {
	return d.ForwardInput()
}

// CopyInput marshals a flat array into the selected evaluation input
// buffer: the forward input if forward is true, the adjoint input
// otherwise.
//
// Outputs:
//
//	error - ErrSizeMismatch if len(vals) differs from the buffer length.
//	        The buffer is untouched on error; no truncation or padding.
func (d *FAODAG) CopyInput(vals []float64, forward bool) error {
	buf := d.ForwardInput()
	if !forward {
		buf = d.AdjointInput()
	}
	if len(vals) != len(buf) {
		return fmt.Errorf("copy input: %w: got %d, want %d",
			ErrSizeMismatch, len(vals), len(buf))
	}
	copy(buf, vals)
	return nil
}

// CopyOutput marshals the selected evaluation output buffer into a flat
// array: the forward output if forward is true, the adjoint output
// otherwise.
//
// Outputs:
//
//	error - ErrSizeMismatch if len(dst) differs from the buffer length.
func (d *FAODAG) CopyOutput(dst []float64, forward bool) error {
	buf := d.ForwardOutput()
	if !forward {
		buf = d.AdjointOutput()
	}
	if len(dst) != len(buf) {
		return fmt.Errorf("copy output: %w: got %d, want %d",
			ErrSizeMismatch, len(dst), len(buf))
	}
	copy(dst, buf)
	return nil
}
