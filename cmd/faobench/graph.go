// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/faoengine/services/solver/fao"
	"github.com/AleutianAI/faoengine/services/solver/faodag"
)

// BuildBenchDAG assembles the synthetic graph the bench evaluates:
//
//	Variable → Copy ─┬→ ScalarMul → … → ScalarMul ─┬→ Sum
//	                 └→ ScalarMul → … → ScalarMul ─┘
//
// FanOut branches, ChainDepth ScalarMul stages each, every edge carrying
// a BlockSize vector.
func BuildBenchDAG(spec *BenchSpec, logger *slog.Logger) (*faodag.FAODAG, error) {
	shape := fao.Vec(spec.BlockSize)
	edges := make(map[int]faodag.Edge)
	nextEdge := 0

	connect := func(src, dst *fao.BaseFAO, srcNode, dstNode fao.Node) {
		fao.Connect(nextEdge, src, dst)
		edges[nextEdge] = faodag.Edge{Source: srcNode, Target: dstNode}
		nextEdge++
	}

	start := fao.NewVariable(shape)
	split := fao.NewCopy(shape, spec.FanOut)
	join := fao.NewSum(spec.FanOut, shape)

	connect(&start.BaseFAO, &split.BaseFAO, start, split)

	for branch := 0; branch < spec.FanOut; branch++ {
		var prev fao.Node = split
		prevBase := &split.BaseFAO
		for stage := 0; stage < spec.ChainDepth; stage++ {
			mul := fao.NewScalarMul(shape, spec.Scalar)
			connect(prevBase, &mul.BaseFAO, prev, mul)
			prev = mul
			prevBase = &mul.BaseFAO
		}
		connect(prevBase, &join.BaseFAO, prev, join)
	}

	return faodag.New(start, join, edges, logger)
}

// runEvalLoop seeds the forward input once, then alternates forward and
// adjoint passes until the iteration budget is spent or the context is
// canceled.
func runEvalLoop(ctx context.Context, engine *faodag.FAODAG, spec *BenchSpec, logger *slog.Logger) error {
	input := make([]float64, spec.BlockSize)
	for i := range input {
		input[i] = float64(i%7) - 3.0
	}
	if err := engine.CopyInput(input, true); err != nil {
		return err
	}

	for i := 0; i < spec.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("bench interrupted", slog.Int("iteration", i))
			return nil
		}
		engine.ForwardEval(ctx)
		engine.AdjointEval(ctx)
	}
	return nil
}
