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
	"errors"
	"testing"

	"github.com/AleutianAI/faoengine/services/solver/fao"
)

func TestForwardEval_SingleNodeIdentity(t *testing.T) {
	v := fao.NewVariable(fao.Vec(4))
	d, err := New(v, v, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Teardown()

	input := []float64{1, -2, 3.5, 0}
	if err := d.CopyInput(input, true); err != nil {
		t.Fatalf("CopyInput: %v", err)
	}
	d.ForwardEval(context.Background())

	output := make([]float64, 4)
	if err := d.CopyOutput(output, true); err != nil {
		t.Fatalf("CopyOutput: %v", err)
	}
	for i := range input {
		if output[i] != input[i] {
			t.Fatalf("identity output differs at %d: got %v, want %v", i, output[i], input[i])
		}
	}
}

func TestForwardEval_Chain(t *testing.T) {
	// start -> *2 -> *3: output must be 6x, the sequential application
	// of each kernel.
	d, _ := buildChain(t, 3, 2.0, 3.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, 2, -1}, true); err != nil {
		t.Fatalf("CopyInput: %v", err)
	}
	d.ForwardEval(context.Background())

	want := []float64{6, 12, -6}
	got := d.ForwardOutput()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain output at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAdjointEval_Chain(t *testing.T) {
	// The adjoint of (*3)∘(*2) is (*2)∘(*3): still 6y for diagonal maps.
	d, _ := buildChain(t, 2, 2.0, 3.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, -4}, false); err != nil {
		t.Fatalf("CopyInput adjoint: %v", err)
	}
	d.AdjointEval(context.Background())

	want := []float64{6, -24}
	got := make([]float64, 2)
	if err := d.CopyOutput(got, false); err != nil {
		t.Fatalf("CopyOutput adjoint: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("adjoint output at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestForwardEval_Diamond(t *testing.T) {
	// copy -> (*2, *3) -> sum computes (2+3)x.
	d, _ := buildDiamond(t, 3, 2.0, 3.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, 0, -2}, true); err != nil {
		t.Fatalf("CopyInput: %v", err)
	}
	d.ForwardEval(context.Background())

	want := []float64{5, 0, -10}
	got := d.ForwardOutput()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diamond output at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAdjointEval_Diamond(t *testing.T) {
	// The adjoint of x ↦ 5x is y ↦ 5y: Sumᵗ fans out, Copyᵗ sums.
	d, _ := buildDiamond(t, 2, 2.0, 3.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, -1}, false); err != nil {
		t.Fatalf("CopyInput adjoint: %v", err)
	}
	d.AdjointEval(context.Background())

	want := []float64{5, -5}
	got := d.AdjointOutput()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diamond adjoint at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBoundaryBuffers_RoleSwap(t *testing.T) {
	d, _ := buildChain(t, 3, 2.0)
	defer d.Teardown()

	fwdIn, adjOut := d.ForwardInput(), d.AdjointOutput()
	if &fwdIn[0] != &adjOut[0] || len(fwdIn) != len(adjOut) {
		t.Error("AdjointOutput must alias ForwardInput")
	}

	fwdOut, adjIn := d.ForwardOutput(), d.AdjointInput()
	if &fwdOut[0] != &adjIn[0] || len(fwdOut) != len(adjIn) {
		t.Error("AdjointInput must alias ForwardOutput")
	}
}

func TestForwardEval_RepeatedCallsIdentical(t *testing.T) {
	d, _ := buildDiamond(t, 4, 2.0, 3.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, 2, 3, 4}, true); err != nil {
		t.Fatalf("CopyInput: %v", err)
	}

	d.ForwardEval(context.Background())
	first := make([]float64, 4)
	if err := d.CopyOutput(first, true); err != nil {
		t.Fatalf("CopyOutput: %v", err)
	}
	firstBuf := d.ForwardOutput()

	for i := 0; i < 10; i++ {
		d.ForwardEval(context.Background())
	}

	again := make([]float64, 4)
	if err := d.CopyOutput(again, true); err != nil {
		t.Fatalf("CopyOutput: %v", err)
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("repeated eval differs at %d: %v vs %v", i, first[i], again[i])
		}
	}

	// Buffers are never reallocated between calls.
	if &firstBuf[0] != &d.ForwardOutput()[0] {
		t.Error("forward output buffer was reallocated during evaluation")
	}
}

func TestCopyInput_SizeMismatch(t *testing.T) {
	d, _ := buildChain(t, 3, 2.0)
	defer d.Teardown()

	if err := d.CopyInput([]float64{1, 2, 3}, true); err != nil {
		t.Fatalf("CopyInput with matching length: %v", err)
	}

	before := append([]float64(nil), d.ForwardInput()...)
	for _, bad := range [][]float64{nil, {1}, {1, 2}, {1, 2, 3, 4}} {
		if err := d.CopyInput(bad, true); !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("len %d: expected ErrSizeMismatch, got: %v", len(bad), err)
		}
	}
	for i, v := range d.ForwardInput() {
		if v != before[i] {
			t.Fatal("buffer modified by failed CopyInput")
		}
	}
}

func TestCopyOutput_SizeMismatch(t *testing.T) {
	d, _ := buildChain(t, 3, 2.0)
	defer d.Teardown()

	if err := d.CopyOutput(make([]float64, 2), true); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got: %v", err)
	}
	if err := d.CopyOutput(make([]float64, 2), false); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("adjoint: expected ErrSizeMismatch, got: %v", err)
	}
}

func TestEvalCounters(t *testing.T) {
	d, _ := buildChain(t, 2, 2.0)
	defer d.Teardown()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		d.ForwardEval(ctx)
		if d.ForwardEvals() != i {
			t.Fatalf("forward count after %d calls: %d", i, d.ForwardEvals())
		}
	}
	d.AdjointEval(ctx)
	if d.AdjointEvals() != 1 {
		t.Fatalf("adjoint count: %d, want 1", d.AdjointEvals())
	}

	fwd := d.TotalForwardTime()
	if fwd < 0 {
		t.Fatal("negative cumulative forward time")
	}
	d.ForwardEval(ctx)
	if d.TotalForwardTime() < fwd {
		t.Fatal("cumulative forward time decreased")
	}
}
