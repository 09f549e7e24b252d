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
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BenchSpec describes the synthetic DAG the bench builds and how hard to
// drive it.
type BenchSpec struct {
	// BlockSize is the vector length carried on every edge.
	BlockSize int `yaml:"block_size" validate:"required,gt=0"`

	// ChainDepth is the number of ScalarMul stages on each branch.
	ChainDepth int `yaml:"chain_depth" validate:"required,gt=0"`

	// FanOut is the branch count between the Copy and Sum nodes.
	FanOut int `yaml:"fan_out" validate:"required,gt=1"`

	// Iterations is the number of forward+adjoint rounds to run.
	Iterations int `yaml:"iterations" validate:"required,gt=0"`

	// Scalar is the constant each ScalarMul stage applies.
	Scalar float64 `yaml:"scalar"`
}

// LoadBenchSpec reads and validates a bench spec YAML file.
func LoadBenchSpec(path string) (*BenchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}

	var spec BenchSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	if spec.Scalar == 0 {
		spec.Scalar = 1.0
	}

	if err := validator.New().Struct(&spec); err != nil {
		return nil, fmt.Errorf("invalid spec: %w", err)
	}
	return &spec, nil
}
