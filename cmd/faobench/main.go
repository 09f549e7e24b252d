// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command faobench drives the faodag engine in a tight loop, the way an
// iterative solver would, and reports per-pass timing.
//
// Usage:
//
//	go run ./cmd/faobench run --spec bench.yaml
//	go run ./cmd/faobench run --spec bench.yaml --metrics-addr :9090
//
// The bench spec is a small YAML file:
//
//	block_size: 1024
//	chain_depth: 4
//	fan_out: 8
//	iterations: 10000
//	scalar: 1.5
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/faoengine/services/solver/telemetry"
)

var (
	specPath    string
	metricsAddr string
	debug       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "faobench",
		Short: "Benchmark harness for the FAO DAG evaluation engine",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build a sample FAO DAG and run repeated forward/adjoint passes",
		RunE:  runBench,
	}
	runCmd.Flags().StringVar(&specPath, "spec", "", "Path to the bench spec YAML (required)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while the bench runs")
	runCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = runCmd.MarkFlagRequired("spec")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger configures slog: human-readable text on a terminal, JSON
// otherwise.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func runBench(cmd *cobra.Command, _ []string) error {
	logger := setupLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	spec, err := LoadBenchSpec(specPath)
	if err != nil {
		return fmt.Errorf("load bench spec: %w", err)
	}

	engine, err := BuildBenchDAG(spec, logger)
	if err != nil {
		return fmt.Errorf("build bench dag: %w", err)
	}

	logger.Info("bench starting",
		slog.Int("nodes", engine.NodeCount()),
		slog.Int("iterations", spec.Iterations),
		slog.Int("block_size", spec.BlockSize),
	)

	benchCtx, benchDone := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(benchCtx)

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metricsMux()}
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer benchDone()
		return runEvalLoop(gctx, engine, spec, logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("bench complete",
		slog.Int("forward_evals", engine.ForwardEvals()),
		slog.Int("adjoint_evals", engine.AdjointEvals()),
		slog.Duration("total_forward", engine.TotalForwardTime()),
		slog.Duration("total_adjoint", engine.TotalAdjointTime()),
	)
	engine.Teardown()
	return nil
}

// metricsMux serves the Prometheus handler when one is registered and a
// trivial health probe either way.
func metricsMux() http.Handler {
	mux := http.NewServeMux()
	if h := telemetry.MetricsHandler(); h != nil {
		mux.Handle("/metrics", h)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
