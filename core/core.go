// Package core has the causal estimation pipeline: binning, matching,
// effect and survival estimation, and the validation suite.
package core

import (
	"fmt"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/outwriter"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/parquet"
)

// ExecuteEffects runs the full estimation pipeline and writes every
// artifact: Parquet tables, the optional SQL effect store, and a ranked
// summary on stdout. It serves as the main entry point for the
// 'effects' command.
func ExecuteEffects(cfg *contract.Config, source contract.SnapshotSource, store contract.EffectStore) error {
	start := time.Now()
	outwriter.LogRunHeader(cfg)

	data, err := source.Load(cfg.FeaturesPath)
	if err != nil {
		return fmt.Errorf("failed to load feature snapshots: %w", err)
	}

	output := RunEstimation(cfg, data)

	if err := parquet.WriteRunOutput(output, cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to write output tables: %w", err)
	}

	if store != nil {
		if err := store.SaveRun(output); err != nil {
			// Store persistence is a convenience mirror of the Parquet
			// artifacts, so a failure here degrades rather than aborts.
			contract.LogWarn("Effect store persistence failed", err)
		}
	}

	ranked := RankEffects(output.Effects, cfg.ResultLimit)
	duration := time.Since(start)
	return outwriter.WriteEffectResults(ranked, output, cfg, duration)
}

// ExecuteValidation runs only the diagnostic suite over the same
// matching machinery, without emitting effects. It serves as the main
// entry point for the 'validate' command.
func ExecuteValidation(cfg *contract.Config, source contract.SnapshotSource) error {
	start := time.Now()
	outwriter.LogRunHeader(cfg)

	data, err := source.Load(cfg.FeaturesPath)
	if err != nil {
		return fmt.Errorf("failed to load feature snapshots: %w", err)
	}

	reports := RunValidation(cfg, data)

	if err := parquet.WriteValidationReports(reports, cfg.OutputDir, cfg.RunID); err != nil {
		return fmt.Errorf("failed to write validation table: %w", err)
	}

	duration := time.Since(start)
	return outwriter.WriteValidationResults(reports, cfg, duration)
}
