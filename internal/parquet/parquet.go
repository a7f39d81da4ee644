// Package parquet provides data structures and functions for exporting
// estimation run artifacts to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/parquet-go/parquet-go"
)

// Output file names within the run's output directory.
const (
	CausalEffectsFile     = "causal_effects.parquet"
	SurvivalEffectsFile   = "survival_effects.parquet"
	ValidationReportsFile = "validation_reports.parquet"
	CohortExamplesFile    = "cohort_examples.parquet"
)

// CausalEffectRow maps one CausalEffect to the causal_effects table.
type CausalEffectRow struct {
	RunID             string  `parquet:"run_id,snappy"`
	ItemID            string  `parquet:"item_id,snappy"`
	ATTScore          float64 `parquet:"att_score,snappy"`
	PValue            float64 `parquet:"p_value,snappy"`
	EffectSize        float64 `parquet:"effect_size,snappy"`
	ProbabilityUplift float64 `parquet:"probability_uplift,snappy"`
	NTreated          int32   `parquet:"n_treated,snappy"`
	NControl          int32   `parquet:"n_control,snappy"`
	OutcomeWindow     int32   `parquet:"outcome_window,snappy"`
}

// SurvivalEffectRow maps one SurvivalEffect to the survival_effects table.
// Curves stay in memory; only the summary statistics are persisted.
type SurvivalEffectRow struct {
	RunID               string  `parquet:"run_id,snappy"`
	ItemID              string  `parquet:"item_id,snappy"`
	MedianTimeToImprove int32   `parquet:"median_time_to_improve,snappy"`
	HazardRatio         float64 `parquet:"hazard_ratio,snappy"`
	HorizonCensored     bool    `parquet:"horizon_censored,snappy"`
	NTreated            int32   `parquet:"n_treated,snappy"`
	NControl            int32   `parquet:"n_control,snappy"`
}

// ValidationReportRow maps one ValidationReport to the
// validation_reports table. ItemID is nullable: run-level checks carry
// no item.
type ValidationReportRow struct {
	RunID     string  `parquet:"run_id,snappy"`
	CheckName string  `parquet:"check_name,snappy"`
	ItemID    *string `parquet:"item_id,optional,snappy"`
	Passed    bool    `parquet:"passed,snappy"`
	Statistic float64 `parquet:"statistic,snappy"`
	Detail    string  `parquet:"detail,snappy"`
}

// CohortExampleRow maps one CohortExample to the cohort_examples table.
type CohortExampleRow struct {
	RunID        string  `parquet:"run_id,snappy"`
	ItemID       string  `parquet:"item_id,snappy"`
	UserID       string  `parquet:"user_id,snappy"`
	RatingBefore float64 `parquet:"rating_before,snappy"`
	RatingAfter  float64 `parquet:"rating_after,snappy"`
	RatingGain   float64 `parquet:"rating_gain,snappy"`
}

// WriteRunOutput writes all artifact tables of a run into outputDir.
// Any I/O failure here is fatal to the run, unlike per-item estimation
// failures.
func WriteRunOutput(output *schema.RunOutput, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	if err := WriteCausalEffects(output.Effects, outputDir, output.RunID); err != nil {
		return err
	}

	survival := make([]SurvivalEffectRow, len(output.SurvivalEffects))
	for i, s := range output.SurvivalEffects {
		survival[i] = SurvivalEffectRow{
			RunID:               output.RunID,
			ItemID:              s.ItemID,
			MedianTimeToImprove: int32(s.MedianTimeToImprove),
			HazardRatio:         s.HazardRatio,
			HorizonCensored:     s.HorizonCensored,
			NTreated:            int32(s.NTreated),
			NControl:            int32(s.NControl),
		}
	}
	if err := writeTable(filepath.Join(outputDir, SurvivalEffectsFile), survival); err != nil {
		return err
	}

	examples := make([]CohortExampleRow, len(output.Examples))
	for i, ex := range output.Examples {
		examples[i] = CohortExampleRow{
			RunID:        output.RunID,
			ItemID:       ex.ItemID,
			UserID:       ex.UserID,
			RatingBefore: ex.RatingBefore,
			RatingAfter:  ex.RatingAfter,
			RatingGain:   ex.RatingGain,
		}
	}
	if err := writeTable(filepath.Join(outputDir, CohortExamplesFile), examples); err != nil {
		return err
	}

	return WriteValidationReports(output.Reports, outputDir, output.RunID)
}

// WriteCausalEffects writes the causal_effects table on its own, used
// by both the full run and the export command.
func WriteCausalEffects(effects []schema.CausalEffect, outputDir, runID string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	rows := make([]CausalEffectRow, len(effects))
	for i, e := range effects {
		rows[i] = CausalEffectRow{
			RunID:             runID,
			ItemID:            e.ItemID,
			ATTScore:          e.ATTScore,
			PValue:            e.PValue,
			EffectSize:        e.EffectSize,
			ProbabilityUplift: e.ProbabilityUplift,
			NTreated:          int32(e.NTreated),
			NControl:          int32(e.NControl),
			OutcomeWindow:     int32(e.OutcomeWindow),
		}
	}
	return writeTable(filepath.Join(outputDir, CausalEffectsFile), rows)
}

// WriteValidationReports writes the validation table on its own, used
// by both the full run and the standalone validate command.
func WriteValidationReports(reports []schema.ValidationReport, outputDir, runID string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}

	rows := make([]ValidationReportRow, len(reports))
	for i, r := range reports {
		rows[i] = ValidationReportRow{
			RunID:     runID,
			CheckName: r.CheckName,
			Passed:    r.Passed,
			Statistic: r.Statistic,
			Detail:    r.Detail,
		}
		if r.ItemID != "" {
			itemID := r.ItemID
			rows[i].ItemID = &itemID
		}
	}
	return writeTable(filepath.Join(outputDir, ValidationReportsFile), rows)
}

// writeTable writes a slice of row structs to a Parquet file using
// struct schema inference from the parquet tags.
func writeTable[T any](outputPath string, data []T) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	defer func() { _ = writer.Close() }()

	if len(data) == 0 {
		return nil
	}
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}
