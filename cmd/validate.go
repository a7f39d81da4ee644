package cmd

import (
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/core"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/snapshot"
	"github.com/spf13/cobra"
)

// validateCmd runs the diagnostic suite without emitting effects.
var validateCmd = &cobra.Command{
	Use:   "validate [features-path]",
	Short: "Run placebo, pre-trend and balance diagnostics.",
	Long: `Run the validation suite over the same matching machinery that the
effects command uses, without estimating or persisting effects.

Checks performed:
- placebo: a seeded decoy item should show no significant effect
- pre_trend: matched cohorts should not diverge before treatment
- balance: matched confounders should have small standardized differences

All checks are advisory. A failed check is reported, never fatal, so
the command exits zero even when cohorts look suspect.

Examples:
  # Validate the default snapshot
  uplift validate features.parquet

  # Machine-readable report for a dashboard
  uplift validate features.parquet --output json --output-file checks.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteValidation(cfg, snapshot.NewParquetSource()); err != nil {
			contract.LogFatal("Cannot run validation", err)
		}
	},
}
