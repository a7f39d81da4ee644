package cmd

import (
	"fmt"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/core"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/effectstore"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/outwriter"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/snapshot"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// effectsCmd runs the full causal estimation pipeline.
var effectsCmd = &cobra.Command{
	Use:   "effects [features-path]",
	Short: "Estimate per-item causal effects from a feature snapshot.",
	Long: `Run the full estimation pipeline over a feature snapshot.

For every item with enough treated attempts, matches treated events to
control events from comparable users, then estimates:
- ATT: the average rating gain caused by attempting the item
- Statistical significance via Welch's test with Bonferroni correction
- Time-to-improvement survival curves and hazard ratios
- Placebo, pre-trend and balance diagnostics

Writes Parquet tables under the output directory, optionally mirrors
rows into a SQL effect store, and prints a ranked summary.

Examples:
  # Estimate effects from the default snapshot
  uplift effects features.parquet

  # Reproducible run with a pinned seed and run id
  uplift effects features.parquet --seed 42 --run-id nightly-2026-08-28

  # Wider matching bins for sparse data
  uplift effects features.parquet --rating-bin 100 --difficulty-bin 200

  # Persist results to SQLite for the serving layer
  uplift effects features.parquet --store-backend sqlite

  # Export the ranked summary as CSV
  uplift effects features.parquet --output csv --output-file effects.csv

  # Re-display a persisted run without re-estimating
  uplift effects --from-store --store-backend sqlite --run-id nightly-2026-08-28`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := effectstore.NewEffectStore(cfg.StoreBackend, cfg.StoreDBConnect)
		if err != nil {
			contract.LogFatal("Cannot open effect store", err)
		}
		defer func() { _ = store.Close() }()

		if viper.GetBool("from-store") {
			if err := displayStoredEffects(store); err != nil {
				contract.LogFatal("Cannot read persisted effects", err)
			}
			return
		}

		if err := core.ExecuteEffects(cfg, snapshot.NewParquetSource(), store); err != nil {
			contract.LogFatal("Cannot run effect estimation", err)
		}
	},
}

// displayStoredEffects renders a persisted run through the regular
// output path, skipping estimation entirely. An empty --run-id means
// the most recent run.
func displayStoredEffects(store contract.EffectStore) error {
	start := time.Now()

	// The validated config defaults RunID to a timestamp, so read the
	// raw value to distinguish "latest" from an explicit run id.
	runID := viper.GetString("run-id")
	if runID == "" {
		runs, err := store.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no persisted runs found")
		}
		runID = runs[0]
	}

	effects, err := store.TopEffects(runID, cfg.ResultLimit)
	if err != nil {
		return err
	}

	output := &schema.RunOutput{
		RunID:       runID,
		Effects:     effects,
		ItemsTested: len(effects),
	}
	return outwriter.WriteEffectResults(effects, output, cfg, time.Since(start))
}
