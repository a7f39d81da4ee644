package cmd

import (
	"fmt"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/parquet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCmd dumps persisted store effects back into a Parquet table.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted effects from the store to Parquet",
	Long: `Export a persisted run from the effect store back into the
causal_effects Parquet table, so downstream consumers that read Parquet
can use runs that were only mirrored into SQL.

With no --run argument, exports the most recent run.

Examples:
  # Export the latest run to the default output directory
  uplift export --store-backend sqlite

  # Export a specific run somewhere else
  uplift export --store-backend sqlite --run nightly-2026-08-28 --output-dir /tmp/effects`,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Cannot open effect store", err)
		}
		defer func() { _ = store.Close() }()

		runID, _ := cmd.Flags().GetString("run")
		if runID == "" {
			runs, err := store.ListRuns()
			if err != nil {
				contract.LogFatal("Failed to list runs", err)
			}
			if len(runs) == 0 {
				fmt.Println("No persisted runs found.")
				return
			}
			runID = runs[0]
		}

		effects, err := store.TopEffects(runID, contract.MaxResultLimit)
		if err != nil {
			contract.LogFatal("Failed to read effects", err)
		}

		outputDir := viper.GetString("output-dir")
		if err := parquet.WriteCausalEffects(effects, outputDir, runID); err != nil {
			contract.LogFatal("Failed to write Parquet table", err)
		}
		fmt.Printf("Exported %d effects from run %s to %s\n", len(effects), runID, outputDir)
	},
}
