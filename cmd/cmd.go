// Package cmd defines the command-line interface for uplift.
package cmd

import (
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(effectsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeRunsCmd)
	storeCmd.AddCommand(storeTopCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output-dir", "results", "Directory for output Parquet tables")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write stdout summary to")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in run headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Float64("rating-bin", contract.DefaultRatingBinWidth, "Rating bin width for coarsened exact matching")
	rootCmd.PersistentFlags().Float64("accuracy-bin", contract.DefaultAccuracyBinWidth, "Rolling accuracy bin width for coarsened exact matching")
	rootCmd.PersistentFlags().Float64("difficulty-bin", contract.DefaultDifficultyBinWidth, "Difficulty bin width for coarsened exact matching")
	rootCmd.PersistentFlags().Int("outcome-window", contract.DefaultOutcomeWindow, "Future submissions over which rating change is measured")
	rootCmd.PersistentFlags().Float64("improvement-delta", contract.DefaultImprovementDelta, "Rating gain that counts as an improvement event")
	rootCmd.PersistentFlags().Int("min-treated", contract.DefaultMinTreatedSamples, "Minimum treated and control sample size per item")
	rootCmd.PersistentFlags().Float64("p-value", contract.DefaultPValueThreshold, "Significance level before Bonferroni correction")
	rootCmd.PersistentFlags().Float64("sanity-cap", contract.DefaultEffectSanityCap, "Absolute ATT above this is discarded as implausible")
	rootCmd.PersistentFlags().Int("horizon", contract.DefaultSurvivalHorizon, "Right-censoring horizon in submissions for survival curves")
	rootCmd.PersistentFlags().Int("min-user-events", contract.DefaultMinUserEvents, "Users with fewer events are excluded entirely")
	rootCmd.PersistentFlags().Int64("seed", 0, "Seed for control resampling and decoy selection")
	rootCmd.PersistentFlags().String("run-id", "", "Run identifier (defaults to a UTC timestamp)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.NoneBackend), "Effect store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of effectsCmd to Viper
	effectsCmd.Flags().Bool("from-store", false, "Display a persisted run from the store instead of re-estimating")
	if err := viper.BindPFlags(effectsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding effects flags", err)
	}

	// The export command reads --run directly off the flag set, so it
	// is not bound to Viper and cannot collide with store top's flag.
	exportCmd.Flags().String("run", "", "Run id to export (defaults to the most recent run)")

	// Bind all flags of storeTopCmd to Viper
	storeTopCmd.Flags().String("run", "", "Run id to read (defaults to the most recent run)")
	if err := viper.BindPFlags(storeTopCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store top flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
