package cmd

import (
	"fmt"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/effectstore"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// openStore loads minimal configuration and opens the effect store.
// This is used by commands that need store access without full shared setup.
func openStore() (contract.EffectStore, error) {
	if err := loadConfigFile(); err != nil {
		return nil, err
	}

	// Get store-related config values
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return nil, err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return effectstore.NewEffectStore(backend, connStr)
}

// storeCmd focused on effect store management.
//
// Note: Store subcommands use minimal initialization (openStore) instead
// of the full sharedSetup used by estimation commands. None of them reads
// the feature snapshot, so estimation options are never validated here.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the persisted effect store",
	Long: `Manage the relational store that mirrors estimation run artifacts.

The effects command can persist every run into SQLite, MySQL or
PostgreSQL so a serving layer reads effects with plain SQL instead of
parsing Parquet files.

Subcommands:
  status  - Show store connection info and row counts
  runs    - List persisted run ids, most recent first
  top     - Show the strongest persisted effects for a run
  migrate - Apply or roll back store schema migrations

Examples:
  # Check store status
  uplift store status --store-backend sqlite

  # Inspect the latest run
  uplift store top --store-backend sqlite`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display effect store statistics and connection details",
	Run: func(_ *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Cannot open effect store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		fmt.Printf("Backend:  %s\n", status.Backend)
		fmt.Printf("Location: %s\n", status.Location)
		fmt.Printf("Runs:     %d\n", status.RunCount)
		fmt.Printf("Effects:  %d\n", status.EffectCount)
	},
}

// storeRunsCmd lists persisted run ids.
var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted run ids, most recent first",
	Run: func(_ *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Cannot open effect store", err)
		}
		defer func() { _ = store.Close() }()

		runs, err := store.ListRuns()
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if len(runs) == 0 {
			fmt.Println("No persisted runs found.")
			return
		}
		for _, runID := range runs {
			fmt.Println(runID)
		}
	},
}

// storeTopCmd shows the strongest persisted effects.
var storeTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the strongest persisted effects for a run",
	Long: `Read the strongest effects back from the store, ordered by ATT
descending. With no --run argument, reads the most recent run.

Examples:
  # Top effects from the latest run
  uplift store top --store-backend sqlite

  # Top effects from a specific run
  uplift store top --store-backend sqlite --run nightly-2026-08-28 --limit 10`,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Cannot open effect store", err)
		}
		defer func() { _ = store.Close() }()

		limit := viper.GetInt("limit")
		if limit <= 0 || limit > contract.MaxResultLimit {
			limit = contract.DefaultResultLimit
		}
		effects, err := store.TopEffects(viper.GetString("run"), limit)
		if err != nil {
			contract.LogFatal("Failed to read effects", err)
		}
		if len(effects) == 0 {
			fmt.Println("No persisted effects found.")
			return
		}
		for i, e := range effects {
			fmt.Printf("%3d. %-40s ATT %+8.2f  p=%.4f  n=%d/%d  %s\n",
				i+1, e.ItemID, e.ATTScore, e.PValue, e.NTreated, e.NControl,
				contract.GetPlainLabel(e.ATTScore))
		}
	},
}

// storeMigrateCmd applies schema migrations to the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back effect store schema migrations",
	Long: `Apply versioned schema migrations to the effect store database.

By default migrates to the latest version. Use --target-version to pin
a specific version, or 0 to roll back to an empty schema.

Examples:
  # Migrate to latest
  uplift store migrate --store-backend postgresql --store-db-connect "host=..."

  # Roll everything back
  uplift store migrate --store-backend postgresql --store-db-connect "host=..." --target-version 0`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := loadConfigFile(); err != nil {
			contract.LogFatal("Cannot load config", err)
		}
		backend := schema.DatabaseBackend(viper.GetString("store-backend"))
		connStr := viper.GetString("store-db-connect")
		if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
			contract.LogFatal("Invalid store configuration", err)
		}
		if err := effectstore.MigrateStore(backend, connStr, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Migration failed", err)
		}
		fmt.Println("Migration completed successfully.")
	},
}
