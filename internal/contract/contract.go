// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// SnapshotSource loads the feature snapshot artifact into memory.
// The core estimation logic only sees the returned dataset, which lets
// tests substitute synthetic data for the on-disk Parquet table.
type SnapshotSource interface {
	// Load reads the snapshot table and returns per-user histories
	// sorted by timestamp. Called once per run; the result is immutable.
	Load(path string) (*schema.Dataset, error)
}

// EffectStore persists run outputs to a relational backend. Rows are
// keyed by (run_id, item_id) and inserted once; re-runs write new rows
// under a fresh run id instead of mutating old ones.
type EffectStore interface {
	// SaveRun persists all artifacts of one estimation run.
	SaveRun(output *schema.RunOutput) error

	// TopEffects returns the strongest persisted effects for a run,
	// ordered by ATT descending.
	TopEffects(runID string, limit int) ([]schema.CausalEffect, error)

	// ListRuns returns the known run ids, most recent first.
	ListRuns() ([]string, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
