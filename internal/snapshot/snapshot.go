// Package snapshot loads the feature snapshot artifact produced by the
// feature-engineering stage into its in-memory form.
package snapshot

import (
	"fmt"
	"sort"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/parquet-go/parquet-go"
)

// Row mirrors one row of the columnar snapshot table. Column semantics
// are fixed by the feature-engineering contract: one row per observed
// attempt, with every rolling statistic computed strictly before the
// event timestamp.
type Row struct {
	UserID               string    `parquet:"user_id,snappy"`
	ItemID               string    `parquet:"item_id,snappy"`
	Timestamp            time.Time `parquet:"ts,snappy"`
	Outcome              bool      `parquet:"outcome,snappy"`
	RatingBefore         float64   `parquet:"rating_before,snappy"`
	RollingAccuracy      float64   `parquet:"rolling_accuracy,snappy"`
	RollingAvgDifficulty float64   `parquet:"rolling_avg_difficulty,snappy"`
	ItemDifficulty       float64   `parquet:"item_difficulty,snappy"`
}

// ParquetSource reads snapshots from a local Parquet file.
type ParquetSource struct{}

var _ contract.SnapshotSource = &ParquetSource{} // Compile-time check

// NewParquetSource creates the default on-disk snapshot source.
func NewParquetSource() *ParquetSource {
	return &ParquetSource{}
}

// Load reads the snapshot table and builds per-user histories sorted by
// timestamp. This is the run's single scoped I/O acquisition; after it
// returns, the hot loop touches memory only.
func (s *ParquetSource) Load(path string) (*schema.Dataset, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot parquet %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("snapshot table %q contains no rows", path)
	}
	return BuildDataset(rows), nil
}

// BuildDataset groups rows into timestamp-ordered user histories. It is
// exported so tests can construct datasets from synthetic rows without
// touching disk.
func BuildDataset(rows []Row) *schema.Dataset {
	histories := make(map[string][]schema.EventRecord)
	itemSet := make(map[string]struct{})

	for _, row := range rows {
		histories[row.UserID] = append(histories[row.UserID], schema.EventRecord{
			UserID:               row.UserID,
			ItemID:               row.ItemID,
			Timestamp:            row.Timestamp,
			Solved:               row.Outcome,
			RatingBefore:         row.RatingBefore,
			RollingAccuracy:      row.RollingAccuracy,
			RollingAvgDifficulty: row.RollingAvgDifficulty,
			ItemDifficulty:       row.ItemDifficulty,
		})
		itemSet[row.ItemID] = struct{}{}
	}

	for userID := range histories {
		hist := histories[userID]
		sort.SliceStable(hist, func(i, j int) bool {
			return hist[i].Timestamp.Before(hist[j].Timestamp)
		})
		histories[userID] = hist
	}

	items := make([]string, 0, len(itemSet))
	for itemID := range itemSet {
		items = append(items, itemID)
	}
	sort.Strings(items)

	return &schema.Dataset{Histories: histories, Items: items}
}
