//go:build basic

package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/snapshot"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// effectPayload mirrors the JSON envelope emitted by uplift effects.
type effectPayload struct {
	RunID        string `json:"run_id"`
	ItemsTested  int    `json:"items_tested"`
	ItemsSkipped int    `json:"items_skipped"`
	Effects      []struct {
		Rank     int     `json:"rank"`
		ItemID   string  `json:"item_id"`
		ATTScore float64 `json:"att_score"`
		PValue   float64 `json:"p_value"`
		NTreated int     `json:"n_treated"`
		NControl int     `json:"n_control"`
	} `json:"effects"`
}

// writeSyntheticSnapshot builds a snapshot with one item whose
// attempters gain roughly 60 rating points within two submissions,
// against a flat control population.
func writeSyntheticSnapshot(t *testing.T, path string) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	event := func(userID, itemID string, idx int, rating float64) snapshot.Row {
		return snapshot.Row{
			UserID:               userID,
			ItemID:               itemID,
			Timestamp:            base.Add(time.Duration(idx) * time.Hour),
			Outcome:              true,
			RatingBefore:         rating,
			RollingAccuracy:      0.5,
			RollingAvgDifficulty: 1200,
			ItemDifficulty:       1300,
		}
	}

	var rows []snapshot.Row
	for i := 0; i < 30; i++ {
		userID := fmt.Sprintf("t%02d", i)
		gain := float64(55 + i%11)
		rows = append(rows,
			event(userID, userID+"-f0", 0, 1500),
			event(userID, "itm-causal", 1, 1500),
			event(userID, userID+"-f1", 2, 1500),
			event(userID, userID+"-f2", 3, 1500+gain),
			event(userID, userID+"-f3", 4, 1500+gain),
		)
	}
	for i := 0; i < 30; i++ {
		userID := fmt.Sprintf("c%02d", i)
		drift := float64(i%11) - 5
		rows = append(rows,
			event(userID, userID+"-f0", 0, 1500),
			event(userID, userID+"-f1", 1, 1500),
			event(userID, userID+"-f2", 2, 1500),
			event(userID, userID+"-f3", 3, 1500+drift),
			event(userID, userID+"-f4", 4, 1500+drift),
		)
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	writer := parquet.NewGenericWriter[snapshot.Row](file)
	_, err = writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
}

// TestUpliftEffectsEndToEnd runs the effects command on a synthetic
// snapshot and checks the recovered effect.
func TestUpliftEffectsEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	featuresPath := filepath.Join(workDir, "features.parquet")
	outputPath := filepath.Join(workDir, "effects.json")
	writeSyntheticSnapshot(t, featuresPath)

	err := runUpliftCommand(t, "effects", featuresPath,
		"--output-dir", workDir,
		"--output", "json",
		"--output-file", outputPath,
		"--outcome-window", "2",
		"--min-treated", "2",
		"--min-user-events", "3",
		"--improvement-delta", "30",
		"--run-id", "integration-run",
		"--seed", "42",
		"--workers", "2",
		"--store-backend", "none")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var payload effectPayload
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "integration-run", payload.RunID)
	require.NotEmpty(t, payload.Effects)
	top := payload.Effects[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "itm-causal", top.ItemID)
	assert.InDelta(t, 60.0, top.ATTScore, 5.0)
	assert.Less(t, top.PValue, 0.01)
	assert.Equal(t, 30, top.NTreated)

	// Parquet artifacts land in the output directory.
	for _, name := range []string{
		"causal_effects.parquet",
		"survival_effects.parquet",
		"validation_reports.parquet",
		"cohort_examples.parquet",
	} {
		assert.FileExists(t, filepath.Join(workDir, name))
	}
}

// TestUpliftValidateEndToEnd runs the validation suite on the same
// synthetic snapshot.
func TestUpliftValidateEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	featuresPath := filepath.Join(workDir, "features.parquet")
	writeSyntheticSnapshot(t, featuresPath)

	err := runUpliftCommand(t, "validate", featuresPath,
		"--outcome-window", "2",
		"--min-treated", "2",
		"--min-user-events", "3",
		"--seed", "42",
		"--workers", "2")
	require.NoError(t, err)
}

// TestUpliftVersion checks the version command runs cleanly.
func TestUpliftVersion(t *testing.T) {
	require.NoError(t, runUpliftCommand(t, "version"))
}
