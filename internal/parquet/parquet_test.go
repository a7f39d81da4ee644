package parquet

import (
	"path/filepath"
	"testing"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRunOutput returns a small but fully populated run artifact.
func testRunOutput() *schema.RunOutput {
	return &schema.RunOutput{
		RunID: "run-test",
		Effects: []schema.CausalEffect{
			{ItemID: "itm-a", ATTScore: 62.5, PValue: 0.0004, EffectSize: 0.9, ProbabilityUplift: 0.4, NTreated: 40, NControl: 120, OutcomeWindow: 20},
			{ItemID: "itm-b", ATTScore: 24.0, PValue: 0.0031, EffectSize: 0.4, ProbabilityUplift: 0.2, NTreated: 25, NControl: 80, OutcomeWindow: 20},
		},
		SurvivalEffects: []schema.SurvivalEffect{
			{ItemID: "itm-a", MedianTimeToImprove: 12, HazardRatio: 1.8, HorizonCensored: false, NTreated: 40, NControl: 120},
		},
		Reports: []schema.ValidationReport{
			{CheckName: schema.BalanceCheck, ItemID: "itm-a", Passed: true, Statistic: 0.04, Detail: "max |SMD| 0.0400 on rating_before"},
			{CheckName: schema.PlaceboCheck, Passed: true, Statistic: 0.8, Detail: "decoy ATT 1.20, p=0.8000"},
		},
		Examples: []schema.CohortExample{
			{ItemID: "itm-a", UserID: "alice", RatingBefore: 1500, RatingAfter: 1580, RatingGain: 80},
		},
		ItemsTested:  2,
		ItemsSkipped: 5,
	}
}

// readRows reads all rows of a written table back.
func readRows[T any](t *testing.T, path string) []T {
	t.Helper()
	rows, err := parquet.ReadFile[T](path)
	require.NoError(t, err, "Should be able to read %s", path)
	return rows
}

// TestCausalEffectRowStructTags tests parquet schema inference.
func TestCausalEffectRowStructTags(t *testing.T) {
	pqSchema := parquet.SchemaOf(new(CausalEffectRow))
	require.NotNil(t, pqSchema)

	expectedColumns := []string{
		"run_id",
		"item_id",
		"att_score",
		"p_value",
		"effect_size",
		"probability_uplift",
		"n_treated",
		"n_control",
		"outcome_window",
	}
	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

// TestWriteRunOutput tests the multi-table export round trip.
func TestWriteRunOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "results")
	output := testRunOutput()

	require.NoError(t, WriteRunOutput(output, outDir))

	effects := readRows[CausalEffectRow](t, filepath.Join(outDir, CausalEffectsFile))
	require.Len(t, effects, 2)
	assert.Equal(t, "run-test", effects[0].RunID)
	assert.Equal(t, "itm-a", effects[0].ItemID)
	assert.InDelta(t, 62.5, effects[0].ATTScore, 1e-9)
	assert.InDelta(t, 0.0004, effects[0].PValue, 1e-9)
	assert.Equal(t, int32(40), effects[0].NTreated)
	assert.Equal(t, int32(120), effects[0].NControl)

	survival := readRows[SurvivalEffectRow](t, filepath.Join(outDir, SurvivalEffectsFile))
	require.Len(t, survival, 1)
	assert.Equal(t, int32(12), survival[0].MedianTimeToImprove)
	assert.InDelta(t, 1.8, survival[0].HazardRatio, 1e-9)
	assert.False(t, survival[0].HorizonCensored)

	examples := readRows[CohortExampleRow](t, filepath.Join(outDir, CohortExamplesFile))
	require.Len(t, examples, 1)
	assert.Equal(t, "alice", examples[0].UserID)
	assert.InDelta(t, 80, examples[0].RatingGain, 1e-9)

	reports := readRows[ValidationReportRow](t, filepath.Join(outDir, ValidationReportsFile))
	require.Len(t, reports, 2)
}

// TestWriteValidationReportsNullableItem tests that run-level checks
// persist a null item id while per-item checks keep theirs.
func TestWriteValidationReportsNullableItem(t *testing.T) {
	outDir := t.TempDir()
	reports := []schema.ValidationReport{
		{CheckName: schema.BalanceCheck, ItemID: "itm-a", Passed: true, Statistic: 0.02},
		{CheckName: schema.PlaceboCheck, ItemID: "", Passed: true, Statistic: 0.7},
	}

	require.NoError(t, WriteValidationReports(reports, outDir, "run-test"))

	rows := readRows[ValidationReportRow](t, filepath.Join(outDir, ValidationReportsFile))
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].ItemID)
	assert.Equal(t, "itm-a", *rows[0].ItemID)
	assert.Nil(t, rows[1].ItemID)
}

// TestWriteRunOutputEmpty tests that a run with no surviving effects
// still writes every table with its schema.
func TestWriteRunOutputEmpty(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "results")
	output := &schema.RunOutput{RunID: "run-empty"}

	require.NoError(t, WriteRunOutput(output, outDir))
	for _, name := range []string{CausalEffectsFile, SurvivalEffectsFile, ValidationReportsFile, CohortExamplesFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

// TestWriteRunOutputInvalidDir tests the error path for an unwritable
// output directory.
func TestWriteRunOutputInvalidDir(t *testing.T) {
	err := WriteRunOutput(testRunOutput(), string([]byte{0}))
	assert.Error(t, err)
}

// TestWriteCausalEffects tests the standalone effects table export.
func TestWriteCausalEffects(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "export")
	output := testRunOutput()

	require.NoError(t, WriteCausalEffects(output.Effects, outDir, "run-export"))

	effects := readRows[CausalEffectRow](t, filepath.Join(outDir, CausalEffectsFile))
	require.Len(t, effects, 2)
	assert.Equal(t, "run-export", effects[0].RunID)
	assert.Equal(t, "itm-b", effects[1].ItemID)
}
