package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEffects() []schema.CausalEffect {
	return []schema.CausalEffect{
		{
			ItemID:            "itm-graphs-bfs",
			ATTScore:          72.5,
			PValue:            0.0004,
			EffectSize:        1.21,
			ProbabilityUplift: 0.35,
			NTreated:          40,
			NControl:          120,
			OutcomeWindow:     5,
		},
		{
			ItemID:            "itm-dp-knapsack",
			ATTScore:          31.25,
			PValue:            0.0121,
			EffectSize:        0.58,
			ProbabilityUplift: 0.18,
			NTreated:          25,
			NControl:          74,
			OutcomeWindow:     5,
		},
	}
}

func testOutput(ranked []schema.CausalEffect) *schema.RunOutput {
	return &schema.RunOutput{
		RunID:        "run-abc",
		Effects:      ranked,
		ItemsTested:  12,
		ItemsSkipped: 88,
	}
}

func TestWriteEffectJSON(t *testing.T) {
	ranked := testEffects()

	var buf bytes.Buffer
	err := writeEffectJSON(&buf, ranked, testOutput(ranked))
	require.NoError(t, err)

	var payload effectJSONPayload
	err = json.Unmarshal(buf.Bytes(), &payload)
	require.NoError(t, err)

	assert.Equal(t, "run-abc", payload.RunID)
	assert.Equal(t, 12, payload.ItemsTested)
	assert.Equal(t, 88, payload.ItemsSkipped)
	require.Len(t, payload.Effects, 2)

	assert.Equal(t, 1, payload.Effects[0].Rank)
	assert.Equal(t, "itm-graphs-bfs", payload.Effects[0].ItemID)
	assert.Equal(t, 72.5, payload.Effects[0].ATTScore)
	assert.Equal(t, contract.StrongValue, payload.Effects[0].Label)
	assert.Equal(t, 2, payload.Effects[1].Rank)
	assert.Equal(t, contract.ModerateValue, payload.Effects[1].Label)
}

func TestWriteEffectCSV(t *testing.T) {
	fmtFloat := createFloatFormatter(2)

	var buf bytes.Buffer
	err := writeEffectCSV(&buf, testEffects(), fmtFloat)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, "item_id", records[0][1])
	assert.Equal(t, "label", records[0][9])

	assert.Equal(t, []string{
		"1", "itm-graphs-bfs", "72.50", "0.000400", "1.21", "0.35", "40", "120", "5", contract.StrongValue,
	}, records[1])
	assert.Equal(t, "2", records[2][0])
	assert.Equal(t, "itm-dp-knapsack", records[2][1])
}

func TestWriteEffectCSVEmpty(t *testing.T) {
	fmtFloat := createFloatFormatter(2)

	var buf bytes.Buffer
	err := writeEffectCSV(&buf, nil, fmtFloat)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "att_score")
}

func TestWriteEffectTable(t *testing.T) {
	ranked := testEffects()
	cfg := &contract.Config{
		Precision:    2,
		Workers:      4,
		StoreBackend: schema.NoneBackend,
	}
	fmtFloat := createFloatFormatter(cfg.Precision)

	var buf bytes.Buffer
	err := writeEffectTable(&buf, ranked, testOutput(ranked), cfg, fmtFloat, 250*time.Millisecond)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "itm-graphs-bfs")
	assert.Contains(t, out, "72.50")
	assert.Contains(t, out, contract.StrongValue)
	assert.Contains(t, out, "Showing top 2 of 2 effects (tested: 12, skipped: 88)")
	assert.Contains(t, out, "Run run-abc completed in 250ms with 4 workers. Store backend: none")
}

func TestWriteEffectResultsToFile(t *testing.T) {
	ranked := testEffects()
	outFile := filepath.Join(t.TempDir(), "effects.json")
	cfg := &contract.Config{
		Precision:    2,
		Workers:      1,
		Output:       schema.JSONOut,
		OutputFile:   outFile,
		StoreBackend: schema.NoneBackend,
	}

	err := WriteEffectResults(ranked, testOutput(ranked), cfg, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var payload effectJSONPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "run-abc", payload.RunID)
	require.Len(t, payload.Effects, 2)
}
