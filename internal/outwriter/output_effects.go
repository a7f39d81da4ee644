package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteEffectResults outputs the ranked effects, dispatching based on
// the output format configured.
func WriteEffectResults(ranked []schema.CausalEffect, output *schema.RunOutput, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFloatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEffectJSON(w, ranked, output)
		}, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEffectCSV(w, ranked, fmtFloat)
		}, "CSV")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEffectTable(w, ranked, output, cfg, fmtFloat, duration)
		}, "table")
	}
}

// writeEffectTable generates and writes the human-readable table.
func writeEffectTable(writer io.Writer, ranked []schema.CausalEffect, output *schema.RunOutput, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)

	table.Header([]string{"Rank", "Item", "ATT", "P-Value", "Effect Size", "Uplift", "Treated", "Control", "Label"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	itemWidth := getMaxTableItemWidth()
	var data [][]string
	for i, e := range ranked {
		label := contract.GetPlainLabel(e.ATTScore)
		if cfg.UseColors {
			label = contract.GetColorLabel(e.ATTScore)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			truncateItem(e.ItemID, itemWidth),
			fmtFloat(e.ATTScore),
			fmt.Sprintf("%.4f", e.PValue),
			fmtFloat(e.EffectSize),
			fmtFloat(e.ProbabilityUplift),
			strconv.Itoa(e.NTreated),
			strconv.Itoa(e.NControl),
			label,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Showing top %d of %d effects (tested: %d, skipped: %d)\n",
		len(ranked), len(output.Effects), output.ItemsTested, output.ItemsSkipped); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Run %s completed in %v with %d workers. Store backend: %s\n",
		output.RunID, duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeEffectCSV writes the ranked effects in CSV format.
func writeEffectCSV(w io.Writer, ranked []schema.CausalEffect, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"item_id",
		"att_score",
		"p_value",
		"effect_size",
		"probability_uplift",
		"n_treated",
		"n_control",
		"outcome_window",
		"label",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i, e := range ranked {
			row := []string{
				strconv.Itoa(i + 1),
				e.ItemID,
				fmtFloat(e.ATTScore),
				fmt.Sprintf("%.6f", e.PValue),
				fmtFloat(e.EffectSize),
				fmtFloat(e.ProbabilityUplift),
				strconv.Itoa(e.NTreated),
				strconv.Itoa(e.NControl),
				strconv.Itoa(e.OutcomeWindow),
				contract.GetPlainLabel(e.ATTScore),
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// effectJSONPayload is the JSON output envelope for effect results.
type effectJSONPayload struct {
	RunID        string          `json:"run_id"`
	ItemsTested  int             `json:"items_tested"`
	ItemsSkipped int             `json:"items_skipped"`
	Effects      []effectJSONRow `json:"effects"`
}

// effectJSONRow is one ranked effect in JSON output.
type effectJSONRow struct {
	Rank              int     `json:"rank"`
	ItemID            string  `json:"item_id"`
	ATTScore          float64 `json:"att_score"`
	PValue            float64 `json:"p_value"`
	EffectSize        float64 `json:"effect_size"`
	ProbabilityUplift float64 `json:"probability_uplift"`
	NTreated          int     `json:"n_treated"`
	NControl          int     `json:"n_control"`
	OutcomeWindow     int     `json:"outcome_window"`
	Label             string  `json:"label"`
}

// writeEffectJSON writes the ranked effects in JSON format.
func writeEffectJSON(w io.Writer, ranked []schema.CausalEffect, output *schema.RunOutput) error {
	payload := effectJSONPayload{
		RunID:        output.RunID,
		ItemsTested:  output.ItemsTested,
		ItemsSkipped: output.ItemsSkipped,
		Effects:      make([]effectJSONRow, 0, len(ranked)),
	}
	for i, e := range ranked {
		payload.Effects = append(payload.Effects, effectJSONRow{
			Rank:              i + 1,
			ItemID:            e.ItemID,
			ATTScore:          e.ATTScore,
			PValue:            e.PValue,
			EffectSize:        e.EffectSize,
			ProbabilityUplift: e.ProbabilityUplift,
			NTreated:          e.NTreated,
			NControl:          e.NControl,
			OutcomeWindow:     e.OutcomeWindow,
			Label:             contract.GetPlainLabel(e.ATTScore),
		})
	}
	return writeJSON(w, payload)
}
