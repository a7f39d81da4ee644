package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteValidationResults outputs the diagnostic reports, dispatching
// based on the output format configured.
func WriteValidationResults(reports []schema.ValidationReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationJSON(w, reports)
		}, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationCSV(w, reports)
		}, "CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationTable(w, reports, cfg, duration)
		}, "table")
	}
}

// writeValidationTable generates and writes the human-readable table.
func writeValidationTable(writer io.Writer, reports []schema.ValidationReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)

	table.Header([]string{"Check", "Item", "Status", "Statistic", "Detail"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	itemWidth := getMaxTableItemWidth()
	passed := 0
	var data [][]string
	for _, r := range reports {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
			passed++
		}
		item := r.ItemID
		if item == "" {
			item = "(all)"
		}
		data = append(data, []string{
			r.CheckName,
			truncateItem(item, itemWidth),
			status,
			fmt.Sprintf("%.4f", r.Statistic),
			r.Detail,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "%d of %d checks passed\n", passed, len(reports)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Validation completed in %v with %d workers\n",
		duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writeValidationCSV writes the reports in CSV format.
func writeValidationCSV(w io.Writer, reports []schema.ValidationReport) error {
	header := []string{"check_name", "item_id", "passed", "statistic", "detail"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, r := range reports {
			row := []string{
				r.CheckName,
				r.ItemID,
				fmt.Sprintf("%t", r.Passed),
				fmt.Sprintf("%.6f", r.Statistic),
				r.Detail,
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// validationJSONRow is one report in JSON output.
type validationJSONRow struct {
	CheckName string  `json:"check_name"`
	ItemID    string  `json:"item_id"`
	Passed    bool    `json:"passed"`
	Statistic float64 `json:"statistic"`
	Detail    string  `json:"detail"`
}

// writeValidationJSON writes the reports in JSON format.
func writeValidationJSON(w io.Writer, reports []schema.ValidationReport) error {
	rows := make([]validationJSONRow, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, validationJSONRow{
			CheckName: r.CheckName,
			ItemID:    r.ItemID,
			Passed:    r.Passed,
			Statistic: r.Statistic,
			Detail:    r.Detail,
		})
	}
	payload := struct {
		Reports []validationJSONRow `json:"reports"`
	}{Reports: rows}
	return writeJSON(w, payload)
}
