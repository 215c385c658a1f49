// Package export writes ranking tables to spreadsheet files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brightisle/cv-screener/internal/ranking"
)

// SheetName is the worksheet holding the ranking in xlsx exports.
const SheetName = "Results"

// Format is a supported export file type.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

// FormatFor picks the export format from the file extension.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return XLSX, nil
	case ".csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q (use .xlsx or .csv)", ext)
	}
}

// Write stores the table at path in the format implied by its extension.
// Parent directories are created as needed.
func Write(path string, table ranking.Table) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	switch format {
	case XLSX:
		return writeXLSX(path, table)
	default:
		return writeCSV(path, table)
	}
}

func writeXLSX(path string, table ranking.Table) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	rows := append([][]string{table.Header}, table.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}

		if err := book.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, table ranking.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Header); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return file.Close()
}

// DumpJSON writes the ranked results to a new temporary file and returns its
// name.
func DumpJSON(results []ranking.Result) (string, error) {
	file, err := os.CreateTemp("", "cv-screener_results_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", err
	}
	return file.Name(), nil
}
