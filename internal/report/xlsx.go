// Package report writes run results to files for sharing outside the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/migsmoke/internal/harness"
)

const (
	colorGreen = "#008000"
	colorRed   = "#FF0000"

	maxSheetName = 31
)

var header = []string{"Check", "Status", "Note", "Error", "Duration (ms)"}

// SheetName converts title into a valid worksheet name.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")

	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	if name == "" {
		return "Results"
	}
	return name
}

// WriteXLSX saves result as a single-sheet workbook at path: one row per
// check, followed by a totals row.
func WriteXLSX(path string, result *harness.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(result.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := f.SetColWidth(sheet, "C", "D", 40); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}

	passStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: colorGreen}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	failStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: colorRed}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, cr := range result.Checks {
		row := i + 2
		status, style := "PASS", passStyle
		if !cr.Pass {
			status, style = "FAIL", failStyle
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{cr.Name, status, cr.Note, cr.Error, cr.Duration.Milliseconds()}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		statusCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, statusCell, statusCell, style); err != nil {
			return fmt.Errorf("set status style: %w", err)
		}
	}

	totalsCell, err := excelize.CoordinatesToCellName(1, len(result.Checks)+3)
	if err != nil {
		return err
	}
	totals := fmt.Sprintf("Results: %d passed, %d failed", result.Passed, result.Failed)
	if err := f.SetCellValue(sheet, totalsCell, totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	// Header style last so row styles do not override it.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D3D3D3"}},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
