// Package export renders assembled reports as XLSX workbooks for
// download. Only the tabular part of a report is exported: group rows
// with their metrics plus the summary block. Row details such as the
// per-movie breakdown stay in the JSON API.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Jaum1981/cinema-analytics-api/internal/report"
)

const sheetName = "Report"

// WriteXLSX writes rep as a single-sheet workbook. The title lands in
// the first row, followed by a header row, one row per report group and
// a summary block. Null metrics become empty cells.
func WriteXLSX(w io.Writer, title string, rep *report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	row := 1
	if err := setCell(f, 1, row, title); err != nil {
		return err
	}
	if cell, _ := excelize.CoordinatesToCellName(1, row); cell != "" {
		_ = f.SetCellStyle(sheetName, cell, cell, bold)
	}
	row += 2

	// Header
	headers := append([]string{"group"}, rep.Columns...)
	for i, h := range headers {
		if err := setCell(f, i+1, row, h); err != nil {
			return err
		}
	}
	if first, _ := excelize.CoordinatesToCellName(1, row); first != "" {
		if last, _ := excelize.CoordinatesToCellName(len(headers), row); last != "" {
			_ = f.SetCellStyle(sheetName, first, last, bold)
		}
	}
	row++

	// Group rows
	for _, r := range rep.Rows {
		if err := setCell(f, 1, row, r.Label); err != nil {
			return err
		}
		for i, name := range rep.Columns {
			v := r.Metrics[name]
			if v == nil {
				continue
			}
			if err := setCell(f, i+2, row, *v); err != nil {
				return err
			}
		}
		row++
	}

	// Summary block
	row++
	if err := setCell(f, 1, row, "summary"); err != nil {
		return err
	}
	if cell, _ := excelize.CoordinatesToCellName(1, row); cell != "" {
		_ = f.SetCellStyle(sheetName, cell, cell, bold)
	}
	row++
	keys := make([]string, 0, len(rep.Summary))
	for k := range rep.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := setCell(f, 1, row, k); err != nil {
			return err
		}
		if v := rep.Summary[k]; v != nil {
			if err := setCell(f, 2, row, *v); err != nil {
				return err
			}
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
