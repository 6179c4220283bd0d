package sheets

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DefaultTab is the workbook tab pushed to Google Sheets.
const DefaultTab = "Daily"

// ReadWorkbookTab returns the displayed values of a workbook tab as a grid
// of equal-width rows. Numeric cells are returned as float64 so they stay
// numbers once pushed; every other cell is its formatted text.
func ReadWorkbookTab(path, tab string) ([][]interface{}, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	display, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %q: %w", tab, err)
	}
	raw, err := f.GetRows(tab, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %q: %w", tab, err)
	}

	width := 0
	for _, row := range display {
		width = max(width, len(row))
	}

	values := make([][]interface{}, len(display))
	for r, row := range display {
		out := make([]interface{}, width)
		for c := range out {
			out[c] = ""
			if c >= len(row) {
				continue
			}
			out[c] = row[c]
			if r == 0 || r >= len(raw) || c >= len(raw[r]) || raw[r][c] != row[c] {
				continue
			}
			if n, ok := numericCell(f, tab, c+1, r+1, row[c]); ok {
				out[c] = n
			}
		}
		values[r] = out
	}

	log.Info().
		Str("path", path).
		Str("tab", tab).
		Int("rows", len(values)).
		Int("columns", width).
		Msg("Workbook tab loaded")
	return values, nil
}

func numericCell(f *excelize.File, tab string, col, row int, value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return 0, false
	}
	typ, err := f.GetCellType(tab, cell)
	if err != nil || (typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset) {
		return 0, false
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
