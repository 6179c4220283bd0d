package workbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DefaultScanLimit bounds the rows inspected by Classify. Formula and merged
// cells below it are not detected.
const DefaultScanLimit = 10000

// ColumnIndex maps managed column names to 1-based sheet columns. It is built
// once per run and not modified afterwards.
type ColumnIndex struct {
	names []string
	index map[string]int
}

// NewColumnIndex resolves columns against header. Every column must be
// present in the header; the first matching header cell wins.
func NewColumnIndex(header []string, columns []string) (ColumnIndex, error) {
	ci := ColumnIndex{index: make(map[string]int, len(columns))}
	for _, name := range columns {
		if _, dup := ci.index[name]; dup {
			continue
		}
		pos := -1
		for i, h := range header {
			if h == name {
				pos = i + 1
				break
			}
		}
		if pos < 0 {
			return ColumnIndex{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		ci.names = append(ci.names, name)
		ci.index[name] = pos
	}
	return ci, nil
}

// Names returns the managed columns in input order.
func (c ColumnIndex) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c ColumnIndex) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

func (c ColumnIndex) Len() int { return len(c.names) }

// Classification is the result of scanning the managed columns: the column
// index plus the cells that must never be written.
type Classification struct {
	Columns ColumnIndex
	Formula map[cellRef]struct{}
	Merged  map[cellRef]struct{}
	// ScannedTo is the last row inspected for formulas.
	ScannedTo int
	ScanLimit int
}

// Protected reports whether the cell holds a formula or is a non-anchor
// member of a merged region.
func (c *Classification) Protected(row, col int) bool {
	ref := cellRef{row: row, col: col}
	if _, ok := c.Formula[ref]; ok {
		return true
	}
	_, ok := c.Merged[ref]
	return ok
}

func (c *Classification) IsFormula(row, col int) bool {
	_, ok := c.Formula[cellRef{row: row, col: col}]
	return ok
}

func (c *Classification) IsMerged(row, col int) bool {
	_, ok := c.Merged[cellRef{row: row, col: col}]
	return ok
}

// Classify scans rows 2..min(extent, scanLimit) of every managed column for
// formulas; merged regions are recorded down to scanLimit since writes may
// extend past the current extent. A cell is a formula if it carries a
// formula or its text starts with "=". A non-positive scanLimit selects
// DefaultScanLimit.
func Classify(sheet *Sheet, columns []string, scanLimit int) (*Classification, error) {
	start := time.Now()
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}

	ci, err := NewColumnIndex(sheet.Header(), columns)
	if err != nil {
		return nil, err
	}

	cls := &Classification{
		Columns:   ci,
		Formula:   make(map[cellRef]struct{}),
		Merged:    make(map[cellRef]struct{}),
		ScannedTo: min(sheet.Extent(), scanLimit),
		ScanLimit: scanLimit,
	}

	managed := make(map[int]string, ci.Len())
	for _, name := range ci.names {
		managed[ci.index[name]] = name
	}

	if err := cls.collectMerged(sheet, managed); err != nil {
		return nil, err
	}

	f := sheet.file
	for _, name := range ci.names {
		col := ci.index[name]
		formulas := 0
		for row := 2; row <= cls.ScannedTo; row++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			formula, err := f.GetCellFormula(sheet.name, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read formula at %s: %w", cell, err)
			}
			if formula == "" {
				value, err := f.GetCellValue(sheet.name, cell, excelize.Options{RawCellValue: true})
				if err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", cell, err)
				}
				if !strings.HasPrefix(value, "=") {
					continue
				}
			}
			cls.Formula[cellRef{row: row, col: col}] = struct{}{}
			formulas++
		}
		if formulas > 0 {
			log.Debug().Str("column", name).Int("formulas", formulas).Msg("Protected formula cells")
		}
	}

	log.Info().
		Int("columns", ci.Len()).
		Int("scanned_to", cls.ScannedTo).
		Int("formula_cells", len(cls.Formula)).
		Int("merged_cells", len(cls.Merged)).
		Dur("elapsed", time.Since(start)).
		Msg("Sheet classified")
	return cls, nil
}

func (c *Classification) collectMerged(sheet *Sheet, managed map[int]string) error {
	merges, err := sheet.file.GetMergeCells(sheet.name)
	if err != nil {
		return fmt.Errorf("failed to read merged cells: %w", err)
	}
	for _, m := range merges {
		c1, r1, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return fmt.Errorf("bad merge range %q: %w", m.GetStartAxis(), err)
		}
		c2, r2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return fmt.Errorf("bad merge range %q: %w", m.GetEndAxis(), err)
		}
		for row := max(r1, 2); row <= min(r2, c.ScanLimit); row++ {
			for col := c1; col <= c2; col++ {
				if row == r1 && col == c1 {
					continue
				}
				if _, ok := managed[col]; ok {
					c.Merged[cellRef{row: row, col: col}] = struct{}{}
				}
			}
		}
	}
	return nil
}
