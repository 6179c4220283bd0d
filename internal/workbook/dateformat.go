package workbook

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

type styleKey struct {
	base   int
	format string
}

// ApplyDateFormats sets the display format of the cells in rows
// first..lastNewRow that were written with a datetime (DateTimeFormat) or a
// date (DateFormat). Existing fonts, borders and fills are kept. A policy
// column missing from the header is skipped. It returns the number of cells
// formatted.
func ApplyDateFormats(sheet *Sheet, policy *Policy, first, lastNewRow int) (int, error) {
	start := time.Now()
	styles := make(map[styleKey]int)

	targets := []struct {
		column string
		kind   valueKind
		format string
	}{
		{policy.DateTimeColumn, kindDateTime, DateTimeFormat},
		{policy.DateColumn, kindDate, DateFormat},
	}

	formatted := 0
	for _, target := range targets {
		if target.column == "" {
			continue
		}
		col, ok := sheet.HeaderIndex(target.column)
		if !ok {
			log.Debug().Str("column", target.column).Msg("Date column not in header")
			continue
		}
		for row := first; row <= lastNewRow; row++ {
			if sheet.kindAt(row, col) != target.kind {
				continue
			}
			if err := sheet.applyNumberFormat(row, col, target.format, styles); err != nil {
				return formatted, err
			}
			formatted++
		}
	}

	log.Info().Int("cells", formatted).Dur("elapsed", time.Since(start)).Msg("Date formats applied")
	return formatted, nil
}

func (s *Sheet) applyNumberFormat(row, col int, format string, cache map[styleKey]int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	base, err := s.file.GetCellStyle(s.name, cell)
	if err != nil {
		return fmt.Errorf("failed to read style of %s: %w", cell, err)
	}

	key := styleKey{base: base, format: format}
	id, ok := cache[key]
	if !ok {
		style, err := s.file.GetStyle(base)
		if err != nil {
			return fmt.Errorf("failed to load style %d: %w", base, err)
		}
		numFmt := format
		style.NumFmt = 0
		style.CustomNumFmt = &numFmt
		id, err = s.file.NewStyle(style)
		if err != nil {
			return fmt.Errorf("failed to create date style: %w", err)
		}
		cache[key] = id
	}
	return s.file.SetCellStyle(s.name, cell, cell, id)
}
