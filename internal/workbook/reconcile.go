package workbook

import (
	"time"

	"github.com/rs/zerolog/log"
)

// LastRow returns the sheet row of the last record when n records are
// written, or the header row when there are none.
func LastRow(n int) int {
	if n <= 0 {
		return FirstDataRow - 1
	}
	return FirstDataRow + n - 1
}

// Reconcile blanks the managed, unprotected cells of every row after
// lastNewRow up to the extent the sheet had when it was opened. Rows are
// never deleted. It returns the number of cells blanked.
func Reconcile(sheet *Sheet, lastNewRow int, cls *Classification) (int, error) {
	last := sheet.Extent()
	if last <= lastNewRow {
		return 0, nil
	}

	start := time.Now()
	log.Info().Int("from", lastNewRow+1).Int("to", last).Msg("Blanking stale rows")

	blanked := 0
	for row := lastNewRow + 1; row <= last; row++ {
		for _, name := range cls.Columns.names {
			col := cls.Columns.index[name]
			if cls.Protected(row, col) {
				continue
			}
			if err := sheet.set(row, col, "", 0); err != nil {
				return blanked, err
			}
			blanked++
		}
	}

	log.Info().Int("cells", blanked).Dur("elapsed", time.Since(start)).Msg("Stale rows blanked")
	return blanked, nil
}
