package workbook

import (
	"time"

	"github.com/rs/zerolog/log"
)

// FirstDataRow is the sheet row of the first data record; row 1 holds the
// header.
const FirstDataRow = 2

// Row is one input record keyed by column name.
type Row map[string]any

// ProgressFunc is told how many rows have been written so far.
type ProgressFunc func(done, total int)

const progressEvery = 1000

// WriteRows writes rows[i] to sheet row FirstDataRow+i for every managed
// column, coercing values through policy. Protected cells are skipped.
// Missing keys are written as "".
func WriteRows(sheet *Sheet, rows []Row, cls *Classification, policy *Policy, progress ProgressFunc) error {
	start := time.Now()
	log.Info().Int("rows", len(rows)).Int("columns", cls.Columns.Len()).Msg("Writing rows")

	skipped := 0
	for i, record := range rows {
		row := FirstDataRow + i
		if i > 0 && i%progressEvery == 0 {
			log.Debug().Int("done", i).Int("total", len(rows)).Msg("Write progress")
			if progress != nil {
				progress(i, len(rows))
			}
		}

		for _, name := range cls.Columns.names {
			col := cls.Columns.index[name]
			if cls.Protected(row, col) {
				skipped++
				continue
			}

			raw, ok := record[name]
			if !ok {
				raw = ""
			}
			if err := sheet.set(row, col, policy.Coerce(name, raw), kindFor(policy.TypeOf(name))); err != nil {
				return err
			}
		}
	}
	if progress != nil {
		progress(len(rows), len(rows))
	}

	log.Info().
		Int("rows", len(rows)).
		Int("protected_skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Rows written")
	return nil
}

func kindFor(t ColumnType) valueKind {
	switch t {
	case TypeDateTime:
		return kindDateTime
	case TypeDate:
		return kindDate
	}
	return 0
}
