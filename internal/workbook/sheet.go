package workbook

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrEmptyHeader   = errors.New("sheet header row is empty")
	ErrNoColumns     = errors.New("no input column matches the sheet header")
	ErrUnknownColumn = errors.New("column not present in sheet header")
)

type cellRef struct {
	row, col int
}

type valueKind int

const (
	kindDateTime valueKind = iota + 1
	kindDate
)

// Sheet is one worksheet of an open workbook together with its header and
// the row extent it had when it was opened. Values written through the Sheet
// are tracked so date formats can be applied to exactly the cells that
// received a date.
type Sheet struct {
	file   *excelize.File
	name   string
	header []string
	extent int
	kinds  map[cellRef]valueKind
}

// OpenSheet reads the header row and row extent of the named sheet.
func OpenSheet(f *excelize.File, name string) (*Sheet, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %q: %w", name, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	defer rows.Close()

	var header []string
	extent := 0
	for rows.Next() {
		extent++
		if extent == 1 {
			cols, err := rows.Columns()
			if err != nil {
				return nil, fmt.Errorf("failed to read header of %q: %w", name, err)
			}
			for _, c := range cols {
				header = append(header, strings.TrimSpace(c))
			}
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan sheet %q: %w", name, err)
	}

	if !hasNonEmpty(header) {
		return nil, fmt.Errorf("%w: %q", ErrEmptyHeader, name)
	}

	return &Sheet{
		file:   f,
		name:   name,
		header: header,
		extent: extent,
		kinds:  make(map[cellRef]valueKind),
	}, nil
}

func (s *Sheet) Name() string { return s.name }

// Header returns the trimmed header row.
func (s *Sheet) Header() []string { return s.header }

// Extent is the last row number present when the sheet was opened.
func (s *Sheet) Extent() int { return s.extent }

// HeaderIndex returns the 1-based column of the first header cell equal to
// name.
func (s *Sheet) HeaderIndex(name string) (int, bool) {
	for i, h := range s.header {
		if h == name {
			return i + 1, true
		}
	}
	return 0, false
}

func (s *Sheet) set(row, col int, v any, kind valueKind) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.file.SetCellValue(s.name, cell, v); err != nil {
		return fmt.Errorf("failed to write %s: %w", cell, err)
	}

	ref := cellRef{row: row, col: col}
	if _, isTime := v.(time.Time); isTime && kind != 0 {
		s.kinds[ref] = kind
	} else {
		delete(s.kinds, ref)
	}
	return nil
}

func (s *Sheet) kindAt(row, col int) valueKind {
	return s.kinds[cellRef{row: row, col: col}]
}

func hasNonEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}
