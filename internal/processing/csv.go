package processing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CSVName is the file name of the sales export for a target day.
func CSVName(target time.Time) string {
	return fmt.Sprintf("ventas_%s.csv", target.Format("2006-01-02"))
}

// WriteCSV writes rows under a Columns header. Keys outside Columns are
// ignored; missing keys are written as empty cells.
func WriteCSV(path string, rows []SheetRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(Columns))
	for _, row := range rows {
		for i, col := range Columns {
			record[i] = formatCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	log.Info().Str("path", path).Int("rows", len(rows)).Msg("CSV written")
	return f.Close()
}

// ReadCSV loads a sales export. The returned columns are the header names
// that belong to Columns, in file order; other columns are dropped. Short
// records are padded with empty strings.
func ReadCSV(path string) ([]string, []SheetRow, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	type field struct {
		name  string
		index int
	}
	var fields []field
	var columns []string
	seen := make(map[string]bool)
	for i, name := range header {
		if !IsKnownColumn(name) || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, field{name: name, index: i})
		columns = append(columns, name)
	}

	var rows []SheetRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv row %d: %w", len(rows)+2, err)
		}
		row := make(SheetRow, len(fields))
		for _, fd := range fields {
			if fd.index < len(record) {
				row[fd.name] = record[fd.index]
			} else {
				row[fd.name] = ""
			}
		}
		rows = append(rows, row)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(rows)).
		Int("columns", len(columns)).
		Dur("elapsed", time.Since(start)).
		Msg("CSV loaded")
	return columns, rows, nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}
