package workbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

type Options struct {
	SheetName string
	// ScanLimit caps the rows inspected for formulas and merged cells.
	ScanLimit int
	Policy    *Policy
	// Backup copies the file to <base>.backup<ext> before it is opened.
	Backup   bool
	Progress ProgressFunc
}

type Report struct {
	Sheet        string
	BackupPath   string
	Columns      []string
	Rows         int
	LastRow      int
	Blanked      int
	Formatted    int
	FormulaCells int
	MergedCells  int
	Elapsed      time.Duration
}

// Synchronize writes rows into the named sheet of the workbook at path and
// saves it once. Columns not present in the header are ignored. Missing
// sheet, empty header and no usable columns are reported before anything is
// modified.
func Synchronize(path string, columns []string, rows []Row, opts Options) (*Report, error) {
	start := time.Now()
	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}

	report := &Report{Sheet: opts.SheetName, Rows: len(rows)}

	if opts.Backup {
		backup, err := BackupFile(path)
		if err != nil {
			return nil, err
		}
		report.BackupPath = backup
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := OpenSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	usable := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := sheet.HeaderIndex(c); ok {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w (sheet %q)", ErrNoColumns, opts.SheetName)
	}
	if dropped := len(columns) - len(usable); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Input columns missing from sheet header are ignored")
	}
	report.Columns = usable

	log.Info().
		Str("sheet", sheet.Name()).
		Int("extent", sheet.Extent()).
		Int("columns", len(usable)).
		Int("rows", len(rows)).
		Msg("Synchronizing sheet")

	cls, err := Classify(sheet, usable, opts.ScanLimit)
	if err != nil {
		return nil, err
	}
	report.FormulaCells = len(cls.Formula)
	report.MergedCells = len(cls.Merged)

	if err := WriteRows(sheet, rows, cls, policy, opts.Progress); err != nil {
		return nil, err
	}

	report.LastRow = LastRow(len(rows))
	if report.Blanked, err = Reconcile(sheet, report.LastRow, cls); err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		if report.Formatted, err = ApplyDateFormats(sheet, policy, FirstDataRow, report.LastRow); err != nil {
			return nil, err
		}
	}

	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}

	report.Elapsed = time.Since(start)
	log.Info().
		Str("path", path).
		Int("rows", report.Rows).
		Int("blanked", report.Blanked).
		Int("formatted", report.Formatted).
		Dur("elapsed", report.Elapsed).
		Msg("Workbook saved")
	return report, nil
}

// BackupPath returns <base>.backup<ext> for path.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".backup" + ext
}

// BackupFile copies path to BackupPath(path), replacing any earlier backup.
func BackupFile(path string) (string, error) {
	dst := BackupPath(path)
	if err := CopyFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to back up workbook: %w", err)
	}
	log.Info().Str("backup", dst).Msg("Workbook backed up")
	return dst, nil
}

// CopyFile copies src to dst, creating dst's directory when needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
