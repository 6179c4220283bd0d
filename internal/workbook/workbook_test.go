package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSheet = "BBDDcoste"

var testHeader = []string{"SERIE", "FECHA", "JORNADA", "IMPORTE", "COSTE", "CREDITO", "TOTAL"}

// newTemplate saves a workbook with testHeader in row 1 of testSheet and
// returns its path. setup may add formulas, merges or stale data.
func newTemplate(t *testing.T, setup func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.SetSheetName("Sheet1", testSheet))
	header := make([]any, len(testHeader))
	for i, h := range testHeader {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow(testSheet, "A1", &header))
	if setup != nil {
		setup(f)
	}

	path := filepath.Join(t.TempDir(), "Daily.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			"SERIE":   fmt.Sprintf("%03d", i),
			"FECHA":   "3/2/2025 21:05",
			"JORNADA": "3/2/2025",
			"IMPORTE": fmt.Sprintf("%d,50", i),
			"COSTE":   "1.5",
			"CREDITO": "x",
		}
	}
	return rows
}

var syncColumns = []string{"SERIE", "FECHA", "JORNADA", "IMPORTE", "COSTE", "CREDITO"}

func syncOpts() Options {
	return Options{SheetName: testSheet}
}

func openBook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func value(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(testSheet, cell)
	require.NoError(t, err)
	return v
}

func rawValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(testSheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func numFmt(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(testSheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if style.CustomNumFmt == nil {
		return ""
	}
	return *style.CustomNumFmt
}

func TestSynchronizeWritesTypedValues(t *testing.T) {
	path := newTemplate(t, nil)
	rows := []Row{{
		"SERIE":   "007",
		"FECHA":   "3/2/2025 21:05",
		"JORNADA": "2025-02-03",
		"IMPORTE": "1.234,56",
		"COSTE":   "n/a",
		"CREDITO": "None",
	}}

	report, err := Synchronize(path, syncColumns, rows, syncOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 2, report.LastRow)
	assert.Equal(t, 2, report.Formatted)

	f := openBook(t, path)
	assert.Equal(t, "007", value(t, f, "A2"), "text column keeps leading zeros")
	assert.Equal(t, "1234.56", rawValue(t, f, "D2"))
	assert.Equal(t, "n/a", value(t, f, "E2"), "unparsable numeric keeps its text")
	assert.Equal(t, "", value(t, f, "F2"))
	assert.Equal(t, "45691", rawValue(t, f, "C2"))

	assert.Equal(t, DateTimeFormat, numFmt(t, f, "B2"))
	assert.Equal(t, DateFormat, numFmt(t, f, "C2"))
}

func TestSynchronizeUnparsableDateKeepsText(t *testing.T) {
	path := newTemplate(t, nil)
	rows := []Row{{"FECHA": "ayer", "JORNADA": "31/02/2025"}}

	report, err := Synchronize(path, []string{"FECHA", "JORNADA"}, rows, syncOpts())
	require.NoError(t, err)
	assert.Zero(t, report.Formatted)

	f := openBook(t, path)
	assert.Equal(t, "ayer", value(t, f, "B2"))
	assert.Equal(t, "31/02/2025", value(t, f, "C2"))
}

func TestSynchronizePreservesFormulas(t *testing.T) {
	path := newTemplate(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula(testSheet, "E3", "D3*2"))
		require.NoError(t, f.SetCellStr(testSheet, "E4", "=literal"))
		require.NoError(t, f.SetCellFormula(testSheet, "E9", "SUM(D2:D8)"))
	})

	for _, n := range []int{10, 3} {
		report, err := Synchronize(path, syncColumns, makeRows(n), syncOpts())
		require.NoError(t, err)
		assert.Equal(t, 3, report.FormulaCells)
	}

	f := openBook(t, path)
	formula, err := f.GetCellFormula(testSheet, "E3")
	require.NoError(t, err)
	assert.Equal(t, "D3*2", formula)
	formula, err = f.GetCellFormula(testSheet, "E9")
	require.NoError(t, err)
	assert.Equal(t, "SUM(D2:D8)", formula)
	assert.Equal(t, "=literal", value(t, f, "E4"))

	assert.Equal(t, "1.5", rawValue(t, f, "E2"))
	assert.Equal(t, "", value(t, f, "D9"), "stale unprotected cell next to a formula is blanked")
}

func TestSynchronizeSkipsMergedMembers(t *testing.T) {
	path := newTemplate(t, func(f *excelize.File) {
		require.NoError(t, f.MergeCell(testSheet, "A5", "B6"))
	})

	report, err := Synchronize(path, syncColumns, makeRows(6), syncOpts())
	require.NoError(t, err)
	assert.Equal(t, 3, report.MergedCells)

	f := openBook(t, path)
	assert.Equal(t, "003", value(t, f, "A5"), "anchor holds its own row, not a member's")
	assert.Equal(t, "4.5", rawValue(t, f, "D6"))
	assert.Equal(t, "005", value(t, f, "A7"))
}

func TestSynchronizeShrinkBlanksStaleTail(t *testing.T) {
	path := newTemplate(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula(testSheet, "E80", "D80+1"))
	})

	_, err := Synchronize(path, syncColumns, makeRows(100), syncOpts())
	require.NoError(t, err)

	report, err := Synchronize(path, syncColumns, makeRows(60), syncOpts())
	require.NoError(t, err)
	assert.Equal(t, 61, report.LastRow)
	assert.Equal(t, 40*len(syncColumns)-1, report.Blanked)

	f := openBook(t, path)
	assert.Equal(t, "059", value(t, f, "A61"))
	for row := 62; row <= 101; row++ {
		for _, col := range []string{"A", "B", "C", "D", "F"} {
			assert.Equal(t, "", value(t, f, fmt.Sprintf("%s%d", col, row)), "%s%d", col, row)
		}
	}
	formula, err := f.GetCellFormula(testSheet, "E80")
	require.NoError(t, err)
	assert.Equal(t, "D80+1", formula)
	assert.Equal(t, "x", value(t, f, "F61"))
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	setup := func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula(testSheet, "E4", "D4*2"))
		require.NoError(t, f.MergeCell(testSheet, "A7", "A8"))
	}
	first := newTemplate(t, setup)
	second := newTemplate(t, setup)
	rows := makeRows(12)

	_, err := Synchronize(first, syncColumns, rows, syncOpts())
	require.NoError(t, err)
	_, err = Synchronize(second, syncColumns, rows, syncOpts())
	require.NoError(t, err)
	_, err = Synchronize(second, syncColumns, rows, syncOpts())
	require.NoError(t, err)

	a, err := openBook(t, first).GetRows(testSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	b, err := openBook(t, second).GetRows(testSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSynchronizeWithoutRowsBlanksEverything(t *testing.T) {
	path := newTemplate(t, nil)
	_, err := Synchronize(path, syncColumns, makeRows(5), syncOpts())
	require.NoError(t, err)

	report, err := Synchronize(path, syncColumns, nil, syncOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, report.LastRow)
	assert.Equal(t, 5*len(syncColumns), report.Blanked)
	assert.Zero(t, report.Formatted)

	f := openBook(t, path)
	assert.Equal(t, "SERIE", value(t, f, "A1"))
	assert.Equal(t, "", value(t, f, "A2"))
}

func TestSynchronizeStructuralErrorsLeaveFileUntouched(t *testing.T) {
	path := newTemplate(t, func(f *excelize.File) {
		_, err := f.NewSheet("Vacia")
		require.NoError(t, err)
	})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = Synchronize(path, syncColumns, makeRows(1), Options{SheetName: "Missing"})
	assert.ErrorIs(t, err, ErrSheetNotFound)

	_, err = Synchronize(path, syncColumns, makeRows(1), Options{SheetName: "Vacia"})
	assert.ErrorIs(t, err, ErrEmptyHeader)

	_, err = Synchronize(path, []string{"NOPE"}, makeRows(1), syncOpts())
	assert.ErrorIs(t, err, ErrNoColumns)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSynchronizeBackup(t *testing.T) {
	path := newTemplate(t, nil)
	opts := syncOpts()
	opts.Backup = true

	report, err := Synchronize(path, syncColumns, makeRows(2), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "Daily.backup.xlsx"), report.BackupPath)

	backup := openBook(t, report.BackupPath)
	v, err := backup.GetCellValue(testSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "", v, "backup is taken before writing")
}

func TestSynchronizeReportsProgress(t *testing.T) {
	path := newTemplate(t, nil)
	opts := syncOpts()
	var calls [][2]int
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

	_, err := Synchronize(path, syncColumns, makeRows(2500), opts)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1000, 2500}, {2000, 2500}, {2500, 2500}}, calls)
}

func TestClassifyScanLimit(t *testing.T) {
	path := newTemplate(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellFormula(testSheet, "E3", "1+1"))
		require.NoError(t, f.SetCellFormula(testSheet, "E6", "1+2"))
	})
	f := openBook(t, path)
	sheet, err := OpenSheet(f, testSheet)
	require.NoError(t, err)
	assert.Equal(t, 6, sheet.Extent())

	cls, err := Classify(sheet, []string{"COSTE"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cls.ScannedTo)
	assert.True(t, cls.IsFormula(3, 5))
	assert.False(t, cls.IsFormula(6, 5), "rows past the scan limit are not inspected")

	_, err = Classify(sheet, []string{"COSTE", "NOPE"}, 0)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestColumnIndex(t *testing.T) {
	ci, err := NewColumnIndex([]string{"A", "B", "A", "C"}, []string{"C", "A", "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, ci.Names())
	i, ok := ci.Index("A")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	i, _ = ci.Index("C")
	assert.Equal(t, 4, i)
	_, ok = ci.Index("B")
	assert.False(t, ok)
}

func TestLastRow(t *testing.T) {
	assert.Equal(t, 1, LastRow(0))
	assert.Equal(t, 2, LastRow(1))
	assert.Equal(t, 101, LastRow(100))
}
