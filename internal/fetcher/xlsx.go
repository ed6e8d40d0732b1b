package fetcher

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetName string // default is the first sheet
	SkipRows  int    // number of leading rows to skip
}

// ReadXLSX reads an XLSX file and returns all rows as string slices.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

// CSVPath returns src with its extension replaced by .csv.
func CSVPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".csv"
}

// ConvertXLSX writes one sheet of src to dest as CSV, header row included.
// An empty dest means src with a .csv extension. An existing dest is kept
// unless force is set. Returns the CSV path.
func ConvertXLSX(src, dest string, force bool, opts XLSXOptions) (string, error) {
	if dest == "" {
		dest = CSVPath(src)
	}
	if !force && exists(dest) {
		return dest, nil
	}

	zap.L().Info("fetcher: converting spreadsheet", zap.String("src", src), zap.String("dest", dest))
	rows, err := ReadXLSX(src, opts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", eris.Wrap(err, "xlsx: create output dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return "", eris.Wrap(err, "xlsx: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	w := csv.NewWriter(tmp)
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for _, row := range rows {
		// Trailing empty cells are not stored; pad to the header width.
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			tmp.Close() //nolint:errcheck
			return "", eris.Wrap(err, "xlsx: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close() //nolint:errcheck
		return "", eris.Wrap(err, "xlsx: flush csv")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "xlsx: close temp file")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", eris.Wrap(err, "xlsx: rename into place")
	}
	return dest, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
