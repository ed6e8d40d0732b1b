package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// MissingColumnError reports requested columns absent from a file header.
type MissingColumnError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "tabular: " + e.Path + ": missing columns " + strings.Join(e.Columns, ", ")
}

// ReadOptions configures ReadCSV.
type ReadOptions struct {
	// Columns selects and orders the columns to keep; nil keeps all.
	Columns []string
	// SkipRows is the number of lines before the header row.
	SkipRows int
}

// ReadCSV loads a delimited file with a header row. Empty fields load as null.
func ReadCSV(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := readCSV(f, opts)
	if err != nil {
		var mce *MissingColumnError
		if errors.As(err, &mce) {
			mce.Path = path
			return nil, mce
		}
		return nil, eris.Wrapf(err, "tabular: read %s", path)
	}
	return t, nil
}

func readCSV(r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, eris.Wrap(err, "skip leading rows")
		}
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	cols := opts.Columns
	if cols == nil {
		cols = header
	}
	idx := make([]int, len(cols))
	var missing []string
	for k, c := range cols {
		idx[k] = -1
		for j, h := range header {
			if h == c {
				idx[k] = j
				break
			}
		}
		if idx[k] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	t := New(cols...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read row")
		}
		row := make([]Cell, len(cols))
		for k, j := range idx {
			if j < len(rec) && rec[j] != "" {
				row[k] = Str(rec[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV writes t with a header row. Nulls are written as empty fields.
// The file is written beside path and renamed into place so a failed write
// never leaves a truncated report behind.
func WriteCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "tabular: create output dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "tabular: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := writeCSV(tmp, t); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "tabular: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "tabular: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "tabular: rename into place")
	}
	return nil
}

func writeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "write header")
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) && row[j].Valid {
				rec[j] = row[j].Value
			}
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return cw.Error()
}
