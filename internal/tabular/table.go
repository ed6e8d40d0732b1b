// Package tabular loads the delimited government and curated sources into
// in-memory tables, reconciles their identifier columns, and left-joins them
// onto the regional organization table.
package tabular

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Cell is one nullable value.
type Cell struct {
	Value string
	Valid bool
}

// Str returns a non-null cell.
func Str(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Null is the absent value.
var Null = Cell{}

// Table is a column-named, row-major table of nullable cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	return slices.Index(t.Columns, col)
}

// Has reports whether the table has col.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Append adds a row. Missing trailing cells are null.
func (t *Table) Append(cells ...Cell) {
	row := make([]Cell, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Get returns the cell at row i, column col (null if col is unknown).
func (t *Table) Get(i int, col string) Cell {
	j := t.Index(col)
	if j < 0 || i < 0 || i >= len(t.Rows) {
		return Null
	}
	return t.Rows[i][j]
}

// Column returns every value of col.
func (t *Table) Column(col string) ([]Cell, error) {
	j := t.Index(col)
	if j < 0 {
		return nil, eris.Errorf("tabular: no column %q", col)
	}
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out, nil
}

// Rename renames column from to to. Renaming a missing column is an error.
func (t *Table) Rename(from, to string) error {
	j := t.Index(from)
	if j < 0 {
		return eris.Errorf("tabular: rename: no column %q", from)
	}
	t.Columns[j] = to
	return nil
}

// Drop removes the named columns in place. Unknown names are ignored.
func (t *Table) Drop(cols ...string) {
	keep := make([]int, 0, len(t.Columns))
	for j, c := range t.Columns {
		if !slices.Contains(cols, c) {
			keep = append(keep, j)
		}
	}
	if len(keep) == len(t.Columns) {
		return
	}
	t.Columns = pick(t.Columns, keep)
	for i, row := range t.Rows {
		t.Rows[i] = pick(row, keep)
	}
}

// AddColumn appends a column whose value is computed per row.
func (t *Table) AddColumn(name string, fn func(i int) Cell) error {
	if t.Has(name) {
		return eris.Errorf("tabular: column %q already exists", name)
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fn(i))
	}
	return nil
}

// MapColumn replaces every value of col with fn(value).
func (t *Table) MapColumn(col string, fn func(Cell) Cell) error {
	j := t.Index(col)
	if j < 0 {
		return eris.Errorf("tabular: no column %q", col)
	}
	for _, row := range t.Rows {
		row[j] = fn(row[j])
	}
	return nil
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for k, j := range idx {
		out[k] = src[j]
	}
	return out
}
