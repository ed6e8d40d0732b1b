package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
)

// RightSuffix is appended to right-table columns whose names collide with a
// left-table column.
const RightSuffix = "_right"

// LeftJoin joins right onto left by key. Every left row is kept. A left row
// matching n right rows appears n times; a left row with a null or
// unmatched key appears once with null right cells. Right rows matching no
// left row are dropped. The right key column is not repeated in the output.
func LeftJoin(left, right *Table, key string) (*Table, error) {
	lk := left.Index(key)
	if lk < 0 {
		return nil, eris.Errorf("tabular: left join: left table has no %q column", key)
	}
	rk := right.Index(key)
	if rk < 0 {
		return nil, eris.Errorf("tabular: left join: right table has no %q column", key)
	}

	rightCols := make([]int, 0, len(right.Columns)-1)
	out := New(left.Columns...)
	for j, c := range right.Columns {
		if j == rk {
			continue
		}
		rightCols = append(rightCols, j)
		if out.Has(c) {
			c += RightSuffix
		}
		out.Columns = append(out.Columns, c)
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		if k := row[rk]; k.Valid && k.Value != "" {
			index[k.Value] = append(index[k.Value], i)
		}
	}

	for _, lrow := range left.Rows {
		var matches []int
		if k := lrow[lk]; k.Valid && k.Value != "" {
			matches = index[k.Value]
		}
		if len(matches) == 0 {
			row := make([]Cell, len(out.Columns))
			copy(row, lrow)
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, ri := range matches {
			row := make([]Cell, 0, len(out.Columns))
			row = append(row, lrow...)
			for _, j := range rightCols {
				row = append(row, right.Rows[ri][j])
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// SplitColumn splits col on the first sep into two new columns named first
// and second, then drops col. A value without sep yields a null second part;
// a null value yields two nulls.
func SplitColumn(t *Table, col, sep, first, second string) error {
	j := t.Index(col)
	if j < 0 {
		return eris.Errorf("tabular: split: no column %q", col)
	}
	parts := make([][2]Cell, len(t.Rows))
	for i, row := range t.Rows {
		c := row[j]
		if !c.Valid {
			continue
		}
		head, tail, found := strings.Cut(c.Value, sep)
		parts[i][0] = Str(head)
		if found && tail != "" {
			parts[i][1] = Str(tail)
		}
	}
	if err := t.AddColumn(first, func(i int) Cell { return parts[i][0] }); err != nil {
		return err
	}
	if err := t.AddColumn(second, func(i int) Cell { return parts[i][1] }); err != nil {
		return err
	}
	t.Drop(col)
	return nil
}

// Membership flag values.
const (
	FlagYes = "Yes"
	FlagNo  = "No"
)

// FlagMembership adds flagCol set to Yes where signalCol is non-null and No
// elsewhere, then drops signalCol. It returns the number of Yes rows.
func FlagMembership(t *Table, signalCol, flagCol string) (int, error) {
	j := t.Index(signalCol)
	if j < 0 {
		return 0, eris.Errorf("tabular: flag: no column %q", signalCol)
	}
	yes := 0
	err := t.AddColumn(flagCol, func(i int) Cell {
		if t.Rows[i][j].Valid {
			yes++
			return Str(FlagYes)
		}
		return Str(FlagNo)
	})
	if err != nil {
		return 0, err
	}
	t.Drop(signalCol)
	return yes, nil
}

// AttachNameMatches adds signalCol holding the matching curated name for
// every row whose nameCol folds to the same value as a curated name.
func AttachNameMatches(t *Table, nameCol string, curated *Table, curatedNameCol, signalCol string) error {
	if !t.Has(nameCol) {
		return eris.Errorf("tabular: name match: no column %q", nameCol)
	}
	names, err := curated.Column(curatedNameCol)
	if err != nil {
		return err
	}
	byFolded := make(map[string]string, len(names))
	for _, n := range names {
		if !n.Valid {
			continue
		}
		if f := FoldName(n.Value); f != "" {
			if _, ok := byFolded[f]; !ok {
				byFolded[f] = n.Value
			}
		}
	}
	j := t.Index(nameCol)
	return t.AddColumn(signalCol, func(i int) Cell {
		c := t.Rows[i][j]
		if !c.Valid {
			return Null
		}
		if match, ok := byFolded[FoldName(c.Value)]; ok {
			return Str(match)
		}
		return Null
	})
}
