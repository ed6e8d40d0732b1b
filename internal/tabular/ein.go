package tabular

import "strings"

// KeyColumn is the canonical tax identifier column used for every join.
const KeyColumn = "EIN"

// NormalizeEIN reduces a tax identifier to its canonical nine-digit form.
// "04-2104321", "42104321" and "042104321.0" all become "042104321". A value
// with no digits normalizes to "" and never matches anything.
func NormalizeEIN(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if d == "" {
		return ""
	}
	if len(d) < 9 {
		d = strings.Repeat("0", 9-len(d)) + d
	}
	return d
}

// NormalizeKey rewrites col in place with NormalizeEIN; values that
// normalize to "" become null.
func NormalizeKey(t *Table, col string) error {
	return t.MapColumn(col, func(c Cell) Cell {
		if !c.Valid {
			return c
		}
		if n := NormalizeEIN(c.Value); n != "" {
			return Str(n)
		}
		return Null
	})
}
