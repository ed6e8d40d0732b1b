// Package region decides whether an organization's postal code falls inside
// the target metro area.
package region

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Set is a fixed set of 5-digit postal codes.
type Set struct {
	codes map[int]struct{}
}

// NewSet builds a Set from the given codes.
func NewSet(codes ...int) *Set {
	s := &Set{codes: make(map[int]struct{}, len(codes))}
	for _, c := range codes {
		s.codes[c] = struct{}{}
	}
	return s
}

// GreaterBoston returns the built-in Greater Boston region.
func GreaterBoston() *Set {
	return NewSet(greaterBoston...)
}

// Contains reports whether zip is in the set.
func (s *Set) Contains(zip int) bool {
	_, ok := s.codes[zip]
	return ok
}

// InRegion parses raw and reports membership. Malformed codes are never in
// the region.
func (s *Set) InRegion(raw string) bool {
	zip, ok := ParseZIP(raw)
	return ok && s.Contains(zip)
}

// Len returns the number of codes in the set.
func (s *Set) Len() int {
	return len(s.codes)
}

// ParseZIP parses a 5-digit or ZIP+4 postal code. Leading zeros may be
// missing ("2134" is 02134).
func ParseZIP(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '-'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || len(raw) > 5 {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	zip, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return zip, true
}

// zipColumns are the header names accepted by LoadCSV, compared case-insensitively.
var zipColumns = []string{"zip code", "zip", "zipcode", "postal code"}

// LoadCSV reads a region definition from a CSV file with a ZIP column.
// Rows whose code does not parse are skipped.
func LoadCSV(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "region: open zip file")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "region: read header")
	}
	col := -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, want := range zipColumns {
			if name == want {
				col = i
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, eris.Errorf("region: %s has no zip column", path)
	}

	s := NewSet()
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "region: read row")
		}
		if col >= len(rec) {
			continue
		}
		if zip, ok := ParseZIP(rec[col]); ok {
			s.codes[zip] = struct{}{}
		}
	}
	if s.Len() == 0 {
		return nil, eris.Errorf("region: %s contains no valid zip codes", path)
	}
	return s, nil
}
