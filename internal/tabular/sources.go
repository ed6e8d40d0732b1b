package tabular

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/model"
)

// Extract files name the tax identifier either "ein" or "EIN" depending on
// the year they were published.
var extractKeyVariants = []string{"ein", "EIN"}

// LoadExtract loads the tax identifier and contribution total columns of a
// government extract. The identifier column is found under whichever known
// spelling the file uses and is renamed to KeyColumn with values normalized.
func LoadExtract(path string, form model.ExtractForm) (*Table, error) {
	contrib := form.ContributionColumn()

	var lastErr error
	for _, keyCol := range extractKeyVariants {
		t, err := ReadCSV(path, ReadOptions{Columns: []string{keyCol, contrib}})
		if err != nil {
			var mce *MissingColumnError
			if errors.As(err, &mce) {
				lastErr = err
				continue
			}
			return nil, eris.Wrapf(err, "tabular: load %s extract", form)
		}
		if keyCol != KeyColumn {
			if err := t.Rename(keyCol, KeyColumn); err != nil {
				return nil, err
			}
		}
		if err := NormalizeKey(t, KeyColumn); err != nil {
			return nil, err
		}
		zap.L().Debug("tabular: loaded extract",
			zap.String("path", path),
			zap.String("form", string(form)),
			zap.String("key_column", keyCol),
			zap.Int("rows", t.Len()),
		)
		return t, nil
	}
	return nil, eris.Wrapf(lastErr, "tabular: load %s extract", form)
}

// ExtractRecords converts a loaded extract into typed records. Null
// contribution totals count as zero.
func ExtractRecords(t *Table, form model.ExtractForm) ([]model.TaxExtractRecord, error) {
	contrib := form.ContributionColumn()
	if !t.Has(KeyColumn) || !t.Has(contrib) {
		return nil, eris.Errorf("tabular: %s extract table lacks %s/%s", form, KeyColumn, contrib)
	}
	out := make([]model.TaxExtractRecord, 0, t.Len())
	for i := range t.Rows {
		n, err := parseWhole(t.Get(i, contrib))
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: %s extract row %d", form, i+1)
		}
		out = append(out, model.TaxExtractRecord{
			TaxID:             t.Get(i, KeyColumn).Value,
			ContributionTotal: n,
		})
	}
	return out, nil
}

// SumContributions totals the contribution column of an extract.
func SumContributions(t *Table, form model.ExtractForm) (int64, error) {
	recs, err := ExtractRecords(t, form)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range recs {
		total += r.ContributionTotal
	}
	return total, nil
}

// parseWhole parses an integer cell; spreadsheet exports sometimes render
// integers as "1200.0".
func parseWhole(c Cell) (int64, error) {
	if !c.Valid {
		return 0, nil
	}
	s := strings.TrimSpace(c.Value)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, eris.Errorf("value %q is not an integer", s)
	}
	return int64(f), nil
}

// State master-file columns kept for the state organization report.
var bmfColumns = []string{"EIN", "NAME", "STREET", "CITY", "STATE", "ZIP"}

// LoadBMF loads a state exempt-organization master file, normalizes its tax
// identifiers and splits ZIP+4 into ZIP_PART_1 and ZIP_PART_2.
func LoadBMF(path string) (*Table, error) {
	t, err := ReadCSV(path, ReadOptions{Columns: bmfColumns})
	if err != nil {
		return nil, eris.Wrap(err, "tabular: load master file")
	}
	if err := NormalizeKey(t, KeyColumn); err != nil {
		return nil, err
	}
	if err := SplitColumn(t, "ZIP", "-", "ZIP_PART_1", "ZIP_PART_2"); err != nil {
		return nil, err
	}
	return t, nil
}

// Curated list column names.
const (
	CuratedKeyColumn  = "EIN"
	CuratedNameColumn = "Name"
)

// LoadCurated loads the EIN and Name columns of the curated roster.
// skipRows lines before the header are ignored.
func LoadCurated(path string, skipRows int) (*Table, error) {
	t, err := ReadCSV(path, ReadOptions{
		Columns:  []string{CuratedKeyColumn, CuratedNameColumn},
		SkipRows: skipRows,
	})
	if err != nil {
		return nil, eris.Wrap(err, "tabular: load curated list")
	}
	if err := NormalizeKey(t, CuratedKeyColumn); err != nil {
		return nil, err
	}
	return t, nil
}

// CuratedRecords converts a loaded curated table into typed records.
func CuratedRecords(t *Table) []model.CuratedListRecord {
	out := make([]model.CuratedListRecord, 0, t.Len())
	for i := range t.Rows {
		out = append(out, model.CuratedListRecord{
			TaxID: t.Get(i, CuratedKeyColumn).Value,
			Name:  t.Get(i, CuratedNameColumn).Value,
		})
	}
	return out
}
