package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/model"
)

func TestManifest_WriteRead(t *testing.T) {
	p := filepath.Join(t.TempDir(), "2021", "summary.yaml")
	in := &Manifest{
		RunID:       "abc",
		Year:        2021,
		Status:      model.RunStatusComplete,
		GeneratedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Summary: &model.Summary{
			Year:               2021,
			RegionalRevenue:    500,
			TotalContributions: 2000,
			Percent:            25,
			Reports:            []string{"greater_boston_report2021.csv"},
		},
	}
	require.NoError(t, WriteManifest(p, in))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "percent_contribution: 25")
	assert.NotContains(t, string(raw), "failed_step")

	out, err := ReadManifest(p)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
