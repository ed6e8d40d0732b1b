package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/model"
)

func TestPaths(t *testing.T) {
	l := New("in", "out")

	assert.Equal(t, filepath.Join("in", "2021", "Form 990 Extract (2021).csv"), l.ExtractCSV(2021, model.Form990))
	assert.Equal(t, filepath.Join("in", "2021", "Form 990-EZ Extract (2021).csv"), l.ExtractCSV(2021, model.Form990EZ))
	assert.Equal(t, filepath.Join("out", "greater_boston_orgs.csv"), l.RegionalOrgs())
	assert.Equal(t, filepath.Join("out", "2021", "MA_orgs_report2021.csv"), l.StateReport(2021))
	assert.Equal(t, filepath.Join("out", "2021", "greater_boston_report2021.csv"), l.RegionalReport(2021))
	assert.Equal(t, filepath.Join("out", "2021", "wgi_greater_boston_report2021.csv"), l.CuratedReport(2021))
	assert.Equal(t, filepath.Join("out", "2021", "summary.yaml"), l.Summary(2021))
	assert.Equal(t, filepath.Join("in", "WGI"), l.CuratedDir())
	assert.Equal(t, filepath.Join("in", "2021", "Form 990 Extract (2021).xlsx"), l.Download(2021, "Form 990 Extract (2021)", ".xlsx"))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	l := New(filepath.Join(root, "input_files"), filepath.Join(root, "output_files"))
	require.NoError(t, l.EnsureDirs())

	for _, dir := range []string{l.InputRoot, l.OutputRoot} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestReportNames(t *testing.T) {
	assert.Equal(t, []string{
		"MA_orgs_report2022.csv",
		"greater_boston_report2022.csv",
		"wgi_greater_boston_report2022.csv",
		"summary.yaml",
	}, ReportNames(2022))
}
