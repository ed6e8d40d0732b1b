// Package layout names the files the pipeline reads and writes under its
// input and output roots.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/giving-cli/internal/model"
)

// Report file names, keyed by what they contain.
const (
	RegionalOrgsFile = "greater_boston_orgs.csv"
	SummaryFile      = "summary.yaml"
)

// Layout is the on-disk state of a run.
type Layout struct {
	InputRoot  string
	OutputRoot string
}

// New creates a Layout.
func New(inputRoot, outputRoot string) Layout {
	return Layout{InputRoot: inputRoot, OutputRoot: outputRoot}
}

// EnsureDirs creates the input and output roots.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.InputRoot, l.OutputRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "layout: create %s", dir)
		}
	}
	return nil
}

// YearInputDir holds the downloaded extracts for year.
func (l Layout) YearInputDir(year int) string {
	return filepath.Join(l.InputRoot, strconv.Itoa(year))
}

// YearOutputDir holds the reports for year.
func (l Layout) YearOutputDir(year int) string {
	return filepath.Join(l.OutputRoot, strconv.Itoa(year))
}

// Download is where a named download for year is stored.
func (l Layout) Download(year int, name, ext string) string {
	return filepath.Join(l.YearInputDir(year), name+ext)
}

// ExtractCSV is the converted extract of form for year, e.g.
// input_files/2021/Form 990 Extract (2021).csv.
func (l Layout) ExtractCSV(year int, form model.ExtractForm) string {
	return filepath.Join(l.YearInputDir(year), fmt.Sprintf("Form %s Extract (%d).csv", form, year))
}

// CuratedDir holds the curated index list downloads.
func (l Layout) CuratedDir() string {
	return filepath.Join(l.InputRoot, "WGI")
}

// StateFile is where the state master file named base is stored.
func (l Layout) StateFile(base string) string {
	return filepath.Join(l.InputRoot, base)
}

// RegionalOrgs is the canonical regional organization table.
func (l Layout) RegionalOrgs() string {
	return filepath.Join(l.OutputRoot, RegionalOrgsFile)
}

// StateReport is the statewide master-file report for year.
func (l Layout) StateReport(year int) string {
	return filepath.Join(l.YearOutputDir(year), StateReportName(year))
}

// RegionalReport is the regional report for year.
func (l Layout) RegionalReport(year int) string {
	return filepath.Join(l.YearOutputDir(year), RegionalReportName(year))
}

// CuratedReport is the curated-membership report for year.
func (l Layout) CuratedReport(year int) string {
	return filepath.Join(l.YearOutputDir(year), CuratedReportName(year))
}

// Summary is the run summary manifest for year.
func (l Layout) Summary(year int) string {
	return filepath.Join(l.YearOutputDir(year), SummaryFile)
}

// StateReportName is the base name of the statewide report.
func StateReportName(year int) string { return fmt.Sprintf("MA_orgs_report%d.csv", year) }

// RegionalReportName is the base name of the regional report.
func RegionalReportName(year int) string { return fmt.Sprintf("greater_boston_report%d.csv", year) }

// CuratedReportName is the base name of the curated-membership report.
func CuratedReportName(year int) string {
	return fmt.Sprintf("wgi_greater_boston_report%d.csv", year)
}

// ReportNames lists every file a run writes for year.
func ReportNames(year int) []string {
	return []string{
		StateReportName(year),
		RegionalReportName(year),
		CuratedReportName(year),
		SummaryFile,
	}
}
