// Package report orchestrates a yearly run: it ensures the canonical
// regional table, loads the government extracts and curated list, joins
// them, and writes the per-year reports and manifest.
package report

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/fetcher"
	"github.com/sells-group/giving-cli/internal/irs"
	"github.com/sells-group/giving-cli/internal/layout"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/orgtable"
	"github.com/sells-group/giving-cli/internal/store"
	"github.com/sells-group/giving-cli/internal/tabular"
)

// Step names recorded in the run log.
const (
	StepRegionalOrgs   = "regional_orgs"
	StepExtracts       = "extracts"
	StepStateReport    = "state_report"
	StepRegionalReport = "regional_report"
	StepCuratedReport  = "curated_report"
	StepSummary        = "summary"
)

// Match modes for the curated membership flag.
const (
	MatchByEIN  = "ein"
	MatchByName = "name"
)

// FlagColumn is the curated membership column of the curated report.
const FlagColumn = "w&g_organization"

const curatedSignal = "_curated_match"

// OrgSource provides the canonical regional table.
type OrgSource interface {
	Ensure(ctx context.Context, path, state string, force bool) (*orgtable.BuildResult, error)
}

// LinkSource discovers download links.
type LinkSource interface {
	YearLinks(ctx context.Context, year int) ([]irs.Link, error)
	StateFileLink(ctx context.Context, text string) (irs.Link, error)
	CuratedListLink(ctx context.Context) (irs.Link, error)
}

// Options controls a Generator.
type Options struct {
	State           string
	StateLink       string
	CuratedPath     string
	CuratedSkipRows int
	// CuratedSheet names the worksheet of a spreadsheet curated list; empty
	// means the first sheet.
	CuratedSheet string
	MatchBy      string
	// Force re-fetches and rebuilds cached inputs.
	Force          bool
	RefreshCurated bool
}

// Generator produces the yearly reports.
type Generator struct {
	orgs   OrgSource
	links  LinkSource
	fetch  fetcher.Fetcher
	store  store.Store
	layout layout.Layout
	opts   Options
	now    func() time.Time
}

// New creates a Generator.
func New(orgs OrgSource, links LinkSource, f fetcher.Fetcher, st store.Store, l layout.Layout, opts Options) *Generator {
	if opts.MatchBy == "" {
		opts.MatchBy = MatchByEIN
	}
	if opts.StateLink == "" {
		opts.StateLink = "Massachusetts"
	}
	if st == nil {
		st = store.NewNop()
	}
	return &Generator{
		orgs:   orgs,
		links:  links,
		fetch:  f,
		store:  st,
		layout: l,
		opts:   opts,
		now:    time.Now,
	}
}

// Run generates every report for year. Step failures come back annotated
// with the step name and year; the manifest records the outcome either way.
func (g *Generator) Run(ctx context.Context, year int) (*model.Summary, error) {
	log := zap.L().With(zap.Int("year", year))
	log.Info("report: starting run")

	if err := g.layout.EnsureDirs(); err != nil {
		return nil, err
	}

	run, err := g.store.CreateRun(ctx, year)
	if err != nil {
		return nil, eris.Wrap(err, "report: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	trackStep := func(name string, fn func() error) error {
		step, stepErr := g.store.StartStep(ctx, run.ID, name)
		if stepErr != nil {
			log.Warn("report: failed to record step", zap.String("step", name), zap.Error(stepErr))
		}

		start := time.Now()
		fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if fnErr != nil {
			log.Error("report: step failed",
				zap.String("step", name),
				zap.String("kind", string(failure.KindOf(fnErr))),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("report: step complete", zap.String("step", name), zap.Int64("duration_ms", duration))
		}

		if step != nil {
			if err := g.store.FinishStep(ctx, step.ID, fnErr); err != nil {
				log.Warn("report: failed to finish step", zap.String("step", name), zap.Error(err))
			}
		}
		return failure.WithStep(fnErr, name, year)
	}

	fail := func(err error) (*model.Summary, error) {
		step, _ := failure.StepOf(err)
		if ferr := g.store.FailRun(ctx, run.ID, err); ferr != nil {
			log.Warn("report: failed to record run failure", zap.Error(ferr))
		}
		m := &Manifest{
			RunID:       run.ID,
			Year:        year,
			Status:      model.RunStatusFailed,
			FailedStep:  step,
			Error:       err.Error(),
			GeneratedAt: g.now().UTC(),
		}
		if merr := WriteManifest(g.layout.Summary(year), m); merr != nil {
			log.Warn("report: failed to write manifest", zap.Error(merr))
		}
		return nil, err
	}

	summary := &model.Summary{Year: year}

	// The directory and the extracts are independent sources; a directory
	// failure is reported only after the extracts have been attempted.
	var orgs []model.Organization
	dirErr := trackStep(StepRegionalOrgs, func() error {
		res, err := g.orgs.Ensure(ctx, g.layout.RegionalOrgs(), g.opts.State, g.opts.Force)
		if err != nil {
			return err
		}
		orgs = res.Organizations
		summary.EnrichmentFailures = len(res.Failures)
		summary.ExcludedRevenue = res.ExcludedRevenue
		summary.DirectoryTruncated = res.Truncated
		return nil
	})

	var extracts *Extracts
	if err := trackStep(StepExtracts, func() error {
		var err error
		extracts, err = g.DownloadExtracts(ctx, year)
		return err
	}); err != nil {
		return fail(err)
	}
	if dirErr != nil {
		return fail(dirErr)
	}

	summary.RegionalOrgs = len(orgs)
	summary.WithTaxID = orgtable.CountWithTaxID(orgs)
	summary.RegionalRevenue = orgtable.TotalRevenue(orgs)
	summary.TotalContributions = extracts.Total
	summary.Percent = model.PercentOf(summary.RegionalRevenue, summary.TotalContributions)

	if err := trackStep(StepStateReport, func() error {
		bmf, err := g.DownloadStateList(ctx)
		if err != nil {
			return err
		}
		t, err := joinExtracts(bmf, extracts)
		if err != nil {
			return err
		}
		return tabular.WriteCSV(g.layout.StateReport(year), t)
	}); err != nil {
		return fail(err)
	}

	var regional *tabular.Table
	if err := trackStep(StepRegionalReport, func() error {
		var err error
		regional, err = joinExtracts(orgtable.ToTable(orgs), extracts)
		if err != nil {
			return err
		}
		return tabular.WriteCSV(g.layout.RegionalReport(year), regional)
	}); err != nil {
		return fail(err)
	}

	if err := trackStep(StepCuratedReport, func() error {
		curated, err := g.CuratedList(ctx)
		if err != nil {
			return err
		}
		t, matches, err := FlagCurated(regional, curated, g.opts.MatchBy)
		if err != nil {
			return err
		}
		summary.CuratedMatches = matches
		return tabular.WriteCSV(g.layout.CuratedReport(year), t)
	}); err != nil {
		return fail(err)
	}

	summary.Reports = []string{
		layout.StateReportName(year),
		layout.RegionalReportName(year),
		layout.CuratedReportName(year),
	}

	if err := trackStep(StepSummary, func() error {
		return WriteManifest(g.layout.Summary(year), &Manifest{
			RunID:       run.ID,
			Year:        year,
			Status:      model.RunStatusComplete,
			GeneratedAt: g.now().UTC(),
			Summary:     summary,
		})
	}); err != nil {
		return fail(err)
	}

	if err := g.store.CompleteRun(ctx, run.ID, summary); err != nil {
		log.Warn("report: failed to record run completion", zap.Error(err))
	}

	log.Info("report: run complete",
		zap.Int("regional_orgs", summary.RegionalOrgs),
		zap.Int64("regional_revenue", summary.RegionalRevenue),
		zap.Int64("total_contributions", summary.TotalContributions),
		zap.Float64("percent_contribution", summary.Percent),
	)
	return summary, nil
}

// joinExtracts left-joins the Form 990 then Form 990-EZ extracts onto t.
func joinExtracts(t *tabular.Table, ex *Extracts) (*tabular.Table, error) {
	joined, err := tabular.LeftJoin(t, ex.Form990, tabular.KeyColumn)
	if err != nil {
		return nil, eris.Wrap(err, "report: join Form 990 extract")
	}
	joined, err = tabular.LeftJoin(joined, ex.Form990EZ, tabular.KeyColumn)
	if err != nil {
		return nil, eris.Wrap(err, "report: join Form 990-EZ extract")
	}
	return joined, nil
}

// FlagCurated adds FlagColumn to a copy of the regional report: Yes where
// the organization is on the curated list, No elsewhere. MatchByEIN joins
// on the tax identifier; MatchByName compares folded organization names.
// Returns the flagged table and the number of Yes rows.
func FlagCurated(regional, curated *tabular.Table, matchBy string) (*tabular.Table, int, error) {
	var t *tabular.Table
	switch matchBy {
	case MatchByEIN:
		signal := tabular.New(tabular.KeyColumn, curatedSignal)
		for i := range curated.Rows {
			signal.Append(curated.Get(i, tabular.CuratedKeyColumn), curated.Get(i, tabular.CuratedNameColumn))
		}
		joined, err := tabular.LeftJoin(regional, signal, tabular.KeyColumn)
		if err != nil {
			return nil, 0, eris.Wrap(err, "report: join curated list")
		}
		t = joined
	case MatchByName:
		t = &tabular.Table{Columns: append([]string(nil), regional.Columns...)}
		for _, row := range regional.Rows {
			t.Rows = append(t.Rows, append([]tabular.Cell(nil), row...))
		}
		if err := tabular.AttachNameMatches(t, "name", curated, tabular.CuratedNameColumn, curatedSignal); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, eris.Errorf("report: unknown curated match mode %q", matchBy)
	}

	n, err := tabular.FlagMembership(t, curatedSignal, FlagColumn)
	if err != nil {
		return nil, 0, err
	}
	return t, n, nil
}

// Outputs lists the report files present for year.
func Outputs(l layout.Layout, year int) []string {
	var out []string
	for _, name := range layout.ReportNames(year) {
		if fileExists(filepath.Join(l.YearOutputDir(year), name)) {
			out = append(out, name)
		}
	}
	return out
}

// YearsWithOutputs lists the years that have an output directory.
func YearsWithOutputs(l layout.Layout) ([]int, error) {
	entries, err := os.ReadDir(l.OutputRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "report: list output root")
	}
	var years []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if y, err := strconv.Atoi(e.Name()); err == nil {
			years = append(years, y)
		}
	}
	return years, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
