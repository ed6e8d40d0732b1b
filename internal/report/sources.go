package report

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/fetcher"
	"github.com/sells-group/giving-cli/internal/irs"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/tabular"
)

// Extracts holds the loaded government extracts for one year.
type Extracts struct {
	Form990   *tabular.Table
	Form990EZ *tabular.Table
	// Total is the sum of contributions over both full extracts.
	Total int64
}

// DownloadExtracts fetches and converts both extract forms for year, loads
// them, and totals their contributions.
func (g *Generator) DownloadExtracts(ctx context.Context, year int) (*Extracts, error) {
	links, err := g.links.YearLinks(ctx, year)
	if err != nil {
		return nil, err
	}

	byForm := make(map[model.ExtractForm]irs.Link)
	for _, l := range links {
		form, ok := l.Form()
		if !ok {
			continue
		}
		if _, dup := byForm[form]; dup {
			zap.L().Debug("report: ignoring extra extract link", zap.String("name", l.Name))
			continue
		}
		byForm[form] = l
	}

	forms := []model.ExtractForm{model.Form990, model.Form990EZ}
	for _, form := range forms {
		if _, ok := byForm[form]; !ok {
			return nil, failure.ShapeChanged(eris.Errorf("report: no Form %s extract listed for %d", form, year))
		}
	}

	out := &Extracts{}
	for _, form := range forms {
		link := byForm[form]

		csvPath, err := g.fetchTable(ctx, link, g.layout.Download(year, link.Name, linkExt(link.URL)), g.layout.ExtractCSV(year, form), fetcher.XLSXOptions{})
		if err != nil {
			return nil, err
		}

		t, err := tabular.LoadExtract(csvPath, form)
		if err != nil {
			return nil, failure.ShapeChanged(err)
		}
		sum, err := tabular.SumContributions(t, form)
		if err != nil {
			return nil, failure.ShapeChanged(err)
		}
		out.Total += sum

		zap.L().Info("report: extract loaded",
			zap.Int("year", year),
			zap.String("form", string(form)),
			zap.Int("rows", t.Len()),
			zap.Int64("contributions", sum),
		)
		if form == model.Form990 {
			out.Form990 = t
		} else {
			out.Form990EZ = t
		}
	}
	return out, nil
}

// DownloadStateList fetches the state master file and loads it.
func (g *Generator) DownloadStateList(ctx context.Context) (*tabular.Table, error) {
	link, err := g.links.StateFileLink(ctx, g.opts.StateLink)
	if err != nil {
		return nil, err
	}
	base := linkBase(link.URL, "eo_state.csv")
	csvPath, err := g.fetchTable(ctx, link, g.layout.StateFile(base), fetcher.CSVPath(g.layout.StateFile(base)), fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}
	t, err := tabular.LoadBMF(csvPath)
	if err != nil {
		return nil, failure.ShapeChanged(err)
	}
	return t, nil
}

// CuratedList returns the curated list table. The configured file is used
// when present; otherwise, or when refresh is requested, the latest list is
// downloaded from the index site. Leading rows are skipped while converting
// a spreadsheet, or while reading a delimited file.
func (g *Generator) CuratedList(ctx context.Context) (*tabular.Table, error) {
	xopts := fetcher.XLSXOptions{SheetName: g.opts.CuratedSheet, SkipRows: g.opts.CuratedSkipRows}

	p := g.opts.CuratedPath
	if p == "" || g.opts.RefreshCurated || !fileExists(p) {
		link, err := g.links.CuratedListLink(ctx)
		if err != nil {
			return nil, err
		}
		raw := filepath.Join(g.layout.CuratedDir(), linkBase(link.URL, "curated.xlsx"))
		if p, err = g.fetchTable(ctx, link, raw, fetcher.CSVPath(raw), xopts); err != nil {
			return nil, err
		}
		if isSpreadsheet(raw) {
			xopts.SkipRows = 0
		}
	} else if isSpreadsheet(p) {
		converted, err := fetcher.ConvertXLSX(p, "", g.opts.Force, xopts)
		if err != nil {
			return nil, failure.ShapeChanged(err)
		}
		p = converted
		xopts.SkipRows = 0
	}

	t, err := tabular.LoadCurated(p, xopts.SkipRows)
	if err != nil {
		return nil, failure.ShapeChanged(err)
	}
	return t, nil
}

// fetchTable downloads link to raw and returns a CSV path: raw itself for
// delimited downloads, or csvPath after converting a spreadsheet.
func (g *Generator) fetchTable(ctx context.Context, link irs.Link, raw, csvPath string, xopts fetcher.XLSXOptions) (string, error) {
	if _, err := g.fetch.DownloadToFile(ctx, link.URL, raw, g.opts.Force); err != nil {
		return "", eris.Wrapf(err, "report: download %s", link.Name)
	}
	if !isSpreadsheet(raw) {
		return raw, nil
	}
	out, err := fetcher.ConvertXLSX(raw, csvPath, g.opts.Force, xopts)
	if err != nil {
		return "", failure.ShapeChanged(eris.Wrapf(err, "report: convert %s", link.Name))
	}
	return out, nil
}

func linkExt(rawURL string) string {
	ext := strings.ToLower(path.Ext(urlPath(rawURL)))
	if ext == "" {
		return ".xlsx"
	}
	return ext
}

func linkBase(rawURL, fallback string) string {
	base := path.Base(urlPath(rawURL))
	if base == "" || base == "." || base == "/" {
		return fallback
	}
	return base
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func isSpreadsheet(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".xlsx")
}
