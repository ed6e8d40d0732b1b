package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/enrich"
	"github.com/sells-group/giving-cli/internal/fetcher"
	"github.com/sells-group/giving-cli/internal/irs"
	"github.com/sells-group/giving-cli/internal/layout"
	"github.com/sells-group/giving-cli/internal/orgtable"
	"github.com/sells-group/giving-cli/internal/region"
	"github.com/sells-group/giving-cli/internal/report"
	"github.com/sells-group/giving-cli/internal/store"
	"github.com/sells-group/giving-cli/pkg/wgi"
)

// generatorEnv holds the collaborators shared by the report commands.
type generatorEnv struct {
	Store     store.Store
	Layout    layout.Layout
	Fetcher   fetcher.Fetcher
	Scraper   *irs.Scraper
	Builder   *orgtable.Builder
	Generator *report.Generator
}

// Close releases the store.
func (e *generatorEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// generatorOptions are the per-invocation flags that shape a run.
type generatorOptions struct {
	Force          bool
	RefreshCurated bool
}

func initGenerator(ctx context.Context, opts generatorOptions) (*generatorEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	set, err := regionSet()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	scraper := irs.NewScraper(f, irs.Pages{
		SOI:  cfg.IRS.SOIURL,
		BMF:  cfg.IRS.BMFURL,
		Site: cfg.Directory.SiteURL,
	})

	client := wgi.NewClient(
		wgi.WithBaseURL(cfg.Directory.BaseURL),
		wgi.WithPageSize(cfg.Directory.PageSize),
		wgi.WithTimeout(cfg.Directory.Timeout()),
		wgi.WithMaxIdleConnsPerHost(cfg.Directory.Concurrency),
		wgi.WithRateLimit(cfg.Directory.RatePerSec),
	)
	builder := orgtable.NewBuilder(client, set, enrich.New(client, cfg.Directory.Concurrency))

	l := layout.New(cfg.Paths.InputRoot, cfg.Paths.OutputRoot)
	gen := report.New(builder, scraper, f, st, l, report.Options{
		State:           cfg.Directory.State,
		StateLink:       cfg.IRS.BMFStateLink,
		CuratedPath:     cfg.Curated.Path,
		CuratedSkipRows: cfg.Curated.SkipRows,
		CuratedSheet:    cfg.Curated.Sheet,
		MatchBy:         cfg.Curated.MatchBy,
		Force:           opts.Force,
		RefreshCurated:  opts.RefreshCurated,
	})

	return &generatorEnv{
		Store:     st,
		Layout:    l,
		Fetcher:   f,
		Scraper:   scraper,
		Builder:   builder,
		Generator: gen,
	}, nil
}

// regionSet returns the configured ZIP set, or the built-in region.
func regionSet() (*region.Set, error) {
	if cfg.Region.ZipFile == "" {
		return region.GreaterBoston(), nil
	}
	set, err := region.LoadCSV(cfg.Region.ZipFile)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded region override", zap.String("path", cfg.Region.ZipFile), zap.Int("zips", set.Len()))
	return set, nil
}
