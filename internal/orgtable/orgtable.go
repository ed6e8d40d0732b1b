// Package orgtable builds, persists and reloads the canonical regional
// organization table: directory listing, region filter, revenue
// normalization and tax identifier enrichment.
package orgtable

import (
	"context"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/enrich"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/region"
	"github.com/sells-group/giving-cli/internal/revenue"
	"github.com/sells-group/giving-cli/internal/tabular"
	"github.com/sells-group/giving-cli/pkg/wgi"
)

// Columns is the fixed header of the canonical table.
var Columns = []string{
	"organizationId",
	"id",
	"name",
	"organizationName",
	"description",
	"address",
	"city",
	"state",
	"zip",
	"categories",
	"revenue",
	"ein",
}

// Lister lists directory candidates for a state.
type Lister interface {
	ListCandidates(ctx context.Context, state string) (*wgi.SearchResult, error)
}

// Enricher resolves tax identifiers for organization ids.
type Enricher interface {
	Run(ctx context.Context, ids []string) *enrich.Result
}

// Builder assembles the canonical table from the directory.
type Builder struct {
	directory Lister
	region    *region.Set
	enricher  Enricher
}

// NewBuilder creates a Builder.
func NewBuilder(directory Lister, set *region.Set, enricher Enricher) *Builder {
	return &Builder{directory: directory, region: set, enricher: enricher}
}

// BuildResult is the canonical table plus what was dropped along the way.
type BuildResult struct {
	Organizations []model.Organization

	Listed          int
	ReportedTotal   int
	Truncated       bool
	MalformedZip    int
	OutOfRegion     int
	MissingID       int
	Duplicates      int
	ExcludedRevenue int
	Failures        map[string]error
	Cached          bool
}

// Build fetches the directory listing for state, keeps in-region
// organizations, normalizes their revenue and enriches them with tax
// identifiers. Organizations are returned sorted by organization id.
//
// A revenue value that cannot be parsed excludes that organization; the
// exclusion is logged and counted.
func (b *Builder) Build(ctx context.Context, state string) (*BuildResult, error) {
	listing, err := b.directory.ListCandidates(ctx, state)
	if err != nil {
		return nil, eris.Wrap(err, "orgtable: list candidates")
	}

	res := &BuildResult{Listed: len(listing.Data), Truncated: listing.Truncated}
	if total, ok := listing.TotalCount(); ok {
		res.ReportedTotal = total
	}
	if res.Truncated {
		zap.L().Warn("orgtable: directory listing is truncated; raise directory.page_size",
			zap.Int("returned", res.Listed),
			zap.Int("reported_total", res.ReportedTotal),
		)
	}

	byID := make(map[string]model.Organization, len(listing.Data))
	for _, e := range listing.Data {
		zip, ok := region.ParseZIP(e.Zip.String())
		if !ok {
			res.MalformedZip++
			continue
		}
		if !b.region.Contains(zip) {
			res.OutOfRegion++
			continue
		}

		id := strings.TrimSpace(e.OrganizationID.String())
		if id == "" {
			res.MissingID++
			continue
		}
		if _, dup := byID[id]; dup {
			res.Duplicates++
			continue
		}

		rev, err := revenue.Normalize(e.Revenue)
		if err != nil {
			res.ExcludedRevenue++
			zap.L().Warn("orgtable: excluding organization with unparseable revenue",
				zap.String("organization_id", id),
				zap.Any("revenue", e.Revenue),
				zap.Error(err),
			)
			continue
		}

		byID[id] = model.Organization{
			OrganizationID:   id,
			ID:               e.ID.String(),
			Name:             e.Name,
			OrganizationName: e.OrganizationName,
			Description:      e.Description,
			Address:          e.Address,
			City:             e.City,
			State:            e.State,
			Zip:              e.Zip.String(),
			Categories:       e.Categories.String(),
			Revenue:          rev,
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sortIDs(ids)

	enriched := b.enricher.Run(ctx, ids)
	res.Failures = enriched.Failures

	res.Organizations = make([]model.Organization, 0, len(ids))
	for _, id := range ids {
		org := byID[id]
		if ein, ok := enriched.TaxIDs[id]; ok && ein != "" {
			org.TaxID = &ein
		}
		res.Organizations = append(res.Organizations, org)
	}

	zap.L().Info("orgtable: built regional organizations",
		zap.Int("listed", res.Listed),
		zap.Int("kept", len(res.Organizations)),
		zap.Int("out_of_region", res.OutOfRegion),
		zap.Int("malformed_zip", res.MalformedZip),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("excluded_revenue", res.ExcludedRevenue),
		zap.Int("enrichment_failures", len(res.Failures)),
	)
	return res, nil
}

// Ensure returns the table cached at path, building and writing it first
// when the file is missing, unreadable or force is set. A cached file is
// trusted as-is.
func (b *Builder) Ensure(ctx context.Context, path, state string, force bool) (*BuildResult, error) {
	if !force && Exists(path) {
		orgs, err := Read(path)
		if err == nil {
			zap.L().Info("orgtable: using cached regional organizations",
				zap.String("path", path),
				zap.Int("organizations", len(orgs)),
			)
			return &BuildResult{Organizations: orgs, Cached: true}, nil
		}
		zap.L().Warn("orgtable: cached table unreadable, rebuilding",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	res, err := b.Build(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := Write(path, res.Organizations); err != nil {
		return nil, err
	}
	return res, nil
}

// Exists reports whether a canonical table file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write persists orgs with the fixed header. Output is a pure function of
// orgs, so the same input always produces the same bytes.
func Write(path string, orgs []model.Organization) error {
	t := tabular.New(Columns...)
	for _, o := range orgs {
		ein := tabular.Null
		if o.TaxID != nil {
			ein = tabular.Str(*o.TaxID)
		}
		t.Append(
			tabular.Str(o.OrganizationID),
			tabular.Str(o.ID),
			tabular.Str(o.Name),
			tabular.Str(o.OrganizationName),
			tabular.Str(o.Description),
			tabular.Str(o.Address),
			tabular.Str(o.City),
			tabular.Str(o.State),
			tabular.Str(o.Zip),
			tabular.Str(o.Categories),
			tabular.Str(strconv.FormatInt(o.Revenue, 10)),
			ein,
		)
	}
	if err := tabular.WriteCSV(path, t); err != nil {
		return eris.Wrap(err, "orgtable: write")
	}
	return nil
}

// Read loads a canonical table written by Write.
func Read(path string) ([]model.Organization, error) {
	t, err := tabular.ReadCSV(path, tabular.ReadOptions{Columns: Columns})
	if err != nil {
		return nil, eris.Wrap(err, "orgtable: read")
	}
	orgs := make([]model.Organization, 0, t.Len())
	for i := range t.Rows {
		get := func(col string) string { return t.Get(i, col).Value }
		rev, err := revenue.ParseString(get("revenue"))
		if err != nil {
			return nil, eris.Wrapf(err, "orgtable: row %d", i+1)
		}
		org := model.Organization{
			OrganizationID:   get("organizationId"),
			ID:               get("id"),
			Name:             get("name"),
			OrganizationName: get("organizationName"),
			Description:      get("description"),
			Address:          get("address"),
			City:             get("city"),
			State:            get("state"),
			Zip:              get("zip"),
			Categories:       get("categories"),
			Revenue:          rev,
		}
		if c := t.Get(i, "ein"); c.Valid {
			ein := c.Value
			org.TaxID = &ein
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// ToTable converts orgs into a join-ready table: the ein column becomes
// tabular.KeyColumn holding normalized identifiers.
func ToTable(orgs []model.Organization) *tabular.Table {
	cols := slices.Clone(Columns)
	cols[len(cols)-1] = tabular.KeyColumn
	t := tabular.New(cols...)
	for _, o := range orgs {
		key := tabular.Null
		if n := tabular.NormalizeEIN(o.TaxIDOrEmpty()); n != "" {
			key = tabular.Str(n)
		}
		t.Append(
			tabular.Str(o.OrganizationID),
			tabular.Str(o.ID),
			tabular.Str(o.Name),
			tabular.Str(o.OrganizationName),
			tabular.Str(o.Description),
			tabular.Str(o.Address),
			tabular.Str(o.City),
			tabular.Str(o.State),
			tabular.Str(o.Zip),
			tabular.Str(o.Categories),
			tabular.Str(strconv.FormatInt(o.Revenue, 10)),
			key,
		)
	}
	return t
}

// TotalRevenue sums the revenue of orgs.
func TotalRevenue(orgs []model.Organization) int64 {
	var total int64
	for _, o := range orgs {
		total += o.Revenue
	}
	return total
}

// CountWithTaxID returns how many orgs carry a tax identifier.
func CountWithTaxID(orgs []model.Organization) int {
	n := 0
	for _, o := range orgs {
		if o.HasTaxID() {
			n++
		}
	}
	return n
}

// sortIDs orders numeric ids numerically and everything else lexically
// after them.
func sortIDs(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		na, errA := strconv.ParseInt(a, 10, 64)
		nb, errB := strconv.ParseInt(b, 10, 64)
		switch {
		case errA == nil && errB == nil:
			if na < nb {
				return -1
			}
			if na > nb {
				return 1
			}
			return strings.Compare(a, b)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
}
