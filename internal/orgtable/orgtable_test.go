package orgtable

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/enrich"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/region"
	"github.com/sells-group/giving-cli/internal/tabular"
	"github.com/sells-group/giving-cli/pkg/wgi"
)

const listing = `{"total": 4, "data": [
  {"organizationId": 3, "id": 30, "name": "Gamma", "zip": "02139", "revenue": "(1200)", "categories": ["Youth"]},
  {"organizationId": 1, "id": 10, "name": "Alpha", "zip": "02134", "revenue": 4500, "categories": "Health"},
  {"organizationId": 2, "id": 20, "name": "Beta", "zip": "90210", "revenue": 800},
  {"organizationId": 4, "id": 40, "name": "Delta", "zip": "not-a-zip", "revenue": 100}
]}`

type fakeDirectory struct {
	listing string
	details map[string]string
	failing map[string]bool
}

func (f *fakeDirectory) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/base-search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.listing))
	})
	mux.HandleFunc("/organization/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/organization/")
		if f.failing[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		ein, ok := f.details[id]
		if !ok {
			_, _ = w.Write([]byte(`{"ein": null}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"organizationId": %s, "ein": %q}`, id, ein)
	})
	return mux
}

func newBuilder(t *testing.T, dir *fakeDirectory) *Builder {
	t.Helper()
	srv := httptest.NewServer(dir.handler())
	t.Cleanup(srv.Close)

	client := wgi.NewClient(wgi.WithBaseURL(srv.URL))
	set := region.NewSet(2134, 2139)
	return NewBuilder(client, set, enrich.New(client, 4))
}

func TestBuild_FiltersNormalizesAndEnriches(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{
		listing: listing,
		details: map[string]string{"1": "04-1111111", "3": "04-3333333"},
	})

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)

	require.Len(t, res.Organizations, 2)
	assert.Equal(t, "1", res.Organizations[0].OrganizationID)
	assert.Equal(t, "3", res.Organizations[1].OrganizationID)

	assert.Equal(t, int64(4500), res.Organizations[0].Revenue)
	assert.Equal(t, int64(-1200), res.Organizations[1].Revenue)
	assert.Equal(t, "Health", res.Organizations[0].Categories)
	assert.Equal(t, "04-1111111", res.Organizations[0].TaxIDOrEmpty())
	assert.Equal(t, "04-3333333", res.Organizations[1].TaxIDOrEmpty())

	assert.Equal(t, 4, res.Listed)
	assert.Equal(t, 1, res.OutOfRegion)
	assert.Equal(t, 1, res.MalformedZip)
	assert.False(t, res.Truncated)
	assert.Empty(t, res.Failures)
	assert.Equal(t, int64(3300), TotalRevenue(res.Organizations))
}

func TestBuild_PartialEnrichmentFailure(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{
		listing: listing,
		details: map[string]string{"1": "04-1111111", "3": "04-3333333"},
		failing: map[string]bool{"3": true},
	})

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)

	require.Len(t, res.Organizations, 2)
	assert.True(t, res.Organizations[0].HasTaxID())
	assert.False(t, res.Organizations[1].HasTaxID())
	assert.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures, "3")
	assert.Equal(t, 1, CountWithTaxID(res.Organizations))
}

func TestBuild_ExcludesUnparseableRevenue(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{listing: `{"data": [
	  {"organizationId": 1, "zip": "02134", "revenue": "n/a"},
	  {"organizationId": 2, "zip": "02134", "revenue": "-"}
	]}`})

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)
	require.Len(t, res.Organizations, 1)
	assert.Equal(t, "2", res.Organizations[0].OrganizationID)
	assert.Equal(t, int64(0), res.Organizations[0].Revenue)
	assert.Equal(t, 1, res.ExcludedRevenue)
}

func TestBuild_DuplicateIDsFirstWins(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{listing: `{"data": [
	  {"organizationId": 7, "name": "First", "zip": "02134", "revenue": 1},
	  {"organizationId": 7, "name": "Second", "zip": "02134", "revenue": 2}
	]}`})

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)
	require.Len(t, res.Organizations, 1)
	assert.Equal(t, "First", res.Organizations[0].Name)
	assert.Equal(t, 1, res.Duplicates)
}

func TestBuild_TruncatedListing(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{listing: `{"meta": {"total": 50}, "data": [
	  {"organizationId": 1, "zip": "02134", "revenue": 1}
	]}`})

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 50, res.ReportedTotal)
}

func TestBuild_ListingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := wgi.NewClient(wgi.WithBaseURL(srv.URL))
	b := NewBuilder(client, region.GreaterBoston(), enrich.New(client, 2))

	_, err := b.Build(context.Background(), "MA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list candidates")
}

func TestWrite_Deterministic(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{
		listing: listing,
		details: map[string]string{"1": "04-1111111"},
	})

	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	res, err := b.Build(context.Background(), "MA")
	require.NoError(t, err)
	require.NoError(t, Write(first, res.Organizations))

	res, err = b.Build(context.Background(), "MA")
	require.NoError(t, err)
	require.NoError(t, Write(second, res.Organizations))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	c, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, c)
	assert.True(t, strings.HasPrefix(string(a), strings.Join(Columns, ",")+"\n"))
}

func TestReadWrite_RoundTrip(t *testing.T) {
	ein := "04-1111111"
	orgs := []model.Organization{
		{OrganizationID: "1", Name: "Alpha, Inc.", Zip: "02134", Revenue: -1200, TaxID: &ein},
		{OrganizationID: "2", Name: "Beta", Zip: "02139", Revenue: 0},
	}
	path := filepath.Join(t.TempDir(), "orgs.csv")
	require.NoError(t, Write(path, orgs))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, orgs, got)
}

func TestEnsure_UsesCacheUnlessForced(t *testing.T) {
	dir := &fakeDirectory{listing: listing}
	b := newBuilder(t, dir)
	path := filepath.Join(t.TempDir(), "orgs.csv")

	cached := []model.Organization{{OrganizationID: "99", Name: "Cached", Revenue: 5}}
	require.NoError(t, Write(path, cached))

	res, err := b.Ensure(context.Background(), path, "MA", false)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, cached, res.Organizations)

	res, err = b.Ensure(context.Background(), path, "MA", true)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, res.Organizations, 2)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, res.Organizations, got)
}

func TestEnsure_RebuildsUnreadableCache(t *testing.T) {
	b := newBuilder(t, &fakeDirectory{listing: listing})
	path := filepath.Join(t.TempDir(), "orgs.csv")
	require.NoError(t, os.WriteFile(path, []byte("organizationId,revenue\n1,abc\n"), 0o644))

	res, err := b.Ensure(context.Background(), path, "MA", false)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, res.Organizations, 2)
}

func TestToTable_NormalizesKey(t *testing.T) {
	ein := "04-1111111"
	tbl := ToTable([]model.Organization{
		{OrganizationID: "1", TaxID: &ein},
		{OrganizationID: "2"},
	})
	assert.True(t, tbl.Has(tabular.KeyColumn))
	assert.False(t, tbl.Has("ein"))
	assert.Equal(t, tabular.Str("041111111"), tbl.Get(0, tabular.KeyColumn))
	assert.False(t, tbl.Get(1, tabular.KeyColumn).Valid)
}

func TestSortIDs(t *testing.T) {
	ids := []string{"10", "b", "2", "a", "1"}
	sortIDs(ids)
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}
