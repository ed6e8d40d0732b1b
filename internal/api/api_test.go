package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/layout"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/report"
	"github.com/sells-group/giving-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store, layout.Layout) {
	t.Helper()
	root := t.TempDir()
	st, err := store.NewSQLite(filepath.Join(root, "runs.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	l := layout.New(filepath.Join(root, "in"), filepath.Join(root, "out"))
	srv := httptest.NewServer(New(st, l).Router(nil))
	t.Cleanup(srv.Close)
	return srv, st, l
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRuns(t *testing.T) {
	srv, st, _ := newTestServer(t)
	ctx := context.Background()

	var empty []model.Run
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs", &empty))
	assert.Empty(t, empty)

	run, err := st.CreateRun(ctx, 2021)
	require.NoError(t, err)
	step, err := st.StartStep(ctx, run.ID, "extracts")
	require.NoError(t, err)
	require.NoError(t, st.FinishStep(ctx, step.ID, nil))
	require.NoError(t, st.CompleteRun(ctx, run.ID, &model.Summary{Year: 2021, Percent: 12.5}))
	_, err = st.CreateRun(ctx, 2020)
	require.NoError(t, err)

	var runs []model.Run
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs?year=2021", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	var detail struct {
		model.Run
		Steps []model.RunStep `json:"steps"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/runs/"+run.ID, &detail))
	assert.Equal(t, model.RunStatusComplete, detail.Status)
	require.NotNil(t, detail.Summary)
	assert.InDelta(t, 12.5, detail.Summary.Percent, 0.001)
	require.Len(t, detail.Steps, 1)
	assert.Equal(t, "extracts", detail.Steps[0].Name)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/runs/missing", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/runs?limit=abc", nil))
}

func TestReports(t *testing.T) {
	srv, _, l := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/reports/2021", nil))

	csvPath := l.RegionalReport(2021)
	require.NoError(t, os.MkdirAll(filepath.Dir(csvPath), 0o755))
	require.NoError(t, os.WriteFile(csvPath, []byte("organizationId,EIN\n1,041111111\n"), 0o644))
	require.NoError(t, report.WriteManifest(l.Summary(2021), &report.Manifest{
		RunID:       "r1",
		Year:        2021,
		Status:      model.RunStatusComplete,
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))

	var years map[string][]int
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/reports", &years))
	assert.Equal(t, []int{2021}, years["years"])

	var listing struct {
		Year     int              `json:"year"`
		Files    []string         `json:"files"`
		Manifest *report.Manifest `json:"manifest"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/reports/2021", &listing))
	assert.ElementsMatch(t, []string{layout.RegionalReportName(2021), layout.SummaryFile}, listing.Files)
	require.NotNil(t, listing.Manifest)
	assert.Equal(t, "r1", listing.Manifest.RunID)

	resp, err := http.Get(srv.URL + "/reports/2021/" + layout.RegionalReportName(2021))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/reports/2021/"+layout.StateReportName(2021), nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/reports/2021/passwd", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/reports/nope", nil))
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
