package wgi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/failure"
)

const searchBody = `{
  "data": [
    {"organizationId": 1776515, "id": "a1", "name": "Girls Inc", "organizationName": "Girls Incorporated of Lynn",
     "zip": "01902", "revenue": "(1200)", "categories": ["Youth", "Education"],
     "distance": 3.2, "icon": "x.png", "relevance": 0.9, "redirectUrl": "/r", "programId": 7, "programName": "P"},
    {"organizationId": "88", "zip": 2134, "revenue": 4500, "categories": [{"name": "Health"}]}
  ],
  "total": 2
}`

func TestListCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/platform-api/search/base-search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "500", q.Get("perPage"))
		assert.Equal(t, "MA", q.Get("states[]"))
		assert.Equal(t, "revenue", q.Get("orderBy"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/platform-api"), WithPageSize(500))
	res, err := c.ListCandidates(context.Background(), "MA")
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.False(t, res.Truncated)

	first := res.Data[0]
	assert.Equal(t, "1776515", first.OrganizationID.String())
	assert.Equal(t, "01902", first.Zip.String())
	assert.Equal(t, "(1200)", first.Revenue)
	assert.Equal(t, "Youth; Education", first.Categories.String())

	second := res.Data[1]
	assert.Equal(t, "88", second.OrganizationID.String())
	assert.Equal(t, "2134", second.Zip.String())
	assert.Equal(t, json.Number("4500"), second.Revenue)
	assert.Equal(t, Categories{"Health"}, second.Categories)
}

func TestListCandidates_Truncated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"organizationId":1}],"meta":{"total":12000}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	res, err := c.ListCandidates(context.Background(), "MA")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	total, ok := res.TotalCount()
	assert.True(t, ok)
	assert.Equal(t, 12000, total)
}

func TestListCandidates_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.ListCandidates(context.Background(), "MA")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.SourceUnavailable))
	assert.Contains(t, err.Error(), "502")

	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.NotEmpty(t, eris.Unpack(fe.Err).ErrRoot.Stack)
}

func TestListCandidates_ShapeChanged(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.ListCandidates(context.Background(), "MA")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.SourceShapeChanged))
}

func TestGetDetail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/organization/1776515":
			w.Write([]byte(`{"organizationId":1776515,"name":"Girls Inc","ein":"04-2104321"}`))
		case "/organization/9":
			w.Write([]byte(`{"organizationId":9,"ein":null}`))
		case "/organization/10":
			w.Write([]byte(`<html>maintenance</html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	d, err := c.GetDetail(context.Background(), "1776515")
	require.NoError(t, err)
	assert.True(t, d.EIN.Valid)
	assert.Equal(t, "04-2104321", d.EIN.String())

	d, err = c.GetDetail(context.Background(), "9")
	require.NoError(t, err)
	assert.False(t, d.EIN.Valid)

	_, err = c.GetDetail(context.Background(), "10")
	assert.True(t, failure.Is(err, failure.SourceShapeChanged))

	_, err = c.GetDetail(context.Background(), "404")
	assert.True(t, failure.Is(err, failure.SourceUnavailable))
}

func TestGetDetail_NoRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(100))
	_, err := c.GetDetail(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestText_Unmarshal(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":12,"c":null}`), &v))
	assert.Equal(t, Text{Value: "x", Valid: true}, v.A)
	assert.Equal(t, Text{Value: "12", Valid: true}, v.B)
	assert.False(t, v.C.Valid)
	assert.False(t, v.D.Valid)
}

func TestNewClient_TimeoutKeepsPooledTransport(t *testing.T) {
	c, ok := NewClient(WithTimeout(5*time.Second), WithMaxIdleConnsPerHost(40)).(*httpClient)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, c.http.Timeout)

	tr, ok := c.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 40, tr.MaxIdleConnsPerHost)
}
