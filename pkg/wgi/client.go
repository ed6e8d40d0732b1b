// Package wgi provides a client for the Women & Girls Index directory API.
package wgi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/giving-cli/internal/failure"
)

// DefaultBaseURL is the directory platform API root.
const DefaultBaseURL = "https://wgi.communityplatform.us/platform-api/"

// DefaultPageSize is large enough that one page is the whole state listing.
const DefaultPageSize = 10000

// Client defines the directory operations the pipeline needs.
type Client interface {
	// ListCandidates returns every organization the directory lists for a state
	// in a single request.
	ListCandidates(ctx context.Context, state string) (*SearchResult, error)
	// GetDetail returns the detail record of one organization.
	GetDetail(ctx context.Context, organizationID string) (*Detail, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API root (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithPageSize sets the page size requested from the search endpoint.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxIdleConnsPerHost sizes the idle connection pool; it should match
// the enrichment concurrency so detail lookups reuse connections.
func WithMaxIdleConnsPerHost(n int) Option {
	return func(c *httpClient) {
		if t, ok := c.http.Transport.(*http.Transport); ok && n > 0 {
			t.MaxIdleConnsPerHost = n
		}
	}
}

// WithRateLimit paces requests to at most perSec per second. Zero disables pacing.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), int(perSec)+1)
		}
	}
}

type httpClient struct {
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a directory API client. Requests are never retried.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) searchURL(state string) string {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("perPage", strconv.Itoa(c.pageSize))
	q.Set("orderBy", "revenue")
	q.Set("keywordType", "all")
	q.Set("resultType", "all")
	q.Set("states[]", state)
	return c.baseURL + "search/base-search?" + q.Encode()
}

func (c *httpClient) ListCandidates(ctx context.Context, state string) (*SearchResult, error) {
	body, err := c.get(ctx, c.searchURL(state))
	if err != nil {
		return nil, eris.Wrapf(err, "wgi: list candidates for %s", state)
	}

	var result SearchResult
	if err := decode(body, &result); err != nil {
		return nil, failure.ShapeChanged(eris.Wrap(err, "wgi: decode search response"))
	}
	if result.Data == nil {
		return nil, failure.ShapeChanged(eris.New("wgi: search response has no data array"))
	}
	if total, ok := result.TotalCount(); ok && total > len(result.Data) {
		result.Truncated = true
	}
	return &result, nil
}

func (c *httpClient) GetDetail(ctx context.Context, organizationID string) (*Detail, error) {
	reqURL := c.baseURL + "organization/" + url.PathEscape(organizationID)
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrapf(err, "wgi: get organization %s", organizationID)
	}

	var d Detail
	if err := decode(body, &d); err != nil {
		return nil, failure.ShapeChanged(eris.Wrapf(err, "wgi: decode organization %s", organizationID))
	}
	return &d, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, failure.Unavailable(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Unavailable(eris.Wrap(err, "read response body"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure.Unavailable(eris.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(body)))
	}
	return body, nil
}

func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func snippet(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
