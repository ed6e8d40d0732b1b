package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/giving-cli/internal/failure"
)

// ChunkSize bounds how much of a download is held in memory at once.
const ChunkSize = 10_000_000

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RatePerSec paces requests; zero disables pacing.
	RatePerSec float64
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher implements Fetcher using net/http. Requests are made once;
// a failed download is reported, not retried.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "giving-cli/1.0"
	}
	f := &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
	if opts.RatePerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return f
}

// Download fetches the URL and returns the response body. Transport errors
// and non-200 statuses are SourceUnavailable.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, failure.Unavailable(eris.Wrapf(err, "download %s", rawURL))
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, failure.Unavailable(eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL))
	}
	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to path, streaming the body
// in ChunkSize pieces. An existing file is kept unless force is set. The
// body lands in a temp file that is renamed into place, so an interrupted
// download never leaves a partial file at path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string, force bool) (int64, error) {
	if !force && exists(path) {
		zap.L().Debug("fetcher: file present, skipping download", zap.String("path", path))
		return 0, nil
	}

	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	zap.L().Info("fetcher: downloading", zap.String("url", rawURL), zap.String("path", path))
	n, err := copyChunks(tmp, body, path)
	if err != nil {
		tmp.Close() //nolint:errcheck
		return n, failure.Unavailable(eris.Wrapf(err, "download %s", rawURL))
	}
	if err := tmp.Close(); err != nil {
		return n, eris.Wrap(err, "close file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, eris.Wrap(err, "rename into place")
	}

	zap.L().Info("fetcher: download complete", zap.String("path", path), zap.Int64("bytes", n))
	return n, nil
}

func copyChunks(dst io.Writer, src io.Reader, name string) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	chunks := 0
	for {
		nr, rerr := io.ReadFull(src, buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, eris.Wrap(werr, "write file")
			}
			chunks++
			zap.L().Debug("fetcher: chunk written",
				zap.String("path", name),
				zap.Int("chunk", chunks),
				zap.Int64("bytes", total),
			)
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			return total, nil
		}
		if rerr != nil {
			return total, eris.Wrap(rerr, "read body")
		}
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
