// Package fetcher downloads remote source files to disk and converts
// spreadsheet sources into CSV.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path unless path already exists
	// and force is false. Returns bytes written (0 when skipped).
	DownloadToFile(ctx context.Context, url string, path string, force bool) (int64, error)
}
