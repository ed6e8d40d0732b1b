// Package enrich looks up tax identifiers for directory organizations over a
// bounded worker pool.
package enrich

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/pkg/wgi"
)

// DefaultConcurrency is the number of detail requests kept in flight.
const DefaultConcurrency = 20

// DetailGetter fetches one organization's detail record.
type DetailGetter interface {
	GetDetail(ctx context.Context, organizationID string) (*wgi.Detail, error)
}

// Engine fans detail lookups out over a fixed-width pool.
type Engine struct {
	client      DetailGetter
	concurrency int
}

// New creates an Engine. A non-positive concurrency uses DefaultConcurrency.
func New(client DetailGetter, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{client: client, concurrency: concurrency}
}

// Result maps organization ids to their outcome. An id appears in exactly
// one of TaxIDs and Failures. A successful lookup with no tax identifier is
// stored as "".
type Result struct {
	TaxIDs   map[string]string
	Failures map[string]error
}

// Succeeded returns the number of successful lookups.
func (r *Result) Succeeded() int { return len(r.TaxIDs) }

// Failed returns the number of failed lookups.
func (r *Result) Failed() int { return len(r.Failures) }

// Run looks up every id and waits for all lookups to finish. Individual
// failures are logged and recorded; Run itself never fails. Duplicate ids
// are looked up once.
func (e *Engine) Run(ctx context.Context, ids []string) *Result {
	res := &Result{
		TaxIDs:   make(map[string]string, len(ids)),
		Failures: make(map[string]error),
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	total := len(unique)

	var mu sync.Mutex
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, id := range unique {
		g.Go(func() error {
			detail, err := e.client.GetDetail(gctx, id)

			mu.Lock()
			if err != nil {
				res.Failures[id] = failure.New(failure.EnrichmentFailed, err)
			} else {
				ein := ""
				if detail != nil {
					ein = detail.EIN.String()
				}
				res.TaxIDs[id] = ein
			}
			mu.Unlock()

			n := done.Add(1)
			if err != nil {
				zap.L().Warn("enrich: detail lookup failed",
					zap.String("organization_id", id),
					zap.Error(err),
				)
			}
			if n%500 == 0 {
				zap.L().Info("enrich: progress", zap.Int64("done", n), zap.Int("total", total))
			}
			return nil // one lookup never aborts the batch
		})
	}

	_ = g.Wait()

	zap.L().Info("enrich: complete",
		zap.Int("total", total),
		zap.Int("succeeded", res.Succeeded()),
		zap.Int("failed", res.Failed()),
	)
	return res
}
