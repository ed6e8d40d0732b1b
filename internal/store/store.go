// Package store persists the run log: one row per report run and one per
// pipeline step inside it.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/giving-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Year   int             `json:"year,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run log.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, year int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.Summary) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Steps
	StartStep(ctx context.Context, runID string, name string) (*model.RunStep, error)
	FinishStep(ctx context.Context, stepID string, stepErr error) error
	ListSteps(ctx context.Context, runID string) ([]model.RunStep, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrNotFound is returned when a run or step does not exist.
var ErrNotFound = eris.New("not found")

// Open returns the Store for driver: "sqlite", "postgres" or "none".
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL, nil)
	case "none", "":
		return NewNop(), nil
	}
	return nil, eris.Errorf("store: unknown driver %q", driver)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusFor(err error) model.RunStatus {
	if err != nil {
		return model.RunStatusFailed
	}
	return model.RunStatusComplete
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
