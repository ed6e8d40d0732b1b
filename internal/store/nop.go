package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/giving-cli/internal/model"
)

// Nop is a Store that records nothing. Runs and steps get identifiers so
// callers need no special casing.
type Nop struct{}

// NewNop returns a Nop store.
func NewNop() *Nop { return &Nop{} }

func (Nop) CreateRun(_ context.Context, year int) (*model.Run, error) {
	now := time.Now().UTC()
	return &model.Run{ID: uuid.New().String(), Year: year, Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

func (Nop) CompleteRun(context.Context, string, *model.Summary) error { return nil }
func (Nop) FailRun(context.Context, string, error) error { return nil }

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Wrapf(ErrNotFound, "run %s (store disabled)", runID)
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) StartStep(_ context.Context, runID string, name string) (*model.RunStep, error) {
	return &model.RunStep{ID: uuid.New().String(), RunID: runID, Name: name, Status: model.RunStatusRunning, StartedAt: time.Now().UTC()}, nil
}

func (Nop) FinishStep(context.Context, string, error) error { return nil }
func (Nop) ListSteps(context.Context, string) ([]model.RunStep, error) { return nil, nil }
func (Nop) Migrate(context.Context) error { return nil }
func (Nop) Close() error { return nil }
