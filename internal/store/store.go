package store

import (
	"context"

	"github.com/me/rrsched/pkg/model"
)

// Store defines the persistence layer for simulation runs and their traces.
type Store interface {
	// Run CRUD
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	UpdateRun(ctx context.Context, run *model.Run) error
	DeleteRun(ctx context.Context, id string) error

	// Trace events
	AppendEvents(ctx context.Context, runID string, events []model.Event) error
	ListEvents(ctx context.Context, runID string, afterSeq, limit int) ([]model.Event, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
