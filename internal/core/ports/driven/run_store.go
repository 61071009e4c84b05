package driven

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// RunStore handles run and run item persistence (PostgreSQL)
type RunStore interface {
	// SaveRun creates or updates a run
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRunsByProject retrieves a project's runs, most recent first
	ListRunsByProject(ctx context.Context, projectID string) ([]*domain.Run, error)

	// SaveItems stores a run's item set in one transaction
	SaveItems(ctx context.Context, items []*domain.RunItem) error

	// UpdateItem persists an item's state, error message and duration
	UpdateItem(ctx context.Context, item *domain.RunItem) error

	// GetItems retrieves all items of a run in creation order
	GetItems(ctx context.Context, runID string) ([]*domain.RunItem, error)

	// NextPending returns the first pending item of a run in creation
	// order, or domain.ErrNotFound when none remains. Selection order is
	// deterministic so repeated Advance calls walk the run in one fixed
	// sequence.
	NextPending(ctx context.Context, runID string) (*domain.RunItem, error)

	// CountPending returns how many items of the run are still pending
	CountPending(ctx context.Context, runID string) (int, error)
}
