package driving

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// RunService is the run-progression state machine
type RunService interface {
	// CreateRun starts a new evaluation pass over a project's documents,
	// one pending item per document. Fails with domain.ErrNoDocuments if
	// the project has none.
	CreateRun(ctx context.Context, projectID string) (*domain.Run, error)

	// Advance processes exactly one pending item of the run: resolve the
	// document text, invoke the generative provider, validate the claim,
	// persist a verdict and update item and run state. Per-item errors are
	// absorbed into a failed item; Advance itself errors with
	// domain.ErrRunBusy when another caller holds the run's lock, and
	// otherwise only on run lookup or infrastructure failures. Calling it
	// on a completed run is a no-op returning the current status.
	Advance(ctx context.Context, runID string) (*domain.Run, error)

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// ListRuns retrieves a project's runs, most recent first
	ListRuns(ctx context.Context, projectID string) ([]*domain.Run, error)

	// ListItems retrieves the run's items with their states and error
	// messages in processing order
	ListItems(ctx context.Context, runID string) ([]*domain.RunItem, error)
}
