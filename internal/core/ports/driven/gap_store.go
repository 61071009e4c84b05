package driven

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// GapStore handles gap result and summary persistence (PostgreSQL).
// Results are append-only: re-analysis creates new records and prior ones
// remain for audit and duplicate detection.
type GapStore interface {
	// SaveResult stores a new gap result
	SaveResult(ctx context.Context, result *domain.GapResult) error

	// ListByDocument retrieves every gap result ever produced for a
	// document, across runs, in creation order
	ListByDocument(ctx context.Context, documentID string) ([]*domain.GapResult, error)

	// ListByProject retrieves every gap result of a project's runs
	ListByProject(ctx context.Context, projectID string) ([]*domain.GapResult, error)

	// SaveSummary stores a summary result for report-time ROUGE scoring
	SaveSummary(ctx context.Context, summary *domain.SummaryResult) error

	// ListSummariesByProject retrieves the summaries of a project's documents
	ListSummariesByProject(ctx context.Context, projectID string) ([]*domain.SummaryResult, error)
}
