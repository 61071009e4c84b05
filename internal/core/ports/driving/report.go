package driving

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// ReportService aggregates per-project validation metrics
type ReportService interface {
	// ProjectIndicators computes the project's aggregate metrics and
	// normalized quality dimensions. Empty projects yield zero values.
	ProjectIndicators(ctx context.Context, projectID string) (*domain.ProjectIndicators, error)
}
