package driven

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// AnalysisRequest carries everything the generative provider needs to
// extract a gap claim from one document.
type AnalysisRequest struct {
	// DocumentText is the full extracted text of the article
	DocumentText string

	// Context is the project's analysis context (topic, methodology, ...)
	Context domain.AnalysisContext

	// RetrievalContext holds passages retrieved for grounding, in document
	// order. May be empty when the document has not been indexed.
	RetrievalContext []string
}

// AnalysisService is the generative collaborator that produces gap claims.
// Implementations may run in a deterministic simulation mode for offline
// use, or a live mode backed by an external model.
type AnalysisService interface {
	// AnalyseDocument asks the provider for a structured claim.
	// A transport or provider failure is returned as an error; a response
	// that arrives but fails the claim schema is returned as a draft with
	// only Raw populated. Callers decide how to treat malformed drafts.
	AnalyseDocument(ctx context.Context, req AnalysisRequest) (*domain.ClaimDraft, domain.Usage, error)

	// Mode returns "simulation" or "live"
	Mode() string

	// Model returns the model name being used
	Model() string

	// Ping verifies the provider is available
	Ping(ctx context.Context) error

	// Close releases resources held by the provider
	Close() error
}
