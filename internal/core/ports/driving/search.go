package driving

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// SearchService ranks indexed passages against a query
type SearchService interface {
	// Search embeds the query and ranks passages by cosine similarity,
	// descending, ties broken by original passage order. scope restricts
	// the candidate set to the given document IDs; empty means all.
	// topK caps the result length but never errors when fewer exist.
	Search(ctx context.Context, query string, scope []string, topK int) ([]domain.ScoredPassage, error)

	// TopOrdered returns the first k passages of a document in sequence
	// order, used as retrieval context rather than ranked search.
	TopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error)
}
