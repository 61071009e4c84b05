package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driving"
	"github.com/custodia-labs/lacuna-core/internal/runtime"
	"github.com/custodia-labs/lacuna-core/internal/textmetrics"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	passageStore driven.PassageStore
	services     *runtime.Services // Dynamic AI services
}

// NewSearchService creates a new SearchService
func NewSearchService(passageStore driven.PassageStore, services *runtime.Services) driving.SearchService {
	return &searchService{
		passageStore: passageStore,
		services:     services,
	}
}

// Search embeds the query and ranks candidate passages by cosine similarity,
// descending. Ties preserve the stores' (document, position) order. Passages
// without an embedding score 0 and still participate, so topK over a mixed
// index is well defined.
func (s *searchService) Search(ctx context.Context, query string, scope []string, topK int) ([]domain.ScoredPassage, error) {
	if topK <= 0 {
		topK = 10
	}

	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return nil, domain.ErrServiceUnavailable
	}

	queryEmbedding, err := embeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	passages, err := s.passageStore.List(ctx, scope)
	if err != nil {
		return nil, err
	}

	return RankPassages(queryEmbedding, passages, topK), nil
}

// TopOrdered returns the first k passages of a document in sequence order
func (s *searchService) TopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error) {
	return s.passageStore.GetTopOrdered(ctx, documentID, k)
}

// RankPassages scores passages against a query embedding and returns the
// topK best, descending by score with ties in input order. Exported for the
// validator, which ranks a claim against a document's full passage set.
func RankPassages(queryEmbedding []float32, passages []*domain.Passage, topK int) []domain.ScoredPassage {
	scored := make([]domain.ScoredPassage, 0, len(passages))
	for _, p := range passages {
		scored = append(scored, domain.ScoredPassage{
			PassageID: p.ID,
			Score:     textmetrics.Cosine(queryEmbedding, p.Embedding),
			Text:      p.Text,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
