package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/chunker"
	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driving"
	"github.com/custodia-labs/lacuna-core/internal/runtime"
)

// Ensure indexService implements IndexService
var _ driving.IndexService = (*indexService)(nil)

// indexService implements the IndexService interface
type indexService struct {
	documentStore driven.DocumentStore
	textSource    driven.TextSource
	passageStore  driven.PassageStore
	services      *runtime.Services // Dynamic AI services
	chunkCfg      chunker.Config
	logger        *slog.Logger
}

// NewIndexService creates a new IndexService.
// The embedding service is accessed dynamically via runtime.Services.
func NewIndexService(
	documentStore driven.DocumentStore,
	textSource driven.TextSource,
	passageStore driven.PassageStore,
	services *runtime.Services,
	logger *slog.Logger,
) driving.IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	return &indexService{
		documentStore: documentStore,
		textSource:    textSource,
		passageStore:  passageStore,
		services:      services,
		chunkCfg:      chunker.DefaultConfig(),
		logger:        logger,
	}
}

// Index chunks, embeds and stores the document's latest text.
// Returns the number of passages stored. A document with no usable text or
// no embeddable chunks indexes to zero passages without error; earlier
// passages of the document are removed either way so stale windows never
// survive a re-index.
func (s *indexService) Index(ctx context.Context, documentID string) (int, error) {
	doc, err := s.documentStore.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return 0, domain.ErrServiceUnavailable
	}

	text, err := s.textSource.GetLatestText(ctx, documentID)
	if err != nil {
		return 0, err
	}

	chunks := chunker.SplitAll(text, s.chunkCfg)
	if len(chunks) == 0 {
		s.logger.Info("document has no indexable text",
			"document_id", documentID,
		)
		if err := s.passageStore.DeleteByDocument(ctx, documentID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	embeddings, err := embeddingService.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	passages := make([]*domain.Passage, 0, len(chunks))
	skipped := 0
	for i, chunk := range chunks {
		if len(embeddings[i]) == 0 {
			skipped++
			continue
		}
		passages = append(passages, &domain.Passage{
			ID:         domain.GenerateID(),
			DocumentID: documentID,
			Position:   len(passages),
			Text:       chunk,
			Embedding:  embeddings[i],
			CreatedAt:  now,
		})
	}

	// Replace the document's passage set atomically from the caller's view:
	// old passages go first so a re-index never mixes generations.
	if err := s.passageStore.DeleteByDocument(ctx, documentID); err != nil {
		return 0, err
	}
	if len(passages) > 0 {
		if err := s.passageStore.SaveBatch(ctx, passages); err != nil {
			return 0, err
		}
		doc.IndexedAt = now
		if err := s.documentStore.SaveDocument(ctx, doc); err != nil {
			return 0, err
		}
	}

	s.logger.Info("document indexed",
		"document_id", documentID,
		"passages", len(passages),
		"skipped_chunks", skipped,
		"model", embeddingService.Model(),
	)

	return len(passages), nil
}
