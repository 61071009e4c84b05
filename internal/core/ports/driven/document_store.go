package driven

import (
	"context"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
)

// DocumentStore handles document and project persistence (PostgreSQL)
type DocumentStore interface {
	// SaveDocument creates or updates a document
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListByProject retrieves all documents of a project in creation order
	ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error)

	// SaveProject creates or updates a project
	SaveProject(ctx context.Context, project *domain.Project) error

	// GetProject retrieves a project by ID
	GetProject(ctx context.Context, id string) (*domain.Project, error)
}

// TextSource resolves a document's latest extracted full text.
// The extraction pipeline (upload, PDF parsing, OCR) lives outside the core;
// this port is how the core reads its output. An empty string means no
// usable text artifact exists.
type TextSource interface {
	GetLatestText(ctx context.Context, documentID string) (string, error)
}

// PassageStore handles passage persistence. Passages are write-once per
// indexing pass and read-only thereafter, so concurrent reads during
// validation need no extra coordination.
type PassageStore interface {
	// SaveBatch stores a document's passage set in one transaction
	SaveBatch(ctx context.Context, passages []*domain.Passage) error

	// GetByDocument retrieves all passages of a document in position order
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error)

	// GetTopOrdered retrieves the first k passages of a document in
	// position order
	GetTopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error)

	// List retrieves passages for the given documents in (document,
	// position) order. An empty scope means all documents.
	List(ctx context.Context, documentIDs []string) ([]*domain.Passage, error)

	// DeleteByDocument removes a document's passage set (used before
	// re-indexing so stale passages do not skew validation)
	DeleteByDocument(ctx context.Context, documentID string) error
}
