package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)
var _ driven.TextSource = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore and driven.TextSource using
// PostgreSQL. Extracted texts are append-only; GetLatestText reads the
// newest row per document.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// SaveDocument creates or updates a document
func (s *DocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, project_id, title, authors, year, created_at, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			year = EXCLUDED.year,
			indexed_at = EXCLUDED.indexed_at
	`

	var indexedAt *time.Time
	if !doc.IndexedAt.IsZero() {
		indexedAt = &doc.IndexedAt
	}

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ProjectID,
		doc.Title,
		doc.Authors,
		doc.Year,
		doc.CreatedAt,
		NullTime(indexedAt),
	)
	return err
}

// GetDocument retrieves a document by ID
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, project_id, title, authors, year, created_at, indexed_at
		FROM documents
		WHERE id = $1
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListByProject retrieves all documents of a project in creation order
func (s *DocumentStore) ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error) {
	query := `
		SELECT id, project_id, title, authors, year, created_at, indexed_at
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveProject creates or updates a project
func (s *DocumentStore) SaveProject(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, topic, methodology, sector, objective, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			topic = EXCLUDED.topic,
			methodology = EXCLUDED.methodology,
			sector = EXCLUDED.sector,
			objective = EXCLUDED.objective
	`

	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Topic,
		project.Methodology,
		project.Sector,
		project.Objective,
		project.CreatedAt,
	)
	return err
}

// GetProject retrieves a project by ID
func (s *DocumentStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	query := `
		SELECT id, name, topic, methodology, sector, objective, created_at
		FROM projects
		WHERE id = $1
	`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Topic,
		&p.Methodology,
		&p.Sector,
		&p.Objective,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveText appends a new extracted text for a document
func (s *DocumentStore) SaveText(ctx context.Context, documentID, content string) error {
	query := `
		INSERT INTO document_texts (id, document_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, domain.GenerateID(), documentID, content, time.Now())
	return err
}

// GetLatestText returns the newest extracted text for a document, or an
// empty string when none exists
func (s *DocumentStore) GetLatestText(ctx context.Context, documentID string) (string, error) {
	query := `
		SELECT content
		FROM document_texts
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var content string
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var indexedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Title,
		&doc.Authors,
		&doc.Year,
		&doc.CreatedAt,
		&indexedAt,
	)
	if err != nil {
		return nil, err
	}
	if indexedAt.Valid {
		doc.IndexedAt = indexedAt.Time
	}
	return &doc, nil
}
