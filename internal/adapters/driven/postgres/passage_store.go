package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PassageStore = (*PassageStore)(nil)

// PassageStore implements driven.PassageStore using PostgreSQL.
// Embeddings are stored as JSONB arrays; similarity math happens in the
// core, not in SQL.
type PassageStore struct {
	db *DB
}

// NewPassageStore creates a new PassageStore
func NewPassageStore(db *DB) *PassageStore {
	return &PassageStore{db: db}
}

// SaveBatch stores a document's passage set in one transaction
func (s *PassageStore) SaveBatch(ctx context.Context, passages []*domain.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO passages (id, document_id, position, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range passages {
			embeddingJSON, err := json.Marshal(p.Embedding)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				p.ID,
				p.DocumentID,
				p.Position,
				p.Text,
				embeddingJSON,
				p.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByDocument retrieves all passages of a document in position order
func (s *PassageStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error) {
	query := `
		SELECT id, document_id, position, content, embedding, created_at
		FROM passages
		WHERE document_id = $1
		ORDER BY position ASC
	`
	return s.queryPassages(ctx, query, documentID)
}

// GetTopOrdered retrieves the first k passages of a document in position order
func (s *PassageStore) GetTopOrdered(ctx context.Context, documentID string, k int) ([]*domain.Passage, error) {
	query := `
		SELECT id, document_id, position, content, embedding, created_at
		FROM passages
		WHERE document_id = $1
		ORDER BY position ASC
		LIMIT $2
	`
	return s.queryPassages(ctx, query, documentID, k)
}

// List retrieves passages for the given documents in (document, position)
// order. An empty scope means all documents.
func (s *PassageStore) List(ctx context.Context, documentIDs []string) ([]*domain.Passage, error) {
	if len(documentIDs) == 0 {
		query := `
			SELECT id, document_id, position, content, embedding, created_at
			FROM passages
			ORDER BY document_id ASC, position ASC
		`
		return s.queryPassages(ctx, query)
	}

	placeholders := make([]string, len(documentIDs))
	args := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT id, document_id, position, content, embedding, created_at
		FROM passages
		WHERE document_id IN (%s)
		ORDER BY document_id ASC, position ASC
	`, strings.Join(placeholders, ", "))

	return s.queryPassages(ctx, query, args...)
}

// DeleteByDocument removes a document's passage set
func (s *PassageStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM passages WHERE document_id = $1`, documentID)
	return err
}

func (s *PassageStore) queryPassages(ctx context.Context, query string, args ...any) ([]*domain.Passage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []*domain.Passage
	for rows.Next() {
		var p domain.Passage
		var embeddingJSON []byte
		err := rows.Scan(
			&p.ID,
			&p.DocumentID,
			&p.Position,
			&p.Text,
			&embeddingJSON,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(embeddingJSON, &p.Embedding); err != nil {
			return nil, err
		}
		passages = append(passages, &p)
	}
	return passages, rows.Err()
}
