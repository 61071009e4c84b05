package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GapStore = (*GapStore)(nil)

// GapStore implements driven.GapStore using PostgreSQL.
// Results are append-only; project scoping joins through run items and runs.
type GapStore struct {
	db *DB
}

// NewGapStore creates a new GapStore
func NewGapStore(db *DB) *GapStore {
	return &GapStore{db: db}
}

// SaveResult stores a new gap result
func (s *GapStore) SaveResult(ctx context.Context, result *domain.GapResult) error {
	query := `
		INSERT INTO gap_results (
			id, run_item_id, gap, opportunity, category,
			similarity_avg, hits, entropy_bits, entropy_norm, validation_score,
			is_duplicate, duplicate_of_id, verdict, reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var dupID *string
	if result.DuplicateOfID != "" {
		dupID = &result.DuplicateOfID
	}

	_, err := s.db.ExecContext(ctx, query,
		result.ID,
		result.RunItemID,
		result.Gap,
		result.Opportunity,
		result.Category,
		result.SimilarityAvg,
		result.Hits,
		result.EntropyBits,
		result.EntropyNorm,
		result.ValidationScore,
		result.IsDuplicate,
		NullString(dupID),
		result.Verdict,
		result.Reason,
		result.CreatedAt,
	)
	return err
}

// ListByDocument retrieves every gap result ever produced for a document,
// across runs, in creation order
func (s *GapStore) ListByDocument(ctx context.Context, documentID string) ([]*domain.GapResult, error) {
	query := `
		SELECT r.id, r.run_item_id, r.gap, r.opportunity, r.category,
		       r.similarity_avg, r.hits, r.entropy_bits, r.entropy_norm, r.validation_score,
		       r.is_duplicate, r.duplicate_of_id, r.verdict, r.reason, r.created_at
		FROM gap_results r
		JOIN run_items i ON i.id = r.run_item_id
		WHERE i.document_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`
	return s.queryResults(ctx, query, documentID)
}

// ListByProject retrieves every gap result of a project's runs
func (s *GapStore) ListByProject(ctx context.Context, projectID string) ([]*domain.GapResult, error) {
	query := `
		SELECT r.id, r.run_item_id, r.gap, r.opportunity, r.category,
		       r.similarity_avg, r.hits, r.entropy_bits, r.entropy_norm, r.validation_score,
		       r.is_duplicate, r.duplicate_of_id, r.verdict, r.reason, r.created_at
		FROM gap_results r
		JOIN run_items i ON i.id = r.run_item_id
		JOIN runs ru ON ru.id = i.run_id
		WHERE ru.project_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`
	return s.queryResults(ctx, query, projectID)
}

// SaveSummary stores a summary result
func (s *GapStore) SaveSummary(ctx context.Context, summary *domain.SummaryResult) error {
	query := `
		INSERT INTO summary_results (id, document_id, generated_summary, reference_summary, lexical_density, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		summary.ID,
		summary.DocumentID,
		summary.GeneratedSummary,
		summary.ReferenceSummary,
		summary.LexicalDensity,
		summary.CreatedAt,
	)
	return err
}

// ListSummariesByProject retrieves the summaries of a project's documents
func (s *GapStore) ListSummariesByProject(ctx context.Context, projectID string) ([]*domain.SummaryResult, error) {
	query := `
		SELECT s.id, s.document_id, s.generated_summary, s.reference_summary, s.lexical_density, s.created_at
		FROM summary_results s
		JOIN documents d ON d.id = s.document_id
		WHERE d.project_id = $1
		ORDER BY s.created_at ASC, s.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.SummaryResult
	for rows.Next() {
		var sum domain.SummaryResult
		err := rows.Scan(
			&sum.ID,
			&sum.DocumentID,
			&sum.GeneratedSummary,
			&sum.ReferenceSummary,
			&sum.LexicalDensity,
			&sum.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}

func (s *GapStore) queryResults(ctx context.Context, query string, args ...any) ([]*domain.GapResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.GapResult
	for rows.Next() {
		var r domain.GapResult
		var dupID sql.NullString
		err := rows.Scan(
			&r.ID,
			&r.RunItemID,
			&r.Gap,
			&r.Opportunity,
			&r.Category,
			&r.SimilarityAvg,
			&r.Hits,
			&r.EntropyBits,
			&r.EntropyNorm,
			&r.ValidationScore,
			&r.IsDuplicate,
			&dupID,
			&r.Verdict,
			&r.Reason,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if dupID.Valid {
			r.DuplicateOfID = dupID.String
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
