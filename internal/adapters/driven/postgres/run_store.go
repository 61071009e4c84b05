package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RunStore = (*RunStore)(nil)

// RunStore implements driven.RunStore using PostgreSQL
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun creates or updates a run
func (s *RunStore) SaveRun(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO runs (id, project_id, state, items_total, items_ok, started_at, finished_at, tokens_in, tokens_out, estimated_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			items_total = EXCLUDED.items_total,
			items_ok = EXCLUDED.items_ok,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			tokens_in = EXCLUDED.tokens_in,
			tokens_out = EXCLUDED.tokens_out,
			estimated_cost = EXCLUDED.estimated_cost
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.ProjectID,
		run.State,
		run.ItemsTotal,
		run.ItemsOK,
		NullTime(run.StartedAt),
		NullTime(run.FinishedAt),
		run.TokensIn,
		run.TokensOut,
		run.EstimatedCost,
	)
	return err
}

// GetRun retrieves a run by ID
func (s *RunStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	query := `
		SELECT id, project_id, state, items_total, items_ok, started_at, finished_at, tokens_in, tokens_out, estimated_cost
		FROM runs
		WHERE id = $1
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

// ListRunsByProject retrieves a project's runs, most recent first
func (s *RunStore) ListRunsByProject(ctx context.Context, projectID string) ([]*domain.Run, error) {
	query := `
		SELECT id, project_id, state, items_total, items_ok, started_at, finished_at, tokens_in, tokens_out, estimated_cost
		FROM runs
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveItems stores a run's item set in one transaction
func (s *RunStore) SaveItems(ctx context.Context, items []*domain.RunItem) error {
	if len(items) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO run_items (id, run_id, document_id, state, error_msg, duration_ms, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, item := range items {
			_, err = stmt.ExecContext(ctx,
				item.ID,
				item.RunID,
				item.DocumentID,
				item.State,
				item.ErrorMsg,
				item.DurationMS,
				item.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateItem persists an item's state, error message and duration
func (s *RunStore) UpdateItem(ctx context.Context, item *domain.RunItem) error {
	query := `
		UPDATE run_items
		SET state = $2, error_msg = $3, duration_ms = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, item.ID, item.State, item.ErrorMsg, item.DurationMS)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetItems retrieves all items of a run in creation order
func (s *RunStore) GetItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	query := `
		SELECT id, run_id, document_id, state, error_msg, duration_ms, created_at
		FROM run_items
		WHERE run_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.RunItem
	for rows.Next() {
		item, err := scanRunItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextPending returns the first pending item of a run in creation order.
// The ordering clause makes repeated calls walk the run in one fixed
// sequence.
func (s *RunStore) NextPending(ctx context.Context, runID string) (*domain.RunItem, error) {
	query := `
		SELECT id, run_id, document_id, state, error_msg, duration_ms, created_at
		FROM run_items
		WHERE run_id = $1 AND state = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	item, err := scanRunItem(s.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return item, err
}

// CountPending returns how many items of the run are still pending
func (s *RunStore) CountPending(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM run_items WHERE run_id = $1 AND state = 'pending'`,
		runID,
	).Scan(&count)
	return count, err
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var startedAt, finishedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.ProjectID,
		&run.State,
		&run.ItemsTotal,
		&run.ItemsOK,
		&startedAt,
		&finishedAt,
		&run.TokensIn,
		&run.TokensOut,
		&run.EstimatedCost,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = TimePtr(startedAt)
	run.FinishedAt = TimePtr(finishedAt)
	return &run, nil
}

func scanRunItem(row scanner) (*domain.RunItem, error) {
	var item domain.RunItem
	err := row.Scan(
		&item.ID,
		&item.RunID,
		&item.DocumentID,
		&item.State,
		&item.ErrorMsg,
		&item.DurationMS,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
