package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/semlattice/lattice/pkg/store"
)

func (s *Store) CreateRun(ctx context.Context, params store.CreateRunParams) (store.Run, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO runs (id, status, input_text, options)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, input_text, options, result, error_message, created_at, updated_at
	`, params.ID, store.RunPending, params.InputText, params.Options)

	run, err := scanRun(row)
	if err != nil {
		return store.Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status store.RunStatus, errorMessage string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE runs
		SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`, runID, status, errorMessage)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SaveRunResult(ctx context.Context, runID string, result json.RawMessage) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE runs
		SET result = $2, status = $3, updated_at = now()
		WHERE id = $1
	`, runID, result, store.RunCompleted)
	if err != nil {
		return fmt.Errorf("save run result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, status, input_text, options, result, error_message, created_at, updated_at
		FROM runs
		WHERE id = $1
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Run{}, store.ErrNotFound
	}
	if err != nil {
		return store.Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, status, input_text, options, result, error_message, created_at, updated_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgxv5.Row) (store.Run, error) {
	var run store.Run
	var errorMessage *string
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.InputText,
		&run.Options,
		&run.Result,
		&errorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return store.Run{}, err
	}
	if errorMessage != nil {
		run.ErrorMessage = *errorMessage
	}
	return run, nil
}
