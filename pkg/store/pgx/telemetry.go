package pgx

import (
	"context"
	"fmt"

	"github.com/semlattice/lattice/pkg/store"
)

func (s *Store) SaveTelemetryRecord(ctx context.Context, row store.TelemetryRow) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO telemetry_records (run_id, recorded_at, metrics, edge_types, top, drift)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, row.RunID, row.RecordedAt, row.Metrics, row.EdgeTypes, row.Top, row.Drift)
	if err != nil {
		return fmt.Errorf("save telemetry record: %w", err)
	}
	return nil
}

func (s *Store) TelemetryHistory(ctx context.Context, limit int) ([]store.TelemetryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, run_id, recorded_at, metrics, edge_types, top, drift
		FROM telemetry_records
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry history: %w", err)
	}
	defer rows.Close()

	var history []store.TelemetryRow
	for rows.Next() {
		var row store.TelemetryRow
		if err := rows.Scan(
			&row.ID,
			&row.RunID,
			&row.RecordedAt,
			&row.Metrics,
			&row.EdgeTypes,
			&row.Top,
			&row.Drift,
		); err != nil {
			return nil, fmt.Errorf("scan telemetry record: %w", err)
		}
		history = append(history, row)
	}
	return history, rows.Err()
}
