package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/semlattice/lattice/pkg/store"
)

func (s *Store) SaveNodeEmbeddings(ctx context.Context, runID string, nodes []store.NodeEmbedding) error {
	if len(nodes) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin embeddings tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, node := range nodes {
		if len(node.Embedding) == 0 {
			continue
		}
		embed := pgvector.NewVector(node.Embedding)
		if _, err := tx.Exec(ctx, `
			INSERT INTO node_embeddings (run_id, token, kind, level, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (run_id, token) DO UPDATE
			SET kind = EXCLUDED.kind, level = EXCLUDED.level, embedding = EXCLUDED.embedding
		`, runID, node.Token, node.Kind, node.Level, embed); err != nil {
			return fmt.Errorf("insert embedding for %q: %w", node.Token, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit embeddings tx: %w", err)
	}
	return nil
}

func (s *Store) SimilarNodes(ctx context.Context, embedding []float32, limit int) ([]store.SimilarNode, error) {
	if limit <= 0 {
		limit = 10
	}
	embed := pgvector.NewVector(embedding)

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, token, kind, embedding <=> $1 AS distance
		FROM node_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`, embed, limit)
	if err != nil {
		return nil, fmt.Errorf("similar nodes: %w", err)
	}
	defer rows.Close()

	var hits []store.SimilarNode
	for rows.Next() {
		var hit store.SimilarNode
		if err := rows.Scan(&hit.RunID, &hit.Token, &hit.Kind, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scan similar node: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
