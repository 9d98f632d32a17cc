// Package pgx implements the store interfaces on PostgreSQL with pgvector
// for node similarity search.
package pgx

import (
	"context"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Store persists runs, telemetry, and embeddings. Writes that batch multiple
// statements are serialized through dbLock so a pool connection is never
// shared mid-transaction.
type Store struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

type NewStoreParams struct {
	Conn pgxIConn
}

func NewStore(params NewStoreParams) *Store {
	return &Store{conn: params.Conn}
}
