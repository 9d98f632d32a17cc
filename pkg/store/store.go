// Package store defines the persistence contract for runs, telemetry, and
// node embeddings. The pgx subpackage provides the PostgreSQL/pgvector
// implementation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("store: not found")

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run is the persisted lifecycle record of one construction request.
type Run struct {
	ID           string          `json:"id"`
	Status       RunStatus       `json:"status"`
	InputText    string          `json:"-"`
	Options      json.RawMessage `json:"options,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateRunParams describes a new run row.
type CreateRunParams struct {
	ID        string
	InputText string
	Options   json.RawMessage
}

// TelemetryRow is one persisted telemetry record.
type TelemetryRow struct {
	ID         int64           `json:"id"`
	RunID      string          `json:"run_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Metrics    json.RawMessage `json:"metrics"`
	EdgeTypes  json.RawMessage `json:"edge_types"`
	Top        json.RawMessage `json:"top"`
	Drift      json.RawMessage `json:"drift"`
}

// NodeEmbedding is a node vector persisted for similarity search.
type NodeEmbedding struct {
	Token     string
	Kind      string
	Level     int
	Embedding []float32
}

// SimilarNode is one nearest-neighbor hit; Distance is cosine distance, so
// smaller means more similar.
type SimilarNode struct {
	RunID    string  `json:"run_id"`
	Token    string  `json:"token"`
	Kind     string  `json:"kind"`
	Distance float64 `json:"distance"`
}

type RunStore interface {
	CreateRun(ctx context.Context, params CreateRunParams) (Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status RunStatus, errorMessage string) error
	SaveRunResult(ctx context.Context, runID string, result json.RawMessage) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

type TelemetryStore interface {
	SaveTelemetryRecord(ctx context.Context, row TelemetryRow) error
	TelemetryHistory(ctx context.Context, limit int) ([]TelemetryRow, error)
}

type EmbeddingStore interface {
	SaveNodeEmbeddings(ctx context.Context, runID string, nodes []NodeEmbedding) error
	SimilarNodes(ctx context.Context, embedding []float32, limit int) ([]SimilarNode, error)
}

// Store is the full persistence surface used by the worker and server.
type Store interface {
	RunStore
	TelemetryStore
	EmbeddingStore
}
