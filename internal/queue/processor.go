package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator"
	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/semlattice/lattice/internal/storage"
	"github.com/semlattice/lattice/pkg/ai"
	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/export"
	"github.com/semlattice/lattice/pkg/leaselock"
	"github.com/semlattice/lattice/pkg/logger"
	"github.com/semlattice/lattice/pkg/pipeline"
	"github.com/semlattice/lattice/pkg/store"
	"github.com/semlattice/lattice/pkg/telemetry"
	"github.com/semlattice/lattice/pkg/tokenizer"
)

const embedBatchSize = 32

// Registry maps in-flight request ids to their cancel tokens so a CANCEL
// arriving on the side channel can reach a run already executing.
type Registry struct {
	mu     sync.Mutex
	tokens map[string]*pipeline.CancelToken
}

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]*pipeline.CancelToken)}
}

// Register creates and tracks a cancel token for the request.
func (r *Registry) Register(requestID string) *pipeline.CancelToken {
	token := pipeline.NewCancelToken()
	r.mu.Lock()
	r.tokens[requestID] = token
	r.mu.Unlock()
	return token
}

// Cancel flips the token for the request if it is in flight. Returns whether
// a running token was found.
func (r *Registry) Cancel(requestID string) bool {
	r.mu.Lock()
	token, ok := r.tokens[requestID]
	r.mu.Unlock()
	if ok {
		token.Cancel()
	}
	return ok
}

func (r *Registry) Remove(requestID string) {
	r.mu.Lock()
	delete(r.tokens, requestID)
	r.mu.Unlock()
}

type NewProcessorParams struct {
	Runner   *pipeline.Runner
	Store    store.Store
	Embedder ai.EmbeddingClient
	Channel  *amqp091.Channel
	Registry *Registry

	// ExportDir is the local root for chunk and shard output; empty disables
	// export.
	ExportDir string
	// S3 mirrors finished exports to object storage when set.
	S3 *s3.Client
	// Locks serializes shard merges across workers when set.
	Locks *leaselock.Client
}

// Processor consumes RUN and CANCEL messages and drives runs through the
// pipeline, persistence, and export.
type Processor struct {
	runner    *pipeline.Runner
	store     store.Store
	embedder  ai.EmbeddingClient
	ch        *amqp091.Channel
	registry  *Registry
	exportDir string
	s3        *s3.Client
	locks     *leaselock.Client
	validate  *validator.Validate
}

func NewProcessor(params NewProcessorParams) *Processor {
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Processor{
		runner:    params.Runner,
		store:     params.Store,
		embedder:  params.Embedder,
		ch:        params.Channel,
		registry:  registry,
		exportDir: params.ExportDir,
		s3:        params.S3,
		locks:     params.Locks,
		validate:  validator.New(),
	}
}

// ProcessRunMessage executes one RUN request. A nil return means the message
// is settled (acked): success, contract violation, and cancellation all end
// here. A non-nil return means a transient failure the caller should route
// through the retry queue.
func (p *Processor) ProcessRunMessage(ctx context.Context, body []byte) error {
	var msg RunRequestMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error("[Queue] Dropping malformed run message", "err", err)
		return nil
	}
	if err := p.validate.Struct(msg); err != nil {
		logger.Error("[Queue] Dropping invalid run message", "request_id", msg.RequestID, "err", err)
		return nil
	}

	requestID := msg.RequestID
	token := p.registry.Register(requestID)
	defer p.registry.Remove(requestID)

	if budget, err := tokenizer.PromptTokens(msg.Payload.Text); err == nil {
		logger.Info("[Queue] Starting run", "request_id", requestID, "prompt_tokens", budget)
	}

	p.setStatus(ctx, requestID, store.RunRunning, "")

	progress := func(stage string, value float64) {
		p.publishJSON(requestID, ProgressMsg{
			Type:      MessageProgress,
			RequestID: requestID,
			Stage:     stage,
			Value:     value,
		})
	}

	res, err := p.runner.Run(requestID, msg.Payload.Text, msg.Payload.Options, token, progress)
	if err != nil {
		return p.finishFailedRun(ctx, requestID, err)
	}

	if err := p.persistRun(ctx, requestID, res); err != nil {
		p.setStatus(ctx, requestID, store.RunFailed, err.Error())
		return fmt.Errorf("persist run %s: %w", requestID, err)
	}

	if msg.Payload.Export && p.exportDir != "" {
		if err := p.exportRun(ctx, requestID, res); err != nil {
			// The run itself succeeded; report the export failure without
			// failing the run or retrying the message.
			logger.Error("[Queue] Export failed", "request_id", requestID, "err", err)
		}
	}

	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", requestID, err)
	}
	p.publishJSON(requestID, ResultMsg{
		Type:      MessageResult,
		RequestID: requestID,
		Result:    resultJSON,
		Perf:      res.Perf,
	})
	return nil
}

// finishFailedRun settles a run that returned an error from the pipeline.
// Cancellation and contract violations are terminal outcomes, never retried;
// anything else propagates for the retry path.
func (p *Processor) finishFailedRun(ctx context.Context, requestID string, runErr error) error {
	if errors.Is(runErr, pipeline.ErrCanceled) {
		p.setStatus(ctx, requestID, store.RunCancelled, "")
		p.publishJSON(requestID, CancelledMsg{
			Type:      MessageCancelled,
			RequestID: requestID,
		})
		logger.Info("[Queue] Run cancelled", "request_id", requestID)
		return nil
	}

	var contractErr *common.ContractError
	if errors.As(runErr, &contractErr) {
		p.setStatus(ctx, requestID, store.RunFailed, runErr.Error())
		p.publishJSON(requestID, ErrorMsg{
			Type:      MessageError,
			RequestID: requestID,
			Error: ErrorBody{
				Name:    "contract_violation",
				Message: runErr.Error(),
			},
		})
		return nil
	}

	p.setStatus(ctx, requestID, store.RunFailed, runErr.Error())
	p.publishJSON(requestID, ErrorMsg{
		Type:      MessageError,
		RequestID: requestID,
		Error: ErrorBody{
			Name:    "internal_error",
			Message: runErr.Error(),
			Stack:   string(debug.Stack()),
		},
	})
	return runErr
}

func (p *Processor) persistRun(ctx context.Context, requestID string, res *pipeline.Result) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := p.store.SaveRunResult(ctx, requestID, resultJSON); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("save result: %w", err)
		}
		// Direct queue publishes have no run row; skip persistence quietly.
		return nil
	}

	row, err := telemetryRow(requestID, res.Record)
	if err != nil {
		return err
	}
	if err := p.store.SaveTelemetryRecord(ctx, row); err != nil {
		return fmt.Errorf("save telemetry: %w", err)
	}

	if p.embedder != nil {
		if err := p.embedNodes(ctx, requestID, res); err != nil {
			return fmt.Errorf("embed nodes: %w", err)
		}
	}
	return nil
}

// telemetryRow splits a history record into the jsonb columns the store
// persists.
func telemetryRow(requestID string, rec telemetry.HistoryRecord) (store.TelemetryRow, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return store.TelemetryRow{}, fmt.Errorf("marshal telemetry record: %w", err)
	}
	var fields struct {
		RecordedAt time.Time       `json:"recordedAt"`
		Metrics    json.RawMessage `json:"metrics"`
		EdgeTypes  json.RawMessage `json:"edgeTypes"`
		Top        json.RawMessage `json:"top"`
		Drift      json.RawMessage `json:"drift"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return store.TelemetryRow{}, fmt.Errorf("split telemetry record: %w", err)
	}
	return store.TelemetryRow{
		RunID:      requestID,
		RecordedAt: fields.RecordedAt,
		Metrics:    fields.Metrics,
		EdgeTypes:  fields.EdgeTypes,
		Top:        fields.Top,
		Drift:      fields.Drift,
	}, nil
}

// embedNodes generates vectors for every graph node in bounded parallel
// batches and persists them for similarity search.
func (p *Processor) embedNodes(ctx context.Context, requestID string, res *pipeline.Result) error {
	nodes := res.Graph.Nodes
	if len(nodes) == 0 {
		return nil
	}

	embeddings := make([][]float32, len(nodes))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(nodes); start += embedBatchSize {
		end := min(start+embedBatchSize, len(nodes))
		g.Go(func() error {
			inputs := make([][]byte, 0, end-start)
			for _, n := range nodes[start:end] {
				inputs = append(inputs, []byte(n.Token))
			}
			vectors, err := p.embedder.GenerateEmbeddings(groupCtx, inputs)
			if err != nil {
				return err
			}
			copy(embeddings[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows := make([]store.NodeEmbedding, 0, len(nodes))
	for i, n := range nodes {
		rows = append(rows, store.NodeEmbedding{
			Token:     n.Token,
			Kind:      n.Kind,
			Level:     n.Level,
			Embedding: embeddings[i],
		})
	}
	return p.store.SaveNodeEmbeddings(ctx, requestID, rows)
}

// exportRun writes the per-run chunk layout, merges into the shared shard
// tree under a lease lock, and mirrors both to S3 when configured.
func (p *Processor) exportRun(ctx context.Context, requestID string, res *pipeline.Result) error {
	runDir := filepath.Join(p.exportDir, requestID)
	if _, err := export.WriteChunks(res.Graph, runDir, requestID); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}

	shardRoot := filepath.Join(p.exportDir, "shards")
	mergeShards := func(context.Context) error {
		writer := export.NewShardWriter(shardRoot)
		return writer.Merge(res.Graph)
	}
	var err error
	if p.locks != nil {
		err = p.locks.WithLease(ctx, "export:shard-merge", leaselock.Options{
			TTL:  2 * time.Minute,
			Wait: true,
		}, mergeShards)
	} else {
		err = mergeShards(ctx)
	}
	if err != nil {
		return fmt.Errorf("merge shards: %w", err)
	}

	if p.s3 != nil {
		if err := storage.UploadDirectory(ctx, p.s3, "exports/"+requestID, runDir); err != nil {
			return err
		}
		if err := storage.UploadDirectory(ctx, p.s3, "exports/shards", shardRoot); err != nil {
			return err
		}
	}
	return nil
}

// ProcessCancelMessage handles a CANCEL request. If the run is in flight its
// token is flipped and the pipeline reports the cancellation itself; if not,
// the stored run is marked cancelled here so queued-but-unstarted runs do not
// execute with nobody listening.
func (p *Processor) ProcessCancelMessage(ctx context.Context, body []byte) error {
	var msg CancelRequestMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error("[Queue] Dropping malformed cancel message", "err", err)
		return nil
	}
	if err := p.validate.Struct(msg); err != nil {
		logger.Error("[Queue] Dropping invalid cancel message", "err", err)
		return nil
	}

	if p.registry.Cancel(msg.RequestID) {
		logger.Info("[Queue] Cancel flagged for running request", "request_id", msg.RequestID)
		return nil
	}

	p.setStatus(ctx, msg.RequestID, store.RunCancelled, "")
	p.publishJSON(msg.RequestID, CancelledMsg{
		Type:      MessageCancelled,
		RequestID: msg.RequestID,
	})
	logger.Info("[Queue] Cancelled queued request", "request_id", msg.RequestID)
	return nil
}

func (p *Processor) setStatus(ctx context.Context, requestID string, status store.RunStatus, errorMessage string) {
	if p.store == nil {
		return
	}
	err := p.store.UpdateRunStatus(ctx, requestID, status, errorMessage)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error("[Queue] Failed to update run status", "request_id", requestID, "status", status, "err", err)
	}
}

func (p *Processor) publishJSON(requestID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Queue] Failed to marshal response", "request_id", requestID, "err", err)
		return
	}
	if err := PublishResponse(p.ch, requestID, data); err != nil {
		logger.Error("[Queue] Failed to publish response", "request_id", requestID, "err", err)
	}
}
