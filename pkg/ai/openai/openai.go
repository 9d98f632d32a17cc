// Package openai implements the embedding client against the OpenAI API or
// any compatible endpoint.
package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/semlattice/lattice/pkg/ai"
)

const defaultMaxConcurrentRequests = 15

// EmbedOpenAIClient implements ai.EmbeddingClient using the OpenAI
// embeddings endpoint.
type EmbedOpenAIClient struct {
	embeddingModel string
	timeoutMin     int

	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	EmbeddingClient *openai.Client
}

type NewEmbedOpenAIClientParams struct {
	EmbeddingModel string

	EmbeddingURL string
	EmbeddingKey string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewEmbedOpenAIClient creates a client for the configured embeddings
// endpoint. An empty EmbeddingURL uses the default OpenAI base URL.
func NewEmbedOpenAIClient(params NewEmbedOpenAIClientParams) *EmbedOpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(params.EmbeddingKey)}
	if params.EmbeddingURL != "" {
		opts = append(opts, option.WithBaseURL(params.EmbeddingURL))
	}
	client := openai.NewClient(opts...)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentRequests
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &EmbedOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		timeoutMin:      timeoutMin,
		embeddingLock:   semaphore.NewWeighted(maxConcurrent),
		EmbeddingClient: &client,
	}
}

func (c *EmbedOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

func (c *EmbedOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *EmbedOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
