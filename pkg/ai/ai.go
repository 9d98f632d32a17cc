// Package ai defines the embedding client contract used to enrich graph
// nodes with dense vectors. Implementations live in the ollama and openai
// subpackages.
package ai

import "context"

// ModelMetrics accumulates usage across requests since the last reset.
type ModelMetrics struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	DurationMs   int64
}

// EmbeddingClient produces dense vectors for node labels. Implementations
// must be safe for concurrent use; internal semaphores bound parallel
// upstream requests.
type EmbeddingClient interface {
	// GenerateEmbedding embeds a single input. Empty input yields a zero
	// vector of the configured dimension rather than an error.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateEmbeddings embeds a batch in one upstream request where the
	// backend supports it, preserving input order.
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	GetMetrics() ModelMetrics
	ResetMetrics()
}
