// Package embed provides embedding providers for recall: a hosted
// OpenAI-style provider, a self-hosted OpenAI-compatible provider, a
// selection factory, and an LRU caching wrapper.
package embed

import (
	"context"
	"time"

	"github.com/notewell/recall/internal/vector"
)

// Common embedding constants.
const (
	// DefaultBatchSize is the default number of texts per request.
	DefaultBatchSize = 32

	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultHostedBase is the hosted provider's API base.
	DefaultHostedBase = "https://api.openai.com/v1"

	// DefaultModel is the default embedding model.
	DefaultModel = "text-embedding-3-small"

	// DefaultSelfHostedDimensions is the provisional dimensionality for
	// self-hosted providers until the first response reveals the real one.
	DefaultSelfHostedDimensions = 768
)

// hostedModelDims maps known hosted models to their fixed output
// dimensionality.
var hostedModelDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Provider converts text into embedding vectors.
type Provider interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) (vector.Vector, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Dimensions returns the embedding dimensionality. For self-hosted
	// providers this is provisional until the first response.
	Dimensions() int

	// Close releases resources.
	Close() error
}
