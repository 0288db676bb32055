// Package embedder provides interfaces and implementations for the external
// text embedding service consumed by the semantic retrieval path.
package embedder

import "context"

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple text inputs, in
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// ModelConfig holds the dimensionality of a known embedding model.
type ModelConfig struct {
	Dimension int
}

// KnownModels maps embedding model names to their configurations. The
// dimension is needed up front to create the vector collection.
var KnownModels = map[string]ModelConfig{
	"nomic-embed-text":       {Dimension: 768},
	"mxbai-embed-large":      {Dimension: 1024},
	"all-minilm":             {Dimension: 384},
	"snowflake-arctic-embed": {Dimension: 1024},
}

// GetModelConfig returns the configuration for a model, or a conservative
// default for unknown models.
func GetModelConfig(modelName string) ModelConfig {
	if cfg, ok := KnownModels[modelName]; ok {
		return cfg
	}
	return ModelConfig{Dimension: 768}
}
