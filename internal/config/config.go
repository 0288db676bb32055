// Package config loads configuration from environment variables and .env files.
package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the search service.
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Vector store
	VectorBackend     string `env:"VECTOR_BACKEND" envDefault:"qdrant"` // qdrant or memory
	QdrantGRPCURL     string `env:"QDRANT_GRPC_URL" envDefault:"localhost:6334"`
	CollectionName    string `env:"COLLECTION_NAME" envDefault:"knowledge_base"`
	QdrantScrollLimit int    `env:"QDRANT_SCROLL_LIMIT" envDefault:"4096"`

	// Ollama
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	OllamaLLMModel       string `env:"OLLAMA_LLM_MODEL" envDefault:"llama3.2"`

	// Search
	DefaultTopK       int  `env:"DEFAULT_TOP_K" envDefault:"5"`
	AnalyticsCapacity int  `env:"ANALYTICS_CAPACITY" envDefault:"1000"`
	SeedKnowledgeBase bool `env:"SEED_KNOWLEDGE_BASE" envDefault:"true"`
}

// Load loads configuration from a .env file (if present) and environment
// variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found).
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
