package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knoguchi/kbsearch/internal/analytics"
	"github.com/knoguchi/kbsearch/internal/config"
	"github.com/knoguchi/kbsearch/internal/embedder"
	"github.com/knoguchi/kbsearch/internal/llm"
	"github.com/knoguchi/kbsearch/internal/search"
	"github.com/knoguchi/kbsearch/internal/server"
	"github.com/knoguchi/kbsearch/internal/service"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting knowledge base search service",
		"http_port", cfg.HTTPPort,
		"vector_backend", cfg.VectorBackend,
		"environment", cfg.Environment,
	)

	store, cleanup, err := newVectorStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	slog.Info("initialized Ollama embedder", "model", cfg.OllamaEmbeddingModel)

	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	slog.Info("initialized Ollama LLM", "model", cfg.OllamaLLMModel)

	if cfg.SeedKnowledgeBase {
		seeder := service.NewSeeder(embed, store, slog.Default())
		if err := seeder.EnsureSeeded(ctx); err != nil {
			// A missing seed corpus degrades search quality but the
			// service can still serve whatever the store holds.
			slog.Warn("knowledge base seeding failed", "error", err)
		}
	}

	searchSvc := service.NewSearchService(
		search.NewSemanticRetriever(embed, store),
		search.NewLexicalRetriever(store),
		analytics.NewRecorder(cfg.AnalyticsCapacity),
		cfg.DefaultTopK,
		slog.Default(),
	)
	answerSvc := service.NewAnswerService(searchSvc, llmClient, cfg.OllamaLLMModel, slog.Default())

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // configure in production
	}, searchSvc, answerSvc, store)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// newVectorStore selects the configured backend. The in-memory store is for
// development without a running Qdrant.
func newVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, func(), error) {
	switch cfg.VectorBackend {
	case "memory":
		slog.Info("using in-memory vector store")
		return vectorstore.NewMemoryStore(), func() {}, nil
	case "qdrant":
		store, err := vectorstore.NewQdrantStore(ctx, vectorstore.QdrantConfig{
			URL:         cfg.QdrantGRPCURL,
			Collection:  cfg.CollectionName,
			ScrollLimit: cfg.QdrantScrollLimit,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		slog.Info("connected to Qdrant", "collection", cfg.CollectionName)
		cleanup := func() {
			if err := store.Close(); err != nil {
				slog.Warn("error closing Qdrant connection", "error", err)
			}
		}
		return store, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
