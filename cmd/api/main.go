package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/adityaverma/docuchat/internal/api"
	"github.com/adityaverma/docuchat/internal/config"
	"github.com/adityaverma/docuchat/internal/corpus"
	"github.com/adityaverma/docuchat/internal/database"
	"github.com/adityaverma/docuchat/internal/embedding"
	"github.com/adityaverma/docuchat/internal/llm"
	"github.com/adityaverma/docuchat/internal/rag"
	"github.com/adityaverma/docuchat/internal/telemetry"
	"github.com/adityaverma/docuchat/pkg/chunker"
	"github.com/adityaverma/docuchat/pkg/tokenizer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache and archival", "error", err)
	}
	defer rdb.Close()

	// The shared (index, chunks) pair. Loaded once; every append serializes
	// through its writer lock.
	store, err := corpus.Open(cfg.IndexPath(), cfg.ChunksPath(), cfg.RAG.EmbeddingDim)
	if err != nil {
		slog.Error("failed to open corpus store", "error", err)
		os.Exit(1)
	}
	slog.Info("corpus store loaded", "chunks", store.Len())

	// Models are bound once at startup and reused for every request.
	gateway := llm.NewGateway(cfg.LLM)
	embedder := embedding.NewService(gateway, cfg.LLM.EmbeddingModel)
	splitter := chunker.New(chunker.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		Strategy:     cfg.RAG.ChunkStrategy,
	})
	answerer := rag.NewAnswerer(gateway, cfg.RAG, cfg.LLM.ChatModel)

	var summarizer *rag.Summarizer
	if cfg.RAG.SummarizeOnIngest {
		counter := tokenizer.ForModel(cfg.LLM.ChatModel)
		summarizer = rag.NewSummarizer(gateway, cfg.LLM.ChatModel, counter,
			cfg.RAG.SummaryMaxTokens, cfg.RAG.SummaryMinTokens, cfg.RAG.SummaryReserve)
	}

	metrics := telemetry.New()
	pipeline := rag.NewPipeline(store, embedder, splitter, answerer, summarizer, cfg.RAG.TopK, metrics)

	router := api.NewRouter(db, rdb, cfg, pipeline, metrics)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // ingestion blocks on model inference
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
