package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/adityaverma/docuchat/internal/archive"
	"github.com/adityaverma/docuchat/internal/config"
	"github.com/adityaverma/docuchat/internal/queue"
	"github.com/adityaverma/docuchat/internal/queue/workers"
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

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 5,
		},
	)

	archiveWorker := workers.NewArchiveWorker(archive.New(cfg.Storage.ArchiveDir))
	handlers := queue.Handlers{
		ArchiveStore: asynq.HandlerFunc(archiveWorker.ProcessTask),
	}

	slog.Info("starting worker", "concurrency", 5)
	if err := srv.Run(handlers.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
