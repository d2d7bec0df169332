package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akiraid64/diabetic-rag/internal/adapter/gemini"
	"github.com/akiraid64/diabetic-rag/internal/app"
	"github.com/akiraid64/diabetic-rag/internal/config"
	"github.com/akiraid64/diabetic-rag/internal/ingest"
	"github.com/akiraid64/diabetic-rag/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:          cfg.GeminiAPIKey,
		EmbedModel:      cfg.EmbedModel,
		GenerationModel: cfg.GenerationModel,
		EmbedTimeout:    time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
		GenerateTimeout: time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
	})
	if err != nil {
		slog.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	application := app.New(cfg, client, ingest.NewPDFExtractor())

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
