package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/akiraid64/diabetic-rag/features/chat"
	"github.com/akiraid64/diabetic-rag/features/report"
	"github.com/akiraid64/diabetic-rag/internal/config"
	"github.com/akiraid64/diabetic-rag/internal/ingest"
	"github.com/akiraid64/diabetic-rag/internal/middleware"
	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

// Provider is the combined embedding/generation surface the app wires into
// its services. The Gemini client satisfies it; tests substitute fakes.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

type App struct {
	Handler http.Handler
	Ingest  *ingest.Service

	port int
}

func New(cfg *config.Config, provider Provider, extractor ingest.Extractor) *App {
	ingestService := ingest.NewService(provider, extractor, ingest.Options{
		PDFPath:     cfg.PDFPath,
		IndexPath:   cfg.IndexPath,
		ChunkSize:   cfg.ChunkSize,
		Concurrency: cfg.IngestionConcurrency,
		EmbedModel:  cfg.EmbedModel,
	})
	ingestHandler := ingest.NewHandler(ingestService)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(provider, ingestService, queryLogger)

	chatService := chat.NewService(retrievalService, provider, cfg.RetrievalTopK)
	chatHandler := chat.NewHandler(chatService)

	reportService := report.NewService(retrievalService, provider)
	reportHandler := report.NewHandler(reportService, chatService, cfg.MaxUploadSizeMB<<20)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("POST /load-pdf", middleware.CorrelationID(enableCORS(ingestHandler.LoadPDF)))
	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))
	mux.Handle("POST /analyze", middleware.CorrelationID(enableCORS(reportHandler.Analyze)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{Handler: mux, Ingest: ingestService, port: cfg.ServerPort}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
