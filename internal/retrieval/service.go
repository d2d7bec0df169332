package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akiraid64/diabetic-rag/internal/middleware"
)

// ErrNotReady means the document index has not been built or loaded yet.
var ErrNotReady = errors.New("document index not ready")

// Result is a retrieved passage with its similarity score.
type Result struct {
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore answers nearest-neighbour queries over the indexed document.
type VectorStore interface {
	Ready() bool
	Search(ctx context.Context, vector []float32, limit int) ([]Result, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, logger: l}
}

// Search embeds the query and returns the top passages ranked by similarity.
// Readiness is checked up front so an unindexed document never costs an
// embedding call.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !s.store.Ready() {
		return nil, ErrNotReady
	}

	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumResults:    len(docs),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}
	return docs, nil
}

// ContextBlock joins retrieved passages, in ranked order, into the single
// context block substituted into prompt templates.
func ContextBlock(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n\n")
}
