package chat

import (
	"context"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]retrieval.Result, error)
}

type Service struct {
	retriever Retriever
	generator Generator
	topK      int
}

func NewService(r Retriever, g Generator, topK int) *Service {
	if topK <= 0 {
		topK = 4
	}
	return &Service{retriever: r, generator: g, topK: topK}
}

// Answer retrieves the passages most relevant to the message, renders the
// answer prompt around them, and returns the model output verbatim.
func (s *Service) Answer(ctx context.Context, message string) (string, error) {
	results, err := s.retriever.Search(ctx, message, s.topK)
	if err != nil {
		return "", err
	}
	return s.generator.Generate(ctx, renderAnswerPrompt(results, message))
}
