package report

import (
	"context"
	"log/slog"
	"strings"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

// analysisTopK is the number of passages grounding the report analysis.
const analysisTopK = 4

type VisionGenerator interface {
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]retrieval.Result, error)
}

type Service struct {
	retriever Retriever
	generator VisionGenerator
}

func NewService(r Retriever, g VisionGenerator) *Service {
	return &Service{retriever: r, generator: g}
}

// Classify runs the gating call and reports whether the image was accepted
// as a blood-glucose report. The raw model response is returned for
// diagnosing false negatives; any response without a "YES" token counts as
// a rejection, including malformed output.
func (s *Service) Classify(ctx context.Context, mimeType string, image []byte) (accepted bool, raw string, err error) {
	raw, err = s.generator.GenerateWithImage(ctx, validationPrompt, mimeType, image)
	if err != nil {
		return false, "", err
	}
	accepted = strings.Contains(strings.ToUpper(strings.TrimSpace(raw)), "YES")
	return accepted, raw, nil
}

// Analyze runs the two-stage workflow: the validation gate first, then the
// detailed analysis grounded in retrieved diagnostic-range passages. The
// second provider call is only made for an accepted image. An optional user
// message is appended to the analysis prompt as an extra question.
func (s *Service) Analyze(ctx context.Context, mimeType string, image []byte, message string) (string, error) {
	accepted, raw, err := s.Classify(ctx, mimeType, image)
	if err != nil {
		return "", err
	}
	if !accepted {
		slog.InfoContext(ctx, "image rejected by glucose report gate", "raw_response", raw)
		return RefusalMessage, nil
	}

	results, err := s.retriever.Search(ctx, rangeContextQuery, analysisTopK)
	if err != nil {
		return "", err
	}

	return s.generator.GenerateWithImage(ctx, renderAnalysisPrompt(results, message), mimeType, image)
}
