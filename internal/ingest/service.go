package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
	"github.com/akiraid64/diabetic-rag/internal/text"
	"github.com/akiraid64/diabetic-rag/internal/vector"
)

var ErrExtraction = errors.New("document extraction failure")

// Passages per provider call; the embedding API caps batch size at 100.
const embedBatchSize = 100

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor turns a document file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

type Options struct {
	PDFPath     string
	IndexPath   string
	ChunkSize   int
	Concurrency int
	EmbedModel  string
}

// Service owns the document index lifecycle: build it once from the PDF,
// persist it, and reuse the persisted artifact on later startups. It is the
// single writer of the index; all query-time consumers go through Search.
type Service struct {
	embedder  Embedder
	extractor Extractor
	opts      Options

	// loadMu serializes LoadDocument; mu guards the published index pointer.
	loadMu sync.Mutex
	mu     sync.RWMutex
	index  *vector.Index
}

func NewService(e Embedder, x Extractor, opts Options) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Service{embedder: e, extractor: x, opts: opts}
}

// LoadDocument brings the index to the ready state. It reports reused=true
// when the persisted artifact (or an already published index) was served
// without touching the document or the embedding provider. The artifact is
// deliberately reused even if the source PDF changed since it was built;
// delete the artifact to force a rebuild.
func (s *Service) LoadDocument(ctx context.Context) (reused bool, err error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Ready() {
		return true, nil
	}

	if _, statErr := os.Stat(s.opts.IndexPath); statErr == nil {
		idx, loadErr := vector.Load(s.opts.IndexPath)
		if loadErr != nil {
			return false, loadErr
		}
		s.publish(idx)
		slog.InfoContext(ctx, "loaded existing vector index", "path", s.opts.IndexPath, "passages", idx.Len())
		return true, nil
	}

	raw, err := s.extractor.Extract(s.opts.PDFPath)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	passages := text.Split(raw, s.opts.ChunkSize)
	if len(passages) == 0 {
		return false, fmt.Errorf("%w: document %s produced no passages", ErrExtraction, s.opts.PDFPath)
	}

	vectors, err := s.embedAll(ctx, passages)
	if err != nil {
		return false, err
	}

	idx, err := vector.NewIndex(s.opts.EmbedModel, len(vectors[0]))
	if err != nil {
		return false, err
	}
	if err := idx.Add(passages, vectors); err != nil {
		return false, err
	}
	if err := idx.Save(s.opts.IndexPath); err != nil {
		return false, err
	}

	s.publish(idx)
	slog.InfoContext(ctx, "vector index built and persisted",
		"path", s.opts.IndexPath, "passages", idx.Len(), "model", s.opts.EmbedModel)
	return false, nil
}

// embedAll embeds every passage, batches issued concurrently but results
// placed by position so each passage keeps its own vector. Any batch failure
// aborts the whole build.
func (s *Service) embedAll(ctx context.Context, passages []string) ([][]float32, error) {
	vectors := make([][]float32, len(passages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for start := 0; start < len(passages); start += embedBatchSize {
		start := start
		end := min(start+embedBatchSize, len(passages))
		g.Go(func() error {
			batch, err := s.embedder.EmbedBatch(gctx, passages[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (s *Service) publish(idx *vector.Index) {
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
}

func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Search implements retrieval.VectorStore over the currently published
// index. It fails fast with retrieval.ErrNotReady instead of blocking while
// ingestion is still in flight; the pointer swap in publish guarantees
// readers only ever see a complete index.
func (s *Service) Search(ctx context.Context, vec []float32, limit int) ([]retrieval.Result, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	if idx == nil {
		return nil, retrieval.ErrNotReady
	}

	hits, err := idx.Search(vec, limit)
	if err != nil {
		return nil, err
	}
	results := make([]retrieval.Result, len(hits))
	for i, h := range hits {
		results[i] = retrieval.Result{Content: h.Text, Score: h.Score}
	}
	return results, nil
}
