package vector

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

var ErrPersistence = errors.New("index persistence failure")

// Result pairs an indexed passage with its cosine similarity score.
type Result struct {
	Text  string
	Score float32
}

// Index is a brute-force cosine-similarity store over passage embeddings.
// It is built once during ingestion and read-only afterwards; the ingestion
// service publishes a fully populated index before any search reaches it.
type Index struct {
	model     string
	dimension int
	passages  []string
	vectors   [][]float32
}

func NewIndex(model string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &Index{model: model, dimension: dimension}, nil
}

func (i *Index) Len() int {
	return len(i.passages)
}

func (i *Index) Model() string {
	return i.model
}

func (i *Index) Add(passages []string, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("passages and vectors length mismatch: %d vs %d", len(passages), len(vectors))
	}
	for n, v := range vectors {
		if len(v) != i.dimension {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", n, len(v), i.dimension)
		}
	}
	i.passages = append(i.passages, passages...)
	i.vectors = append(i.vectors, vectors...)
	return nil
}

// Search returns up to k passages ranked by non-increasing cosine similarity.
// Ties keep insertion order, so results are deterministic for a fixed index.
// A query whose dimension differs from the index (an artifact built under a
// different embedding model) is rejected rather than scored.
func (i *Index) Search(vector []float32, k int) ([]Result, error) {
	if len(vector) != i.dimension {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(vector), i.dimension)
	}
	if k <= 0 || len(i.passages) == 0 {
		return nil, nil
	}

	scores := make([]float32, len(i.vectors))
	for n := range i.vectors {
		scores[n] = cosine(i.vectors[n], vector)
	}

	order := make([]int, len(scores))
	for n := range order {
		order[n] = n
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]Result, 0, k)
	for _, n := range order[:k] {
		results = append(results, Result{Text: i.passages[n], Score: scores[n]})
	}
	return results, nil
}

// cosine assumes equal-length vectors; Search enforces this.
func cosine(a, b []float32) float32 {
	n := len(a)
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// artifact is the serialized on-disk form of an Index. The model name is
// recorded for diagnostics only; stored vectors are never re-embedded.
type artifact struct {
	Model     string
	Dimension int
	Passages  []string
	Vectors   [][]float32
}

// Save writes the index to path via a temporary file and an atomic rename,
// so a failed save never leaves a partial artifact behind.
func (i *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	a := artifact{
		Model:     i.model,
		Dimension: i.dimension,
		Passages:  i.passages,
		Vectors:   i.vectors,
	}
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Load restores a previously saved index. A missing or malformed artifact
// is a persistence failure; the caller decides whether to rebuild.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer f.Close()

	var a artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: corrupt artifact %s: %v", ErrPersistence, path, err)
	}
	if a.Dimension <= 0 || len(a.Passages) != len(a.Vectors) {
		return nil, fmt.Errorf("%w: malformed artifact %s", ErrPersistence, path)
	}

	return &Index{
		model:     a.Model,
		dimension: a.Dimension,
		passages:  a.Passages,
		vectors:   a.Vectors,
	}, nil
}
