package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrEmbedding  = errors.New("embedding provider failure")
	ErrGeneration = errors.New("generation provider failure")
)

type Options struct {
	APIKey          string
	EmbedModel      string
	GenerationModel string
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Client wraps the Gemini API behind the two provider roles the service
// needs: text embedding and (optionally image-grounded) text generation.
type Client struct {
	client *genai.Client
	opts   Options
}

func NewClient(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Client, error) {
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-004"
	}
	if opts.GenerationModel == "" {
		opts.GenerationModel = "gemini-2.5-flash"
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = 60 * time.Second
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 120 * time.Second
	}

	clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, opts: opts}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.EmbedTimeout)
	defer cancel()

	em := c.client.EmbeddingModel(c.opts.EmbedModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "model", c.opts.EmbedModel, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding received", ErrEmbedding)
	}
	return res.Embedding.Values, nil
}

// EmbedBatch embeds every text in one provider call. A partial response is
// treated as a failure so callers never index a passage without its vector.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.EmbedTimeout)
	defer cancel()

	em := c.client.EmbeddingModel(c.opts.EmbedModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		slog.ErrorContext(ctx, "batch embedding failed", "model", c.opts.EmbedModel, "count", len(texts), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, len(texts), len(res.Embeddings))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at position %d", ErrEmbedding, i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

func (c *Client) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return c.generate(ctx, genai.Text(prompt), genai.Blob{MIMEType: mimeType, Data: image})
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.GenerateTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.opts.GenerationModel)
	res, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "model", c.opts.GenerationModel, "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := responseText(res)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
