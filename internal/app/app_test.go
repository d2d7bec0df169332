package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akiraid64/diabetic-rag/internal/config"
)

type fakeProvider struct{}

func (fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func (fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "generated answer", nil
}

func (fakeProvider) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return "YES", nil
}

// failingEmbedProvider counts Embed calls and fails them, so routes that
// must refuse before touching the provider can be asserted by call count.
type failingEmbedProvider struct {
	fakeProvider
	embedCalls atomic.Int32
}

func (p *failingEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.embedCalls.Add(1)
	return nil, errors.New("provider down")
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(path string) (string, error) {
	return "Fasting glucose should be below 100 mg/dL.\n\nHbA1c above 6.5 percent indicates diabetes.", nil
}

func newTestApp(t *testing.T) *App {
	return newTestAppWith(t, fakeProvider{})
}

func newTestAppWith(t *testing.T, provider Provider) *App {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		GeminiAPIKey:         "test-key",
		ServerPort:           8080,
		PDFPath:              filepath.Join(dir, "diabetes.pdf"),
		IndexPath:            filepath.Join(dir, "index", "diabetes.idx"),
		EmbedModel:           "text-embedding-004",
		ChunkSize:            50,
		RetrievalTopK:        4,
		IngestionConcurrency: 2,
		MaxUploadSizeMB:      10,
		QueryLogPath:         filepath.Join(dir, "logs", "query.log"),
	}

	return New(cfg, provider, fakeExtractor{})
}

func TestApp_ChatBeforeLoadReturnsNotReady(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"message":"what is a normal fasting range?"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"PDF not loaded yet."}`, rr.Body.String())
}

func TestApp_ChatBeforeLoadSpendsNoEmbedding(t *testing.T) {
	provider := &failingEmbedProvider{}
	a := newTestAppWith(t, provider)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"message":"what is a normal fasting range?"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"PDF not loaded yet."}`, rr.Body.String())
	assert.Equal(t, int32(0), provider.embedCalls.Load())
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestApp_LoadThenChat(t *testing.T) {
	a := newTestApp(t)

	loadReq := httptest.NewRequest(http.MethodPost, "/load-pdf", nil)
	loadRR := httptest.NewRecorder()
	a.Handler.ServeHTTP(loadRR, loadReq)

	require.Equal(t, http.StatusOK, loadRR.Code)
	assert.JSONEq(t, `{"success":true,"message":"PDF loaded and vector store created on disk."}`, loadRR.Body.String())

	chatReq := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"message":"what is a normal fasting range?"}`))
	chatReq.Header.Set("Content-Type", "application/json")
	chatRR := httptest.NewRecorder()
	a.Handler.ServeHTTP(chatRR, chatReq)

	assert.Equal(t, http.StatusOK, chatRR.Code)
	assert.JSONEq(t, `{"success":true,"message":"generated answer"}`, chatRR.Body.String())
}

func TestApp_LoadTwiceReusesIndex(t *testing.T) {
	a := newTestApp(t)

	first := httptest.NewRecorder()
	a.Handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/load-pdf", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	a.Handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/load-pdf", nil))

	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"success":true,"message":"Loaded existing vector store from disk."}`, second.Body.String())
}
