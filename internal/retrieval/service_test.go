package retrieval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockStore struct{ mock.Mock }

func (m *MockStore) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockStore) Search(ctx context.Context, vector []float32, limit int) ([]retrieval.Result, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Result), args.Error(1)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		embedder := new(MockEmbedder)
		store := new(MockStore)
		store.On("Ready").Return(true)
		embedder.On("Embed", mock.Anything, "glucose ranges").Return([]float32{0.1, 0.2}, nil)
		store.On("Search", mock.Anything, []float32{0.1, 0.2}, 4).
			Return([]retrieval.Result{{Content: "A", Score: 0.9}, {Content: "B", Score: 0.5}}, nil)

		var buf bytes.Buffer
		svc := retrieval.NewService(embedder, store, retrieval.NewQueryLogger(&buf))

		results, err := svc.Search(ctx, "glucose ranges", 4)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "A", results[0].Content)
		embedder.AssertExpectations(t)
		store.AssertExpectations(t)

		var entry retrieval.QueryLogEntry
		require.NoError(t, json.NewDecoder(&buf).Decode(&entry))
		assert.Equal(t, "glucose ranges", entry.Query)
		assert.Equal(t, 2, entry.NumResults)
	})

	t.Run("Embedder Error", func(t *testing.T) {
		embedder := new(MockEmbedder)
		store := new(MockStore)
		wantErr := errors.New("embed down")
		store.On("Ready").Return(true)
		embedder.On("Embed", mock.Anything, "q").Return(nil, wantErr)

		svc := retrieval.NewService(embedder, store, nil)
		_, err := svc.Search(ctx, "q", 4)
		assert.ErrorIs(t, err, wantErr)
		store.AssertNotCalled(t, "Search")
	})

	t.Run("Store Error", func(t *testing.T) {
		embedder := new(MockEmbedder)
		store := new(MockStore)
		wantErr := errors.New("store down")
		store.On("Ready").Return(true)
		embedder.On("Embed", mock.Anything, "q").Return([]float32{0.1}, nil)
		store.On("Search", mock.Anything, []float32{0.1}, 4).Return(nil, wantErr)

		svc := retrieval.NewService(embedder, store, nil)
		_, err := svc.Search(ctx, "q", 4)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("Not Ready Skips Embedding", func(t *testing.T) {
		embedder := new(MockEmbedder)
		store := new(MockStore)
		store.On("Ready").Return(false)

		svc := retrieval.NewService(embedder, store, nil)
		_, err := svc.Search(ctx, "q", 4)
		assert.ErrorIs(t, err, retrieval.ErrNotReady)
		embedder.AssertNotCalled(t, "Embed")
		store.AssertNotCalled(t, "Search")
	})
}

func TestContextBlock(t *testing.T) {
	results := []retrieval.Result{
		{Content: "first passage"},
		{Content: "second passage"},
	}
	assert.Equal(t, "first passage\n\nsecond passage", retrieval.ContextBlock(results))
	assert.Equal(t, "", retrieval.ContextBlock(nil))
}
