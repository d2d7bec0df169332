package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akiraid64/diabetic-rag/features/chat"
	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

type MockRetriever struct{ mock.Mock }

func (m *MockRetriever) Search(ctx context.Context, query string, limit int) ([]retrieval.Result, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Result), args.Error(1)
}

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestService_Answer(t *testing.T) {
	ctx := context.Background()

	t.Run("Prompt Carries Context And Question", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		retriever.On("Search", mock.Anything, "what is a normal fasting level?", 4).
			Return([]retrieval.Result{{Content: "Normal fasting glucose is below 100 mg/dL."}, {Content: "HbA1c reflects three months."}}, nil)

		var captured string
		generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
			captured = p
			return true
		})).Return("A grounded answer.", nil)

		svc := chat.NewService(retriever, generator, 4)
		answer, err := svc.Answer(ctx, "what is a normal fasting level?")
		require.NoError(t, err)
		assert.Equal(t, "A grounded answer.", answer)

		assert.Contains(t, captured, "Normal fasting glucose is below 100 mg/dL.\n\nHbA1c reflects three months.")
		assert.Contains(t, captured, "Question: what is a normal fasting level?")
		assert.Contains(t, captured, "Please consult your doctor for personalized advice")
	})

	t.Run("Retriever Error Propagates", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		wantErr := errors.New("not ready")
		retriever.On("Search", mock.Anything, "q", 4).Return(nil, wantErr)

		svc := chat.NewService(retriever, generator, 4)
		_, err := svc.Answer(ctx, "q")
		assert.ErrorIs(t, err, wantErr)
		generator.AssertNotCalled(t, "Generate")
	})

	t.Run("Generator Error Propagates", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		wantErr := errors.New("provider down")
		retriever.On("Search", mock.Anything, "q", 4).Return([]retrieval.Result{}, nil)
		generator.On("Generate", mock.Anything, mock.Anything).Return("", wantErr)

		svc := chat.NewService(retriever, generator, 4)
		_, err := svc.Answer(ctx, "q")
		assert.ErrorIs(t, err, wantErr)
	})
}
