package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSentenceEncoder struct {
	mock.Mock
}

func (m *MockSentenceEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestLocalEmbedder_Defaults(t *testing.T) {
	e := NewLocalEmbedder(&MockSentenceEncoder{}, "", 0)

	assert.Equal(t, DefaultLocalModel, e.ModelName())
	assert.Equal(t, DefaultLocalDimensions, e.Dimensions())
}

func TestLocalEmbedder_GenerateEmbedding(t *testing.T) {
	ctx := context.Background()
	enc := new(MockSentenceEncoder)
	enc.On("EncodeText", ctx, "Users must authenticate via OAuth2").Return([]float32{0.1, 0.2, 0.3}, nil)
	e := NewLocalEmbedder(enc, "test-model", 3)

	vec, err := e.GenerateEmbedding(ctx, "Users must authenticate via OAuth2")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	enc.AssertExpectations(t)
}

func TestLocalEmbedder_EmptyText(t *testing.T) {
	enc := new(MockSentenceEncoder)
	e := NewLocalEmbedder(enc, "test-model", 3)

	_, err := e.GenerateEmbedding(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyText)
	enc.AssertNotCalled(t, "EncodeText", mock.Anything, mock.Anything)
}

func TestLocalEmbedder_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	enc := new(MockSentenceEncoder)
	enc.On("EncodeText", ctx, "text").Return([]float32{0.1, 0.2}, nil)
	e := NewLocalEmbedder(enc, "test-model", 3)

	_, err := e.GenerateEmbedding(ctx, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 2 dimensions, expected 3")
}

func TestLocalEmbedder_EncoderError(t *testing.T) {
	ctx := context.Background()
	enc := new(MockSentenceEncoder)
	enc.On("EncodeText", ctx, "text").Return(nil, errors.New("model crashed"))
	e := NewLocalEmbedder(enc, "test-model", 3)

	_, err := e.GenerateEmbedding(ctx, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestLocalEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := new(MockSentenceEncoder)
	e := NewLocalEmbedder(enc, "test-model", 3)

	_, err := e.GenerateEmbedding(ctx, "text")

	assert.ErrorIs(t, err, context.Canceled)
	enc.AssertNotCalled(t, "EncodeText", mock.Anything, mock.Anything)
}

func TestLocalEmbedder_CloseWithoutModel(t *testing.T) {
	e := NewLocalEmbedder(&MockSentenceEncoder{}, "test-model", 3)
	assert.NotPanics(t, e.Close)
}
