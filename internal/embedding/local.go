package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlpodyssey/cybertron/pkg/models/bert"
	"github.com/nlpodyssey/cybertron/pkg/tasks"
	"github.com/nlpodyssey/cybertron/pkg/tasks/textencoding"
)

const (
	// DefaultLocalModel is the sentence-transformers model loaded by default.
	DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultLocalDimensions is the output size of DefaultLocalModel.
	DefaultLocalDimensions = 384
)

// SentenceEncoder turns text into a single pooled sentence vector.
type SentenceEncoder interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
}

// LocalConfig selects the model LoadLocal downloads and runs.
type LocalConfig struct {
	ModelsDir  string
	ModelName  string
	Dimensions int
}

// LocalEmbedder runs a pretrained sentence-embedding model in process.
type LocalEmbedder struct {
	encoder    SentenceEncoder
	model      string
	dimensions int
	close      func()
}

// NewLocalEmbedder wraps an encoder that produces vectors of the given size.
func NewLocalEmbedder(encoder SentenceEncoder, model string, dimensions int) *LocalEmbedder {
	if model == "" {
		model = DefaultLocalModel
	}
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}
	return &LocalEmbedder{encoder: encoder, model: model, dimensions: dimensions}
}

// LoadLocal loads a BERT sentence encoder with cybertron, downloading it from
// the Hugging Face hub into cfg.ModelsDir on first use.
func LoadLocal(cfg LocalConfig) (*LocalEmbedder, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultLocalModel
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "models"
	}

	m, err := tasks.Load[textencoding.Interface](&tasks.Config{
		ModelsDir:        cfg.ModelsDir,
		ModelName:        cfg.ModelName,
		DownloadPolicy:   tasks.DownloadMissing,
		ConversionPolicy: tasks.ConvertMissing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model %s: %w", cfg.ModelName, err)
	}

	e := NewLocalEmbedder(&cybertronEncoder{model: m}, cfg.ModelName, cfg.Dimensions)
	e.close = func() { tasks.Finalize(m) }
	return e, nil
}

// ModelName returns the embedding space identifier.
func (e *LocalEmbedder) ModelName() string { return e.model }

// Dimensions returns the vector size.
func (e *LocalEmbedder) Dimensions() int { return e.dimensions }

// GenerateEmbedding encodes text and checks the vector size against the
// configured dimensions.
func (e *LocalEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, err := e.encoder.EncodeText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("model %s returned %d dimensions, expected %d", e.model, len(vec), e.dimensions)
	}
	return vec, nil
}

// Close releases the model, if LoadLocal created it.
func (e *LocalEmbedder) Close() {
	if e.close != nil {
		e.close()
		e.close = nil
	}
}

type cybertronEncoder struct {
	model textencoding.Interface
}

func (c *cybertronEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	res, err := c.model.Encode(ctx, text, int(bert.MeanPooling))
	if err != nil {
		return nil, err
	}
	return res.Vector.Data().F32(), nil
}
