// Package embedding provides the in-process embedders: a pretrained sentence
// model run with cybertron, and a deterministic feature-hashing embedder that
// needs no model files.
package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const (
	// DefaultDimensions is the vector size produced by the hashing embedder.
	DefaultDimensions = 384
	// ModelName identifies vectors produced by this embedder in index manifests.
	ModelName = "hashing-v1"
)

// ErrEmptyText is returned when text is empty
var ErrEmptyText = errors.New("text cannot be empty")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingEmbedder maps word tokens and character trigrams into a fixed number of
// buckets (feature hashing) and L2-normalizes the result. It needs no corpus
// preparation, so vectors are stable across restarts and re-ingestion.
type HashingEmbedder struct {
	dimensions int
	stopwords  map[string]struct{}
}

// NewHashingEmbedder creates a HashingEmbedder. Non-positive dimensions use the default.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashingEmbedder{
		dimensions: dimensions,
		stopwords:  defaultStopwords(),
	}
}

// ModelName returns the embedding space identifier.
func (e *HashingEmbedder) ModelName() string { return ModelName }

// Dimensions returns the vector size.
func (e *HashingEmbedder) Dimensions() int { return e.dimensions }

// GenerateEmbedding embeds text. It never calls out of process.
func (e *HashingEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, e.dimensions)
	for _, tok := range e.tokenize(text) {
		e.add(vec, "w:"+tok, 1.0)
		for _, tri := range trigrams(tok) {
			e.add(vec, "t:"+tri, 0.5)
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// add hashes a feature into a bucket. A second hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (e *HashingEmbedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimensions))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashingEmbedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func trigrams(tok string) []string {
	runes := []rune("^" + tok + "$")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has",
		"in", "is", "it", "its", "of", "on", "or", "that", "the", "this", "to",
		"was", "were", "will", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
