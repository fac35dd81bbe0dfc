// Package embedding turns text into fixed-length vectors and provides
// the similarity math used by the vector store.
package embedding

import (
	"context"
	"errors"
	"math"
)

// Dimensions of the embedding vectors produced by the default model.
const Dimensions = 1536

var (
	// ErrEmptyText is returned when the caller asks to embed empty or
	// whitespace-only text.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrDimensionMismatch is returned when similarity is computed over
	// vectors of different lengths.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")
)

// Provider generates embeddings. EmbedBatch is best-effort over large
// inputs: a failed upstream batch yields nil vectors for its texts
// instead of aborting the remaining batches.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity computes the standard dot-product-over-norms
// similarity. A zero-norm vector yields 0 rather than NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
