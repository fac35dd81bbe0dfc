package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := []float32{0.5, 0.2, 0.8}

	sim, err := CosineSimilarity(v, v)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})

	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarityOppositeVectors(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})

	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineSimilaritySymmetryAndBounds(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 0, 0}, {0.5, 0.5, 0}},
		{{0.1, 0.9, 0.3}, {0.7, 0.2, 0.6}},
		{{-1, 2, -3}, {4, -5, 6}},
	}

	for _, pair := range pairs {
		ab, err := CosineSimilarity(pair[0], pair[1])
		require.NoError(t, err)

		ba, err := CosineSimilarity(pair[1], pair[0])
		require.NoError(t, err)

		assert.InDelta(t, ab, ba, 1e-12)
		assert.GreaterOrEqual(t, ab, -1.0-1e-9)
		assert.LessOrEqual(t, ab, 1.0+1e-9)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})

	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})

	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
