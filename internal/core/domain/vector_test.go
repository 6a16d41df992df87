package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	require.True(t, NormalizeL2(v))
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	// Unit length after normalization.
	assert.InDelta(t, 1.0, float64(Dot(v, v)), 1e-6)
}

func TestNormalizeL2Deterministic(t *testing.T) {
	a := []float32{0.25, -1.5, 2.75, 0.001}
	b := []float32{0.25, -1.5, 2.75, 0.001}

	require.True(t, NormalizeL2(a))
	require.True(t, NormalizeL2(b))

	// Bit-for-bit equal: same input must always yield the same vector.
	assert.Equal(t, a, b)
}

func TestNormalizeL2Degenerate(t *testing.T) {
	assert.False(t, NormalizeL2(nil))
	assert.False(t, NormalizeL2([]float32{}))

	zero := []float32{0, 0, 0}
	assert.False(t, NormalizeL2(zero))
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-5, 0}), 1e-6)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}
