package utils

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 1.0, Dot([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 0.11, Dot([]float32{0.1, 0.2}, []float32{0.3, 0.4}), 1e-6)

	// Mismatched or empty inputs yield zero.
	assert.Zero(t, Dot([]float32{1, 2}, []float32{1}))
	assert.Zero(t, Dot(nil, nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 7}), 1e-9)

	// Zero magnitude yields zero rather than NaN.
	sim := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	assert.Zero(t, sim)
	assert.False(t, math.IsNaN(sim))
}

func TestRecoverAsError(t *testing.T) {
	boom := func() (err error) {
		defer RecoverAsError(&err)
		panic("model crashed")
	}

	err := boom()
	require.Error(t, err)

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "model crashed", pe.Value)
	assert.NotEmpty(t, pe.StackTrace)
	assert.Contains(t, err.Error(), "model crashed")
}
