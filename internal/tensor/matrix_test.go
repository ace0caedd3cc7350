package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatMul(t *testing.T) {
	t.Run("2x2 by 2x1", func(t *testing.T) {
		a, _ := FromValues([]float64{3, 2, -1, 0}, 2, 2)
		x, _ := FromValues([]float64{1, 1}, 2, 1)

		y, err := MatMul(a, x)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1}, y.Shape())
		assert.Equal(t, []float64{5, -1}, y.Values())
	})

	t.Run("inner dimension mismatch", func(t *testing.T) {
		a := New(2, 3)
		b := New(2, 2)
		_, err := MatMul(a, b)
		assert.ErrorContains(t, err, "inner dimensions do not match")
	})

	t.Run("rank mismatch", func(t *testing.T) {
		_, err := MatMul(New(2), New(2, 2))
		assert.ErrorContains(t, err, "rank-2 operands")
	})
}

func TestNeg(t *testing.T) {
	y, _ := FromValues([]float64{5, -1}, 2, 1)
	n := Neg(y)
	assert.Equal(t, []float64{-5, 1}, n.Values())
	// The input is untouched.
	assert.Equal(t, []float64{5, -1}, y.Values())
}

func TestAdd(t *testing.T) {
	a, _ := FromValues([]float64{6}, 1, 1)
	b, _ := FromValues([]float64{7}, 1, 1)

	s, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{13}, s.Values())

	_, err = Add(a, New(2, 1))
	assert.ErrorContains(t, err, "identical shapes")
}
