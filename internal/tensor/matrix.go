package tensor

import "fmt"

// MatMul computes the matrix product of two rank-2 tensors.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("tensor: MatMul requires rank-2 operands, got %v and %v", a.shape, b.shape)
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("tensor: MatMul inner dimensions do not match: %v x %v", a.shape, b.shape)
	}

	out := New(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				sum += a.data[i*a.strides[0]+p] * b.data[p*b.strides[0]+j]
			}
			out.data[i*n+j] = sum
		}
	}
	return out, nil
}

// Neg returns the element-wise negation of t as a new tensor.
func Neg(t *Tensor) *Tensor {
	out := New(t.shape...)
	for i, v := range t.data {
		out.data[i] = -v
	}
	return out
}

// Add returns the element-wise sum of two tensors of identical shape.
func Add(a, b *Tensor) (*Tensor, error) {
	if !sameShape(a.shape, b.shape) {
		return nil, fmt.Errorf("tensor: Add requires identical shapes, got %v and %v", a.shape, b.shape)
	}
	out := New(a.shape...)
	for i := range a.data {
		out.data[i] = a.data[i] + b.data[i]
	}
	return out, nil
}
