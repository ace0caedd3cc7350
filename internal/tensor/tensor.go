// Package tensor implements the dense n-dimensional value buffers that flow
// along the edges of an execution graph.
//
// A Tensor carries two flags beyond its data: an initialized flag, which is
// distinct from "has a buffer" (a Variable that was never assigned has a
// buffer but no meaningful contents), and a ref flag marking tensors that
// alias shared storage and may be mutated in place by stateful kernels.
package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a dense n-dimensional buffer of float64 values in row-major order.
type Tensor struct {
	shape   []int
	strides []int
	data    []float64

	// initialized reports whether the buffer holds meaningful contents.
	initialized bool
	// ref marks a tensor whose storage is shared by reference rather than
	// snapshotted. Ref tensors may additionally be mutable in place.
	ref bool
	// mutable is the in-place mutation capability. Only ref tensors may be
	// mutable; kernels must check it before writing through the alias.
	mutable bool
}

// New returns an initialized, zero-filled tensor of the given shape.
func New(shape ...int) *Tensor {
	n := numElements(shape)
	return &Tensor{
		shape:       append([]int(nil), shape...),
		strides:     computeStrides(shape),
		data:        make([]float64, n),
		initialized: true,
	}
}

// FromValues returns an initialized tensor wrapping a copy of the given
// row-major values. The number of values must match the shape's element count.
func FromValues(values []float64, shape ...int) (*Tensor, error) {
	n := numElements(shape)
	if len(values) != n {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v (%d elements)", len(values), shape, n)
	}
	t := New(shape...)
	copy(t.data, values)
	return t, nil
}

// Uninitialized returns a tensor of the given shape whose contents are not
// meaningful. Reads through At are permitted but yield zeros; the tensor
// reports Initialized() == false until MarkInitialized is called.
func Uninitialized(shape ...int) *Tensor {
	t := New(shape...)
	t.initialized = false
	return t
}

// NewRef returns an uninitialized ref tensor with in-place mutation enabled.
// This is the backing storage shape used by stateful kernels such as Variable.
func NewRef(shape ...int) *Tensor {
	t := Uninitialized(shape...)
	t.ref = true
	t.mutable = true
	return t
}

// Shape returns the tensor's dimensions. The returned slice must be treated
// as read-only.
func (t *Tensor) Shape() []int { return t.shape }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// NumElements returns the total element count.
func (t *Tensor) NumElements() int { return len(t.data) }

// Initialized reports whether the buffer holds meaningful contents.
func (t *Tensor) Initialized() bool { return t.initialized }

// IsRef reports whether this tensor aliases shared storage.
func (t *Tensor) IsRef() bool { return t.ref }

// Mutable reports whether in-place writes through this tensor are permitted.
func (t *Tensor) Mutable() bool { return t.ref && t.mutable }

// MarkInitialized flags the buffer contents as meaningful.
func (t *Tensor) MarkInitialized() { t.initialized = true }

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set writes the element at the given multi-dimensional index.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Values returns the underlying row-major buffer. Callers observing a tensor
// through the debug hooks must treat it as read-only.
func (t *Tensor) Values() []float64 { return t.data }

// CopyFrom overwrites this tensor's buffer in place with the contents of src
// and marks it initialized. It fails if shapes differ or if this tensor does
// not carry the mutation capability.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.Mutable() {
		return fmt.Errorf("tensor: in-place write to non-mutable tensor of shape %v", t.shape)
	}
	if !sameShape(t.shape, src.shape) {
		return fmt.Errorf("tensor: cannot assign shape %v into shape %v", src.shape, t.shape)
	}
	copy(t.data, src.data)
	t.initialized = true
	return nil
}

// Snapshot returns an immutable value copy of this tensor. The copy is not a
// ref and does not alias this tensor's storage.
func (t *Tensor) Snapshot() *Tensor {
	c := New(t.shape...)
	copy(c.data, t.data)
	c.initialized = t.initialized
	return c
}

// Equal reports whether two tensors have identical shape, contents, and
// initialized state. Ref-ness is ignored; it compares values only.
func Equal(a, b *Tensor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.initialized != b.initialized || !sameShape(a.shape, b.shape) {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// String renders a short human-readable description for logs.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor(shape=%v", t.shape)
	if !t.initialized {
		sb.WriteString(", uninitialized")
	}
	if t.ref {
		sb.WriteString(", ref")
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v does not match rank %d", idx, len(t.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += x * t.strides[i]
	}
	return off
}

func computeStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension in shape %v", shape))
		}
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
