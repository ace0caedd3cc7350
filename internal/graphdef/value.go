package graphdef

import (
	"fmt"

	"github.com/vk/flowdbg/internal/tensor"
	"github.com/zclconf/go-cty/cty"
)

// TensorValue converts a definition attribute into a tensor. Accepted forms
// are a bare number (a scalar) and arbitrarily nested rectangular lists or
// tuples of numbers, e.g. [[3, 2], [-1, 0]] for a 2x2 matrix.
func TensorValue(val cty.Value) (*tensor.Tensor, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, fmt.Errorf("tensor literal must be a known, non-null value")
	}

	shape, err := literalShape(val)
	if err != nil {
		return nil, err
	}

	var flat []float64
	if err := flattenNumbers(val, &flat); err != nil {
		return nil, err
	}
	return tensor.FromValues(flat, shape...)
}

// ShapeValue converts a definition attribute like [2, 2] into a tensor shape.
func ShapeValue(val cty.Value) ([]int, error) {
	if val.IsNull() || !val.CanIterateElements() {
		return nil, fmt.Errorf("shape must be a list of dimension sizes")
	}
	var shape []int
	for it := val.ElementIterator(); it.Next(); {
		_, dim := it.Element()
		if dim.Type() != cty.Number {
			return nil, fmt.Errorf("shape dimension must be a number, got %s", dim.Type().FriendlyName())
		}
		d, _ := dim.AsBigFloat().Int64()
		if d < 0 {
			return nil, fmt.Errorf("shape dimension must be non-negative, got %d", d)
		}
		shape = append(shape, int(d))
	}
	return shape, nil
}

// literalShape walks the first element of each nesting level to determine the
// shape of a tensor literal. Rectangularity is enforced by flattenNumbers.
func literalShape(val cty.Value) ([]int, error) {
	var shape []int
	for {
		if val.Type() == cty.Number {
			return shape, nil
		}
		if !val.CanIterateElements() {
			return nil, fmt.Errorf("tensor literal element has unsupported type %s", val.Type().FriendlyName())
		}
		n := val.LengthInt()
		shape = append(shape, n)
		if n == 0 {
			return shape, nil
		}
		it := val.ElementIterator()
		it.Next()
		_, val = it.Element()
	}
}

func flattenNumbers(val cty.Value, out *[]float64) error {
	if val.Type() == cty.Number {
		f, _ := val.AsBigFloat().Float64()
		*out = append(*out, f)
		return nil
	}
	if !val.CanIterateElements() {
		return fmt.Errorf("tensor literal element has unsupported type %s", val.Type().FriendlyName())
	}
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if err := flattenNumbers(elem, out); err != nil {
			return err
		}
	}
	return nil
}
