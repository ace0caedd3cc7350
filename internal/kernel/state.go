package kernel

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/flowdbg/internal/graphdef"
	"github.com/vk/flowdbg/internal/tensor"
)

// variableKernel backs the Variable op. Each Variable node owns one ref
// tensor that persists across runs of the same session (the kernel instance
// is registry-scoped, and registries are session-scoped). The tensor starts
// uninitialized; it only gains contents through an Assign.
type variableKernel struct {
	mu   sync.Mutex
	vars map[string]*tensor.Tensor
}

func newVariableKernel() *variableKernel {
	return &variableKernel{vars: make(map[string]*tensor.Tensor)}
}

// Compute returns the node's backing ref tensor, creating it on first use
// from the node's `shape` attribute.
func (k *variableKernel) Compute(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 0); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if t, ok := k.vars[call.Node.Name]; ok {
		return []*tensor.Tensor{t}, nil
	}

	shapeAttr, ok := call.Node.Attrs["shape"]
	if !ok {
		return nil, fmt.Errorf("Variable node %q is missing the 'shape' attribute", call.Node.Name)
	}
	shape, err := graphdef.ShapeValue(shapeAttr)
	if err != nil {
		return nil, fmt.Errorf("Variable node %q: %w", call.Node.Name, err)
	}

	t := tensor.NewRef(shape...)
	k.vars[call.Node.Name] = t
	return []*tensor.Tensor{t}, nil
}

// assignKernel writes its second input into the ref tensor produced by its
// first input, in place, and forwards the ref. The target must carry the
// in-place mutation capability; plain value tensors are rejected.
func assignKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 2); err != nil {
		return nil, err
	}
	target, value := call.Inputs[0], call.Inputs[1]
	if !target.Mutable() {
		return nil, fmt.Errorf("Assign node %q: target is not a mutable ref tensor", call.Node.Name)
	}
	if err := target.CopyFrom(value); err != nil {
		return nil, fmt.Errorf("Assign node %q: %w", call.Node.Name, err)
	}
	return []*tensor.Tensor{target}, nil
}
