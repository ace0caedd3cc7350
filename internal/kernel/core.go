package kernel

import (
	"context"
	"fmt"

	"github.com/vk/flowdbg/internal/graphdef"
	"github.com/vk/flowdbg/internal/tensor"
)

// constKernel materializes the node's `value` attribute as a tensor.
func constKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 0); err != nil {
		return nil, err
	}
	val, ok := call.Node.Attrs["value"]
	if !ok {
		return nil, fmt.Errorf("Const node %q is missing the 'value' attribute", call.Node.Name)
	}
	t, err := graphdef.TensorValue(val)
	if err != nil {
		return nil, fmt.Errorf("Const node %q: %w", call.Node.Name, err)
	}
	return []*tensor.Tensor{t}, nil
}

// placeholderKernel fails unless the node's value was supplied as a feed, in
// which case the executor never invokes the kernel at all.
func placeholderKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	return nil, fmt.Errorf("Placeholder node %q was not fed a value", call.Node.Name)
}

// identityKernel forwards its input unchanged.
func identityKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 1); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{call.Inputs[0]}, nil
}

// noOpKernel produces nothing; NoOp nodes exist only as control dependency
// anchors.
func noOpKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 0); err != nil {
		return nil, err
	}
	return nil, nil
}
