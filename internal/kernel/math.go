package kernel

import (
	"context"

	"github.com/vk/flowdbg/internal/tensor"
)

func matMulKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 2); err != nil {
		return nil, err
	}
	out, err := tensor.MatMul(call.Inputs[0], call.Inputs[1])
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{out}, nil
}

func negKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 1); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{tensor.Neg(call.Inputs[0])}, nil
}

func addKernel(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	if err := wantInputs(call, 2); err != nil {
		return nil, err
	}
	out, err := tensor.Add(call.Inputs[0], call.Inputs[1])
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{out}, nil
}
