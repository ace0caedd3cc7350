package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/tensor"
)

// Call carries everything a kernel needs to execute one node: the node itself
// (for its name and attributes) and its resolved input tensors in input order.
// Control inputs are not represented; they gate scheduling only.
type Call struct {
	Node   *graph.Node
	Inputs []*tensor.Tensor
}

// Kernel is a single operation implementation. Compute is invoked
// synchronously by an executor worker and must return one tensor per output
// slot it produces; zero outputs are valid for side-effect-only operations.
type Kernel interface {
	Compute(ctx context.Context, call *Call) ([]*tensor.Tensor, error)
}

// Func adapts a plain function to the Kernel interface.
type Func func(ctx context.Context, call *Call) ([]*tensor.Tensor, error)

// Compute implements Kernel.
func (f Func) Compute(ctx context.Context, call *Call) ([]*tensor.Tensor, error) {
	return f(ctx, call)
}

// Registry maps operation names to their kernels.
type Registry struct {
	kernels map[string]Kernel
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// Register adds a kernel for the given operation name. Registering the same
// name twice is a programmer error and panics, mirroring how mismatched
// handler wiring is treated at startup.
func (r *Registry) Register(op string, k Kernel) {
	if _, exists := r.kernels[op]; exists {
		panic(fmt.Sprintf("kernel for op '%s' already registered", op))
	}
	slog.Debug("Registering kernel.", "op", op)
	r.kernels[op] = k
}

// Lookup returns the kernel registered for the given operation name.
func (r *Registry) Lookup(op string) (Kernel, bool) {
	k, ok := r.kernels[op]
	return k, ok
}

// Ops returns the registered operation names in sorted order.
func (r *Registry) Ops() []string {
	ops := make([]string, 0, len(r.kernels))
	for op := range r.kernels {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Core returns a fresh registry populated with the bundled operations. Each
// call yields independent kernel instances, so per-kernel state (Variable
// storage) is never shared between registries.
func Core() *Registry {
	r := New()
	r.Register("Const", Func(constKernel))
	r.Register("Placeholder", Func(placeholderKernel))
	r.Register("Identity", Func(identityKernel))
	r.Register("NoOp", Func(noOpKernel))
	r.Register("MatMul", Func(matMulKernel))
	r.Register("Neg", Func(negKernel))
	r.Register("Add", Func(addKernel))
	r.Register("Variable", newVariableKernel())
	r.Register("Assign", Func(assignKernel))
	return r
}

// wantInputs is a shared arity check for the core kernels.
func wantInputs(call *Call, n int) error {
	if len(call.Inputs) != n {
		return fmt.Errorf("op %s on node %q expects %d inputs, got %d", call.Node.Op, call.Node.Name, n, len(call.Inputs))
	}
	return nil
}
