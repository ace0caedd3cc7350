package executor

import (
	"sync"
	"sync/atomic"

	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/tensor"
)

// Node states within a run.
const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateFailed
)

// runNode is the per-run shadow of a graph node: its readiness counter and
// execution state. The graph node itself stays immutable.
type runNode struct {
	node *graph.Node

	// pending is the number of unmet data and control inputs.
	pending atomic.Int32
	// state is the node's execution state within this run.
	state atomic.Int32
	// err records why the node failed or was skipped.
	err error
	// skipOnce guarantees the node is marked skipped and accounted exactly once.
	skipOnce sync.Once
}

// skip marks the node failed without executing it and releases its WaitGroup
// slot. Safe to call multiple times; only the first has any effect.
func (rn *runNode) skip(err error, wg *sync.WaitGroup) {
	rn.skipOnce.Do(func() {
		rn.state.Store(stateFailed)
		rn.err = err
		wg.Done()
	})
}

// frame is the ExecutionFrame: all mutable bookkeeping for a single run. It
// is owned exclusively by that run and destroyed with it.
type frame struct {
	// clock issues completion timestamps. Monotonic within the run,
	// ordering-meaningful only.
	clock atomic.Int64

	// mu guards outputs.
	mu sync.Mutex
	// outputs maps each executed node to its committed output tensors.
	outputs map[*graph.Node][]*tensor.Tensor

	// feeds maps (node, output) to the injected tensor. Read-only after
	// run setup.
	feeds map[tensorRef]*tensor.Tensor
}

func newFrame() *frame {
	return &frame{
		outputs: make(map[*graph.Node][]*tensor.Tensor),
		feeds:   make(map[tensorRef]*tensor.Tensor),
	}
}

// fed returns the injected tensor for a producer output, if any.
func (f *frame) fed(node *graph.Node, output int) (*tensor.Tensor, bool) {
	t, ok := f.feeds[tensorRef{node: node, output: output}]
	return t, ok
}

// commit stores a node's outputs and returns its completion timestamp.
func (f *frame) commit(node *graph.Node, outs []*tensor.Tensor) int64 {
	f.mu.Lock()
	f.outputs[node] = outs
	f.mu.Unlock()
	return f.clock.Add(1)
}

// output reads one committed output slot. The second result is false if the
// node never committed or produced fewer outputs.
func (f *frame) output(node *graph.Node, idx int) (*tensor.Tensor, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outs, ok := f.outputs[node]
	if !ok || idx < 0 || idx >= len(outs) {
		return nil, false
	}
	return outs[idx], true
}
