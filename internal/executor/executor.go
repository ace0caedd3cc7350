package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/debug"
	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/kernel"
	"github.com/vk/flowdbg/internal/tensor"
)

// Executor runs requests against one immutable graph. It holds no per-run
// state and is safe for concurrent Run calls.
type Executor struct {
	graph   *graph.Graph
	kernels *kernel.Registry
	hooks   *debug.Hooks
}

// New creates an executor over the given graph, kernel registry, and debug
// hooks.
func New(g *graph.Graph, kernels *kernel.Registry, hooks *debug.Hooks) *Executor {
	return &Executor{graph: g, kernels: kernels, hooks: hooks}
}

// run is the transient state of one Run invocation.
type run struct {
	exec  *Executor
	frame *frame
	// nodes holds a runNode for every node this run will visit.
	nodes map[*graph.Node]*runNode
	// queues holds one dispatch channel per device with visited nodes.
	queues map[string]chan *runNode
	wg     sync.WaitGroup
}

// Run executes the graph for one request and returns the fetched tensors in
// request order. Nodes not on the dependency path of any fetch or target are
// pruned and never execute.
func (e *Executor) Run(ctx context.Context, req Request) ([]*tensor.Tensor, error) {
	logger := ctxlog.FromContext(ctx)

	fr := newFrame()
	for _, feed := range req.Feeds {
		ref, err := resolveTensorRef(e.graph, feed.Name)
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", feed.Name, err)
		}
		fr.feeds[ref] = feed.Value
	}

	fetches := make([]tensorRef, 0, len(req.Fetches))
	roots := make([]*graph.Node, 0, len(req.Fetches)+len(req.Targets))
	for _, f := range req.Fetches {
		ref, err := resolveTensorRef(e.graph, f)
		if err != nil {
			return nil, fmt.Errorf("fetch %q: %w", f, err)
		}
		fetches = append(fetches, ref)
		if _, ok := fr.feeds[ref]; ok {
			// A fed fetch is answered from the feed; its producer need not run.
			continue
		}
		roots = append(roots, ref.node)
	}
	for _, t := range req.Targets {
		node, ok := e.graph.Node(t)
		if !ok {
			return nil, fmt.Errorf("target %q: %w", t, ErrUnknownNode)
		}
		roots = append(roots, node)
	}

	r := &run{
		exec:   e,
		frame:  fr,
		nodes:  make(map[*graph.Node]*runNode),
		queues: make(map[string]chan *runNode),
	}
	r.markNeeded(roots)
	logger.Debug("Run: pruning complete.", "visited", len(r.nodes), "total", e.graph.NumNodes())

	if len(r.nodes) == 0 {
		return r.collect(fetches)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for device := range r.queues {
		// Buffered to the full visit set so readiness handoff never blocks.
		r.queues[device] = make(chan *runNode, len(r.nodes))
	}

	r.wg.Add(len(r.nodes))

	rootCount := 0
	for _, rn := range r.nodes {
		if rn.pending.Load() == 0 {
			r.queues[rn.node.Device] <- rn
			rootCount++
		}
	}
	logger.Debug("Run: seeded ready nodes.", "count", rootCount)

	for device, queue := range r.queues {
		go r.worker(runCtx, device, queue, cancel)
	}

	r.wg.Wait()
	for _, queue := range r.queues {
		close(queue)
	}

	if err := r.failure(); err != nil {
		logger.Debug("Run: finished with failure.", "error", err)
		return nil, err
	}

	return r.collect(fetches)
}

// markNeeded walks the graph backwards from the requested roots and creates a
// runNode for every node this run must execute. Edges satisfied by a feed cut
// the traversal; control dependencies always require their producer.
func (r *run) markNeeded(roots []*graph.Node) {
	stack := append([]*graph.Node(nil), roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := r.nodes[node]; seen {
			continue
		}

		rn := &runNode{node: node}
		r.nodes[node] = rn
		r.queues[node.Device] = nil

		pending := int32(0)
		for _, edge := range node.In {
			if _, ok := r.frame.fed(edge.Src, edge.SrcOutput); ok {
				continue
			}
			pending++
			stack = append(stack, edge.Src)
		}
		for _, ctrl := range node.ControlIn {
			pending++
			stack = append(stack, ctrl)
		}
		rn.pending.Store(pending)
	}
}

// worker is the serial execution loop for a single device.
func (r *run) worker(ctx context.Context, device string, queue chan *runNode, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx).With("device", device)
	logger.Debug("Device worker started.")

	for rn := range queue {
		nodeLogger := logger.With("node", rn.node.Name, "op", rn.node.Op)

		if ctx.Err() != nil {
			rn.skip(ctx.Err(), &r.wg)
			r.skipDependents(ctx, rn)
			continue
		}

		nodeLogger.Debug("Executing node.")
		rn.state.Store(stateRunning)

		if err := r.executeNode(ctx, rn); err != nil {
			nodeLogger.Error("Node execution failed.", "error", err)
			rn.state.Store(stateFailed)
			rn.err = err
			cancel()
			r.skipDependents(ctx, rn)
			r.wg.Done()
			continue
		}

		nodeLogger.Debug("Node execution succeeded.")
		rn.state.Store(stateDone)
		r.propagate(rn)
		r.wg.Done()
	}
	logger.Debug("Device worker finished.")
}

// executeNode gathers inputs, invokes the kernel, commits outputs to the
// frame, and publishes the completion to the debug hooks. The hook invocation
// happens strictly before r.propagate unblocks any dependent, so observation
// happens-before propagation.
func (r *run) executeNode(ctx context.Context, rn *runNode) error {
	node := rn.node

	inputs := make([]*tensor.Tensor, 0, len(node.In))
	for _, edge := range node.In {
		if t, ok := r.frame.fed(edge.Src, edge.SrcOutput); ok {
			inputs = append(inputs, t)
			continue
		}
		t, ok := r.frame.output(edge.Src, edge.SrcOutput)
		if !ok {
			return fmt.Errorf("%w: node %q input %d expects %s:%d", ErrUnresolvedInput, node.Name, edge.DstInput, edge.Src.Name, edge.SrcOutput)
		}
		inputs = append(inputs, t)
	}

	k, ok := r.exec.kernels.Lookup(node.Op)
	if !ok {
		return fmt.Errorf("%w: no kernel registered for op %q on node %q", ErrKernelFailed, node.Op, node.Name)
	}

	outs, err := k.Compute(ctx, &kernel.Call{Node: node, Inputs: inputs})
	if err != nil {
		return fmt.Errorf("%w: node %q: %w", ErrKernelFailed, node.Name, err)
	}

	ts := r.frame.commit(node, outs)

	primary := tensor.Uninitialized()
	if len(outs) > 0 && outs[0] != nil {
		primary = outs[0]
	}
	r.exec.hooks.NodeDone(node.Name, ts, primary, primary.IsRef())
	return nil
}

// propagate decrements the readiness count of every visited consumer and
// dispatches the ones that become ready.
func (r *run) propagate(rn *runNode) {
	for _, edge := range rn.node.Out {
		if _, ok := r.frame.fed(edge.Src, edge.SrcOutput); ok {
			// The consumer never counted this edge.
			continue
		}
		r.release(edge.Dst)
	}
	for _, ctrl := range rn.node.ControlOut {
		r.release(ctrl)
	}
}

func (r *run) release(node *graph.Node) {
	dn, ok := r.nodes[node]
	if !ok {
		return
	}
	if dn.pending.Add(-1) == 0 {
		r.queues[node.Device] <- dn
	}
}

// skipDependents recursively marks all visited downstream nodes as failed.
// A skipped node's readiness never reaches zero, so it is guaranteed not to
// be in any queue.
func (r *run) skipDependents(ctx context.Context, rn *runNode) {
	logger := ctxlog.FromContext(ctx)
	downstream := make([]*graph.Node, 0, len(rn.node.Out)+len(rn.node.ControlOut))
	for _, edge := range rn.node.Out {
		downstream = append(downstream, edge.Dst)
	}
	downstream = append(downstream, rn.node.ControlOut...)

	for _, node := range downstream {
		dn, ok := r.nodes[node]
		if !ok {
			continue
		}
		dn.skipOnce.Do(func() {
			logger.Warn("Skipping node due to upstream failure.", "node", dn.node.Name, "upstream", rn.node.Name)
			dn.state.Store(stateFailed)
			dn.err = fmt.Errorf("skipped due to upstream failure of %q", rn.node.Name)
			r.wg.Done()
			r.skipDependents(ctx, dn)
		})
	}
}

// failure scans the visited nodes for the run's root cause, ignoring
// skip-symptom errors so the caller sees the kernel or input failure that
// actually started the abort.
func (r *run) failure() error {
	var failed []string
	var rootCause error
	for _, rn := range r.nodes {
		if rn.state.Load() != stateFailed {
			continue
		}
		if rn.err != nil && !strings.HasPrefix(rn.err.Error(), "skipped") && !errors.Is(rn.err, context.Canceled) {
			failed = append(failed, rn.node.Name)
			if rootCause == nil {
				rootCause = rn.err
			}
		}
	}
	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// collect reads the requested fetch outputs from the frame in request order.
func (r *run) collect(fetches []tensorRef) ([]*tensor.Tensor, error) {
	if len(fetches) == 0 {
		return nil, nil
	}
	outs := make([]*tensor.Tensor, 0, len(fetches))
	for _, ref := range fetches {
		if t, ok := r.frame.fed(ref.node, ref.output); ok {
			outs = append(outs, t)
			continue
		}
		t, ok := r.frame.output(ref.node, ref.output)
		if !ok {
			return nil, fmt.Errorf("%w: fetch %s:%d was never produced", ErrUnresolvedInput, ref.node.Name, ref.output)
		}
		outs = append(outs, t)
	}
	return outs, nil
}
