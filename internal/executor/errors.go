package executor

import "errors"

var (
	// ErrUnknownNode is wrapped when a feed, fetch, or target names a node
	// that does not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnresolvedInput is wrapped when a required input or fetch output was
	// never produced. It is fatal to the triggering run only.
	ErrUnresolvedInput = errors.New("unresolved input")

	// ErrKernelFailed wraps any kernel-level failure. It aborts the remaining
	// scheduled work of its own run and leaves other runs untouched.
	ErrKernelFailed = errors.New("kernel execution failed")
)
