// Package executor schedules and runs the nodes of an execution graph.
//
// Each Run owns an ExecutionFrame: per-node readiness counters, committed
// output tensors, and a monotonic completion clock. Nothing per-run is ever
// stored on the graph, so concurrent runs over the same graph are
// independent.
//
// Scheduling is cooperative: a node is dispatched exactly once, the instant
// its readiness count reaches zero. One serial worker goroutine is started
// per device, so nodes assigned to different devices execute truly
// concurrently while same-device nodes are serialized. Completed nodes are
// published to the debug hooks after their outputs are committed to the frame
// and before any dependent is unblocked.
package executor
