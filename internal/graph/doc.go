// Package graph builds the live, immutable representation of an execution
// graph from a serialized definition.
//
// Build resolves every input reference to an existing producer, separates
// data edges from control edges, infers per-node output counts, and rejects
// structurally invalid definitions (duplicate names, unknown producers,
// cycles, self references) with an error wrapping ErrMalformed.
//
// The resulting Graph and its Nodes are read-only for the rest of their
// lifetime: the executor keeps all per-run state in its own ExecutionFrame,
// never on the graph.
package graph
