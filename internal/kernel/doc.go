// Package kernel provides the operation registry and the bundled core
// kernels.
//
// The engine treats kernels as opaque, deterministic, callable units: the
// executor looks an operation up by name, hands it the node's resolved input
// tensors, and records whatever outputs it returns. Registries are cheap and
// session-scoped so that stateful kernels (Variable) keep their storage
// isolated per session.
package kernel
