// Package debug is the instrumentation layer between the executor and an
// external observer.
//
// A session owns one Hooks instance. At most one completion callback and one
// value callback are active at a time; setting a callback replaces the
// previous one. The executor reports every completed node through NodeDone,
// which fires both callbacks under a single internal lock so that callback
// bodies (typically a test harness mutating shared slices) never run
// concurrently, even when nodes on different devices finish at the same time.
package debug

import (
	"sync"

	"github.com/vk/flowdbg/internal/tensor"
)

// CompletionCallback observes that a node finished executing. The timestamp
// comes from a per-run monotonic clock: it is ordering-meaningful, not
// wall-clock-exact. isRef reflects whether the node's primary output is a
// ref tensor.
type CompletionCallback func(nodeName string, completionTimestamp int64, isRef bool)

// ValueCallback observes the node's primary output tensor. The tensor must be
// treated as read-only. Uninitialized outputs are delivered as uninitialized
// tensors, never suppressed or zero-filled.
type ValueCallback func(nodeName string, value *tensor.Tensor, isRef bool)

// Hooks holds a session's registered callbacks. The zero value is not usable;
// use NewHooks so the no-op defaults are in place and the executor never has
// to branch on "is a callback registered".
type Hooks struct {
	mu         sync.Mutex
	completion CompletionCallback
	value      ValueCallback
}

// NewHooks returns a Hooks with no-op callbacks installed.
func NewHooks() *Hooks {
	return &Hooks{
		completion: func(string, int64, bool) {},
		value:      func(string, *tensor.Tensor, bool) {},
	}
}

// SetCompletion replaces the completion callback. A nil fn restores the
// no-op default.
func (h *Hooks) SetCompletion(fn CompletionCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if fn == nil {
		fn = func(string, int64, bool) {}
	}
	h.completion = fn
}

// SetValue replaces the value callback. A nil fn restores the no-op default.
func (h *Hooks) SetValue(fn ValueCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if fn == nil {
		fn = func(string, *tensor.Tensor, bool) {}
	}
	h.value = fn
}

// NodeDone publishes one node completion to both callbacks, serialized under
// the hook lock. The executor must call it after the node's outputs are
// committed to the frame and before any dependent is unblocked, so that
// observation happens-before propagation.
func (h *Hooks) NodeDone(nodeName string, completionTimestamp int64, value *tensor.Tensor, isRef bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completion(nodeName, completionTimestamp, isRef)
	h.value(nodeName, value, isRef)
}
