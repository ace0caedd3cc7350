package debug

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowdbg/internal/tensor"
)

func TestNoOpDefaults(t *testing.T) {
	h := NewHooks()
	// Must not panic with nothing registered.
	h.NodeDone("a", 1, tensor.New(1), false)
}

func TestReplaceSemantics(t *testing.T) {
	h := NewHooks()

	var first, second []string
	h.SetCompletion(func(name string, ts int64, isRef bool) { first = append(first, name) })
	h.SetCompletion(func(name string, ts int64, isRef bool) { second = append(second, name) })

	h.NodeDone("a", 1, nil, false)

	assert.Empty(t, first, "a replaced callback must not fire")
	assert.Equal(t, []string{"a"}, second)

	// nil restores the no-op default.
	h.SetCompletion(nil)
	h.NodeDone("b", 2, nil, false)
	assert.Equal(t, []string{"a"}, second)
}

func TestPairedInvocation(t *testing.T) {
	h := NewHooks()

	var completed []string
	var refs []bool
	var initialized []bool
	h.SetCompletion(func(name string, ts int64, isRef bool) {
		completed = append(completed, name)
		refs = append(refs, isRef)
	})
	h.SetValue(func(name string, value *tensor.Tensor, isRef bool) {
		initialized = append(initialized, value.Initialized())
	})

	h.NodeDone("v", 1, tensor.NewRef(2, 2), true)
	h.NodeDone("c", 2, tensor.New(2, 2), false)

	require.Equal(t, []string{"v", "c"}, completed)
	assert.Equal(t, []bool{true, false}, refs)
	assert.Equal(t, []bool{false, true}, initialized, "uninitialized tensors are delivered, not suppressed")
	assert.Len(t, completed, len(refs))
	assert.Len(t, completed, len(initialized))
}

// Callback bodies mutate shared state without their own locking; the hook
// lock must serialize concurrent NodeDone calls from device workers.
func TestConcurrentNodeDoneSerialized(t *testing.T) {
	h := NewHooks()

	var events []string
	h.SetCompletion(func(name string, ts int64, isRef bool) { events = append(events, name) })

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			h.NodeDone("n", 0, nil, false)
		}()
	}
	wg.Wait()

	assert.Len(t, events, n)
}
