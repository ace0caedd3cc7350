package debug

import "sync"

// Stepper turns the completion hook into a single-stepping controller: each
// node completion blocks inside the hook until a step credit is granted, so a
// harness can advance a run one node at a time and inspect state in between.
//
// Usage: install CompletionCallback on the session, start the run in its own
// goroutine, and call RunFinished when it returns. Step and Join drive the run
// from the harness side. Because the hook blocks before any dependent is
// unblocked, after Step(n) returns exactly those n nodes have completed and
// nothing downstream of them has started.
type Stepper struct {
	mu   sync.Mutex
	cond *sync.Cond

	// credits is the number of node completions currently allowed through.
	credits int
	// released disables gating entirely once Join is called.
	released bool
	// order records completed node names in completion order.
	order []string
	// finished is set by RunFinished when the run returned.
	finished bool
}

// NewStepper returns a controller with no step credits, so the first node of
// a run blocks until Step or Join is called.
func NewStepper() *Stepper {
	s := &Stepper{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// CompletionCallback returns the gating hook. It consumes one step credit per
// completed node, blocking the run until a credit is available.
func (s *Stepper) CompletionCallback() CompletionCallback {
	return func(nodeName string, completionTimestamp int64, isRef bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for !s.released && s.credits == 0 {
			s.cond.Wait()
		}
		if !s.released {
			s.credits--
		}
		s.order = append(s.order, nodeName)
		s.cond.Broadcast()
	}
}

// Step grants n step credits (at least one) and blocks until that many more
// nodes have completed, or the run finished early. It returns the names of
// the nodes that completed during this step, in completion order.
func (s *Stepper) Step(n int) []string {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.order)
	s.credits += n
	s.cond.Broadcast()
	for len(s.order) < start+n && !s.finished {
		s.cond.Wait()
	}
	return append([]string(nil), s.order[start:]...)
}

// Where returns the name of the most recently completed node, or "" if no
// node has completed yet.
func (s *Stepper) Where() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return ""
	}
	return s.order[len(s.order)-1]
}

// Order returns the completed node names so far, in completion order.
func (s *Stepper) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// IsComplete reports whether the run has finished.
func (s *Stepper) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// RunFinished must be called by the goroutine driving the run, after the run
// returns. It wakes any Step or Join still waiting.
func (s *Stepper) RunFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	s.cond.Broadcast()
}

// Join releases all remaining gating and blocks until the run has finished.
// It returns the full completion order.
func (s *Stepper) Join() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.cond.Broadcast()
	for !s.finished {
		s.cond.Wait()
	}
	return append([]string(nil), s.order...)
}
