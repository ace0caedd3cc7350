package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/debug"
	"github.com/vk/flowdbg/internal/executor"
	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/graphdef"
	"github.com/vk/flowdbg/internal/kernel"
	"github.com/vk/flowdbg/internal/tensor"
)

var (
	// ErrAlreadyCreated is returned by Create when the session already holds
	// a graph.
	ErrAlreadyCreated = errors.New("session already created")

	// ErrNotCreated is returned by Run before any graph has been installed.
	ErrNotCreated = errors.New("session not created")
)

// Session owns one installed graph, the kernel registry that executes it, and
// the debug hooks observing every run. Variable state lives in the registry,
// so it persists across Run calls and is isolated per session.
type Session struct {
	mu      sync.Mutex
	graph   *graph.Graph
	kernels *kernel.Registry
	hooks   *debug.Hooks
}

// New returns an empty session with the core operations registered.
func New() *Session {
	return &Session{
		kernels: kernel.Core(),
		hooks:   debug.NewHooks(),
	}
}

// Create validates and installs a graph definition. A session holds exactly
// one graph for its lifetime; a second Create fails with ErrAlreadyCreated.
func (s *Session) Create(ctx context.Context, def *graphdef.Def) error {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil {
		return ErrAlreadyCreated
	}

	g, err := graph.Build(ctx, def)
	if err != nil {
		return err
	}
	for _, node := range g.Nodes() {
		if _, ok := s.kernels.Lookup(node.Op); !ok {
			return fmt.Errorf("%w: node %q uses unregistered op %q", graph.ErrMalformed, node.Name, node.Op)
		}
	}

	s.graph = g
	logger.Info("✅ Session graph created.", "nodes", g.NumNodes(), "devices", len(g.Devices()))
	return nil
}

// Run executes the installed graph once. Feeds inject tensors in place of
// producer outputs, fetches name the tensors to return (in order), and
// targets name nodes to execute purely for their side effects.
func (s *Session) Run(ctx context.Context, feeds []executor.Feed, fetches, targets []string) ([]*tensor.Tensor, error) {
	s.mu.Lock()
	g := s.graph
	s.mu.Unlock()
	if g == nil {
		return nil, ErrNotCreated
	}
	return executor.New(g, s.kernels, s.hooks).Run(ctx, executor.Request{
		Feeds:   feeds,
		Fetches: fetches,
		Targets: targets,
	})
}

// Kernels exposes the session's registry so callers can add operations before
// Create validates the graph against it.
func (s *Session) Kernels() *kernel.Registry {
	return s.kernels
}

// SetCompletionCallback installs the node completion observer for subsequent
// runs. Passing nil uninstalls it.
func (s *Session) SetCompletionCallback(cb debug.CompletionCallback) {
	s.hooks.SetCompletion(cb)
}

// SetValueCallback installs the node value observer for subsequent runs.
// Passing nil uninstalls it.
func (s *Session) SetValueCallback(cb debug.ValueCallback) {
	s.hooks.SetValue(cb)
}
