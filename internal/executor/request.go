package executor

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/tensor"
)

// Feed injects a tensor in place of a producer's output. Name is "node" or
// "node:index"; a bare name feeds output 0.
type Feed struct {
	Name  string
	Value *tensor.Tensor
}

// Request describes one run: tensors to inject, outputs to collect (in
// request order), and nodes to execute purely for their side effects.
type Request struct {
	Feeds   []Feed
	Fetches []string
	Targets []string
}

// tensorRef is a resolved reference to one output slot of a node.
type tensorRef struct {
	node   *graph.Node
	output int
}

// tensorRefRegex matches "name" and "name:3".
var tensorRefRegex = regexp.MustCompile(`^([A-Za-z0-9_./\-]+)(?::(\d+))?$`)

// resolveTensorRef parses a feed or fetch identifier and resolves its node
// against the graph.
func resolveTensorRef(g *graph.Graph, raw string) (tensorRef, error) {
	matches := tensorRefRegex.FindStringSubmatch(raw)
	if matches == nil {
		return tensorRef{}, fmt.Errorf("invalid tensor reference %q", raw)
	}
	node, ok := g.Node(matches[1])
	if !ok {
		return tensorRef{}, fmt.Errorf("%w: %q", ErrUnknownNode, matches[1])
	}
	ref := tensorRef{node: node}
	if matches[2] != "" {
		out, err := strconv.Atoi(matches[2])
		if err != nil {
			// Unreachable given the regex \d+.
			return tensorRef{}, fmt.Errorf("invalid output index in %q", raw)
		}
		ref.output = out
	}
	return ref, nil
}
