package graph

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/graphdef"
)

// Build constructs a validated, immutable graph from a serialized definition.
// Structural problems are reported with an error wrapping ErrMalformed.
func Build(ctx context.Context, def *graphdef.Def) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")

	g := &Graph{byName: make(map[string]*Node, len(def.Nodes))}

	// First pass: create all nodes.
	for _, nd := range def.Nodes {
		if nd.Name == "" {
			return nil, fmt.Errorf("%w: node with empty name", ErrMalformed)
		}
		if _, exists := g.byName[nd.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate node name %q", ErrMalformed, nd.Name)
		}
		device := nd.Device
		if device == "" {
			device = DefaultDevice
		}
		node := &Node{
			Name:       nd.Name,
			Op:         nd.Op,
			Device:     device,
			Attrs:      nd.Attrs,
			NumOutputs: 1,
		}
		g.nodes = append(g.nodes, node)
		g.byName[nd.Name] = node
	}
	logger.Debug("Build: Node creation complete.", "node_count", len(g.nodes))

	// Second pass: resolve input references into edges.
	for i, nd := range def.Nodes {
		node := g.nodes[i]
		dataInputs := 0
		for _, raw := range nd.Inputs {
			ref, err := parseInputRef(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: node %q: %v", ErrMalformed, node.Name, err)
			}
			src, ok := g.byName[ref.Name]
			if !ok {
				return nil, fmt.Errorf("%w: node %q references unknown producer %q", ErrMalformed, node.Name, ref.Name)
			}
			if src == node {
				return nil, fmt.Errorf("%w: node %q references itself", ErrMalformed, node.Name)
			}

			if ref.Control {
				node.ControlIn = append(node.ControlIn, src)
				src.ControlOut = append(src.ControlOut, node)
				continue
			}

			edge := &Edge{Src: src, SrcOutput: ref.Output, Dst: node, DstInput: dataInputs}
			dataInputs++
			node.In = append(node.In, edge)
			src.Out = append(src.Out, edge)
			if ref.Output+1 > src.NumOutputs {
				src.NumOutputs = ref.Output + 1
			}
		}
	}
	logger.Debug("Build: Edge resolution complete.")

	if err := g.detectCycles(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	logger.Debug("Build: Cycle detection passed.")

	seen := make(map[string]bool)
	for _, n := range g.nodes {
		if !seen[n.Device] {
			seen[n.Device] = true
			g.devices = append(g.devices, n.Device)
		}
	}

	logger.Debug("Build: Graph construction successful.", "device_count", len(g.devices))
	return g, nil
}

// inputRef is a parsed input reference from a node definition.
type inputRef struct {
	Name    string
	Output  int
	Control bool
}

// inputRefRegex matches "name", "name:2", and "^name" for control inputs.
var inputRefRegex = regexp.MustCompile(`^(\^)?([A-Za-z0-9_./\-]+)(?::(\d+))?$`)

// parseInputRef parses a raw input reference string.
func parseInputRef(raw string) (*inputRef, error) {
	matches := inputRefRegex.FindStringSubmatch(raw)
	if matches == nil {
		return nil, fmt.Errorf("invalid input reference %q", raw)
	}

	ref := &inputRef{Name: matches[2], Control: matches[1] == "^"}
	if matches[3] != "" {
		if ref.Control {
			return nil, fmt.Errorf("control input %q must not carry an output index", raw)
		}
		out, err := strconv.Atoi(matches[3])
		if err != nil {
			// Unreachable given the regex \d+.
			return nil, fmt.Errorf("invalid output index in %q", raw)
		}
		ref.Output = out
	}
	return ref, nil
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (g *Graph) detectCycles() error {
	visiting := make(map[*Node]bool)
	visited := make(map[*Node]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		visiting[n] = true
		preds := make([]*Node, 0, len(n.In)+len(n.ControlIn))
		for _, e := range n.In {
			preds = append(preds, e.Src)
		}
		preds = append(preds, n.ControlIn...)
		for _, dep := range preds {
			if visiting[dep] {
				return fmt.Errorf("cycle detected involving %q", dep.Name)
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, n)
		visited[n] = true
		return nil
	}

	for _, n := range g.nodes {
		if !visited[n] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
