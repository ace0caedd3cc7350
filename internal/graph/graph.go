package graph

import (
	"errors"

	"github.com/zclconf/go-cty/cty"
)

// ErrMalformed is wrapped by every structural validation failure during Build.
// A definition that fails Build cannot be executed.
var ErrMalformed = errors.New("malformed graph definition")

// DefaultDevice is the placement label assigned to nodes whose definition
// omits a device string.
const DefaultDevice = "/job:localhost/replica:0/task:0/cpu:0"

// Node is a single operation in the graph. All fields are set during Build
// and must be treated as read-only afterwards.
type Node struct {
	// Name is the node's unique identifier, stable for the graph's lifetime.
	Name string
	// Op names the kernel that executes this node.
	Op string
	// Device is the placement label, verbatim from the definition.
	Device string
	// Attrs holds the operation attributes from the definition.
	Attrs map[string]cty.Value

	// In holds the data input edges, ordered by consumer input index.
	In []*Edge
	// Out holds the data edges this node produces, in no particular order.
	Out []*Edge
	// ControlIn holds the nodes that must complete before this node runs but
	// carry no tensor value into it.
	ControlIn []*Node
	// ControlOut holds the nodes gated on this node's completion.
	ControlOut []*Node

	// NumOutputs is the number of output slots, inferred from the highest
	// output index referenced by any consumer (at least one).
	NumOutputs int
}

// NumInputs returns the number of incoming edges, data and control.
func (n *Node) NumInputs() int {
	return len(n.In) + len(n.ControlIn)
}

// Edge is a data dependency: output SrcOutput of Src feeds input DstInput of
// Dst. Multiple edges may share a producer output (fan-out).
type Edge struct {
	Src       *Node
	SrcOutput int
	Dst       *Node
	DstInput  int
}

// Graph is an immutable-after-construction set of nodes and edges.
type Graph struct {
	nodes   []*Node
	byName  map[string]*Node
	devices []string
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Nodes returns every node in definition order. The slice is shared; callers
// must not modify it.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Devices returns the distinct device labels assigned across the graph, in
// first-appearance order.
func (g *Graph) Devices() []string { return g.devices }
