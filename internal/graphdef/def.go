package graphdef

import (
	"github.com/zclconf/go-cty/cty"
)

// NodeDef describes a single node in a serialized graph definition.
type NodeDef struct {
	// Name is the node's unique identifier within the graph.
	Name string
	// Op names the operation kernel that executes this node.
	Op string
	// Device is the placement label, read verbatim from the definition.
	// Placement feasibility is decided elsewhere; an empty string means the
	// engine's default device.
	Device string
	// Inputs holds raw input references in definition order: "name",
	// "name:index", or "^name" for control inputs.
	Inputs []string
	// Attrs holds the remaining block attributes, statically evaluated.
	Attrs map[string]cty.Value
}

// Def is a complete serialized graph definition.
type Def struct {
	Nodes []*NodeDef
}

// New returns an empty definition, ready for programmatic construction.
func New() *Def {
	return &Def{}
}

// AddNode appends a node definition and returns the Def for chaining.
func (d *Def) AddNode(n *NodeDef) *Def {
	d.Nodes = append(d.Nodes, n)
	return d
}
