package graphdef

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// hclNode represents a single `node` block for decoding.
type hclNode struct {
	Name   string   `hcl:"name,label"`
	Op     string   `hcl:"op"`
	Device string   `hcl:"device,optional"`
	Inputs []string `hcl:"inputs,optional"`
	Rest   hcl.Body `hcl:",remain"`
}

// hclGraphFile represents the top-level structure of a definition file.
type hclGraphFile struct {
	Nodes []*hclNode `hcl:"node,block"`
}

// Load parses a graph definition from a single .hcl file or from every .hcl
// file under a directory, in discovery order.
func Load(ctx context.Context, path string) (*Def, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graph definition.", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat definition path %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to find definition files in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Warn("No .hcl definition files found in path, returning empty definition.", "path", path)
		}
	}

	def := New()
	parser := hclparse.NewParser()
	for _, file := range files {
		nodes, err := nodesFromHCLFile(file, parser)
		if err != nil {
			return nil, err
		}
		def.Nodes = append(def.Nodes, nodes...)
	}

	logger.Debug("Graph definition loaded.", "node_count", len(def.Nodes))
	return def, nil
}

// Parse decodes a graph definition from in-memory HCL source. The filename is
// used only for diagnostics.
func Parse(src []byte, filename string) (*Def, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse definition %s: %w", filename, diags)
	}
	nodes, err := nodesFromBody(hclFile.Body, filename)
	if err != nil {
		return nil, err
	}
	return &Def{Nodes: nodes}, nil
}

func nodesFromHCLFile(filePath string, parser *hclparse.Parser) ([]*NodeDef, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse definition file %s: %w", filePath, diags)
	}
	return nodesFromBody(hclFile.Body, filePath)
}

func nodesFromBody(body hcl.Body, filename string) ([]*NodeDef, error) {
	var parsed hclGraphFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode definition %s: %w", filename, diags)
	}

	nodes := make([]*NodeDef, 0, len(parsed.Nodes))
	for _, n := range parsed.Nodes {
		attrs, err := staticAttributes(n.Rest)
		if err != nil {
			return nil, fmt.Errorf("node %q in %s: %w", n.Name, filename, err)
		}
		nodes = append(nodes, &NodeDef{
			Name:   n.Name,
			Op:     n.Op,
			Device: n.Device,
			Inputs: n.Inputs,
			Attrs:  attrs,
		})
	}
	return nodes, nil
}

// staticAttributes evaluates the leftover attributes of a node block without
// any evaluation context. Definition attributes are literals; references to
// other nodes belong in `inputs`, not here.
func staticAttributes(body hcl.Body) (map[string]cty.Value, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid attributes: %w", diags)
	}
	if len(attrs) == 0 {
		return nil, nil
	}

	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q is not a static value: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}
