// Package graphdef defines the serialized form of an execution graph and its
// HCL loader.
//
// A definition is a flat list of node blocks. Each block names a node, the
// operation it performs, the device it is assigned to, and the inputs it
// consumes. Edges are implicit in the input references: "name" and "name:1"
// are data inputs (producer output 0 and 1 respectively), while "^name" is a
// control input carrying no value. Any remaining attributes in the block are
// kept verbatim as cty values for the operation's kernel to interpret.
//
//	node "a" {
//	  op     = "Const"
//	  device = "/job:localhost/replica:0/task:0/cpu:0"
//	  value  = [[3, 2], [-1, 0]]
//	}
//
//	node "y" {
//	  op     = "MatMul"
//	  inputs = ["a", "x"]
//	}
//
// The package performs no structural validation beyond parsing; resolving
// input references and rejecting malformed graphs is the graph package's job.
package graphdef
