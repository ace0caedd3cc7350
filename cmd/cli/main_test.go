package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_InvalidGraphFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL file with a syntax error must fail app construction.
	invalidHCL := `
		node "a" {
			op = "Const"
	// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "graph.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"--fetch", "a", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should fail on an unparseable graph file")
	require.Contains(t, runErr.Error(), "failed to load graph definition")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	graphHCL := `
node "a" {
  op    = "Const"
  value = [[3, 2], [-1, 0]]
}

node "x" {
  op    = "Const"
  value = [[1], [1]]
}

node "y" {
  op     = "MatMul"
  inputs = ["a", "x"]
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "graph.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(graphHCL), 0600))

	args := []string{"--fetch", "y:0", "--log-level", "error", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "y:0 =")
	require.Contains(t, out.String(), "[5 -1]")
}
