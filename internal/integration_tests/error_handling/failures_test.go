package integration_tests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowdbg/internal/app"
	"github.com/vk/flowdbg/internal/executor"
	"github.com/vk/flowdbg/internal/graph"
	"github.com/vk/flowdbg/internal/tensor"
)

func newAppFromHCL(t *testing.T, src string, fetches, targets []string) (*app.App, error) {
	t.Helper()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "graph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	cfg, err := app.NewConfig(app.Config{
		GraphPath: path,
		Fetches:   fetches,
		Targets:   targets,
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)
	return app.New(&bytes.Buffer{}, &bytes.Buffer{}, cfg)
}

// Test for: a dependency cycle in the definition is rejected at startup.
func TestErrorHandling_CycleRejectedAtStartup(t *testing.T) {
	_, err := newAppFromHCL(t, `
node "p" {
  op     = "Identity"
  inputs = ["q"]
}

node "q" {
  op     = "Identity"
  inputs = ["p"]
}
`, []string{"p"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrMalformed)
}

// Test for: an input reference to a node that does not exist is rejected at
// startup.
func TestErrorHandling_UnknownInputRejectedAtStartup(t *testing.T) {
	_, err := newAppFromHCL(t, `
node "y" {
  op     = "Neg"
  inputs = ["ghost"]
}
`, []string{"y"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrMalformed)
}

// Test for: a kernel failure aborts the run and surfaces the failing node.
func TestErrorHandling_KernelFailureSurfacesRootCause(t *testing.T) {
	flowdbgApp, err := newAppFromHCL(t, `
node "p" {
  op = "Placeholder"
}

node "out" {
  op     = "Neg"
  inputs = ["p"]
}
`, []string{"out"}, nil)
	require.NoError(t, err)

	// Running without feeding the placeholder fails inside its kernel.
	err = flowdbgApp.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrKernelFailed)
	assert.ErrorContains(t, err, "p")

	// Feeding it through the session succeeds.
	fed, err := tensor.FromValues([]float64{4}, 1, 1)
	require.NoError(t, err)
	outs, err := flowdbgApp.Session().Run(context.Background(),
		[]executor.Feed{{Name: "p", Value: fed}}, []string{"out"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4}, outs[0].Values())
}

// Test for: fetching a node absent from the graph fails the run, not startup.
func TestErrorHandling_UnknownFetchFailsRun(t *testing.T) {
	flowdbgApp, err := newAppFromHCL(t, `
node "a" {
  op    = "Const"
  value = 1
}
`, []string{"ghost:0"}, nil)
	require.NoError(t, err)

	err = flowdbgApp.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrUnknownNode)
}
