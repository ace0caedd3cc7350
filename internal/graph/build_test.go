package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowdbg/internal/graphdef"
)

func minusAXDef() *graphdef.Def {
	return graphdef.New().
		AddNode(&graphdef.NodeDef{Name: "a", Op: "Const", Device: "/job:localhost/replica:0/task:0/cpu:0"}).
		AddNode(&graphdef.NodeDef{Name: "x", Op: "Const", Device: "/job:localhost/replica:0/task:0/cpu:1"}).
		AddNode(&graphdef.NodeDef{Name: "y", Op: "MatMul", Device: "/job:localhost/replica:0/task:0/cpu:0", Inputs: []string{"a", "x"}}).
		AddNode(&graphdef.NodeDef{Name: "y_neg", Op: "Neg", Device: "/job:localhost/replica:0/task:0/cpu:1", Inputs: []string{"y"}})
}

func TestBuild(t *testing.T) {
	g, err := Build(context.Background(), minusAXDef())
	require.NoError(t, err)
	require.Equal(t, 4, g.NumNodes())

	y, ok := g.Node("y")
	require.True(t, ok)
	assert.Equal(t, "MatMul", y.Op)
	require.Len(t, y.In, 2)
	assert.Equal(t, "a", y.In[0].Src.Name)
	assert.Equal(t, 0, y.In[0].SrcOutput)
	assert.Equal(t, 0, y.In[0].DstInput)
	assert.Equal(t, "x", y.In[1].Src.Name)
	assert.Equal(t, 1, y.In[1].DstInput)

	a, _ := g.Node("a")
	require.Len(t, a.Out, 1)
	assert.Equal(t, "y", a.Out[0].Dst.Name)
	assert.Equal(t, 1, a.NumOutputs)

	// Two distinct devices, in first-appearance order.
	assert.Equal(t, []string{
		"/job:localhost/replica:0/task:0/cpu:0",
		"/job:localhost/replica:0/task:0/cpu:1",
	}, g.Devices())
}

func TestBuild_DefaultDevice(t *testing.T) {
	def := graphdef.New().AddNode(&graphdef.NodeDef{Name: "a", Op: "Const"})
	g, err := Build(context.Background(), def)
	require.NoError(t, err)

	a, _ := g.Node("a")
	assert.Equal(t, DefaultDevice, a.Device)
}

func TestBuild_ControlInputs(t *testing.T) {
	def := graphdef.New().
		AddNode(&graphdef.NodeDef{Name: "init", Op: "NoOp"}).
		AddNode(&graphdef.NodeDef{Name: "v", Op: "Variable", Inputs: []string{"^init"}})

	g, err := Build(context.Background(), def)
	require.NoError(t, err)

	v, _ := g.Node("v")
	assert.Empty(t, v.In)
	require.Len(t, v.ControlIn, 1)
	assert.Equal(t, "init", v.ControlIn[0].Name)
	assert.Equal(t, 1, v.NumInputs())

	init, _ := g.Node("init")
	require.Len(t, init.ControlOut, 1)
	assert.Equal(t, "v", init.ControlOut[0].Name)
}

func TestBuild_OutputIndexInference(t *testing.T) {
	def := graphdef.New().
		AddNode(&graphdef.NodeDef{Name: "multi", Op: "Split"}).
		AddNode(&graphdef.NodeDef{Name: "b", Op: "Identity", Inputs: []string{"multi:2"}})

	g, err := Build(context.Background(), def)
	require.NoError(t, err)

	multi, _ := g.Node("multi")
	assert.Equal(t, 3, multi.NumOutputs)
}

func TestBuild_Malformed(t *testing.T) {
	cases := []struct {
		name string
		def  *graphdef.Def
		want string
	}{
		{
			name: "duplicate node name",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "a", Op: "Const"}).
				AddNode(&graphdef.NodeDef{Name: "a", Op: "Const"}),
			want: "duplicate node name",
		},
		{
			name: "unknown producer",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "b", Op: "Identity", Inputs: []string{"ghost"}}),
			want: "unknown producer",
		},
		{
			name: "self reference",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "a", Op: "Identity", Inputs: []string{"a"}}),
			want: "references itself",
		},
		{
			name: "cycle",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "p", Op: "Identity", Inputs: []string{"q"}}).
				AddNode(&graphdef.NodeDef{Name: "q", Op: "Identity", Inputs: []string{"p"}}),
			want: "cycle detected",
		},
		{
			name: "empty name",
			def:  graphdef.New().AddNode(&graphdef.NodeDef{Name: "", Op: "Const"}),
			want: "empty name",
		},
		{
			name: "invalid input reference",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "a", Op: "Const"}).
				AddNode(&graphdef.NodeDef{Name: "b", Op: "Identity", Inputs: []string{"a:one"}}),
			want: "invalid input reference",
		},
		{
			name: "control input with output index",
			def: graphdef.New().
				AddNode(&graphdef.NodeDef{Name: "a", Op: "Const"}).
				AddNode(&graphdef.NodeDef{Name: "b", Op: "Identity", Inputs: []string{"^a:0"}}),
			want: "must not carry an output index",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(context.Background(), tc.def)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseInputRef(t *testing.T) {
	ref, err := parseInputRef("y:1")
	require.NoError(t, err)
	assert.Equal(t, &inputRef{Name: "y", Output: 1}, ref)

	ref, err = parseInputRef("^init")
	require.NoError(t, err)
	assert.True(t, ref.Control)
	assert.Equal(t, "init", ref.Name)

	_, err = parseInputRef("")
	assert.Error(t, err)
}
