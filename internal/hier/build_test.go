package hier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
)

func buildChain(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder("chain")
	b.AddInput("in", 10)
	b.DeclareResult("a", 20)
	b.DeclareResult("b", 30)
	b.DeclareResult("c", 40)
	b.AddOp("a", "op", []string{"in"}, []string{"a"})
	b.AddOp("b", "op", []string{"a"}, []string{"b"})
	b.AddOp("c", "op", []string{"b"}, []string{"c"})
	b.AddOutput("c")
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func buildDiamond(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder("diamond")
	b.AddInput("in", 10)
	b.DeclareResult("a", 10)
	b.DeclareResult("b", 20)
	b.DeclareResult("c", 30)
	b.DeclareResult("d", 10)
	b.AddOp("a", "op", []string{"in"}, []string{"a"})
	b.AddOp("b", "op", []string{"a"}, []string{"b"})
	b.AddOp("c", "op", []string{"a"}, []string{"c"})
	b.AddOp("d", "op", []string{"b", "c"}, []string{"d"})
	b.AddOutput("d")
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestBuildLeafCoverChain(t *testing.T) {
	g := buildChain(t)
	tree, err := Build(g)
	require.NoError(t, err)

	leaves := Flatten(tree, tree.Root())
	require.Len(t, leaves, g.NumInputs()+g.NumOps()+g.NumOutputs())

	opLeaves := 0
	for _, ref := range leaves {
		if ref.Kind == graph.VertexOp {
			opLeaves++
		}
	}
	require.Equal(t, g.NumOps(), opLeaves)
}

func TestBuildFlattenIsTopological(t *testing.T) {
	g := buildChain(t)
	tree, err := Build(g)
	require.NoError(t, err)

	leaves := Flatten(tree, tree.Root())
	position := make(map[graph.VertexRef]int, len(leaves))
	for i, ref := range leaves {
		position[ref] = i
	}
	for _, id := range g.OpIDs() {
		opRef := graph.OpVertex(id)
		for _, pred := range g.Op(id).Preds {
			require.Less(t, position[pred], position[opRef])
		}
	}
}

func TestBuildDiamondFormsAGroup(t *testing.T) {
	g := buildDiamond(t)
	tree, err := Build(g)
	require.NoError(t, err)

	var groups []NodeID
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := tree.Node(id)
		if n.Kind == Group {
			groups = append(groups, id)
		}
		if n.Kind == Group || n.Kind == Sequence {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(tree.Root())

	require.Len(t, groups, 1)
	names := map[string]bool{}
	for _, c := range tree.Node(groups[0]).Children {
		n := tree.Node(c)
		if n.Kind == Op {
			names[g.Op(graph.OpID(n.Vertex.ID)).Name] = true
		}
	}
	require.True(t, names["b"])
	require.True(t, names["c"])

	leaves := Flatten(tree, tree.Root())
	require.Len(t, leaves, g.NumInputs()+g.NumOps()+g.NumOutputs())
}

func TestBuildDiamondFlattenIsTopological(t *testing.T) {
	g := buildDiamond(t)
	tree, err := Build(g)
	require.NoError(t, err)

	leaves := Flatten(tree, tree.Root())
	position := make(map[graph.VertexRef]int, len(leaves))
	for i, ref := range leaves {
		position[ref] = i
	}
	for _, id := range g.OpIDs() {
		opRef := graph.OpVertex(id)
		for _, pred := range g.Op(id).Preds {
			require.Less(t, position[pred], position[opRef])
		}
	}
}
