package pass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/hier"
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

func countChildrenOfKind(t *hier.Tree, id hier.NodeID, kind hier.NodeKind) int {
	n := t.Node(id)
	count := 0
	for _, c := range n.Children {
		if t.Node(c).Kind == kind {
			count++
		}
	}
	return count
}

func TestJoinSequencePassMergesAdjacentSequences(t *testing.T) {
	g := buildChain(t)
	tree, err := hier.Build(g)
	require.NoError(t, err)

	before := countChildrenOfKind(tree, tree.Root(), hier.Sequence)
	require.Greater(t, before, 1)

	JoinSequencePass{}.Run(tree)

	after := countChildrenOfKind(tree, tree.Root(), hier.Sequence)
	require.Equal(t, 1, after)
}

func TestJoinSequencePassPreservesLeafCoverAndTopologicalOrder(t *testing.T) {
	g := buildChain(t)
	tree, err := hier.Build(g)
	require.NoError(t, err)

	before := hier.Flatten(tree, tree.Root())
	JoinSequencePass{}.Run(tree)
	after := hier.Flatten(tree, tree.Root())

	require.Equal(t, before, after)
}

func TestJoinSequencePassIsIdempotent(t *testing.T) {
	g := buildChain(t)
	tree, err := hier.Build(g)
	require.NoError(t, err)

	JoinSequencePass{}.Run(tree)
	once := hier.Flatten(tree, tree.Root())
	onceStructure := countChildrenOfKind(tree, tree.Root(), hier.Sequence)

	JoinSequencePass{}.Run(tree)
	twice := hier.Flatten(tree, tree.Root())
	twiceStructure := countChildrenOfKind(tree, tree.Root(), hier.Sequence)

	require.Equal(t, once, twice)
	require.Equal(t, onceStructure, twiceStructure)
}
