package lifetime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
)

// buildChain builds a linear chain: in(10) -> a(20) -> b(30) -> c(40) -> out.
func buildChain(t *testing.T) (*graph.Graph, []graph.OpID) {
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
	return g, g.OpIDs()
}

func TestComputeLifetimeLinearChain(t *testing.T) {
	g, seq := buildChain(t)
	stat := ComputeLifetime(seq, g)
	// in dies after a runs, a after b, b after c; c escapes and is never
	// freed in this window. Histogram: [in+a, a+b, b+c] = [30, 50, 70].
	require.Equal(t, uint64(70), stat.Peak())
}

func TestHistogramPeakCoherence(t *testing.T) {
	g, seq := buildChain(t)
	stat := ComputeLifetime(seq, g)
	hist := stat.Histogram()
	var max uint64
	for _, h := range hist {
		if h > max {
			max = h
		}
	}
	require.Equal(t, max, stat.Peak())
}

func TestComputeLifetimeInputSentinel(t *testing.T) {
	g, seq := buildChain(t)
	stat := ComputeLifetime(seq, g)
	inputValue := g.Input(0).Value
	for _, blk := range stat.Blocks {
		if blk.Value == inputValue {
			require.Equal(t, TimeInput, blk.Gen)
			return
		}
	}
	t.Fatal("input value not found in blocks")
}

func TestComputeLifetimeOutputEscapesAsUnknown(t *testing.T) {
	g, seq := buildChain(t)
	stat := ComputeLifetime(seq, g)
	outputValue := g.Output(0).Value
	for _, blk := range stat.Blocks {
		if blk.Value == outputValue {
			require.Equal(t, TimeUnknown, blk.Kill)
			return
		}
	}
	t.Fatal("output value not found in blocks")
}

func TestOverlapInputRequiresEligibleType(t *testing.T) {
	b := graph.NewBuilder("overlap")
	b.AddInput("in", 16)
	b.DeclareResult("out", 16)
	b.AddOp("relu", "relu", []string{"in"}, []string{"out"})
	g, err := b.Build()
	require.NoError(t, err)

	op := g.Op(0)
	require.Equal(t, OverlapFailed, OverlapInput(op, g, map[string]bool{}))
	require.Equal(t, uint32(0), OverlapInput(op, g, map[string]bool{"relu": true}))
}

func TestEstimatePeakWithOverlap(t *testing.T) {
	b := graph.NewBuilder("overlap")
	b.AddInput("in", 16)
	b.DeclareResult("out", 16)
	b.AddOp("relu", "relu", []string{"in"}, []string{"out"})
	g, err := b.Build()
	require.NoError(t, err)

	seq := g.OpIDs()
	withOverlap := EstimatePeak(seq, g, map[string]bool{"relu": true})
	withoutOverlap := EstimatePeak(seq, g, map[string]bool{})

	require.Equal(t, uint64(16), withOverlap)
	require.Equal(t, uint64(32), withoutOverlap)
}

func TestEstimatePeakLinearChain(t *testing.T) {
	g, seq := buildChain(t)
	require.Equal(t, uint64(70), EstimatePeak(seq, g, map[string]bool{}))
}

func TestMemStateSeqRecurrence(t *testing.T) {
	var m MemStateSeq
	up1, down1 := m.Append(10, 0)
	require.Equal(t, int64(10), up1)
	require.Equal(t, int64(10), down1)

	up2, down2 := m.Append(5, 8)
	require.Equal(t, int64(15), up2)
	require.Equal(t, int64(7), down2)
	require.Equal(t, []int64{10, 15}, m.Transients())
	require.Equal(t, []int64{10, 7}, m.Stables())
}
