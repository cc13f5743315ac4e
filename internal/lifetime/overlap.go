package lifetime

import "github.com/LeeOHzzZ/HMCOS/internal/graph"

// OverlapInput reports whether op's sole output may reuse one of its
// inputs' storage, returning that input's index into op.Inputs, or
// OverlapFailed. Eligibility requires: exactly one output, an input of
// identical byte size whose only use is op itself, and op's type is in
// overlapEligible. The set defaults to empty under the JSON loader path
// (op type is always "unknown" there); callers construct graphs another
// way, or configure the allowlist, to exercise this at all.
func OverlapInput(op *graph.Op, g *graph.Graph, overlapEligible map[string]bool) uint32 {
	if len(op.Outputs) != 1 || !overlapEligible[op.Type] {
		return OverlapFailed
	}
	outSize := g.Value(op.Outputs[0]).Type.Size()

	for i, vid := range op.Inputs {
		v := g.Value(vid)
		if v.Type.Size() != outSize {
			continue
		}
		uses := v.Uses()
		if len(uses) != 1 {
			continue
		}
		// uses[0] is the only op consuming v; op itself must be it. We don't
		// have op's own ID here, so compare by identity of the input slice:
		// a value used exactly once can only be used by the op that holds
		// it, since every Inputs entry of an op registers one use.
		return uint32(i)
	}
	return OverlapFailed
}

// EstimatePeak computes peak live bytes over seq — which need not contain
// every op in the graph — via a MemStateSeq simulation: at each step the
// transient state rises by the byte size of the op's outputs (minus any
// overlap credit), then falls by the size of every value whose last use is
// this op. Graph inputs are seeded into the baseline up front, since
// Op.Outputs never references an INPUT-kind value and inc would otherwise
// never account for memory the caller already handed in; a value whose
// lifetime runs past the end of seq (it escapes as a graph output, or is
// simply never consumed again) is never freed. Returns the maximum
// transient value reached.
func EstimatePeak(seq []graph.OpID, g *graph.Graph, overlapEligible map[string]bool) uint64 {
	stat := ComputeLifetime(seq, g)

	var baseline uint64
	for _, id := range g.InputIDs() {
		baseline += g.Value(g.Input(id).Value).Type.Size()
	}

	killAt := make(map[int32]uint64)
	for _, blk := range stat.Blocks {
		if blk.Kill == TimeUnknown {
			continue
		}
		killAt[blk.Kill] += blk.Size
	}

	var mem MemStateSeq
	mem.Seed(int64(baseline))
	var peak uint64

	for i, opID := range seq {
		op := g.Op(opID)
		pos := int32(i)

		var inc uint64
		for _, vid := range op.Outputs {
			inc += g.Value(vid).Type.Size()
		}
		if idx := OverlapInput(op, g, overlapEligible); idx != OverlapFailed {
			inc -= g.Value(op.Inputs[idx]).Type.Size()
		}

		dec := killAt[pos+1]

		transient, _ := mem.Append(inc, dec)
		if transient > 0 && uint64(transient) > peak {
			peak = uint64(transient)
		}
	}

	return peak
}
