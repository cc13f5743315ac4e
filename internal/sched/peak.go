package sched

import (
	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/lifetime"
)

// localPeak computes peak live bytes for order, a permutation of members,
// scoped to the values members touches: a value produced outside members
// (a graph input, or a RESULT from an earlier op) is preloaded into the
// baseline the first time order runs; a value with any use outside members
// never dies within this window and is never released. This is
// lifetime.EstimatePeak's literal-formula/preload treatment (see
// internal/lifetime/overlap.go), scoped to one group instead of the whole
// graph, so a group's internal order can be scored without knowing where
// the rest of the final schedule will place everything else.
func localPeak(members map[graph.OpID]bool, order []graph.OpID, g *graph.Graph, overlapEligible map[string]bool) uint64 {
	remaining := make(map[graph.ValueID]int)
	external := make(map[graph.ValueID]bool)

	noteInput := func(vid graph.ValueID) {
		v := g.Value(vid)
		if v.Kind == graph.Param {
			return
		}
		allLocal := true
		for _, useID := range v.Uses() {
			if !members[useID] {
				allLocal = false
				break
			}
		}
		if !allLocal {
			external[vid] = true
			return
		}
		remaining[vid]++
	}

	var baseline uint64
	seenBoundary := make(map[graph.ValueID]bool)
	for opID := range members {
		op := g.Op(opID)
		for _, vid := range op.Inputs {
			noteInput(vid)
			v := g.Value(vid)
			if v.Kind == graph.Param {
				continue
			}
			producedOutside := v.Kind == graph.Input
			if v.Kind == graph.Result {
				defID, _ := v.Def()
				producedOutside = !members[defID]
			}
			if producedOutside && !seenBoundary[vid] {
				seenBoundary[vid] = true
				baseline += v.Type.Size()
			}
		}
	}

	var mem MemState
	mem.latest = int64(baseline)
	var peak uint64

	for _, opID := range order {
		op := g.Op(opID)

		var inc uint64
		for _, vid := range op.Outputs {
			inc += g.Value(vid).Type.Size()
		}
		if idx := lifetime.OverlapInput(op, g, overlapEligible); idx != lifetime.OverlapFailed {
			inc -= g.Value(op.Inputs[idx]).Type.Size()
		}

		var dec uint64
		for _, vid := range op.Inputs {
			if external[vid] {
				continue
			}
			v := g.Value(vid)
			if v.Kind == graph.Param {
				continue
			}
			if _, counted := remaining[vid]; !counted {
				continue
			}
			remaining[vid]--
			if remaining[vid] == 0 {
				dec += v.Type.Size()
			}
		}

		transient := mem.latest + int64(inc)
		mem.latest = transient - int64(dec)
		if transient > 0 && uint64(transient) > peak {
			peak = uint64(transient)
		}
	}

	return peak
}

// MemState is the running live-byte total threaded through a candidate
// group order, the incremental counterpart to lifetime.MemStateSeq used
// when the full history isn't needed, only the latest value and the
// maximum ever reached.
type MemState struct {
	latest int64
}
