package sched

import (
	"container/heap"
	"sort"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/lifetime"
)

// searchGroup finds a topological extension of members minimizing peak live
// bytes, via a best-first search over partial schedules (C5's per-group
// state machine): the priority queue pops the partial schedule with the
// lowest (peakSoFar, rpo_index of the op appended at the earliest position
// the two schedules diverge, that op's name), and since peakSoFar is
// monotone non-decreasing as a partial schedule grows, the first terminal
// state popped has the minimum achievable peak — the same argument that
// makes Dijkstra optimal for bottleneck shortest paths. The tiebreak tuple
// (peak_so_far, rpo_index of the next op, op_name) is applied over the
// whole appended-op sequence rather than a single step: two schedules agree
// on every op up to their first divergence, and it is the op chosen there —
// not whatever is still ready afterward, and not whichever op was appended
// most recently — that rpo-order is meant to prefer. The caller uses the
// plain rpo order as its fallback when budget pruning empties the frontier
// before any terminal state is reached.
//
// Returns the winning order and its peak, or ok=false if budget pruning
// left no terminal state (caller falls back to the rpo order).
func searchGroup(members []graph.OpID, g *graph.Graph, budget uint64, overlapEligible map[string]bool, rpoIndex map[graph.OpID]int) (order []graph.OpID, peak uint64, ok bool) {
	memberSet := make(map[graph.OpID]bool, len(members))
	for _, id := range members {
		memberSet[id] = true
	}

	localPreds := make(map[graph.OpID][]graph.OpID, len(members))
	for _, id := range members {
		op := g.Op(id)
		for _, p := range op.Preds {
			if p.Kind == graph.VertexOp && memberSet[graph.OpID(p.ID)] {
				localPreds[id] = append(localPreds[id], graph.OpID(p.ID))
			}
		}
	}

	// external[v] holds for values at least one of whose uses lies outside
	// the group: they never die within this search, mirroring localPeak.
	external := make(map[graph.ValueID]bool)
	for _, id := range members {
		for _, vid := range g.Op(id).Inputs {
			if _, seen := external[vid]; seen {
				continue
			}
			v := g.Value(vid)
			if v.Kind == graph.Param {
				continue
			}
			outside := false
			for _, useID := range v.Uses() {
				if !memberSet[useID] {
					outside = true
					break
				}
			}
			external[vid] = outside
		}
	}

	start := &groupState{done: make(map[graph.OpID]bool, len(members))}
	start.mem.latest = int64(boundaryBaseline(memberSet, g))

	pq := &stateQueue{g: g, rpoIndex: rpoIndex}
	heap.Init(pq)
	heap.Push(pq, start)

	for pq.Len() > 0 {
		st := heap.Pop(pq).(*groupState)

		if len(st.scheduled) == len(members) {
			return st.scheduled, st.peak, true
		}

		ready := readyOps(members, localPreds, st.done)
		sort.Slice(ready, func(i, j int) bool {
			if rpoIndex[ready[i]] != rpoIndex[ready[j]] {
				return rpoIndex[ready[i]] < rpoIndex[ready[j]]
			}
			return g.Op(ready[i]).Name < g.Op(ready[j]).Name
		})

		for _, next := range ready {
			child := extend(st, next, g, overlapEligible, external)
			if child.peak > budget {
				continue
			}
			heap.Push(pq, child)
		}
	}

	return nil, 0, false
}

func boundaryBaseline(members map[graph.OpID]bool, g *graph.Graph) uint64 {
	var baseline uint64
	seen := make(map[graph.ValueID]bool)
	for opID := range members {
		op := g.Op(opID)
		for _, vid := range op.Inputs {
			v := g.Value(vid)
			if v.Kind == graph.Param || seen[vid] {
				continue
			}
			producedOutside := v.Kind == graph.Input
			if v.Kind == graph.Result {
				defID, _ := v.Def()
				producedOutside = !members[defID]
			}
			if producedOutside {
				seen[vid] = true
				baseline += v.Type.Size()
			}
		}
	}
	return baseline
}

func readyOps(members []graph.OpID, localPreds map[graph.OpID][]graph.OpID, done map[graph.OpID]bool) []graph.OpID {
	var ready []graph.OpID
	for _, id := range members {
		if done[id] {
			continue
		}
		allDone := true
		for _, p := range localPreds[id] {
			if !done[p] {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, id)
		}
	}
	return ready
}

// groupState is one partial schedule: the ops appended so far, which are
// done, and the running (latest, peak) live-byte totals.
type groupState struct {
	scheduled []graph.OpID
	done      map[graph.OpID]bool
	mem       MemState
	peak      uint64
}

// extend returns a copy of st with next appended. next's output sizes
// (minus any overlap credit) raise the running total; any of next's
// inputs whose remaining local uses all finish now free it, unless
// external marks that value as also used outside the group. The peak is
// taken after the allocation and before the frees, as in
// lifetime.EstimatePeak.
func extend(st *groupState, next graph.OpID, g *graph.Graph, overlapEligible map[string]bool, external map[graph.ValueID]bool) *groupState {
	child := &groupState{
		scheduled: append(append([]graph.OpID{}, st.scheduled...), next),
		done:      make(map[graph.OpID]bool, len(st.done)+1),
		mem:       st.mem,
		peak:      st.peak,
	}
	for k, v := range st.done {
		child.done[k] = v
	}
	child.done[next] = true

	op := g.Op(next)
	var inc uint64
	for _, vid := range op.Outputs {
		inc += g.Value(vid).Type.Size()
	}
	if idx := lifetime.OverlapInput(op, g, overlapEligible); idx != lifetime.OverlapFailed {
		inc -= g.Value(op.Inputs[idx]).Type.Size()
	}

	var dec uint64
	for _, vid := range op.Inputs {
		v := g.Value(vid)
		if v.Kind == graph.Param || external[vid] {
			continue
		}
		done := true
		for _, useID := range v.Uses() {
			if !child.done[useID] {
				done = false
				break
			}
		}
		if done {
			dec += v.Type.Size()
		}
	}

	transient := child.mem.latest + int64(inc)
	child.mem.latest = transient - int64(dec)
	if transient > 0 && uint64(transient) > child.peak {
		child.peak = uint64(transient)
	}
	return child
}

// stateQueue implements container/heap over partial schedules, ordered by
// (peak, lexicographic rpo comparison of the appended-op sequence) for
// full determinism regardless of heap internals.
type stateQueue struct {
	states   []*groupState
	g        *graph.Graph
	rpoIndex map[graph.OpID]int
}

func (q *stateQueue) Len() int { return len(q.states) }
func (q *stateQueue) Less(i, j int) bool {
	a, b := q.states[i], q.states[j]
	if a.peak != b.peak {
		return a.peak < b.peak
	}
	return lessBySchedule(q.g, q.rpoIndex, a.scheduled, b.scheduled)
}
func (q *stateQueue) Swap(i, j int) { q.states[i], q.states[j] = q.states[j], q.states[i] }
func (q *stateQueue) Push(x any)    { q.states = append(q.states, x.(*groupState)) }
func (q *stateQueue) Pop() any {
	old := q.states
	n := len(old)
	item := old[n-1]
	q.states = old[:n-1]
	return item
}

// lessBySchedule compares two appended-op sequences at their first point of
// divergence: the op with the earlier global reverse-post-order position
// wins (ties broken by name), since that is the single step the tiebreak
// tuple means to prefer. Equal prefixes with no divergence within the
// shorter sequence favor the shorter (less-extended) one.
func lessBySchedule(g *graph.Graph, rpoIndex map[graph.OpID]int, a, b []graph.OpID) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			continue
		}
		ra, rb := rpoIndex[a[i]], rpoIndex[b[i]]
		if ra != rb {
			return ra < rb
		}
		return g.Op(a[i]).Name < g.Op(b[i]).Name
	}
	return len(a) < len(b)
}
