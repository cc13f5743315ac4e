// Package sched implements the memory-aware scheduler (C5): it builds the
// hierarchy (C2), folds it with the join-sequence pass (C3), then walks
// the tree depth-first, concatenating Sequence children and solving each
// Group with a best-first search bounded by a byte budget.
package sched

import (
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/hier"
	"github.com/LeeOHzzZ/HMCOS/internal/obslog"
	"github.com/LeeOHzzZ/HMCOS/internal/pass"
)

// BudgetOverage records a Group the search could not fit under budget; the
// scheduler degraded to that group's reverse-post-order fallback instead.
type BudgetOverage struct {
	GroupOps []string
	MinPeak  uint64
	Budget   uint64
}

// Report carries the non-fatal conditions the scheduler surfaces: budget
// infeasibility never aborts the batch, it is recorded here instead.
type Report struct {
	Overages []BudgetOverage
}

// HierarchicalSchedule computes a topological extension of g's op DAG that
// minimizes peak live memory, subject to budget. overlapEligible gates
// OverlapInput's type check; nil or empty disables overlap entirely. log is
// nil-safe.
func HierarchicalSchedule(g *graph.Graph, budget uint64, overlapEligible map[string]bool, log *obslog.Logger) ([]graph.OpID, Report, error) {
	tree, err := hier.Build(g)
	if err != nil {
		return nil, Report{}, err
	}
	pass.JoinSequencePass{}.Run(tree)

	rpo := ReversePostOrder(g)
	rpoPos := make(map[graph.OpID]int, len(rpo))
	for i, id := range rpo {
		rpoPos[id] = i
	}

	sc := &scheduler{
		g:               g,
		budget:          budget,
		overlapEligible: overlapEligible,
		log:             log,
		rpoPos:          rpoPos,
	}
	ops := sc.schedule(tree, tree.Root())
	return ops, sc.report(), nil
}

type scheduler struct {
	g               *graph.Graph
	budget          uint64
	overlapEligible map[string]bool
	log             *obslog.Logger
	rpoPos          map[graph.OpID]int

	mu       sync.Mutex
	overages []BudgetOverage
}

func (sc *scheduler) report() Report {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sort.Slice(sc.overages, func(i, j int) bool {
		return sc.overages[i].GroupOps[0] < sc.overages[j].GroupOps[0]
	})
	return Report{Overages: sc.overages}
}

func (sc *scheduler) addOverage(o BudgetOverage) {
	sc.mu.Lock()
	sc.overages = append(sc.overages, o)
	sc.mu.Unlock()
}

// schedule dispatches on node kind. Sequence children are independent of
// each other's search state, so sibling Group subtrees are solved
// concurrently, bounded to GOMAXPROCS, then concatenated in declared order
// regardless of completion order.
func (sc *scheduler) schedule(t *hier.Tree, id hier.NodeID) []graph.OpID {
	n := t.Node(id)
	switch n.Kind {
	case hier.Input, hier.Output:
		return nil
	case hier.Op:
		return []graph.OpID{graph.OpID(n.Vertex.ID)}
	case hier.Group:
		return sc.scheduleGroup(t, id)
	case hier.Sequence:
		return sc.scheduleSequence(t, n.Children)
	default:
		return nil
	}
}

func (sc *scheduler) scheduleSequence(t *hier.Tree, children []hier.NodeID) []graph.OpID {
	results := make([][]graph.OpID, len(children))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range children {
		i, c := i, c
		eg.Go(func() error {
			results[i] = sc.schedule(t, c)
			return nil
		})
	}
	_ = eg.Wait()

	var out []graph.OpID
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (sc *scheduler) scheduleGroup(t *hier.Tree, id hier.NodeID) []graph.OpID {
	n := t.Node(id)
	var members []graph.OpID
	for _, c := range n.Children {
		leaf := t.Node(c)
		if leaf.Kind == hier.Op {
			members = append(members, graph.OpID(leaf.Vertex.ID))
		}
	}
	if len(members) == 0 {
		return nil
	}
	if len(members) == 1 {
		return members
	}

	order, peak, ok := searchGroup(members, sc.g, sc.budget, sc.overlapEligible, sc.rpoPos)
	if ok {
		sc.log.Debugf("group of %d ops scheduled within budget, peak=%d", len(members), peak)
		return order
	}

	fallback := append([]graph.OpID{}, members...)
	sort.Slice(fallback, func(i, j int) bool { return sc.rpoPos[fallback[i]] < sc.rpoPos[fallback[j]] })

	names := make([]string, len(members))
	for i, id := range members {
		names[i] = sc.g.Op(id).Name
	}
	minPeak := localPeak(toSet(members), fallback, sc.g, sc.overlapEligible)
	sc.log.Warnf("group of %d ops infeasible at budget=%d (min peak %d), falling back to reverse-post-order", len(members), sc.budget, minPeak)
	sc.addOverage(BudgetOverage{GroupOps: names, MinPeak: minPeak, Budget: sc.budget})
	return fallback
}

func toSet(ids []graph.OpID) map[graph.OpID]bool {
	m := make(map[graph.OpID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
