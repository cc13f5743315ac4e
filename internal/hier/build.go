package hier

import (
	"sort"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/herrors"
)

// Build constructs a hierarchy over g. It walks a global topological order
// of every vertex (Input, Op, Output) and classifies each one as either a
// plain chain link (wrapped in its own singleton Sequence, leaving
// JoinSequencePass real adjacent-sequence merging to do) or as a member of
// a fork/join Group.
//
// Group membership is decided with a token-accounting scheme: opening a
// fork vertex v (outdeg(v) > 1) starts a group with delta = outdeg(v) - 1
// live branch tokens. Each later vertex pulled into that group by one or
// more of its predecessor edges consumes those edges and emits outdeg(v)
// new ones; when delta returns to zero (at the join) the group's token
// count is dropped, but its members stay mapped to it, so a later vertex
// fed by any member still joins that group (on the diamond, the graph
// Output after the join becomes a member too). Vertices fed by more than
// one group force those groups to merge. This keeps every Group a
// single flat level — a fork nested inside another fork's branch is folded
// into the same enclosing Group rather than becoming a nested Group — which
// is sufficient because the scheduler's per-group search reasons about
// whatever internal sub-DAG shape a Group contains, not just diamonds.
func Build(g *graph.Graph) (*Tree, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	b := &builder{
		t:        &Tree{},
		g:        g,
		memberOf: make(map[graph.VertexRef]NodeID),
		delta:    make(map[NodeID]int),
		openPos:  make(map[NodeID]int),
	}

	for _, v := range order {
		b.place(v)
	}

	b.t.root = b.t.newNode(Node{Kind: Sequence, Children: b.rootChildren})
	return b.t, nil
}

type builder struct {
	t            *Tree
	g            *graph.Graph
	memberOf     map[graph.VertexRef]NodeID
	delta        map[NodeID]int
	openPos      map[NodeID]int // group NodeID -> index into rootChildren
	rootChildren []NodeID
}

func (b *builder) place(v graph.VertexRef) {
	preds := predsOf(b.g, v)
	candidates := make(map[NodeID]bool)
	for _, p := range preds {
		if gid, ok := b.memberOf[p]; ok {
			candidates[gid] = true
		}
	}

	if len(candidates) == 0 {
		if outdeg(b.g, v) > 1 {
			b.openGroup(v)
		} else {
			b.appendRoot(b.wrapSequence(b.leaf(v)))
		}
		return
	}

	gid := b.mergeInto(candidates)
	consumed := 0
	for _, p := range preds {
		if b.memberOf[p] == gid {
			consumed++
		}
	}
	b.delta[gid] += outdeg(b.g, v) - consumed
	b.memberOf[v] = gid
	b.t.Node(gid).Children = append(b.t.Node(gid).Children, b.leaf(v))
	if b.delta[gid] == 0 {
		delete(b.delta, gid)
	}
}

func (b *builder) openGroup(v graph.VertexRef) {
	gid := b.t.newNode(Node{Kind: Group})
	b.memberOf[v] = gid
	b.delta[gid] = outdeg(b.g, v) - 1
	b.t.Node(gid).Children = append(b.t.Node(gid).Children, b.leaf(v))
	b.openPos[gid] = len(b.rootChildren)
	b.appendRoot(gid)
}

// mergeInto folds every candidate group into the earliest-opened one
// (smallest root position) and returns its NodeID. No-op if there is only
// one candidate.
func (b *builder) mergeInto(candidates map[NodeID]bool) NodeID {
	if len(candidates) == 1 {
		for gid := range candidates {
			return gid
		}
	}

	ids := make([]NodeID, 0, len(candidates))
	for gid := range candidates {
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return b.openPos[ids[i]] < b.openPos[ids[j]] })

	primary := ids[0]
	for _, gid := range ids[1:] {
		b.t.Node(primary).Children = append(b.t.Node(primary).Children, b.t.Node(gid).Children...)
		b.delta[primary] += b.delta[gid]
		delete(b.delta, gid)
		for v, mapped := range b.memberOf {
			if mapped == gid {
				b.memberOf[v] = primary
			}
		}
		b.removeRoot(gid)
	}
	return primary
}

func (b *builder) leaf(v graph.VertexRef) NodeID {
	var kind NodeKind
	switch v.Kind {
	case graph.VertexInput:
		kind = Input
	case graph.VertexOutput:
		kind = Output
	case graph.VertexOp:
		kind = Op
	}
	return b.t.newNode(Node{Kind: kind, Vertex: v})
}

func (b *builder) wrapSequence(id NodeID) NodeID {
	return b.t.newNode(Node{Kind: Sequence, Children: []NodeID{id}})
}

func (b *builder) appendRoot(id NodeID) {
	b.rootChildren = append(b.rootChildren, id)
}

func (b *builder) removeRoot(gid NodeID) {
	pos := b.openPos[gid]
	b.rootChildren = append(b.rootChildren[:pos], b.rootChildren[pos+1:]...)
	delete(b.openPos, gid)
	for g, p := range b.openPos {
		if p > pos {
			b.openPos[g] = p - 1
		}
	}
}

func predsOf(g *graph.Graph, v graph.VertexRef) []graph.VertexRef {
	switch v.Kind {
	case graph.VertexOp:
		return g.Op(graph.OpID(v.ID)).Preds
	case graph.VertexOutput:
		return []graph.VertexRef{g.Output(graph.OutputID(v.ID)).Pred}
	default:
		return nil
	}
}

func succsOf(g *graph.Graph, v graph.VertexRef) []graph.VertexRef {
	switch v.Kind {
	case graph.VertexInput:
		return g.Input(graph.InputID(v.ID)).Succs
	case graph.VertexOp:
		return g.Op(graph.OpID(v.ID)).Succs
	default:
		return nil
	}
}

func outdeg(g *graph.Graph, v graph.VertexRef) int { return len(succsOf(g, v)) }

func allVertices(g *graph.Graph) []graph.VertexRef {
	vs := make([]graph.VertexRef, 0, g.NumInputs()+g.NumOps()+g.NumOutputs())
	for _, id := range g.InputIDs() {
		vs = append(vs, graph.InputVertex(id))
	}
	for _, id := range g.OpIDs() {
		vs = append(vs, graph.OpVertex(id))
	}
	for _, id := range g.OutputIDs() {
		vs = append(vs, graph.OutputVertex(id))
	}
	return vs
}

// topoOrder computes a deterministic topological order over every vertex of
// g, ties broken by declaration index (inputs, then ops, then outputs),
// mirroring the tie-break convention graph.Subgraph uses for op ordering.
func topoOrder(g *graph.Graph) ([]graph.VertexRef, error) {
	vs := allVertices(g)
	indexOf := make(map[graph.VertexRef]int, len(vs))
	for i, v := range vs {
		indexOf[v] = i
	}

	indeg := make(map[graph.VertexRef]int, len(vs))
	for _, v := range vs {
		indeg[v] = len(predsOf(g, v))
	}

	var ready []graph.VertexRef
	for _, v := range vs {
		if indeg[v] == 0 {
			ready = append(ready, v)
		}
	}
	sortByIndex(ready, indexOf)

	order := make([]graph.VertexRef, 0, len(vs))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		var newlyReady []graph.VertexRef
		for _, s := range succsOf(g, next) {
			indeg[s]--
			if indeg[s] == 0 {
				newlyReady = append(newlyReady, s)
			}
		}
		sortByIndex(newlyReady, indexOf)
		merged := append(append([]graph.VertexRef{}, ready...), newlyReady...)
		sortByIndex(merged, indexOf)
		ready = merged
	}

	if len(order) != len(vs) {
		return nil, herrors.New(herrors.KindInvariant, "vertex graph has a cycle outside PARAM edges")
	}
	return order, nil
}

func sortByIndex(vs []graph.VertexRef, indexOf map[graph.VertexRef]int) {
	sort.Slice(vs, func(i, j int) bool { return indexOf[vs[i]] < indexOf[vs[j]] })
}
