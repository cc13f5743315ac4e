package sched

import "github.com/LeeOHzzZ/HMCOS/internal/graph"

// ReversePostOrder computes the baseline schedule: a post-order DFS over the
// op DAG (following non-PARAM successor edges from every input, then from
// every not-yet-visited op, each in declaration order), reversed. This is the
// fallback order for a budget-infeasible group and the comparison baseline
// for the scheduler's peak-bound property.
func ReversePostOrder(g *graph.Graph) []graph.OpID {
	visited := make(map[graph.VertexRef]bool)
	var postorder []graph.VertexRef

	var dfs func(graph.VertexRef)
	dfs = func(v graph.VertexRef) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, s := range succsOf(g, v) {
			dfs(s)
		}
		postorder = append(postorder, v)
	}

	for _, id := range g.InputIDs() {
		dfs(graph.InputVertex(id))
	}
	for _, id := range g.OpIDs() {
		dfs(graph.OpVertex(id))
	}

	ops := make([]graph.OpID, 0, g.NumOps())
	for i := len(postorder) - 1; i >= 0; i-- {
		v := postorder[i]
		if v.Kind == graph.VertexOp {
			ops = append(ops, graph.OpID(v.ID))
		}
	}
	return ops
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
