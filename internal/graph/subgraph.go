package graph

import "sort"

// Subgraph returns a new graph whose outputs are exactly the ops for which
// isOutput holds, and whose ops are the transitive producers of those ops'
// inputs. PARAM edges are preserved; Input vertices are freshly created for
// INPUT-kind values that escape the extraction boundary (every INPUT value
// has no producing op, so it is always a boundary value of any op
// partition). The result is fully disjoint from g.
func (g *Graph) Subgraph(isOutput func(*Op) bool) (*Graph, error) {
	included := make(map[OpID]bool)
	var dfs func(OpID)
	dfs = func(id OpID) {
		if included[id] {
			return
		}
		included[id] = true
		for _, pred := range g.Op(id).Preds {
			if pred.Kind == VertexOp {
				dfs(OpID(pred.ID))
			}
		}
	}

	var matched []OpID
	for _, id := range g.OpIDs() {
		if isOutput(g.Op(id)) {
			matched = append(matched, id)
		}
	}
	for _, id := range matched {
		dfs(id)
	}

	order := topoOrder(g, included)

	b := NewBuilder(g.Name)
	declaredInput := make(map[ValueID]bool)
	declaredParam := make(map[ValueID]bool)

	for _, opID := range order {
		op := g.Op(opID)

		inputNames := make([]string, len(op.Inputs))
		for i, vid := range op.Inputs {
			v := g.Value(vid)
			switch v.Kind {
			case Param:
				if !declaredParam[vid] {
					b.AddParam(v.Name, v.Type.Size())
					declaredParam[vid] = true
				}
			case Input:
				if !declaredInput[vid] {
					b.AddInput(v.Name, v.Type.Size())
					declaredInput[vid] = true
				}
			}
			inputNames[i] = v.Name
		}

		outputNames := make([]string, len(op.Outputs))
		for i, vid := range op.Outputs {
			v := g.Value(vid)
			if _, declared := b.Lookup(v.Name); !declared {
				b.DeclareResult(v.Name, v.Type.Size())
			}
			outputNames[i] = v.Name
		}

		b.AddOp(op.Name, op.Type, inputNames, outputNames)
	}

	for _, opID := range matched {
		op := g.Op(opID)
		for _, vid := range op.Outputs {
			b.AddOutput(g.Value(vid).Name)
		}
	}

	return b.Build()
}

// topoOrder returns a topological order over the included op set, tie-broken
// by original declaration index for determinism.
func topoOrder(g *Graph, included map[OpID]bool) []OpID {
	indexOf := make(map[OpID]int, len(included))
	inDegree := make(map[OpID]int, len(included))
	dependents := make(map[OpID][]OpID, len(included))

	idx := 0
	for _, id := range g.OpIDs() {
		if !included[id] {
			continue
		}
		indexOf[id] = idx
		idx++
	}

	for id := range included {
		for _, pred := range g.Op(id).Preds {
			if pred.Kind != VertexOp {
				continue
			}
			depID := OpID(pred.ID)
			if !included[depID] {
				continue
			}
			inDegree[id]++
			dependents[depID] = append(dependents[depID], id)
		}
	}

	var ready []OpID
	for id := range included {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sortByIndex(ready, indexOf)

	order := make([]OpID, 0, len(included))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		var newlyReady []OpID
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				newlyReady = append(newlyReady, dep)
			}
		}
		sortByIndex(newlyReady, indexOf)
		ready = mergeSortedByIndex(ready, newlyReady, indexOf)
	}
	return order
}

func sortByIndex(ids []OpID, indexOf map[OpID]int) {
	sort.Slice(ids, func(i, j int) bool { return indexOf[ids[i]] < indexOf[ids[j]] })
}

func mergeSortedByIndex(a, b []OpID, indexOf map[OpID]int) []OpID {
	merged := append(append([]OpID{}, a...), b...)
	sortByIndex(merged, indexOf)
	return merged
}
