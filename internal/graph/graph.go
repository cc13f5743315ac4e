package graph

import "github.com/LeeOHzzZ/HMCOS/internal/herrors"

// Graph is an immutable DAG of ops/values/inputs/outputs with back-edges.
// It owns values, ops, and boundary vertices; cross-references are stable
// indices rather than shared pointers.
//
// Invariant: the op subgraph (excluding PARAM edges) is a DAG; every
// RESULT value's def is present in Ops.
type Graph struct {
	Name string

	values  []Value
	ops     []Op
	inputs  []InputBoundary
	outputs []Output
	params  []ValueID
}

// NumValues, NumOps, NumInputs, NumOutputs report slice lengths for callers
// that want to preallocate or range by index.
func (g *Graph) NumValues() int  { return len(g.values) }
func (g *Graph) NumOps() int     { return len(g.ops) }
func (g *Graph) NumInputs() int  { return len(g.inputs) }
func (g *Graph) NumOutputs() int { return len(g.outputs) }

// Value returns the value at id.
func (g *Graph) Value(id ValueID) *Value { return &g.values[id] }

// Op returns the op at id.
func (g *Graph) Op(id OpID) *Op { return &g.ops[id] }

// Input returns the input vertex at id.
func (g *Graph) Input(id InputID) *InputBoundary { return &g.inputs[id] }

// Output returns the output vertex at id.
func (g *Graph) Output(id OutputID) *Output { return &g.outputs[id] }

// Params returns the value IDs of every PARAM value, excluded from liveness
// and scheduling cost per spec.
func (g *Graph) Params() []ValueID { return g.params }

// OpIDs returns every op ID in declaration order.
func (g *Graph) OpIDs() []OpID {
	ids := make([]OpID, len(g.ops))
	for i := range ids {
		ids[i] = OpID(i)
	}
	return ids
}

// InputIDs returns every input ID in declaration order.
func (g *Graph) InputIDs() []InputID {
	ids := make([]InputID, len(g.inputs))
	for i := range ids {
		ids[i] = InputID(i)
	}
	return ids
}

// OutputIDs returns every output ID in declaration order.
func (g *Graph) OutputIDs() []OutputID {
	ids := make([]OutputID, len(g.outputs))
	for i := range ids {
		ids[i] = OutputID(i)
	}
	return ids
}

// ConnectVerts establishes preds/succs for every op from its non-PARAM
// input producers and links each graph output to its defining op. It is
// idempotent: callers may call it again after mutating preds/succs-adjacent
// state (none of the core does, but Builder.Build relies on this).
//
// Fails with herrors.KindInvariant if any value lacks a def when one is
// required.
func (g *Graph) ConnectVerts() error {
	for i := range g.ops {
		g.ops[i].Preds = nil
		g.ops[i].Succs = nil
	}
	for i := range g.inputs {
		g.inputs[i].Succs = nil
	}

	for opIdx := range g.ops {
		op := &g.ops[opIdx]
		opVert := OpVertex(OpID(opIdx))
		for _, inID := range op.Inputs {
			v := &g.values[inID]
			if v.Kind == Param {
				continue
			}
			var pred VertexRef
			switch v.Kind {
			case Input:
				if !v.hasInput {
					return herrors.New(herrors.KindInvariant,
						"value %q has kind INPUT but no owning Input vertex", v.Name)
				}
				pred = InputVertex(v.inputID)
				g.inputs[v.inputID].Succs = append(g.inputs[v.inputID].Succs, opVert)
			case Result:
				defID, ok := v.Def()
				if !ok {
					return herrors.New(herrors.KindInvariant,
						"value %q has kind RESULT but no def", v.Name)
				}
				pred = OpVertex(defID)
				g.ops[defID].Succs = append(g.ops[defID].Succs, opVert)
			}
			op.Preds = append(op.Preds, pred)
		}
	}

	for outIdx := range g.outputs {
		out := &g.outputs[outIdx]
		v := &g.values[out.Value]
		if v.Kind == Param {
			return herrors.New(herrors.KindInvariant,
				"PARAM value %q cannot appear as a graph output", v.Name)
		}
		defID, ok := v.Def()
		if !ok {
			return herrors.New(herrors.KindInvariant,
				"graph output %q has no defining op", v.Name)
		}
		out.Pred = OpVertex(defID)
		g.ops[defID].Succs = append(g.ops[defID].Succs, OutputVertex(OutputID(outIdx)))
	}

	return nil
}
