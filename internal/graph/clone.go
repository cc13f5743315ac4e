package graph

// Clone deep-clones g, preserving all identity relations between the
// clone's own entities but sharing nothing with g. Cloning is a pure index
// rewrite built on the same Builder the loader uses, traversing via Walk so
// the clone's declaration order matches g's (graph-declaration order,
// ties broken by independent-output order), which makes cloning
// deterministic. Clone keeps g's graph outputs; Subgraph with an
// always-true predicate instead makes every op output a graph output.
func (g *Graph) Clone() (*Graph, error) {
	b := NewBuilder(g.Name)
	cv := &cloneVisitor{src: g, b: b, declaredParam: make(map[ValueID]bool)}
	Walk(g, cv)
	return b.Build()
}

type cloneVisitor struct {
	src           *Graph
	b             *Builder
	declaredParam map[ValueID]bool
}

func (cv *cloneVisitor) VisitInput(id InputID) {
	in := cv.src.Input(id)
	v := cv.src.Value(in.Value)
	cv.b.AddInput(v.Name, v.Type.Size())
}

func (cv *cloneVisitor) VisitOutput(id OutputID) {
	out := cv.src.Output(id)
	v := cv.src.Value(out.Value)
	cv.b.AddOutput(v.Name)
}

func (cv *cloneVisitor) VisitOp(id OpID) {
	op := cv.src.Op(id)

	inputNames := make([]string, len(op.Inputs))
	for i, vid := range op.Inputs {
		v := cv.src.Value(vid)
		if v.Kind == Param && !cv.declaredParam[vid] {
			cv.b.AddParam(v.Name, v.Type.Size())
			cv.declaredParam[vid] = true
		}
		inputNames[i] = v.Name
	}

	outputNames := make([]string, len(op.Outputs))
	for i, vid := range op.Outputs {
		v := cv.src.Value(vid)
		if _, declared := cv.b.Lookup(v.Name); !declared {
			cv.b.DeclareResult(v.Name, v.Type.Size())
		}
		outputNames[i] = v.Name
	}

	cv.b.AddOp(op.Name, op.Type, inputNames, outputNames)
}
