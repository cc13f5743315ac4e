package graph

import "github.com/LeeOHzzZ/HMCOS/internal/herrors"

// Builder assembles a Graph incrementally in two phases: values first,
// then ops, then a final pass wiring every vertex's predecessor/successor
// edges.
type Builder struct {
	g         Graph
	nameToVal map[string]ValueID
	err       error
}

// NewBuilder starts a Builder for a graph with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		g:         Graph{Name: name},
		nameToVal: make(map[string]ValueID),
	}
}

// AddInput declares a graph boundary input value and its Input vertex.
func (b *Builder) AddInput(name string, size uint64) ValueID {
	if b.err != nil {
		return 0
	}
	vid := ValueID(len(b.g.values))
	iid := InputID(len(b.g.inputs))
	b.g.values = append(b.g.values, Value{
		Name: name, Kind: Input, Type: Type{Bytes: size},
		def: noOp, inputID: iid, hasInput: true,
	})
	b.g.inputs = append(b.g.inputs, InputBoundary{Value: vid})
	b.nameToVal[name] = vid
	return vid
}

// AddParam declares a long-lived parameter value.
func (b *Builder) AddParam(name string, size uint64) ValueID {
	if b.err != nil {
		return 0
	}
	vid := ValueID(len(b.g.values))
	b.g.values = append(b.g.values, Value{Name: name, Kind: Param, Type: Type{Bytes: size}, def: noOp})
	b.g.params = append(b.g.params, vid)
	b.nameToVal[name] = vid
	return vid
}

// DeclareResult pre-registers a RESULT value by name without an op (used by
// loaders that must register output/intermediate names before the op list
// is walked, matching the JSON constructor's two-pass order). Its def is
// filled in by AddOp.
func (b *Builder) DeclareResult(name string, size uint64) ValueID {
	if b.err != nil {
		return 0
	}
	if vid, ok := b.nameToVal[name]; ok {
		return vid
	}
	vid := ValueID(len(b.g.values))
	b.g.values = append(b.g.values, Value{Name: name, Kind: Result, Type: Type{Bytes: size}, def: noOp})
	b.nameToVal[name] = vid
	return vid
}

// Lookup resolves a previously declared value by name.
func (b *Builder) Lookup(name string) (ValueID, bool) {
	vid, ok := b.nameToVal[name]
	return vid, ok
}

// AddOp appends an op consuming inputNames and producing outputNames, all of
// which must already be declared. A missing name is a schema error. Every
// output name must resolve to a value without a prior def.
func (b *Builder) AddOp(name, opType string, inputNames, outputNames []string) OpID {
	if b.err != nil {
		return 0
	}
	opID := OpID(len(b.g.ops))
	op := Op{Name: name, Type: opType}

	for _, in := range inputNames {
		vid, ok := b.nameToVal[in]
		if !ok {
			b.err = herrors.New(herrors.KindSchema, "op %q references unknown value %q", name, in)
			return opID
		}
		op.Inputs = append(op.Inputs, vid)
		b.g.values[vid].uses = append(b.g.values[vid].uses, opID)
	}

	for _, out := range outputNames {
		vid, ok := b.nameToVal[out]
		if !ok {
			b.err = herrors.New(herrors.KindSchema, "op %q references unknown value %q", name, out)
			return opID
		}
		if b.g.values[vid].Kind != Result {
			b.err = herrors.New(herrors.KindInvariant,
				"op %q output %q is not a RESULT value", name, out)
			return opID
		}
		if _, has := b.g.values[vid].Def(); has {
			b.err = herrors.New(herrors.KindInvariant,
				"value %q already has a defining op", out)
			return opID
		}
		b.g.values[vid].def = opID
		op.Outputs = append(op.Outputs, vid)
	}

	b.g.ops = append(b.g.ops, op)
	return opID
}

// AddOutput declares a graph output referencing an already-declared value.
func (b *Builder) AddOutput(name string) OutputID {
	if b.err != nil {
		return 0
	}
	vid, ok := b.nameToVal[name]
	if !ok {
		b.err = herrors.New(herrors.KindSchema, "graph output references unknown value %q", name)
		return 0
	}
	oid := OutputID(len(b.g.outputs))
	b.g.outputs = append(b.g.outputs, Output{Value: vid})
	return oid
}

// Build finalizes the graph, connecting vertices. It fails if any error was
// recorded during construction, or if ConnectVerts finds an invariant
// violation.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.ConnectVerts(); err != nil {
		return nil, err
	}
	return &b.g, nil
}
