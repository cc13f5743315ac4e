// Package loader ingests the JSON DAG format (C6): dummy inputs, then
// graph outputs, then the intermediate tensor list, then the op list, in
// that order, followed by wiring every vertex's predecessor/successor
// edges.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/herrors"
	"github.com/LeeOHzzZ/HMCOS/internal/obslog"
)

// document mirrors the on-disk JSON shape: a name, the synthetic dummy
// inputs for ops with no real predecessors, the graph's output tensor
// names, the full tensor list (sizes keyed separately), and the op list.
type document struct {
	Name               string            `json:"name"`
	DummyInputTensors  []string          `json:"dummy_input_tensors"`
	GraphOutputTensors []string          `json:"graph_output_tensors"`
	TensorList         []string          `json:"tensor_list"`
	TensorSizes        map[string]uint64 `json:"tensor_sizes"`
	DAG                []node            `json:"dag"`
}

type node struct {
	Name          string   `json:"name"`
	InputNodes    []string `json:"input_nodes"`
	InputTensors  []string `json:"input_tensors"`
	OutputTensors []string `json:"output_tensors"`
}

// Load reads and parses the JSON DAG at path into a *graph.Graph. log is
// nil-safe; it receives a construction-progress trace as the graph is
// built up.
func Load(path string, log *obslog.Logger) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, herrors.Wrap(herrors.KindSchema, err, "opening DAG file %q", path)
	}
	defer f.Close()
	return Decode(f, log)
}

// Decode parses a JSON DAG document from r, the same format Load reads from
// disk, for callers that already have the bytes (tests, embedded fixtures).
func Decode(r io.Reader, log *obslog.Logger) (*graph.Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, herrors.Wrap(herrors.KindSchema, err, "decoding DAG document")
	}

	b := graph.NewBuilder(doc.Name)

	log.Debugf("creating dummy graph inputs")
	for _, name := range doc.DummyInputTensors {
		b.AddInput(name, 0)
		log.Debugf("graph input: %s", name)
	}

	log.Debugf("creating outputs")
	for _, name := range doc.GraphOutputTensors {
		size, ok := doc.TensorSizes[name]
		if !ok {
			return nil, herrors.New(herrors.KindSchema, "graph output tensor %q has no entry in tensor_sizes", name)
		}
		b.DeclareResult(name, size)
		log.Debugf("graph output: %s", name)
	}

	log.Debugf("creating tensors")
	for _, name := range doc.TensorList {
		if _, ok := b.Lookup(name); ok {
			continue
		}
		size, ok := doc.TensorSizes[name]
		if !ok {
			return nil, herrors.New(herrors.KindSchema, "tensor %q has no entry in tensor_sizes", name)
		}
		b.DeclareResult(name, size)
	}

	log.Debugf("creating ops")
	for _, n := range doc.DAG {
		log.Debugf("\tcreated ops.. %s", n.Name)

		inputNames := n.InputTensors
		if len(n.InputNodes) == 0 {
			dummy := "dummy_" + n.Name
			if _, ok := b.Lookup(dummy); !ok {
				return nil, herrors.New(herrors.KindSchema,
					"cannot find information of value %q", dummy)
			}
			inputNames = []string{dummy}
		}

		b.AddOp(n.Name, "unknown", inputNames, n.OutputTensors)
	}

	for _, name := range doc.GraphOutputTensors {
		b.AddOutput(name)
	}

	log.Debugf("connecting vertices")
	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building graph %q: %w", doc.Name, err)
	}

	return g, nil
}
