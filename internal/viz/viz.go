// Package viz provides the two reporting-only renderers (C8): a Graphviz
// DOT dump of the op DAG and a matplotlib rectangle timeline. Neither is
// on a path the scheduler depends on; both render an already-computed
// result and report a missing external tool as a non-fatal error.
package viz

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
)

// checkTool verifies name is on PATH before shelling out to it.
func checkTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", name, err)
	}
	return nil
}

// RenderDOT writes g as a Graphviz DOT file under dir and shells out to
// `dot` to render it in the requested format ("png", "svg", ...). A
// missing `dot` binary is returned as a non-fatal error; the DOT file is
// still written.
func RenderDOT(g *graph.Graph, dir, format string) error {
	var sb strings.Builder
	sb.WriteString("digraph " + g.Name + " {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=rounded, fontname=\"Arial\"];\n\n")

	for _, id := range g.InputIDs() {
		v := g.Value(g.Input(id).Value)
		sb.WriteString(fmt.Sprintf("  V%d [label=%q, fillcolor=lightgreen, style=filled];\n", g.Input(id).Value, v.Name))
	}
	for i := 0; i < g.NumOps(); i++ {
		op := g.Op(graph.OpID(i))
		sb.WriteString(fmt.Sprintf("  Op%d [label=%q, shape=box, fillcolor=lightyellow, style=filled];\n", i, op.Name+"\\n"+op.Type))
		for _, vid := range op.Outputs {
			v := g.Value(vid)
			sb.WriteString(fmt.Sprintf("  V%d [label=%q, style=filled];\n", vid, v.Name))
		}
	}
	for _, id := range g.OutputIDs() {
		out := g.Output(id)
		v := g.Value(out.Value)
		sb.WriteString(fmt.Sprintf("  VO%d [label=%q, fillcolor=lightblue, style=filled];\n", id, v.Name+"\\n(output)"))
	}

	sb.WriteString("\n")
	for i := 0; i < g.NumOps(); i++ {
		op := g.Op(graph.OpID(i))
		for _, vid := range op.Inputs {
			if g.Value(vid).Kind == graph.Param {
				continue
			}
			sb.WriteString(fmt.Sprintf("  V%d -> Op%d;\n", vid, i))
		}
		for _, vid := range op.Outputs {
			sb.WriteString(fmt.Sprintf("  Op%d -> V%d;\n", i, vid))
		}
	}
	for _, id := range g.OutputIDs() {
		out := g.Output(id)
		sb.WriteString(fmt.Sprintf("  V%d -> VO%d;\n", out.Value, id))
	}
	sb.WriteString("}\n")

	dotPath := filepath.Join(dir, g.Name+".dot")
	if err := os.WriteFile(dotPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing DOT file: %w", err)
	}

	if err := checkTool("dot"); err != nil {
		return err
	}
	outPath := filepath.Join(dir, g.Name+"."+format)
	cmd := exec.Command("dot", "-T"+format, dotPath, "-o", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dot render failed: %w\noutput: %s", err, out)
	}
	return nil
}
