// Package pass rewrites a hierarchy (C3) to reduce the number of
// scheduling tie-break points without changing the space of legal
// schedules.
package pass

import "github.com/LeeOHzzZ/HMCOS/internal/hier"

// JoinSequencePass merges each maximal chain of adjacent Sequence children
// under a common parent into a single Sequence.
type JoinSequencePass struct{}

// Run rewrites t in place. A single post-order, left-to-right fold over
// each Sequence's children already reaches the merge fixpoint in one pass:
// every sequence absorbs the next child if it too is a Sequence, so a run
// of k adjacent sequences collapses to one regardless of k.
func (JoinSequencePass) Run(t *hier.Tree) {
	visit(t, t.Root())
}

func visit(t *hier.Tree, id hier.NodeID) {
	n := t.Node(id)
	if n.Kind != hier.Group && n.Kind != hier.Sequence {
		return
	}
	for _, c := range n.Children {
		visit(t, c)
	}
	if n.Kind == hier.Sequence {
		n.Children = mergeAdjacentSequences(t, n.Children)
	}
}

func mergeAdjacentSequences(t *hier.Tree, children []hier.NodeID) []hier.NodeID {
	out := make([]hier.NodeID, 0, len(children))
	for _, c := range children {
		if len(out) > 0 {
			last := t.Node(out[len(out)-1])
			if last.Kind == hier.Sequence && t.Node(c).Kind == hier.Sequence {
				last.Children = append(last.Children, t.Node(c).Children...)
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
