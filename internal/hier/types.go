// Package hier builds a tree of scheduling units (C2) over a graph.Graph:
// Sequence nodes for chains with no scheduling choice, Group nodes for
// fork/join regions whose internal order is left to the scheduler.
package hier

import "github.com/LeeOHzzZ/HMCOS/internal/graph"

// NodeKind tags which variant a Node is: an exhaustive tagged variant,
// the same pattern internal/graph uses for VertexRef.
type NodeKind int

const (
	Input NodeKind = iota
	Output
	Op
	Group
	Sequence
)

func (k NodeKind) String() string {
	switch k {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case Op:
		return "Op"
	case Group:
		return "Group"
	case Sequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

// NodeID is a stable index into Tree.nodes.
type NodeID int

// Node is a hierarchical vertex. Vertex is meaningful for the three leaf
// kinds (Input, Output, Op); Children is meaningful for Group and Sequence.
//
// Invariant: for Group, Children holds leaf NodeIDs only (no nested
// Group/Sequence); the construction in build.go never produces a Group
// inside another Group, folding nested fork regions into one flat Group
// instead. For Sequence, Children may be leaves, Groups, or other
// Sequences, in declared order.
type Node struct {
	Kind     NodeKind
	Vertex   graph.VertexRef
	Children []NodeID
}

// Tree owns every hierarchical node reachable from Root, by stable index.
type Tree struct {
	nodes []Node
	root  NodeID
}

// Root returns the tree's root node ID, always a Sequence.
func (t *Tree) Root() NodeID { return t.root }

// Node returns the node at id.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// NumNodes reports the number of nodes owned by the tree.
func (t *Tree) NumNodes() int { return len(t.nodes) }

func (t *Tree) newNode(n Node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return id
}

// Flatten returns the pre-order leaf sequence of the tree: Sequence children
// are visited in declared order, Group children in their stored (discovery)
// order. This is a valid topological extension of the underlying graph by
// construction (see build.go).
func Flatten(t *Tree, id NodeID) []graph.VertexRef {
	var out []graph.VertexRef
	var walk func(NodeID)
	walk = func(id NodeID) {
		n := t.Node(id)
		switch n.Kind {
		case Input, Output, Op:
			out = append(out, n.Vertex)
		case Group, Sequence:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(id)
	return out
}
