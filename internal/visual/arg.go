package visual

import (
	"fmt"

	"reachcheck/internal/argraph"
)

// ARGNode adapts one argraph.Graph node to Graphable, for dumping `arg_<i>`
// per spec.md §6's persisted state layout. Labels are supplied by the
// caller (keyed by NodeID) since the arena itself doesn't retain the
// wrapped cpa.State — only internal/cpa/arg.State does, at analysis time —
// avoiding an import cycle between argraph and cpa.
type ARGNode struct {
	Arena  *argraph.Graph
	Node   argraph.NodeID
	Labels map[argraph.NodeID]string
}

func (n ARGNode) ID() string { return fmt.Sprintf("arg%d", n.Node) }

func (n ARGNode) NodeLabel() string {
	if lbl, ok := n.Labels[n.Node]; ok {
		return lbl
	}
	return fmt.Sprintf("#%d", n.Node)
}

func (n ARGNode) Successors() []Graphable {
	children := n.Arena.Children[n.Node]
	out := make([]Graphable, len(children))
	for i, c := range children {
		out[i] = ARGNode{Arena: n.Arena, Node: c, Labels: n.Labels}
	}
	return out
}

func (n ARGNode) EdgeLabels(succ Graphable) []string {
	other := succ.(ARGNode)
	if edge := n.Arena.CreatingEdge[other.Node]; edge != nil {
		return []string{fmt.Sprintf("e%d", edge.ID)}
	}
	return nil
}

// ARGGraph produces the single-root Graphable set for an ARG arena's
// node 0 (always the root, per argraph.Graph.AddRoot's call order).
func ARGGraph(arena *argraph.Graph, labels map[argraph.NodeID]string) []Graphable {
	if arena.Len() == 0 {
		return nil
	}
	return []Graphable{ARGNode{Arena: arena, Node: 0, Labels: labels}}
}
