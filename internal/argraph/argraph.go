// Package argraph is the arena for the Abstract Reachability Graph built by
// internal/cpa/arg, kept separate from internal/cfa's arena per SPEC_FULL.md
// §2.5's design note ("arena-indexed nodes... to avoid cyclic ownership"):
// ARG nodes reference CFA edges but never the reverse, so the two arenas
// never need to know about each other's indices.
package argraph

import "reachcheck/internal/cfa"

// NodeID indexes into Graph.Nodes.
type NodeID int

// Graph holds every ARG node ever created during one analysis run. Nodes
// carry only the reachability bookkeeping (parents/children/creating
// edge) the ARG needs; the wrapped abstract state for each node lives in
// cpa/arg.State.Wrapped and is looked up by NodeID there, since cpa.State
// can't be imported here without an import cycle (internal/cpa would have
// to depend back on argraph). Nodes are appended, never removed — covered
// states stay in the arena so CEGAR refinement can still walk the full
// history when building error paths.
type Graph struct {
	Parents      [][]NodeID
	Children     [][]NodeID
	CreatingEdge []*cfa.Edge // nil for the root and for ambiguous ARG-merge parents
	count        int
}

// NewGraph returns an empty arena.
func NewGraph() *Graph {
	return &Graph{}
}

// AddRoot creates the single root node (no parents, no creating edge).
func (g *Graph) AddRoot() NodeID {
	id := NodeID(g.count)
	g.count++
	g.Parents = append(g.Parents, nil)
	g.Children = append(g.Children, nil)
	g.CreatingEdge = append(g.CreatingEdge, nil)
	return id
}

// AddChild creates a new node with a single parent and the CFA edge that
// produced it, and records the back-link on the parent.
func (g *Graph) AddChild(parent NodeID, via *cfa.Edge) NodeID {
	id := NodeID(g.count)
	g.count++
	g.Parents = append(g.Parents, []NodeID{parent})
	g.Children = append(g.Children, nil)
	g.CreatingEdge = append(g.CreatingEdge, via)
	g.Children[parent] = append(g.Children[parent], id)
	return id
}

// AddMergedChild creates a node resulting from ARGCPA's merge of two
// sibling successors (spec.md §4.9): it has both predecessors as parents.
// via is recorded as given: callers pass a CFA edge only when one edge
// unambiguously created the node and nil otherwise (internal/cpa/arg.Merge
// always passes nil), resolving Open Question #3 by never fabricating a
// misleading single edge.
func (g *Graph) AddMergedChild(parents []NodeID, via *cfa.Edge) NodeID {
	id := NodeID(g.count)
	g.count++
	g.Parents = append(g.Parents, append([]NodeID(nil), parents...))
	g.Children = append(g.Children, nil)
	g.CreatingEdge = append(g.CreatingEdge, via)
	for _, p := range parents {
		g.Children[p] = append(g.Children[p], id)
	}
	return id
}

// Len reports the number of nodes in the arena.
func (g *Graph) Len() int { return g.count }
