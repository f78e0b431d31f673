// Package location is the LocationCPA of spec.md §4.2: the abstract state
// that tracks "which CFA node are we at", grounded on
// pycpa/analyses/LocationCPA.py's LocationState/LocationTransferRelation.
package location

import (
	"fmt"

	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// State is LocationCPA's abstract state: just the current CFA node. It
// additionally carries a read-only pointer to the graph so IsTarget can
// consult the node's is_error flag without every caller threading the
// graph through separately (spec.md §3: "Target iff ... its LocationState
// is an error location").
type State struct {
	G    *cfa.Graph
	Node cfa.NodeID
}

// New wraps node as a LocationState over g.
func New(g *cfa.Graph, node cfa.NodeID) State { return State{G: g, Node: node} }

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	return ok && o.Node == s.Node
}

func (s State) Key() string { return fmt.Sprintf("@%d", s.Node) }

func (s State) String() string { return fmt.Sprintf("@%d", s.Node) }

// IsTarget reports whether this location is the shared error sink (spec.md
// §4.9's "its LocationState is an error location" disjunct of ARG target).
func (s State) IsTarget() bool { return s.G.Node(s.Node).IsError }

func (s State) Location() cfa.NodeID { return s.Node }

func (s State) WithLocation(node cfa.NodeID) cpa.State { return State{G: s.G, Node: node} }

// Transfer is LocationTransferRelation: for CALL edges the successor is the
// callee's entry node (deferring the caller's post-call node until
// RETURN, handled by internal/cpa/stack); for every other edge kind it is
// simply edge.Successor.
type Transfer struct{}

func (Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	if edge.Instruction.Kind == cfa.Call {
		return []cpa.State{State{G: s.G, Node: edge.Instruction.CalleeFn}}, nil
	}
	return []cpa.State{State{G: s.G, Node: edge.Successor}}, nil
}

// CPA is LocationCPA: stop-sep by node equality, merge-sep (spec.md §4.2).
type CPA struct {
	g    *cfa.Graph
	root cfa.NodeID
}

// NewCPA constructs LocationCPA rooted at root.
func NewCPA(g *cfa.Graph, root cfa.NodeID) *CPA { return &CPA{g: g, root: root} }

func (c *CPA) InitialState() cpa.State { return State{G: c.g, Node: c.root} }

func (c *CPA) Transfer() cpa.TransferRelation { return Transfer{} }

func (c *CPA) Merge() cpa.MergeOperator { return cpa.MergeSep{} }

func (c *CPA) Stop() cpa.StopOperator {
	return cpa.StopSepBySubsumption{Sub: func(candidate, r cpa.State) bool {
		return candidate.(State).Equal(r)
	}}
}
