// Package arg is the ARGCPA of spec.md §4.9: wraps any CPA and builds an
// Abstract Reachability Graph alongside it, grounded on
// pycpa/analyses/ARGCPA.py's ARGState/ARGTransferRelation/ARGMergeOperator/
// ARGStopOperator and GraphableARGState.
package arg

import (
	"fmt"

	"reachcheck/internal/argraph"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// Stats counts events that would otherwise vanish silently inside a
// wrapped CPA's transfer relation: any wrapped CPA (for example an ABE
// PredAbsABECPA) returning no successor for an ASSUMPTION edge. pycpa
// drops these on the floor; the count is kept here, in the Stats the
// caller passes to NewCPA. It is not printed or stored in task.Result.
type Stats struct {
	PrunedEdges int
}

// State is ARGState: a wrapped abstract state plus its node identity in
// the shared ARG arena.
type State struct {
	Wrapped cpa.State
	Node    argraph.NodeID
	Arena   *argraph.Graph
}

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	return ok && s.Wrapped.Equal(o.Wrapped)
}

func (s State) Key() string { return s.Wrapped.Key() }

func (s State) String() string { return fmt.Sprint(s.Wrapped) }

// IsTarget delegates to the wrapped state (spec.md §4.9's delegation
// chain terminates here when ARGCPA sits outermost, as every named
// configuration in SPEC_FULL.md §4 has it).
func (s State) IsTarget() bool {
	if t, ok := s.Wrapped.(cpa.Targetable); ok {
		return t.IsTarget()
	}
	return false
}

func (s State) Location() cfa.NodeID {
	return s.Wrapped.(cpa.LocationAware).Location()
}

func (s State) WithLocation(node cfa.NodeID) cpa.State {
	w := s.Wrapped.(cpa.LocationAware).WithLocation(node)
	return State{Wrapped: w, Node: s.Node, Arena: s.Arena}
}

// Transfer is ARGTransferRelation: delegate to the wrapped transfer
// relation, then record a new ARG child per successor with this state's
// node as parent and edge as creating_edge.
type Transfer struct {
	Wrapped cpa.TransferRelation
	Stats   *Stats
}

func (t Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	successors, err := t.Wrapped.SuccessorsForEdge(s.Wrapped, edge)
	if err != nil {
		return nil, err
	}
	if len(successors) == 0 {
		if edge.Instruction.Kind == cfa.Assumption && t.Stats != nil {
			t.Stats.PrunedEdges++
		}
		return nil, nil
	}
	out := make([]cpa.State, len(successors))
	for i, w := range successors {
		child := s.Arena.AddChild(s.Node, edge)
		out[i] = State{Wrapped: w, Node: child, Arena: s.Arena}
	}
	return out, nil
}

// Stop is ARGStopOperator: delegate to the wrapped stop operator over the
// unwrapped states.
type Stop struct {
	Wrapped cpa.StopOperator
}

func (s Stop) Stop(candidate cpa.State, reached []cpa.State) (bool, error) {
	e := candidate.(State)
	unwrapped := make([]cpa.State, len(reached))
	for i, r := range reached {
		unwrapped[i] = r.(State).Wrapped
	}
	return s.Wrapped.Stop(e.Wrapped, unwrapped)
}

// Merge is ARGMergeOperator: merge the wrapped states; if the merge
// produced something new (not equal to the second input's wrapped state),
// create a merged ARG node with both predecessors as parents, leaving
// creating_edge nil since no single edge produced it (spec.md §4.9, Open
// Question #3).
type Merge struct {
	Wrapped cpa.MergeOperator
}

func (m Merge) Merge(newState, old cpa.State) (cpa.State, error) {
	s1, s2 := newState.(State), old.(State)
	merged, err := m.Wrapped.Merge(s1.Wrapped, s2.Wrapped)
	if err != nil {
		return nil, err
	}
	if merged.Equal(s2.Wrapped) {
		return s2, nil
	}
	node := s2.Arena.AddMergedChild([]argraph.NodeID{s1.Node, s2.Node}, nil)
	return State{Wrapped: merged, Node: node, Arena: s2.Arena}, nil
}

// CPA is ARGCPA.
type CPA struct {
	wrapped cpa.CPA
	arena   *argraph.Graph
	stats   *Stats
}

// NewCPA wraps inner, building its ARG inside arena (typically freshly
// created per analysis run) and recording pruned-edge counts in stats.
func NewCPA(inner cpa.CPA, arena *argraph.Graph, stats *Stats) *CPA {
	return &CPA{wrapped: inner, arena: arena, stats: stats}
}

func (c *CPA) InitialState() cpa.State {
	root := c.arena.AddRoot()
	return State{Wrapped: c.wrapped.InitialState(), Node: root, Arena: c.arena}
}

func (c *CPA) Transfer() cpa.TransferRelation {
	return Transfer{Wrapped: c.wrapped.Transfer(), Stats: c.stats}
}

func (c *CPA) Merge() cpa.MergeOperator { return Merge{Wrapped: c.wrapped.Merge()} }

func (c *CPA) Stop() cpa.StopOperator { return Stop{Wrapped: c.wrapped.Stop()} }

// Arena exposes the underlying ARG arena, e.g. for counterexample-path
// reconstruction in internal/cegar or for a DOT dump in internal/visual.
func (c *CPA) Arena() *argraph.Graph { return c.arena }
