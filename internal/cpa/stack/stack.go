// Package stack is the StackCPA of spec.md §4.7: wraps another CPA to
// model call stacks, grounded on pycpa/analyses/StackCPA.py's
// StackState/StackTransferRelation/StackStopOperator/StackMergeOperator.
// Where the source never actually pushes a new frame on CALL (a known gap:
// its own comment reads "# result[i].stack.append(wrapped_successor)" —
// left disabled), this package performs the real push/pop spec.md's
// wording describes ("if only one frame remains, terminate" implies a
// genuine depth), so recursive calls get distinct frames.
package stack

import (
	"fmt"
	"strings"

	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// State is StackState: a non-empty sequence of wrapped frames with a
// parallel sequence of the CFA edges that pushed them. Frames[0] is the
// root frame; CallEdges[0] is always nil (the root has no enclosing
// call). len(Frames) == len(CallEdges) always.
type State struct {
	Frames    []cpa.State
	CallEdges []*cfa.Edge
}

func (s State) top() cpa.State { return s.Frames[len(s.Frames)-1] }

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	if !ok || len(s.Frames) != len(o.Frames) {
		return false
	}
	for i := range s.Frames {
		if !s.Frames[i].Equal(o.Frames[i]) {
			return false
		}
		if (s.CallEdges[i] == nil) != (o.CallEdges[i] == nil) {
			return false
		}
		if s.CallEdges[i] != nil && s.CallEdges[i].ID != o.CallEdges[i].ID {
			return false
		}
	}
	return true
}

func (s State) Key() string {
	parts := make([]string, len(s.Frames))
	for i, f := range s.Frames {
		edge := "-"
		if s.CallEdges[i] != nil {
			edge = fmt.Sprintf("%d", s.CallEdges[i].ID)
		}
		parts[i] = edge + ":" + f.Key()
	}
	return strings.Join(parts, "/")
}

func (s State) String() string { return fmt.Sprint(s.top()) }

// IsTarget delegates to the top frame if it is Targetable (spec.md §4.9
// delegates through every wrapper to find a PropertyState/LocationState).
func (s State) IsTarget() bool {
	if t, ok := s.top().(cpa.Targetable); ok {
		return t.IsTarget()
	}
	return false
}

// Location/WithLocation delegate to the top frame, letting StackCPA sit
// beneath ARGCPA and still answer cpa.LocationAware: arg.State.Location
// delegates here, which is how internal/reach finds the current CFA node.
func (s State) Location() cfa.NodeID {
	return s.top().(cpa.LocationAware).Location()
}

func (s State) WithLocation(node cfa.NodeID) cpa.State {
	frames := append([]cpa.State(nil), s.Frames...)
	frames[len(frames)-1] = s.top().(cpa.LocationAware).WithLocation(node)
	return State{Frames: frames, CallEdges: s.CallEdges}
}

// Transfer is StackTransferRelation.
type Transfer struct {
	Wrapped cpa.TransferRelation
}

func (t Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	switch edge.Instruction.Kind {
	case cfa.Call:
		return t.handleCall(s, edge)
	case cfa.Return:
		return t.handleReturn(s, edge)
	default:
		successors, err := t.Wrapped.SuccessorsForEdge(s.top(), edge)
		if err != nil {
			return nil, err
		}
		out := make([]cpa.State, len(successors))
		for i, w := range successors {
			frames := append([]cpa.State(nil), s.Frames...)
			frames[len(frames)-1] = w
			out[i] = State{Frames: frames, CallEdges: s.CallEdges}
		}
		return out, nil
	}
}

func (t Transfer) handleCall(s State, edge *cfa.Edge) ([]cpa.State, error) {
	successors, err := t.Wrapped.SuccessorsForEdge(s.top(), edge)
	if err != nil {
		return nil, err
	}
	out := make([]cpa.State, len(successors))
	for i, w := range successors {
		frames := append(append([]cpa.State(nil), s.Frames...), w)
		edges := append(append([]*cfa.Edge(nil), s.CallEdges...), edge)
		out[i] = State{Frames: frames, CallEdges: edges}
	}
	return out, nil
}

func (t Transfer) handleReturn(s State, edge *cfa.Edge) ([]cpa.State, error) {
	if len(s.Frames) <= 1 {
		return nil, nil // program exit, spec.md §4.7
	}
	successors, err := t.Wrapped.SuccessorsForEdge(s.top(), edge)
	if err != nil {
		return nil, err
	}
	callEdge := s.CallEdges[len(s.CallEdges)-1]
	out := make([]cpa.State, len(successors))
	for i, w := range successors {
		newTop := w.(cpa.LocationAware).WithLocation(callEdge.Successor)
		frames := append([]cpa.State(nil), s.Frames[:len(s.Frames)-1]...)
		frames[len(frames)-1] = newTop
		edges := append([]*cfa.Edge(nil), s.CallEdges[:len(s.CallEdges)-1]...)
		out[i] = State{Frames: frames, CallEdges: edges}
	}
	return out, nil
}

// Stop is StackStopOperator: pointwise stop on frames when depths match.
type Stop struct {
	Wrapped cpa.StopOperator
}

func (s Stop) Stop(candidate cpa.State, reached []cpa.State) (bool, error) {
	e := candidate.(State)
	for _, r := range reached {
		rs := r.(State)
		if len(e.Frames) != len(rs.Frames) {
			continue
		}
		covered := true
		for i := range e.Frames {
			ok, err := s.Wrapped.Stop(e.Frames[i], []cpa.State{rs.Frames[i]})
			if err != nil {
				return false, err
			}
			if !ok {
				covered = false
				break
			}
		}
		if covered {
			return true, nil
		}
	}
	return false, nil
}

// Merge is StackMergeOperator: merge only if lower frames are equal, then
// merge the top frame; otherwise merge-sep.
type Merge struct {
	Wrapped cpa.MergeOperator
}

func (m Merge) Merge(newState, old cpa.State) (cpa.State, error) {
	s1, s2 := newState.(State), old.(State)
	if len(s1.Frames) != len(s2.Frames) || len(s1.Frames) == 0 {
		return s2, nil
	}
	for i := 0; i < len(s1.Frames)-1; i++ {
		if !s1.Frames[i].Equal(s2.Frames[i]) {
			return s2, nil
		}
	}
	frame, err := m.Wrapped.Merge(s1.top(), s2.top())
	if err != nil {
		return nil, err
	}
	if frame.Equal(s2.top()) {
		return s2, nil
	}
	frames := append([]cpa.State(nil), s1.Frames...)
	frames[len(frames)-1] = frame
	return State{Frames: frames, CallEdges: s1.CallEdges}, nil
}

// CPA is StackCPA.
type CPA struct {
	wrapped cpa.CPA
}

func NewCPA(wrapped cpa.CPA) *CPA { return &CPA{wrapped: wrapped} }

func (c *CPA) InitialState() cpa.State {
	return State{Frames: []cpa.State{c.wrapped.InitialState()}, CallEdges: []*cfa.Edge{nil}}
}

func (c *CPA) Transfer() cpa.TransferRelation { return Transfer{Wrapped: c.wrapped.Transfer()} }

func (c *CPA) Merge() cpa.MergeOperator { return Merge{Wrapped: c.wrapped.Merge()} }

func (c *CPA) Stop() cpa.StopOperator { return Stop{Wrapped: c.wrapped.Stop()} }
