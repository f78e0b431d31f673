// Package composite is the CompositeCPA of spec.md §4.8: the Cartesian
// product of several component CPAs with edge-synchronized transfer,
// grounded on pycpa/analyses/CompositeCPA.py's CompositeState/
// CompositeTransferRelation/CompositeMergeOperator.
package composite

import (
	"fmt"
	"strings"

	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// State is CompositeState: a tuple of component states, one per wrapped
// CPA, in the order the CompositeCPA was constructed with.
type State struct {
	Components []cpa.State
}

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	if !ok || len(s.Components) != len(o.Components) {
		return false
	}
	for i := range s.Components {
		if !s.Components[i].Equal(o.Components[i]) {
			return false
		}
	}
	return true
}

func (s State) Key() string {
	parts := make([]string, len(s.Components))
	for i, c := range s.Components {
		parts[i] = c.Key()
	}
	return strings.Join(parts, "‡")
}

func (s State) String() string {
	parts := make([]string, len(s.Components))
	for i, c := range s.Components {
		parts[i] = fmt.Sprint(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// IsTarget is CompositeState.is_target: any component that is Targetable
// and answers true makes the whole tuple a target (spec.md §4.9's
// delegation chain for ARGState).
func (s State) IsTarget() bool {
	for _, c := range s.Components {
		if t, ok := c.(cpa.Targetable); ok && t.IsTarget() {
			return true
		}
	}
	return false
}

// Location/WithLocation implement cpa.LocationAware by delegating to
// whichever component is itself LocationAware (spec.md §9's
// "erase at composition boundaries": StackCPA's RETURN handling needs this
// without knowing CompositeCPA wraps a LocationCPA internally).
func (s State) Location() cfa.NodeID {
	for _, c := range s.Components {
		if la, ok := c.(cpa.LocationAware); ok {
			return la.Location()
		}
	}
	panic("composite: no LocationAware component")
}

func (s State) WithLocation(node cfa.NodeID) cpa.State {
	components := append([]cpa.State(nil), s.Components...)
	for i, c := range s.Components {
		if la, ok := c.(cpa.LocationAware); ok {
			components[i] = la.WithLocation(node)
			return State{Components: components}
		}
	}
	panic("composite: no LocationAware component")
}

// locationIndex returns the index of the first LocationAware component, or
// -1 if none. Nothing in the repository calls it; internal/reach finds the
// current location through Location, and every transfer goes through the
// edge-given SuccessorsForEdge below.
func (s State) locationIndex() int {
	for i, c := range s.Components {
		if _, ok := c.(cpa.LocationAware); ok {
			return i
		}
	}
	return -1
}

// Transfer is CompositeTransferRelation.
type Transfer struct {
	Wrapped []cpa.TransferRelation
}

func (t Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	perComponent := make([][]cpa.State, len(s.Components))
	for i, c := range s.Components {
		successors, err := t.Wrapped[i].SuccessorsForEdge(c, edge)
		if err != nil {
			return nil, err
		}
		if len(successors) == 0 {
			return nil, nil // one component pruned the edge (e.g. an infeasible ASSUMPTION)
		}
		perComponent[i] = successors
	}
	return cartesianProduct(perComponent), nil
}

func cartesianProduct(perComponent [][]cpa.State) []cpa.State {
	combos := [][]cpa.State{{}}
	for _, options := range perComponent {
		next := make([][]cpa.State, 0, len(combos)*len(options))
		for _, combo := range combos {
			for _, opt := range options {
				extended := append(append([]cpa.State(nil), combo...), opt)
				next = append(next, extended)
			}
		}
		combos = next
	}
	out := make([]cpa.State, len(combos))
	for i, combo := range combos {
		out[i] = State{Components: combo}
	}
	return out
}

// Stop is CompositeStopOperator: component-wise agreement.
type Stop struct {
	Wrapped []cpa.StopOperator
}

func (s Stop) Stop(candidate cpa.State, reached []cpa.State) (bool, error) {
	e := candidate.(State)
	for _, r := range reached {
		rs := r.(State)
		covered := true
		for i := range e.Components {
			ok, err := s.Wrapped[i].Stop(e.Components[i], []cpa.State{rs.Components[i]})
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

// Merge is CompositeMergeOperator (merge-agree): merge per component; if
// any component's merge result fails to cover that component's first
// input, abort the whole merge and return the second input unchanged.
type Merge struct {
	Wrapped []cpa.MergeOperator
	Stops   []cpa.StopOperator
}

func (m Merge) Merge(newState, old cpa.State) (cpa.State, error) {
	s1, s2 := newState.(State), old.(State)
	results := make([]cpa.State, len(s1.Components))
	changed := false
	for i := range s1.Components {
		merged, err := m.Wrapped[i].Merge(s1.Components[i], s2.Components[i])
		if err != nil {
			return nil, err
		}
		covers, err := m.Stops[i].Stop(s1.Components[i], []cpa.State{merged})
		if err != nil {
			return nil, err
		}
		if !covers {
			return s2, nil
		}
		results[i] = merged
		if !merged.Equal(s2.Components[i]) {
			changed = true
		}
	}
	if !changed {
		return s2, nil
	}
	return State{Components: results}, nil
}

// CPA is CompositeCPA.
type CPA struct {
	wrapped []cpa.CPA
}

func NewCPA(wrapped ...cpa.CPA) *CPA { return &CPA{wrapped: wrapped} }

func (c *CPA) InitialState() cpa.State {
	components := make([]cpa.State, len(c.wrapped))
	for i, w := range c.wrapped {
		components[i] = w.InitialState()
	}
	return State{Components: components}
}

func (c *CPA) Transfer() cpa.TransferRelation {
	transfers := make([]cpa.TransferRelation, len(c.wrapped))
	for i, w := range c.wrapped {
		transfers[i] = w.Transfer()
	}
	return Transfer{Wrapped: transfers}
}

func (c *CPA) Merge() cpa.MergeOperator {
	merges := make([]cpa.MergeOperator, len(c.wrapped))
	stops := make([]cpa.StopOperator, len(c.wrapped))
	for i, w := range c.wrapped {
		merges[i] = w.Merge()
		stops[i] = w.Stop()
	}
	return Merge{Wrapped: merges, Stops: stops}
}

func (c *CPA) Stop() cpa.StopOperator {
	stops := make([]cpa.StopOperator, len(c.wrapped))
	for i, w := range c.wrapped {
		stops[i] = w.Stop()
	}
	return Stop{Wrapped: stops}
}
