// Package property is the PropertyCPA of spec.md §4.3: a one-bit "has
// reach_error been taken" flag, grounded on
// pycpa/analyses/PropertyCPA.py's PropertyState/PropertyTransferRelation.
package property

import (
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// State is PropertyCPA's abstract state: Safe is false once a REACH_ERROR
// edge has been taken (spec.md §3: PropertyState(safe: bool), target iff
// ¬safe).
type State struct {
	Safe bool
}

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	return ok && o.Safe == s.Safe
}

func (s State) Key() string {
	if s.Safe {
		return "safe"
	}
	return "unsafe"
}

func (s State) String() string { return s.Key() }

func (s State) IsTarget() bool { return !s.Safe }

// Transfer is PropertyTransferRelation: a REACH_ERROR edge flips to unsafe;
// every other edge leaves the state unchanged.
type Transfer struct{}

func (Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	if edge.Instruction.Kind == cfa.ReachError {
		return []cpa.State{State{Safe: false}}, nil
	}
	return []cpa.State{pred}, nil
}

// stopExact is PropertyStopOperator (pycpa: "e in reached", i.e. exact
// membership rather than a general subsumption predicate).
type stopExact struct{}

func (stopExact) Stop(candidate cpa.State, reached []cpa.State) (bool, error) {
	for _, r := range reached {
		if candidate.(State).Equal(r) {
			return true, nil
		}
	}
	return false, nil
}

// CPA is PropertyCPA: initial = safe, merge-sep, exact-membership stop.
type CPA struct{}

func NewCPA() *CPA { return &CPA{} }

func (c *CPA) InitialState() cpa.State { return State{Safe: true} }

func (c *CPA) Transfer() cpa.TransferRelation { return Transfer{} }

func (c *CPA) Merge() cpa.MergeOperator { return cpa.MergeSep{} }

func (c *CPA) Stop() cpa.StopOperator { return stopExact{} }
