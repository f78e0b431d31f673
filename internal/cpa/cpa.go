// Package cpa is the Configurable Program Analysis algebra of spec.md §4.1:
// a common abstract-state interface plus the TransferRelation/
// MergeOperator/StopOperator triad every concrete CPA (location, property,
// value, predabs, predabsabe, stack, composite, arg) implements, and the
// default merge-sep/stop-sep-by-subsumption operators every CPA but the ABE
// variant uses. Per spec.md §9's design note ("tagged-variant abstract
// states... otherwise keep each CPA behind a narrow trait and erase at
// composition boundaries"), this package defines the narrow traits; each
// subpackage owns its own concrete state type and erases to these
// interfaces at Composite/Stack/ARG's composition boundaries.
package cpa

import "reachcheck/internal/cfa"

// State is any CPA's abstract state. Equality and hashing must be
// value-based (spec.md §3), so State requires an Equal method and a Key
// usable as a map key (Go structs holding slices/interfaces can't be map
// keys directly).
type State interface {
	Equal(other State) bool
	Key() string
}

// Targetable is implemented by any state that can answer spec.md §3's
// is_target question, either directly (PropertyState: "target iff ¬safe")
// or by delegating to a nested component (CompositeState, StackState,
// ARGState delegate to whichever of their parts answers it).
type Targetable interface {
	State
	IsTarget() bool
}

// LocationAware is implemented by any state that carries (or wraps
// something that carries) a LocationState, so StackCPA's RETURN transfer
// (spec.md §4.7: "reset the LocationState inside the top frame to the
// successor of the stored call edge") can rewrite it without knowing
// whether it is wrapping a bare LocationCPA or a CompositeCPA.
type LocationAware interface {
	State
	Location() cfa.NodeID
	WithLocation(node cfa.NodeID) State
}

// TransferRelation computes successors of a state across CFA edges.
// get_successors (the union over the current location's leaving edges) is
// computed inside internal/reach's Run loop using LocationAware, rather
// than by a TransferRelation method, since only LocationCPA and its
// composites can answer "what are my leaving edges" at all (spec.md §4.1:
// "get_successors(pred) is optional and defined as the union over the
// leaving edges of the LocationState's current node").
type TransferRelation interface {
	SuccessorsForEdge(pred State, edge *cfa.Edge) ([]State, error)
}

// MergeOperator returns a replacement for old given a freshly computed new
// state (spec.md §4.1: "MergeOperator.merge(new, old) returns a replacement
// for old").
type MergeOperator interface {
	Merge(newState, old State) (State, error)
}

// StopOperator decides whether a candidate state is already covered by the
// reached set (spec.md §4.1: "StopOperator.stop(e, R) is true iff ∃r∈R
// covering e").
type StopOperator interface {
	Stop(candidate State, reached []State) (bool, error)
}

// CPA bundles the four operators a configuration wires together (spec.md
// §4.1: "Each CPA exposes: initial_state(), transfer_relation(),
// merge_operator(), stop_operator()").
type CPA interface {
	InitialState() State
	Transfer() TransferRelation
	Merge() MergeOperator
	Stop() StopOperator
}

// MergeSep is the default "no joining" merge operator (spec.md §4.1:
// "Defaults: ... MergeSep returns the second argument unchanged").
type MergeSep struct{}

func (MergeSep) Merge(_ State, old State) (State, error) { return old, nil }

// Subsumes decides whether candidate is covered by r; StopSepBySubsumption
// is parameterized by one of these per concrete CPA (spec.md §4.5's
// predicate-subset-and-SSA-equality test, §4.4's value-map test, etc.).
type Subsumes func(candidate, r State) bool

// StopSepBySubsumption is the default stop operator (spec.md §4.1:
// "Defaults: StopSepBySubsumption(sub) iterates R and tests sub(e, r)").
type StopSepBySubsumption struct {
	Sub Subsumes
}

func (s StopSepBySubsumption) Stop(candidate State, reached []State) (bool, error) {
	for _, r := range reached {
		if s.Sub(candidate, r) {
			return true, nil
		}
	}
	return false, nil
}
