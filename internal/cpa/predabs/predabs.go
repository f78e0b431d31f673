package predabs

import (
	"sort"
	"strings"

	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
	"reachcheck/internal/formula"
	"reachcheck/internal/solver"
)

// State is PredAbsState: the set of predicates currently implied, plus the
// SSA indices accumulated since the last (implicit, since this variant
// never resets) abstraction (spec.md §3: "PredAbsState(predicates,
// ssa_indices). Lattice: s⊑s' ⇔ s'.predicates ⊆ s.predicates").
type State struct {
	Predicates []formula.Term
	SSA        formula.Indices
}

func initial() State { return State{SSA: formula.Indices{}} }

func (s State) keys() map[string]bool {
	m := make(map[string]bool, len(s.Predicates))
	for _, p := range s.Predicates {
		m[p.Key()] = true
	}
	return m
}

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	if !ok || !s.SSA.Equal(o.SSA) {
		return false
	}
	a, b := s.keys(), o.keys()
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func (s State) Key() string {
	preds := make([]string, len(s.Predicates))
	for i, p := range s.Predicates {
		preds[i] = p.Key()
	}
	sort.Strings(preds)
	return strings.Join(preds, "&") + "|" + s.SSA.Key()
}

func (s State) String() string {
	preds := make([]string, len(s.Predicates))
	for i, p := range s.Predicates {
		preds[i] = p.String()
	}
	return "{" + strings.Join(preds, ", ") + "}"
}

func (State) IsTarget() bool { return false }

// Subsumes is PredAbsState.subsumes: self ⊒ other iff other's predicates ⊆
// self's, and both agree on SSA indices (spec.md §4.5's stop condition).
func Subsumes(self, other State) bool {
	if !self.SSA.Equal(other.SSA) {
		return false
	}
	selfKeys := self.keys()
	for _, p := range other.Predicates {
		if !selfKeys[p.Key()] {
			return false
		}
	}
	return true
}

// Transfer is PredAbsTransferRelation, using internal/solver in place of
// pysmt's is_sat for the implication checks.
type Transfer struct {
	Precision *Precision
	Solver    *solver.Solver
}

func (t Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	ssa := s.SSA.Clone()

	trans, err := formula.FromEdge(edge, ssa)
	if err != nil {
		return nil, err
	}

	ctx := formula.True()
	for _, p := range s.Predicates {
		ctx = formula.And(ctx, formula.Index(p, s.SSA))
	}
	phi := formula.And(ctx, trans)

	if edge.Instruction.Kind == cfa.Assumption {
		sat, err := t.Solver.Sat(phi)
		if err != nil {
			return nil, err
		}
		if !sat {
			return nil, nil // spec.md §4.5 step 4: ASSUMPTION produced UNSAT, no successor
		}
	}

	pi := t.Precision.At(edge.Successor)
	implied := make([]formula.Term, 0, len(pi))
	for _, p := range pi {
		indexed := formula.Index(p, ssa)
		holds, err := t.implies(phi, indexed)
		if err != nil {
			return nil, err
		}
		if holds {
			implied = append(implied, p)
		}
	}

	return []cpa.State{State{Predicates: implied, SSA: ssa}}, nil
}

// implies decides phi ⇒ p via ¬SAT(phi ∧ ¬p); solver "unsupported" is
// treated as SAT per spec.md §4.5 step 3 ("On solver UNKNOWN treat as SAT
// (do not add)").
func (t Transfer) implies(phi, p formula.Term) (bool, error) {
	sat, err := t.Solver.Sat(formula.And(phi, formula.Not(p)))
	if err != nil {
		if err == solver.ErrUnsupported {
			return false, nil
		}
		return false, err
	}
	return !sat, nil
}

// CPA is PredAbsCPA: merge-sep, stop-sep-by-subsumption.
type CPA struct {
	precision *Precision
	solver    *solver.Solver
}

func NewCPA(precision *Precision, s *solver.Solver) *CPA {
	return &CPA{precision: precision, solver: s}
}

func (c *CPA) InitialState() cpa.State { return initial() }

func (c *CPA) Transfer() cpa.TransferRelation {
	return Transfer{Precision: c.precision, Solver: c.solver}
}

func (c *CPA) Merge() cpa.MergeOperator { return cpa.MergeSep{} }

func (c *CPA) Stop() cpa.StopOperator {
	return cpa.StopSepBySubsumption{Sub: func(candidate, r cpa.State) bool {
		return Subsumes(candidate.(State), r.(State))
	}}
}
