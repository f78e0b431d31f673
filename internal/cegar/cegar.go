package cegar

import (
	"reachcheck/internal/argraph"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa/arg"
	"reachcheck/internal/cpa/predabs"
	"reachcheck/internal/formula"
	"reachcheck/internal/reach"
	"reachcheck/internal/solver"
	"reachcheck/internal/task"
)

// IterationReport is one CEGAR loop pass, kept for persistence (spec.md §6:
// "Per refinement iteration, the driver writes: the current precision
// text, the ARG graph, and the spurious path's SMT conjuncts").
type IterationReport struct {
	Index      int
	Precision  *predabs.Precision
	Arena      *argraph.Graph
	CEXEdges   []*cfa.Edge
	CEXFormula string
}

// Driver runs the CEGAR loop of spec.md §4.11.
type Driver struct {
	G      *cfa.Graph
	Root   cfa.NodeID
	Solver *solver.Solver
	Config ConfigName
}

// New returns a Driver analyzing g from root with config, using s for every
// SAT/interpolation query.
func New(g *cfa.Graph, root cfa.NodeID, s *solver.Solver, config ConfigName) *Driver {
	return &Driver{G: g, Root: root, Solver: s, Config: config}
}

// Run executes the CEGAR loop up to t.MaxRefinements iterations (or a
// single fixpoint, for configs that are not CEGAR), returning the final
// task.Result and every iteration's report for persistence.
func (d *Driver) Run(t *task.Task) (*task.Result, []IterationReport) {
	result := task.NewResult()
	var reports []IterationReport

	precision := predabs.NewPrecision(d.G)
	maxRefinements := t.MaxRefinements
	if maxRefinements <= 0 {
		maxRefinements = 1
	}
	if !d.Config.IsCEGAR() {
		maxRefinements = 1
	}

	for iteration := 0; iteration < maxRefinements; iteration++ {
		arena := argraph.NewGraph()
		stats := &arg.Stats{}
		stack, err := Stack(d.Config, d.G, d.Root, d.Solver, precision, arena, stats)
		if err != nil {
			result.Status = task.StatusError
			result.RefinementNote = err.Error()
			return result, reports
		}

		algorithm := reach.New(d.G, stack)
		_, errorState := algorithm.Run(stack.InitialState(), t.MaxIterations, result)

		report := IterationReport{Index: iteration, Precision: precision.Clone(), Arena: arena}

		switch result.Status {
		case task.StatusOK:
			result.Verdict = task.VerdictTrue
			reports = append(reports, report)
			return result, reports

		case task.StatusTimeout:
			result.Verdict = task.VerdictUnknown
			reports = append(reports, report)
			return result, reports

		case task.StatusError:
			argState, ok := errorState.(arg.State)
			if !ok {
				result.Verdict = task.VerdictUnknown
				result.RefinementNote = "CEX extraction failure: target state not ARG-wrapped"
				reports = append(reports, report)
				return result, reports
			}

			edges, ok := extractCEX(arena, argState.Node)
			if !ok {
				result.Verdict = task.VerdictUnknown
				result.RefinementNote = "CEX extraction failure: no reachable root via parent links"
				reports = append(reports, report)
				return result, reports
			}
			report.CEXEdges = edges

			edgeFormulas, phi := formulasForPath(edges)
			report.CEXFormula = phi.String()

			sat, err := d.Solver.Sat(phi)
			if err != nil {
				result.Verdict = task.VerdictUnknown
				result.Status = task.StatusError
				result.RefinementNote = "solver: " + err.Error()
				reports = append(reports, report)
				return result, reports
			}
			if sat {
				result.Verdict = task.VerdictFalse
				result.Status = task.StatusError
				result.Witness = &task.Witness{EdgeIDs: edgeIDs(edges), Formula: phi.String()}
				reports = append(reports, report)
				return result, reports
			}

			if !d.Config.IsCEGAR() {
				// No precision to refine: a non-CEGAR predicate config hit a
				// spurious path it cannot eliminate. Report UNKNOWN rather
				// than looping forever.
				result.Verdict = task.VerdictUnknown
				result.RefinementNote = "spurious counterexample, no refinement configured"
				reports = append(reports, report)
				return result, reports
			}

			added, err := refine(d.Solver, precision, edges, edgeFormulas)
			reports = append(reports, report)
			if err != nil {
				result.Verdict = task.VerdictUnknown
				result.RefinementNote = "solver: " + err.Error()
				return result, reports
			}
			if !added {
				result.Verdict = task.VerdictUnknown
				result.RefinementNote = "refinement fixpoint"
				return result, reports
			}
			// loop again with the refined precision
		}
	}

	result.Verdict = task.VerdictUnknown
	result.RefinementNote = "max refinements exhausted"
	return result, reports
}

// extractCEX walks ARG parent links from node back to the root, collecting
// the creating edges in execution order (spec.md §4.11 step 3). The walk
// follows each node's first parent and ends at the first node with no
// parent. ok is false if a node on the path that has a parent lacks a
// creating edge (a merged ARG node with no unambiguous edge — spec.md §7's
// "CEX extraction failure").
func extractCEX(arena *argraph.Graph, node argraph.NodeID) ([]*cfa.Edge, bool) {
	var edges []*cfa.Edge
	cur := node
	for len(arena.Parents[cur]) > 0 {
		via := arena.CreatingEdge[cur]
		if via == nil {
			return nil, false
		}
		edges = append(edges, via)
		cur = arena.Parents[cur][0]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, true
}

// formulasForPath computes each edge's SSA-indexed transition formula
// against one shared, freshly-started index map, and their conjunction Φ
// (spec.md §4.11 step 4).
func formulasForPath(edges []*cfa.Edge) ([]formula.Term, formula.Term) {
	ssa := formula.Indices{}
	terms := make([]formula.Term, len(edges))
	for i, e := range edges {
		t, err := formula.FromEdge(e, ssa)
		if err != nil {
			t = formula.True()
		}
		terms[i] = t
	}
	return terms, formula.And(terms...)
}

func edgeIDs(edges []*cfa.Edge) []int {
	ids := make([]int, len(edges))
	for i, e := range edges {
		ids[i] = int(e.ID)
	}
	return ids
}

// refine requests a sequence interpolant for edgeFormulas and folds its
// non-trivial members' atomic predicates (SSA-stripped) into precision at
// the CFA node between the two conjuncts each interpolant separates
// (spec.md §4.11 step 5). Reports whether anything new was added.
func refine(s *solver.Solver, precision *predabs.Precision, edges []*cfa.Edge, edgeFormulas []formula.Term) (bool, error) {
	taus, ok := s.SeqInterp(edgeFormulas)
	if !ok {
		return false, errUnsupportedInterpolation
	}

	nodeForTau := func(i int) cfa.NodeID {
		if i == 0 {
			return edges[0].Predecessor
		}
		return edges[i-1].Successor
	}

	added := false
	for i, tau := range taus {
		if tau.IsTrue() || tau.IsFalse() {
			continue
		}
		unindexed := formula.Unindex(tau)
		atoms := unindexed.Atoms()
		if len(atoms) == 0 {
			atoms = []formula.Term{unindexed}
		}
		if precision.Add(nodeForTau(i), atoms) {
			added = true
		}
	}
	return added, nil
}

type unsupportedInterpolationError struct{}

func (unsupportedInterpolationError) Error() string {
	return "sequence interpolation not supported for this path (bound/timeout exceeded)"
}

var errUnsupportedInterpolation = unsupportedInterpolationError{}
