package solver

import (
	"context"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	"reachcheck/internal/formula"
)

// SeqInterp computes a sequence interpolant for an UNSAT conjunction
// conjuncts[0] ∧ ... ∧ conjuncts[n-1], returning τ_0..τ_n per spec.md §4.11
// step 5 and the GLOSSARY's definition (τ_0 = TRUE, τ_n = FALSE, and for
// 0<i<n: conjuncts[0..i-1] ⇒ τ_i and τ_i ∧ conjuncts[i..n-1] is UNSAT).
//
// Each τ_i is computed by exact projection-by-enumeration (SPEC_FULL.md
// §2.3): since the domain is finite, the precise set of values the prefix
// permits for the variables it shares with the suffix can be enumerated
// outright via the same bounded FDStore search Sat uses, rather than
// requiring a true Craig-interpolating prover (which nothing in the example
// pack provides). Returns ok=false when enumeration hits EnumLimit before
// exhausting the prefix's solutions — SPEC_FULL.md treats that the same as
// "interpolator not supported" (spec.md §7's Solver error kind).
func (s *Solver) SeqInterp(conjuncts []formula.Term) ([]formula.Term, bool) {
	n := len(conjuncts)
	if n == 0 {
		return []formula.Term{formula.True(), formula.False()}, true
	}

	taus := make([]formula.Term, n+1)
	taus[0] = formula.True()
	taus[n] = formula.False()

	for i := 1; i < n; i++ {
		prefix := formula.And(conjuncts[:i]...)
		suffix := formula.And(conjuncts[i:]...)

		interfaceVars := sharedVars(prefix, suffix)
		tuples, ok := s.project(prefix, interfaceVars)
		if !ok {
			return nil, false
		}
		if len(tuples) == 0 {
			// Prefix alone is infeasible at this cut; FALSE is a trivially
			// valid (if degenerate) interpolant.
			taus[i] = formula.False()
			continue
		}

		candidate := projectionFormula(interfaceVars, tuples)
		sat, err := s.Sat(formula.And(candidate, suffix))
		if err != nil || sat {
			return nil, false
		}
		taus[i] = candidate
	}
	return taus, true
}

// sharedVars returns the var refs appearing in both a and b, the interface
// across which an interpolant at this cut must be expressed.
func sharedVars(a, b formula.Term) []formula.Term {
	bSet := map[string]bool{}
	for _, ref := range b.VarRefs() {
		bSet[ref.Key()] = true
	}
	var out []formula.Term
	for _, ref := range a.VarRefs() {
		if bSet[ref.Key()] {
			out = append(out, ref)
		}
	}
	return out
}

// project enumerates every distinct projection of phi's satisfying
// assignments onto vars, up to s.cfg.EnumLimit solutions. ok is false if the
// limit is hit before the prefix's full solution set is known to be
// exhausted (enumeration would otherwise be unsound to treat as exact).
func (s *Solver) project(phi formula.Term, vars []formula.Term) ([]map[string]int64, bool) {
	refs := phi.VarRefs()
	if len(refs) == 0 {
		v, ok := evalBool(phi, nil)
		if ok && v {
			return []map[string]int64{{}}, true
		}
		return nil, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	store := minikanren.NewFDStoreWithDomain(s.domainSize())
	fdVars := make([]*minikanren.FDVar, len(refs))
	keys := make([]string, len(refs))
	for i, ref := range refs {
		fdVars[i] = store.NewVar()
		keys[i] = ref.Key()
	}

	constraint := &exprConstraint{vars: fdVars, keys: keys, bias: s.bias(), literals: conjuncts(toNNF(phi))}
	if err := store.AddCustomConstraint(constraint); err != nil {
		return nil, true // UNSAT: empty projection, exact
	}

	solutions, err := store.Solve(ctx, s.cfg.EnumLimit+1)
	if err != nil {
		return nil, false
	}
	if len(solutions) > s.cfg.EnumLimit {
		return nil, false
	}

	seen := map[string]bool{}
	var out []map[string]int64
	for _, sol := range solutions {
		env := make(map[string]int64, len(refs))
		for i, key := range keys {
			env[key] = int64(sol[i]) - s.bias()
		}
		projection := make(map[string]int64, len(vars))
		var key string
		for _, v := range vars {
			val := env[v.Key()]
			projection[v.Key()] = val
			key += v.Key() + "=" + itoa(val) + ";"
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, projection)
		}
	}
	return out, true
}

// projectionFormula builds the disjunction-of-conjunctions candidate
// interpolant for the tuples project returned.
func projectionFormula(vars []formula.Term, tuples []map[string]int64) formula.Term {
	disjuncts := make([]formula.Term, len(tuples))
	for i, tuple := range tuples {
		lits := make([]formula.Term, len(vars))
		for j, v := range vars {
			lits[j] = formula.Binary("==", v, formula.Const(tuple[v.Key()]))
		}
		disjuncts[i] = formula.And(lits...)
	}
	return formula.Or(disjuncts...)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
