package solver

import "reachcheck/internal/formula"

// toNNF pushes negations down to comparison leaves, the Go equivalent of the
// first pass any DPLL-ish solver does before clausifying. Double negation
// and De Morgan's laws are the only rewrites the restricted language's
// boolean grammar needs.
func toNNF(t formula.Term) formula.Term {
	return nnf(t, false)
}

func nnf(t formula.Term, negate bool) formula.Term {
	switch t.Kind {
	case formula.KindTrue:
		if negate {
			return formula.False()
		}
		return formula.True()
	case formula.KindFalse:
		if negate {
			return formula.True()
		}
		return formula.False()
	case formula.KindUnary:
		if t.Op == "!" {
			return nnf(t.X, !negate)
		}
		if negate {
			// arithmetic negation isn't a boolean literal; this path is
			// unreachable for well-formed formulas (! only wraps booleans).
			return formula.Not(t)
		}
		return t
	case formula.KindBinary:
		switch t.Op {
		case "&&":
			if negate {
				return formula.Or(nnf(t.X, true), nnf(t.Y, true))
			}
			return formula.And(nnf(t.X, false), nnf(t.Y, false))
		case "||":
			if negate {
				return formula.And(nnf(t.X, true), nnf(t.Y, true))
			}
			return formula.Or(nnf(t.X, false), nnf(t.Y, false))
		case "==", "!=", "<", "<=", ">", ">=":
			if negate {
				return formula.Binary(negatedComparison(t.Op), t.X, t.Y)
			}
			return t
		}
	}
	if negate {
		return formula.Not(t)
	}
	return t
}

func negatedComparison(op string) string {
	switch op {
	case "==":
		return "!="
	case "!=":
		return "=="
	case "<":
		return ">="
	case "<=":
		return ">"
	case ">":
		return "<="
	case ">=":
		return "<"
	default:
		return op
	}
}

// toDNF expands an NNF-normalized term into a list of conjunction-of-literal
// disjuncts. The restricted language's assumptions are small (a handful of
// comparisons joined by && / ||), so the naive exponential expansion is
// accepted even though Sat applies it to whole formulas, such as a
// counterexample path's full conjunction: the number of disjuncts is the
// product of the disjunctions the formula conjoins.
func toDNF(t formula.Term) []formula.Term {
	switch t.Kind {
	case formula.KindBinary:
		switch t.Op {
		case "||":
			return append(toDNF(t.X), toDNF(t.Y)...)
		case "&&":
			left := toDNF(t.X)
			right := toDNF(t.Y)
			out := make([]formula.Term, 0, len(left)*len(right))
			for _, l := range left {
				for _, r := range right {
					out = append(out, formula.And(l, r))
				}
			}
			return out
		}
	}
	return []formula.Term{t}
}
