// Package value is the optional ValueCPA of spec.md §4.4: flat-lattice
// constant propagation used as a secondary analysis alongside predicate
// abstraction, grounded on pycpa/analyses/ValueAnalysisCPA.py's
// ValueState/Value/ValueExpressionVisitor.
package value

import (
	"fmt"
	"sort"
	"strings"

	"reachcheck/internal/ast"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
)

// val is one binding's value: either a concrete integer (booleans are
// represented as 0/1, matching the restricted language folding comparisons
// and arithmetic into the same integer domain) or Top.
type val struct {
	top bool
	n   int64
}

func top() val       { return val{top: true} }
func lit(n int64) val { return val{n: n} }
func boolVal(b bool) val {
	if b {
		return lit(1)
	}
	return lit(0)
}
func (v val) truthy() bool { return v.n != 0 }

func (v val) String() string {
	if v.top {
		return "⊤"
	}
	return fmt.Sprintf("%d", v.n)
}

// State is ValueCPA's abstract state: a partial map from variable name to
// val, matching pycpa's ValueState.valuation dict. A variable absent from
// the map has no known value: eval reads a missing key as Top, and a
// STATEMENT or NONDET that yields Top deletes the binding.
type State struct {
	Valuation map[string]val
}

func initial() State { return State{Valuation: map[string]val{}} }

func (s State) clone() State {
	m := make(map[string]val, len(s.Valuation))
	for k, v := range s.Valuation {
		m[k] = v
	}
	return State{Valuation: m}
}

func (s State) Equal(other cpa.State) bool {
	o, ok := other.(State)
	if !ok || len(o.Valuation) != len(s.Valuation) {
		return false
	}
	for k, v := range s.Valuation {
		ov, ok := o.Valuation[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (s State) Key() string {
	keys := make([]string, 0, len(s.Valuation))
	for k := range s.Valuation {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, s.Valuation[k])
	}
	return b.String()
}

func (s State) String() string { return "{" + s.Key() + "}" }

func (State) IsTarget() bool { return false }

// Subsumes is ValueState.subsumes (spec.md §4.4: "self ⊒ other when every
// key in other either absent from self or has an equal value").
func Subsumes(self, other State) bool {
	for k, v := range other.Valuation {
		if sv, ok := self.Valuation[k]; ok && sv != v {
			return false
		}
	}
	return true
}

// Transfer is ValueTransferRelation.
type Transfer struct{}

func (Transfer) SuccessorsForEdge(pred cpa.State, edge *cfa.Edge) ([]cpa.State, error) {
	s := pred.(State)
	instr := edge.Instruction
	switch instr.Kind {
	case cfa.Statement:
		if instr.AssignTo == "" {
			return []cpa.State{s}, nil
		}
		next := s.clone()
		v := eval(instr.Value, s.Valuation)
		if v.top {
			delete(next.Valuation, instr.AssignTo)
		} else {
			next.Valuation[instr.AssignTo] = v
		}
		return []cpa.State{next}, nil

	case cfa.Assumption:
		v := eval(instr.Cond, s.Valuation)
		if v.top {
			return []cpa.State{s}, nil
		}
		truthy := v.truthy()
		if instr.Negated {
			truthy = !truthy
		}
		if !truthy {
			return nil, nil
		}
		return []cpa.State{s}, nil

	case cfa.Call:
		next := initial()
		for i, param := range instr.Params {
			if i >= len(instr.Args) {
				break
			}
			v := eval(instr.Args[i], s.Valuation)
			if !v.top {
				next.Valuation[param] = v
			}
		}
		return []cpa.State{next}, nil

	case cfa.Nondet:
		next := s.clone()
		target := instr.AssignTo
		if target == "" {
			target = "__ret"
		}
		delete(next.Valuation, target)
		return []cpa.State{next}, nil

	default:
		return []cpa.State{s}, nil
	}
}

// eval is ValueExpressionVisitor collapsed into one recursive function
// (spec.md §9: "closed-world match over the restricted expression
// grammar"), implementing the Top-propagating arithmetic of spec.md §4.4
// including its absorbing-element special cases.
func eval(e ast.Expr, env map[string]val) val {
	switch x := e.(type) {
	case *ast.IntLit:
		return lit(x.Value)
	case *ast.BoolLit:
		return boolVal(x.Value)
	case *ast.Ident:
		if v, ok := env[x.Name]; ok {
			return v
		}
		return top()
	case *ast.UnaryExpr:
		v := eval(x.Expr, env)
		if v.top {
			return top()
		}
		switch x.Op {
		case "!":
			return boolVal(!v.truthy())
		case "-":
			return lit(-v.n)
		case "+":
			return lit(v.n)
		case "~":
			return lit(^v.n)
		}
		return top()
	case *ast.BinaryExpr:
		if x.Op == "&&" {
			l := eval(x.Left, env)
			if !l.top && !l.truthy() {
				return boolVal(false)
			}
			r := eval(x.Right, env)
			if l.top || r.top {
				return top()
			}
			return boolVal(l.truthy() && r.truthy())
		}
		if x.Op == "||" {
			l := eval(x.Left, env)
			if !l.top && l.truthy() {
				return boolVal(true)
			}
			r := eval(x.Right, env)
			if l.top || r.top {
				return top()
			}
			return boolVal(l.truthy() || r.truthy())
		}
		l := eval(x.Left, env)
		r := eval(x.Right, env)
		return evalBinary(x.Op, l, r)
	default:
		return top()
	}
}

func evalBinary(op string, l, r val) val {
	switch op {
	case "+":
		if l.top || r.top {
			return top()
		}
		return lit(l.n + r.n)
	case "-":
		if l.top || r.top {
			return top()
		}
		return lit(l.n - r.n)
	case "*":
		if !l.top && l.n == 0 || !r.top && r.n == 0 {
			return lit(0)
		}
		if l.top || r.top {
			return top()
		}
		return lit(l.n * r.n)
	case "/":
		if l.top || r.top || r.n == 0 {
			return top()
		}
		return lit(l.n / r.n)
	case "~/":
		if l.top || r.top || r.n == 0 {
			return top()
		}
		return lit(floorDiv(l.n, r.n))
	case "**":
		// Absorbing cases short-circuit ahead of the is-top checks below,
		// matching ValueAnalysisCPA.py's do_pow: the exponent or base alone
		// can decide the result even when the other side is unknown.
		if !r.top && r.n == 0 {
			return lit(1)
		}
		if !l.top && l.n == 1 {
			return lit(1)
		}
		if !l.top && l.n == 0 && !r.top && r.n > 0 {
			return lit(0)
		}
		if l.top || r.top || r.n < 0 {
			return top()
		}
		return lit(ipow(l.n, r.n))
	case "%":
		if l.top || r.top || r.n == 0 {
			return top()
		}
		return lit(l.n % r.n)
	case "==":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n == r.n)
	case "!=":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n != r.n)
	case "<":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n < r.n)
	case "<=":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n <= r.n)
	case ">":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n > r.n)
	case ">=":
		if l.top || r.top {
			return top()
		}
		return boolVal(l.n >= r.n)
	case "&":
		if !l.top && l.n == 0 || !r.top && r.n == 0 {
			return lit(0)
		}
		if l.top || r.top {
			return top()
		}
		return lit(l.n & r.n)
	case "|":
		if !l.top && l.n == -1 || !r.top && r.n == -1 {
			return lit(-1)
		}
		if l.top || r.top {
			return top()
		}
		return lit(l.n | r.n)
	case "^":
		if l.top || r.top {
			return top()
		}
		return lit(l.n ^ r.n)
	case "<<":
		if l.top || r.top || r.n < 0 {
			return top()
		}
		return lit(l.n << uint(r.n))
	case ">>":
		if l.top || r.top || r.n < 0 {
			return top()
		}
		return lit(l.n >> uint(r.n))
	default:
		return top()
	}
}

// floorDiv is integer division rounding toward negative infinity, the
// semantics of do_floordiv's "//" rather than Go's truncating "/". Unlike
// do_floordiv this guards against a zero divisor instead of propagating a
// host-language exception, matching the "/" and "%" cases above.
func floorDiv(l, r int64) int64 {
	q := l / r
	if (l%r != 0) && ((l < 0) != (r < 0)) {
		q--
	}
	return q
}

// ipow is integer exponentiation by squaring; evalBinary only calls it once
// the "**" absorbing cases and a non-negative, concrete exponent are ruled
// in, so overflow aside this always terminates.
func ipow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// MergeJoin merges two value states pointwise: a key survives the join
// only if both sides bind it to the same concrete value, otherwise it goes
// to Top (absent from the result) — the natural join of the flat lattice,
// used by the ValueAnalysisMergeJoin configuration in place of merge-sep.
type MergeJoin struct{}

func (MergeJoin) Merge(newState, old cpa.State) (cpa.State, error) {
	s1, s2 := newState.(State), old.(State)
	joined := make(map[string]val, len(s2.Valuation))
	for k, v2 := range s2.Valuation {
		if v1, ok := s1.Valuation[k]; ok && v1 == v2 {
			joined[k] = v2
		}
	}
	if len(joined) == len(s2.Valuation) {
		return s2, nil
	}
	return State{Valuation: joined}, nil
}

// CPA is ValueAnalysisCPA: initial = empty valuation, stop-sep-by-
// subsumption, and either merge-sep or merge-join depending on UseMergeJoin.
type CPA struct {
	UseMergeJoin bool
}

func NewCPA() *CPA { return &CPA{} }

// NewCPAMergeJoin builds the ValueAnalysisMergeJoin variant (spec.md §6).
func NewCPAMergeJoin() *CPA { return &CPA{UseMergeJoin: true} }

func (c *CPA) InitialState() cpa.State { return initial() }

func (c *CPA) Transfer() cpa.TransferRelation { return Transfer{} }

func (c *CPA) Merge() cpa.MergeOperator {
	if c.UseMergeJoin {
		return MergeJoin{}
	}
	return cpa.MergeSep{}
}

func (c *CPA) Stop() cpa.StopOperator {
	return cpa.StopSepBySubsumption{Sub: func(candidate, r cpa.State) bool {
		return Subsumes(candidate.(State), r.(State))
	}}
}
