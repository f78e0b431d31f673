package formula

import (
	"fmt"

	"reachcheck/internal/ast"
	"reachcheck/internal/cfa"
)

// exprOpMap translates the restricted language's binary operator tokens
// (internal/ast.BinaryExpr.Op) to Term operator tokens; arithmetic and
// comparison operators pass through unchanged, boolean connectives are
// normalized to the Term spelling.
var exprOpMap = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%", "**": "**", "~/": "~/",
	"==": "==", "!=": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"&&": "&&", "||": "||",
	"&": "&", "|": "|", "^": "^", "<<": "<<", ">>": ">>",
}

// FromExpr builds a Term from a restricted-language expression, instantiating
// every variable reference against idx. This is the Go equivalent of
// FormulaBuilder.visit in pycpa, collapsed into one recursive function since
// the expression grammar is a small closed set (spec.md §9: "closed-world
// match over the restricted expression grammar").
func FromExpr(e ast.Expr, idx Indices) (Term, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		return Const(x.Value), nil
	case *ast.BoolLit:
		if x.Value {
			return True(), nil
		}
		return False(), nil
	case *ast.Ident:
		return Index(Unindexed(x.Name), idx), nil
	case *ast.UnaryExpr:
		inner, err := FromExpr(x.Expr, idx)
		if err != nil {
			return Term{}, err
		}
		switch x.Op {
		case "!":
			return Not(inner), nil
		case "-", "+", "~":
			return Unary(x.Op, inner), nil
		default:
			return Term{}, fmt.Errorf("formula: unsupported unary operator %q", x.Op)
		}
	case *ast.BinaryExpr:
		left, err := FromExpr(x.Left, idx)
		if err != nil {
			return Term{}, err
		}
		right, err := FromExpr(x.Right, idx)
		if err != nil {
			return Term{}, err
		}
		op, ok := exprOpMap[x.Op]
		if !ok {
			return Term{}, fmt.Errorf("formula: unsupported binary operator %q", x.Op)
		}
		switch op {
		case "&&":
			return And(left, right), nil
		case "||":
			return Or(left, right), nil
		default:
			return Binary(op, left, right), nil
		}
	case *ast.CallExpr:
		// Builtins (nondet()) surface as NONDET edges, not expressions;
		// any call reaching here is an unconstrained value, over-approximated
		// by TRUE as pycpa's PredAbsPrecision.ssa_from_assign does for
		// `ast.Call()` RHSes.
		return True(), nil
	default:
		return Term{}, fmt.Errorf("formula: unsupported expression %T", e)
	}
}

// FromEdge translates a cfa.Edge into its SSA-indexed transition formula,
// mutating idx in place for STATEMENT/NONDET targets — the Go equivalent of
// PredAbsPrecision.ssa_from_assign / ssa_from_assume dispatched by
// InstructionKind, as spec.md §4.5 step 1 prescribes:
// "STATEMENT→assignment formula; ASSUMPTION→constraint (if negated, negate);
// CALL/RETURN/NOP/NONDET→TRUE (over-approx)."
func FromEdge(e *cfa.Edge, idx Indices) (Term, error) {
	instr := e.Instruction
	switch instr.Kind {
	case cfa.Statement:
		if instr.AssignTo == "" {
			return True(), nil
		}
		rhs, err := FromExpr(instr.Value, idx)
		if err != nil {
			return Term{}, err
		}
		newIdx := idx.Next(instr.AssignTo)
		return Binary("==", Var(instr.AssignTo, newIdx), rhs), nil

	case cfa.Assumption:
		cond, err := FromExpr(instr.Cond, idx)
		if err != nil {
			return Term{}, err
		}
		if instr.Negated {
			return Not(cond), nil
		}
		return cond, nil

	case cfa.Nondet:
		if instr.AssignTo == "" {
			return True(), nil
		}
		idx.Next(instr.AssignTo) // fresh, unconstrained value
		return True(), nil

	case cfa.Call, cfa.Return, cfa.Nop, cfa.ReachError:
		return True(), nil

	default:
		return Term{}, fmt.Errorf("formula: unsupported instruction kind %v", instr.Kind)
	}
}

// SeedPredicates walks every ASSUMPTION edge in g and
// collects its unindexed comparison subexpressions as candidate predicates,
// plus TRUE and FALSE — the Go equivalent of PredAbsPrecision.from_cfa,
// supplemented per SPEC_FULL.md §4 to extract atomic comparisons rather
// than the whole assumption formula, matching the original's intent
// ("predicates syntactically derivable from every CFA edge").
func SeedPredicates(g *cfa.Graph) []Term {
	seeds := []Term{True(), False()}
	seen := map[string]bool{True().Key(): true, False().Key(): true}
	add := func(t Term) {
		k := t.Key()
		if !seen[k] {
			seen[k] = true
			seeds = append(seeds, t)
		}
	}

	for i := range g.Edges {
		edge := &g.Edges[i]
		if edge.Instruction.Kind != cfa.Assumption {
			continue
		}
		t, err := FromExpr(edge.Instruction.Cond, Indices{})
		if err != nil {
			continue
		}
		unindexed := Unindex(t)
		for _, atom := range unindexed.Atoms() {
			add(atom)
		}
		if len(unindexed.Atoms()) == 0 && !unindexed.IsTrue() && !unindexed.IsFalse() {
			add(unindexed)
		}
	}
	return seeds
}
