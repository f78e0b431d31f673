// Package formula is the SMT term layer of spec.md §9's "SSA strategy": a
// small closed-world term AST over fixed-width integers and booleans,
// (name, index) SSA pairs, and the SSA helpers (Index/Unindex/Pad) that
// pycpa/analyses/ssa_helper.py's SSA class implements over pysmt symbols.
// Go's static type system replaces pysmt's dynamic FNode with a tagged-sum
// Term, per spec.md §9's guidance to pattern-match explicit kinds instead of
// visitor dispatch.
package formula

import "fmt"

// Kind tags a Term variant.
type Kind int

const (
	KindTrue Kind = iota
	KindFalse
	KindConst
	KindVar
	KindUnary
	KindBinary
)

// Term is a quantifier-free boolean/arithmetic formula over SSA-indexed
// integer variables. Terms are immutable value types; building a new term
// never mutates an existing one.
type Term struct {
	Kind  Kind
	Const int64  // KindConst
	Name  string // KindVar: unindexed variable name
	Index int    // KindVar: SSA index, -1 when unindexed
	Op    string // KindUnary/KindBinary operator token
	X, Y  Term   // KindUnary uses X; KindBinary uses X, Y
}

// True is the formula constant TRUE.
func True() Term { return Term{Kind: KindTrue} }

// False is the formula constant FALSE.
func False() Term { return Term{Kind: KindFalse} }

// Const is an integer literal.
func Const(v int64) Term { return Term{Kind: KindConst, Const: v} }

// Var is an SSA-indexed variable reference, e.g. Var("x", 2) is "x#2".
func Var(name string, index int) Term {
	return Term{Kind: KindVar, Name: name, Index: index}
}

// Unindexed is a bare variable reference with no SSA index, as stored in a
// Precision (spec.md §3: "predicates stored unindexed").
func Unindexed(name string) Term { return Term{Kind: KindVar, Name: name, Index: -1} }

// Unary builds `op x` (supported ops: "!", "-", "+", "~").
func Unary(op string, x Term) Term { return Term{Kind: KindUnary, Op: op, X: x} }

// Binary builds `x op y`.
func Binary(op string, x, y Term) Term { return Term{Kind: KindBinary, Op: op, X: x, Y: y} }

// And conjoins terms, dropping redundant TRUE conjuncts and short-circuiting
// on FALSE, mirroring pysmt's And() flattening.
func And(terms ...Term) Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Kind == KindFalse {
			return False()
		}
		if t.Kind == KindTrue {
			continue
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return True()
	case 1:
		return out[0]
	default:
		acc := out[0]
		for _, t := range out[1:] {
			acc = Binary("&&", acc, t)
		}
		return acc
	}
}

// Or disjoins terms.
func Or(terms ...Term) Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Kind == KindTrue {
			return True()
		}
		if t.Kind == KindFalse {
			continue
		}
		out = append(out, t)
	}
	switch len(out) {
	case 0:
		return False()
	case 1:
		return out[0]
	default:
		acc := out[0]
		for _, t := range out[1:] {
			acc = Binary("||", acc, t)
		}
		return acc
	}
}

// Not negates t, collapsing double negation and TRUE/FALSE.
func Not(t Term) Term {
	switch t.Kind {
	case KindTrue:
		return False()
	case KindFalse:
		return True()
	case KindUnary:
		if t.Op == "!" {
			return t.X
		}
	}
	return Unary("!", t)
}

// IsTrue/IsFalse report whether t is a trivial formula.
func (t Term) IsTrue() bool  { return t.Kind == KindTrue }
func (t Term) IsFalse() bool { return t.Kind == KindFalse }

// Equal is value equality, used by Precision sets and PredAbsState's
// predicate-set comparison (spec.md §3: "equality/hash must be value-based").
func (t Term) Equal(o Term) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindTrue, KindFalse:
		return true
	case KindConst:
		return t.Const == o.Const
	case KindVar:
		return t.Name == o.Name && t.Index == o.Index
	case KindUnary:
		return t.Op == o.Op && t.X.Equal(o.X)
	case KindBinary:
		return t.Op == o.Op && t.X.Equal(o.X) && t.Y.Equal(o.Y)
	}
	return false
}

// String renders t as an s-expression-free infix form, stable enough to use
// as a set/map key alongside Equal.
func (t Term) String() string {
	switch t.Kind {
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindConst:
		return fmt.Sprintf("%d", t.Const)
	case KindVar:
		if t.Index < 0 {
			return t.Name
		}
		return fmt.Sprintf("%s#%d", t.Name, t.Index)
	case KindUnary:
		return fmt.Sprintf("%s(%s)", t.Op, t.X.String())
	case KindBinary:
		return fmt.Sprintf("(%s %s %s)", t.X.String(), t.Op, t.Y.String())
	default:
		return "?"
	}
}

// Key returns a value suitable as a map key for a set of Terms (Go structs
// with slice/interface fields can't be map keys directly; Term has none, so
// Key is just a typed alias of String for readability at call sites).
func (t Term) Key() string { return t.String() }

// Atoms returns the comparison subterms of t reached through &&, || and !,
// mirroring pysmt's FNode.get_atoms() used by
// cegar_helper.refine_precision to pull predicates out of an interpolant.
// Boolean variables and constants are not returned.
func (t Term) Atoms() []Term {
	var out []Term
	var walk func(Term)
	walk = func(x Term) {
		switch x.Kind {
		case KindBinary:
			switch x.Op {
			case "==", "!=", "<", "<=", ">", ">=":
				out = append(out, x)
				return
			case "&&", "||":
				walk(x.X)
				walk(x.Y)
				return
			}
		case KindUnary:
			if x.Op == "!" {
				walk(x.X)
				return
			}
		}
	}
	walk(t)
	return out
}

// VarRefs returns the distinct SSA-indexed variable leaves referenced
// anywhere in t, keyed by Term.Key() (so two references to the same
// (name, index) pair collapse to one entry). Used by internal/solver to
// decide which FD variable to allocate per term.
func (t Term) VarRefs() []Term {
	seen := map[string]bool{}
	var out []Term
	var walk func(Term)
	walk = func(x Term) {
		switch x.Kind {
		case KindVar:
			k := x.Key()
			if !seen[k] {
				seen[k] = true
				out = append(out, x)
			}
		case KindUnary:
			walk(x.X)
		case KindBinary:
			walk(x.X)
			walk(x.Y)
		}
	}
	walk(t)
	return out
}

// Vars returns the distinct unindexed variable names referenced anywhere in t.
func (t Term) Vars() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Term)
	walk = func(x Term) {
		switch x.Kind {
		case KindVar:
			if !seen[x.Name] {
				seen[x.Name] = true
				out = append(out, x.Name)
			}
		case KindUnary:
			walk(x.X)
		case KindBinary:
			walk(x.X)
			walk(x.Y)
		}
	}
	walk(t)
	return out
}
