package formula

import (
	"sort"
	"strconv"
	"strings"
)

// Indices is a mutable var -> current SSA index map, the Go equivalent of
// ssa_helper.py's plain `dict[str, int]` threaded through PredAbsState and
// PredAbsABEState.
type Indices map[string]int

// Key is a deterministic string encoding of idx, used as part of an
// abstract state's map key (PredAbsState/PredAbsABEState.Key).
func (idx Indices) Key() string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(idx[name]))
		b.WriteByte(';')
	}
	return b.String()
}

// Clone returns an independent copy, mirroring copy.deepcopy(predecessor.ssa_indices)
// in PredAbsCPA.py's get_abstract_successors_for_edge.
func (idx Indices) Clone() Indices {
	out := make(Indices, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out
}

// Equal is value equality for the Stop operator (spec.md §4.5: "r.ssa_indices = e.ssa_indices").
func (idx Indices) Equal(other Indices) bool {
	if len(idx) != len(other) {
		return false
	}
	for k, v := range idx {
		if other[k] != v {
			return false
		}
	}
	return true
}

// Next bumps var's index and returns the new value, mirroring SSA.next.
func (idx Indices) Next(name string) int {
	idx[name] = idx[name] + 1
	return idx[name]
}

// Get returns var's current index, defaulting to 0 for a variable never
// assigned yet (matching pysmt Symbol(name, idx=0) convention implicit in
// the original's dict.get(name, 0)).
func (idx Indices) Get(name string) int {
	if v, ok := idx[name]; ok {
		return v
	}
	return 0
}

// Index instantiates an unindexed Term against idx, the Go equivalent of
// SSA.set_indices: every Var leaf is stamped with idx's current index for
// its name (0 if unseen).
func Index(t Term, idx Indices) Term {
	switch t.Kind {
	case KindVar:
		if t.Index >= 0 {
			return t // already indexed
		}
		return Var(t.Name, idx.Get(t.Name))
	case KindUnary:
		return Unary(t.Op, Index(t.X, idx))
	case KindBinary:
		return Binary(t.Op, Index(t.X, idx), Index(t.Y, idx))
	default:
		return t
	}
}

// Unindex strips SSA indices from every variable leaf of t, the Go
// equivalent of SSA.unindex_predicate: "(x#1 > y#0) becomes (x > y)". Used
// when extracting predicates from an interpolant for storage in Precision
// (spec.md §3: "predicates stored unindexed").
func Unindex(t Term) Term {
	switch t.Kind {
	case KindVar:
		return Unindexed(t.Name)
	case KindUnary:
		return Unary(t.Op, Unindex(t.X))
	case KindBinary:
		return Binary(t.Op, Unindex(t.X), Unindex(t.Y))
	default:
		return t
	}
}

// Pad adds equality padding so that, for every variable present in both
// indices and target, its index becomes max(indices[x], target[x]) — the Go
// equivalent of SSA.pad_indices, used when comparing two ABE states with
// different SSA histories for subsumption (spec.md §4.6).
func Pad(t Term, indices, target Indices) Term {
	var terms []Term
	for name, target := range target {
		cur, ok := indices[name]
		if !ok || cur >= target {
			continue
		}
		terms = append(terms, Binary("==", Var(name, target), Var(name, cur)))
	}
	if len(terms) == 0 {
		return t
	}
	return And(append([]Term{t}, terms...)...)
}

// MaxIndices returns, for every variable appearing in either map, the
// larger of its two indices — the target map Pad should pad both sides up to.
func MaxIndices(a, b Indices) Indices {
	out := make(Indices, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}
