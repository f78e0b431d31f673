// Package predabs is the Cartesian Predicate-Abstraction CPA of spec.md
// §4.5, grounded on pycpa/analyses/PredAbsCPA.py's
// PredAbsState/PredAbsTransferRelation/PredAbsCPA, with the solver
// indirection replaced by internal/solver per SPEC_FULL.md §2.3.
package predabs

import (
	"sort"

	"reachcheck/internal/cfa"
	"reachcheck/internal/formula"
)

// Precision is spec.md §3's precision: a per-node set of unindexed
// predicates, plus a global set available at every node (the seed
// predicates and any node-agnostic refinement additions), grounded on
// pycpa/analyses/PredAbsPrecision.py's PredAbsPrecision. Refinement only
// ever adds predicates (monotone, spec.md §3).
type Precision struct {
	Global  []formula.Term
	PerNode map[cfa.NodeID][]formula.Term
}

// NewPrecision seeds a precision with g's syntactic seed predicates,
// global (available at every node), per SPEC_FULL.md §4's "per-edge seed
// predicates" supplement.
func NewPrecision(g *cfa.Graph) *Precision {
	return &Precision{Global: formula.SeedPredicates(g), PerNode: map[cfa.NodeID][]formula.Term{}}
}

// At returns the full predicate set in effect at node: Global plus
// PerNode[node], deduplicated.
func (p *Precision) At(node cfa.NodeID) []formula.Term {
	seen := make(map[string]bool, len(p.Global))
	out := make([]formula.Term, 0, len(p.Global))
	for _, t := range p.Global {
		if !seen[t.Key()] {
			seen[t.Key()] = true
			out = append(out, t)
		}
	}
	for _, t := range p.PerNode[node] {
		if !seen[t.Key()] {
			seen[t.Key()] = true
			out = append(out, t)
		}
	}
	return out
}

// Add inserts predicates into node's set, skipping any already present
// (monotone refinement, spec.md §3's invariant). Reports whether anything
// new was added, so the CEGAR driver can detect a refinement fixpoint
// (spec.md §4.11 step 5: "If no new predicate is produced, terminate with
// UNKNOWN").
func (p *Precision) Add(node cfa.NodeID, predicates []formula.Term) bool {
	existing := map[string]bool{}
	for _, t := range p.At(node) {
		existing[t.Key()] = true
	}
	added := false
	for _, t := range predicates {
		if t.IsTrue() || t.IsFalse() || existing[t.Key()] {
			continue
		}
		existing[t.Key()] = true
		p.PerNode[node] = append(p.PerNode[node], t)
		added = true
	}
	return added
}

// Clone performs a deep-enough copy for the CEGAR driver to mutate a fresh
// precision per iteration while leaving the previous one (used by earlier
// ARG states still referenced from CEX history, if any) intact.
func (p *Precision) Clone() *Precision {
	out := &Precision{
		Global:  append([]formula.Term(nil), p.Global...),
		PerNode: make(map[cfa.NodeID][]formula.Term, len(p.PerNode)),
	}
	for node, ts := range p.PerNode {
		out.PerNode[node] = append([]formula.Term(nil), ts...)
	}
	return out
}

// Nodes returns every node with a non-empty per-node predicate set, sorted,
// for deterministic dumping (internal/visual, summary.txt).
func (p *Precision) Nodes() []cfa.NodeID {
	nodes := make([]cfa.NodeID, 0, len(p.PerNode))
	for n := range p.PerNode {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
