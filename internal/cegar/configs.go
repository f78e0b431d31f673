// Package cegar is the named analysis configuration registry and
// counterexample-guided refinement driver of spec.md §4.11 and §6,
// grounded on pycpa/config/*.py's get_cpas(entry_point, cfa_roots,
// output_dir, **params) pattern and pycpa/analyses/PredAbsCEGAR.py.
package cegar

import (
	"fmt"

	"reachcheck/internal/argraph"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
	"reachcheck/internal/cpa/arg"
	"reachcheck/internal/cpa/composite"
	"reachcheck/internal/cpa/location"
	"reachcheck/internal/cpa/predabs"
	"reachcheck/internal/cpa/predabsabe"
	"reachcheck/internal/cpa/property"
	"reachcheck/internal/cpa/stack"
	"reachcheck/internal/cpa/value"
	"reachcheck/internal/solver"
)

// ConfigName is one of the eight-plus-one analysis configurations spec.md
// §6 names.
type ConfigName string

const (
	ReachabilityAnalysis   ConfigName = "ReachabilityAnalysis"
	ValueAnalysis          ConfigName = "ValueAnalysis"
	ValueAnalysisMergeJoin ConfigName = "ValueAnalysisMergeJoin"
	PredicateAnalysis      ConfigName = "PredicateAnalysis"
	PredicateAnalysisCEGAR ConfigName = "PredicateAnalysisCEGAR"
	PredicateAnalysisABEf  ConfigName = "PredicateAnalysisABEf"
	PredicateAnalysisABElf ConfigName = "PredicateAnalysisABElf"
	PredicateAnalysisABEbf ConfigName = "PredicateAnalysisABEbf"
	// FormulaAnalysis is spec.md §6's ninth name: pure path-formula
	// accumulation with no abstraction ever applied (a block-head strategy
	// that never fires), reusing the ABE transfer relation but never
	// cutting the path formula — equivalent to bounded formula accumulation
	// up to whatever depth the fixpoint naturally explores.
	FormulaAnalysis ConfigName = "FormulaAnalysis"
)

// AllConfigs lists every recognized configuration name, for CLI help text
// and input validation.
var AllConfigs = []ConfigName{
	ReachabilityAnalysis, ValueAnalysis, ValueAnalysisMergeJoin,
	PredicateAnalysis, PredicateAnalysisCEGAR,
	PredicateAnalysisABEf, PredicateAnalysisABElf, PredicateAnalysisABEbf,
	FormulaAnalysis,
}

// IsCEGAR reports whether name's analysis refines its precision across
// counterexample-guided iterations rather than running a single fixpoint
// with a fixed (possibly empty) precision.
func (n ConfigName) IsCEGAR() bool {
	switch n {
	case PredicateAnalysisCEGAR, PredicateAnalysisABEf, PredicateAnalysisABElf, PredicateAnalysisABEbf:
		return true
	default:
		return false
	}
}

// usesPredicates reports whether name's composite includes a predicate
// component at all (so a Precision must be built for it).
func (n ConfigName) usesPredicates() bool {
	switch n {
	case PredicateAnalysis, PredicateAnalysisCEGAR,
		PredicateAnalysisABEf, PredicateAnalysisABElf, PredicateAnalysisABEbf,
		FormulaAnalysis:
		return true
	default:
		return false
	}
}

func neverBlockHead(*cfa.Graph, cfa.NodeID) bool { return false }

// Stack builds the full ARG(Stack(Composite(...))) CPA stack for name,
// rooted at root, reusing precision (nil for non-predicate configs) and
// recording every ARG node in arena. Grounded on spec.md §4.11 step 1:
// "Build fresh CPA stack: ARG ⟨ Composite(Location, PredAbs(π), Property)
// ⟩. (Stack and ABE variants plug in here.)"
func Stack(name ConfigName, g *cfa.Graph, root cfa.NodeID, s *solver.Solver, precision *predabs.Precision, arena *argraph.Graph, stats *arg.Stats) (cpa.CPA, error) {
	loc := location.NewCPA(g, root)
	prop := property.NewCPA()

	var inner cpa.CPA
	switch name {
	case ReachabilityAnalysis:
		inner = composite.NewCPA(loc, prop)
	case ValueAnalysis:
		inner = composite.NewCPA(loc, value.NewCPA(), prop)
	case ValueAnalysisMergeJoin:
		inner = composite.NewCPA(loc, value.NewCPAMergeJoin(), prop)
	case PredicateAnalysis, PredicateAnalysisCEGAR:
		inner = composite.NewCPA(loc, predabs.NewCPA(precision, s), prop)
	case PredicateAnalysisABEf:
		inner = composite.NewCPA(loc, predabsabe.NewCPA(g, precision, s, predabsabe.CallsOnly, true), prop)
	case PredicateAnalysisABElf:
		inner = composite.NewCPA(loc, predabsabe.NewCPA(g, precision, s, predabsabe.LoopHeadsAndCalls, true), prop)
	case PredicateAnalysisABEbf:
		inner = composite.NewCPA(loc, predabsabe.NewCPA(g, precision, s, predabsabe.BranchesAndCalls, true), prop)
	case FormulaAnalysis:
		inner = composite.NewCPA(loc, predabsabe.NewCPA(g, precision, s, neverBlockHead, false), prop)
	default:
		return nil, fmt.Errorf("cegar: unknown configuration %q", name)
	}

	wrapped := stack.NewCPA(inner)
	return arg.NewCPA(wrapped, arena, stats), nil
}
