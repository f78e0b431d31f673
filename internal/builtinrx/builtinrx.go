// Package builtinrx recognizes the builtin call family spec.md §3/§6
// reserves special instruction-kind treatment for: reach_error, nondet,
// and the __VERIFIER_nondet_* wildcard family, grounded on
// pycpa/cfa.py's builtin_identifiers table.
package builtinrx

import "github.com/coregx/coregex"

// Kind classifies a callee name into the CFA instruction kind it must
// produce, mirroring pycpa's InstructionType enum entries relevant to
// builtins.
type Kind int

const (
	NotBuiltin Kind = iota
	ReachError
	Nondet
)

var nondetPattern = coregex.MustCompile(`^__VERIFIER_nondet_u?(char|short|int|long)$`)

// Classify returns the instruction kind a call to name must produce.
func Classify(name string) Kind {
	switch {
	case name == "reach_error":
		return ReachError
	case name == "nondet":
		return Nondet
	case nondetPattern.MatchString(name):
		return Nondet
	default:
		return NotBuiltin
	}
}

// IsBuiltin reports whether name names one of the recognized builtins.
func IsBuiltin(name string) bool {
	return Classify(name) != NotBuiltin
}
