// Package task holds the Verdict/Status/Result/Task types of spec.md §6,
// grounded on pycpa/verdict.py and pycpa/task.py.
package task

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Verdict is the analysis outcome reported for a program.
type Verdict int

const (
	VerdictTrue Verdict = iota
	VerdictFalse
	VerdictUnknown
)

func (v Verdict) String() string {
	switch v {
	case VerdictTrue:
		return "TRUE"
	case VerdictFalse:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// And combines two verdicts the way evaluating a conjunction of ARG node
// properties does (verdict.py's Verdict.__and__): FALSE is absorbing,
// TRUE is the identity, UNKNOWN yields only to FALSE.
func (v Verdict) And(other Verdict) Verdict {
	switch v {
	case VerdictTrue:
		return other
	case VerdictFalse:
		return v
	default: // Unknown
		if other == VerdictTrue {
			return v
		}
		return other
	}
}

// Status is the termination reason of an analysis run.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusOutOfMemory
	StatusAbortedByUser
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusOutOfMemory:
		return "OUT_OF_MEMORY"
	case StatusAbortedByUser:
		return "ABORTED_BY_USER"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Witness is a non-nil pointer only for FALSE verdicts: the extracted
// counterexample (spec.md §4.11 step 3-4).
type Witness struct {
	// EdgeIDs is the CFA edge sequence from root to the target state, in
	// execution order.
	EdgeIDs []int
	// Formula is the rendered SAT conjunction Φ that witnessed feasibility.
	Formula string
}

// Result accumulates the outcome of one task's analysis (pycpa's Result).
type Result struct {
	Verdict     Verdict
	Status      Status
	Witness     *Witness
	ARGComplete bool
	// RefinementNote records why CEGAR stopped short of a verdict, e.g.
	// "refinement fixpoint" or "max refinements exhausted" (spec.md §7).
	RefinementNote string
}

func NewResult() *Result {
	return &Result{Verdict: VerdictUnknown, Status: StatusOK}
}

// Summary renders the compact one-line form spec.md §6 mandates:
// "<program>: <status> <verdict>".
func (r *Result) Summary(program string) string {
	return fmt.Sprintf("%s: %s %s", program, r.Status, r.Verdict)
}

// Task bundles one program's analysis request: the configs/properties to
// run it under and the resource/output parameters, mirroring pycpa's
// Task.
type Task struct {
	Program     string
	ProgramName string
	Configs     []string
	Properties  map[string]bool

	MaxIterations  int
	MaxRefinements int
	OutputDirectory string
}

// New builds a Task the way Task.task_from_args does: deriving the program
// name from the file's base name (without extension) and namespacing the
// output directory under it.
func New(program string, configs, properties []string, maxIterations, maxRefinements int, outputDirectory string) *Task {
	base := filepath.Base(program)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	props := make(map[string]bool, len(properties))
	for _, p := range properties {
		props[p] = true
	}
	return &Task{
		Program:         program,
		ProgramName:     name,
		Configs:         configs,
		Properties:      props,
		MaxIterations:   maxIterations,
		MaxRefinements:  maxRefinements,
		OutputDirectory: filepath.Join(outputDirectory, name),
	}
}

func (t *Task) String() string { return t.Program }
