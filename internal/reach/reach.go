// Package reach is the fixpoint work-list algorithm of spec.md §4.10,
// grounded on pycpa/cpaalgorithm.py's CPAAlgorithm.run — including its
// documented fix of the historical merge-argument-order bug ("merge the
// candidate successor into a reached state").
package reach

import (
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
	"reachcheck/internal/task"
)

// Algorithm runs one CPA's work-list exploration to a fixpoint, to a
// target, or to budget exhaustion.
type Algorithm struct {
	G   *cfa.Graph
	CPA cpa.CPA
}

func New(g *cfa.Graph, c cpa.CPA) *Algorithm { return &Algorithm{G: g, CPA: c} }

// targetOf reports whether state is a target, delegating through any
// Targetable wrapper (pycpa's `hasattr(state, "is_target")`).
func targetOf(s cpa.State) bool {
	t, ok := s.(cpa.Targetable)
	return ok && t.IsTarget()
}

// locationOf extracts the CFA node a state sits at, delegating through
// any LocationAware wrapper.
func locationOf(s cpa.State) cfa.NodeID {
	return s.(cpa.LocationAware).Location()
}

// Run explores from initial to a fixpoint, writing the outcome into
// result.Status (and leaving result.Verdict for the caller — the CEGAR
// driver interprets ERROR/OK/TIMEOUT into a verdict per spec.md §4.11
// step 2). It returns the final reached set and, on Status.ERROR, the
// offending target state.
func (a *Algorithm) Run(initial cpa.State, maxIterations int, result *task.Result) (reached []cpa.State, errorState cpa.State) {
	transfer := a.CPA.Transfer()
	merge := a.CPA.Merge()
	stop := a.CPA.Stop()

	reachedSet := []cpa.State{initial}
	waitlist := []cpa.State{initial}
	iterations := 0

	for len(waitlist) > 0 {
		// FIFO pop (BFS), matching pycpa's plain-list `pop(0)` default so
		// runs are deterministic across implementations for the same
		// program (spec.md §4.10: "choose DFS or BFS for determinism").
		e := waitlist[0]
		waitlist = waitlist[1:]

		if targetOf(e) {
			result.Status = task.StatusError
			return reachedSet, e
		}

		iterations++
		if maxIterations > 0 && iterations >= maxIterations {
			result.Status = task.StatusTimeout
			return reachedSet, nil
		}

		loc := locationOf(e)
		for _, edge := range a.G.LeavingEdges(loc) {
			edge := edge
			successors, err := transfer.SuccessorsForEdge(e, &edge)
			if err != nil {
				result.Status = task.StatusError
				result.RefinementNote = err.Error()
				return reachedSet, nil
			}
			for _, s := range successors {
				if targetOf(s) {
					result.Status = task.StatusError
					return reachedSet, s
				}

				// merge: merge s into every existing reached state; any
				// reached state the merge actually changes is replaced by
				// the merged result in both reached and waitlist.
				removed := make(map[string]bool)
				var added []cpa.State
				next := reachedSet[:0:0]
				for _, r := range reachedSet {
					merged, err := merge.Merge(s, r)
					if err != nil {
						result.Status = task.StatusError
						result.RefinementNote = err.Error()
						return reachedSet, nil
					}
					if !merged.Equal(r) {
						removed[r.Key()] = true
						added = append(added, merged)
						next = append(next, merged)
					} else {
						next = append(next, r)
					}
				}
				reachedSet = next
				if len(removed) > 0 {
					waitlist = dropByKey(waitlist, removed)
					waitlist = append(waitlist, added...)
				}

				covered, err := stop.Stop(s, reachedSet)
				if err != nil {
					result.Status = task.StatusError
					result.RefinementNote = err.Error()
					return reachedSet, nil
				}
				if !covered {
					reachedSet = append(reachedSet, s)
					waitlist = append(waitlist, s)
				}
			}
		}
	}

	result.Status = task.StatusOK
	return reachedSet, nil
}

// dropByKey removes every state whose Key is in removed, mirroring
// pycpa's `waitlist -= to_remove` on the set representation.
func dropByKey(waitlist []cpa.State, removed map[string]bool) []cpa.State {
	out := waitlist[:0:0]
	for _, w := range waitlist {
		if !removed[w.Key()] {
			out = append(out, w)
		}
	}
	return out
}
