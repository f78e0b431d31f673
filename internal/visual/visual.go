// Package visual is the Graphviz DOT writer of spec.md §6 ("Visualizer:
// given any object implementing {get_node_label, get_successors,
// get_edge_labels}, produces a graph file; used to dump AST, CFA,
// precision, ARG per refinement"), grounded on
// pycpa/utils/visual.py's Graphable/graphable_to_dot. No library in the
// example pack emits Graphviz output (the original shells out to the
// `graphviz` Python package, which has no Go analog anywhere in the
// corpus), so this writes the textual DOT format directly — the same
// stdlib-only treatment kanso itself gives its own hand-written
// internal/ir/printer.go.
package visual

import (
	"fmt"
	"io"
)

// Graphable is the minimal node interface graphable_to_dot requires: a
// label, its successor nodes, and the labels on the edges leading to each.
type Graphable interface {
	// ID uniquely identifies this node among all nodes reachable from the
	// same roots; the Go equivalent of Python's id(n) identity, made
	// explicit since Go values don't have a stable built-in identity.
	ID() string
	NodeLabel() string
	Successors() []Graphable
	EdgeLabels(succ Graphable) []string
}

// WriteDOT performs the breadth-first walk graphable_to_dot does, writing
// a single `digraph <name> { ... }` to w.
func WriteDOT(w io.Writer, name string, roots []Graphable) error {
	if _, err := fmt.Fprintf(w, "digraph %s {\n  rankdir=LR;\n", name); err != nil {
		return err
	}

	seen := map[string]bool{}
	queue := append([]Graphable(nil), roots...)
	for _, r := range roots {
		seen[r.ID()] = true
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if _, err := fmt.Fprintf(w, "  %q [shape=box,label=%q];\n", n.ID(), n.NodeLabel()); err != nil {
			return err
		}
		for _, succ := range n.Successors() {
			if !seen[succ.ID()] {
				seen[succ.ID()] = true
				queue = append(queue, succ)
			}
			labels := n.EdgeLabels(succ)
			if len(labels) == 0 {
				if _, err := fmt.Fprintf(w, "  %q -> %q;\n", n.ID(), succ.ID()); err != nil {
					return err
				}
				continue
			}
			for _, lbl := range labels {
				if _, err := fmt.Fprintf(w, "  %q -> %q [label=%q];\n", n.ID(), succ.ID(), lbl); err != nil {
					return err
				}
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
