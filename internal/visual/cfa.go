package visual

import (
	"fmt"

	"reachcheck/internal/cfa"
)

// CFANode adapts a cfa.Graph node to Graphable, for dumping the CFA per
// spec.md §6's "Persisted state layout" (`cfa`).
type CFANode struct {
	G    *cfa.Graph
	Node cfa.NodeID
}

func (n CFANode) ID() string { return fmt.Sprintf("n%d", n.Node) }

func (n CFANode) NodeLabel() string {
	node := n.G.Node(n.Node)
	if node.IsError {
		return fmt.Sprintf("%s\\n#%d [ERROR]", node.Func, n.Node)
	}
	return fmt.Sprintf("%s\\n#%d", node.Func, n.Node)
}

func (n CFANode) Successors() []Graphable {
	leaving := n.G.LeavingEdges(n.Node)
	out := make([]Graphable, len(leaving))
	for i, e := range leaving {
		out[i] = CFANode{G: n.G, Node: e.Successor}
	}
	return out
}

func (n CFANode) EdgeLabels(succ Graphable) []string {
	other := succ.(CFANode)
	var labels []string
	for _, e := range n.G.LeavingEdges(n.Node) {
		if e.Successor == other.Node {
			labels = append(labels, edgeLabel(&e))
		}
	}
	return labels
}

func edgeLabel(e *cfa.Edge) string {
	instr := e.Instruction
	switch instr.Kind {
	case cfa.Statement:
		if instr.AssignTo == "" {
			return "NOP"
		}
		return fmt.Sprintf("%s := ...", instr.AssignTo)
	case cfa.Assumption:
		if instr.Negated {
			return "!(cond)"
		}
		return "cond"
	case cfa.Call:
		return fmt.Sprintf("CALL %s", instr.Callee)
	case cfa.Return:
		return "RETURN"
	case cfa.Nondet:
		return "NONDET"
	case cfa.ReachError:
		return "REACH_ERROR"
	default:
		return instr.Kind.String()
	}
}

// CFAGraphFor produces the Graphable root set for every function entry in
// g, for a whole-program CFA dump.
func CFAGraphFor(g *cfa.Graph) []Graphable {
	roots := make([]Graphable, 0, len(g.Entries))
	for _, entry := range g.Entries {
		roots = append(roots, CFANode{G: g, Node: entry})
	}
	return roots
}
