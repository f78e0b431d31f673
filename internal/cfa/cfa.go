// Package cfa is the Control-Flow Automaton data model of spec.md §3: a
// read-only, arena-indexed node/edge graph built once by internal/cfabuild
// and shared by every CPA thereafter. The arena idiom (integer-indexed
// slices instead of pointer-linked nodes) follows kanso/internal/ir's
// Value/Instruction ID convention, adapted here to a fixed, immutable
// graph instead of a mutable SSA form.
package cfa

import "reachcheck/internal/ast"

// InstructionKind classifies a CFA edge, mirroring pycpa/cfa.py's
// InstructionType enum restricted to what spec.md's restricted language
// produces.
type InstructionKind int

const (
	Statement InstructionKind = iota
	Assumption
	Call
	Return
	Nondet
	ReachError
	Nop
)

func (k InstructionKind) String() string {
	switch k {
	case Statement:
		return "STATEMENT"
	case Assumption:
		return "ASSUMPTION"
	case Call:
		return "CALL"
	case Return:
		return "RETURN"
	case Nondet:
		return "NONDET"
	case ReachError:
		return "REACH_ERROR"
	case Nop:
		return "NOP"
	default:
		return "UNKNOWN"
	}
}

// Instruction is the payload of an edge. Only the fields relevant to the
// edge's Kind are populated.
type Instruction struct {
	Kind InstructionKind

	// STATEMENT / NONDET: the assigned variable and the value expression
	// (nil value expression for NONDET, which is unconstrained).
	AssignTo string
	Value    ast.Expr

	// ASSUMPTION: the boolean condition that must hold to take this edge.
	// Negated is true for the "else"/loop-exit branch of a condition CFA
	// node, which assumes the logical negation of Cond.
	Cond     ast.Expr
	Negated  bool

	// CALL: callee entry node, its formal parameters, the actual argument
	// expressions evaluated in the caller, and the variable (if any) that
	// receives the eventual return value.
	Callee    string
	CalleeFn  NodeID
	Params    []string
	Args      []ast.Expr
	ReturnTo  string

	// RETURN: the returned value expression, nil for a bare return.
	ReturnValue ast.Expr
}

// NodeID indexes into Graph.Nodes.
type NodeID int

// EdgeID indexes into Graph.Edges.
type EdgeID int

// Node is one CFA location.
type Node struct {
	ID       NodeID
	Func     string
	IsError  bool // true for the unique sink reached only by REACH_ERROR edges
	Entering []EdgeID
	Leaving  []EdgeID
}

// Edge is one CFA transition between two nodes.
type Edge struct {
	ID          EdgeID
	Predecessor NodeID
	Successor   NodeID
	Instruction Instruction
}

// Graph is the whole program's control-flow automaton: one connected
// component per function, joined at CALL/RETURN edges.
type Graph struct {
	Nodes   []Node
	Edges   []Edge
	Entries map[string]NodeID // function name -> entry node
	Exits   map[string]NodeID // function name -> single exit node
}

// NewGraph returns an empty, mutable graph for internal/cfabuild to
// populate; callers outside cfabuild should treat the result as read-only.
func NewGraph() *Graph {
	return &Graph{Entries: map[string]NodeID{}, Exits: map[string]NodeID{}}
}

// AddNode appends a fresh node and returns its ID.
func (g *Graph) AddNode(fn string) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{ID: id, Func: fn})
	return id
}

// AddEdge appends a fresh edge between pred and succ and cross-links it
// into both endpoints' adjacency lists.
func (g *Graph) AddEdge(pred, succ NodeID, instr Instruction) EdgeID {
	id := EdgeID(len(g.Edges))
	g.Edges = append(g.Edges, Edge{ID: id, Predecessor: pred, Successor: succ, Instruction: instr})
	g.Nodes[pred].Leaving = append(g.Nodes[pred].Leaving, id)
	g.Nodes[succ].Entering = append(g.Nodes[succ].Entering, id)
	return id
}

// Node returns the node for id.
func (g *Graph) Node(id NodeID) *Node { return &g.Nodes[id] }

// Edge returns the edge for id.
func (g *Graph) Edge(id EdgeID) *Edge { return &g.Edges[id] }

// LeavingEdges returns the edges leaving node id.
func (g *Graph) LeavingEdges(id NodeID) []Edge {
	node := g.Nodes[id]
	out := make([]Edge, len(node.Leaving))
	for i, eid := range node.Leaving {
		out[i] = g.Edges[eid]
	}
	return out
}

// MarkError flags node id as an error location (the target of spec.md's
// unreach-call property).
func (g *Graph) MarkError(id NodeID) { g.Nodes[id].IsError = true }
