package predabsabe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/ast"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa/predabs"
	"reachcheck/internal/formula"
	"reachcheck/internal/solver"
)

func TestCallsOnlyStrategy(t *testing.T) {
	g := cfa.NewGraph()
	caller := g.AddNode("main")
	resume := g.AddNode("main")
	callee := g.AddNode("f")
	g.AddEdge(caller, resume, cfa.Instruction{Kind: cfa.Call, Callee: "f", CalleeFn: callee})

	assert.True(t, CallsOnly(g, caller))
	assert.False(t, CallsOnly(g, resume))
}

func TestBranchesAndCallsStrategy(t *testing.T) {
	g := cfa.NewGraph()
	head := g.AddNode("main")
	thenN := g.AddNode("main")
	elseN := g.AddNode("main")
	cond := &ast.Ident{Name: "x"}
	g.AddEdge(head, thenN, cfa.Instruction{Kind: cfa.Assumption, Cond: cond})
	g.AddEdge(head, elseN, cfa.Instruction{Kind: cfa.Assumption, Cond: cond, Negated: true})

	assert.True(t, BranchesAndCalls(g, head))
	assert.False(t, BranchesAndCalls(g, thenN))
}

func TestLoopHeadsAndCallsRequiresMultipleEnteringEdges(t *testing.T) {
	g := cfa.NewGraph()
	head := g.AddNode("main")
	body := g.AddNode("main")
	after := g.AddNode("main")
	cond := &ast.Ident{Name: "x"}
	g.AddEdge(head, body, cfa.Instruction{Kind: cfa.Assumption, Cond: cond})
	g.AddEdge(head, after, cfa.Instruction{Kind: cfa.Assumption, Cond: cond, Negated: true})
	g.AddEdge(body, head, cfa.Instruction{Kind: cfa.Nop}) // back edge

	assert.True(t, LoopHeadsAndCalls(g, head))
}

func TestTransferAccumulatesPathFormulaUntilBlockHead(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	n1 := g.AddNode("main")
	g.AddEdge(n0, n1, cfa.Instruction{Kind: cfa.Statement, AssignTo: "x", Value: &ast.IntLit{Value: 1}})
	edge := g.Edge(g.Node(n0).Leaving[0])

	precision := &predabs.Precision{PerNode: map[cfa.NodeID][]formula.Term{}}
	s := solver.New(solver.DefaultConfig())
	// n0 never qualifies as a block head here (no call, not a branch).
	transfer := Transfer{Precision: precision, Solver: s, BlockHead: CallsOnly, G: g}

	succs, err := transfer.SuccessorsForEdge(initial(), edge)
	require.NoError(t, err)
	require.Len(t, succs, 1)
	out := succs[0].(State)
	assert.False(t, out.HasAbstraction)
	assert.False(t, out.PathFormula.IsTrue())
}

func TestTransferAbstractsAtBlockHead(t *testing.T) {
	g := cfa.NewGraph()
	caller := g.AddNode("main")
	resume := g.AddNode("main")
	callee := g.AddNode("f")
	g.AddEdge(caller, resume, cfa.Instruction{Kind: cfa.Call, Callee: "f", CalleeFn: callee})
	edge := g.Edge(g.Node(caller).Leaving[0])

	precision := &predabs.Precision{PerNode: map[cfa.NodeID][]formula.Term{}}
	s := solver.New(solver.DefaultConfig())
	transfer := Transfer{Precision: precision, Solver: s, BlockHead: CallsOnly, G: g}

	succs, err := transfer.SuccessorsForEdge(initial(), edge)
	require.NoError(t, err)
	require.Len(t, succs, 1)
	out := succs[0].(State)
	assert.True(t, out.HasAbstraction)
	assert.Equal(t, caller, out.AbstractionLocation)
	assert.True(t, out.PathFormula.IsTrue())
	assert.Empty(t, out.SSA)
}

func TestMergeJoinDisjoinsPathFormulasWhenLocationsAgree(t *testing.T) {
	e := State{HasAbstraction: true, AbstractionLocation: 1, PathFormula: formula.Var("x", 0), SSA: formula.Indices{"x": 0}}
	eprime := State{HasAbstraction: true, AbstractionLocation: 1, PathFormula: formula.Var("y", 0), SSA: formula.Indices{"y": 0}}

	out, err := (MergeJoin{}).Merge(e, eprime)
	require.NoError(t, err)
	merged := out.(State)
	assert.Equal(t, formula.KindBinary, merged.PathFormula.Kind)
	assert.Equal(t, "||", merged.PathFormula.Op)
}

func TestMergeJoinFallsBackToSepWhenLocationsDiffer(t *testing.T) {
	e := State{HasAbstraction: true, AbstractionLocation: 1}
	eprime := State{HasAbstraction: true, AbstractionLocation: 2}

	out, err := (MergeJoin{}).Merge(e, eprime)
	require.NoError(t, err)
	assert.Equal(t, eprime, out)
}
