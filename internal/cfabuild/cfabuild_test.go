package cfabuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/ast"
	"reachcheck/internal/cfa"
)

func fn(name string, params []string, body ...ast.Stmt) *ast.Function {
	return &ast.Function{Name: name, Params: params, Body: body}
}

func program(fns ...*ast.Function) *ast.Program {
	return &ast.Program{Functions: fns}
}

func countEdgesOfKind(g *cfa.Graph, k cfa.InstructionKind) int {
	n := 0
	for _, e := range g.Edges {
		if e.Instruction.Kind == k {
			n++
		}
	}
	return n
}

func TestBuildCreatesSingleSharedErrorNode(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.AssignStmt{Target: "x", Value: &ast.IntLit{Value: 1}},
		&ast.CallStmt{Callee: "reach_error"},
	))

	g, err := Build(prog)
	require.NoError(t, err)

	var errNodes []cfa.NodeID
	for _, n := range g.Nodes {
		if n.IsError {
			errNodes = append(errNodes, n.ID)
		}
	}
	require.Len(t, errNodes, 1)
	assert.Equal(t, 1, countEdgesOfKind(g, cfa.ReachError))
}

func TestBuildNondetCallProducesNondetEdge(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.CallStmt{Target: "x", Callee: "nondet"},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	require.Equal(t, 1, countEdgesOfKind(g, cfa.Nondet))

	for _, e := range g.Edges {
		if e.Instruction.Kind == cfa.Nondet {
			assert.Equal(t, "x", e.Instruction.AssignTo)
		}
	}
}

func TestBuildVerifierNondetWildcardIsRecognized(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.CallStmt{Target: "x", Callee: "__VERIFIER_nondet_int"},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	assert.Equal(t, 1, countEdgesOfKind(g, cfa.Nondet))
}

func TestBuildCallToUserFunctionWiresCalleeEntry(t *testing.T) {
	prog := program(
		fn("main", nil, &ast.CallStmt{Callee: "helper", Args: []ast.Expr{&ast.IntLit{Value: 1}}}),
		fn("helper", []string{"p"}),
	)

	g, err := Build(prog)
	require.NoError(t, err)

	found := false
	for _, e := range g.Edges {
		if e.Instruction.Kind == cfa.Call {
			found = true
			assert.Equal(t, "helper", e.Instruction.Callee)
			assert.Equal(t, g.Entries["helper"], e.Instruction.CalleeFn)
			assert.Equal(t, []string{"p"}, e.Instruction.Params)
		}
	}
	assert.True(t, found, "expected a CALL edge")
}

func TestBuildCallToUndeclaredFunctionFails(t *testing.T) {
	prog := program(fn("main", nil, &ast.CallStmt{Callee: "missing"}))
	_, err := Build(prog)
	assert.Error(t, err)
}

func TestBuildCallArityMismatchFails(t *testing.T) {
	prog := program(
		fn("main", nil, &ast.CallStmt{Callee: "helper", Args: []ast.Expr{&ast.IntLit{Value: 1}}}),
		fn("helper", []string{"a", "b"}),
	)
	_, err := Build(prog)
	assert.Error(t, err)
}

func TestBuildIfProducesBothAssumptionBranchesAndJoin(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.IfStmt{
			Cond: &ast.BoolLit{Value: true},
			Then: []ast.Stmt{&ast.AssignStmt{Target: "x", Value: &ast.IntLit{Value: 1}}},
			Else: []ast.Stmt{&ast.AssignStmt{Target: "x", Value: &ast.IntLit{Value: 2}}},
		},
		&ast.AssignStmt{Target: "y", Value: &ast.IntLit{Value: 3}},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	assert.Equal(t, 2, countEdgesOfKind(g, cfa.Assumption))

	negated := 0
	for _, e := range g.Edges {
		if e.Instruction.Kind == cfa.Assumption && e.Instruction.Negated {
			negated++
		}
	}
	assert.Equal(t, 1, negated)
}

func TestBuildIfWithBothBranchesReturningHasNoJoin(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.IfStmt{
			Cond: &ast.BoolLit{Value: true},
			Then: []ast.Stmt{&ast.ReturnStmt{}},
			Else: []ast.Stmt{&ast.ReturnStmt{}},
		},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	assert.Equal(t, 2, countEdgesOfKind(g, cfa.Return))
	assert.Equal(t, 0, countEdgesOfKind(g, cfa.Nop))
}

func TestBuildWhileLoopHeadHasBodyAndExitAssumptions(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.WhileStmt{
			Cond: &ast.BoolLit{Value: true},
			Body: []ast.Stmt{&ast.AssignStmt{Target: "x", Value: &ast.IntLit{Value: 1}}},
		},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	assert.Equal(t, 2, countEdgesOfKind(g, cfa.Assumption))
}

func TestBuildBreakTargetsLoopExit(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.WhileStmt{
			Cond: &ast.BoolLit{Value: true},
			Body: []ast.Stmt{&ast.BreakStmt{}},
		},
	))

	g, err := Build(prog)
	require.NoError(t, err)
	assert.Equal(t, 3, countEdgesOfKind(g, cfa.Nop), "entry->loop head, break->exit, and the function's fallthrough nop")
}

func TestBuildContinueTargetsLoopHead(t *testing.T) {
	prog := program(fn("main", nil,
		&ast.WhileStmt{
			Cond: &ast.BoolLit{Value: true},
			Body: []ast.Stmt{&ast.ContinueStmt{}},
		},
	))

	_, err := Build(prog)
	require.NoError(t, err)
}

func TestBuildBreakOutsideLoopFails(t *testing.T) {
	prog := program(fn("main", nil, &ast.BreakStmt{}))
	_, err := Build(prog)
	assert.Error(t, err)
}

func TestBuildContinueOutsideLoopFails(t *testing.T) {
	prog := program(fn("main", nil, &ast.ContinueStmt{}))
	_, err := Build(prog)
	assert.Error(t, err)
}

func TestBuildUnsupportedStatementFails(t *testing.T) {
	prog := program(fn("main", nil, unsupportedStmt{}))
	_, err := Build(prog)
	assert.Error(t, err)
}

// unsupportedStmt is a minimal ast.Stmt the builder has no case for, used to
// exercise buildStmt's default error path.
type unsupportedStmt struct{}

func (unsupportedStmt) stmtNode()            {}
func (unsupportedStmt) StmtPos() ast.Position { return ast.Position{} }
