package cfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	g := NewGraph()
	n0 := g.AddNode("main")
	n1 := g.AddNode("main")

	assert.Equal(t, NodeID(0), n0)
	assert.Equal(t, NodeID(1), n1)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "main", g.Node(n1).Func)
}

func TestAddEdgeCrossLinksAdjacency(t *testing.T) {
	g := NewGraph()
	n0 := g.AddNode("f")
	n1 := g.AddNode("f")

	eid := g.AddEdge(n0, n1, Instruction{Kind: Nop})

	require.Len(t, g.Node(n0).Leaving, 1)
	require.Len(t, g.Node(n1).Entering, 1)
	assert.Equal(t, eid, g.Node(n0).Leaving[0])
	assert.Equal(t, eid, g.Node(n1).Entering[0])

	leaving := g.LeavingEdges(n0)
	require.Len(t, leaving, 1)
	assert.Equal(t, n1, leaving[0].Successor)
}

func TestMarkError(t *testing.T) {
	g := NewGraph()
	n0 := g.AddNode("f")
	assert.False(t, g.Node(n0).IsError)

	g.MarkError(n0)
	assert.True(t, g.Node(n0).IsError)
}

func TestInstructionKindString(t *testing.T) {
	cases := map[InstructionKind]string{
		Statement:   "STATEMENT",
		Assumption:  "ASSUMPTION",
		Call:        "CALL",
		Return:      "RETURN",
		Nondet:      "NONDET",
		ReachError:  "REACH_ERROR",
		Nop:         "NOP",
		InstructionKind(99): "UNKNOWN",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
