package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/cfa"
	"reachcheck/internal/cpa"
	"reachcheck/internal/cpa/location"
)

// buildCallGraph wires caller --CALL--> resume (CalleeFn: callee entry) and
// callee entry --RETURN--> calleeRet, a node with no leaving edges, matching
// the CALL/RETURN edge convention internal/cfabuild produces; StackCPA
// resumes the caller at the call edge's successor.
func buildCallGraph() (g *cfa.Graph, caller, resume, calleeEntry, calleeRet cfa.NodeID, callEdge, retEdge *cfa.Edge) {
	g = cfa.NewGraph()
	caller = g.AddNode("main")
	resume = g.AddNode("main")
	calleeEntry = g.AddNode("f")
	calleeRet = g.AddNode("f")

	callEdgeID := g.AddEdge(caller, resume, cfa.Instruction{Kind: cfa.Call, Callee: "f", CalleeFn: calleeEntry})
	retEdgeID := g.AddEdge(calleeEntry, calleeRet, cfa.Instruction{Kind: cfa.Return})

	callEdge = g.Edge(callEdgeID)
	retEdge = g.Edge(retEdgeID)
	return
}

func TestInitialStateIsSingleFrameWithNilCallEdge(t *testing.T) {
	g, caller, _, _, _, _, _ := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)

	s := c.InitialState().(State)
	require.Len(t, s.Frames, 1)
	require.Len(t, s.CallEdges, 1)
	assert.Nil(t, s.CallEdges[0])
}

func TestCallPushesNewFrame(t *testing.T) {
	g, caller, _, calleeEntry, _, callEdge, _ := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)

	init := c.InitialState().(State)
	succs, err := c.Transfer().SuccessorsForEdge(init, callEdge)
	require.NoError(t, err)
	require.Len(t, succs, 1)

	out := succs[0].(State)
	require.Len(t, out.Frames, 2)
	assert.Equal(t, calleeEntry, out.Frames[1].(location.State).Node)
	assert.Equal(t, callEdge.ID, out.CallEdges[1].ID)
}

func TestReturnPopsFrameAndResumesAtCallSuccessor(t *testing.T) {
	g, caller, resume, calleeEntry, _, callEdge, retEdge := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)

	init := c.InitialState().(State)
	afterCall, err := c.Transfer().SuccessorsForEdge(init, callEdge)
	require.NoError(t, err)
	pushed := afterCall[0].(State)

	// The callee frame already sits at calleeEntry, where RETURN leaves
	// from.
	assert.Equal(t, calleeEntry, pushed.Frames[1].(location.State).Node)

	afterReturn, err := c.Transfer().SuccessorsForEdge(pushed, retEdge)
	require.NoError(t, err)
	require.Len(t, afterReturn, 1)

	popped := afterReturn[0].(State)
	require.Len(t, popped.Frames, 1)
	assert.Equal(t, resume, popped.Frames[0].(location.State).Node)
}

func TestReturnAtRootFrameTerminates(t *testing.T) {
	g, caller, _, _, _, _, retEdge := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)

	init := c.InitialState().(State)
	succs, err := c.Transfer().SuccessorsForEdge(init, retEdge)
	require.NoError(t, err)
	assert.Nil(t, succs)
}

func TestMergeOnlyJoinsWhenLowerFramesEqual(t *testing.T) {
	g, caller, _, _, _, callEdge, _ := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)
	merge := Merge{Wrapped: cpa.MergeSep{}}

	init := c.InitialState().(State)
	afterCall, err := c.Transfer().SuccessorsForEdge(init, callEdge)
	require.NoError(t, err)
	a := afterCall[0].(State)
	b := afterCall[0].(State)

	out, err := merge.Merge(a, b)
	require.NoError(t, err)
	assert.True(t, out.(State).Equal(b))
}

func TestStopRequiresEqualDepthAndPointwiseCoverage(t *testing.T) {
	g, caller, _, _, _, callEdge, _ := buildCallGraph()
	inner := location.NewCPA(g, caller)
	c := NewCPA(inner)
	stop := Stop{Wrapped: c.wrapped.Stop()}

	init := c.InitialState().(State)
	afterCall, err := c.Transfer().SuccessorsForEdge(init, callEdge)
	require.NoError(t, err)
	pushed := afterCall[0].(State)

	ok, err := stop.Stop(pushed, []cpa.State{init})
	require.NoError(t, err)
	assert.False(t, ok, "different stack depths must never be considered covered")

	ok, err = stop.Stop(pushed, []cpa.State{pushed})
	require.NoError(t, err)
	assert.True(t, ok)
}
