package visual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/argraph"
	"reachcheck/internal/cfa"
)

func TestARGNodeLabelFallsBackToIndexWhenUnlabeled(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	n := ARGNode{Arena: arena, Node: root}
	assert.Equal(t, "#0", n.NodeLabel())
}

func TestARGNodeLabelUsesProvidedLabel(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	n := ARGNode{Arena: arena, Node: root, Labels: map[argraph.NodeID]string{root: "{x==5}"}}
	assert.Equal(t, "{x==5}", n.NodeLabel())
}

func TestARGNodeIDIsPrefixed(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	assert.Equal(t, "arg0", ARGNode{Arena: arena, Node: root}.ID())
}

func TestARGNodeSuccessorsFollowChildren(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	child := arena.AddChild(root, &cfa.Edge{ID: 1})
	n := ARGNode{Arena: arena, Node: root}

	succs := n.Successors()
	require.Len(t, succs, 1)
	assert.Equal(t, child, succs[0].(ARGNode).Node)
}

func TestARGNodeEdgeLabelsNilWhenNoCreatingEdge(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	a := arena.AddChild(root, &cfa.Edge{ID: 1})
	b := arena.AddChild(root, &cfa.Edge{ID: 2})
	merged := arena.AddMergedChild([]argraph.NodeID{a, b}, nil)

	n := ARGNode{Arena: arena, Node: root}
	assert.Nil(t, n.EdgeLabels(ARGNode{Arena: arena, Node: merged}))
}

func TestARGNodeEdgeLabelsNamesCreatingEdge(t *testing.T) {
	arena := argraph.NewGraph()
	root := arena.AddRoot()
	child := arena.AddChild(root, &cfa.Edge{ID: 7})

	n := ARGNode{Arena: arena, Node: root}
	assert.Equal(t, []string{"e7"}, n.EdgeLabels(ARGNode{Arena: arena, Node: child}))
}

func TestARGGraphReturnsNilForEmptyArena(t *testing.T) {
	assert.Nil(t, ARGGraph(argraph.NewGraph(), nil))
}

func TestARGGraphReturnsRootNode(t *testing.T) {
	arena := argraph.NewGraph()
	arena.AddRoot()

	roots := ARGGraph(arena, map[argraph.NodeID]string{0: "init"})
	require.Len(t, roots, 1)
	assert.Equal(t, "arg0", roots[0].ID())
	assert.Equal(t, "init", roots[0].NodeLabel())
}
