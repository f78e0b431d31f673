package argraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/cfa"
)

func TestAddRootHasNoParentsOrCreatingEdge(t *testing.T) {
	g := NewGraph()
	root := g.AddRoot()

	assert.Equal(t, NodeID(0), root)
	assert.Equal(t, 1, g.Len())
	assert.Nil(t, g.Parents[root])
	assert.Nil(t, g.CreatingEdge[root])
}

func TestAddChildLinksParentAndChild(t *testing.T) {
	g := NewGraph()
	root := g.AddRoot()
	edge := &cfa.Edge{ID: 7}

	child := g.AddChild(root, edge)

	require.Equal(t, 2, g.Len())
	assert.Equal(t, []NodeID{root}, g.Parents[child])
	assert.Equal(t, []NodeID{child}, g.Children[root])
	assert.Same(t, edge, g.CreatingEdge[child])
}

func TestAddMergedChildRecordsBothParents(t *testing.T) {
	g := NewGraph()
	root := g.AddRoot()
	a := g.AddChild(root, &cfa.Edge{ID: 1})
	b := g.AddChild(root, &cfa.Edge{ID: 2})

	merged := g.AddMergedChild([]NodeID{a, b}, nil)

	assert.ElementsMatch(t, []NodeID{a, b}, g.Parents[merged])
	assert.Contains(t, g.Children[a], merged)
	assert.Contains(t, g.Children[b], merged)
	assert.Nil(t, g.CreatingEdge[merged])
}

func TestLenTracksNodeCount(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, 0, g.Len())
	g.AddRoot()
	assert.Equal(t, 1, g.Len())
}
