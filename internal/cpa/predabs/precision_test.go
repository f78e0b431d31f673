package predabs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reachcheck/internal/cfa"
	"reachcheck/internal/formula"
)

func TestNewPrecisionSeedsGlobalFromCFA(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	n1 := g.AddNode("main")
	g.AddEdge(n0, n1, cfa.Instruction{Kind: cfa.Nop})

	p := NewPrecision(g)
	assert.Contains(t, p.Global, formula.True())
	assert.Contains(t, p.Global, formula.False())
}

func TestAddIsMonotoneAndReportsChange(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	p := NewPrecision(g)

	pred := formula.Binary("<", formula.Unindexed("x"), formula.Const(0))
	added := p.Add(n0, []formula.Term{pred})
	assert.True(t, added)

	addedAgain := p.Add(n0, []formula.Term{pred})
	assert.False(t, addedAgain)

	assert.Contains(t, p.At(n0), pred)
}

func TestAddSkipsTrivialPredicates(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	p := NewPrecision(g)

	added := p.Add(n0, []formula.Term{formula.True(), formula.False()})
	assert.False(t, added)
}

func TestAtDeduplicatesGlobalAndPerNode(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	p := NewPrecision(g)
	p.Add(n0, []formula.Term{formula.True()})

	seen := map[string]int{}
	for _, t := range p.At(n0) {
		seen[t.Key()]++
	}
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	p := NewPrecision(g)
	pred := formula.Binary("<", formula.Unindexed("x"), formula.Const(0))
	p.Add(n0, []formula.Term{pred})

	clone := p.Clone()
	clone.Add(n0, []formula.Term{formula.Binary(">", formula.Unindexed("y"), formula.Const(0))})

	assert.Len(t, p.PerNode[n0], 1)
	assert.Len(t, clone.PerNode[n0], 2)
}

func TestNodesIsSortedAndOnlyNonEmpty(t *testing.T) {
	g := cfa.NewGraph()
	n0 := g.AddNode("main")
	n1 := g.AddNode("main")
	n2 := g.AddNode("main")
	p := NewPrecision(g)
	p.PerNode = map[cfa.NodeID][]formula.Term{
		n2: {formula.Binary("<", formula.Unindexed("x"), formula.Const(0))},
		n0: {formula.Binary(">", formula.Unindexed("y"), formula.Const(0))},
	}
	_ = n1

	nodes := p.Nodes()
	assert.Equal(t, []cfa.NodeID{n0, n2}, nodes)
}
