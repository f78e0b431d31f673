package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndicesNextBumpsAndGetDefaultsToZero(t *testing.T) {
	idx := Indices{}
	assert.Equal(t, 0, idx.Get("x"))
	assert.Equal(t, 1, idx.Next("x"))
	assert.Equal(t, 1, idx.Get("x"))
	assert.Equal(t, 2, idx.Next("x"))
}

func TestIndicesCloneIsIndependent(t *testing.T) {
	idx := Indices{"x": 1}
	clone := idx.Clone()
	clone.Next("x")
	assert.Equal(t, 1, idx.Get("x"))
	assert.Equal(t, 2, clone.Get("x"))
}

func TestIndicesEqual(t *testing.T) {
	a := Indices{"x": 1, "y": 0}
	b := Indices{"x": 1, "y": 0}
	c := Indices{"x": 1}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestIndicesKeyIsOrderIndependent(t *testing.T) {
	a := Indices{"x": 1, "y": 2}
	b := Indices{"y": 2, "x": 1}
	assert.Equal(t, a.Key(), b.Key())
}

func TestIndexStampsUnindexedVars(t *testing.T) {
	idx := Indices{"x": 3}
	out := Index(Unindexed("x"), idx)
	assert.Equal(t, Var("x", 3), out)

	// already-indexed vars pass through unchanged.
	pre := Var("x", 9)
	assert.Equal(t, pre, Index(pre, idx))
}

func TestIndexRecursesThroughConnectives(t *testing.T) {
	idx := Indices{"x": 1, "y": 2}
	tm := Binary("==", Unindexed("x"), Unindexed("y"))
	out := Index(tm, idx)
	assert.True(t, out.Equal(Binary("==", Var("x", 1), Var("y", 2))))
}

func TestUnindexStripsIndices(t *testing.T) {
	tm := Binary("==", Var("x", 1), Var("y", 0))
	assert.True(t, Unindex(tm).Equal(Binary("==", Unindexed("x"), Unindexed("y"))))
}

func TestPadAddsEqualityForLaggingVars(t *testing.T) {
	indices := Indices{"x": 1}
	target := Indices{"x": 3}
	out := Pad(Var("x", 1), indices, target)

	want := And(Var("x", 1), Binary("==", Var("x", 3), Var("x", 1)))
	assert.True(t, out.Equal(want))
}

func TestPadNoOpWhenAlreadyCaughtUp(t *testing.T) {
	indices := Indices{"x": 3}
	target := Indices{"x": 3}
	base := Var("x", 3)
	out := Pad(base, indices, target)
	assert.True(t, out.Equal(base))
}

func TestMaxIndicesTakesLarger(t *testing.T) {
	a := Indices{"x": 1, "y": 5}
	b := Indices{"x": 4, "z": 2}
	out := MaxIndices(a, b)
	assert.Equal(t, 4, out["x"])
	assert.Equal(t, 5, out["y"])
	assert.Equal(t, 2, out["z"])
}
