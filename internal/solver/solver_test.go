package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachcheck/internal/formula"
)

func x() formula.Term { return formula.Var("x", 0) }
func y() formula.Term { return formula.Var("y", 0) }
func c(v int64) formula.Term { return formula.Const(v) }
func cmp(op string, l, r formula.Term) formula.Term { return formula.Binary(op, l, r) }

func TestSatTrivialConstants(t *testing.T) {
	s := New(DefaultConfig())
	sat, err := s.Sat(formula.True())
	require.NoError(t, err)
	assert.True(t, sat)

	sat, err = s.Sat(formula.False())
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestSatRangeWithASolution(t *testing.T) {
	s := New(DefaultConfig())
	phi := formula.And(cmp(">", x(), c(5)), cmp("<", x(), c(10)))
	sat, err := s.Sat(phi)
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestSatEmptyIntegerRangeIsUnsat(t *testing.T) {
	s := New(DefaultConfig())
	phi := formula.And(cmp(">", x(), c(5)), cmp("<", x(), c(6)))
	sat, err := s.Sat(phi)
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestSatContradictoryEqualityIsUnsat(t *testing.T) {
	s := New(DefaultConfig())
	phi := formula.And(cmp("==", x(), c(5)), cmp("==", x(), c(6)))
	sat, err := s.Sat(phi)
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestSatDisjunctionSatisfiedByEitherDisjunct(t *testing.T) {
	s := New(DefaultConfig())
	phi := formula.Or(cmp("==", x(), c(1)), cmp("==", x(), c(2)))
	sat, err := s.Sat(phi)
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestSatIndependentVariablesAreSatisfiable(t *testing.T) {
	s := New(DefaultConfig())
	phi := formula.And(cmp("==", x(), c(1)), cmp("==", y(), c(2)))
	sat, err := s.Sat(phi)
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestSeqInterpTrivialEmptySequence(t *testing.T) {
	s := New(DefaultConfig())
	taus, ok := s.SeqInterp(nil)
	require.True(t, ok)
	require.Len(t, taus, 2)
	assert.True(t, taus[0].IsTrue())
	assert.True(t, taus[1].IsFalse())
}

func TestSeqInterpSeparatesUnsatSequence(t *testing.T) {
	s := New(DefaultConfig())
	conjuncts := []formula.Term{cmp("==", x(), c(5)), cmp("==", x(), c(6))}

	taus, ok := s.SeqInterp(conjuncts)
	require.True(t, ok)
	require.Len(t, taus, 3)
	assert.True(t, taus[0].IsTrue())
	assert.True(t, taus[2].IsFalse())

	// tau[1] must be implied by the prefix and contradict the suffix.
	implied, err := s.Sat(formula.And(conjuncts[0], formula.Not(taus[1])))
	require.NoError(t, err)
	assert.False(t, implied, "prefix must imply tau[1]")

	contradicts, err := s.Sat(formula.And(taus[1], conjuncts[1]))
	require.NoError(t, err)
	assert.False(t, contradicts, "tau[1] must contradict the suffix")
}

func TestToNNFPushesNegationThroughAnd(t *testing.T) {
	phi := formula.Not(formula.And(cmp("==", x(), c(1)), cmp("==", y(), c(2))))
	got := toNNF(phi)
	assert.Equal(t, `((x#0 != 1) || (y#0 != 2))`, got.String())
}

func TestToNNFPushesNegationThroughOr(t *testing.T) {
	phi := formula.Not(formula.Or(cmp("==", x(), c(1)), cmp("==", y(), c(2))))
	got := toNNF(phi)
	assert.Equal(t, `((x#0 != 1) && (y#0 != 2))`, got.String())
}

func TestToNNFCancelsDoubleNegation(t *testing.T) {
	phi := formula.Not(formula.Not(cmp("==", x(), c(1))))
	assert.Equal(t, "(x#0 == 1)", toNNF(phi).String())
}

func TestToDNFDistributesAndOverOr(t *testing.T) {
	a := cmp("==", x(), c(1))
	b := cmp("==", x(), c(2))
	d := cmp("==", y(), c(3))
	phi := formula.Binary("&&", formula.Binary("||", a, b), d)

	clauses := toDNF(phi)
	require.Len(t, clauses, 2)
	assert.Equal(t, "((x#0 == 1) && (y#0 == 3))", clauses[0].String())
	assert.Equal(t, "((x#0 == 2) && (y#0 == 3))", clauses[1].String())
}

func TestToDNFLeavesSingleLiteralUnchanged(t *testing.T) {
	lit := cmp("==", x(), c(1))
	assert.Equal(t, []formula.Term{lit}, toDNF(lit))
}

func TestConjunctsFlattensNestedAnd(t *testing.T) {
	a := cmp("==", x(), c(1))
	b := cmp("==", y(), c(2))
	flat := conjuncts(formula.And(a, b))
	require.Len(t, flat, 2)
	assert.Equal(t, a, flat[0])
	assert.Equal(t, b, flat[1])
}

func TestEvalIntArithmetic(t *testing.T) {
	env := map[string]int64{"x#0": 7}
	v, ok := evalInt(formula.Binary("+", x(), formula.Const(3)), env)
	require.True(t, ok)
	assert.Equal(t, int64(10), v)
}

func TestEvalIntDivisionByZeroIsUndefined(t *testing.T) {
	_, ok := evalInt(formula.Binary("/", formula.Const(1), formula.Const(0)), nil)
	assert.False(t, ok)
}

func TestEvalIntPow(t *testing.T) {
	v, ok := evalInt(formula.Binary("**", formula.Const(2), formula.Const(10)), nil)
	require.True(t, ok)
	assert.Equal(t, int64(1024), v)

	_, ok = evalInt(formula.Binary("**", formula.Const(2), formula.Const(-1)), nil)
	assert.False(t, ok)
}

func TestEvalIntFloorDivRoundsTowardNegativeInfinity(t *testing.T) {
	v, ok := evalInt(formula.Binary("~/", formula.Const(-7), formula.Const(2)), nil)
	require.True(t, ok)
	assert.Equal(t, int64(-4), v)

	_, ok = evalInt(formula.Binary("~/", formula.Const(1), formula.Const(0)), nil)
	assert.False(t, ok)
}

func TestEvalBoolComparisonsAndConnectives(t *testing.T) {
	env := map[string]int64{"x#0": 5}
	v, ok := evalBool(cmp("<=", x(), c(5)), env)
	require.True(t, ok)
	assert.True(t, v)

	v, ok = evalBool(formula.And(cmp("==", x(), c(5)), cmp(">", x(), c(10))), env)
	require.True(t, ok)
	assert.False(t, v)
}

func TestEvalBoolUnboundVariableIsUndefined(t *testing.T) {
	_, ok := evalBool(cmp("==", x(), c(5)), map[string]int64{})
	assert.False(t, ok)
}
