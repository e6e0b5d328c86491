package reference

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/solver"
	"bmc/term"
)

func TestReferenceSolverFindsSatisfyingBvAssignment(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)
	x, err := ctx.NewVariable("x", term.BvType{Width: 4})
	require.NoError(t, err)

	goal, err := b.Eq(b.VarRef(x), b.BvConstU(4, 7))
	require.NoError(t, err)

	s := New(ctx)
	require.NoError(t, s.Add(goal))

	status, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.SAT, status)

	val, ok := s.Model().BvValue(x)
	require.True(t, ok)
	assert.Equal(t, int64(7), val.Int64())
}

func TestReferenceSolverReportsUnsat(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)
	x, err := ctx.NewVariable("x", term.BvType{Width: 2})
	require.NoError(t, err)

	eq, err := b.Eq(b.VarRef(x), b.BvConstU(2, 1))
	require.NoError(t, err)
	notEq, err := b.NotEq(b.VarRef(x), b.BvConstU(2, 1))
	require.NoError(t, err)

	s := New(ctx)
	require.NoError(t, s.Add(eq))
	require.NoError(t, s.Add(notEq))

	status, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.UNSAT, status)
}

func TestReferenceSolverUnknownOnUnboundedIntVariable(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)
	x, err := ctx.NewVariable("x", term.IntType{})
	require.NoError(t, err)

	goal, err := b.Eq(b.VarRef(x), b.IntConst(big.NewInt(5)))
	require.NoError(t, err)

	s := New(ctx)
	require.NoError(t, s.Add(goal))

	status, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Unknown, status)
}

func TestReferenceSolverBoolSatisfiesConjunction(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)
	p, err := ctx.NewVariable("p", term.BoolType{})
	require.NoError(t, err)
	q, err := ctx.NewVariable("q", term.BoolType{})
	require.NoError(t, err)

	s := New(ctx)
	require.NoError(t, s.Add(b.VarRef(p)))
	notQ, err := b.Not(b.VarRef(q))
	require.NoError(t, err)
	require.NoError(t, s.Add(notQ))

	status, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.SAT, status)

	pv, ok := s.Model().BoolValue(p)
	require.True(t, ok)
	assert.True(t, pv)
	qv, ok := s.Model().BoolValue(q)
	require.True(t, ok)
	assert.False(t, qv)
}
