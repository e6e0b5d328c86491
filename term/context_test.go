package term

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashConsingReturnsSamePointerForEqualLiterals(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	a1 := b.BvConstU(8, 3)
	a2 := b.BvConstU(8, 3)
	assert.True(t, a1 == a2, "equal Bv literals must intern to the same node")

	i1 := b.IntConst(big.NewInt(42))
	i2 := b.IntConst(big.NewInt(42))
	assert.True(t, i1 == i2)
}

func TestHashConsingDistinguishesByType(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	bv8 := b.BvConstU(8, 3)
	bv16 := b.BvConstU(16, 3)
	assert.False(t, bv8 == bv16, "same payload under different widths must not collide")
}

func TestHashConsingOfCompoundExpressions(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	x, err := ctx.NewVariable("x", BvType{Width: 32})
	require.NoError(t, err)
	y, err := ctx.NewVariable("y", BvType{Width: 32})
	require.NoError(t, err)

	sum1, err := b.Add(b.VarRef(x), b.VarRef(y))
	require.NoError(t, err)
	sum2, err := b.Add(b.VarRef(x), b.VarRef(y))
	require.NoError(t, err)

	assert.True(t, sum1 == sum2, "structurally identical compound expressions must intern to one node")
}

func TestDuplicateVariableNameRejected(t *testing.T) {
	ctx := NewContext()
	_, err := ctx.NewVariable("x", BoolType{})
	require.NoError(t, err)

	_, err = ctx.NewVariable("x", BoolType{})
	assert.Error(t, err)
}

func TestUndefIsPerTypeSingleton(t *testing.T) {
	ctx := NewContext()
	u1 := ctx.UndefOf(BvType{Width: 8})
	u2 := ctx.UndefOf(BvType{Width: 8})
	u3 := ctx.UndefOf(BvType{Width: 16})

	assert.True(t, u1 == u2)
	assert.False(t, u1 == u3)
}
