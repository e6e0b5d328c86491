package term

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFoldsLiteralCondition(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BvType{Width: 8})
	y, _ := ctx.NewVariable("y", BvType{Width: 8})

	whenTrue, err := b.Select(b.True(), b.VarRef(x), b.VarRef(y))
	require.NoError(t, err)
	assert.True(t, whenTrue == b.VarRef(x))

	whenFalse, err := b.Select(b.False(), b.VarRef(x), b.VarRef(y))
	require.NoError(t, err)
	assert.True(t, whenFalse == b.VarRef(y))
}

func TestSelectRejectsMismatchedBranchTypes(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	cond, _ := ctx.NewVariable("c", BoolType{})

	_, err := b.Select(b.VarRef(cond), b.BvConstU(8, 1), b.IntConst(big.NewInt(1)))
	assert.Error(t, err)
}

func TestArrayWriteThenReadSameKey(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	at := ArrayType{KeyType: BvType{Width: 8}, ValueType: BvType{Width: 32}}
	arr, _ := ctx.NewVariable("arr", at)

	written, err := b.ArrayWrite(b.VarRef(arr), b.BvConstU(8, 1), b.BvConstU(32, 99))
	require.NoError(t, err)

	read, err := b.ArrayRead(written, b.BvConstU(8, 1))
	require.NoError(t, err)
	assert.True(t, read == b.BvConstU(32, 99), "reading the just-written key returns the written value")
}

func TestArrayWriteDropsShadowedPriorWriteToSameKey(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	at := ArrayType{KeyType: BvType{Width: 8}, ValueType: BvType{Width: 32}}
	arr, _ := ctx.NewVariable("arr", at)

	first, err := b.ArrayWrite(b.VarRef(arr), b.BvConstU(8, 1), b.BvConstU(32, 1))
	require.NoError(t, err)
	second, err := b.ArrayWrite(first, b.BvConstU(8, 1), b.BvConstU(32, 2))
	require.NoError(t, err)

	assert.True(t, second.Operands[0] == b.VarRef(arr), "the shadowed first write should not appear as the base of the second")
}
