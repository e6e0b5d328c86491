package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAndFlattensNestedConjunctions(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BoolType{})
	y, _ := ctx.NewVariable("y", BoolType{})
	z, _ := ctx.NewVariable("z", BoolType{})

	inner, err := b.And(b.VarRef(x), b.VarRef(y))
	require.NoError(t, err)
	outer, err := b.And(inner, b.VarRef(z))
	require.NoError(t, err)

	flat, err := b.And(b.VarRef(x), b.VarRef(y), b.VarRef(z))
	require.NoError(t, err)

	assert.True(t, outer == flat, "nested And should flatten to the same n-ary node as the flat form")
	assert.Len(t, outer.Operands, 3)
}

func TestAndDropsTrueAndShortCircuitsOnFalse(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BoolType{})

	withTrue, err := b.And(b.VarRef(x), b.True())
	require.NoError(t, err)
	assert.True(t, withTrue == b.VarRef(x))

	withFalse, err := b.And(b.VarRef(x), b.False())
	require.NoError(t, err)
	assert.True(t, withFalse == b.False())
}

func TestAndEmptyAndSingleton(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BoolType{})

	empty, err := b.And()
	require.NoError(t, err)
	assert.True(t, empty == b.True())

	single, err := b.And(b.VarRef(x))
	require.NoError(t, err)
	assert.True(t, single == b.VarRef(x))
}

func TestOrDualSimplifications(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BoolType{})

	withFalse, err := b.Or(b.VarRef(x), b.False())
	require.NoError(t, err)
	assert.True(t, withFalse == b.VarRef(x))

	withTrue, err := b.Or(b.VarRef(x), b.True())
	require.NoError(t, err)
	assert.True(t, withTrue == b.True())
}

func TestXorFoldsLiterals(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	r, err := b.Xor(b.True(), b.False())
	require.NoError(t, err)
	assert.True(t, r == b.True())

	r2, err := b.Xor(b.True(), b.True())
	require.NoError(t, err)
	assert.True(t, r2 == b.False())
}

func TestAndCheckedRejectsNonBool(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	_, err := b.AndChecked(b.BvConstU(8, 1))
	assert.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}
