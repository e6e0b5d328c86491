package term

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIdentityAndFolding(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", BvType{Width: 8})

	withZero, err := b.Add(b.VarRef(x), b.BvConstU(8, 0))
	require.NoError(t, err)
	assert.True(t, withZero == b.VarRef(x))

	folded, err := b.Add(b.BvConstU(8, 200), b.BvConstU(8, 100))
	require.NoError(t, err)
	assert.True(t, folded == b.BvConstU(8, 44), "200+100 truncated to 8 bits is 44")
}

func TestMulIdentityAndFolding(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)
	x, _ := ctx.NewVariable("x", IntType{})

	withOne, err := b.Mul(b.VarRef(x), b.IntConst(big.NewInt(1)))
	require.NoError(t, err)
	assert.True(t, withOne == b.VarRef(x))

	folded, err := b.Mul(b.IntConst(big.NewInt(6)), b.IntConst(big.NewInt(7)))
	require.NoError(t, err)
	assert.True(t, folded == b.IntConst(big.NewInt(42)))
}

func TestUDivAndSDivDisagreeOnNegativeOperands(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	negOne := b.BvConstU(8, 0xFF) // -1 signed, 255 unsigned
	two := b.BvConstU(8, 2)

	sdiv, err := b.SDiv(negOne, two)
	require.NoError(t, err)
	assert.True(t, sdiv == b.BvConstU(8, 0), "-1/2 truncates toward zero to 0")

	udiv, err := b.UDiv(negOne, two)
	require.NoError(t, err)
	assert.True(t, udiv == b.BvConstU(8, 127), "255/2 == 127 unsigned")
}

func TestBitwiseOperatorsFoldOverLiterals(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	and, err := b.BvAnd(b.BvConstU(8, 0b1100), b.BvConstU(8, 0b1010))
	require.NoError(t, err)
	assert.True(t, and == b.BvConstU(8, 0b1000))

	or, err := b.BvOr(b.BvConstU(8, 0b1100), b.BvConstU(8, 0b0010))
	require.NoError(t, err)
	assert.True(t, or == b.BvConstU(8, 0b1110))

	xor, err := b.BvXor(b.BvConstU(8, 0b1100), b.BvConstU(8, 0b1010))
	require.NoError(t, err)
	assert.True(t, xor == b.BvConstU(8, 0b0110))
}

func TestShiftsFoldOverLiterals(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	shl, err := b.Shl(b.BvConstU(8, 1), b.BvConstU(8, 3))
	require.NoError(t, err)
	assert.True(t, shl == b.BvConstU(8, 8))

	lshr, err := b.LShr(b.BvConstU(8, 0x80), b.BvConstU(8, 4))
	require.NoError(t, err)
	assert.True(t, lshr == b.BvConstU(8, 0x08), "logical shift zero-fills from the top")

	ashr, err := b.AShr(b.BvConstU(8, 0x80), b.BvConstU(8, 4))
	require.NoError(t, err)
	assert.True(t, ashr == b.BvConstU(8, 0xF8), "arithmetic shift sign-extends a negative operand")
}

func TestFloatArithmeticFoldsAndRejectsMismatchedFormats(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	sum, err := b.FAdd(b.FloatConst(Double, 1.5), b.FloatConst(Double, 2.5))
	require.NoError(t, err)
	assert.True(t, sum == b.FloatConst(Double, 4.0))

	_, err = b.FAdd(b.FloatConst(Double, 1.0), b.FloatConst(Single, 1.0))
	assert.Error(t, err)
}

func TestRequireSameNumericRejectsBoolOperand(t *testing.T) {
	ctx := NewContext()
	b := NewBuilder(ctx)

	_, err := b.Add(b.True(), b.IntConst(big.NewInt(1)))
	assert.Error(t, err)
}
