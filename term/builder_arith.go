package term

import "math/big"

// Add builds x + y over matching Bv or Int operands. Add(x, 0) -> x
// per the identity-constant rule; fully-literal operands fold.
func (b *Builder) Add(x, y *Expr) (*Expr, error) {
	t, err := b.requireSameNumeric("Add", x, y)
	if err != nil {
		return nil, err
	}
	if isZeroLiteral(y) {
		return x, nil
	}
	if isZeroLiteral(x) {
		return y, nil
	}
	if x.IsLiteral() && y.IsLiteral() {
		return b.numericLiteral(t, new(big.Int).Add(literalValue(x), literalValue(y))), nil
	}
	return b.ctx.intern(&Expr{Kind: Add, Type: t, Operands: []*Expr{x, y}}), nil
}

// Sub builds x - y.
func (b *Builder) Sub(x, y *Expr) (*Expr, error) {
	t, err := b.requireSameNumeric("Sub", x, y)
	if err != nil {
		return nil, err
	}
	if isZeroLiteral(y) {
		return x, nil
	}
	if x.IsLiteral() && y.IsLiteral() {
		return b.numericLiteral(t, new(big.Int).Sub(literalValue(x), literalValue(y))), nil
	}
	return b.ctx.intern(&Expr{Kind: Sub, Type: t, Operands: []*Expr{x, y}}), nil
}

// Mul builds x * y. Mul(x, 1) -> x per the identity-constant rule.
func (b *Builder) Mul(x, y *Expr) (*Expr, error) {
	t, err := b.requireSameNumeric("Mul", x, y)
	if err != nil {
		return nil, err
	}
	if isOneLiteral(y) {
		return x, nil
	}
	if isOneLiteral(x) {
		return y, nil
	}
	if x.IsLiteral() && y.IsLiteral() {
		return b.numericLiteral(t, new(big.Int).Mul(literalValue(x), literalValue(y))), nil
	}
	return b.ctx.intern(&Expr{Kind: Mul, Type: t, Operands: []*Expr{x, y}}), nil
}

// SDiv builds signed division over matching Bv or Int operands. No
// rewrite is performed that would depend on the absence of overflow or
// division by zero — those remain the caller's (lowering's) concern.
func (b *Builder) SDiv(x, y *Expr) (*Expr, error) {
	t, err := b.requireSameNumeric("SDiv", x, y)
	if err != nil {
		return nil, err
	}
	if x.IsLiteral() && y.IsLiteral() && signedValue(y).Sign() != 0 {
		q := new(big.Int).Quo(signedValue(x), signedValue(y))
		return b.numericLiteral(t, q), nil
	}
	return b.ctx.intern(&Expr{Kind: SDiv, Type: t, Operands: []*Expr{x, y}}), nil
}

// UDiv builds unsigned division over matching Bv operands.
func (b *Builder) UDiv(x, y *Expr) (*Expr, error) {
	bv, err := b.requireBv("UDiv", x, y)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && y.Kind == BvLit && y.BvVal.Sign() != 0 {
		q := new(big.Int).Quo(x.BvVal, y.BvVal)
		return b.BvConst(bv.Width, q), nil
	}
	return b.ctx.intern(&Expr{Kind: UDiv, Type: bv, Operands: []*Expr{x, y}}), nil
}

// SMod builds signed modulo. Fully-literal operands fold to the
// Euclidean remainder, which is never negative whatever the operands'
// signs.
func (b *Builder) SMod(x, y *Expr) (*Expr, error) {
	t, err := b.requireSameNumeric("SMod", x, y)
	if err != nil {
		return nil, err
	}
	if x.IsLiteral() && y.IsLiteral() && signedValue(y).Sign() != 0 {
		m := euclideanMod(signedValue(x), signedValue(y))
		return b.numericLiteral(t, m), nil
	}
	return b.ctx.intern(&Expr{Kind: SMod, Type: t, Operands: []*Expr{x, y}}), nil
}

// URem builds unsigned remainder over matching Bv operands.
func (b *Builder) URem(x, y *Expr) (*Expr, error) {
	bv, err := b.requireBv("URem", x, y)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && y.Kind == BvLit && y.BvVal.Sign() != 0 {
		r := new(big.Int).Rem(x.BvVal, y.BvVal)
		return b.BvConst(bv.Width, r), nil
	}
	return b.ctx.intern(&Expr{Kind: URem, Type: bv, Operands: []*Expr{x, y}}), nil
}

// BvAnd, BvOr, BvXor build bitwise operations over matching Bv operands.
func (b *Builder) BvAnd(x, y *Expr) (*Expr, error) { return b.bitwise(BvAnd, x, y, new(big.Int).And) }
func (b *Builder) BvOr(x, y *Expr) (*Expr, error)  { return b.bitwise(BvOr, x, y, new(big.Int).Or) }
func (b *Builder) BvXor(x, y *Expr) (*Expr, error) { return b.bitwise(BvXor, x, y, new(big.Int).Xor) }

func (b *Builder) bitwise(kind ExprKind, x, y *Expr, op func(a, c *big.Int) *big.Int) (*Expr, error) {
	bv, err := b.requireBv(kind.String(), x, y)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && y.Kind == BvLit {
		return b.BvConst(bv.Width, op(x.BvVal, y.BvVal)), nil
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: bv, Operands: []*Expr{x, y}}), nil
}

// Shl, LShr, AShr build shifts; the shift amount is a Bv of the same
// width as the shifted value, preserving width like every other
// bit-vector operator.
func (b *Builder) Shl(x, amount *Expr) (*Expr, error) {
	bv, err := b.requireBv("Shl", x, amount)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && amount.Kind == BvLit {
		shifted := new(big.Int).Lsh(x.BvVal, uint(amount.BvVal.Int64()))
		return b.BvConst(bv.Width, shifted), nil
	}
	return b.ctx.intern(&Expr{Kind: Shl, Type: bv, Operands: []*Expr{x, amount}}), nil
}

// LShr builds a logical (zero-filling) right shift.
func (b *Builder) LShr(x, amount *Expr) (*Expr, error) {
	bv, err := b.requireBv("LShr", x, amount)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && amount.Kind == BvLit {
		shifted := new(big.Int).Rsh(x.BvVal, uint(amount.BvVal.Int64()))
		return b.BvConst(bv.Width, shifted), nil
	}
	return b.ctx.intern(&Expr{Kind: LShr, Type: bv, Operands: []*Expr{x, amount}}), nil
}

// AShr builds an arithmetic (sign-extending) right shift.
func (b *Builder) AShr(x, amount *Expr) (*Expr, error) {
	bv, err := b.requireBv("AShr", x, amount)
	if err != nil {
		return nil, err
	}
	if x.Kind == BvLit && amount.Kind == BvLit {
		shifted := new(big.Int).Rsh(signedValue(x), uint(amount.BvVal.Int64()))
		return b.BvConst(bv.Width, shifted), nil
	}
	return b.ctx.intern(&Expr{Kind: AShr, Type: bv, Operands: []*Expr{x, amount}}), nil
}

// FAdd, FSub, FMul, FDiv build IEEE-754 float arithmetic.
func (b *Builder) FAdd(x, y *Expr) (*Expr, error) {
	return b.floatArith(FAdd, x, y, func(a, c float64) float64 { return a + c })
}
func (b *Builder) FSub(x, y *Expr) (*Expr, error) {
	return b.floatArith(FSub, x, y, func(a, c float64) float64 { return a - c })
}
func (b *Builder) FMul(x, y *Expr) (*Expr, error) {
	return b.floatArith(FMul, x, y, func(a, c float64) float64 { return a * c })
}
func (b *Builder) FDiv(x, y *Expr) (*Expr, error) {
	return b.floatArith(FDiv, x, y, func(a, c float64) float64 { return a / c })
}

func (b *Builder) floatArith(kind ExprKind, x, y *Expr, op func(a, c float64) float64) (*Expr, error) {
	ft, ok := x.Type.(FloatType)
	if !ok || !x.Type.Equal(y.Type) {
		return nil, b.mismatch(kind.String(), "matching Float", x.Type.String()+","+y.Type.String())
	}
	if x.Kind == FloatLit && y.Kind == FloatLit {
		return b.FloatConst(ft.Format, op(x.FloatVal, y.FloatVal)), nil
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: ft, Operands: []*Expr{x, y}}), nil
}

func isZeroLiteral(e *Expr) bool {
	switch e.Kind {
	case BvLit:
		return e.BvVal.Sign() == 0
	case IntLit:
		return e.IntVal.Sign() == 0
	}
	return false
}

func isOneLiteral(e *Expr) bool {
	switch e.Kind {
	case BvLit:
		return e.BvVal.Cmp(big.NewInt(1)) == 0
	case IntLit:
		return e.IntVal.Cmp(big.NewInt(1)) == 0
	}
	return false
}

func literalValue(e *Expr) *big.Int {
	if e.Kind == IntLit {
		return e.IntVal
	}
	return e.BvVal
}

func (b *Builder) numericLiteral(t Type, v *big.Int) *Expr {
	if bv, ok := t.(BvType); ok {
		return b.BvConst(bv.Width, v)
	}
	return b.IntConst(v)
}

func euclideanMod(x, y *big.Int) *big.Int {
	m := new(big.Int).Mod(x, new(big.Int).Abs(y))
	return m
}
