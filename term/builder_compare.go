package term

import "math/big"

// Eq builds a same-type equality test, folding when both operands are
// literals.
func (b *Builder) Eq(x, y *Expr) (*Expr, error) {
	if !x.Type.Equal(y.Type) {
		return nil, b.mismatch("Eq", x.Type.String(), y.Type.String())
	}
	if folded, ok := b.foldEq(x, y); ok {
		return b.Bool(folded), nil
	}
	return b.ctx.intern(&Expr{Kind: Eq, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}

// NotEq builds ¬Eq(x, y).
func (b *Builder) NotEq(x, y *Expr) (*Expr, error) {
	eq, err := b.Eq(x, y)
	if err != nil {
		return nil, err
	}
	if eq.Kind == BoolLit {
		return b.Bool(!eq.BoolVal), nil
	}
	return b.ctx.intern(&Expr{Kind: NotEq, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}

func (b *Builder) foldEq(x, y *Expr) (bool, bool) {
	if !x.IsLiteral() || !y.IsLiteral() {
		return false, false
	}
	switch x.Kind {
	case BoolLit:
		return x.BoolVal == y.BoolVal, true
	case BvLit:
		return x.BvVal.Cmp(y.BvVal) == 0, true
	case IntLit:
		return x.IntVal.Cmp(y.IntVal) == 0, true
	case FloatLit:
		if x.IsNaNLiteral() || y.IsNaNLiteral() {
			return false, true // IEEE-754: NaN compares unequal to everything, including itself
		}
		return x.FloatVal == y.FloatVal, true
	}
	return false, false
}

// requireSameNumeric validates that x and y share a Bv or Int type and
// returns that type.
func (b *Builder) requireSameNumeric(kind string, x, y *Expr) (Type, error) {
	if !x.Type.Equal(y.Type) {
		return nil, b.mismatch(kind, x.Type.String(), y.Type.String())
	}
	switch x.Type.(type) {
	case BvType, IntType:
		return x.Type, nil
	default:
		return nil, b.mismatch(kind, "Bv or Int", x.Type.String())
	}
}

func (b *Builder) requireBv(kind string, x, y *Expr) (BvType, error) {
	bv, ok := x.Type.(BvType)
	if !ok || !x.Type.Equal(y.Type) {
		return BvType{}, b.mismatch(kind, "matching Bv", x.Type.String()+","+y.Type.String())
	}
	return bv, nil
}

// Lt builds a signed less-than comparison over matching Bv or Int operands.
func (b *Builder) Lt(x, y *Expr) (*Expr, error) {
	return b.signedCompare(Lt, x, y, func(a, c int) bool { return a < c })
}

// LtEq builds a signed less-than-or-equal comparison.
func (b *Builder) LtEq(x, y *Expr) (*Expr, error) {
	return b.signedCompare(LtEq, x, y, func(a, c int) bool { return a <= c })
}

func (b *Builder) signedCompare(kind ExprKind, x, y *Expr, cmp func(a, c int) bool) (*Expr, error) {
	if _, err := b.requireSameNumeric(kind.String(), x, y); err != nil {
		return nil, err
	}
	if x.IsLiteral() && y.IsLiteral() {
		return b.Bool(cmp(signedValue(x).Cmp(signedValue(y)), 0)), nil
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}

// Ult builds an unsigned less-than comparison over matching Bv operands.
func (b *Builder) Ult(x, y *Expr) (*Expr, error) {
	return b.unsignedCompare(Ult, x, y, func(a, c int) bool { return a < c })
}

// UltEq builds an unsigned less-than-or-equal comparison.
func (b *Builder) UltEq(x, y *Expr) (*Expr, error) {
	return b.unsignedCompare(UltEq, x, y, func(a, c int) bool { return a <= c })
}

func (b *Builder) unsignedCompare(kind ExprKind, x, y *Expr, cmp func(a, c int) bool) (*Expr, error) {
	if _, err := b.requireBv(kind.String(), x, y); err != nil {
		return nil, err
	}
	if x.IsLiteral() && y.IsLiteral() {
		return b.Bool(cmp(x.BvVal.Cmp(y.BvVal), 0)), nil
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}

// FEq, FLt, FLtEq build IEEE-754 float comparisons; a NaN operand makes
// every one of these false (so FEq(x,x) is not generally true), which
// is also why the encoder's temp-elimination treats them as blockers.
func (b *Builder) FEq(x, y *Expr) (*Expr, error) { return b.floatCompare(FEq, x, y) }
func (b *Builder) FLt(x, y *Expr) (*Expr, error) { return b.floatCompare(FLt, x, y) }
func (b *Builder) FLtEq(x, y *Expr) (*Expr, error) {
	return b.floatCompare(FLtEq, x, y)
}

func (b *Builder) floatCompare(kind ExprKind, x, y *Expr) (*Expr, error) {
	if !IsFloat(x.Type) || !x.Type.Equal(y.Type) {
		return nil, b.mismatch(kind.String(), "matching Float", x.Type.String()+","+y.Type.String())
	}
	if x.Kind == FloatLit && y.Kind == FloatLit {
		if x.IsNaNLiteral() || y.IsNaNLiteral() {
			return b.False(), nil
		}
		switch kind {
		case FEq:
			return b.Bool(x.FloatVal == y.FloatVal), nil
		case FLt:
			return b.Bool(x.FloatVal < y.FloatVal), nil
		case FLtEq:
			return b.Bool(x.FloatVal <= y.FloatVal), nil
		}
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}

// signedValue reinterprets a Bv literal's stored (non-negative, width-
// truncated) payload as a two's-complement signed value, or returns an
// Int literal's value unchanged.
func signedValue(e *Expr) *big.Int {
	if e.Kind == IntLit {
		return e.IntVal
	}
	w := Bits(e.Type)
	v := e.BvVal
	if v.Bit(w-1) == 1 {
		signed := new(big.Int).Set(v)
		signed.Sub(signed, new(big.Int).Lsh(big.NewInt(1), uint(w)))
		return signed
	}
	return v
}
